// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"readlog/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|status]",
	Short:     "Apply pending migrations and seed genres, or show migration status",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"up", "status"},
	RunE:      runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	if useMemory {
		return errors.New("migrate needs PostgreSQL; drop --memory")
	}
	action := "up"
	if len(args) == 1 {
		action = args[0]
	}

	ctx := cmd.Context()
	db, err := database.Connect(ctx, cfg.DSN())
	if err != nil {
		return err
	}
	defer db.Close()

	switch action {
	case "status":
		return database.MigrationStatus(db)
	case "up":
		if err := database.Migrate(db); err != nil {
			return err
		}
		return database.Seed(ctx, db)
	}
	return fmt.Errorf("unknown migrate action %q", action)
}
