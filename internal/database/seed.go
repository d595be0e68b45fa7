// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package database

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed genres.yaml
var genresYAML []byte

type genreSeed struct {
	Genres []string `yaml:"genres"`
}

// DefaultGenres returns the built-in genre vocabulary in file order.
func DefaultGenres() ([]string, error) {
	var seed genreSeed
	if err := yaml.Unmarshal(genresYAML, &seed); err != nil {
		return nil, fmt.Errorf("parse genre seed: %w", err)
	}
	names := make([]string, 0, len(seed.Genres))
	for _, g := range seed.Genres {
		if g = strings.TrimSpace(g); g != "" {
			names = append(names, g)
		}
	}
	return names, nil
}

// Seed inserts every default genre that does not exist yet. Existing rows,
// including retired ones, are left untouched, so it is safe to run on
// every start.
func Seed(ctx context.Context, db *sql.DB) error {
	names, err := DefaultGenres()
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed begin: %w", err)
	}
	defer tx.Rollback()

	inserted := 0
	for _, name := range names {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO genres (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, name)
		if err != nil {
			return fmt.Errorf("seed genre %q: %w", name, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed commit: %w", err)
	}

	if inserted == 0 {
		slog.Info("genres already seeded, skipping")
		return nil
	}
	slog.Info("database seeded with default genres", "inserted", inserted)
	return nil
}
