// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package main is the entry point for the readlog server and CLI.
// It loads configuration, connects to services, and dispatches to the
// serve, migrate and export commands.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"readlog/internal/config"
)

var (
	cfg       *config.Config
	useMemory bool
	verbose   bool

	rootCmd = &cobra.Command{
		Use:           "readlog",
		Short:         "Book review log with statistics and reports",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return err
			}
			setupLogger(cfg, verbose)
			slog.Debug("configuration loaded", "env", cfg.Env, "addr", cfg.Addr(), "memory", useMemory)
			return nil
		},
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVar(&useMemory, "memory", false, "use the in-memory store instead of PostgreSQL")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")

	rootCmd.AddCommand(serveCmd, migrateCmd, exportCmd)
}

// setupLogger installs the default structured logger: text in development,
// JSON everywhere else.
func setupLogger(cfg *config.Config, verbose bool) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if verbose || cfg.IsDev() {
		opts.Level = slog.LevelDebug
	}
	var h slog.Handler = slog.NewJSONHandler(os.Stdout, opts)
	if cfg.IsDev() {
		h = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(h))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}
