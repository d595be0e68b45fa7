// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"readlog/internal/cache"
	"readlog/internal/config"
	"readlog/internal/database"
	"readlog/internal/metrics"
	"readlog/internal/report"
	"readlog/internal/service"
	"readlog/internal/storage"
	"readlog/internal/store"
	"readlog/internal/validate"
)

// backend is the wired service layer plus whatever must be closed on exit.
type backend struct {
	reviews *service.Reviews
	records *service.Records
	closers []func()
}

func (b *backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// openBackend connects the stores, caches and archive described by cfg.
// Valkey and S3 are optional: when unavailable, reports are rendered on
// every request and not archived.
func openBackend(ctx context.Context, cfg *config.Config, memory bool, rec metrics.Recorder) (*backend, error) {
	if err := setupFonts(cfg); err != nil {
		return nil, err
	}

	b := &backend{}
	d := service.Deps{
		Validator:   validate.New(nil),
		GenreCache:  cache.NewGenreCache(cfg.GenreCacheSize, cfg.GenreCacheTTL),
		Metrics:     rec,
		PageSize:    cfg.PageSize,
		MonthlyGoal: cfg.MonthlyGoal,
	}

	if memory {
		mem := store.NewMemory(time.Now)
		names, err := database.DefaultGenres()
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			mem.AddGenre(name)
		}
		d.Reviews, d.Genres, d.Records = mem.Reviews(), mem.Genres(), mem.Records()
		slog.Warn("using in-memory store, data is lost on exit")
	} else {
		db, err := database.Connect(ctx, cfg.DSN())
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func() { db.Close() })

		if err := database.Migrate(db); err != nil {
			b.Close()
			return nil, err
		}
		if err := database.Seed(ctx, db); err != nil {
			b.Close()
			return nil, err
		}
		d.Reviews = store.NewReviewStore(db)
		d.Genres = store.NewGenreStore(db)
		d.Records = store.NewRecordStore(db)
	}

	valkey, err := cache.ConnectValkey(ctx, cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		slog.Warn("valkey unavailable, report cache disabled", "error", err)
	} else {
		b.closers = append(b.closers, func() { valkey.Close() })
		d.ReportCache = cache.NewReportCache(valkey, cfg.ReportCacheTTL)
	}

	archive, err := storage.New(cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket)
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("s3 storage: %w", err)
	}
	if archive != nil {
		d.Archive = archive
		d.ArchiveTTL = cfg.S3PresignTTL
		slog.Info("report archive enabled", "endpoint", cfg.S3Endpoint, "bucket", archive.Bucket())
	} else {
		slog.Warn("s3 storage not configured, report archiving disabled")
	}

	b.reviews = service.NewReviews(d)
	b.records = service.NewRecords(d)
	return b, nil
}

// setupFonts installs the configured report fonts, keeping the bundled
// faces when none are set.
func setupFonts(cfg *config.Config) error {
	if cfg.ReportFont == "" {
		return nil
	}
	fonts, err := report.LoadFonts(cfg.ReportFont, cfg.ReportFontBold)
	if err != nil {
		return err
	}
	if err := report.UseFonts(fonts); err != nil {
		return err
	}
	slog.Info("report font loaded", "path", cfg.ReportFont)
	return nil
}
