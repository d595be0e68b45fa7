// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package service implements the reading-log operations on top of the
// stores: validated writes, queries, statistics, and report exports. Both
// the HTTP handlers and the CLI call into it; it holds no request state, so
// edit and delete flows are explicit request/response calls.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"readlog/internal/cache"
	"readlog/internal/metrics"
	"readlog/internal/models"
	"readlog/internal/query"
	"readlog/internal/report"
	"readlog/internal/storage"
	"readlog/internal/validate"
)

// ReviewRepository is the review store contract.
type ReviewRepository interface {
	query.Source
	Insert(ctx context.Context, r *models.Review) error
	Update(ctx context.Context, id uuid.UUID, r *models.Review) error
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*models.Review, error)
	Recent(ctx context.Context, limit int) ([]models.Review, error)
	Count(ctx context.Context) (int, error)
}

// GenreRepository is the genre vocabulary contract.
type GenreRepository interface {
	List(ctx context.Context, activeOnly bool) ([]models.Genre, error)
	Get(ctx context.Context, id int64) (*models.Genre, error)
	SetActive(ctx context.Context, id int64, active bool) error
}

// RecordRepository is the personal record store contract.
type RecordRepository interface {
	Insert(ctx context.Context, rec *models.PersonalRecord) error
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*models.PersonalRecord, error)
	List(ctx context.Context, f models.RecordFilter) ([]models.PersonalRecord, error)
}

// ReportCache stores rendered report bodies. Implementations swallow their
// own errors; a cache failure is a miss. InvalidateAll must advance the
// value Generation returns.
type ReportCache interface {
	Generation(ctx context.Context) (int64, bool)
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, body []byte)
	InvalidateAll(ctx context.Context)
}

// Archive keeps a copy of every freshly rendered report and hands out
// time-limited download links to it.
type Archive interface {
	Upload(ctx context.Context, key, contentType string, body []byte) error
	PresignedURL(ctx context.Context, key string, expires time.Duration) (string, error)
}

// Deps holds everything the services need. Reviews, Genres, Records and
// Validator are required; the rest are optional and may be left nil.
type Deps struct {
	Reviews   ReviewRepository
	Genres    GenreRepository
	Records   RecordRepository
	Validator *validate.Validator

	GenreCache  *cache.GenreCache
	ReportCache ReportCache
	Archive     Archive
	ArchiveTTL  time.Duration // lifetime of archive download links
	Metrics     metrics.Recorder

	Now         func() time.Time
	PageSize    int
	MonthlyGoal int
}

const (
	DefaultMonthlyGoal = 10
	RecentLimit        = 5
	DefaultArchiveTTL  = 15 * time.Minute
)

func (d Deps) withDefaults() Deps {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Metrics == nil {
		d.Metrics = metrics.Nop{}
	}
	if d.PageSize <= 0 {
		d.PageSize = query.DefaultPageSize
	}
	if d.MonthlyGoal <= 0 {
		d.MonthlyGoal = DefaultMonthlyGoal
	}
	if d.ArchiveTTL <= 0 {
		d.ArchiveTTL = DefaultArchiveTTL
	}
	return d
}

// Export is the outcome of a report request.
type Export struct {
	Document   *report.Document
	Cached     bool
	ArchiveKey string // empty unless the report was archived
	ArchiveURL string // presigned link to ArchiveKey, when one could be made
}

// exporter serves reports through the cache, archiving fresh renders.
// Concurrent misses for the same key share a single render.
type exporter struct {
	cache      ReportCache
	archive    Archive
	archiveTTL time.Duration
	metrics    metrics.Recorder
	now        func() time.Time
	group      *singleflight.Group
}

func newExporter(d Deps) exporter {
	return exporter{
		cache:      d.ReportCache,
		archive:    d.Archive,
		archiveTTL: d.ArchiveTTL,
		metrics:    d.Metrics,
		now:        d.Now,
		group:      &singleflight.Group{},
	}
}

// export returns the cached document for fingerprint or renders, caches and
// archives a fresh one. A failed render returns an error and writes nothing.
func (e exporter) export(ctx context.Context, subject report.Subject, format report.Format, fingerprint string,
	render func(generatedAt time.Time) (*report.Document, error)) (*Export, error) {
	if format != report.Tabular && format != report.Narrative {
		return nil, validationError([]models.Violation{{Field: "format", Message: fmt.Sprintf("unknown report format %q", format)}})
	}
	// The generation is read before the render so that a write landing
	// mid-render leaves its result under a key no later export looks up.
	var gen int64
	cached := e.cache != nil
	if cached {
		gen, cached = e.cache.Generation(ctx)
	}
	key := cache.ReportKey(string(subject), string(format), gen, fingerprint)

	if cached {
		if body, ok := e.cache.Get(ctx, key); ok {
			e.metrics.RecordReport(string(subject), string(format), true)
			return &Export{
				Document: &report.Document{
					Subject:     subject,
					Format:      format,
					Filename:    report.Filename(subject, format),
					ContentType: format.ContentType(),
					Body:        body,
				},
				Cached: true,
			}, nil
		}
	}

	v, err, _ := e.group.Do(key, func() (any, error) {
		return e.renderFresh(ctx, subject, format, key, cached, render)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Export), nil
}

// renderFresh renders, caches and archives one document. The body is
// stored under key only when cacheable is set.
func (e exporter) renderFresh(ctx context.Context, subject report.Subject, format report.Format, key string, cacheable bool,
	render func(generatedAt time.Time) (*report.Document, error)) (*Export, error) {
	generatedAt := e.now()
	start := time.Now()
	doc, err := render(generatedAt)
	if err != nil {
		return nil, err
	}
	e.metrics.RecordRenderLatency(string(subject), string(format), time.Since(start))
	e.metrics.RecordReport(string(subject), string(format), false)

	if cacheable {
		e.cache.Set(ctx, key, doc.Body)
	}

	out := &Export{Document: doc}
	if e.archive != nil {
		archiveKey := storage.ArchiveKey(string(subject), doc.Filename, generatedAt)
		if err := e.archive.Upload(ctx, archiveKey, doc.ContentType, doc.Body); err != nil {
			slog.Warn("report archive failed", "key", archiveKey, "error", err)
			e.metrics.RecordArchiveFailure()
		} else {
			out.ArchiveKey = archiveKey
			url, err := e.archive.PresignedURL(ctx, archiveKey, e.archiveTTL)
			if err != nil {
				slog.Warn("report archive link failed", "key", archiveKey, "error", err)
			} else {
				out.ArchiveURL = url
			}
		}
	}
	return out, nil
}

// invalidate drops every cached report after a write.
func (e exporter) invalidate(ctx context.Context) {
	if e.cache != nil {
		e.cache.InvalidateAll(ctx)
	}
}

func validationError(violations []models.Violation) error {
	return &models.ValidationError{Violations: violations}
}
