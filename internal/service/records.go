// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"readlog/internal/metrics"
	"readlog/internal/models"
	"readlog/internal/report"
	"readlog/internal/stats"
	"readlog/internal/validate"
)

// Records implements personal record operations.
type Records struct {
	records   RecordRepository
	validator *validate.Validator
	metrics   metrics.Recorder
	exports   exporter
}

// NewRecords creates the personal record service.
func NewRecords(d Deps) *Records {
	d = d.withDefaults()
	return &Records{
		records:   d.Records,
		validator: d.Validator,
		metrics:   d.Metrics,
		exports:   newExporter(d),
	}
}

// Create validates and stores a personal record.
func (s *Records) Create(ctx context.Context, in models.RecordInput) (*models.PersonalRecord, error) {
	if violations := s.validator.Record(in); len(violations) > 0 {
		s.metrics.RecordValidationFailure("record")
		return nil, validationError(violations)
	}
	rec := in.Record()
	if err := s.records.Insert(ctx, rec); err != nil {
		return nil, err
	}
	s.metrics.RecordWrite("record", "create")
	s.exports.invalidate(ctx)
	slog.Info("record created", "id", rec.ID, "type", rec.Type)
	return rec, nil
}

// Get returns one record.
func (s *Records) Get(ctx context.Context, id uuid.UUID) (*models.PersonalRecord, error) {
	return s.records.Get(ctx, id)
}

// Delete removes a record permanently.
func (s *Records) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.records.Delete(ctx, id); err != nil {
		return err
	}
	s.metrics.RecordWrite("record", "delete")
	s.exports.invalidate(ctx)
	slog.Info("record deleted", "id", id)
	return nil
}

// List returns the records matching f, newest first.
func (s *Records) List(ctx context.Context, f models.RecordFilter) ([]models.PersonalRecord, error) {
	items, err := s.records.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return items, nil
}

// Summary aggregates the records matching f.
func (s *Records) Summary(ctx context.Context, f models.RecordFilter) (stats.RecordSummary, error) {
	items, err := s.List(ctx, f)
	if err != nil {
		return stats.RecordSummary{}, err
	}
	return stats.SummarizeRecords(items), nil
}

// Export renders the records matching f in the given format.
func (s *Records) Export(ctx context.Context, f models.RecordFilter, format report.Format) (*Export, error) {
	return s.exports.export(ctx, report.SubjectRecords, format, filterFingerprint(f), func(at time.Time) (*report.Document, error) {
		items, err := s.List(ctx, f)
		if err != nil {
			return nil, err
		}
		doc, err := report.RenderRecords(items, stats.SummarizeRecords(items), format, at)
		if err != nil {
			return nil, fmt.Errorf("render records report: %w", err)
		}
		return doc, nil
	})
}

// filterFingerprint returns a stable cache key for a record filter.
func filterFingerprint(f models.RecordFilter) string {
	canonical := "type=" + string(f.Type) + ";category=" + strings.TrimSpace(f.Category)
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:8])
}
