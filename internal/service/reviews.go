// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"readlog/internal/cache"
	"readlog/internal/metrics"
	"readlog/internal/models"
	"readlog/internal/query"
	"readlog/internal/report"
	"readlog/internal/stats"
	"readlog/internal/validate"
)

// Reviews implements book review operations.
type Reviews struct {
	reviews     ReviewRepository
	genres      GenreRepository
	records     RecordRepository
	validator   *validate.Validator
	genreCache  *cache.GenreCache
	metrics     metrics.Recorder
	exports     exporter
	now         func() time.Time
	pageSize    int
	monthlyGoal int
}

// NewReviews creates the review service.
func NewReviews(d Deps) *Reviews {
	d = d.withDefaults()
	return &Reviews{
		reviews:     d.Reviews,
		genres:      d.Genres,
		records:     d.Records,
		validator:   d.Validator,
		genreCache:  d.GenreCache,
		metrics:     d.Metrics,
		exports:     newExporter(d),
		now:         d.Now,
		pageSize:    d.PageSize,
		monthlyGoal: d.MonthlyGoal,
	}
}

// EditForm is the prefilled state for editing one review. Genres holds the
// active vocabulary plus the review's own genre if it has been retired.
type EditForm struct {
	Review *models.Review     `json:"review"`
	Input  models.ReviewInput `json:"input"`
	Genres []models.Genre     `json:"genres"`
}

// ReviewPage is one page of a filtered, sorted review listing.
type ReviewPage struct {
	Page     query.Page      `json:"page"`
	Criteria query.Criteria  `json:"criteria"`
	Reviews  []models.Review `json:"reviews"`
}

// Dashboard is the landing overview.
type Dashboard struct {
	TotalReviews int             `json:"total_reviews"`
	TotalRecords int             `json:"total_records"`
	ThisMonth    int             `json:"this_month"`
	MonthlyGoal  int             `json:"monthly_goal"`
	GoalPercent  float64         `json:"goal_percent"`
	Recent       []models.Review `json:"recent"`
	Summary      stats.Summary   `json:"summary"`
}

// genre resolves a genre through the cache.
func (s *Reviews) genre(ctx context.Context, id int64) (*models.Genre, error) {
	if s.genreCache != nil {
		if g, ok := s.genreCache.Get(id); ok {
			return &g, nil
		}
	}
	g, err := s.genres.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.genreCache != nil {
		s.genreCache.Add(*g)
	}
	return g, nil
}

// lookup resolves the submitted genre before validation so a store failure
// is reported as such rather than as a missing genre. keep names a genre
// that is accepted even when retired.
func (s *Reviews) lookup(ctx context.Context, id, keep int64) (validate.GenreLookup, *models.Genre, error) {
	if id == 0 {
		return nil, nil, nil
	}
	g, err := s.genre(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return func(int64) (models.Genre, bool) { return models.Genre{}, false }, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	resolved := *g
	if resolved.ID == keep {
		resolved.Active = true
	}
	return func(int64) (models.Genre, bool) { return resolved, true }, g, nil
}

func (s *Reviews) check(ctx context.Context, in models.ReviewInput, keep int64) (*models.Genre, error) {
	lookup, g, err := s.lookup(ctx, in.GenreID, keep)
	if err != nil {
		return nil, err
	}
	if violations := s.validator.Review(in, lookup); len(violations) > 0 {
		s.metrics.RecordValidationFailure("review")
		return nil, validationError(violations)
	}
	return g, nil
}

// Create validates and stores a new review.
func (s *Reviews) Create(ctx context.Context, in models.ReviewInput) (*models.Review, error) {
	g, err := s.check(ctx, in, 0)
	if err != nil {
		return nil, err
	}

	r := in.Review()
	if err := s.reviews.Insert(ctx, r); err != nil {
		return nil, err
	}
	r.GenreName = g.Name

	s.metrics.RecordWrite("review", "create")
	s.exports.invalidate(ctx)
	slog.Info("review created", "id", r.ID, "title", r.Title)
	return r, nil
}

// Get returns one review.
func (s *Reviews) Get(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	return s.reviews.Get(ctx, id)
}

// RequestEdit loads a review and the genres its edit form may offer.
func (s *Reviews) RequestEdit(ctx context.Context, id uuid.UUID) (*EditForm, error) {
	r, err := s.reviews.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	genres, err := s.genres.List(ctx, true)
	if err != nil {
		return nil, err
	}

	found := false
	for _, g := range genres {
		if g.ID == r.GenreID {
			found = true
			break
		}
	}
	if !found {
		if g, err := s.genre(ctx, r.GenreID); err == nil {
			genres = append(genres, *g)
		}
	}

	return &EditForm{Review: r, Input: models.InputOf(r), Genres: genres}, nil
}

// Update re-validates and overwrites review id. Keeping a genre that was
// retired after the review was written is allowed; switching to one is not.
func (s *Reviews) Update(ctx context.Context, id uuid.UUID, in models.ReviewInput) (*models.Review, error) {
	existing, err := s.reviews.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	g, err := s.check(ctx, in, existing.GenreID)
	if err != nil {
		return nil, err
	}

	r := in.Review()
	if err := s.reviews.Update(ctx, id, r); err != nil {
		return nil, err
	}
	r.GenreName = g.Name

	s.metrics.RecordWrite("review", "update")
	s.exports.invalidate(ctx)
	slog.Info("review updated", "id", id)
	return r, nil
}

// ConfirmDelete removes review id permanently.
func (s *Reviews) ConfirmDelete(ctx context.Context, id uuid.UUID) error {
	if err := s.reviews.Delete(ctx, id); err != nil {
		return err
	}
	s.metrics.RecordWrite("review", "delete")
	s.exports.invalidate(ctx)
	slog.Info("review deleted", "id", id)
	return nil
}

// Find returns every review matching c in order, with the count.
func (s *Reviews) Find(ctx context.Context, c query.Criteria) ([]models.Review, int, error) {
	return query.Find(ctx, s.reviews, c)
}

// Page returns one fixed-size page of the reviews matching c.
func (s *Reviews) Page(ctx context.Context, c query.Criteria, number int) (*ReviewPage, error) {
	items, total, err := s.Find(ctx, c)
	if err != nil {
		return nil, err
	}
	p, err := query.Paginate(total, number, s.pageSize)
	if err != nil {
		return nil, err
	}
	return &ReviewPage{Page: p, Criteria: c, Reviews: query.Slice(items, p)}, nil
}

// Summary aggregates the reviews matching c.
func (s *Reviews) Summary(ctx context.Context, c query.Criteria) (stats.Summary, error) {
	items, _, err := s.Find(ctx, c)
	if err != nil {
		return stats.Summary{}, err
	}
	return stats.Summarize(items), nil
}

// Dashboard builds the overview: totals, this month's progress against the
// monthly goal, and the most recently written reviews.
func (s *Reviews) Dashboard(ctx context.Context) (*Dashboard, error) {
	all, _, err := s.Find(ctx, query.Criteria{})
	if err != nil {
		return nil, err
	}
	total, err := s.reviews.Count(ctx)
	if err != nil {
		return nil, err
	}
	recent, err := s.reviews.Recent(ctx, RecentLimit)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{
		TotalReviews: total,
		MonthlyGoal:  s.monthlyGoal,
		Recent:       recent,
		Summary:      stats.Summarize(all),
	}

	current := stats.MonthOf(s.now())
	for i := range all {
		if stats.MonthOf(all[i].ReadDate) == current {
			d.ThisMonth++
		}
	}
	d.GoalPercent = min(100, float64(d.ThisMonth)/float64(s.monthlyGoal)*100)

	if s.records != nil {
		records, err := s.records.List(ctx, models.RecordFilter{})
		if err != nil {
			return nil, err
		}
		d.TotalRecords = len(records)
	}
	return d, nil
}

// Genres lists the vocabulary, optionally only active genres.
func (s *Reviews) Genres(ctx context.Context, activeOnly bool) ([]models.Genre, error) {
	return s.genres.List(ctx, activeOnly)
}

// SetGenreActive retires or restores a genre. Existing reviews keep it.
func (s *Reviews) SetGenreActive(ctx context.Context, id int64, active bool) error {
	if err := s.genres.SetActive(ctx, id, active); err != nil {
		return err
	}
	if s.genreCache != nil {
		s.genreCache.Remove(id)
	}
	s.metrics.RecordWrite("genre", "update")
	slog.Info("genre updated", "id", id, "active", active)
	return nil
}

// Export renders the reviews matching c in the given format. Identical
// criteria against unchanged data are served from the report cache.
func (s *Reviews) Export(ctx context.Context, c query.Criteria, format report.Format) (*Export, error) {
	if _, err := query.ParseSort(string(c.Sort)); err != nil {
		return nil, validationError([]models.Violation{{Field: "sort", Message: err.Error()}})
	}
	return s.exports.export(ctx, report.SubjectReviews, format, c.Fingerprint(), func(at time.Time) (*report.Document, error) {
		items, _, err := s.Find(ctx, c)
		if err != nil {
			return nil, err
		}
		doc, err := report.RenderReviews(items, stats.Summarize(items), format, at)
		if err != nil {
			return nil, fmt.Errorf("render reviews report: %w", err)
		}
		return doc, nil
	})
}
