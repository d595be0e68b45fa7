// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"readlog/internal/models"
	"readlog/internal/query"
)

// Memory is a process-local store with the same behavior as the Postgres
// stores: genre joins, dangling-genre exclusion, and not-found errors. It
// backs tests and the server's --memory mode.
type Memory struct {
	mu        sync.RWMutex
	genres    map[int64]models.Genre
	nextGenre int64
	reviews   map[uuid.UUID]models.Review
	records   map[uuid.UUID]models.PersonalRecord
	now       func() time.Time
}

// NewMemory returns an empty Memory store. A nil clock defaults to
// time.Now.
func NewMemory(now func() time.Time) *Memory {
	if now == nil {
		now = time.Now
	}
	return &Memory{
		genres:  make(map[int64]models.Genre),
		reviews: make(map[uuid.UUID]models.Review),
		records: make(map[uuid.UUID]models.PersonalRecord),
		now:     now,
	}
}

// AddGenre inserts an active genre, or returns the existing one with the
// same name.
func (m *Memory) AddGenre(name string) models.Genre {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, g := range m.genres {
		if g.Name == name {
			return g
		}
	}
	m.nextGenre++
	g := models.Genre{ID: m.nextGenre, Name: name, Active: true}
	m.genres[g.ID] = g
	return g
}

// DeleteGenre removes a genre row outright, leaving any reviews that
// reference it dangling.
func (m *Memory) DeleteGenre(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.genres, id)
}

// Reviews returns the review view of the store.
func (m *Memory) Reviews() *MemoryReviews { return &MemoryReviews{m: m} }

// Genres returns the genre view of the store.
func (m *Memory) Genres() *MemoryGenres { return &MemoryGenres{m: m} }

// Records returns the personal record view of the store.
func (m *Memory) Records() *MemoryRecords { return &MemoryRecords{m: m} }

// joined returns r with its genre name, or false when the genre is gone.
// Callers hold at least a read lock.
func (m *Memory) joined(r models.Review) (models.Review, bool) {
	g, ok := m.genres[r.GenreID]
	if !ok {
		return models.Review{}, false
	}
	r.GenreName = g.Name
	if r.Rating != nil {
		v := *r.Rating
		r.Rating = &v
	}
	return r, true
}

// MemoryReviews implements the review store contract over Memory.
type MemoryReviews struct{ m *Memory }

func (s *MemoryReviews) Insert(_ context.Context, r *models.Review) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.genres[r.GenreID]; !ok {
		return &models.StoreError{Op: "insert review", Err: genreNotFound(r.GenreID)}
	}
	now := s.m.now().UTC()
	r.ID = uuid.New()
	r.ReadDate = models.DateOf(r.ReadDate)
	r.CreatedAt, r.UpdatedAt = now, now
	stored := *r
	stored.GenreName = ""
	s.m.reviews[r.ID] = stored
	return nil
}

func (s *MemoryReviews) Update(_ context.Context, id uuid.UUID, r *models.Review) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	old, ok := s.m.reviews[id]
	if !ok {
		return reviewNotFound(id)
	}
	if _, ok := s.m.genres[r.GenreID]; !ok {
		return &models.StoreError{Op: "update review", Err: genreNotFound(r.GenreID)}
	}
	r.ID = id
	r.ReadDate = models.DateOf(r.ReadDate)
	r.CreatedAt = old.CreatedAt
	r.UpdatedAt = s.m.now().UTC()
	stored := *r
	stored.GenreName = ""
	s.m.reviews[id] = stored
	return nil
}

func (s *MemoryReviews) Delete(_ context.Context, id uuid.UUID) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.reviews[id]; !ok {
		return reviewNotFound(id)
	}
	delete(s.m.reviews, id)
	return nil
}

func (s *MemoryReviews) Get(_ context.Context, id uuid.UUID) (*models.Review, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	r, ok := s.m.reviews[id]
	if !ok {
		return nil, reviewNotFound(id)
	}
	j, ok := s.m.joined(r)
	if !ok {
		return nil, reviewNotFound(id)
	}
	return &j, nil
}

func (s *MemoryReviews) Query(_ context.Context, filter query.Predicate, order query.Sort) ([]models.Review, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	items := []models.Review{}
	for _, r := range s.m.reviews {
		j, ok := s.m.joined(r)
		if !ok || !filter.Match(&j) {
			continue
		}
		items = append(items, j)
	}
	slices.SortFunc(items, func(a, b models.Review) int { return order.Compare(&a, &b) })
	return items, nil
}

func (s *MemoryReviews) Recent(_ context.Context, limit int) ([]models.Review, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	items := []models.Review{}
	for _, r := range s.m.reviews {
		if j, ok := s.m.joined(r); ok {
			items = append(items, j)
		}
	}
	slices.SortFunc(items, func(a, b models.Review) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID.String(), b.ID.String())
	})
	if limit >= 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *MemoryReviews) Count(_ context.Context) (int, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	n := 0
	for _, r := range s.m.reviews {
		if _, ok := s.m.genres[r.GenreID]; ok {
			n++
		}
	}
	return n, nil
}

// MemoryGenres implements the genre store contract over Memory.
type MemoryGenres struct{ m *Memory }

func (s *MemoryGenres) List(_ context.Context, activeOnly bool) ([]models.Genre, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	items := []models.Genre{}
	for _, g := range s.m.genres {
		if activeOnly && !g.Active {
			continue
		}
		items = append(items, g)
	}
	slices.SortFunc(items, func(a, b models.Genre) int {
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return items, nil
}

func (s *MemoryGenres) Get(_ context.Context, id int64) (*models.Genre, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	g, ok := s.m.genres[id]
	if !ok {
		return nil, genreNotFound(id)
	}
	return &g, nil
}

func (s *MemoryGenres) SetActive(_ context.Context, id int64, active bool) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	g, ok := s.m.genres[id]
	if !ok {
		return genreNotFound(id)
	}
	g.Active = active
	s.m.genres[id] = g
	return nil
}

// MemoryRecords implements the record store contract over Memory.
type MemoryRecords struct{ m *Memory }

func (s *MemoryRecords) Insert(_ context.Context, rec *models.PersonalRecord) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	rec.ID = uuid.New()
	rec.CreatedAt = s.m.now().UTC()
	stored := *rec
	if rec.Category != nil {
		c := *rec.Category
		stored.Category = &c
	}
	s.m.records[rec.ID] = stored
	return nil
}

func (s *MemoryRecords) Delete(_ context.Context, id uuid.UUID) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.records[id]; !ok {
		return recordNotFound(id)
	}
	delete(s.m.records, id)
	return nil
}

func (s *MemoryRecords) Get(_ context.Context, id uuid.UUID) (*models.PersonalRecord, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	rec, ok := s.m.records[id]
	if !ok {
		return nil, recordNotFound(id)
	}
	return &rec, nil
}

func (s *MemoryRecords) List(_ context.Context, f models.RecordFilter) ([]models.PersonalRecord, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	items := []models.PersonalRecord{}
	for _, rec := range s.m.records {
		if f.Matches(&rec) {
			items = append(items, rec)
		}
	}
	slices.SortFunc(items, func(a, b models.PersonalRecord) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID.String(), b.ID.String())
	})
	return items, nil
}
