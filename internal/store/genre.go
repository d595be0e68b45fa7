// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"strconv"

	"readlog/internal/models"
)

// GenreStore manages the genre vocabulary.
type GenreStore struct {
	db *sql.DB
}

// NewGenreStore returns a new GenreStore.
func NewGenreStore(db *sql.DB) *GenreStore {
	return &GenreStore{db: db}
}

func scanGenre(scanner interface{ Scan(...any) error }) (*models.Genre, error) {
	var g models.Genre
	if err := scanner.Scan(&g.ID, &g.Name, &g.Active); err != nil {
		return nil, err
	}
	return &g, nil
}

func genreNotFound(id int64) error {
	return &models.NotFoundError{Resource: "genre", ID: strconv.FormatInt(id, 10)}
}

// List returns genres ordered by name. With activeOnly, retired genres
// are omitted.
func (s *GenreStore) List(ctx context.Context, activeOnly bool) ([]models.Genre, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, is_active FROM genres
		WHERE is_active OR NOT $1
		ORDER BY name COLLATE "C", id
	`, activeOnly)
	if err != nil {
		return nil, models.NewStoreError("list genres", err)
	}
	defer rows.Close()

	items := []models.Genre{}
	for rows.Next() {
		g, err := scanGenre(rows)
		if err != nil {
			return nil, models.NewStoreError("scan genre", err)
		}
		items = append(items, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, models.NewStoreError("list genres", err)
	}
	return items, nil
}

// Get returns a genre by ID, active or not.
func (s *GenreStore) Get(ctx context.Context, id int64) (*models.Genre, error) {
	g, err := scanGenre(s.db.QueryRowContext(ctx,
		`SELECT id, name, is_active FROM genres WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, genreNotFound(id)
	}
	if err != nil {
		return nil, models.NewStoreError("get genre", err)
	}
	return g, nil
}

// SetActive retires or restores a genre. Existing reviews keep it either way.
func (s *GenreStore) SetActive(ctx context.Context, id int64, active bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE genres SET is_active = $1 WHERE id = $2`, active, id)
	if err != nil {
		return models.NewStoreError("update genre", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return models.NewStoreError("update genre", err)
	}
	if n == 0 {
		return genreNotFound(id)
	}
	return nil
}
