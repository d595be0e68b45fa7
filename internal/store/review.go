// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"readlog/internal/models"
	"readlog/internal/query"
)

// ReviewStore manages book reviews in PostgreSQL.
type ReviewStore struct {
	db *sql.DB
}

// NewReviewStore returns a new ReviewStore.
func NewReviewStore(db *sql.DB) *ReviewStore {
	return &ReviewStore{db: db}
}

// Reads always inner-join genres, so a review whose genre row has been
// removed is never returned.
const reviewSelect = `
	SELECT r.id, r.title, r.author, r.read_date, r.genre_id, g.name,
	       r.content, r.rating, r.created_at, r.updated_at
	FROM book_reviews r
	JOIN genres g ON g.id = r.genre_id`

// scanReview scans a row into a Review struct.
func scanReview(scanner interface{ Scan(...any) error }) (*models.Review, error) {
	var (
		r      models.Review
		rating sql.NullInt16
	)
	err := scanner.Scan(
		&r.ID, &r.Title, &r.Author, &r.ReadDate, &r.GenreID, &r.GenreName,
		&r.Content, &rating, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.ReadDate = models.DateOf(r.ReadDate)
	if rating.Valid {
		v := int(rating.Int16)
		r.Rating = &v
	}
	return &r, nil
}

func reviewNotFound(id uuid.UUID) error {
	return &models.NotFoundError{Resource: "review", ID: id.String()}
}

// Insert creates a review and fills in its ID and timestamps.
func (s *ReviewStore) Insert(ctx context.Context, r *models.Review) error {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO book_reviews (title, author, read_date, genre_id, content, rating)
		VALUES ($1, $2, $3::date, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, r.Title, r.Author, r.ReadDate.Format(time.DateOnly), r.GenreID, r.Content, r.Rating,
	).Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return models.NewStoreError("insert review", err)
	}
	return nil
}

// Update overwrites the editable fields of review id and refreshes
// updated_at. A vanished id yields a NotFoundError.
func (s *ReviewStore) Update(ctx context.Context, id uuid.UUID, r *models.Review) error {
	err := s.db.QueryRowContext(ctx, `
		UPDATE book_reviews
		SET title = $1, author = $2, read_date = $3::date, genre_id = $4,
		    content = $5, rating = $6, updated_at = NOW()
		WHERE id = $7
		RETURNING created_at, updated_at
	`, r.Title, r.Author, r.ReadDate.Format(time.DateOnly), r.GenreID, r.Content, r.Rating, id,
	).Scan(&r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return reviewNotFound(id)
	}
	if err != nil {
		return models.NewStoreError("update review", err)
	}
	r.ID = id
	return nil
}

// Delete removes a review permanently.
func (s *ReviewStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM book_reviews WHERE id = $1`, id)
	if err != nil {
		return models.NewStoreError("delete review", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return models.NewStoreError("delete review", err)
	}
	if n == 0 {
		return reviewNotFound(id)
	}
	return nil
}

// Get returns one review with its genre name.
func (s *ReviewStore) Get(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	r, err := scanReview(s.db.QueryRowContext(ctx, reviewSelect+` WHERE r.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, reviewNotFound(id)
	}
	if err != nil {
		return nil, models.NewStoreError("get review", err)
	}
	return r, nil
}

// Query returns every review matching filter in the given order. The
// predicate is compiled to a WHERE clause with positional arguments.
func (s *ReviewStore) Query(ctx context.Context, filter query.Predicate, order query.Sort) ([]models.Review, error) {
	where, args := query.Compile(filter)
	rows, err := s.db.QueryContext(ctx, reviewSelect+` WHERE `+where+` ORDER BY `+order.OrderBy(), args...)
	if err != nil {
		return nil, models.NewStoreError("query reviews", err)
	}
	defer rows.Close()

	items := []models.Review{}
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, models.NewStoreError("scan review", err)
		}
		items = append(items, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, models.NewStoreError("query reviews", err)
	}
	return items, nil
}

// Recent returns the most recently created reviews, newest first.
func (s *ReviewStore) Recent(ctx context.Context, limit int) ([]models.Review, error) {
	rows, err := s.db.QueryContext(ctx, reviewSelect+` ORDER BY r.created_at DESC, r.id ASC LIMIT $1`, limit)
	if err != nil {
		return nil, models.NewStoreError("recent reviews", err)
	}
	defer rows.Close()

	items := []models.Review{}
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, models.NewStoreError("scan review", err)
		}
		items = append(items, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, models.NewStoreError("recent reviews", err)
	}
	return items, nil
}

// Count returns the number of stored reviews with a resolvable genre.
func (s *ReviewStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM book_reviews r JOIN genres g ON g.id = r.genre_id`,
	).Scan(&n)
	if err != nil {
		return 0, models.NewStoreError("count reviews", err)
	}
	return n, nil
}
