// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"readlog/internal/models"
)

// RecordStore manages personal records in PostgreSQL.
type RecordStore struct {
	db *sql.DB
}

// NewRecordStore returns a new RecordStore.
func NewRecordStore(db *sql.DB) *RecordStore {
	return &RecordStore{db: db}
}

const recordColumns = `id, type, title, content, rating, category, created_at`

func scanRecord(scanner interface{ Scan(...any) error }) (*models.PersonalRecord, error) {
	var (
		rec      models.PersonalRecord
		category sql.NullString
	)
	err := scanner.Scan(&rec.ID, &rec.Type, &rec.Title, &rec.Content, &rec.Rating, &category, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	if category.Valid {
		rec.Category = &category.String
	}
	return &rec, nil
}

func recordNotFound(id uuid.UUID) error {
	return &models.NotFoundError{Resource: "record", ID: id.String()}
}

// Insert creates a record and fills in its ID and creation time.
func (s *RecordStore) Insert(ctx context.Context, rec *models.PersonalRecord) error {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO personal_records (type, title, content, rating, category)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, string(rec.Type), rec.Title, rec.Content, rec.Rating, rec.Category,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return models.NewStoreError("insert record", err)
	}
	return nil
}

// Delete removes a record permanently.
func (s *RecordStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM personal_records WHERE id = $1`, id)
	if err != nil {
		return models.NewStoreError("delete record", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return models.NewStoreError("delete record", err)
	}
	if n == 0 {
		return recordNotFound(id)
	}
	return nil
}

// Get returns one record.
func (s *RecordStore) Get(ctx context.Context, id uuid.UUID) (*models.PersonalRecord, error) {
	rec, err := scanRecord(s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM personal_records WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, recordNotFound(id)
	}
	if err != nil {
		return nil, models.NewStoreError("get record", err)
	}
	return rec, nil
}

// List returns records matching f, newest first.
func (s *RecordStore) List(ctx context.Context, f models.RecordFilter) ([]models.PersonalRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+recordColumns+` FROM personal_records
		WHERE ($1 = '' OR type = $1) AND ($2 = '' OR category = $2)
		ORDER BY created_at DESC, id ASC
	`, string(f.Type), f.Category)
	if err != nil {
		return nil, models.NewStoreError("list records", err)
	}
	defer rows.Close()

	items := []models.PersonalRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, models.NewStoreError("scan record", err)
		}
		items = append(items, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, models.NewStoreError("list records", err)
	}
	return items, nil
}
