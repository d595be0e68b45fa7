// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package models defines the data structures that map to database tables
// and provides the core types used throughout the application.
package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Genre is one entry of the fixed genre vocabulary. Retired genres keep
// Active = false so existing reviews still resolve their name.
type Genre struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"is_active"`
}

// Review is one book-reading entry. GenreName is not a column of the
// reviews table; stores populate it from the genre join.
type Review struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	ReadDate  time.Time `json:"read_date"`
	GenreID   int64     `json:"genre_id"`
	GenreName string    `json:"genre"`
	Content   string    `json:"content"`
	Rating    *int      `json:"rating"` // nil means unrated, never 0
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MarshalJSON writes read_date as a calendar date.
func (r Review) MarshalJSON() ([]byte, error) {
	type plain Review
	return json.Marshal(struct {
		plain
		ReadDate Date `json:"read_date"`
	}{plain(r), NewDate(r.ReadDate)})
}

// UnmarshalJSON reads read_date as a calendar date.
func (r *Review) UnmarshalJSON(b []byte) error {
	type plain Review
	aux := struct {
		*plain
		ReadDate Date `json:"read_date"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	r.ReadDate = aux.ReadDate.Time
	return nil
}

// HasRating reports whether the review carries a rating.
func (r *Review) HasRating() bool {
	return r.Rating != nil
}

// ReviewInput holds candidate review fields as submitted by a caller,
// before validation. ReadDate and Rating are optional so a missing value
// can be reported instead of silently defaulting.
type ReviewInput struct {
	Title    string `json:"title"`
	Author   string `json:"author"`
	ReadDate *Date  `json:"read_date"`
	GenreID  int64  `json:"genre_id"`
	Content  string `json:"content"`
	Rating   *int   `json:"rating"`
}

// Review converts a validated input into a Review ready for the store.
// Text fields are stored trimmed.
func (in ReviewInput) Review() *Review {
	r := &Review{
		Title:   trim(in.Title),
		Author:  trim(in.Author),
		GenreID: in.GenreID,
		Content: trim(in.Content),
	}
	if in.ReadDate != nil {
		r.ReadDate = DateOf(in.ReadDate.Time)
	}
	if in.Rating != nil {
		v := *in.Rating
		r.Rating = &v
	}
	return r
}

// InputOf returns the editable fields of an existing review, used to
// prefill an edit form.
func InputOf(r *Review) ReviewInput {
	in := ReviewInput{
		Title:    r.Title,
		Author:   r.Author,
		ReadDate: DatePtr(r.ReadDate),
		GenreID:  r.GenreID,
		Content:  r.Content,
	}
	if r.Rating != nil {
		v := *r.Rating
		in.Rating = &v
	}
	return in
}

// DateOf truncates t to its calendar date in UTC. Read dates are compared
// and stored as dates, never as instants.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a UTC calendar date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(time.DateOnly, s)
}
