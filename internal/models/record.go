// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// RecordType classifies a personal record.
type RecordType string

const (
	RecordTypeReading  RecordType = "reading"
	RecordTypeHobby    RecordType = "hobby"
	RecordTypeExercise RecordType = "exercise"
	RecordTypeStudy    RecordType = "study"
	RecordTypeOther    RecordType = "other"
)

// RecordTypes lists the accepted record types in display order.
var RecordTypes = []RecordType{
	RecordTypeReading, RecordTypeHobby, RecordTypeExercise, RecordTypeStudy, RecordTypeOther,
}

// PersonalRecord is a free-form entry outside the review pipeline. Unlike
// reviews, the rating is mandatory.
type PersonalRecord struct {
	ID        uuid.UUID  `json:"id"`
	Type      RecordType `json:"type"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Rating    int        `json:"rating"`
	Category  *string    `json:"category,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// RecordInput holds candidate record fields before validation.
type RecordInput struct {
	Type     RecordType `json:"type"`
	Title    string     `json:"title"`
	Content  string     `json:"content"`
	Rating   int        `json:"rating"`
	Category string     `json:"category"`
}

// Record converts a validated input into a PersonalRecord. An empty
// category is stored as NULL.
func (in RecordInput) Record() *PersonalRecord {
	rec := &PersonalRecord{
		Type:    in.Type,
		Title:   trim(in.Title),
		Content: trim(in.Content),
		Rating:  in.Rating,
	}
	if c := trim(in.Category); c != "" {
		rec.Category = &c
	}
	return rec
}

// RecordFilter narrows a record listing. Empty fields match everything.
type RecordFilter struct {
	Type     RecordType `json:"type,omitempty"`
	Category string     `json:"category,omitempty"`
}

// Matches reports whether rec satisfies every set field of f.
func (f RecordFilter) Matches(rec *PersonalRecord) bool {
	if f.Type != "" && rec.Type != f.Type {
		return false
	}
	if f.Category != "" && (rec.Category == nil || *rec.Category != f.Category) {
		return false
	}
	return true
}

func trim(s string) string {
	return strings.TrimSpace(s)
}
