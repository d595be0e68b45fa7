// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package validate enforces field constraints on reviews and personal
// records before they reach the store. Checks run independently and every
// violation is returned, so a form can show all problems at once.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"readlog/internal/models"
)

// Field limits, counted in characters after trimming.
const (
	MinTitleLen   = 2
	MaxTitleLen   = 100
	MinAuthorLen  = 2
	MaxAuthorLen  = 50
	MinContentLen = 50
	MaxContentLen = 5000

	MaxRecordTitleLen    = 100
	MaxRecordContentLen  = 5000
	MaxRecordCategoryLen = 50
)

// GenreLookup resolves a genre id. The boolean is false when no such
// genre exists.
type GenreLookup func(id int64) (models.Genre, bool)

// reviewFields mirrors ReviewInput with trimmed text and the constraint tags.
type reviewFields struct {
	Title    string    `json:"title" validate:"min=2,max=100"`
	Author   string    `json:"author" validate:"min=2,max=50"`
	ReadDate time.Time `json:"read_date" validate:"readdate"`
	GenreID  int64     `json:"genre_id" validate:"required"`
	Content  string    `json:"content" validate:"min=50,max=5000"`
	Rating   *int      `json:"rating" validate:"omitempty,min=1,max=5"`
}

type recordFields struct {
	Type     string `json:"type" validate:"oneof=reading hobby exercise study other"`
	Title    string `json:"title" validate:"min=1,max=100"`
	Content  string `json:"content" validate:"min=1,max=5000"`
	Rating   int    `json:"rating" validate:"min=1,max=5"`
	Category string `json:"category" validate:"max=50"`
}

// reviewFieldOrder fixes the order violations are reported in.
var reviewFieldOrder = []string{"title", "author", "read_date", "genre_id", "content", "rating"}

// Validator checks candidates against the field rules. It has no side
// effects; the clock decides what "today" is for read dates.
type Validator struct {
	v   *validator.Validate
	now func() time.Time
}

// New creates a Validator. A nil clock defaults to time.Now.
func New(now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}
	val := &Validator{v: validator.New(), now: now}

	// Report json names ("read_date") instead of Go field names.
	val.v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	mustRegister(val.v, readDateTag, val.validReadDate)
	return val
}

// mustRegister adds a custom rule. A failure is a programming error.
func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validate: register %q: %v", tag, err))
	}
}

// readDateTag names the custom read date rule in struct tags.
const readDateTag = "readdate"

// validReadDate rejects a missing date and any date after today.
func (val *Validator) validReadDate(fl validator.FieldLevel) bool {
	d, ok := fl.Field().Interface().(time.Time)
	if !ok || d.IsZero() {
		return false
	}
	return !models.DateOf(d).After(models.DateOf(val.now()))
}

// Review validates a review candidate. It returns an empty slice iff the
// candidate may be persisted. genres may be nil, in which case only the
// presence of a genre id is checked.
func (val *Validator) Review(in models.ReviewInput, genres GenreLookup) []models.Violation {
	fields := reviewFields{
		Title:   strings.TrimSpace(in.Title),
		Author:  strings.TrimSpace(in.Author),
		GenreID: in.GenreID,
		Content: strings.TrimSpace(in.Content),
		Rating:  in.Rating,
	}
	if in.ReadDate != nil {
		fields.ReadDate = in.ReadDate.Time
	}

	violations := val.collect(fields, reviewMessage)

	if in.GenreID != 0 && genres != nil {
		g, ok := genres(in.GenreID)
		switch {
		case !ok:
			violations = append(violations, models.Violation{Field: "genre_id", Message: "genre does not exist"})
		case !g.Active:
			violations = append(violations, models.Violation{Field: "genre_id", Message: "genre is no longer active"})
		}
	}

	slices.SortStableFunc(violations, func(a, b models.Violation) int {
		return slices.Index(reviewFieldOrder, a.Field) - slices.Index(reviewFieldOrder, b.Field)
	})
	return violations
}

// Record validates a personal record candidate.
func (val *Validator) Record(in models.RecordInput) []models.Violation {
	fields := recordFields{
		Type:     string(in.Type),
		Title:    strings.TrimSpace(in.Title),
		Content:  strings.TrimSpace(in.Content),
		Rating:   in.Rating,
		Category: strings.TrimSpace(in.Category),
	}
	return val.collect(fields, recordMessage)
}

// collect runs struct validation and converts every field error into a
// Violation using msg.
func (val *Validator) collect(s any, msg func(validator.FieldError) string) []models.Violation {
	violations := []models.Violation{}
	err := val.v.Struct(s)
	if err == nil {
		return violations
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return append(violations, models.Violation{Field: "", Message: err.Error()})
	}
	for _, fe := range fieldErrs {
		violations = append(violations, models.Violation{Field: fe.Field(), Message: msg(fe)})
	}
	return violations
}

func reviewMessage(fe validator.FieldError) string {
	switch fe.Field() {
	case "title":
		return "title must be 2-100 characters"
	case "author":
		return "author must be 2-50 characters"
	case "read_date":
		if d, ok := fe.Value().(time.Time); ok && !d.IsZero() {
			return "read date cannot be in the future"
		}
		return "read date is required"
	case "genre_id":
		return "genre is required"
	case "content":
		return "content must be 50-5000 characters"
	case "rating":
		return "rating must be between 1 and 5"
	}
	return fe.Error()
}

func recordMessage(fe validator.FieldError) string {
	switch fe.Field() {
	case "type":
		return "type must be one of reading, hobby, exercise, study, other"
	case "title":
		return "title must be 1-100 characters"
	case "content":
		return "content must be 1-5000 characters"
	case "rating":
		return "rating must be between 1 and 5"
	case "category":
		return "category must be at most 50 characters"
	}
	return fe.Error()
}
