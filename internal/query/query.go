// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package query composes filtered, sorted review queries from optional
// criteria. Criteria become typed predicates that a store can either
// evaluate in memory or compile to SQL, so the same filtering logic is
// testable without a database.
package query

import (
	"bytes"
	"cmp"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"readlog/internal/models"
)

// Sort selects the order of a review listing.
type Sort string

const (
	SortDateDesc   Sort = "date_desc"
	SortDateAsc    Sort = "date_asc"
	SortTitleAsc   Sort = "title_asc"
	SortRatingDesc Sort = "rating_desc"
)

// DefaultSort is used when a criteria leaves the sort unset.
const DefaultSort = SortDateDesc

// ParseSort maps a user-supplied sort key. The empty string yields the
// default and "title" is accepted as an alias of title_asc.
func ParseSort(s string) (Sort, error) {
	switch Sort(strings.TrimSpace(s)) {
	case "":
		return DefaultSort, nil
	case SortDateDesc:
		return SortDateDesc, nil
	case SortDateAsc:
		return SortDateAsc, nil
	case SortTitleAsc, "title":
		return SortTitleAsc, nil
	case SortRatingDesc:
		return SortRatingDesc, nil
	}
	return "", fmt.Errorf("unknown sort %q", s)
}

// orDefault resolves the zero value to DefaultSort.
func (s Sort) orDefault() Sort {
	if s == "" {
		return DefaultSort
	}
	return s
}

// Compare orders two reviews. Equal primary keys fall back to id
// ascending so pages never shuffle between calls. For rating_desc,
// unrated reviews sort after every rated one.
func (s Sort) Compare(a, b *models.Review) int {
	var c int
	switch s.orDefault() {
	case SortDateAsc:
		c = a.ReadDate.Compare(b.ReadDate)
	case SortTitleAsc:
		c = strings.Compare(a.Title, b.Title)
	case SortRatingDesc:
		c = compareRatingDesc(a.Rating, b.Rating)
	default:
		c = b.ReadDate.Compare(a.ReadDate)
	}
	if c != 0 {
		return c
	}
	return bytes.Compare(a.ID[:], b.ID[:])
}

// Less reports whether a sorts before b.
func (s Sort) Less(a, b *models.Review) bool {
	return s.Compare(a, b) < 0
}

func compareRatingDesc(a, b *int) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return cmp.Compare(*b, *a)
}

// OrderBy returns the SQL ORDER BY list equivalent to Compare. Titles use
// the "C" collation so Postgres compares bytes exactly like Go does.
func (s Sort) OrderBy() string {
	switch s.orDefault() {
	case SortDateAsc:
		return "r.read_date ASC, r.id ASC"
	case SortTitleAsc:
		return `r.title COLLATE "C" ASC, r.id ASC`
	case SortRatingDesc:
		return "r.rating DESC NULLS LAST, r.id ASC"
	default:
		return "r.read_date DESC, r.id ASC"
	}
}

// Criteria is an optional-field filter and sort specification. Unset
// fields impose no constraint; set fields combine with AND.
type Criteria struct {
	GenreID *int64     `json:"genre_id,omitempty"`
	From    *time.Time `json:"date_from,omitempty"`
	To      *time.Time `json:"date_to,omitempty"`
	Search  string     `json:"search,omitempty"`
	Sort    Sort       `json:"sort,omitempty"`
}

// Filter composes the predicates for every set criterion.
func (c Criteria) Filter() Predicate {
	var preds []Predicate
	if c.GenreID != nil {
		preds = append(preds, GenreIs(*c.GenreID))
	}
	if c.From != nil {
		preds = append(preds, ReadOnOrAfter(*c.From))
	}
	if c.To != nil {
		preds = append(preds, ReadOnOrBefore(*c.To))
	}
	if s := strings.TrimSpace(c.Search); s != "" {
		preds = append(preds, TitleOrAuthorContains(s))
	}
	return And(preds...)
}

// Fingerprint returns a stable key identifying the criteria, used to cache
// reports built from the same result set.
func (c Criteria) Fingerprint() string {
	var b strings.Builder
	b.WriteString("genre=")
	if c.GenreID != nil {
		b.WriteString(strconv.FormatInt(*c.GenreID, 10))
	}
	b.WriteString(";from=")
	if c.From != nil {
		b.WriteString(c.From.Format(time.DateOnly))
	}
	b.WriteString(";to=")
	if c.To != nil {
		b.WriteString(c.To.Format(time.DateOnly))
	}
	b.WriteString(";q=")
	b.WriteString(strings.TrimSpace(c.Search))
	b.WriteString(";sort=")
	b.WriteString(string(c.Sort.orDefault()))

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:8])
}

// FromValues reads criteria from URL query parameters: genre, from, to
// (YYYY-MM-DD), q and sort. Every malformed parameter is reported.
func FromValues(v url.Values) (Criteria, error) {
	var c Criteria
	var violations []models.Violation

	if s := strings.TrimSpace(v.Get("genre")); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil || id <= 0 {
			violations = append(violations, models.Violation{Field: "genre", Message: "genre must be a positive integer"})
		} else {
			c.GenreID = &id
		}
	}
	for _, p := range []struct {
		key string
		dst **time.Time
	}{{"from", &c.From}, {"to", &c.To}} {
		s := strings.TrimSpace(v.Get(p.key))
		if s == "" {
			continue
		}
		d, err := models.ParseDate(s)
		if err != nil {
			violations = append(violations, models.Violation{Field: p.key, Message: p.key + " must be a YYYY-MM-DD date"})
			continue
		}
		*p.dst = &d
	}
	c.Search = strings.TrimSpace(v.Get("q"))

	sort, err := ParseSort(v.Get("sort"))
	if err != nil {
		violations = append(violations, models.Violation{Field: "sort", Message: "sort must be one of date_desc, date_asc, title_asc, rating_desc"})
	}
	c.Sort = sort

	if len(violations) > 0 {
		return Criteria{}, &models.ValidationError{Violations: violations}
	}
	return c, nil
}

// Source is the read side of a review store.
type Source interface {
	Query(ctx context.Context, filter Predicate, order Sort) ([]models.Review, error)
}

// Find returns every review matching c in c's order, plus the count. An
// empty result is not an error. The final ordering is applied here so that
// every Source yields the same sequence.
func Find(ctx context.Context, src Source, c Criteria) ([]models.Review, int, error) {
	sort, err := ParseSort(string(c.Sort))
	if err != nil {
		return nil, 0, &models.ValidationError{Violations: []models.Violation{{Field: "sort", Message: err.Error()}}}
	}

	rows, err := src.Query(ctx, c.Filter(), sort)
	if err != nil {
		return nil, 0, fmt.Errorf("find reviews: %w", err)
	}
	if rows == nil {
		rows = []models.Review{}
	}
	slices.SortStableFunc(rows, func(a, b models.Review) int {
		return sort.Compare(&a, &b)
	})
	return rows, len(rows), nil
}
