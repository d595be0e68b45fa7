// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package query

import (
	"strconv"
	"strings"
	"time"

	"readlog/internal/models"
)

// Binder registers a query argument and returns its placeholder ("$3").
type Binder func(arg any) string

// Predicate is one typed filter condition. The same value can be evaluated
// against a review in memory or compiled into a SQL boolean expression over
// the reviews table aliased as "r".
type Predicate interface {
	Match(r *models.Review) bool
	Clause(bind Binder) string
}

// And combines predicates conjunctively. An empty conjunction matches
// everything.
func And(preds ...Predicate) Predicate {
	return and(preds)
}

type and []Predicate

func (a and) Match(r *models.Review) bool {
	for _, p := range a {
		if !p.Match(r) {
			return false
		}
	}
	return true
}

func (a and) Clause(bind Binder) string {
	if len(a) == 0 {
		return "TRUE"
	}
	parts := make([]string, 0, len(a))
	for _, p := range a {
		parts = append(parts, "("+p.Clause(bind)+")")
	}
	return strings.Join(parts, " AND ")
}

// GenreIs matches reviews filed under the given genre.
func GenreIs(id int64) Predicate { return genreIs(id) }

type genreIs int64

func (g genreIs) Match(r *models.Review) bool { return r.GenreID == int64(g) }

func (g genreIs) Clause(bind Binder) string {
	return "r.genre_id = " + bind(int64(g))
}

// ReadOnOrAfter matches reviews read on or after the given date. Dates are
// bound as YYYY-MM-DD text so the session time zone never shifts them.
func ReadOnOrAfter(d time.Time) Predicate { return readAfter(models.DateOf(d)) }

type readAfter time.Time

func (p readAfter) Match(r *models.Review) bool {
	return !models.DateOf(r.ReadDate).Before(time.Time(p))
}

func (p readAfter) Clause(bind Binder) string {
	return "r.read_date >= " + bind(time.Time(p).Format(time.DateOnly)) + "::date"
}

// ReadOnOrBefore matches reviews read on or before the given date.
func ReadOnOrBefore(d time.Time) Predicate { return readBefore(models.DateOf(d)) }

type readBefore time.Time

func (p readBefore) Match(r *models.Review) bool {
	return !models.DateOf(r.ReadDate).After(time.Time(p))
}

func (p readBefore) Clause(bind Binder) string {
	return "r.read_date <= " + bind(time.Time(p).Format(time.DateOnly)) + "::date"
}

// TitleOrAuthorContains matches a case-insensitive substring of the title
// or the author. No tokenization or stemming is applied. Case is compared
// rune by rune, as PostgreSQL lower() does, so "strasse" does not match
// "Straße" in either store.
func TitleOrAuthorContains(needle string) Predicate {
	return textSearch{raw: needle, lower: strings.ToLower(needle)}
}

type textSearch struct {
	raw   string
	lower string
}

func (s textSearch) Match(r *models.Review) bool {
	return strings.Contains(strings.ToLower(r.Title), s.lower) || strings.Contains(strings.ToLower(r.Author), s.lower)
}

func (s textSearch) Clause(bind Binder) string {
	p := bind(s.raw)
	return "strpos(lower(r.title), lower(" + p + ")) > 0 OR strpos(lower(r.author), lower(" + p + ")) > 0"
}

// Compile turns a predicate into a SQL expression and its positional
// arguments, numbering placeholders from $1.
func Compile(p Predicate) (string, []any) {
	var args []any
	bind := func(arg any) string {
		args = append(args, arg)
		return "$" + strconv.Itoa(len(args))
	}
	return p.Clause(bind), args
}
