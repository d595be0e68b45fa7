// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package stats computes summary statistics over review and record sets.
// Values are kept at full precision; rounding happens only when a report
// or view formats them.
package stats

import (
	"cmp"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"readlog/internal/models"
)

// Average is a mean that may be undefined. An average over zero rated
// items is invalid rather than zero.
type Average struct {
	Value float64
	Valid bool
}

// MarshalJSON encodes an invalid average as null.
func (a Average) MarshalJSON() ([]byte, error) {
	if !a.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(a.Value)
}

// UnmarshalJSON accepts a number or null.
func (a *Average) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*a = Average{}
		return nil
	}
	if err := json.Unmarshal(b, &a.Value); err != nil {
		return fmt.Errorf("decode average: %w", err)
	}
	a.Valid = true
	return nil
}

// mean accumulates integer ratings.
type mean struct {
	sum int
	n   int
}

func (m *mean) add(v int) {
	m.sum += v
	m.n++
}

func (m mean) average() Average {
	if m.n == 0 {
		return Average{}
	}
	return Average{Value: float64(m.sum) / float64(m.n), Valid: true}
}

// GenreStat is one row of the per-genre breakdown.
type GenreStat struct {
	GenreID       int64   `json:"genre_id"`
	Name          string  `json:"name"`
	Count         int     `json:"count"`
	AverageRating Average `json:"average_rating"`
}

// Month is a calendar month.
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf returns the calendar month t falls in.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// String formats the month as YYYY-MM.
func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// MarshalText lets Month act as a JSON string or map key.
func (m Month) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText parses a YYYY-MM month.
func (m *Month) UnmarshalText(b []byte) error {
	t, err := time.Parse("2006-01", string(b))
	if err != nil {
		return fmt.Errorf("parse month %q: %w", b, err)
	}
	*m = MonthOf(t)
	return nil
}

func (m Month) compare(o Month) int {
	if c := cmp.Compare(m.Year, o.Year); c != 0 {
		return c
	}
	return cmp.Compare(m.Month, o.Month)
}

// MonthCount is one bucket of the monthly trend.
type MonthCount struct {
	Month Month `json:"month"`
	Count int   `json:"count"`
}

// Summary is the rollup of a review set, shared by the dashboard and every
// report format.
type Summary struct {
	Total           int          `json:"total"`
	AverageRating   Average      `json:"average_rating"`
	ByGenre         []GenreStat  `json:"by_genre"`
	MonthlyTrend    []MonthCount `json:"monthly_trend"`
	MostCommonGenre string       `json:"most_common_genre"`
	RatingCounts    [5]int       `json:"rating_counts"` // index 0 is one star
	Unrated         int          `json:"unrated"`
	LatestReadDate  *time.Time   `json:"latest_read_date"`
}

// Summarize aggregates reviews in any order.
//
// ByGenre is ordered by count descending, then genre name ascending.
// MonthlyTrend holds only months that have reviews, oldest first.
// MostCommonGenre is the first ByGenre entry, or "" for an empty set.
func Summarize(reviews []models.Review) Summary {
	s := Summary{
		Total:        len(reviews),
		ByGenre:      []GenreStat{},
		MonthlyTrend: []MonthCount{},
	}

	var overall mean
	type genreAcc struct {
		stat GenreStat
		mean mean
	}
	genres := make(map[int64]*genreAcc)
	months := make(map[Month]int)

	for i := range reviews {
		r := &reviews[i]

		g, ok := genres[r.GenreID]
		if !ok {
			g = &genreAcc{stat: GenreStat{GenreID: r.GenreID, Name: r.GenreName}}
			genres[r.GenreID] = g
		}
		g.stat.Count++

		if r.Rating != nil {
			overall.add(*r.Rating)
			g.mean.add(*r.Rating)
			if *r.Rating >= 1 && *r.Rating <= 5 {
				s.RatingCounts[*r.Rating-1]++
			}
		} else {
			s.Unrated++
		}

		months[MonthOf(r.ReadDate)]++

		if s.LatestReadDate == nil || r.ReadDate.After(*s.LatestReadDate) {
			d := r.ReadDate
			s.LatestReadDate = &d
		}
	}

	s.AverageRating = overall.average()

	for _, g := range genres {
		g.stat.AverageRating = g.mean.average()
		s.ByGenre = append(s.ByGenre, g.stat)
	}
	slices.SortFunc(s.ByGenre, func(a, b GenreStat) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.GenreID, b.GenreID)
	})
	if len(s.ByGenre) > 0 {
		s.MostCommonGenre = s.ByGenre[0].Name
	}

	for m, n := range months {
		s.MonthlyTrend = append(s.MonthlyTrend, MonthCount{Month: m, Count: n})
	}
	slices.SortFunc(s.MonthlyTrend, func(a, b MonthCount) int {
		return a.Month.compare(b.Month)
	})

	return s
}

// TypeStat is one row of the per-type record breakdown.
type TypeStat struct {
	Type          models.RecordType `json:"type"`
	Count         int               `json:"count"`
	AverageRating Average           `json:"average_rating"`
}

// RecordSummary is the rollup of a personal record set.
type RecordSummary struct {
	Total          int               `json:"total"`
	AverageRating  Average           `json:"average_rating"`
	ByType         []TypeStat        `json:"by_type"`
	MostCommonType models.RecordType `json:"most_common_type"`
	RatingCounts   [5]int            `json:"rating_counts"`
}

// SummarizeRecords aggregates personal records with the same ordering
// rules as Summarize: count descending, then type name ascending.
func SummarizeRecords(records []models.PersonalRecord) RecordSummary {
	s := RecordSummary{Total: len(records), ByType: []TypeStat{}}

	var overall mean
	types := make(map[models.RecordType]*mean)
	for i := range records {
		rec := &records[i]
		overall.add(rec.Rating)
		m, ok := types[rec.Type]
		if !ok {
			m = &mean{}
			types[rec.Type] = m
		}
		m.add(rec.Rating)
		if rec.Rating >= 1 && rec.Rating <= 5 {
			s.RatingCounts[rec.Rating-1]++
		}
	}
	s.AverageRating = overall.average()

	for t, m := range types {
		s.ByType = append(s.ByType, TypeStat{Type: t, Count: m.n, AverageRating: m.average()})
	}
	slices.SortFunc(s.ByType, func(a, b TypeStat) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Type, b.Type)
	})
	if len(s.ByType) > 0 {
		s.MostCommonType = s.ByType[0].Type
	}
	return s
}
