// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package report renders review and record sets into downloadable
// documents. Every number is formatted once into a shared view, and the
// tabular (PDF) and narrative (Markdown) encoders only lay that view out,
// so the two formats cannot disagree.
package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"readlog/internal/models"
	"readlog/internal/stats"
)

// Format selects the document encoding.
type Format string

const (
	Tabular   Format = "tabular"
	Narrative Format = "narrative"
)

// ParseFormat accepts the format names and their file extensions.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tabular", "pdf":
		return Tabular, nil
	case "narrative", "markdown", "md":
		return Narrative, nil
	}
	return "", fmt.Errorf("unknown report format %q", s)
}

// Ext returns the file extension for the format.
func (f Format) Ext() string {
	if f == Tabular {
		return "pdf"
	}
	return "md"
}

// ContentType returns the MIME type of documents in this format.
func (f Format) ContentType() string {
	if f == Tabular {
		return "application/pdf"
	}
	return "text/markdown; charset=utf-8"
}

// Subject names what a report is about.
type Subject string

const (
	SubjectReviews Subject = "reviews"
	SubjectRecords Subject = "records"
)

// ParseSubject validates a subject name.
func ParseSubject(s string) (Subject, error) {
	switch Subject(strings.TrimSpace(s)) {
	case SubjectReviews:
		return SubjectReviews, nil
	case SubjectRecords:
		return SubjectRecords, nil
	}
	return "", fmt.Errorf("unknown report subject %q", s)
}

// Filename returns the deterministic download name for a report.
func Filename(subject Subject, format Format) string {
	base := "book_reviews_report"
	if subject == SubjectRecords {
		base = "personal_records_report"
	}
	return base + "." + format.Ext()
}

// Document is a rendered report.
type Document struct {
	Subject     Subject
	Format      Format
	Filename    string
	ContentType string
	Body        []byte
}

// Markers and truncation limits shared by both formats.
const (
	NoRatingData = "No rating data"
	Unrated      = "Unrated"
	None         = "None"
	Ellipsis     = "..."

	TitleLimit            = 30
	AuthorLimit           = 20
	LabelLimit            = 20
	TabularPreviewLimit   = 100
	NarrativePreviewLimit = 200
)

// Truncate shortens s to limit characters and appends Ellipsis when
// anything was cut. Characters are runes, never bytes or words.
func Truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i] + Ellipsis
		}
		n++
	}
	return s
}

// FormatAverage renders an average with one decimal place, or the
// NoRatingData marker when it is undefined.
func FormatAverage(a stats.Average) string {
	if !a.Valid {
		return NoRatingData
	}
	return strconv.FormatFloat(a.Value, 'f', 1, 64)
}

// FormatRating renders an optional 1-5 rating.
func FormatRating(r *int) string {
	if r == nil {
		return Unrated
	}
	return fmt.Sprintf("%d/5", *r)
}

// fact is one labelled summary value.
type fact struct {
	Label string
	Value string
}

// table is a formatted grid. Limits holds a per-column rune limit for the
// tabular encoder; zero means never truncated.
type table struct {
	Title   string
	Headers []string
	Widths  []float64 // millimetres
	Limits  []int
	Rows    [][]string
}

// entry is one listed review or record.
type entry struct {
	Title   string
	Cells   []string // aligned with view.Listing.Headers, full values
	Details []fact   // labelled fields for the narrative section
	Content string
}

// view is the formatted projection both encoders lay out.
type view struct {
	Subject     Subject
	Heading     string
	GeneratedAt string
	Facts       []fact
	Tables      []table
	Listing     table // Rows unused; entries carry the cells
	Entries     []entry
	Empty       string
}

func reviewsView(reviews []models.Review, s stats.Summary, generatedAt time.Time) view {
	v := view{
		Subject:     SubjectReviews,
		Heading:     "Book Review Report",
		GeneratedAt: generatedAt.UTC().Format("2006-01-02 15:04 MST"),
		Empty:       "No reviews to report.",
	}

	mostCommon := s.MostCommonGenre
	if mostCommon == "" {
		mostCommon = None
	}
	latest := None
	if s.LatestReadDate != nil {
		latest = s.LatestReadDate.Format(time.DateOnly)
	}
	v.Facts = []fact{
		{"Total reviews", strconv.Itoa(s.Total)},
		{"Average rating", FormatAverage(s.AverageRating)},
		{"Most common genre", mostCommon},
		{"Unrated reviews", strconv.Itoa(s.Unrated)},
		{"Latest read date", latest},
	}

	genres := table{
		Title:   "Reviews by Genre",
		Headers: []string{"Genre", "Reviews", "Average rating"},
		Widths:  []float64{80, 40, 50},
	}
	for _, g := range s.ByGenre {
		genres.Rows = append(genres.Rows, []string{g.Name, strconv.Itoa(g.Count), FormatAverage(g.AverageRating)})
	}
	trend := table{
		Title:   "Monthly Trend",
		Headers: []string{"Month", "Reviews"},
		Widths:  []float64{80, 40},
	}
	for _, m := range s.MonthlyTrend {
		trend.Rows = append(trend.Rows, []string{m.Month.String(), strconv.Itoa(m.Count)})
	}
	dist := table{
		Title:   "Rating Distribution",
		Headers: []string{"Rating", "Reviews"},
		Widths:  []float64{80, 40},
	}
	for i := len(s.RatingCounts) - 1; i >= 0; i-- {
		dist.Rows = append(dist.Rows, []string{fmt.Sprintf("%d/5", i+1), strconv.Itoa(s.RatingCounts[i])})
	}
	dist.Rows = append(dist.Rows, []string{Unrated, strconv.Itoa(s.Unrated)})
	v.Tables = []table{genres, trend, dist}

	v.Listing = table{
		Title:   "Reviews",
		Headers: []string{"Title", "Author", "Genre", "Read date", "Rating"},
		Widths:  []float64{55, 40, 30, 25, 20},
		Limits:  []int{TitleLimit, AuthorLimit, LabelLimit, 0, 0},
	}
	for i := range reviews {
		r := &reviews[i]
		read := r.ReadDate.Format(time.DateOnly)
		rating := FormatRating(r.Rating)
		v.Entries = append(v.Entries, entry{
			Title: r.Title,
			Cells: []string{r.Title, r.Author, r.GenreName, read, rating},
			Details: []fact{
				{"Author", r.Author},
				{"Genre", r.GenreName},
				{"Read date", read},
				{"Rating", rating},
			},
			Content: r.Content,
		})
	}
	return v
}

func recordsView(records []models.PersonalRecord, s stats.RecordSummary, generatedAt time.Time) view {
	v := view{
		Subject:     SubjectRecords,
		Heading:     "Personal Records Report",
		GeneratedAt: generatedAt.UTC().Format("2006-01-02 15:04 MST"),
		Empty:       "No records to report.",
	}

	mostCommon := string(s.MostCommonType)
	if mostCommon == "" {
		mostCommon = None
	}
	v.Facts = []fact{
		{"Total records", strconv.Itoa(s.Total)},
		{"Average rating", FormatAverage(s.AverageRating)},
		{"Most common type", mostCommon},
	}

	types := table{
		Title:   "Records by Type",
		Headers: []string{"Type", "Records", "Average rating"},
		Widths:  []float64{80, 40, 50},
	}
	for _, t := range s.ByType {
		types.Rows = append(types.Rows, []string{string(t.Type), strconv.Itoa(t.Count), FormatAverage(t.AverageRating)})
	}
	dist := table{
		Title:   "Rating Distribution",
		Headers: []string{"Rating", "Records"},
		Widths:  []float64{80, 40},
	}
	for i := len(s.RatingCounts) - 1; i >= 0; i-- {
		dist.Rows = append(dist.Rows, []string{fmt.Sprintf("%d/5", i+1), strconv.Itoa(s.RatingCounts[i])})
	}
	v.Tables = []table{types, dist}

	v.Listing = table{
		Title:   "Records",
		Headers: []string{"Title", "Type", "Category", "Rating", "Created"},
		Widths:  []float64{55, 25, 40, 20, 30},
		Limits:  []int{TitleLimit, 0, LabelLimit, 0, 0},
	}
	for i := range records {
		rec := &records[i]
		category := "-"
		if rec.Category != nil {
			category = *rec.Category
		}
		rating := FormatRating(&rec.Rating)
		created := rec.CreatedAt.UTC().Format(time.DateOnly)
		v.Entries = append(v.Entries, entry{
			Title: rec.Title,
			Cells: []string{rec.Title, string(rec.Type), category, rating, created},
			Details: []fact{
				{"Type", string(rec.Type)},
				{"Category", category},
				{"Rating", rating},
				{"Created", created},
			},
			Content: rec.Content,
		})
	}
	return v
}

// RenderReviews renders a review set with its summary. The summary must
// have been computed from the same reviews; entries are listed in the
// given order. An empty set renders a zero-count document.
func RenderReviews(reviews []models.Review, summary stats.Summary, format Format, generatedAt time.Time) (*Document, error) {
	return render(reviewsView(reviews, summary, generatedAt), format, generatedAt)
}

// RenderRecords renders a personal record set with its summary.
func RenderRecords(records []models.PersonalRecord, summary stats.RecordSummary, format Format, generatedAt time.Time) (*Document, error) {
	return render(recordsView(records, summary, generatedAt), format, generatedAt)
}

func render(v view, format Format, generatedAt time.Time) (*Document, error) {
	var (
		body []byte
		err  error
	)
	switch format {
	case Tabular:
		body, err = encodeTabular(v, generatedAt)
	case Narrative:
		body = encodeNarrative(v)
	default:
		return nil, fmt.Errorf("render %s report: unknown format %q", v.Subject, format)
	}
	if err != nil {
		return nil, fmt.Errorf("render %s report: %w", v.Subject, err)
	}
	return &Document{
		Subject:     v.Subject,
		Format:      format,
		Filename:    Filename(v.Subject, format),
		ContentType: format.ContentType(),
		Body:        body,
	}, nil
}
