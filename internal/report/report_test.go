package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"readlog/internal/models"
	"readlog/internal/stats"
)

var generated = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

// pdfText encodes s the way an uncompressed tabular page stream carries it:
// UTF-16BE with the PDF string escapes applied.
func pdfText(s string) string {
	var b strings.Builder
	for _, r := range s {
		b.WriteByte(byte(r >> 8))
		b.WriteByte(byte(r))
	}
	return strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`, "\r", `\r`).Replace(b.String())
}

// inFormat encodes s for a search in a document body of format f.
func inFormat(f Format, s string) string {
	if f == Tabular {
		return pdfText(s)
	}
	return s
}

func sampleReviews() []models.Review {
	return []models.Review{
		{
			Title: "The Hitchhiker's Guide to the Galaxy Omnibus", Author: "Douglas Noel Adams and Friends",
			ReadDate: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), GenreID: 1, GenreName: "Science Fiction",
			Content: strings.Repeat("Don't panic. ", 30), Rating: ptr(5),
		},
		{
			Title: "Emma", Author: "Jane Austen",
			ReadDate: time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC), GenreID: 1, GenreName: "Science Fiction",
			Content: strings.Repeat("m", 60), Rating: ptr(3),
		},
		{
			Title: "Ulysses", Author: "James Joyce",
			ReadDate: time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC), GenreID: 2, GenreName: "Classic",
			Content: strings.Repeat("y", 60),
		},
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 30))
	assert.Equal(t, strings.Repeat("a", 30), Truncate(strings.Repeat("a", 30), 30))
	assert.Equal(t, strings.Repeat("a", 30)+"...", Truncate(strings.Repeat("a", 31), 30))
	// Cut on characters, not bytes or words.
	assert.Equal(t, "가나다...", Truncate("가나다라마", 3))
	assert.Equal(t, "The quick b...", Truncate("The quick brown fox", 11))
	assert.Equal(t, "unlimited", Truncate("unlimited", 0))
}

func TestFormatAverage(t *testing.T) {
	assert.Equal(t, NoRatingData, FormatAverage(stats.Average{}))
	assert.Equal(t, "4.0", FormatAverage(stats.Average{Value: 4, Valid: true}))
	assert.Equal(t, "4.3", FormatAverage(stats.Average{Value: 13.0 / 3.0, Valid: true}))
	assert.Equal(t, "3.5", FormatAverage(stats.Average{Value: 3.45, Valid: true}))
}

func TestFilenames(t *testing.T) {
	assert.Equal(t, "book_reviews_report.pdf", Filename(SubjectReviews, Tabular))
	assert.Equal(t, "book_reviews_report.md", Filename(SubjectReviews, Narrative))
	assert.Equal(t, "personal_records_report.pdf", Filename(SubjectRecords, Tabular))
	assert.Equal(t, "personal_records_report.md", Filename(SubjectRecords, Narrative))
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"pdf": Tabular, "tabular": Tabular, "MD": Narrative, "narrative": Narrative, "markdown": Narrative} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseFormat("docx")
	assert.Error(t, err)
}

func TestRenderReviewsTabular(t *testing.T) {
	reviews := sampleReviews()
	doc, err := RenderReviews(reviews, stats.Summarize(reviews), Tabular, generated)
	require.NoError(t, err)

	assert.Equal(t, "book_reviews_report.pdf", doc.Filename)
	assert.Equal(t, "application/pdf", doc.ContentType)
	assert.True(t, bytes.HasPrefix(doc.Body, []byte("%PDF-")))

	body := string(doc.Body)
	assert.Contains(t, body, pdfText("Total reviews: 3"))
	assert.Contains(t, body, pdfText("Average rating: 4.0"))
	assert.Contains(t, body, pdfText("Most common genre: Science Fiction"))
	// Title cut at 30 characters, author at 20.
	assert.Contains(t, body, pdfText("The Hitchhiker's Guide to the ..."))
	assert.NotContains(t, body, pdfText("The Hitchhiker's Guide to the Galaxy"))
	assert.Contains(t, body, pdfText("Douglas Noel Adams a..."))
	assert.Contains(t, body, pdfText("Unrated"))
}

func TestRenderTabularKeepsHangul(t *testing.T) {
	reviews := []models.Review{{
		Title: "채식주의자 (The Vegetarian)", Author: "한강", GenreName: "소설",
		ReadDate: generated, Content: "초록 잎사귀가 돋아나는 꿈을 꾸었다. " + strings.Repeat("가", 60), Rating: ptr(5),
	}}
	doc, err := RenderReviews(reviews, stats.Summarize(reviews), Tabular, generated)
	require.NoError(t, err)

	body := string(doc.Body)
	assert.Contains(t, body, pdfText("채식주의자 (The Vegetarian)"))
	assert.Contains(t, body, pdfText("한강"))
	assert.Contains(t, body, pdfText("Most common genre: 소설"))
	assert.Contains(t, body, pdfText("초록 잎사귀가"))
	assert.NotContains(t, body, "(.....")
}

func TestRenderTabularOutsideBMP(t *testing.T) {
	reviews := []models.Review{{
		Title: "Emoji \U0001F4DA Shelf", Author: "Anon", GenreName: "Misc",
		ReadDate: generated, Content: strings.Repeat("e", 60),
	}}
	doc, err := RenderReviews(reviews, stats.Summarize(reviews), Tabular, generated)
	require.NoError(t, err)
	assert.Contains(t, string(doc.Body), pdfText("Emoji \uFFFD Shelf"))
}

func TestUseFonts(t *testing.T) {
	t.Cleanup(func() { require.NoError(t, UseFonts(DefaultFonts())) })

	assert.Error(t, UseFonts(Fonts{}))
	assert.Error(t, UseFonts(Fonts{Regular: []byte("not a truetype face")}))

	dir := t.TempDir()
	path := filepath.Join(dir, "face.ttf")
	require.NoError(t, os.WriteFile(path, DefaultFonts().Bold, 0o644))
	f, err := LoadFonts(path, "")
	require.NoError(t, err)
	assert.Equal(t, f.Regular, f.Bold)
	require.NoError(t, UseFonts(f))

	reviews := sampleReviews()
	doc, err := RenderReviews(reviews, stats.Summarize(reviews), Tabular, generated)
	require.NoError(t, err)
	assert.Contains(t, string(doc.Body), pdfText("Total reviews: 3"))

	_, err = LoadFonts(filepath.Join(dir, "absent.ttf"), "")
	assert.Error(t, err)
	_, err = LoadFonts(path, filepath.Join(dir, "absent-bold.ttf"))
	assert.Error(t, err)
}

func TestRenderReviewsNarrative(t *testing.T) {
	reviews := sampleReviews()
	doc, err := RenderReviews(reviews, stats.Summarize(reviews), Narrative, generated)
	require.NoError(t, err)

	assert.Equal(t, "book_reviews_report.md", doc.Filename)
	assert.Equal(t, "text/markdown; charset=utf-8", doc.ContentType)

	body := string(doc.Body)
	assert.Contains(t, body, "- **Total reviews:** 3")
	assert.Contains(t, body, "- **Average rating:** 4.0")
	// Full title and author in the narrative.
	assert.Contains(t, body, "### 1. The Hitchhiker's Guide to the Galaxy Omnibus")
	assert.Contains(t, body, "- **Author:** Douglas Noel Adams and Friends")
	assert.Contains(t, body, "- **Rating:** Unrated")

	// Preview of a long content is 200 characters plus the marker.
	preview := Truncate(reviews[0].Content, NarrativePreviewLimit)
	assert.True(t, strings.HasSuffix(preview, Ellipsis))
	assert.Contains(t, body, "> "+strings.Join(strings.Fields(preview), " "))
	// Short content is not marked as truncated.
	assert.Contains(t, body, "> "+strings.Repeat("m", 60)+"\n")
}

func TestRenderNarrativePreservesInputOrder(t *testing.T) {
	reviews := sampleReviews()
	reviews[0], reviews[2] = reviews[2], reviews[0]
	doc, err := RenderReviews(reviews, stats.Summarize(reviews), Narrative, generated)
	require.NoError(t, err)

	body := string(doc.Body)
	first := strings.Index(body, "### 1. Ulysses")
	second := strings.Index(body, "### 2. Emma")
	require.NotEqual(t, -1, first)
	require.NotEqual(t, -1, second)
	assert.Less(t, first, second)
}

func TestBreakdownFollowsSummaryOrder(t *testing.T) {
	reviews := sampleReviews()
	s := stats.Summarize(reviews)
	// A summary in an unusual order must be rendered as given.
	s.ByGenre[0], s.ByGenre[1] = s.ByGenre[1], s.ByGenre[0]

	for _, f := range []Format{Tabular, Narrative} {
		doc, err := RenderReviews(reviews, s, f, generated)
		require.NoError(t, err)
		body := string(doc.Body)
		start := strings.Index(body, inFormat(f, "Reviews by Genre"))
		require.NotEqual(t, -1, start, "format %s", f)
		body = body[start:]
		classic := strings.Index(body, inFormat(f, "Classic"))
		scifi := strings.Index(body, inFormat(f, "Science Fiction"))
		assert.Less(t, classic, scifi, "format %s", f)
	}
}

func TestFormatsAgree(t *testing.T) {
	reviews := sampleReviews()
	s := stats.Summarize(reviews)
	v := reviewsView(reviews, s, generated)

	pdf, err := RenderReviews(reviews, s, Tabular, generated)
	require.NoError(t, err)
	md, err := RenderReviews(reviews, s, Narrative, generated)
	require.NoError(t, err)

	for _, f := range v.Facts {
		assert.Contains(t, string(pdf.Body), pdfText(f.Label+": "+f.Value))
		assert.Contains(t, string(md.Body), "**"+f.Label+":** "+f.Value)
	}
	for _, row := range v.Tables[0].Rows {
		assert.Contains(t, string(md.Body), "| "+strings.Join(row, " | ")+" |")
		for _, cell := range row {
			assert.Contains(t, string(pdf.Body), "("+pdfText(cell)+")")
		}
	}
}

func TestRenderEmpty(t *testing.T) {
	s := stats.Summarize(nil)
	for _, f := range []Format{Tabular, Narrative} {
		doc, err := RenderReviews(nil, s, f, generated)
		require.NoError(t, err)
		body := string(doc.Body)
		assert.Contains(t, body, inFormat(f, "0"), "format %s", f)
		assert.Contains(t, body, inFormat(f, NoRatingData), "format %s", f)
		assert.Contains(t, body, inFormat(f, "No reviews to report."), "format %s", f)
		assert.NotContains(t, body, inFormat(f, "NaN"), "format %s", f)
	}
}

func TestRenderUnknownFormat(t *testing.T) {
	_, err := RenderReviews(nil, stats.Summarize(nil), Format("html"), generated)
	assert.Error(t, err)
}

func TestRenderRecords(t *testing.T) {
	records := []models.PersonalRecord{
		{Type: models.RecordTypeHobby, Title: "Guitar practice", Content: "Learned barre chords.", Rating: 4,
			Category: ptr("music"), CreatedAt: generated},
		{Type: models.RecordTypeExercise, Title: "Morning run", Content: "5 km along the river.", Rating: 5,
			CreatedAt: generated},
	}
	s := stats.SummarizeRecords(records)

	pdf, err := RenderRecords(records, s, Tabular, generated)
	require.NoError(t, err)
	assert.Equal(t, "personal_records_report.pdf", pdf.Filename)
	assert.Contains(t, string(pdf.Body), pdfText("Total records: 2"))
	assert.Contains(t, string(pdf.Body), pdfText("Average rating: 4.5"))

	md, err := RenderRecords(records, s, Narrative, generated)
	require.NoError(t, err)
	assert.Equal(t, "personal_records_report.md", md.Filename)
	body := string(md.Body)
	assert.Contains(t, body, "# Personal Records Report")
	assert.Contains(t, body, "- **Total records:** 2")
	assert.Contains(t, body, "- **Category:** music")
	assert.Contains(t, body, "- **Category:** -")

	empty, err := RenderRecords(nil, stats.SummarizeRecords(nil), Narrative, generated)
	require.NoError(t, err)
	assert.Contains(t, string(empty.Body), "No records to report.")
}

func TestNarrativeEscapesMarkdown(t *testing.T) {
	reviews := []models.Review{{
		Title: "C# *Deep* Dive", Author: "Jon [Skeet]", GenreName: "Tech",
		ReadDate: generated, Content: strings.Repeat("z", 60),
	}}
	doc, err := RenderReviews(reviews, stats.Summarize(reviews), Narrative, generated)
	require.NoError(t, err)
	assert.Contains(t, string(doc.Body), `### 1. C\# \*Deep\* Dive`)
	assert.Contains(t, string(doc.Body), `Jon \[Skeet\]`)
}

func TestPreviewHTML(t *testing.T) {
	reviews := sampleReviews()
	doc, err := RenderReviews(reviews, stats.Summarize(reviews), Narrative, generated)
	require.NoError(t, err)

	html, err := PreviewHTML(doc)
	require.NoError(t, err)
	assert.Contains(t, string(html), "<h1")
	assert.Contains(t, string(html), "<table>")
	assert.Contains(t, string(html), "<strong>Total reviews:</strong> 3")

	pdf, err := RenderReviews(reviews, stats.Summarize(reviews), Tabular, generated)
	require.NoError(t, err)
	_, err = PreviewHTML(pdf)
	assert.ErrorIs(t, err, ErrNotNarrative)
}
