// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"readlog/internal/cache"
	"readlog/internal/models"
	"readlog/internal/query"
	"readlog/internal/report"
	"readlog/internal/store"
	"readlog/internal/validate"
)

var now = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return now }

const longContent = "A patient, closely observed story about memory, family and the places we leave."

type memCache struct {
	mu          sync.Mutex
	items       map[string][]byte
	invalidated int
}

func (c *memCache) Generation(context.Context) (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return int64(c.invalidated), true
}

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.items[key]
	return b, ok
}

func (c *memCache) Set(_ context.Context, key string, body []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = body
}

func (c *memCache) InvalidateAll(context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = map[string][]byte{}
	c.invalidated++
}

type fakeArchive struct {
	keys       []string
	err        error
	presignErr error
	expires    time.Duration
}

func (a *fakeArchive) PresignedURL(_ context.Context, key string, expires time.Duration) (string, error) {
	if a.presignErr != nil {
		return "", a.presignErr
	}
	a.expires = expires
	return "https://archive.example/" + key + "?sig=test", nil
}

func (a *fakeArchive) Upload(_ context.Context, key, _ string, _ []byte) error {
	if a.err != nil {
		return a.err
	}
	a.keys = append(a.keys, key)
	return nil
}

type fakeMetrics struct {
	writes      map[string]int
	validations map[string]int
	hits        int
	misses      int
	archiveFail int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{writes: map[string]int{}, validations: map[string]int{}}
}

func (m *fakeMetrics) RecordWrite(entity, op string)         { m.writes[entity+":"+op]++ }
func (m *fakeMetrics) RecordValidationFailure(entity string) { m.validations[entity]++ }
func (m *fakeMetrics) RecordReport(_, _ string, cached bool) {
	if cached {
		m.hits++
	} else {
		m.misses++
	}
}
func (m *fakeMetrics) RecordRenderLatency(string, string, time.Duration) {}
func (m *fakeMetrics) RecordArchiveFailure()                             { m.archiveFail++ }

type fixture struct {
	mem     *store.Memory
	reviews *Reviews
	records *Records
	cache   *memCache
	archive *fakeArchive
	metrics *fakeMetrics
	fiction models.Genre
	poetry  models.Genre
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWith(t, nil)
}

// newFixtureWith lets a test wrap the review repository the services use.
func newFixtureWith(t *testing.T, wrap func(ReviewRepository) ReviewRepository) *fixture {
	t.Helper()
	mem := store.NewMemory(clock)
	f := &fixture{
		mem:     mem,
		cache:   &memCache{items: map[string][]byte{}},
		archive: &fakeArchive{},
		metrics: newFakeMetrics(),
		fiction: mem.AddGenre("Fiction"),
		poetry:  mem.AddGenre("Poetry"),
	}
	var reviews ReviewRepository = mem.Reviews()
	if wrap != nil {
		reviews = wrap(reviews)
	}
	d := Deps{
		Reviews:     reviews,
		Genres:      mem.Genres(),
		Records:     mem.Records(),
		Validator:   validate.New(clock),
		GenreCache:  cache.NewGenreCache(8, time.Minute),
		ReportCache: f.cache,
		Archive:     f.archive,
		Metrics:     f.metrics,
		Now:         clock,
		PageSize:    5,
		MonthlyGoal: 4,
	}
	f.reviews = NewReviews(d)
	f.records = NewRecords(d)
	return f
}

func input(genre int64, title string, read time.Time, rating *int) models.ReviewInput {
	return models.ReviewInput{
		Title:    title,
		Author:   "Jane Writer",
		ReadDate: models.DatePtr(read),
		GenreID:  genre,
		Content:  longContent,
		Rating:   rating,
	}
}

func intPtr(v int) *int { return &v }

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCreateReview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r, err := f.reviews.Create(ctx, input(f.fiction.ID, "  Small Things  ", date(2024, 3, 2), intPtr(4)))
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, r.ID)
	assert.Equal(t, "Small Things", r.Title)
	assert.Equal(t, "Fiction", r.GenreName)
	assert.Equal(t, 1, f.metrics.writes["review:create"])
	assert.Equal(t, 1, f.cache.invalidated)

	got, err := f.reviews.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "Small Things", got.Title)
}

func TestCreateReviewCollectsViolations(t *testing.T) {
	f := newFixture(t)
	in := input(f.fiction.ID, "X", date(2024, 3, 2), nil)
	in.Content = strings.Repeat("a", 40)

	_, err := f.reviews.Create(context.Background(), in)
	var ve *models.ValidationError
	require.ErrorAs(t, err, &ve)
	require.Len(t, ve.Violations, 2)
	assert.Equal(t, "title", ve.Violations[0].Field)
	assert.Equal(t, "content", ve.Violations[1].Field)
	assert.Equal(t, 1, f.metrics.validations["review"])
	assert.Equal(t, 0, f.cache.invalidated)
}

func TestCreateReviewGenreRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.reviews.Create(ctx, input(999, "Lost Genre", date(2024, 3, 2), nil))
	var ve *models.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "genre_id", ve.Violations[0].Field)

	// Warm the genre cache, then retire the genre; the cache must not keep
	// accepting it.
	_, err = f.reviews.Create(ctx, input(f.poetry.ID, "Odes", date(2024, 3, 2), nil))
	require.NoError(t, err)
	require.NoError(t, f.reviews.SetGenreActive(ctx, f.poetry.ID, false))

	_, err = f.reviews.Create(ctx, input(f.poetry.ID, "More Odes", date(2024, 3, 2), nil))
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "genre is no longer active", ve.Violations[0].Message)
}

func TestUpdateKeepsRetiredGenre(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r, err := f.reviews.Create(ctx, input(f.poetry.ID, "Odes", date(2024, 1, 5), nil))
	require.NoError(t, err)
	require.NoError(t, f.reviews.SetGenreActive(ctx, f.poetry.ID, false))

	in := input(f.poetry.ID, "Odes, Revisited", date(2024, 1, 5), intPtr(3))
	updated, err := f.reviews.Update(ctx, r.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "Odes, Revisited", updated.Title)
	assert.Equal(t, "Poetry", updated.GenreName)
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt) || updated.UpdatedAt.Equal(updated.CreatedAt))

	// A different review cannot move into the retired genre.
	other, err := f.reviews.Create(ctx, input(f.fiction.ID, "Novel", date(2024, 1, 6), nil))
	require.NoError(t, err)
	_, err = f.reviews.Update(ctx, other.ID, input(f.poetry.ID, "Novel", date(2024, 1, 6), nil))
	var ve *models.ValidationError
	assert.ErrorAs(t, err, &ve)

	_, err = f.reviews.Update(ctx, uuid.New(), in)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestRequestEdit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r, err := f.reviews.Create(ctx, input(f.poetry.ID, "Odes", date(2024, 1, 5), intPtr(5)))
	require.NoError(t, err)
	require.NoError(t, f.reviews.SetGenreActive(ctx, f.poetry.ID, false))

	form, err := f.reviews.RequestEdit(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "Odes", form.Input.Title)
	require.NotNil(t, form.Input.Rating)
	assert.Equal(t, 5, *form.Input.Rating)

	var names []string
	for _, g := range form.Genres {
		names = append(names, g.Name)
	}
	assert.ElementsMatch(t, []string{"Fiction", "Poetry"}, names)

	_, err = f.reviews.RequestEdit(ctx, uuid.New())
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestConfirmDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r, err := f.reviews.Create(ctx, input(f.fiction.ID, "Gone Soon", date(2024, 2, 1), nil))
	require.NoError(t, err)

	require.NoError(t, f.reviews.ConfirmDelete(ctx, r.ID))
	assert.Equal(t, 1, f.metrics.writes["review:delete"])
	assert.ErrorIs(t, f.reviews.ConfirmDelete(ctx, r.ID), models.ErrNotFound)
}

func TestPage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 1; i <= 7; i++ {
		_, err := f.reviews.Create(ctx, input(f.fiction.ID, fmt.Sprintf("Book %02d", i), date(2024, 1, i), nil))
		require.NoError(t, err)
	}

	c := query.Criteria{Sort: query.SortDateAsc}
	p, err := f.reviews.Page(ctx, c, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, p.Page.TotalPages)
	assert.Equal(t, 7, p.Page.Total)
	require.Len(t, p.Reviews, 2)
	assert.Equal(t, "Book 06", p.Reviews[0].Title)
	assert.Equal(t, "Book 07", p.Reviews[1].Title)

	_, err = f.reviews.Page(ctx, c, 3)
	assert.ErrorIs(t, err, models.ErrNotFound)

	empty, err := f.reviews.Page(ctx, query.Criteria{Search: "nothing matches"}, 1)
	require.NoError(t, err)
	assert.Empty(t, empty.Reviews)
}

func TestSummaryScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.reviews.Create(ctx, input(f.fiction.ID, "First", date(2024, 1, 10), intPtr(5)))
	require.NoError(t, err)
	_, err = f.reviews.Create(ctx, input(f.fiction.ID, "Second", date(2024, 2, 5), intPtr(3)))
	require.NoError(t, err)
	_, err = f.reviews.Create(ctx, input(f.poetry.ID, "Third", date(2024, 2, 20), nil))
	require.NoError(t, err)

	s, err := f.reviews.Summary(ctx, query.Criteria{})
	require.NoError(t, err)
	assert.Equal(t, 3, s.Total)
	assert.True(t, s.AverageRating.Valid)
	assert.InDelta(t, 4.0, s.AverageRating.Value, 1e-9)
	assert.Equal(t, "Fiction", s.MostCommonGenre)

	from, to := date(2024, 2, 1), date(2024, 2, 28)
	feb, err := f.reviews.Summary(ctx, query.Criteria{From: &from, To: &to})
	require.NoError(t, err)
	assert.Equal(t, 2, feb.Total)
}

func TestDashboard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 1; i <= 6; i++ {
		_, err := f.reviews.Create(ctx, input(f.fiction.ID, fmt.Sprintf("March %d", i), date(2024, 3, i), intPtr(4)))
		require.NoError(t, err)
	}
	_, err := f.reviews.Create(ctx, input(f.fiction.ID, "February", date(2024, 2, 1), nil))
	require.NoError(t, err)
	_, err = f.records.Create(ctx, models.RecordInput{Type: models.RecordTypeHobby, Title: "Pottery", Content: "Threw two bowls.", Rating: 4})
	require.NoError(t, err)

	d, err := f.reviews.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, d.TotalReviews)
	assert.Equal(t, 1, d.TotalRecords)
	assert.Equal(t, 6, d.ThisMonth)
	assert.Equal(t, 4, d.MonthlyGoal)
	assert.Equal(t, 100.0, d.GoalPercent)
	assert.Len(t, d.Recent, RecentLimit)
	assert.Equal(t, 7, d.Summary.Total)
}

func TestDashboardEmpty(t *testing.T) {
	f := newFixture(t)
	d, err := f.reviews.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Zero(t, d.TotalReviews)
	assert.Zero(t, d.GoalPercent)
	assert.Empty(t, d.Recent)
	assert.False(t, d.Summary.AverageRating.Valid)
}

func TestExportCachesAndArchives(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.reviews.Create(ctx, input(f.fiction.ID, "Cached Book", date(2024, 3, 1), intPtr(5)))
	require.NoError(t, err)

	first, err := f.reviews.Export(ctx, query.Criteria{}, report.Narrative)
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Equal(t, "book_reviews_report.md", first.Document.Filename)
	assert.Contains(t, string(first.Document.Body), "Cached Book")
	require.Len(t, f.archive.keys, 1)
	assert.Equal(t, first.ArchiveKey, f.archive.keys[0])
	assert.True(t, strings.HasPrefix(first.ArchiveKey, "reports/reviews/2024/03/"))
	assert.Equal(t, "https://archive.example/"+first.ArchiveKey+"?sig=test", first.ArchiveURL)
	assert.Equal(t, DefaultArchiveTTL, f.archive.expires)

	second, err := f.reviews.Export(ctx, query.Criteria{}, report.Narrative)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Document.Body, second.Document.Body)
	assert.Equal(t, "book_reviews_report.md", second.Document.Filename)
	assert.Len(t, f.archive.keys, 1)
	assert.Equal(t, 1, f.metrics.hits)
	assert.Equal(t, 1, f.metrics.misses)

	// A write invalidates every cached report.
	_, err = f.reviews.Create(ctx, input(f.fiction.ID, "Fresh Book", date(2024, 3, 2), nil))
	require.NoError(t, err)
	third, err := f.reviews.Export(ctx, query.Criteria{}, report.Narrative)
	require.NoError(t, err)
	assert.False(t, third.Cached)
	assert.Contains(t, string(third.Document.Body), "Fresh Book")
}

// pausingReviews holds the first Query after it has read the store until
// release is closed.
type pausingReviews struct {
	ReviewRepository
	once    sync.Once
	read    chan struct{}
	release chan struct{}
}

func (p *pausingReviews) Query(ctx context.Context, filter query.Predicate, order query.Sort) ([]models.Review, error) {
	items, err := p.ReviewRepository.Query(ctx, filter, order)
	p.once.Do(func() {
		close(p.read)
		<-p.release
	})
	return items, err
}

func TestExportWriteDuringRenderIsNotCached(t *testing.T) {
	p := &pausingReviews{read: make(chan struct{}), release: make(chan struct{})}
	f := newFixtureWith(t, func(r ReviewRepository) ReviewRepository {
		p.ReviewRepository = r
		return p
	})
	ctx := context.Background()

	_, err := f.reviews.Create(ctx, input(f.fiction.ID, "Pachinko", date(2024, 3, 1), intPtr(5)))
	require.NoError(t, err)

	done := make(chan *Export, 1)
	go func() {
		exp, err := f.reviews.Export(ctx, query.Criteria{}, report.Narrative)
		assert.NoError(t, err)
		done <- exp
	}()

	<-p.read
	_, err = f.reviews.Create(ctx, input(f.fiction.ID, "Kindred", date(2024, 3, 2), intPtr(4)))
	require.NoError(t, err)
	close(p.release)

	first := <-done
	require.NotNil(t, first)
	assert.Contains(t, string(first.Document.Body), "Pachinko")
	assert.NotContains(t, string(first.Document.Body), "Kindred")

	second, err := f.reviews.Export(ctx, query.Criteria{}, report.Narrative)
	require.NoError(t, err)
	assert.False(t, second.Cached)
	assert.Contains(t, string(second.Document.Body), "Kindred")

	third, err := f.reviews.Export(ctx, query.Criteria{}, report.Narrative)
	require.NoError(t, err)
	assert.True(t, third.Cached)
	assert.Contains(t, string(third.Document.Body), "Kindred")
}

func TestExportArchiveLinkFailureKeepsArchive(t *testing.T) {
	f := newFixture(t)
	f.archive.presignErr = errors.New("no signer")

	exp, err := f.reviews.Export(context.Background(), query.Criteria{}, report.Narrative)
	require.NoError(t, err)
	assert.NotEmpty(t, exp.ArchiveKey)
	assert.Empty(t, exp.ArchiveURL)
}

func TestExportArchiveFailureDoesNotFail(t *testing.T) {
	f := newFixture(t)
	f.archive.err = errors.New("bucket unavailable")

	exp, err := f.reviews.Export(context.Background(), query.Criteria{}, report.Tabular)
	require.NoError(t, err)
	assert.Empty(t, exp.ArchiveKey)
	assert.Equal(t, "book_reviews_report.pdf", exp.Document.Filename)
	assert.True(t, strings.HasPrefix(string(exp.Document.Body), "%PDF"))
	assert.Equal(t, 1, f.metrics.archiveFail)
}

func TestExportRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	var ve *models.ValidationError

	_, err := f.reviews.Export(ctx, query.Criteria{}, report.Format("docx"))
	assert.ErrorAs(t, err, &ve)

	_, err = f.reviews.Export(ctx, query.Criteria{Sort: "popularity"}, report.Narrative)
	assert.ErrorAs(t, err, &ve)
	assert.Empty(t, f.archive.keys)
}

func TestWithoutOptionalDeps(t *testing.T) {
	mem := store.NewMemory(clock)
	g := mem.AddGenre("Fiction")
	svc := NewReviews(Deps{
		Reviews:   mem.Reviews(),
		Genres:    mem.Genres(),
		Records:   mem.Records(),
		Validator: validate.New(clock),
		Now:       clock,
	})
	ctx := context.Background()

	_, err := svc.Create(ctx, input(g.ID, "Plain", date(2024, 3, 1), nil))
	require.NoError(t, err)
	exp, err := svc.Export(ctx, query.Criteria{}, report.Narrative)
	require.NoError(t, err)
	assert.False(t, exp.Cached)
	assert.Empty(t, exp.ArchiveKey)
}

func TestRecords(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.records.Create(ctx, models.RecordInput{Type: "travel", Title: "", Content: "x", Rating: 9})
	var ve *models.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Violations, 3)
	assert.Equal(t, 1, f.metrics.validations["record"])

	run, err := f.records.Create(ctx, models.RecordInput{Type: models.RecordTypeExercise, Title: "Morning run", Content: "5k along the river.", Rating: 4, Category: "running"})
	require.NoError(t, err)
	_, err = f.records.Create(ctx, models.RecordInput{Type: models.RecordTypeStudy, Title: "Go generics", Content: "Type sets and constraints.", Rating: 5})
	require.NoError(t, err)

	list, err := f.records.List(ctx, models.RecordFilter{Type: models.RecordTypeExercise})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, run.ID, list[0].ID)

	byCategory, err := f.records.List(ctx, models.RecordFilter{Category: "running"})
	require.NoError(t, err)
	assert.Len(t, byCategory, 1)

	s, err := f.records.Summary(ctx, models.RecordFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, s.Total)
	assert.InDelta(t, 4.5, s.AverageRating.Value, 1e-9)

	exp, err := f.records.Export(ctx, models.RecordFilter{}, report.Narrative)
	require.NoError(t, err)
	assert.Equal(t, "personal_records_report.md", exp.Document.Filename)
	assert.Contains(t, string(exp.Document.Body), "Morning run")

	require.NoError(t, f.records.Delete(ctx, run.ID))
	assert.ErrorIs(t, f.records.Delete(ctx, run.ID), models.ErrNotFound)
	_, err = f.records.Get(ctx, run.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestFilterFingerprint(t *testing.T) {
	a := filterFingerprint(models.RecordFilter{Type: models.RecordTypeHobby})
	b := filterFingerprint(models.RecordFilter{Type: models.RecordTypeHobby, Category: "  "})
	c := filterFingerprint(models.RecordFilter{Category: "hobby"})
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 16)
}
