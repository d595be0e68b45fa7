// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router tests verify the HTTP routing configuration, middleware
// chains, and the health endpoint.
package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"readlog/internal/handlers"
	"readlog/internal/metrics"
	"readlog/internal/middleware"
	"readlog/internal/render"
	"readlog/internal/service"
	"readlog/internal/store"
	"readlog/internal/validate"
)

func TestHealthHandler(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/health", nil)

	healthHandler(w, r)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}

	ct := resp.Header.Get("Content-Type")
	if ct != "application/json" {
		t.Errorf("content-type: got %q, want %q", ct, "application/json")
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field: got %q, want %q", body["status"], "ok")
	}
}

func newRouter(t *testing.T, limiter *middleware.RateLimiter) http.Handler {
	t.Helper()
	clock := func() time.Time { return time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC) }
	mem := store.NewMemory(clock)
	mem.AddGenre("Fiction")

	reg := prometheus.NewRegistry()
	d := service.Deps{
		Reviews:   mem.Reviews(),
		Genres:    mem.Genres(),
		Records:   mem.Records(),
		Validator: validate.New(clock),
		Metrics:   metrics.NewCollector(reg),
		Now:       clock,
	}
	reviewSvc := service.NewReviews(d)
	recordSvc := service.NewRecords(d)
	renderer, err := render.New()
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}

	return New(
		handlers.NewReviews(reviewSvc),
		handlers.NewRecords(recordSvc),
		handlers.NewReports(reviewSvc, recordSvc, renderer),
		limiter,
		metrics.Handler(reg),
	)
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", path, nil))
	return w
}

func TestRoutes(t *testing.T) {
	h := newRouter(t, nil)

	tests := []struct {
		path string
		want int
	}{
		{"/health", http.StatusOK},
		{"/metrics", http.StatusOK},
		{"/api/dashboard", http.StatusOK},
		{"/api/stats", http.StatusOK},
		{"/api/genres", http.StatusOK},
		{"/api/reviews", http.StatusOK},
		{"/api/records", http.StatusOK},
		{"/api/records/stats", http.StatusOK},
		{"/api/reports/reviews?format=narrative", http.StatusOK},
		{"/api/reports/records/preview", http.StatusOK},
		{"/api/unknown", http.StatusNotFound},
	}
	for _, tt := range tests {
		w := get(h, tt.path)
		if w.Code != tt.want {
			t.Errorf("GET %s: got %d, want %d (%s)", tt.path, w.Code, tt.want, w.Body.String())
		}
	}
}

func TestGlobalMiddleware(t *testing.T) {
	h := newRouter(t, nil)
	w := get(h, "/api/reviews")

	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options: got %q, want %q", got, "nosniff")
	}
	if got := w.Header().Get(middleware.RequestIDHeader); got == "" {
		t.Error("expected a request id header")
	}
}

func TestNotFoundIsJSON(t *testing.T) {
	h := newRouter(t, nil)
	w := get(h, "/nowhere")

	if w.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want 404", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content-type: got %q, want %q", ct, "application/json")
	}
}

func TestReportsRateLimited(t *testing.T) {
	limiter := middleware.NewRateLimiter(1)
	defer limiter.Stop()
	h := newRouter(t, limiter)

	if w := get(h, "/api/reports/reviews?format=narrative"); w.Code != http.StatusOK {
		t.Fatalf("first report: got %d, want 200", w.Code)
	}
	w := get(h, "/api/reports/reviews?format=narrative")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second report: got %d, want 429", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "60" {
		t.Errorf("Retry-After: got %q, want %q", got, "60")
	}

	// Other routes are not limited.
	for range 3 {
		if w := get(h, "/api/reviews"); w.Code != http.StatusOK {
			t.Fatalf("reviews: got %d, want 200", w.Code)
		}
	}
}

func TestMetricsExposeWrites(t *testing.T) {
	h := newRouter(t, nil)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("POST", "/api/records",
		strings.NewReader(`{"type":"hobby","title":"Knitting","content":"A scarf","rating":5}`)))
	if w.Code != http.StatusCreated {
		t.Fatalf("create record: got %d, want 201 (%s)", w.Code, w.Body.String())
	}

	body := get(h, "/metrics").Body.String()
	if !strings.Contains(body, `readlog_writes_total{entity="record",op="create"} 1`) {
		t.Errorf("metrics missing record write counter:\n%s", body)
	}
}
