// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up all HTTP routes and middleware chains for the
// readlog API. Report routes carry their own rate limit on top of the
// global middleware.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"readlog/internal/handlers"
	"readlog/internal/middleware"
)

// New creates and returns the configured Chi router with all middleware
// and route groups wired up. limiter and metricsHandler may be nil.
func New(reviews *handlers.Reviews, records *handlers.Records, reports *handlers.Reports,
	limiter *middleware.RateLimiter, metricsHandler http.Handler) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)

	r.Get("/health", healthHandler)
	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/dashboard", reviews.Dashboard)
		r.Get("/stats", reviews.Stats)

		r.Route("/genres", func(r chi.Router) {
			r.Get("/", reviews.Genres)
			r.Patch("/{id}", reviews.SetGenreActive)
		})

		r.Route("/reviews", func(r chi.Router) {
			r.Get("/", reviews.List)
			r.Post("/", reviews.Create)
			r.Get("/{id}", reviews.Get)
			r.Put("/{id}", reviews.Update)
			r.Delete("/{id}", reviews.Delete)
			r.Get("/{id}/edit", reviews.Edit)
		})

		r.Route("/records", func(r chi.Router) {
			r.Get("/", records.List)
			r.Post("/", records.Create)
			r.Get("/stats", records.Stats)
			r.Get("/{id}", records.Get)
			r.Delete("/{id}", records.Delete)
		})

		// Reports render documents, so they are rate limited per client.
		r.Route("/reports/{subject}", func(r chi.Router) {
			if limiter != nil {
				r.Use(limiter.Middleware)
			}
			r.Get("/", reports.Download)
			r.Get("/preview", reports.Preview)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"Not Found"}`))
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
