// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"
	"strconv"

	"readlog/internal/models"
	"readlog/internal/query"
	"readlog/internal/service"
)

// Reviews groups the book review, genre, statistics and dashboard handlers.
type Reviews struct {
	svc *service.Reviews
}

// NewReviews creates the review handler group.
func NewReviews(svc *service.Reviews) *Reviews {
	return &Reviews{svc: svc}
}

// List returns one page of reviews filtered and sorted by the query
// parameters genre, from, to, q, sort and page.
func (h *Reviews) List(w http.ResponseWriter, r *http.Request) {
	c, err := query.FromValues(r.URL.Query())
	if err != nil {
		badParams(w, err)
		return
	}
	page, err := pageParam(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	p, err := h.svc.Page(r.Context(), c, page)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Get returns one review.
func (h *Reviews) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	rev, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rev)
}

// Create stores a new review from a JSON body.
func (h *Reviews) Create(w http.ResponseWriter, r *http.Request) {
	var in models.ReviewInput
	if err := decodeJSON(w, r, &in); err != nil {
		badRequest(w, err.Error())
		return
	}
	rev, err := h.svc.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/reviews/"+rev.ID.String())
	writeJSON(w, http.StatusCreated, rev)
}

// Edit returns the prefilled edit form for a review.
func (h *Reviews) Edit(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	form, err := h.svc.RequestEdit(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, form)
}

// Update overwrites a review from a JSON body.
func (h *Reviews) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var in models.ReviewInput
	if err := decodeJSON(w, r, &in); err != nil {
		badRequest(w, err.Error())
		return
	}
	rev, err := h.svc.Update(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rev)
}

// Delete removes a review.
func (h *Reviews) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	if err := h.svc.ConfirmDelete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Stats returns the summary of the reviews matching the query parameters.
func (h *Reviews) Stats(w http.ResponseWriter, r *http.Request) {
	c, err := query.FromValues(r.URL.Query())
	if err != nil {
		badParams(w, err)
		return
	}
	s, err := h.svc.Summary(r.Context(), c)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// Dashboard returns the landing overview.
func (h *Reviews) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.Dashboard(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// Genres lists the genre vocabulary; ?active=true limits it to active ones.
func (h *Reviews) Genres(w http.ResponseWriter, r *http.Request) {
	activeOnly := false
	if s := r.URL.Query().Get("active"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			badRequest(w, "active must be true or false")
			return
		}
		activeOnly = v
	}
	genres, err := h.svc.Genres(r.Context(), activeOnly)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, genres)
}

// SetGenreActive retires or restores a genre from {"is_active": bool}.
func (h *Reviews) SetGenreActive(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var body struct {
		Active *bool `json:"is_active"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		badRequest(w, err.Error())
		return
	}
	if body.Active == nil {
		badRequest(w, "is_active is required")
		return
	}
	if err := h.svc.SetGenreActive(r.Context(), id, *body.Active); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
