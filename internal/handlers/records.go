// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"
	"slices"
	"strings"

	"readlog/internal/models"
	"readlog/internal/service"
)

// Records groups the personal record handlers.
type Records struct {
	svc *service.Records
}

// NewRecords creates the record handler group.
func NewRecords(svc *service.Records) *Records {
	return &Records{svc: svc}
}

// recordFilter reads ?type= and ?category=.
func recordFilter(r *http.Request) (models.RecordFilter, error) {
	q := r.URL.Query()
	f := models.RecordFilter{
		Type:     models.RecordType(strings.TrimSpace(q.Get("type"))),
		Category: strings.TrimSpace(q.Get("category")),
	}
	if f.Type != "" && !slices.Contains(models.RecordTypes, f.Type) {
		return f, &models.ValidationError{Violations: []models.Violation{
			{Field: "type", Message: "type must be one of reading, hobby, exercise, study, other"},
		}}
	}
	return f, nil
}

// List returns the records matching the filter, newest first.
func (h *Records) List(w http.ResponseWriter, r *http.Request) {
	f, err := recordFilter(r)
	if err != nil {
		badParams(w, err)
		return
	}
	items, err := h.svc.List(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// Get returns one record.
func (h *Records) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	rec, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// Create stores a new record from a JSON body.
func (h *Records) Create(w http.ResponseWriter, r *http.Request) {
	var in models.RecordInput
	if err := decodeJSON(w, r, &in); err != nil {
		badRequest(w, err.Error())
		return
	}
	rec, err := h.svc.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/records/"+rec.ID.String())
	writeJSON(w, http.StatusCreated, rec)
}

// Delete removes a record.
func (h *Records) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Stats returns the summary of the records matching the filter.
func (h *Records) Stats(w http.ResponseWriter, r *http.Request) {
	f, err := recordFilter(r)
	if err != nil {
		badParams(w, err)
		return
	}
	s, err := h.svc.Summary(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}
