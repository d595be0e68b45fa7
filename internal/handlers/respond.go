// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the HTTP handlers for the readlog JSON API.
// Handlers are grouped by concern (reviews, records, reports) and receive
// their dependencies through the handler struct.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"readlog/internal/middleware"
	"readlog/internal/models"
)

// maxBodyBytes caps JSON request bodies. The longest review content is
// 5000 characters; this leaves room for multi-byte text and the other fields.
const maxBodyBytes = 64 << 10

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error      string             `json:"error"`
	Violations []models.Violation `json:"violations,omitempty"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Warn("encode response failed", "error", err)
	}
}

// badRequest reports a malformed request that never reached the service.
func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: msg})
}

// writeError maps the domain error taxonomy onto HTTP status codes:
// ValidationError 422, NotFoundError 404, anything else 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *models.ValidationError
	var nf *models.NotFoundError
	var se *models.StoreError

	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: "validation failed", Violations: ve.Violations})
	case errors.As(err, &nf):
		writeJSON(w, http.StatusNotFound, errorBody{Error: nf.Error()})
	case errors.As(err, &se):
		slog.Error("store failure", "op", se.Op, "error", se.Err, "path", r.URL.Path,
			"request_id", middleware.RequestID(r.Context()))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "The data store is unavailable. Please try again."})
	default:
		slog.Error("request failed", "error", err, "path", r.URL.Path,
			"request_id", middleware.RequestID(r.Context()))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "Internal Server Error"})
	}
}

// decodeJSON reads a size-limited JSON body into dst, rejecting unknown
// fields and trailing data.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("invalid JSON body: trailing data")
	}
	return nil
}

// uuidParam parses the {id} URL parameter.
func uuidParam(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid id %q", chi.URLParam(r, "id"))
	}
	return id, nil
}

// int64Param parses the {id} URL parameter as a positive integer.
func int64Param(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", chi.URLParam(r, "id"))
	}
	return id, nil
}

// pageParam reads ?page=, defaulting to 1.
func pageParam(r *http.Request) (int, error) {
	s := r.URL.Query().Get("page")
	if s == "" {
		return 1, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid page %q", s)
	}
	return n, nil
}

// badParams reports malformed query parameters with 400, listing each
// offending parameter when known.
func badParams(w http.ResponseWriter, err error) {
	var ve *models.ValidationError
	if errors.As(err, &ve) {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid query parameters", Violations: ve.Violations})
		return
	}
	badRequest(w, err.Error())
}
