// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"errors"
	"html/template"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"readlog/internal/query"
	"readlog/internal/render"
	"readlog/internal/report"
	"readlog/internal/service"
)

// Report response headers.
const (
	headerCache      = "X-Report-Cache"
	headerArchive    = "X-Report-Archive"
	headerArchiveURL = "X-Report-Archive-URL"
)

// Reports serves report downloads and HTML previews for both subjects.
type Reports struct {
	reviews  *service.Reviews
	records  *service.Records
	renderer *render.Renderer
}

// NewReports creates the report handler group.
func NewReports(reviews *service.Reviews, records *service.Records, renderer *render.Renderer) *Reports {
	return &Reports{reviews: reviews, records: records, renderer: renderer}
}

// paramError marks a malformed request parameter, answered with 400.
type paramError struct{ err error }

func (e *paramError) Error() string { return e.err.Error() }
func (e *paramError) Unwrap() error { return e.err }

// export resolves the subject and its filter from the request and renders
// the report in format.
func (h *Reports) export(ctx context.Context, r *http.Request, format report.Format) (*service.Export, error) {
	subject, err := report.ParseSubject(chi.URLParam(r, "subject"))
	if err != nil {
		return nil, &paramError{err}
	}
	if subject == report.SubjectRecords {
		f, err := recordFilter(r)
		if err != nil {
			return nil, &paramError{err}
		}
		return h.records.Export(ctx, f, format)
	}
	c, err := query.FromValues(r.URL.Query())
	if err != nil {
		return nil, &paramError{err}
	}
	return h.reviews.Export(ctx, c, format)
}

// writeExportError answers parameter errors with 400 and everything else
// through the domain mapping.
func writeExportError(w http.ResponseWriter, r *http.Request, err error) {
	var pe *paramError
	if errors.As(err, &pe) {
		badParams(w, pe.err)
		return
	}
	writeError(w, r, err)
}

// Download returns the report as an attachment named after its subject.
// ?format= selects tabular (PDF, the default) or narrative (Markdown).
func (h *Reports) Download(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("format")
	if name == "" {
		name = string(report.Tabular)
	}
	format, err := report.ParseFormat(name)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	exp, err := h.export(r.Context(), r, format)
	if err != nil {
		writeExportError(w, r, err)
		return
	}

	doc := exp.Document
	hdr := w.Header()
	hdr.Set("Content-Type", doc.ContentType)
	hdr.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.Filename}))
	hdr.Set("Content-Length", strconv.Itoa(len(doc.Body)))
	if exp.Cached {
		hdr.Set(headerCache, "hit")
	} else {
		hdr.Set(headerCache, "miss")
	}
	if exp.ArchiveKey != "" {
		hdr.Set(headerArchive, exp.ArchiveKey)
	}
	if exp.ArchiveURL != "" {
		hdr.Set(headerArchiveURL, exp.ArchiveURL)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc.Body)
}

// Preview renders the narrative report as a standalone HTML page.
func (h *Reports) Preview(w http.ResponseWriter, r *http.Request) {
	exp, err := h.export(r.Context(), r, report.Narrative)
	if err != nil {
		writeExportError(w, r, err)
		return
	}

	body, err := report.PreviewHTML(exp.Document)
	if err != nil {
		if errors.Is(err, report.ErrNotNarrative) {
			badRequest(w, err.Error())
			return
		}
		writeError(w, r, err)
		return
	}

	// PreviewHTML output comes from the Markdown renderer, which drops raw HTML.
	data := render.PreviewData{Title: exp.Document.Filename, Body: template.HTML(body)}
	if err := h.renderer.Page(w, "preview", data); err != nil {
		writeError(w, r, err)
	}
}
