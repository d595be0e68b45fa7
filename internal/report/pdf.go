// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package report

import (
	"bytes"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-pdf/fpdf"
)

const (
	pageMargin = 20.0
	rowHeight  = 7.0
	lineHeight = 5.0
	fontFamily = "readlog"
)

// tabularWriter lays a view out as an A4 PDF with embedded Unicode fonts.
type tabularWriter struct {
	pdf *fpdf.Fpdf
}

// tr keeps s within the Basic Multilingual Plane, the range fpdf encodes.
func (w *tabularWriter) tr(s string) string {
	return strings.Map(func(r rune) rune {
		if r > 0xFFFF {
			return utf8.RuneError
		}
		return r
	}, s)
}

// encodeTabular renders v as a PDF. Compression is off so the text of the
// document stays searchable in the raw bytes.
func encodeTabular(v view, generatedAt time.Time) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(false)
	pdf.SetCreationDate(generatedAt)
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.SetTitle(v.Heading, true)
	pdf.SetCreator("readlog", false)
	pdf.AliasNbPages("")
	registerFonts(pdf, currentFonts())

	w := &tabularWriter{pdf: pdf}
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont(fontFamily, "I", 8)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 10, w.tr("Page "+strconv.Itoa(pdf.PageNo())+" of {nb}"), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	w.heading(v)
	w.facts(v.Facts)
	for _, t := range v.Tables {
		w.table(t)
	}
	w.listing(v)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (w *tabularWriter) heading(v view) {
	w.pdf.SetFont(fontFamily, "B", 16)
	w.pdf.SetTextColor(0, 0, 0)
	w.pdf.CellFormat(0, 10, w.tr(v.Heading), "", 1, "C", false, 0, "")
	w.pdf.SetFont(fontFamily, "", 9)
	w.pdf.SetTextColor(100, 100, 100)
	w.pdf.CellFormat(0, 6, w.tr("Generated "+v.GeneratedAt), "", 1, "C", false, 0, "")
	w.pdf.Ln(4)
}

func (w *tabularWriter) section(title string) {
	w.pdf.SetFont(fontFamily, "B", 12)
	w.pdf.SetTextColor(0, 0, 0)
	w.pdf.CellFormat(0, 8, w.tr(title), "", 1, "L", false, 0, "")
}

func (w *tabularWriter) facts(facts []fact) {
	w.section("Summary")
	w.pdf.SetFont(fontFamily, "", 10)
	for _, f := range facts {
		w.pdf.CellFormat(0, 6, w.tr(f.Label+": "+f.Value), "", 1, "L", false, 0, "")
	}
	w.pdf.Ln(4)
}

func (w *tabularWriter) header(t table) {
	w.pdf.SetFont(fontFamily, "B", 10)
	w.pdf.SetFillColor(52, 73, 94)
	w.pdf.SetTextColor(255, 255, 255)
	for i, h := range t.Headers {
		w.pdf.CellFormat(t.Widths[i], rowHeight, w.tr(h), "1", 0, "C", true, 0, "")
	}
	w.pdf.Ln(-1)
	w.pdf.SetFont(fontFamily, "", 9)
	w.pdf.SetTextColor(0, 0, 0)
}

func (w *tabularWriter) row(t table, cells []string) {
	for i, c := range cells {
		limit := 0
		if i < len(t.Limits) {
			limit = t.Limits[i]
		}
		w.pdf.CellFormat(t.Widths[i], rowHeight, w.tr(Truncate(c, limit)), "1", 0, "L", false, 0, "")
	}
	w.pdf.Ln(-1)
}

// table renders a summary grid. Tables without rows are omitted.
func (w *tabularWriter) table(t table) {
	if len(t.Rows) == 0 {
		return
	}
	w.section(t.Title)
	w.header(t)
	for _, r := range t.Rows {
		w.row(t, r)
	}
	w.pdf.Ln(4)
}

// listing renders one row per entry followed by a full-width preview row.
func (w *tabularWriter) listing(v view) {
	w.section(v.Listing.Title)
	if len(v.Entries) == 0 {
		w.pdf.SetFont(fontFamily, "I", 10)
		w.pdf.CellFormat(0, rowHeight, w.tr(v.Empty), "", 1, "L", false, 0, "")
		return
	}

	var width float64
	for _, cw := range v.Listing.Widths {
		width += cw
	}
	w.header(v.Listing)
	for _, e := range v.Entries {
		w.row(v.Listing, e.Cells)
		w.pdf.SetFont(fontFamily, "", 8)
		w.pdf.SetTextColor(80, 80, 80)
		w.pdf.MultiCell(width, lineHeight, w.tr(Truncate(e.Content, TabularPreviewLimit)), "1", "L", false)
		w.pdf.SetFont(fontFamily, "", 9)
		w.pdf.SetTextColor(0, 0, 0)
	}
}
