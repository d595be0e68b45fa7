// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package report

import (
	"embed"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/go-pdf/fpdf"
)

//go:embed fonts/*.ttf
var bundled embed.FS

// Fonts holds the TrueType faces used by tabular reports. Text is written
// as Unicode, so characters outside a face keep their code points in the
// text layer and render as the face's missing glyph.
type Fonts struct {
	Regular []byte
	Bold    []byte
	Italic  []byte
}

var active atomic.Pointer[Fonts]

// DefaultFonts returns the bundled DejaVu Sans Condensed faces. They cover
// Latin, Greek and Cyrillic but not Hangul.
func DefaultFonts() Fonts {
	read := func(name string) []byte {
		b, err := bundled.ReadFile("fonts/" + name)
		if err != nil {
			panic(fmt.Sprintf("report: bundled font %s: %v", name, err))
		}
		return b
	}
	return Fonts{
		Regular: read("DejaVuSansCondensed.ttf"),
		Bold:    read("DejaVuSansCondensed-Bold.ttf"),
		Italic:  read("DejaVuSansCondensed-Oblique.ttf"),
	}
}

// LoadFonts reads TrueType files from disk. bold may be empty, in which
// case the regular face is used for every style.
func LoadFonts(regular, bold string) (Fonts, error) {
	r, err := os.ReadFile(regular)
	if err != nil {
		return Fonts{}, fmt.Errorf("read report font: %w", err)
	}
	f := Fonts{Regular: r, Bold: r, Italic: r}
	if bold != "" {
		if f.Bold, err = os.ReadFile(bold); err != nil {
			return Fonts{}, fmt.Errorf("read bold report font: %w", err)
		}
	}
	return f, nil
}

// UseFonts makes f the faces for every later tabular render. The faces are
// checked by laying out a sample page first.
func UseFonts(f Fonts) error {
	if len(f.Regular) == 0 {
		return fmt.Errorf("report font: regular face is empty")
	}
	if len(f.Bold) == 0 {
		f.Bold = f.Regular
	}
	if len(f.Italic) == 0 {
		f.Italic = f.Regular
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	registerFonts(pdf, f)
	pdf.AddPage()
	for _, style := range []string{"", "B", "I"} {
		pdf.SetFont(fontFamily, style, 10)
		pdf.CellFormat(0, rowHeight, "Aa 가", "", 1, "L", false, 0, "")
	}
	if err := pdf.Error(); err != nil {
		return fmt.Errorf("report font: %w", err)
	}
	active.Store(&f)
	return nil
}

func currentFonts() Fonts {
	if f := active.Load(); f != nil {
		return *f
	}
	f := DefaultFonts()
	active.CompareAndSwap(nil, &f)
	return *active.Load()
}

func registerFonts(pdf *fpdf.Fpdf, f Fonts) {
	pdf.AddUTF8FontFromBytes(fontFamily, "", f.Regular)
	pdf.AddUTF8FontFromBytes(fontFamily, "B", f.Bold)
	pdf.AddUTF8FontFromBytes(fontFamily, "I", f.Italic)
}
