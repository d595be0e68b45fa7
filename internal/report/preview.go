// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package report

import (
	"errors"
	"fmt"

	"readlog/internal/markdown"
)

// ErrNotNarrative is returned when previewing a document that is not
// Markdown.
var ErrNotNarrative = errors.New("only narrative reports can be previewed")

// PreviewHTML converts a narrative document into an HTML fragment for
// in-browser viewing.
func PreviewHTML(doc *Document) ([]byte, error) {
	if doc == nil || doc.Format != Narrative {
		return nil, ErrNotNarrative
	}
	out, err := markdown.ToHTML(doc.Body)
	if err != nil {
		return nil, fmt.Errorf("preview %s: %w", doc.Filename, err)
	}
	return out, nil
}
