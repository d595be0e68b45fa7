// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package report

import (
	"fmt"
	"strings"
)

// mdEscaper escapes characters that would otherwise change the meaning of
// user text inside Markdown inline content or a table cell.
var mdEscaper = strings.NewReplacer(
	`\`, `\\`,
	"`", "\\`",
	"*", `\*`,
	"_", `\_`,
	"[", `\[`,
	"]", `\]`,
	"<", `\<`,
	">", `\>`,
	"|", `\|`,
	"#", `\#`,
)

func md(s string) string {
	return mdEscaper.Replace(s)
}

// encodeNarrative renders v as Markdown with one section per entry. Titles
// and details are shown in full; only the content preview is truncated.
func encodeNarrative(v view) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", v.Heading)
	fmt.Fprintf(&b, "Generated %s\n\n", v.GeneratedAt)

	b.WriteString("## Summary\n\n")
	for _, f := range v.Facts {
		fmt.Fprintf(&b, "- **%s:** %s\n", f.Label, md(f.Value))
	}
	b.WriteString("\n")

	for _, t := range v.Tables {
		if len(t.Rows) == 0 {
			continue
		}
		fmt.Fprintf(&b, "## %s\n\n", t.Title)
		writeTableRow(&b, t.Headers)
		sep := make([]string, len(t.Headers))
		for i := range sep {
			sep[i] = "---"
		}
		writeTableRow(&b, sep)
		for _, r := range t.Rows {
			cells := make([]string, len(r))
			for i, c := range r {
				cells[i] = md(c)
			}
			writeTableRow(&b, cells)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "## %s\n\n", v.Listing.Title)
	if len(v.Entries) == 0 {
		fmt.Fprintf(&b, "_%s_\n", v.Empty)
		return []byte(b.String())
	}
	for i, e := range v.Entries {
		fmt.Fprintf(&b, "### %d. %s\n\n", i+1, md(e.Title))
		for _, d := range e.Details {
			fmt.Fprintf(&b, "- **%s:** %s\n", d.Label, md(d.Value))
		}
		b.WriteString("\n")
		preview := strings.Join(strings.Fields(Truncate(e.Content, NarrativePreviewLimit)), " ")
		fmt.Fprintf(&b, "> %s\n\n", md(preview))
	}
	return []byte(b.String())
}

func writeTableRow(b *strings.Builder, cells []string) {
	b.WriteString("| ")
	b.WriteString(strings.Join(cells, " | "))
	b.WriteString(" |\n")
}
