package services

import (
	"strconv"
	"strings"

	"github.com/quietpages/bookchat/internal/core/domain"
)

// NoExcerptsSentinel is the context block used when nothing was retrieved.
const NoExcerptsSentinel = "No retrieved excerpts were provided."

// Context block layout.
const (
	excerptDelimiter     = "---"
	headingSeparator     = " > "
	noHeadingPlaceholder = "(no section heading)"
)

// AssembleContext renders ranked chunks as a plain-text block for the model.
// Each chunk becomes a labelled excerpt carrying its source file, section
// path, 1-based excerpt number and literal text, in input order.
func AssembleContext(chunks []domain.Chunk) string {
	if len(chunks) == 0 {
		return NoExcerptsSentinel
	}

	var b strings.Builder
	for i, c := range chunks {
		if i > 0 {
			b.WriteString("\n")
			b.WriteString(excerptDelimiter)
			b.WriteString("\n")
		}
		b.WriteString("[Excerpt ")
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString("]\n")
		b.WriteString("Source: ")
		b.WriteString(c.FilePath)
		b.WriteString("\nSection: ")
		b.WriteString(sectionLabel(c.HeadingPath))
		b.WriteString("\nExcerpt: ")
		b.WriteString(strconv.Itoa(c.DisplayIndex()))
		b.WriteString("\nText:\n")
		b.WriteString(c.Text)
		b.WriteString("\n")
	}
	return b.String()
}

func sectionLabel(headings []string) string {
	parts := make([]string, 0, len(headings))
	for _, h := range headings {
		if h = strings.TrimSpace(h); h != "" {
			parts = append(parts, h)
		}
	}
	if len(parts) == 0 {
		return noHeadingPlaceholder
	}
	return strings.Join(parts, headingSeparator)
}
