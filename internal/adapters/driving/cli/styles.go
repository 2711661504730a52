package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Palette.
const (
	colourPrimary   = lipgloss.Color("#7C3AED") // Purple
	colourSecondary = lipgloss.Color("#06B6D4") // Cyan
	colourMuted     = lipgloss.Color("#6C7086") // Medium gray
	colourWarning   = lipgloss.Color("#F9E2AF") // Yellow
)

// Terminal styles. lipgloss drops the colours when output is not a terminal.
var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(colourPrimary)
	pathStyle    = lipgloss.NewStyle().Foreground(colourSecondary)
	mutedStyle   = lipgloss.NewStyle().Foreground(colourMuted)
	warnStyle    = lipgloss.NewStyle().Foreground(colourWarning)
)

const (
	sectionSeparator = " > "
	noSection        = "(no section heading)"
	snippetRunes     = 160
)

// sectionLabel renders a heading path the way excerpts are labelled in prompts.
func sectionLabel(headings []string) string {
	if len(headings) == 0 {
		return noSection
	}
	return strings.Join(headings, sectionSeparator)
}

// snippet collapses whitespace and truncates text to at most maxRunes runes.
func snippet(text string, maxRunes int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if maxRunes <= 0 || len(runes) <= maxRunes {
		return text
	}
	return strings.TrimSpace(string(runes[:maxRunes])) + "..."
}
