// Package layout renders the shared chrome of the CLI reports: header
// bar, section rules, and aligned label/value rows.
package layout

import (
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/smithrashell/CodeMaster-sub000/internal/ui/theme"
)

// DefaultWidth is the report width when the terminal size is unknown.
const DefaultWidth = 72

// Header renders the top bar: app name on the left, session context on
// the right.
func Header(title, context string, width int) string {
	left := lipgloss.NewStyle().
		Foreground(theme.Primary).
		Bold(true).
		Render(" " + title)

	right := lipgloss.NewStyle().
		Foreground(theme.TextDim).
		Render(context + " ")

	gap := width - 2 - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}

	return theme.Header.
		Width(width).
		Render(left + strings.Repeat(" ", gap) + right)
}

// Section renders a section title above a dim rule spanning the width.
func Section(title string, width int) string {
	rule := width - lipgloss.Width(title) - 3
	if rule < 0 {
		rule = 0
	}
	return lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).Render(title) +
		"  " +
		lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", rule))
}

// Card wraps content in the bordered card style.
func Card(content string, width int) string {
	return theme.Card.Width(width).Render(content)
}

// Row is one label/value line in a report.
type Row struct {
	Label string
	Value string
}

// Rows renders label/value pairs with the values left-aligned past the
// longest label.
func Rows(rows []Row) string {
	widest := 0
	for _, r := range rows {
		if w := lipgloss.Width(r.Label); w > widest {
			widest = w
		}
	}

	var b strings.Builder
	for i, r := range rows {
		if i > 0 {
			b.WriteString("\n")
		}
		label := r.Label + strings.Repeat(" ", widest-lipgloss.Width(r.Label))
		b.WriteString(lipgloss.NewStyle().Foreground(theme.TextDim).Render(label))
		b.WriteString("  ")
		b.WriteString(r.Value)
	}
	return b.String()
}
