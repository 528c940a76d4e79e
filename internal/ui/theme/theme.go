package theme

import (
	"image/color"

	"charm.land/lipgloss/v2"
)

// Color palette. Muted terminal tones that read on dark and light
// backgrounds alike.
var (
	Primary   = lipgloss.Color("#6366F1") // Indigo
	Secondary = lipgloss.Color("#14B8A6") // Teal
	Accent    = lipgloss.Color("#F97316") // Orange
	Success   = lipgloss.Color("#22C55E") // Green
	Warning   = lipgloss.Color("#F59E0B") // Amber
	Error     = lipgloss.Color("#F43F5E") // Rose
	Text      = lipgloss.Color("#E2E8F0") // Light Slate
	TextDim   = lipgloss.Color("#94A3B8") // Slate
	BgCard    = lipgloss.Color("#1E293B") // Dark Slate
	Border    = lipgloss.Color("#334155") // Slate
)

// Typography
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Subtitle = lipgloss.NewStyle().
			Foreground(TextDim)

	Body = lipgloss.NewStyle().
		Foreground(Text)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)
)

// States
var (
	Correct = lipgloss.NewStyle().
		Foreground(Success).
		Bold(true)

	Incorrect = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	Mastered = lipgloss.NewStyle().
			Foreground(Success).
			Bold(true)

	Due = lipgloss.NewStyle().
		Foreground(Accent)
)

// Layout
var (
	Card = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(0, 2)

	Header = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border)
)

// Components
var (
	ProgressEmpty = lipgloss.NewStyle().
		Background(Border)
)

// DifficultyColor maps a difficulty level to its conventional color.
// Unrecognized levels render dim.
func DifficultyColor(level string) color.Color {
	switch level {
	case "Easy":
		return Success
	case "Medium":
		return Warning
	case "Hard":
		return Error
	default:
		return TextDim
	}
}

// Difficulty returns a style that renders a difficulty level in its color.
func Difficulty(level string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(DifficultyColor(level)).Bold(true)
}

// StrengthColor bands a 0-100 mastery strength: weak red, building amber,
// strong green.
func StrengthColor(strength int) color.Color {
	switch {
	case strength < 40:
		return Error
	case strength < 70:
		return Warning
	default:
		return Success
	}
}
