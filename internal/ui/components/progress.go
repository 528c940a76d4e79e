package components

import (
	"fmt"
	"image/color"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/smithrashell/CodeMaster-sub000/internal/ui/theme"
)

// ProgressBar displays a horizontal progress bar.
type ProgressBar struct {
	Label       string
	LabelWidth  int // pad the label so stacked bars align
	Percent     float64
	Fill        color.Color
	ShowPercent bool
	Width       int
}

// View renders the progress bar.
func (p ProgressBar) View() string {
	label := p.Label
	if p.LabelWidth > 0 {
		label = fmt.Sprintf("%-*s", p.LabelWidth, label)
	}

	var result string
	if label != "" {
		result = lipgloss.NewStyle().Foreground(theme.Text).Render(label) + "  "
	}

	labelWidth := lipgloss.Width(result)
	percentWidth := 0
	if p.ShowPercent {
		percentWidth = 6 // " 100%"
	}

	barWidth := p.Width - labelWidth - percentWidth
	if barWidth < 4 {
		barWidth = 4
	}

	filled := int(float64(barWidth) * p.Percent)
	if filled > barWidth {
		filled = barWidth
	}
	if filled < 0 {
		filled = 0
	}
	empty := barWidth - filled

	fill := p.Fill
	if fill == nil {
		fill = theme.Secondary
	}

	result += lipgloss.NewStyle().
		Background(fill).
		Render(strings.Repeat(" ", filled))
	result += theme.ProgressEmpty.Render(strings.Repeat(" ", empty))

	if p.ShowPercent {
		result += lipgloss.NewStyle().
			Foreground(theme.TextDim).
			Render(fmt.Sprintf("  %d%%", int(p.Percent*100)))
	}

	return result
}

// StrengthBar renders one tag's 0-100 mastery strength as a color-banded
// bar.
func StrengthBar(label string, strength int, labelWidth, width int) string {
	return ProgressBar{
		Label:       label,
		LabelWidth:  labelWidth,
		Percent:     float64(strength) / 100,
		Fill:        theme.StrengthColor(strength),
		ShowPercent: true,
		Width:       width,
	}.View()
}
