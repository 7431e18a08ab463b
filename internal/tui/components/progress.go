package components

import (
	"fmt"

	"github.com/theirongolddev/finview/internal/tui/theme"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// ProgressBar renders a bar with a trailing percentage. pct is clamped to [0, 1].
func ProgressBar(pct float64, width int) string {
	t := theme.Active
	pct = clamp01(pct)

	barColor := t.Cyan
	switch {
	case pct >= 0.8:
		barColor = t.AccentBright
	case pct >= 0.5:
		barColor = t.Accent
	}

	bar := progress.New(
		progress.WithSolidFill(string(barColor)),
		progress.WithWidth(width),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	pctStyle := lipgloss.NewStyle().Foreground(barColor).Background(t.Surface).Bold(true)
	space := lipgloss.NewStyle().Background(t.Surface).Render(" ")
	return bar.ViewAs(pct) + space + pctStyle.Render(fmt.Sprintf("%3.0f%%", pct*100))
}

// ShareColor ranks a category's share of spend: the bigger, the hotter.
func ShareColor(share float64) lipgloss.Color {
	t := theme.Active
	switch {
	case share >= 0.4:
		return t.Red
	case share >= 0.25:
		return t.Orange
	case share >= 0.1:
		return t.Yellow
	default:
		return t.Green
	}
}

// ShareBar renders a labeled bar for one category's share of total spend.
// share is a fraction in [0, 1]; value is the preformatted amount.
func ShareBar(label, value string, share float64, labelW, barWidth int) string {
	t := theme.Active
	share = clamp01(share)
	color := ShareColor(share)

	bar := progress.New(
		progress.WithSolidFill(string(color)),
		progress.WithWidth(barWidth),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	pctStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface).Bold(true)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	space := lipgloss.NewStyle().Background(t.Surface)

	if r := []rune(label); len(r) > labelW && labelW > 1 {
		label = string(r[:labelW-1]) + "…"
	}

	return labelStyle.Render(fmt.Sprintf("%-*s", labelW, label)) +
		space.Render(" ") +
		bar.ViewAs(share) +
		space.Render(" ") +
		pctStyle.Render(fmt.Sprintf("%5.1f%%", share*100)) +
		space.Render("  ") +
		valueStyle.Render(value)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
