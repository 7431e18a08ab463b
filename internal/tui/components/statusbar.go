package components

import (
	"strings"

	"github.com/theirongolddev/finview/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// StatusInfo is what the bottom bar reports.
type StatusInfo struct {
	DataAge       string // "2m ago", "cached", ...
	Refreshing    bool
	AutoRefresh   bool
	Authenticated bool
	Message       string // transient notice, shown in the middle
	Error         bool   // render Message as a warning
}

// RenderStatusBar renders the bottom status bar.
func RenderStatusBar(width int, info StatusInfo) string {
	t := theme.Active

	bg := lipgloss.NewStyle().Background(t.Surface)
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	accent := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)
	warn := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)

	left := muted.Render(" [?]help  [q]uit")

	var right []string
	if !info.Authenticated {
		right = append(right, warn.Render("signed out"))
	}
	switch {
	case info.Refreshing:
		right = append(right, accent.Render("refreshing…"))
	case info.DataAge != "":
		right = append(right, muted.Render("data "+info.DataAge))
	}
	if info.AutoRefresh {
		right = append(right, accent.Render("auto"))
	}
	rightStr := strings.Join(right, muted.Render(" · ")) + bg.Render(" ")

	mid := ""
	if info.Message != "" {
		style := muted
		if info.Error {
			style = warn
		}
		room := width - lipgloss.Width(left) - lipgloss.Width(rightStr) - 4
		msg := info.Message
		if room < 1 {
			msg = ""
		} else if lipgloss.Width(msg) > room {
			r := []rune(msg)
			if room < len(r) {
				msg = string(r[:room])
			}
		}
		if msg != "" {
			mid = bg.Render("  ") + style.Render(msg)
		}
	}

	padding := width - lipgloss.Width(left) - lipgloss.Width(mid) - lipgloss.Width(rightStr)
	if padding < 0 {
		padding = 0
	}

	return left + mid + bg.Render(strings.Repeat(" ", padding)) + rightStr
}
