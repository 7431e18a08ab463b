package components

import (
	"strings"

	"github.com/theirongolddev/finview/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// Tab represents a single tab in the tab bar.
type Tab struct {
	Name   string
	Key    rune
	KeyPos int // position of the shortcut letter in the name (-1 if not in name)
}

// Tab indexes, in display order.
const (
	TabCalendar = iota
	TabProjections
	TabStocks
	TabCategories
	TabSettings
)

// Tabs defines all available tabs.
var Tabs = []Tab{
	{Name: "Calendar", Key: 'c', KeyPos: 0},
	{Name: "Projections", Key: 'p', KeyPos: 0},
	{Name: "Stocks", Key: 's', KeyPos: 0},
	{Name: "Categories", Key: 'g', KeyPos: 4},
	{Name: "Settings", Key: 'x', KeyPos: -1}, // x is not in "Settings"
}

func renderTab(tab Tab, active bool) string {
	t := theme.Active

	if active {
		return lipgloss.NewStyle().
			Foreground(t.AccentBright).
			Background(t.SurfaceBright).
			Bold(true).
			Padding(0, 1).
			Render(tab.Name)
	}

	base := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	key := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	dim := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	pad := base.Render(" ")

	if tab.KeyPos >= 0 && tab.KeyPos < len(tab.Name) {
		return pad +
			base.Render(tab.Name[:tab.KeyPos]) +
			key.Render(string(tab.Name[tab.KeyPos])) +
			base.Render(tab.Name[tab.KeyPos+1:]) +
			pad
	}
	return pad + base.Render(tab.Name) +
		dim.Render("[") + key.Render(string(tab.Key)) + dim.Render("]") + pad
}

// TabVisualWidth is the rendered column width of a tab, used for mouse hit tests.
func TabVisualWidth(tab Tab, active bool) int {
	return lipgloss.Width(renderTab(tab, active))
}

// RenderTabBar renders the tab bar with the given active index, padded to width.
func RenderTabBar(activeIdx int, width int) string {
	t := theme.Active
	sep := lipgloss.NewStyle().Foreground(t.Border).Background(t.Surface).Render("│")

	parts := make([]string, len(Tabs))
	for i, tab := range Tabs {
		parts[i] = renderTab(tab, i == activeIdx)
	}

	return lipgloss.NewStyle().
		Background(t.Surface).
		Width(width).
		Render(strings.Join(parts, sep))
}

// TabIdxByKey returns the tab index for a given key press, or -1.
func TabIdxByKey(key rune) int {
	for i, tab := range Tabs {
		if tab.Key == key {
			return i
		}
	}
	return -1
}
