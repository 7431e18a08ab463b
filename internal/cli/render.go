package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/finview/internal/calendar"
	"github.com/theirongolddev/finview/internal/model"
)

// Theme colors (Flexoki Dark)
var (
	ColorBorder    = lipgloss.Color("#282726")
	ColorTextDim   = lipgloss.Color("#575653")
	ColorTextMuted = lipgloss.Color("#6F6E69")
	ColorText      = lipgloss.Color("#FFFCF0")
	ColorAccent    = lipgloss.Color("#3AA99F")
	ColorGreen     = lipgloss.Color("#879A39")
	ColorOrange    = lipgloss.Color("#DA702C")
	ColorRed       = lipgloss.Color("#D14D41")
	ColorBlue      = lipgloss.Color("#4385BE")
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorText).
			Align(lipgloss.Center)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent)

	valueStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	mutedStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	gainStyle = lipgloss.NewStyle().
			Foreground(ColorGreen)

	lossStyle = lipgloss.NewStyle().
			Foreground(ColorRed)

	warnStyle = lipgloss.NewStyle().
			Foreground(ColorOrange)

	barStyle = lipgloss.NewStyle().
			Foreground(ColorBlue)

	dimStyle = lipgloss.NewStyle().
			Foreground(ColorTextDim)

	todayStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent)
)

// Table represents a bordered text table for CLI output.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
	Widths  []int // optional column widths, auto-calculated if nil
}

// RenderTitle renders a centered title bar in a bordered box.
func RenderTitle(title string) string {
	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Width(55).
		Align(lipgloss.Center).
		Padding(0, 1)

	return border.Render(titleStyle.Render(title))
}

// RenderTable renders a bordered table. The first column is left-aligned,
// the rest right-aligned. A row of just "---" draws a separator. Cells may
// carry ANSI styling; widths are measured on visible characters.
func RenderTable(t Table) string {
	if len(t.Rows) == 0 && len(t.Headers) == 0 {
		return ""
	}

	numCols := len(t.Headers)
	if numCols == 0 && len(t.Rows) > 0 {
		numCols = len(t.Rows[0])
	}

	widths := make([]int, numCols)
	if t.Widths != nil {
		copy(widths, t.Widths)
	} else {
		for i, h := range t.Headers {
			widths[i] = max(widths[i], lipgloss.Width(h))
		}
		for _, row := range t.Rows {
			for i, cell := range row {
				if i < numCols {
					widths[i] = max(widths[i], lipgloss.Width(cell))
				}
			}
		}
	}

	var b strings.Builder
	rule := func(left, mid, right string) {
		b.WriteString(dimStyle.Render(left))
		for i, w := range widths {
			b.WriteString(dimStyle.Render(strings.Repeat("─", w+2)))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render(mid))
			}
		}
		b.WriteString(dimStyle.Render(right))
		b.WriteString("\n")
	}

	if t.Title != "" {
		b.WriteString("  ")
		b.WriteString(headerStyle.Render(t.Title))
		b.WriteString("\n")
	}

	rule("╭", "┬", "╮")

	if len(t.Headers) > 0 {
		b.WriteString(dimStyle.Render("│"))
		for i, h := range t.Headers {
			b.WriteString(headerStyle.Render(" " + pad(h, widths[i], i == 0) + " "))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render("│"))
			}
		}
		b.WriteString(dimStyle.Render("│"))
		b.WriteString("\n")
		rule("├", "┼", "┤")
	}

	for _, row := range t.Rows {
		if len(row) == 1 && row[0] == "---" {
			rule("├", "┼", "┤")
			continue
		}

		b.WriteString(dimStyle.Render("│"))
		for i := 0; i < numCols; i++ {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			b.WriteString(valueStyle.Render(" " + pad(cell, widths[i], i == 0) + " "))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render("│"))
			}
		}
		b.WriteString(dimStyle.Render("│"))
		b.WriteString("\n")
	}

	rule("╰", "┴", "╯")
	return b.String()
}

// pad fills s to width visible columns.
func pad(s string, width int, left bool) string {
	gap := width - lipgloss.Width(s)
	if gap <= 0 {
		return s
	}
	if left {
		return s + strings.Repeat(" ", gap)
	}
	return strings.Repeat(" ", gap) + s
}

// ColorAmount styles an amount green when positive, red when negative.
func ColorAmount(v float64, text string) string {
	switch {
	case v > 0:
		return gainStyle.Render(text)
	case v < 0:
		return lossStyle.Render(text)
	default:
		return mutedStyle.Render(text)
	}
}

// Muted renders text in the muted color.
func Muted(text string) string { return mutedStyle.Render(text) }

// Warn renders text in the warning color.
func Warn(text string) string { return warnStyle.Render(text) }

const cellWidth = 10

// RenderWeek renders one row per day with the day's transactions beneath.
func RenderWeek(w calendar.Week, today time.Time) string {
	var b strings.Builder
	todayKey := today.Format(model.DateLayout)

	for _, bucket := range w {
		label := FormatDay(bucket.Date)
		if bucket.Key() == todayKey {
			label = todayStyle.Render(label + " (today)")
		} else {
			label = headerStyle.Render(label)
		}
		net := calendar.DayNet(bucket)
		fmt.Fprintf(&b, "  %s  %s\n", label, ColorAmount(net, FormatSigned(net)))

		if len(bucket.Transactions) == 0 {
			b.WriteString(dimStyle.Render("      no transactions"))
			b.WriteString("\n")
			continue
		}
		for _, tx := range bucket.Transactions {
			fmt.Fprintf(&b, "      %-28s %12s  %s\n",
				truncate(tx.Label(), 28),
				ColorAmount(tx.Amount, FormatMoney(tx.Amount)),
				mutedStyle.Render(tx.Category),
			)
		}
	}
	return b.String()
}

// RenderMonthGrid renders a Sunday-first month grid, each cell showing the
// day number and its net. Days outside the month are dimmed.
func RenderMonthGrid(rows []calendar.Week, today time.Time) string {
	var b strings.Builder
	todayKey := today.Format(model.DateLayout)

	b.WriteString("  ")
	for i := 0; i < 7; i++ {
		b.WriteString(headerStyle.Render(pad(FormatDayOfWeek(i), cellWidth, true)))
	}
	b.WriteString("\n")

	for _, row := range rows {
		var days, nets strings.Builder
		for _, bucket := range row {
			dayText := pad(fmt.Sprintf("%d", bucket.Date.Day()), cellWidth, true)
			netText := ""
			if len(bucket.Transactions) > 0 {
				netText = FormatCompactMoney(calendar.DayNet(bucket))
			}
			netText = pad(netText, cellWidth, true)

			switch {
			case !bucket.InCurrentPeriod:
				days.WriteString(dimStyle.Render(dayText))
				nets.WriteString(dimStyle.Render(netText))
			case bucket.Key() == todayKey:
				days.WriteString(todayStyle.Render(dayText))
				nets.WriteString(ColorAmount(calendar.DayNet(bucket), netText))
			default:
				days.WriteString(valueStyle.Render(dayText))
				nets.WriteString(ColorAmount(calendar.DayNet(bucket), netText))
			}
		}
		b.WriteString("  " + days.String() + "\n")
		b.WriteString("  " + nets.String() + "\n")
	}
	return b.String()
}

// RenderCategoryBars renders one horizontal bar per category, scaled to the
// largest, with total and share.
func RenderCategoryBars(shares []model.CategoryShare, width int) string {
	if len(shares) == 0 {
		return mutedStyle.Render("  No data available to display.") + "\n"
	}
	labelW := 0
	for _, s := range shares {
		labelW = max(labelW, lipgloss.Width(s.Category))
	}
	labelW = min(labelW, 20)

	var b strings.Builder
	top := shares[0].Total
	for _, s := range shares {
		fmt.Fprintf(&b, "  %s %s %s %s\n",
			pad(truncate(s.Category, labelW), labelW, true),
			pad(RenderHorizontalBar(s.Total, top, width), width, true),
			pad(FormatMoney(s.Total), 12, false),
			mutedStyle.Render(pad(FormatShare(s.SharePercent), 6, false)),
		)
	}
	return b.String()
}

// RenderHorizontalBar renders a bar of up to maxWidth cells.
func RenderHorizontalBar(value, maxValue float64, maxWidth int) string {
	if maxValue <= 0 || value <= 0 {
		return ""
	}
	n := int(value / maxValue * float64(maxWidth))
	n = max(1, min(n, maxWidth))
	return barStyle.Render(strings.Repeat("█", n))
}

// RenderSparkline generates a unicode block sparkline. Values are scaled
// between the series minimum and maximum so negative days still show.
func RenderSparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}

	blocks := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}

	var b strings.Builder
	for _, v := range values {
		idx := int((v - lo) / span * float64(len(blocks)-1))
		idx = max(0, min(idx, len(blocks)-1))
		b.WriteRune(blocks[idx])
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
