package components

import (
	"fmt"
	"math"
	"strings"

	"github.com/theirongolddev/finview/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

var sparkBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline renders values scaled between their min and max.
func Sparkline(values []float64, color lipgloss.Color) string {
	if len(values) == 0 {
		return ""
	}
	t := theme.Active

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	span := hi - lo

	var buf strings.Builder
	buf.Grow(len(values) * 3)
	for _, v := range values {
		idx := 0
		if span > 0 {
			idx = int((v - lo) / span * float64(len(sparkBlocks)-1))
		}
		idx = max(0, min(idx, len(sparkBlocks)-1))
		buf.WriteRune(sparkBlocks[idx])
	}

	return lipgloss.NewStyle().Foreground(color).Background(t.Surface).Render(buf.String())
}

// BarChart renders non-negative values as vertical bars with a y axis.
// Negative values are drawn as zero. Falls back to a sparkline when the
// area is too small.
func BarChart(values []float64, labels []string, color lipgloss.Color, width, height int) string {
	if len(values) == 0 {
		return ""
	}
	if width < 15 || height < 3 {
		return Sparkline(values, color)
	}
	t := theme.Active

	peak := 0.0
	for _, v := range values {
		peak = math.Max(peak, v)
	}
	if peak == 0 {
		peak = 1
	}
	step := chartTickStep(peak)
	ceiling := math.Ceil(peak/step) * step

	yLabelW := max(4, len(formatChartLabel(ceiling))+1)
	chartW := max(5, width-yLabelW-1)

	n := len(values)
	barW := 1
	gap := 0
	if n*2-1 <= chartW {
		gap = 1
		barW = max(1, min(6, (chartW-(n-1))/n))
	} else if n > chartW {
		values, labels = sample(values, labels, chartW)
		n = len(values)
	}
	axisLen := n*barW + (n-1)*gap

	axis := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	bar := lipgloss.NewStyle().Foreground(color).Background(t.Surface)
	blank := lipgloss.NewStyle().Background(t.Surface)

	var b strings.Builder
	for row := height; row >= 1; row-- {
		top := ceiling * float64(row) / float64(height)
		bottom := ceiling * float64(row-1) / float64(height)

		label := ""
		if row == height {
			label = formatChartLabel(ceiling)
		} else if row == (height+1)/2 {
			label = formatChartLabel(ceiling / 2)
		}
		b.WriteString(axis.Render(fmt.Sprintf("%*s│", yLabelW, label)))

		for i, v := range values {
			if i > 0 && gap > 0 {
				b.WriteString(blank.Render(" "))
			}
			switch {
			case v >= top:
				b.WriteString(bar.Render(strings.Repeat("█", barW)))
			case v > bottom:
				idx := int((v - bottom) / (top - bottom) * float64(len(sparkBlocks)-1))
				b.WriteString(bar.Render(strings.Repeat(string(sparkBlocks[idx]), barW)))
			default:
				b.WriteString(blank.Render(strings.Repeat(" ", barW)))
			}
		}
		b.WriteString("\n")
	}
	b.WriteString(axis.Render(fmt.Sprintf("%*s└%s", yLabelW, "0", strings.Repeat("─", axisLen))))

	if len(labels) == n && n > 0 {
		first, last := labels[0], labels[n-1]
		gapW := axisLen - len(first) - len(last)
		if gapW > 0 {
			b.WriteString("\n")
			b.WriteString(axis.Render(strings.Repeat(" ", yLabelW+1) + first + strings.Repeat(" ", gapW) + last))
		}
	}
	return b.String()
}

// sample keeps at most n evenly spaced points, always including the ends.
func sample(values []float64, labels []string, n int) ([]float64, []string) {
	if n < 2 || len(values) <= n {
		return values, labels
	}
	out := make([]float64, n)
	var outLabels []string
	if len(labels) == len(values) {
		outLabels = make([]string, n)
	}
	for i := range out {
		src := i * (len(values) - 1) / (n - 1)
		out[i] = values[src]
		if outLabels != nil {
			outLabels[i] = labels[src]
		}
	}
	return out, outLabels
}

// chartTickStep picks a round tick interval targeting about five ticks.
func chartTickStep(maxVal float64) float64 {
	if maxVal <= 0 {
		return 1
	}
	rough := maxVal / 5
	base := math.Pow(10, math.Floor(math.Log10(rough)))
	switch frac := rough / base; {
	case frac < 1.5:
		return base
	case frac < 3.5:
		return 2 * base
	default:
		return 5 * base
	}
}

func formatChartLabel(v float64) string {
	switch {
	case v >= 1e6:
		return trimZero(fmt.Sprintf("%.1f", v/1e6)) + "M"
	case v >= 1e3:
		return trimZero(fmt.Sprintf("%.1f", v/1e3)) + "k"
	case v >= 1:
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}

func trimZero(s string) string {
	return strings.TrimSuffix(s, ".0")
}
