package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/theirongolddev/finview/internal/tui/theme"
)

func TestTabVisualWidth(t *testing.T) {
	for _, tab := range Tabs {
		active := TabVisualWidth(tab, true)
		if active != len(tab.Name)+2 {
			t.Fatalf("%s active width = %d, want %d", tab.Name, active, len(tab.Name)+2)
		}
		want := len(tab.Name) + 2
		if tab.KeyPos < 0 {
			want += 3
		}
		if got := TabVisualWidth(tab, false); got != want {
			t.Fatalf("%s inactive width = %d, want %d", tab.Name, got, want)
		}
	}
}

func TestTabIdxByKey(t *testing.T) {
	if got := TabIdxByKey('g'); got != TabCategories {
		t.Fatalf("TabIdxByKey(g) = %d, want %d", got, TabCategories)
	}
	if got := TabIdxByKey('x'); got != TabSettings {
		t.Fatalf("TabIdxByKey(x) = %d, want %d", got, TabSettings)
	}
	if got := TabIdxByKey('z'); got != -1 {
		t.Fatalf("TabIdxByKey(z) = %d, want -1", got)
	}
}

func TestRenderTabBarFillsWidth(t *testing.T) {
	bar := RenderTabBar(TabStocks, 120)
	if w := lipgloss.Width(bar); w != 120 {
		t.Fatalf("tab bar width = %d, want 120", w)
	}
}

func TestStatusBarFillsWidth(t *testing.T) {
	for _, info := range []StatusInfo{
		{},
		{DataAge: "2m ago", AutoRefresh: true, Authenticated: true},
		{Refreshing: true, Message: "saved", Authenticated: true},
		{Message: strings.Repeat("long message ", 20), Error: true},
	} {
		bar := RenderStatusBar(100, info)
		if w := lipgloss.Width(bar); w != 100 {
			t.Fatalf("status bar %+v width = %d, want 100", info, w)
		}
	}
}

func TestSparklineFlatAndEmpty(t *testing.T) {
	if Sparkline(nil, theme.Active.Accent) != "" {
		t.Fatal("empty sparkline should render nothing")
	}
	line := Sparkline([]float64{3, 3, 3}, theme.Active.Accent)
	if w := lipgloss.Width(line); w != 3 {
		t.Fatalf("sparkline width = %d, want 3", w)
	}
}

func TestBarChartHeight(t *testing.T) {
	values := []float64{10, 0, 25, 40, 5}
	labels := []string{"1", "2", "3", "4", "5"}
	out := BarChart(values, labels, theme.Active.Accent, 60, 6)
	// rows + axis + labels
	if got := len(strings.Split(out, "\n")); got != 8 {
		t.Fatalf("bar chart lines = %d, want 8", got)
	}
}

func TestBarChartSamplesWideSeries(t *testing.T) {
	values := make([]float64, 200)
	for i := range values {
		values[i] = float64(i)
	}
	out := BarChart(values, nil, theme.Active.Accent, 40, 4)
	for i, line := range strings.Split(out, "\n") {
		if w := lipgloss.Width(line); w > 40 {
			t.Fatalf("line %d width = %d, exceeds 40", i, w)
		}
	}
}

func TestChartTickStep(t *testing.T) {
	tests := []struct {
		max, want float64
	}{
		{0, 1},
		{10, 2},
		{100, 20},
		{1000, 200},
		{40, 5},
	}
	for _, tt := range tests {
		if got := chartTickStep(tt.max); got != tt.want {
			t.Errorf("chartTickStep(%v) = %v, want %v", tt.max, got, tt.want)
		}
	}
}

func TestShareColorBands(t *testing.T) {
	th := theme.Active
	if ShareColor(0.5) != th.Red || ShareColor(0.3) != th.Orange ||
		ShareColor(0.15) != th.Yellow || ShareColor(0.01) != th.Green {
		t.Fatal("share color bands")
	}
}

func TestShareBarTruncatesLabel(t *testing.T) {
	out := ShareBar("Restaurants and dining out", "$120.00", 0.25, 10, 20)
	if !strings.Contains(out, "Restauran…") {
		t.Fatalf("label not truncated: %q", out)
	}
}
