package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/theirongolddev/finview/internal/calendar"
	"github.com/theirongolddev/finview/internal/model"
)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "$0.00"},
		{12, "$12.00"},
		{1234.5, "$1,234.50"},
		{-50, "-$50.00"},
		{-0.001, "$0.00"},
		{1999999.999, "$2,000,000.00"},
	}
	for _, tt := range tests {
		if got := FormatMoney(tt.in); got != tt.want {
			t.Fatalf("FormatMoney(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatSigned(t *testing.T) {
	if got := FormatSigned(30); got != "+$30.00" {
		t.Fatalf("FormatSigned(30) = %q", got)
	}
	if got := FormatSigned(-20); got != "-$20.00" {
		t.Fatalf("FormatSigned(-20) = %q", got)
	}
	if got := FormatSigned(0); got != "$0.00" {
		t.Fatalf("FormatSigned(0) = %q", got)
	}
}

func TestFormatCompactMoney(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "$0"},
		{0.5, "$0.50"},
		{-56.7, "-$57"},
		{1234, "$1.2K"},
		{-2500000, "-$2.5M"},
	}
	for _, tt := range tests {
		if got := FormatCompactMoney(tt.in); got != tt.want {
			t.Fatalf("FormatCompactMoney(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-4500, "-4,500"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.in); got != tt.want {
			t.Fatalf("FormatNumber(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatChange(t *testing.T) {
	if got := FormatChange(1.5); got != "+1.50%" {
		t.Fatalf("FormatChange(1.5) = %q", got)
	}
	if got := FormatChange(-0.25); got != "-0.25%" {
		t.Fatalf("FormatChange(-0.25) = %q", got)
	}
}

func TestFormatAge(t *testing.T) {
	now := time.Date(2025, 6, 18, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		ago  time.Duration
		want string
	}{
		{10 * time.Second, "just now"},
		{3 * time.Minute, "3m ago"},
		{5 * time.Hour, "5h ago"},
		{50 * time.Hour, "2d ago"},
	}
	for _, tt := range tests {
		if got := FormatAge(now.Add(-tt.ago), now); got != tt.want {
			t.Fatalf("FormatAge(-%v) = %q, want %q", tt.ago, got, tt.want)
		}
	}
	if got := FormatAge(time.Time{}, now); got != "never" {
		t.Fatalf("FormatAge(zero) = %q", got)
	}
}

func TestFormatDay(t *testing.T) {
	d := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	if got := FormatDay(d); got != "Sun Jun 15" {
		t.Fatalf("FormatDay = %q", got)
	}
	if got := FormatDayOfWeek(9); got != "???" {
		t.Fatalf("FormatDayOfWeek(9) = %q", got)
	}
}

func TestRenderTableAlignsStyledCells(t *testing.T) {
	out := RenderTable(Table{
		Headers: []string{"Name", "Amount"},
		Rows: [][]string{
			{"Coffee", ColorAmount(-4.5, FormatMoney(-4.5))},
			{"---"},
			{"Salary", FormatMoney(2000)},
		},
	})
	if !strings.Contains(out, "Coffee") || !strings.Contains(out, "$2,000.00") {
		t.Fatalf("table missing cells:\n%s", out)
	}
	if RenderTable(Table{}) != "" {
		t.Fatal("empty table rendered output")
	}
}

func TestRenderMonthGridRows(t *testing.T) {
	ref := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	rows := calendar.BuildMonthBuckets(ref)
	out := RenderMonthGrid(rows, ref)
	// header line plus two lines per week row
	if got := strings.Count(out, "\n"); got != 1+2*len(rows) {
		t.Fatalf("line count = %d, want %d", got, 1+2*len(rows))
	}
}

func TestRenderCategoryBars(t *testing.T) {
	out := RenderCategoryBars([]model.CategoryShare{
		{Category: "Rent", Total: 900, SharePercent: 90},
		{Category: "Food", Total: 100, SharePercent: 10},
	}, 20)
	if !strings.Contains(out, "Rent") || !strings.Contains(out, "90.0%") {
		t.Fatalf("bars missing content:\n%s", out)
	}
	if !strings.Contains(RenderCategoryBars(nil, 20), "No data") {
		t.Fatal("empty shares did not render no-data message")
	}
}

func TestRenderSparklineHandlesNegatives(t *testing.T) {
	got := []rune(RenderSparkline([]float64{-10, 0, 10}))
	if len(got) != 3 || got[0] != '▁' || got[2] != '█' {
		t.Fatalf("RenderSparkline = %q", string(got))
	}
	if RenderSparkline(nil) != "" {
		t.Fatal("RenderSparkline(nil) not empty")
	}
}
