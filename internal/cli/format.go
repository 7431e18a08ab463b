// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// FormatMoney formats a dollar amount with separators and cents.
// e.g., 1234.5 -> "$1,234.50", -12 -> "-$12.00"
func FormatMoney(v float64) string {
	cents := int64(math.Round(math.Abs(v) * 100))
	s := "$" + FormatNumber(cents/100) + fmt.Sprintf(".%02d", cents%100)
	if v < 0 && cents != 0 {
		return "-" + s
	}
	return s
}

// FormatSigned is FormatMoney with an explicit "+" on positive values.
func FormatSigned(v float64) string {
	if math.Round(v*100) > 0 {
		return "+" + FormatMoney(v)
	}
	return FormatMoney(v)
}

// FormatCompactMoney squeezes an amount into a calendar cell.
// e.g., 1234 -> "$1.2K", -56.7 -> "-$57", 0.5 -> "$0.50"
func FormatCompactMoney(v float64) string {
	abs := math.Abs(v)
	sign := ""
	if v < 0 {
		sign = "-"
	}
	switch {
	case abs >= 1_000_000:
		return fmt.Sprintf("%s$%.1fM", sign, abs/1_000_000)
	case abs >= 1_000:
		return fmt.Sprintf("%s$%.1fK", sign, abs/1_000)
	case abs >= 10:
		return fmt.Sprintf("%s$%.0f", sign, abs)
	case abs == 0:
		return "$0"
	default:
		return fmt.Sprintf("%s$%.2f", sign, abs)
	}
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatShare formats a 0-100 percentage.
func FormatShare(pct float64) string {
	return fmt.Sprintf("%.1f%%", pct)
}

// FormatChange formats a price change percentage with its sign.
func FormatChange(pct float64) string {
	if pct >= 0 {
		return fmt.Sprintf("+%.2f%%", pct)
	}
	return fmt.Sprintf("%.2f%%", pct)
}

// FormatPrice formats a share price.
func FormatPrice(p float64) string {
	return fmt.Sprintf("$%.2f", p)
}

// FormatAge describes how long ago t was, for "updated 3m ago" labels.
func FormatAge(t, now time.Time) string {
	if t.IsZero() {
		return "never"
	}
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

// FormatDayOfWeek returns a 3-letter day abbreviation from a weekday number.
func FormatDayOfWeek(weekday int) string {
	days := []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
	if weekday >= 0 && weekday < 7 {
		return days[weekday]
	}
	return "???"
}

// FormatDay renders a date as "Mon Jun 16".
func FormatDay(d time.Time) string {
	return FormatDayOfWeek(int(d.Weekday())) + " " + d.Format("Jan 2")
}
