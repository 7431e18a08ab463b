package calendar

import (
	"testing"
	"time"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return d
}

func TestStartOfWeek_SundayReference(t *testing.T) {
	ref := mustDate(t, "2025-06-15").Add(15*time.Hour + 42*time.Minute)
	got := StartOfWeek(ref)
	want := mustDate(t, "2025-06-15")
	if !got.Equal(want) {
		t.Fatalf("StartOfWeek = %s, want %s", got, want)
	}
}

func TestStartOfWeek_MidWeek(t *testing.T) {
	got := StartOfWeek(mustDate(t, "2025-06-18")) // Wednesday
	want := mustDate(t, "2025-06-15")
	if !got.Equal(want) {
		t.Fatalf("StartOfWeek = %s, want %s", got, want)
	}
	if got.Weekday() != time.Sunday {
		t.Fatalf("week start weekday = %s, want Sunday", got.Weekday())
	}
}

func TestStartOfWeek_Idempotent(t *testing.T) {
	start := mustDate(t, "2024-12-25")
	for i := 0; i < 120; i++ {
		d := start.AddDate(0, 0, i).Add(time.Duration(i) * 37 * time.Minute)
		once := StartOfWeek(d)
		twice := StartOfWeek(once)
		if !once.Equal(twice) {
			t.Fatalf("StartOfWeek not idempotent for %s: %s vs %s", d, once, twice)
		}
		if once.After(d) {
			t.Fatalf("StartOfWeek(%s) = %s is after input", d, once)
		}
		if d.Sub(once) >= 7*24*time.Hour {
			t.Fatalf("StartOfWeek(%s) = %s is more than a week back", d, once)
		}
	}
}

func TestStartOfWeek_KeepsLocation(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	d := time.Date(2025, 3, 12, 23, 30, 0, 0, loc)
	got := StartOfWeek(d)
	if got.Location() != loc {
		t.Fatalf("location = %v, want %v", got.Location(), loc)
	}
	if got.Day() != 9 || got.Hour() != 0 {
		t.Fatalf("StartOfWeek = %s, want 2025-03-09 00:00", got)
	}
}

func TestStartAndEndOfMonth(t *testing.T) {
	d := mustDate(t, "2024-02-17").Add(9 * time.Hour)

	start := StartOfMonth(d)
	if !start.Equal(mustDate(t, "2024-02-01")) {
		t.Fatalf("StartOfMonth = %s", start)
	}

	end := EndOfMonth(d)
	if end.Day() != 29 || end.Month() != time.February {
		t.Fatalf("EndOfMonth = %s, want Feb 29 (leap year)", end)
	}
	if end.Hour() != 23 || end.Minute() != 59 || end.Second() != 59 || end.Nanosecond() != 999999999 {
		t.Fatalf("EndOfMonth time = %s, want last instant of day", end)
	}
	if !end.Add(time.Nanosecond).Equal(mustDate(t, "2024-03-01")) {
		t.Fatalf("EndOfMonth + 1ns = %s, want 2024-03-01", end.Add(time.Nanosecond))
	}
}

func TestBuildWeekBuckets(t *testing.T) {
	ref := mustDate(t, "2025-06-15")
	w := BuildWeekBuckets(StartOfWeek(ref))

	if len(w) != 7 {
		t.Fatalf("len = %d, want 7", len(w))
	}
	if w[0].Key() != "2025-06-15" || w[6].Key() != "2025-06-21" {
		t.Fatalf("week = %s..%s, want 2025-06-15..2025-06-21", w[0].Key(), w[6].Key())
	}
	for i := 1; i < len(w); i++ {
		if w[i].Date.Sub(w[i-1].Date) != 24*time.Hour {
			t.Fatalf("days %d and %d not consecutive: %s, %s", i-1, i, w[i-1].Date, w[i].Date)
		}
		if !w[i].InCurrentPeriod {
			t.Fatalf("week bucket %d not marked in period", i)
		}
	}
}

func TestBuildWeekBuckets_SpansReferenceWeek(t *testing.T) {
	for _, s := range []string{"2025-01-01", "2025-03-09", "2025-11-02", "2026-02-28"} {
		d := mustDate(t, s)
		w := BuildWeekBuckets(StartOfWeek(d))
		found := false
		for _, b := range w {
			if b.Key() == s {
				found = true
			}
		}
		if !found {
			t.Fatalf("week for %s does not contain it: %s..%s", s, w[0].Key(), w[6].Key())
		}
	}
}

func TestBuildMonthBuckets_June2025(t *testing.T) {
	ref := mustDate(t, "2025-06-15")
	rows := BuildMonthBuckets(ref)

	if len(rows) == 0 || len(rows) > MaxMonthRows {
		t.Fatalf("rows = %d, want 1..%d", len(rows), MaxMonthRows)
	}
	if len(rows) != 5 {
		t.Fatalf("rows = %d, want 5 for June 2025", len(rows))
	}

	wantStart := StartOfWeek(StartOfMonth(ref))
	if !rows[0][0].Date.Equal(wantStart) {
		t.Fatalf("grid start = %s, want %s", rows[0][0].Date, wantStart)
	}

	last := rows[len(rows)-1][6].Date
	if last.Before(StartOfDay(EndOfMonth(ref))) {
		t.Fatalf("grid ends %s, before end of month", last)
	}

	if !rows[0][0].InCurrentPeriod {
		t.Fatal("2025-06-01 should be in the current period")
	}
	if rows[4][2].InCurrentPeriod {
		t.Fatalf("%s should be dimmed", rows[4][2].Key())
	}
}

func TestBuildMonthBuckets_Bounds(t *testing.T) {
	start := mustDate(t, "2020-01-01")
	for i := 0; i < 96; i++ {
		ref := start.AddDate(0, i, 10)
		rows := BuildMonthBuckets(ref)
		if len(rows) > MaxMonthRows {
			t.Fatalf("%s: %d rows", ref.Format("2006-01"), len(rows))
		}
		if !rows[0][0].Date.Equal(StartOfWeek(StartOfMonth(ref))) {
			t.Fatalf("%s: grid starts %s", ref.Format("2006-01"), rows[0][0].Key())
		}
		last := rows[len(rows)-1][6].Date
		if last.Before(StartOfDay(EndOfMonth(ref))) {
			t.Fatalf("%s: grid ends %s before month end", ref.Format("2006-01"), last.Format("2006-01-02"))
		}
		// No fully-trailing row: the last row must begin inside the month.
		if rows[len(rows)-1][0].Date.After(EndOfMonth(ref)) {
			t.Fatalf("%s: trailing row beyond month end", ref.Format("2006-01"))
		}
	}
}

func TestDayNet(t *testing.T) {
	if got := DayNet(Bucket{}); got != 0 {
		t.Fatalf("DayNet(empty) = %v, want 0", got)
	}

	b := Bucket{Transactions: txs(-50, 30)}
	if got := DayNet(b); got != -20 {
		t.Fatalf("DayNet = %v, want -20", got)
	}
}

func TestRange(t *testing.T) {
	ref := mustDate(t, "2025-06-18")

	start, end := Range(ModeWeek, ref)
	if start.Format("2006-01-02") != "2025-06-15" || end.Format("2006-01-02") != "2025-06-21" {
		t.Fatalf("week range = %s..%s", start, end)
	}

	start, end = Range(ModeMonth, ref)
	if start.Format("2006-01-02") != "2025-06-01" || end.Format("2006-01-02") != "2025-06-30" {
		t.Fatalf("month range = %s..%s", start, end)
	}
}

func TestShift(t *testing.T) {
	ref := mustDate(t, "2025-01-31")

	if got := Shift(ModeMonth, ref, 1); got.Format("2006-01-02") != "2025-02-01" {
		t.Fatalf("Shift month +1 = %s, want 2025-02-01", got)
	}
	if got := Shift(ModeMonth, ref, -1); got.Format("2006-01-02") != "2024-12-01" {
		t.Fatalf("Shift month -1 = %s, want 2024-12-01", got)
	}
	if got := Shift(ModeWeek, ref, 1); got.Format("2006-01-02") != "2025-02-02" {
		t.Fatalf("Shift week +1 = %s, want 2025-02-02", got)
	}
}

func TestParseViewMode(t *testing.T) {
	if ParseViewMode("month") != ModeMonth {
		t.Fatal("month not parsed")
	}
	if ParseViewMode("bogus") != ModeWeek {
		t.Fatal("unknown mode should default to week")
	}
	if ModeMonth.String() != "month" || ModeWeek.String() != "week" {
		t.Fatal("String() mismatch")
	}
}
