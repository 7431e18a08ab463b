// Package calendar turns a reference date and view mode into the day buckets
// the calendar views render.
//
// Weeks start on Sunday everywhere in finview. The convention is fixed and not
// configurable, so the week view and the month grid always agree.
package calendar

import (
	"time"

	"github.com/theirongolddev/finview/internal/model"
)

// WeekStart is the first day of every calendar week.
const WeekStart = time.Sunday

// MaxMonthRows bounds the month grid.
const MaxMonthRows = 6

// ViewMode selects the week or month calendar.
type ViewMode int

const (
	ModeWeek ViewMode = iota
	ModeMonth
)

func (m ViewMode) String() string {
	if m == ModeMonth {
		return "month"
	}
	return "week"
}

// ParseViewMode accepts "week" or "month". Anything else is week.
func ParseViewMode(s string) ViewMode {
	if s == "month" {
		return ModeMonth
	}
	return ModeWeek
}

// Bucket is one day cell. Transactions are attached by the caller.
type Bucket struct {
	Date            time.Time
	InCurrentPeriod bool
	Transactions    []model.Transaction
}

// Key returns the YYYY-MM-DD key used to group transactions.
func (b Bucket) Key() string {
	return b.Date.Format(model.DateLayout)
}

// Week is seven consecutive day buckets starting on WeekStart.
type Week [7]Bucket

// Days returns the week as a slice.
func (w Week) Days() []Bucket {
	return w[:]
}

// StartOfDay zeroes the time of day, keeping d's location.
func StartOfDay(d time.Time) time.Time {
	y, m, day := d.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, d.Location())
}

// StartOfWeek returns the most recent WeekStart day at or before d.
func StartOfWeek(d time.Time) time.Time {
	day := StartOfDay(d)
	diff := (int(day.Weekday()) - int(WeekStart) + 7) % 7
	return day.AddDate(0, 0, -diff)
}

// StartOfMonth returns the first day of d's month at midnight.
func StartOfMonth(d time.Time) time.Time {
	y, m, _ := d.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, d.Location())
}

// EndOfMonth returns the last representable instant of d's month.
func EndOfMonth(d time.Time) time.Time {
	return StartOfMonth(d).AddDate(0, 1, 0).Add(-time.Nanosecond)
}

// BuildWeekBuckets returns seven consecutive days from weekStart.
func BuildWeekBuckets(weekStart time.Time) Week {
	start := StartOfDay(weekStart)
	var w Week
	for i := range w {
		w[i] = Bucket{
			Date:            start.AddDate(0, 0, i),
			InCurrentPeriod: true,
		}
	}
	return w
}

// BuildMonthBuckets returns the week rows covering ref's month. Rows start at
// the week containing the 1st and stop once a row would begin after the last
// day of the month. Days outside the month have InCurrentPeriod false.
func BuildMonthBuckets(ref time.Time) []Week {
	end := EndOfMonth(ref)
	month := ref.Month()

	rows := make([]Week, 0, MaxMonthRows)
	for cur := StartOfWeek(StartOfMonth(ref)); !cur.After(end) && len(rows) < MaxMonthRows; cur = cur.AddDate(0, 0, 7) {
		w := BuildWeekBuckets(cur)
		for i := range w {
			w[i].InCurrentPeriod = w[i].Date.Month() == month
		}
		rows = append(rows, w)
	}
	return rows
}

// DayNet is the signed sum of the bucket's transaction amounts.
func DayNet(b Bucket) float64 {
	var net float64
	for _, tx := range b.Transactions {
		net += tx.Amount
	}
	return net
}

// Range returns the inclusive date range a view fetches for ref.
// Week views cover seven days from ref's week start; month views cover the
// calendar month (not the padded grid).
func Range(mode ViewMode, ref time.Time) (start, end time.Time) {
	if mode == ModeMonth {
		return StartOfMonth(ref), StartOfDay(EndOfMonth(ref))
	}
	start = StartOfWeek(ref)
	return start, start.AddDate(0, 0, 6)
}

// Shift moves ref by n weeks or n months. Month shifts land on the 1st so
// that moving from Jan 31 does not skip February.
func Shift(mode ViewMode, ref time.Time, n int) time.Time {
	if mode == ModeMonth {
		return StartOfMonth(ref).AddDate(0, n, 0)
	}
	return StartOfWeek(ref).AddDate(0, 0, 7*n)
}
