// Package pipeline loads transactions and market data through the response
// cache and derives the summaries the views show.
package pipeline

import (
	"sort"
	"time"

	"github.com/theirongolddev/finview/internal/calendar"
	"github.com/theirongolddev/finview/internal/model"
)

// UpcomingDays is how far ahead the upcoming list looks.
const UpcomingDays = 30

// UpcomingLimit caps the upcoming list.
const UpcomingLimit = 10

// RecentDays is how far back the recent list looks.
const RecentDays = 30

// FilterByDate returns transactions dated within [since, until], compared by
// calendar day in loc. Undated transactions are dropped.
func FilterByDate(txs []model.Transaction, since, until time.Time, loc *time.Location) []model.Transaction {
	from := calendar.StartOfDay(since.In(loc))
	to := calendar.StartOfDay(until.In(loc))
	var out []model.Transaction
	for _, tx := range txs {
		d := tx.Day(loc)
		if d.IsZero() || d.Before(from) || d.After(to) {
			continue
		}
		out = append(out, tx)
	}
	return out
}

// Upcoming returns up to limit transactions dated today or later, soonest first.
func Upcoming(txs []model.Transaction, today time.Time, limit int) []model.Transaction {
	loc := today.Location()
	start := calendar.StartOfDay(today)
	var out []model.Transaction
	for _, tx := range txs {
		d := tx.Day(loc)
		if d.IsZero() || d.Before(start) {
			continue
		}
		out = append(out, tx)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DateKey() < out[j].DateKey()
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Recent returns transactions from the last days days up to today, newest first.
func Recent(txs []model.Transaction, today time.Time, days int) []model.Transaction {
	since := calendar.StartOfDay(today).AddDate(0, 0, -days)
	out := FilterByDate(txs, since, today, today.Location())
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DateKey() > out[j].DateKey()
	})
	return out
}

// Summarize computes income, spend and net over [start, end].
func Summarize(txs []model.Transaction, start, end time.Time) model.PeriodSummary {
	filtered := FilterByDate(txs, start, end, start.Location())
	s := model.PeriodSummary{Start: start, End: end}
	active := make(map[string]struct{})

	for _, tx := range filtered {
		s.Transactions++
		if tx.IsExpense() {
			s.Spend -= tx.Amount
		} else {
			s.Income += tx.Amount
		}
		active[tx.DateKey()] = struct{}{}
	}
	s.Net = s.Income - s.Spend
	s.ActiveDays = len(active)
	return s
}

// DayNet is one day's signed total.
type DayNet struct {
	Date  time.Time
	Net   float64
	Count int
}

// AggregateDays returns a per-day net for every day in [since, until],
// most recent first. Days without transactions appear with zero.
func AggregateDays(txs []model.Transaction, since, until time.Time) []DayNet {
	loc := since.Location()
	byDay := make(map[string]*DayNet)
	for _, tx := range FilterByDate(txs, since, until, loc) {
		key := tx.DateKey()
		dn, ok := byDay[key]
		if !ok {
			dn = &DayNet{Date: tx.Day(loc)}
			byDay[key] = dn
		}
		dn.Net += tx.Amount
		dn.Count++
	}

	day := calendar.StartOfDay(since)
	end := calendar.StartOfDay(until.In(loc))
	for !day.After(end) {
		key := day.Format(model.DateLayout)
		if _, ok := byDay[key]; !ok {
			byDay[key] = &DayNet{Date: day}
		}
		day = day.AddDate(0, 0, 1)
	}

	out := make([]DayNet, 0, len(byDay))
	for _, dn := range byDay {
		out = append(out, *dn)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out
}

// CategoryShares turns category totals into slices sorted by size, largest
// first. Totals are taken by magnitude so expense-signed backends work too.
func CategoryShares(totals map[string]float64) []model.CategoryShare {
	var sum float64
	shares := make([]model.CategoryShare, 0, len(totals))
	for cat, v := range totals {
		if v < 0 {
			v = -v
		}
		if v == 0 {
			continue
		}
		if cat == "" {
			cat = "Uncategorized"
		}
		sum += v
		shares = append(shares, model.CategoryShare{Category: cat, Total: v})
	}
	for i := range shares {
		shares[i].SharePercent = shares[i].Total / sum * 100
	}
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].Total != shares[j].Total {
			return shares[i].Total > shares[j].Total
		}
		return shares[i].Category < shares[j].Category
	})
	return shares
}

// SpendByCategory totals expenses per category from raw transactions.
func SpendByCategory(txs []model.Transaction) map[string]float64 {
	out := make(map[string]float64)
	for _, tx := range txs {
		if !tx.IsExpense() {
			continue
		}
		cat := tx.Category
		if cat == "" {
			cat = "Uncategorized"
		}
		out[cat] += -tx.Amount
	}
	return out
}
