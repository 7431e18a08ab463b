package pipeline

import (
	"math"
	"testing"
	"time"

	"github.com/theirongolddev/finview/internal/model"
)

func tx(id, date string, amount float64) model.Transaction {
	return model.Transaction{ID: id, Date: date, Amount: amount, Category: "Food"}
}

func TestUpcoming(t *testing.T) {
	today := time.Date(2025, 6, 18, 15, 0, 0, 0, time.UTC)
	txs := []model.Transaction{
		tx("past", "2025-06-17", -1),
		tx("c", "2025-07-01", -1),
		tx("a", "2025-06-18", -1),
		tx("b", "2025-06-20", -1),
		tx("bad", "", -1),
	}
	got := Upcoming(txs, today, 10)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i, want := range []string{"a", "b", "c"} {
		if got[i].ID != want {
			t.Fatalf("got[%d] = %s, want %s", i, got[i].ID, want)
		}
	}

	var many []model.Transaction
	for i := 0; i < 15; i++ {
		many = append(many, tx("x", "2025-06-19", -1))
	}
	if n := len(Upcoming(many, today, UpcomingLimit)); n != UpcomingLimit {
		t.Fatalf("limited len = %d, want %d", n, UpcomingLimit)
	}
}

func TestRecentNewestFirst(t *testing.T) {
	today := time.Date(2025, 6, 18, 0, 0, 0, 0, time.UTC)
	txs := []model.Transaction{
		tx("old", "2025-04-01", -1),
		tx("a", "2025-06-01", -1),
		tx("b", "2025-06-18", -1),
		tx("future", "2025-06-25", -1),
	}
	got := Recent(txs, today, 30)
	if len(got) != 2 || got[0].ID != "b" || got[1].ID != "a" {
		t.Fatalf("Recent = %+v", got)
	}
}

func TestSummarize(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	txs := []model.Transaction{
		tx("a", "2025-06-01", 2000),
		tx("b", "2025-06-01", -50),
		tx("c", "2025-06-15", -150),
		tx("out", "2025-07-01", -999),
	}
	s := Summarize(txs, start, end)
	if s.Transactions != 3 {
		t.Fatalf("Transactions = %d, want 3", s.Transactions)
	}
	if s.Income != 2000 || s.Spend != 200 || s.Net != 1800 {
		t.Fatalf("Income/Spend/Net = %v/%v/%v", s.Income, s.Spend, s.Net)
	}
	if s.ActiveDays != 2 {
		t.Fatalf("ActiveDays = %d, want 2", s.ActiveDays)
	}
}

func TestAggregateDaysFillsGaps(t *testing.T) {
	since := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	until := time.Date(2025, 6, 21, 0, 0, 0, 0, time.UTC)
	days := AggregateDays([]model.Transaction{
		tx("a", "2025-06-16", -50),
		tx("b", "2025-06-16", 30),
	}, since, until)

	if len(days) != 7 {
		t.Fatalf("len = %d, want 7", len(days))
	}
	if !days[0].Date.Equal(until) {
		t.Fatalf("first day = %v, want %v", days[0].Date, until)
	}
	for _, d := range days {
		if d.Date.Day() == 16 {
			if d.Net != -20 || d.Count != 2 {
				t.Fatalf("June 16 = %+v", d)
			}
		} else if d.Net != 0 {
			t.Fatalf("%v net = %v, want 0", d.Date, d.Net)
		}
	}
}

func TestCategoryShares(t *testing.T) {
	shares := CategoryShares(map[string]float64{
		"Rent":  -750,
		"Food":  250,
		"Empty": 0,
	})
	if len(shares) != 2 {
		t.Fatalf("len = %d, want 2", len(shares))
	}
	if shares[0].Category != "Rent" || shares[0].Total != 750 {
		t.Fatalf("shares[0] = %+v", shares[0])
	}
	if math.Abs(shares[0].SharePercent-75) > 1e-9 || math.Abs(shares[1].SharePercent-25) > 1e-9 {
		t.Fatalf("percents = %v, %v", shares[0].SharePercent, shares[1].SharePercent)
	}
	if got := CategoryShares(nil); len(got) != 0 {
		t.Fatalf("CategoryShares(nil) = %v", got)
	}
}

func TestSpendByCategory(t *testing.T) {
	got := SpendByCategory([]model.Transaction{
		{Amount: -10, Category: "Food"},
		{Amount: -5, Category: "Food"},
		{Amount: 100, Category: "Salary"},
		{Amount: -3},
	})
	if got["Food"] != 15 || got["Uncategorized"] != 3 {
		t.Fatalf("SpendByCategory = %v", got)
	}
	if _, ok := got["Salary"]; ok {
		t.Fatal("income counted as spend")
	}
}
