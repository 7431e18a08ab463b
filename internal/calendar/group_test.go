package calendar

import (
	"testing"

	"github.com/theirongolddev/finview/internal/model"
)

func txs(amounts ...float64) []model.Transaction {
	out := make([]model.Transaction, len(amounts))
	for i, a := range amounts {
		out[i] = model.Transaction{ID: string(rune('a' + i)), Amount: a, Date: "2025-06-16"}
	}
	return out
}

func TestGroupByDate(t *testing.T) {
	grouped := GroupByDate([]model.Transaction{
		{ID: "1", Amount: -10, Date: "2025-06-15"},
		{ID: "2", Amount: 25, Date: "2025-06-16"},
		{ID: "3", Amount: -5, Date: "2025-06-15T08:00:00"},
		{ID: "4", Amount: -1, Date: ""},
	})

	if len(grouped) != 2 {
		t.Fatalf("groups = %d, want 2", len(grouped))
	}
	day := grouped["2025-06-15"]
	if len(day) != 2 {
		t.Fatalf("2025-06-15 has %d txs, want 2", len(day))
	}
	if day[0].ID != "3" {
		t.Fatalf("first tx = %s, want newest (3)", day[0].ID)
	}
}

func TestFillWeek(t *testing.T) {
	w := BuildWeekBuckets(mustDate(t, "2025-06-15"))
	grouped := GroupByDate(txs(-50, 30))

	filled := FillWeek(w, grouped)
	if got := DayNet(filled[1]); got != -20 {
		t.Fatalf("DayNet(Mon) = %v, want -20", got)
	}
	if len(w[1].Transactions) != 0 {
		t.Fatal("FillWeek mutated its input")
	}
}

func TestApplyOptimisticInsert(t *testing.T) {
	w := FillWeek(BuildWeekBuckets(mustDate(t, "2025-06-15")), GroupByDate(txs(-50)))
	days := w.Days()

	tx := model.Transaction{ID: "new", Amount: 12.5, Date: "2025-06-16"}
	out := ApplyOptimisticInsert(days, tx)

	if len(out[1].Transactions) != 2 {
		t.Fatalf("Mon txs = %d, want 2", len(out[1].Transactions))
	}
	if out[1].Transactions[0].ID != "new" {
		t.Fatalf("inserted tx not first: %s", out[1].Transactions[0].ID)
	}
	if len(days[1].Transactions) != 1 {
		t.Fatal("input buckets were mutated")
	}
	if got := DayNet(out[1]); got != -37.5 {
		t.Fatalf("DayNet after insert = %v, want -37.5", got)
	}
}

func TestApplyOptimisticInsert_OutsideRange(t *testing.T) {
	days := BuildWeekBuckets(mustDate(t, "2025-06-15")).Days()
	out := ApplyOptimisticInsert(days, model.Transaction{ID: "x", Amount: 1, Date: "2025-07-04"})
	for i := range out {
		if len(out[i].Transactions) != 0 {
			t.Fatalf("bucket %s got a tx for a date outside the view", out[i].Key())
		}
	}
}

func TestInsertGrouped(t *testing.T) {
	grouped := GroupByDate(txs(-1))
	out := InsertGrouped(grouped, model.Transaction{ID: "n", Amount: 3, Date: "2025-06-16"})
	if len(out["2025-06-16"]) != 2 || out["2025-06-16"][0].ID != "n" {
		t.Fatalf("InsertGrouped = %+v", out["2025-06-16"])
	}
	if len(grouped["2025-06-16"]) != 1 {
		t.Fatal("InsertGrouped mutated its input")
	}
}
