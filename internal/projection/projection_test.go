package projection

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestIntervalCount(t *testing.T) {
	tests := []struct {
		months int
		freq   Frequency
		want   int
	}{
		{6, Weekly, 24},
		{3, Monthly, 3},
		{18, Biweekly, 36},
		{0, Weekly, 0},
		{0, Monthly, 0},
		{-3, Weekly, 0},
		{12, Frequency("daily"), 0},
	}
	for _, tt := range tests {
		if got := IntervalCount(tt.months, tt.freq); got != tt.want {
			t.Errorf("IntervalCount(%d, %q) = %d, want %d", tt.months, tt.freq, got, tt.want)
		}
	}
}

func TestTimeframeLabelsOrdered(t *testing.T) {
	labels := TimeframeLabels()
	want := []string{"3 months", "6 months", "9 months", "1 year", "1.5 years"}
	if len(labels) != len(want) {
		t.Fatalf("labels = %v", labels)
	}
	for i := range want {
		if labels[i] != want[i] {
			t.Fatalf("labels[%d] = %q, want %q", i, labels[i], want[i])
		}
	}
}

func TestCompute(t *testing.T) {
	in := Input{
		Timeframe:   "6 months",
		StartDate:   time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
		SavingsGoal: 6000,
		Frequency:   Weekly,
		MonthlyExpenses: []MonthlyExpense{
			{ID: 1, Desc: "rent", Amount: 500},
			{ID: 2, Desc: "phone", Amount: 50},
		},
		IntervalExpenses: []IntervalExpense{
			{ID: 3, Desc: "car repair", IntervalIndex: 3, Amount: 200},
			{ID: 4, Desc: "too late", IntervalIndex: 25, Amount: 999},
			{ID: 5, Desc: "zero", IntervalIndex: 0, Amount: 999},
		},
	}

	r := Compute(in)
	if r.Months != 6 || r.Intervals != 24 {
		t.Fatalf("months/intervals = %d/%d, want 6/24", r.Months, r.Intervals)
	}
	if r.TotalMonthlyExpenses != 550 {
		t.Fatalf("TotalMonthlyExpenses = %v, want 550", r.TotalMonthlyExpenses)
	}
	if r.TotalExpensesOverPeriod != 550*6+200 {
		t.Fatalf("TotalExpensesOverPeriod = %v, want 3500", r.TotalExpensesOverPeriod)
	}
	if r.NetToSave != 2500 {
		t.Fatalf("NetToSave = %v, want 2500", r.NetToSave)
	}
	if math.Abs(r.PerInterval-2500.0/24) > 1e-9 {
		t.Fatalf("PerInterval = %v, want %v", r.PerInterval, 2500.0/24)
	}
	if !r.EndDate.Equal(time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("EndDate = %s", r.EndDate)
	}

	bad := InvalidIntervalExpenses(in)
	if len(bad) != 2 || bad[0].ID != 4 || bad[1].ID != 5 {
		t.Fatalf("InvalidIntervalExpenses = %+v, want ids 4 and 5", bad)
	}
}

func TestCompute_NoIntervals(t *testing.T) {
	r := Compute(Input{Timeframe: "custom", Frequency: Weekly, SavingsGoal: 100})
	if r.Intervals != 0 || r.PerInterval != 0 {
		t.Fatalf("intervals=%d perInterval=%v, want 0/0", r.Intervals, r.PerInterval)
	}
}

func TestValidate(t *testing.T) {
	ok := DefaultInput(time.Now())
	if err := ok.Validate(); err != nil {
		t.Fatalf("default input invalid: %v", err)
	}

	bad := ok
	bad.SavingsGoal = -1
	if bad.Validate() == nil {
		t.Fatal("negative goal accepted")
	}

	bad = ok
	bad.Frequency = "hourly"
	if bad.Validate() == nil {
		t.Fatal("unknown frequency accepted")
	}

	if _, err := ParseFrequency("biweekly"); err != nil {
		t.Fatalf("ParseFrequency(biweekly): %v", err)
	}
	if _, err := ParseFrequency("daily"); err == nil {
		t.Fatal("ParseFrequency(daily) succeeded")
	}
}

type mapKV struct {
	items map[string]string
	err   error
}

func (m *mapKV) GetItem(key string) (string, bool, error) {
	if m.err != nil {
		return "", false, m.err
	}
	v, ok := m.items[key]
	return v, ok, nil
}

func (m *mapKV) SetItem(key, value string) error {
	if m.err != nil {
		return m.err
	}
	m.items[key] = value
	return nil
}

func (m *mapKV) RemoveItem(key string) error {
	delete(m.items, key)
	return nil
}

func TestDraftRoundTrip(t *testing.T) {
	kv := &mapKV{items: map[string]string{}}
	fallback := DefaultInput(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))

	if got := LoadDraft(kv, fallback); got.Timeframe != "3 months" {
		t.Fatalf("empty store draft = %+v, want fallback", got)
	}

	in := fallback
	in.Timeframe = "1 year"
	in.SavingsGoal = 1200
	in.Frequency = Monthly
	in.IntervalExpenses = []IntervalExpense{{ID: 1, IntervalIndex: 2, Amount: 40}}
	if err := SaveDraft(kv, in); err != nil {
		t.Fatalf("SaveDraft: %v", err)
	}

	got := LoadDraft(kv, fallback)
	if got.Timeframe != "1 year" || got.SavingsGoal != 1200 || got.Frequency != Monthly {
		t.Fatalf("LoadDraft = %+v", got)
	}
	if len(got.IntervalExpenses) != 1 || got.IntervalExpenses[0].Amount != 40 {
		t.Fatalf("interval expenses = %+v", got.IntervalExpenses)
	}

	if err := ClearDraft(kv); err != nil {
		t.Fatalf("ClearDraft: %v", err)
	}
	if _, ok := kv.items[DraftKey]; ok {
		t.Fatal("draft still stored after ClearDraft")
	}
}

func TestLoadDraft_CorruptOrFailing(t *testing.T) {
	fallback := DefaultInput(time.Now())

	kv := &mapKV{items: map[string]string{DraftKey: "{not json"}}
	if got := LoadDraft(kv, fallback); got.Timeframe != fallback.Timeframe {
		t.Fatalf("corrupt draft not ignored: %+v", got)
	}

	kv = &mapKV{items: map[string]string{DraftKey: `{"timeframe":"forever","frequency":"hourly"}`}}
	got := LoadDraft(kv, fallback)
	if got.Timeframe != fallback.Timeframe || got.Frequency != fallback.Frequency {
		t.Fatalf("invalid fields not replaced: %+v", got)
	}

	kv = &mapKV{err: errors.New("disk full")}
	if got := LoadDraft(kv, fallback); got.Timeframe != fallback.Timeframe {
		t.Fatalf("storage error not degraded: %+v", got)
	}
	if err := SaveDraft(kv, fallback); err == nil {
		t.Fatal("SaveDraft swallowed storage error")
	}
}
