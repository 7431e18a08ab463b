// Package projection computes savings projections over a fixed timeframe.
package projection

import (
	"fmt"
	"sort"
	"time"
)

// Frequency is how often the user sets money aside.
type Frequency string

const (
	Weekly   Frequency = "weekly"
	Biweekly Frequency = "biweekly"
	Monthly  Frequency = "monthly"
)

// Frequencies lists the supported frequencies in display order.
var Frequencies = []Frequency{Weekly, Biweekly, Monthly}

// IntervalsPerMonth returns the fixed interval count per month, or 0 for an
// unknown frequency.
func (f Frequency) IntervalsPerMonth() int {
	switch f {
	case Weekly:
		return 4
	case Biweekly:
		return 2
	case Monthly:
		return 1
	}
	return 0
}

// ParseFrequency validates a frequency name.
func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(s)
	if f.IntervalsPerMonth() == 0 {
		return "", fmt.Errorf("unknown frequency %q (want weekly, biweekly or monthly)", s)
	}
	return f, nil
}

// Timeframes maps the selectable timeframe labels to months.
var Timeframes = map[string]int{
	"3 months":  3,
	"6 months":  6,
	"9 months":  9,
	"1 year":    12,
	"1.5 years": 18,
}

// TimeframeLabels returns the timeframe labels ordered by length.
func TimeframeLabels() []string {
	labels := make([]string, 0, len(Timeframes))
	for l := range Timeframes {
		labels = append(labels, l)
	}
	sort.Slice(labels, func(i, j int) bool {
		return Timeframes[labels[i]] < Timeframes[labels[j]]
	})
	return labels
}

// TimeframeMonths returns the months for a label; unknown labels are 0.
func TimeframeMonths(label string) int {
	return Timeframes[label]
}

// IntervalCount is timeframeMonths x intervals per month, never negative.
func IntervalCount(timeframeMonths int, f Frequency) int {
	n := timeframeMonths * f.IntervalsPerMonth()
	if n < 0 {
		return 0
	}
	return n
}

// MonthlyExpense recurs every month of the timeframe.
type MonthlyExpense struct {
	ID     int64   `json:"id"`
	Desc   string  `json:"desc"`
	Amount float64 `json:"amount"`
}

// IntervalExpense applies once, to the 1-based interval IntervalIndex.
type IntervalExpense struct {
	ID            int64   `json:"id"`
	Desc          string  `json:"desc"`
	IntervalIndex int     `json:"intervalIndex"`
	Amount        float64 `json:"amount"`
}

// Input is the projection form state.
type Input struct {
	Timeframe        string            `json:"timeframe"`
	StartDate        time.Time         `json:"startDate"`
	SavingsGoal      float64           `json:"savingsGoal"`
	Frequency        Frequency         `json:"frequency"`
	MonthlyExpenses  []MonthlyExpense  `json:"monthlyExpenses"`
	IntervalExpenses []IntervalExpense `json:"perIntervalExpenses"`
}

// DefaultInput is the blank form: 3 months, weekly, no goal.
func DefaultInput(now time.Time) Input {
	return Input{
		Timeframe: "3 months",
		StartDate: now,
		Frequency: Weekly,
	}
}

// Months returns the timeframe length in months.
func (in Input) Months() int {
	return TimeframeMonths(in.Timeframe)
}

// Intervals returns the interval count for the input.
func (in Input) Intervals() int {
	return IntervalCount(in.Months(), in.Frequency)
}

// EndDate is StartDate plus the timeframe.
func (in Input) EndDate() time.Time {
	return in.StartDate.AddDate(0, in.Months(), 0)
}

// Validate rejects inputs the form would not accept.
func (in Input) Validate() error {
	if in.Months() == 0 {
		return fmt.Errorf("unknown timeframe %q", in.Timeframe)
	}
	if in.Frequency.IntervalsPerMonth() == 0 {
		return fmt.Errorf("unknown frequency %q", in.Frequency)
	}
	if in.SavingsGoal < 0 {
		return fmt.Errorf("savings goal must be >= 0, got %.2f", in.SavingsGoal)
	}
	return nil
}

// Result is the computed projection.
type Result struct {
	Months                  int
	Intervals               int
	TotalMonthlyExpenses    float64
	TotalIntervalExpenses   float64
	TotalExpensesOverPeriod float64
	NetToSave               float64
	PerInterval             float64
	EndDate                 time.Time
}

// Compute applies the projection arithmetic. Interval expenses outside
// 1..Intervals are ignored; see InvalidIntervalExpenses.
func Compute(in Input) Result {
	r := Result{
		Months:    in.Months(),
		Intervals: in.Intervals(),
		EndDate:   in.EndDate(),
	}

	for _, e := range in.MonthlyExpenses {
		r.TotalMonthlyExpenses += e.Amount
	}
	for _, e := range in.IntervalExpenses {
		if inRange(e.IntervalIndex, r.Intervals) {
			r.TotalIntervalExpenses += e.Amount
		}
	}

	r.TotalExpensesOverPeriod = r.TotalMonthlyExpenses*float64(r.Months) + r.TotalIntervalExpenses
	r.NetToSave = in.SavingsGoal - r.TotalExpensesOverPeriod
	if r.Intervals > 0 {
		r.PerInterval = r.NetToSave / float64(r.Intervals)
	}
	return r
}

// InvalidIntervalExpenses returns the interval expenses whose index is
// outside 1..Intervals.
func InvalidIntervalExpenses(in Input) []IntervalExpense {
	n := in.Intervals()
	var bad []IntervalExpense
	for _, e := range in.IntervalExpenses {
		if !inRange(e.IntervalIndex, n) {
			bad = append(bad, e)
		}
	}
	return bad
}

func inRange(idx, intervals int) bool {
	return idx >= 1 && idx <= intervals
}
