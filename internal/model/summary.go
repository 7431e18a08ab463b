package model

import "time"

// CategoryShare is one slice of the category spend breakdown.
type CategoryShare struct {
	Category     string
	Total        float64
	SharePercent float64
}

// PeriodSummary holds income/spend totals over a date range.
type PeriodSummary struct {
	Start        time.Time
	End          time.Time
	Transactions int
	Income       float64
	Spend        float64 // positive magnitude of expenses
	Net          float64
	ActiveDays   int
}
