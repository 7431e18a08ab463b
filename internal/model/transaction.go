// Package model defines domain types shared by the finview client packages.
package model

import (
	"strings"
	"time"
)

// DateLayout is the calendar-date format used for transaction dates and cache keys.
const DateLayout = "2006-01-02"

// Transaction is a read-only copy of a backend transaction.
// Amount is signed: negative values are expenses.
type Transaction struct {
	ID           string  `json:"transaction_id"`
	AccountID    string  `json:"account_id,omitempty"`
	Amount       float64 `json:"amount"`
	Currency     string  `json:"currency,omitempty"`
	Category     string  `json:"category,omitempty"`
	MerchantName string  `json:"merchant_name,omitempty"`
	Date         string  `json:"date"`
	IsRecurring  bool    `json:"is_recurring,omitempty"`
}

// Day parses the transaction date in the given location.
// Returns the zero time if the date is missing or malformed.
func (t Transaction) Day(loc *time.Location) time.Time {
	key := t.DateKey()
	if key == "" {
		return time.Time{}
	}
	d, err := time.ParseInLocation(DateLayout, key, loc)
	if err != nil {
		return time.Time{}
	}
	return d
}

// DateKey returns the YYYY-MM-DD part of the date. The backend sometimes
// serializes full timestamps, so anything past the date is dropped.
func (t Transaction) DateKey() string {
	d := strings.TrimSpace(t.Date)
	if len(d) > len(DateLayout) {
		d = d[:len(DateLayout)]
	}
	return d
}

// Label is the display name: merchant first, then category.
func (t Transaction) Label() string {
	if t.MerchantName != "" {
		return t.MerchantName
	}
	if t.Category != "" {
		return t.Category
	}
	return "Unknown"
}

// IsExpense reports whether the transaction reduces the balance.
func (t Transaction) IsExpense() bool {
	return t.Amount < 0
}
