package calendar

import (
	"sort"

	"github.com/theirongolddev/finview/internal/model"
)

// GroupByDate buckets transactions by their YYYY-MM-DD key. Within a day the
// original order is kept, newest first when the backend sent timestamps.
func GroupByDate(txs []model.Transaction) map[string][]model.Transaction {
	grouped := make(map[string][]model.Transaction)
	for _, tx := range txs {
		key := tx.DateKey()
		if key == "" {
			continue
		}
		grouped[key] = append(grouped[key], tx)
	}
	for _, list := range grouped {
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].Date > list[j].Date
		})
	}
	return grouped
}

// Fill returns a copy of days with each bucket's transactions taken from grouped.
func Fill(days []Bucket, grouped map[string][]model.Transaction) []Bucket {
	out := make([]Bucket, len(days))
	for i, b := range days {
		b.Transactions = append([]model.Transaction(nil), grouped[b.Key()]...)
		out[i] = b
	}
	return out
}

// FillWeek is Fill for a fixed-size week.
func FillWeek(w Week, grouped map[string][]model.Transaction) Week {
	var out Week
	copy(out[:], Fill(w.Days(), grouped))
	return out
}

// FillMonth fills every row of a month grid.
func FillMonth(rows []Week, grouped map[string][]model.Transaction) []Week {
	out := make([]Week, len(rows))
	for i, w := range rows {
		out[i] = FillWeek(w, grouped)
	}
	return out
}

// ApplyOptimisticInsert returns a copy of days with tx prepended to the bucket
// for its date. Days without a matching bucket are returned unchanged; the
// input slice and its transaction lists are never modified.
func ApplyOptimisticInsert(days []Bucket, tx model.Transaction) []Bucket {
	key := tx.DateKey()
	out := make([]Bucket, len(days))
	copy(out, days)
	for i := range out {
		if out[i].Key() != key {
			continue
		}
		list := make([]model.Transaction, 0, len(out[i].Transactions)+1)
		list = append(list, tx)
		list = append(list, out[i].Transactions...)
		out[i].Transactions = list
	}
	return out
}

// InsertGrouped adds tx to a grouped map, returning a new map. Used when the
// view holds transactions by date rather than as buckets.
func InsertGrouped(grouped map[string][]model.Transaction, tx model.Transaction) map[string][]model.Transaction {
	out := make(map[string][]model.Transaction, len(grouped)+1)
	for k, v := range grouped {
		out[k] = v
	}
	key := tx.DateKey()
	if key == "" {
		return out
	}
	list := make([]model.Transaction, 0, len(out[key])+1)
	list = append(list, tx)
	list = append(list, out[key]...)
	out[key] = list
	return out
}
