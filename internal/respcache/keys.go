package respcache

import (
	"slices"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Kinds of range-keyed entries.
const (
	KindTransactions = "transactions"
)

// RangeKey identifies a date-range query: "<kind>_<YYYY-MM-DD>_<YYYY-MM-DD>".
func RangeKey(kind string, start, end time.Time) Entry {
	return At(kind + "_" + start.Format(dateLayout) + "_" + end.Format(dateLayout))
}

// SearchKey identifies a stock search; the query is trimmed and lowercased
// so "AAPL " and "aapl" share an entry.
func SearchKey(query string) Entry {
	return At("search_" + strings.ToLower(strings.TrimSpace(query)))
}

// Gainers and losers are stamped separately; a refresh that only writes one
// of them must not make the other look fresh.
var (
	GainersKey = Entry{Key: "cachedGainers", TimeKey: "cachedGainersTime"}
	LosersKey  = Entry{Key: "cachedLosers", TimeKey: "cachedLosersTime"}
)

// PredictionsKey holds the batch forecast for one set of tickers:
// "chronosPredictions_<T1,T2,...>" with the tickers uppercased and sorted.
func PredictionsKey(tickers []string) Entry {
	norm := make([]string, 0, len(tickers))
	for _, t := range tickers {
		if t = strings.ToUpper(strings.TrimSpace(t)); t != "" {
			norm = append(norm, t)
		}
	}
	slices.Sort(norm)
	norm = slices.Compact(norm)
	set := strings.Join(norm, ",")
	return Entry{Key: "chronosPredictions_" + set, TimeKey: "chronosPredictionsTime_" + set}
}

// IntervalPredictionsKey holds the multi-interval forecast for one ticker.
func IntervalPredictionsKey(ticker string) Entry {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	return Entry{Key: "intervalPredictions_" + t, TimeKey: "intervalPredictionsTime_" + t}
}

// StockDetailKey holds the symbol, company profile and news for one ticker.
func StockDetailKey(ticker string) Entry {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	return Entry{Key: "stockDetail_" + t, TimeKey: "stockDetailTime_" + t}
}

// ParseRangeKey splits a RangeKey back into kind and dates. It rejects
// timestamp keys and anything not produced by RangeKey.
func ParseRangeKey(key string, loc *time.Location) (kind string, start, end time.Time, ok bool) {
	// kind_YYYY-MM-DD_YYYY-MM-DD
	const tail = 1 + len(dateLayout) + 1 + len(dateLayout)
	if len(key) <= tail || key[len(key)-tail] != '_' || key[len(key)-len(dateLayout)-1] != '_' {
		return "", time.Time{}, time.Time{}, false
	}
	kind = key[:len(key)-tail]
	start, err := time.ParseInLocation(dateLayout, key[len(key)-tail+1:len(key)-len(dateLayout)-1], loc)
	if err != nil {
		return "", time.Time{}, time.Time{}, false
	}
	end, err = time.ParseInLocation(dateLayout, key[len(key)-len(dateLayout):], loc)
	if err != nil || end.Before(start) {
		return "", time.Time{}, time.Time{}, false
	}
	return kind, start, end, true
}
