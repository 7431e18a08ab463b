package model

// Suggestion is a single stock search result.
type Suggestion struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Exchange string `json:"exchange,omitempty"`
}

// Mover is a top gainer or loser row.
type Mover struct {
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name,omitempty"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changesPercentage"`
}

// Prediction is one model forecast for a ticker. Error is set by the backend
// when it could not produce a forecast for that ticker.
type Prediction struct {
	Ticker         string  `json:"ticker"`
	Interval       string  `json:"interval,omitempty"`
	CurrentPrice   float64 `json:"current_price,omitempty"`
	PredictedPrice float64 `json:"predicted_price"`
	Change         float64 `json:"change"`
	ConfidenceLow  float64 `json:"confidence_low,omitempty"`
	ConfidenceHigh float64 `json:"confidence_high,omitempty"`
	PredictionTime string  `json:"prediction_time,omitempty"`
	Error          string  `json:"error,omitempty"`
}

// HasConfidence reports whether the backend returned a confidence band.
func (p Prediction) HasConfidence() bool {
	return p.ConfidenceLow != 0 && p.ConfidenceHigh != 0
}

// IntervalOrder is the display order for multi-interval predictions.
var IntervalOrder = []string{"5m", "15m", "30m", "60m", "1d"}

// IntervalRank returns the position of interval in IntervalOrder, or
// len(IntervalOrder) for unknown intervals so they sort last.
func IntervalRank(interval string) int {
	for i, iv := range IntervalOrder {
		if iv == interval {
			return i
		}
	}
	return len(IntervalOrder)
}

// Company is the profile shown on a stock's detail page.
type Company struct {
	Symbol      string  `json:"symbol,omitempty"`
	Name        string  `json:"companyName"`
	Exchange    string  `json:"exchange,omitempty"`
	Sector      string  `json:"sector,omitempty"`
	Industry    string  `json:"industry,omitempty"`
	CEO         string  `json:"ceo,omitempty"`
	MarketCap   float64 `json:"marketCap,omitempty"`
	Website     string  `json:"website,omitempty"`
	Description string  `json:"description,omitempty"`
}

// NewsArticle is one headline about a ticker.
type NewsArticle struct {
	Title         string `json:"title"`
	URL           string `json:"url"`
	Site          string `json:"site,omitempty"`
	PublishedDate string `json:"publishedDate,omitempty"`
}

// StockDetail gathers what the detail view shows for one ticker: the
// resolved chart symbol, the company profile and recent news.
type StockDetail struct {
	Ticker  string        `json:"ticker"`
	Symbol  string        `json:"symbol"`
	Company Company       `json:"company"`
	News    []NewsArticle `json:"news"`
}
