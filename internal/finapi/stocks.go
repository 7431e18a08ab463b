package finapi

import (
	"context"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/theirongolddev/finview/internal/model"
)

// DefaultTickers is the watch list used for batch predictions.
var DefaultTickers = []string{"AAPL", "MSFT", "NVDA", "AMZN", "GOOGL", "META", "BRK.B", "TSLA"}

// searchResult is the market data provider's row shape.
type searchResult struct {
	Symbol        string `json:"symbol"`
	Name          string `json:"name"`
	ExchangeShort string `json:"exchangeShortName"`
	Exchange      string `json:"exchange"`
}

// SearchStocks returns up to limit suggestions for query.
func (c *Client) SearchStocks(ctx context.Context, query string, limit int) ([]model.Suggestion, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}
	q := url.Values{}
	q.Set("query", query)
	q.Set("limit", strconv.Itoa(limit))

	const path = "/stocks/search"
	body, err := c.get(ctx, path, q)
	if err != nil {
		return nil, err
	}

	var rows []searchResult
	c.decode(path, body, &rows)

	out := make([]model.Suggestion, 0, len(rows))
	for _, r := range rows {
		if r.Symbol == "" {
			continue
		}
		ex := r.ExchangeShort
		if ex == "" {
			ex = r.Exchange
		}
		out = append(out, model.Suggestion{Symbol: r.Symbol, Name: r.Name, Exchange: ex})
	}
	return out, nil
}

// Gainers returns today's top gaining stocks.
func (c *Client) Gainers(ctx context.Context) ([]model.Mover, error) {
	return c.movers(ctx, "/stocks/gainers")
}

// Losers returns today's top losing stocks.
func (c *Client) Losers(ctx context.Context) ([]model.Mover, error) {
	return c.movers(ctx, "/stocks/losers")
}

func (c *Client) movers(ctx context.Context, path string) ([]model.Mover, error) {
	body, err := c.get(ctx, path, nil)
	if err != nil {
		return nil, err
	}
	var rows []model.Mover
	c.decode(path, body, &rows)
	return rows, nil
}

type predictionRequest struct {
	Tickers []string `json:"tickers"`
}

type predictionResponse struct {
	Predictions []model.Prediction `json:"predictions"`
}

// GeneratePredictions asks the backend to forecast each ticker.
func (c *Client) GeneratePredictions(ctx context.Context, tickers []string) ([]model.Prediction, error) {
	if len(tickers) == 0 {
		tickers = DefaultTickers
	}
	const path = "/stocks/predictions/generate"
	body, err := c.sendJSON(ctx, http.MethodPost, path, predictionRequest{Tickers: tickers})
	if err != nil {
		return nil, err
	}
	var resp predictionResponse
	c.decode(path, body, &resp)
	return resp.Predictions, nil
}

// GenerateIntervalPredictions returns the multi-horizon forecast for one
// ticker, ordered 5m, 15m, 30m, 60m, 1d. Rows for other tickers are dropped.
func (c *Client) GenerateIntervalPredictions(ctx context.Context, ticker string) ([]model.Prediction, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	const path = "/stocks/predictions/generate-intervals"
	body, err := c.sendJSON(ctx, http.MethodPost, path, predictionRequest{Tickers: []string{ticker}})
	if err != nil {
		return nil, err
	}
	var resp predictionResponse
	c.decode(path, body, &resp)

	out := make([]model.Prediction, 0, len(resp.Predictions))
	for _, p := range resp.Predictions {
		if strings.EqualFold(p.Ticker, ticker) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return model.IntervalRank(out[i].Interval) < model.IntervalRank(out[j].Interval)
	})
	return out, nil
}
