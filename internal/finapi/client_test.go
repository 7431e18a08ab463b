package finapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/finview/internal/model"
)

func newTestServer(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "tok123")
}

func TestFetchTransactionsMergesSources(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/user_transactions/", r.URL.Path)
		require.Equal(t, "2025-06-15", r.URL.Query().Get("start_date"))
		require.Equal(t, "2025-06-21", r.URL.Query().Get("end_date"))
		require.Equal(t, "Bearer tok123", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{
			"db_transactions": [{"transaction_id":"a","amount":-50,"date":"2025-06-16"}],
			"plaid_transactions": [{"transaction_id":"b","amount":30,"date":"2025-06-16"}]
		}`)
	})

	start := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	txs, err := c.FetchTransactions(context.Background(), start, start.AddDate(0, 0, 6))
	require.NoError(t, err)
	require.Len(t, txs, 2)
	require.Equal(t, "a", txs[0].ID)
	require.Equal(t, "b", txs[1].ID)
	require.InDelta(t, -50, txs[0].Amount, 1e-9)
}

func TestFetchTransactionsNullLists(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"db_transactions": null}`)
	})
	txs, err := c.FetchTransactions(context.Background(), time.Now(), time.Now())
	require.NoError(t, err)
	require.Empty(t, txs)
}

func TestMalformedBodyIsNoData(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `<html>oops</html>`)
	})
	movers, err := c.Gainers(context.Background())
	require.NoError(t, err)
	require.Empty(t, movers)
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		code int
		want error
	}{
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrUnauthorized},
		{http.StatusTooManyRequests, ErrRateLimited},
		{http.StatusNotFound, ErrNotFound},
	}
	for _, tt := range tests {
		c := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(tt.code)
		})
		_, err := c.Losers(context.Background())
		require.ErrorIs(t, err, tt.want, "status %d", tt.code)
	}

	c := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	_, err := c.Losers(context.Background())
	var se *StatusError
	require.True(t, errors.As(err, &se))
	require.Equal(t, http.StatusBadGateway, se.Code)
	require.Equal(t, "/stocks/losers", se.Path)
}

func TestNoTokenNoHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Empty(t, r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "")
	require.False(t, c.HasToken())
	require.Equal(t, srv.URL, c.BaseURL())
	_, err := c.Gainers(context.Background())
	require.NoError(t, err)
}

func TestCreateUpdateDeleteTransaction(t *testing.T) {
	var calls []string
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		if r.Method != http.MethodDelete {
			require.Equal(t, "application/json", r.Header.Get("Content-Type"))
			var tx model.Transaction
			require.NoError(t, json.NewDecoder(r.Body).Decode(&tx))
			require.Equal(t, "tx-1", tx.ID)
		}
		w.WriteHeader(http.StatusOK)
	})

	ctx := context.Background()
	tx := model.Transaction{ID: "tx-1", Amount: -12.5, Date: "2025-06-16"}
	require.NoError(t, c.CreateTransaction(ctx, tx))
	require.NoError(t, c.UpdateTransaction(ctx, tx))
	require.NoError(t, c.DeleteTransaction(ctx, "tx-1"))
	require.Equal(t, []string{
		"POST /user_transactions/",
		"PUT /user_transactions/tx-1",
		"DELETE /user_transactions/tx-1",
	}, calls)

	require.Error(t, c.CreateTransaction(ctx, model.Transaction{}))
	require.Error(t, c.DeleteTransaction(ctx, ""))
}

func TestSearchStocks(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/stocks/search", r.URL.Path)
		require.Equal(t, "app", r.URL.Query().Get("query"))
		require.Equal(t, "10", r.URL.Query().Get("limit"))
		_, _ = io.WriteString(w, `[
			{"symbol":"AAPL","name":"Apple Inc.","exchangeShortName":"NASDAQ"},
			{"symbol":"","name":"junk"},
			{"symbol":"APP","name":"AppLovin","exchange":"NASDAQ Global Select"}
		]`)
	})

	got, err := c.SearchStocks(context.Background(), " app ", 0)
	require.NoError(t, err)
	require.Equal(t, []model.Suggestion{
		{Symbol: "AAPL", Name: "Apple Inc.", Exchange: "NASDAQ"},
		{Symbol: "APP", Name: "AppLovin", Exchange: "NASDAQ Global Select"},
	}, got)

	none, err := c.SearchStocks(context.Background(), "   ", 5)
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestGenerateIntervalPredictionsSortsAndFilters(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req predictionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, []string{"TSLA"}, req.Tickers)
		_, _ = io.WriteString(w, `{"predictions":[
			{"ticker":"TSLA","interval":"1d","predicted_price":300,"change":1.5},
			{"ticker":"TSLA","interval":"5m","predicted_price":290,"change":-0.2},
			{"ticker":"AAPL","interval":"5m","predicted_price":190,"change":0.1},
			{"ticker":"TSLA","interval":"30m","predicted_price":295,"change":0.3}
		]}`)
	})

	got, err := c.GenerateIntervalPredictions(context.Background(), "tsla")
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, "5m", got[0].Interval)
	require.Equal(t, "30m", got[1].Interval)
	require.Equal(t, "1d", got[2].Interval)
}

func TestGeneratePredictionsDefaultTickers(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req predictionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, DefaultTickers, req.Tickers)
		_, _ = io.WriteString(w, `{"predictions":[{"ticker":"AAPL","predicted_price":201.5,"confidence_low":195,"confidence_high":208}]}`)
	})

	got, err := c.GeneratePredictions(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.True(t, got[0].HasConfidence())
}

func TestCategoryTotals(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/pie_chart/42", r.URL.Path)
		_, _ = io.WriteString(w, `{"Food":120.5,"Rent":900}`)
	})

	got, err := c.CategoryTotals(context.Background(), "42")
	require.NoError(t, err)
	require.Equal(t, map[string]float64{"Food": 120.5, "Rent": 900}, got)

	_, err = c.CategoryTotals(context.Background(), "")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestLogin(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/token", r.URL.Path)
		require.NoError(t, r.ParseForm())
		if r.PostForm.Get("password") != "hunter2" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		require.Equal(t, "sam", r.PostForm.Get("username"))
		_, _ = io.WriteString(w, `{"access_token":"jwt.value.sig","token_type":"bearer"}`)
	})

	tok, err := c.Login(context.Background(), "sam", "hunter2")
	require.NoError(t, err)
	require.Equal(t, "jwt.value.sig", tok)

	_, err = c.Login(context.Background(), "sam", "wrong")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestWithTokenCopies(t *testing.T) {
	c := NewClient("", "")
	c2 := c.WithToken(" abc ")
	require.False(t, c.HasToken())
	require.True(t, c2.HasToken())
	require.Equal(t, DefaultBaseURL, c2.BaseURL())
}
