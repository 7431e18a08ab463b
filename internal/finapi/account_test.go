package finapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/finview/internal/model"
)

func TestBalancesOrdered(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/balances/", r.URL.Path)
		_, _ = io.WriteString(w, `[
			{"balance_name":"cash","balance_amount":40,"previous_balance":20},
			{"balance_name":"brokerage","balance_amount":1000},
			{"balance_name":"checking","balance_amount":1200.5,"previous_balance":1000}
		]`)
	})
	bs, err := c.Balances(context.Background())
	require.NoError(t, err)
	require.Len(t, bs, 3)
	require.Equal(t, "checking", bs[0].Name)
	require.Equal(t, "cash", bs[1].Name)
	require.Equal(t, "brokerage", bs[2].Name)
	require.InDelta(t, 200.5, bs[0].Change(), 1e-9)
	require.InDelta(t, 2240.5, model.TotalBalance(bs), 1e-9)
}

func TestUpdateBalance(t *testing.T) {
	var got balanceUpdate
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/balances/update", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"message":"ok"}`)
	})
	require.NoError(t, c.UpdateBalance(context.Background(), " Savings ", 300))
	require.Equal(t, balanceUpdate{Name: "savings", Amount: 300}, got)

	require.Error(t, c.UpdateBalance(context.Background(), "crypto", 1))
}

func TestUserSettingsRoundTrip(t *testing.T) {
	var posted model.UserSettings
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/user_settings/", r.URL.Path)
		switch r.Method {
		case http.MethodGet:
			_, _ = io.WriteString(w, `{"email_notifications":true,"push_notifications":false}`)
		case http.MethodPost:
			require.NoError(t, json.NewDecoder(r.Body).Decode(&posted))
		}
	})
	s, err := c.UserSettings(context.Background())
	require.NoError(t, err)
	require.True(t, s.EmailNotifications)
	require.False(t, s.PushNotifications)

	s.PushNotifications = true
	require.NoError(t, c.UpdateUserSettings(context.Background(), s))
	require.Equal(t, s, posted)
}

func TestStockDetailEndpoints(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/stocks/symbol/AAPL":
			_, _ = io.WriteString(w, `{"symbol":"NASDAQ:AAPL"}`)
		case "/stocks/symbol/XYZ":
			_, _ = io.WriteString(w, `{}`)
		case "/stocks/company/AAPL":
			_, _ = io.WriteString(w, `{"companyName":"Apple Inc.","sector":"Technology","ceo":"Tim Cook","marketCap":3.1e12}`)
		case "/stocks/news/AAPL":
			_, _ = io.WriteString(w, `[{"title":"Apple ships","url":"https://x","site":"wire","publishedDate":"2025-06-14 10:00:00"}]`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	ctx := context.Background()

	sym, err := c.ResolveSymbol(ctx, "aapl")
	require.NoError(t, err)
	require.Equal(t, "NASDAQ:AAPL", sym)

	sym, err = c.ResolveSymbol(ctx, "xyz")
	require.NoError(t, err)
	require.Equal(t, "NASDAQ:XYZ", sym)

	co, err := c.Company(ctx, "AAPL")
	require.NoError(t, err)
	require.Equal(t, "Apple Inc.", co.Name)
	require.Equal(t, "AAPL", co.Symbol)
	require.InDelta(t, 3.1e12, co.MarketCap, 1)

	news, err := c.News(ctx, "AAPL")
	require.NoError(t, err)
	require.Len(t, news, 1)
	require.Equal(t, "Apple ships", news[0].Title)

	_, err = c.News(ctx, "NOPE")
	require.ErrorIs(t, err, ErrNotFound)
}
