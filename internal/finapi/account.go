package finapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/theirongolddev/finview/internal/model"
)

// Balances returns the user's account balances ordered checking, savings,
// cash, then anything else by name.
func (c *Client) Balances(ctx context.Context) ([]model.Balance, error) {
	const path = "/balances/"
	body, err := c.get(ctx, path, nil)
	if err != nil {
		return nil, err
	}
	var rows []model.Balance
	c.decode(path, body, &rows)

	rank := func(name string) int {
		for i, n := range model.BalanceNames {
			if n == name {
				return i
			}
		}
		return len(model.BalanceNames)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		ri, rj := rank(rows[i].Name), rank(rows[j].Name)
		if ri != rj {
			return ri < rj
		}
		return rows[i].Name < rows[j].Name
	})
	return rows, nil
}

type balanceUpdate struct {
	Name   string  `json:"balance_name"`
	Amount float64 `json:"new_amount"`
}

// UpdateBalance sets the named balance to amount.
func (c *Client) UpdateBalance(ctx context.Context, name string, amount float64) error {
	name = strings.ToLower(strings.TrimSpace(name))
	if !model.ValidBalanceName(name) {
		return fmt.Errorf("finapi: unknown balance %q (want %s)", name, strings.Join(model.BalanceNames, ", "))
	}
	_, err := c.sendJSON(ctx, http.MethodPut, "/balances/update", balanceUpdate{Name: name, Amount: amount})
	return err
}

// UserSettings returns the notification preferences.
func (c *Client) UserSettings(ctx context.Context) (model.UserSettings, error) {
	const path = "/user_settings/"
	body, err := c.get(ctx, path, nil)
	if err != nil {
		return model.UserSettings{}, err
	}
	var s model.UserSettings
	c.decode(path, body, &s)
	return s, nil
}

// UpdateUserSettings replaces the notification preferences.
func (c *Client) UpdateUserSettings(ctx context.Context, s model.UserSettings) error {
	_, err := c.sendJSON(ctx, http.MethodPost, "/user_settings/", s)
	return err
}

type symbolResponse struct {
	Symbol string `json:"symbol"`
}

// ResolveSymbol maps a ticker to its exchange-qualified chart symbol, e.g.
// "NASDAQ:AAPL". When the backend has nothing, "NASDAQ:<ticker>" is assumed.
func (c *Client) ResolveSymbol(ctx context.Context, ticker string) (string, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	path := "/stocks/symbol/" + url.PathEscape(ticker)
	body, err := c.get(ctx, path, nil)
	if err != nil {
		return "", err
	}
	var r symbolResponse
	c.decode(path, body, &r)
	if r.Symbol == "" {
		return "NASDAQ:" + ticker, nil
	}
	return r.Symbol, nil
}

// Company returns the company profile for ticker.
func (c *Client) Company(ctx context.Context, ticker string) (model.Company, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	path := "/stocks/company/" + url.PathEscape(ticker)
	body, err := c.get(ctx, path, nil)
	if err != nil {
		return model.Company{}, err
	}
	var co model.Company
	c.decode(path, body, &co)
	if co.Symbol == "" {
		co.Symbol = ticker
	}
	return co, nil
}

// News returns recent headlines for ticker.
func (c *Client) News(ctx context.Context, ticker string) ([]model.NewsArticle, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	path := "/stocks/news/" + url.PathEscape(ticker)
	body, err := c.get(ctx, path, nil)
	if err != nil {
		return nil, err
	}
	var rows []model.NewsArticle
	c.decode(path, body, &rows)
	return rows, nil
}
