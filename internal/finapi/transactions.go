package finapi

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/theirongolddev/finview/internal/model"
)

const transactionsPath = "/user_transactions/"

type transactionsResponse struct {
	DB    []model.Transaction `json:"db_transactions"`
	Plaid []model.Transaction `json:"plaid_transactions"`
}

// FetchTransactions returns manual and bank-linked transactions dated within
// [start, end], merged into one list. Order is whatever the backend returns.
func (c *Client) FetchTransactions(ctx context.Context, start, end time.Time) ([]model.Transaction, error) {
	q := url.Values{}
	q.Set("start_date", start.Format(model.DateLayout))
	q.Set("end_date", end.Format(model.DateLayout))

	body, err := c.get(ctx, transactionsPath, q)
	if err != nil {
		return nil, err
	}

	var resp transactionsResponse
	c.decode(transactionsPath, body, &resp)

	all := make([]model.Transaction, 0, len(resp.DB)+len(resp.Plaid))
	all = append(all, resp.DB...)
	all = append(all, resp.Plaid...)
	return all, nil
}

// CreateTransaction posts a new manual transaction.
func (c *Client) CreateTransaction(ctx context.Context, tx model.Transaction) error {
	if tx.ID == "" {
		return errors.New("finapi: transaction id required")
	}
	_, err := c.sendJSON(ctx, http.MethodPost, transactionsPath, tx)
	return err
}

// UpdateTransaction replaces the transaction with tx.ID.
func (c *Client) UpdateTransaction(ctx context.Context, tx model.Transaction) error {
	if tx.ID == "" {
		return errors.New("finapi: transaction id required")
	}
	_, err := c.sendJSON(ctx, http.MethodPut, transactionsPath+url.PathEscape(tx.ID), tx)
	return err
}

// DeleteTransaction removes the transaction with the given id.
func (c *Client) DeleteTransaction(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("finapi: transaction id required")
	}
	_, err := c.do(ctx, http.MethodDelete, transactionsPath+url.PathEscape(id), "", nil)
	return err
}

// CategoryTotals returns total spend per category for a user.
func (c *Client) CategoryTotals(ctx context.Context, userID string) (map[string]float64, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	path := "/pie_chart/" + url.PathEscape(userID)
	body, err := c.get(ctx, path, nil)
	if err != nil {
		return nil, err
	}
	totals := map[string]float64{}
	c.decode(path, body, &totals)
	return totals, nil
}
