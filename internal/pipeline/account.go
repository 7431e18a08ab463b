package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/theirongolddev/finview/internal/log"
	"github.com/theirongolddev/finview/internal/model"
	"github.com/theirongolddev/finview/internal/respcache"
)

// Balances returns the account balances. Not cached; they change by hand.
func (l *Loader) Balances(ctx context.Context) ([]model.Balance, error) {
	bs, err := l.api.Balances(ctx)
	if err != nil {
		return nil, l.check(fmt.Errorf("loading balances: %w", err))
	}
	return bs, nil
}

// UpdateBalance sets one named balance.
func (l *Loader) UpdateBalance(ctx context.Context, name string, amount float64) error {
	if err := l.api.UpdateBalance(ctx, name, amount); err != nil {
		return l.check(fmt.Errorf("updating %s balance: %w", name, err))
	}
	return nil
}

// UserSettings returns the notification preferences.
func (l *Loader) UserSettings(ctx context.Context) (model.UserSettings, error) {
	s, err := l.api.UserSettings(ctx)
	if err != nil {
		return s, l.check(fmt.Errorf("loading user settings: %w", err))
	}
	return s, nil
}

// UpdateUserSettings saves the notification preferences.
func (l *Loader) UpdateUserSettings(ctx context.Context, s model.UserSettings) error {
	if err := l.api.UpdateUserSettings(ctx, s); err != nil {
		return l.check(fmt.Errorf("saving user settings: %w", err))
	}
	return nil
}

// DetailResult is a stock detail load.
type DetailResult struct {
	Detail    model.StockDetail
	FromCache bool
	Stale     bool
	Err       error
}

// StockDetail returns the chart symbol, company profile and news for
// ticker, fetched concurrently. On failure a cached copy of any age is
// returned with Stale set.
func (l *Loader) StockDetail(ctx context.Context, ticker string, force bool) (DetailResult, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return DetailResult{}, errors.New("ticker required")
	}
	entry := respcache.StockDetailKey(ticker)
	if !force {
		if d, ok := respcache.GetJSON[model.StockDetail](l.cache, entry, l.ttl.Detail); ok {
			return DetailResult{Detail: d, FromCache: true}, nil
		}
	}

	v, err := l.shared(ctx, entry.Key, func(ctx context.Context) (any, error) {
		d := model.StockDetail{Ticker: ticker}
		eg, egctx := errgroup.WithContext(ctx)
		eg.Go(func() error {
			var err error
			d.Symbol, err = l.api.ResolveSymbol(egctx, ticker)
			return err
		})
		eg.Go(func() error {
			var err error
			d.Company, err = l.api.Company(egctx, ticker)
			return err
		})
		eg.Go(func() error {
			var err error
			d.News, err = l.api.News(egctx, ticker)
			return err
		})
		if err := eg.Wait(); err != nil {
			return nil, err
		}
		respcache.PutJSON(l.cache, entry, d)
		return d, nil
	})
	if err == nil {
		return DetailResult{Detail: v.(model.StockDetail)}, nil
	}

	err = l.check(fmt.Errorf("loading %s detail: %w", ticker, err))
	if d, _, ok := respcache.GetStaleJSON[model.StockDetail](l.cache, entry); ok {
		l.log.Warn("showing cached stock detail after refresh failure", log.FieldTicker, ticker, log.FieldError, err)
		return DetailResult{Detail: d, FromCache: true, Stale: true, Err: err}, nil
	}
	return DetailResult{}, err
}
