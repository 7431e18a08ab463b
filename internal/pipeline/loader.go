package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/theirongolddev/finview/internal/calendar"
	"github.com/theirongolddev/finview/internal/finapi"
	"github.com/theirongolddev/finview/internal/log"
	"github.com/theirongolddev/finview/internal/model"
	"github.com/theirongolddev/finview/internal/respcache"
)

// API is the subset of the backend client the loader needs.
type API interface {
	FetchTransactions(ctx context.Context, start, end time.Time) ([]model.Transaction, error)
	CreateTransaction(ctx context.Context, tx model.Transaction) error
	UpdateTransaction(ctx context.Context, tx model.Transaction) error
	DeleteTransaction(ctx context.Context, id string) error
	CategoryTotals(ctx context.Context, userID string) (map[string]float64, error)
	SearchStocks(ctx context.Context, query string, limit int) ([]model.Suggestion, error)
	Gainers(ctx context.Context) ([]model.Mover, error)
	Losers(ctx context.Context) ([]model.Mover, error)
	GeneratePredictions(ctx context.Context, tickers []string) ([]model.Prediction, error)
	GenerateIntervalPredictions(ctx context.Context, ticker string) ([]model.Prediction, error)
	Balances(ctx context.Context) ([]model.Balance, error)
	UpdateBalance(ctx context.Context, name string, amount float64) error
	UserSettings(ctx context.Context) (model.UserSettings, error)
	UpdateUserSettings(ctx context.Context, s model.UserSettings) error
	ResolveSymbol(ctx context.Context, ticker string) (string, error)
	Company(ctx context.Context, ticker string) (model.Company, error)
	News(ctx context.Context, ticker string) ([]model.NewsArticle, error)
}

// fetchTimeout bounds a shared backend fetch, which outlives the caller
// that started it.
const fetchTimeout = 30 * time.Second

// TTLs sets how long each kind of response stays fresh.
type TTLs struct {
	Search      time.Duration
	Movers      time.Duration
	Predictions time.Duration
	Range       time.Duration
	Detail      time.Duration
}

// Loader fetches through the response cache. Concurrent loads of the same
// key share one backend request.
type Loader struct {
	api   API
	cache *respcache.Cache
	ttl   TTLs
	now   func() time.Time
	log   *log.Logger

	searchLimit    int
	onUnauthorized func()

	group singleflight.Group
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) LoaderOption {
	return func(l *Loader) { l.now = now }
}

// WithLogger sets the loader's logger.
func WithLogger(lg *log.Logger) LoaderOption {
	return func(l *Loader) { l.log = lg.WithComponent(log.ComponentPipeline) }
}

// WithSearchLimit caps the number of search suggestions.
func WithSearchLimit(n int) LoaderOption {
	return func(l *Loader) { l.searchLimit = n }
}

// OnUnauthorized registers fn to run whenever the backend rejects the token.
func OnUnauthorized(fn func()) LoaderOption {
	return func(l *Loader) { l.onUnauthorized = fn }
}

// NewLoader creates a loader. cache may be nil to bypass caching.
func NewLoader(api API, cache *respcache.Cache, ttl TTLs, opts ...LoaderOption) *Loader {
	l := &Loader{
		api:         api,
		cache:       cache,
		ttl:         ttl,
		now:         time.Now,
		log:         log.Nop(),
		searchLimit: 10,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Now returns the loader's clock reading.
func (l *Loader) Now() time.Time { return l.now() }

// shared runs fn once for all concurrent callers of key. The fetch does not
// inherit any caller's cancellation; each caller stops waiting when its own
// ctx is done.
func (l *Loader) shared(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	ch := l.group.DoChan(key, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()
		return fn(fctx)
	})
	select {
	case r := <-ch:
		return r.Val, r.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (l *Loader) check(err error) error {
	if err != nil && errors.Is(err, finapi.ErrUnauthorized) && l.onUnauthorized != nil {
		l.onUnauthorized()
	}
	return err
}

// RangeResult is the outcome of a date-range load.
type RangeResult struct {
	Start        time.Time
	End          time.Time
	Transactions []model.Transaction
	FromCache    bool
}

// LoadRange returns transactions within [start, end]. force skips the
// cached copy. Empty results are returned but never cached.
func (l *Loader) LoadRange(ctx context.Context, start, end time.Time, force bool) (RangeResult, error) {
	entry := respcache.RangeKey(respcache.KindTransactions, start, end)
	res := RangeResult{Start: start, End: end}

	if !force {
		if txs, ok := respcache.GetJSON[[]model.Transaction](l.cache, entry, l.ttl.Range); ok {
			res.Transactions = txs
			res.FromCache = true
			return res, nil
		}
	}

	v, err := l.shared(ctx, entry.Key, func(ctx context.Context) (any, error) {
		txs, err := l.api.FetchTransactions(ctx, start, end)
		if err != nil {
			return nil, err
		}
		respcache.PutJSON(l.cache, entry, txs)
		return txs, nil
	})
	if err != nil {
		return res, l.check(fmt.Errorf("loading transactions %s..%s: %w",
			start.Format(model.DateLayout), end.Format(model.DateLayout), err))
	}
	res.Transactions = v.([]model.Transaction)
	return res, nil
}

// LoadView loads the range shown by a calendar view around ref.
func (l *Loader) LoadView(ctx context.Context, mode calendar.ViewMode, ref time.Time, force bool) (RangeResult, error) {
	start, end := calendar.Range(mode, ref)
	return l.LoadRange(ctx, start, end, force)
}

// Upcoming returns the next transactions dated today or later.
func (l *Loader) Upcoming(ctx context.Context, force bool) ([]model.Transaction, error) {
	today := calendar.StartOfDay(l.now())
	res, err := l.LoadRange(ctx, today, today.AddDate(0, 0, UpcomingDays), force)
	if err != nil {
		return nil, err
	}
	return Upcoming(res.Transactions, today, UpcomingLimit), nil
}

// Recent returns the last RecentDays of transactions, newest first.
func (l *Loader) Recent(ctx context.Context, force bool) ([]model.Transaction, error) {
	today := calendar.StartOfDay(l.now())
	res, err := l.LoadRange(ctx, today.AddDate(0, 0, -RecentDays), today, force)
	if err != nil {
		return nil, err
	}
	return Recent(res.Transactions, today, RecentDays), nil
}

// CategoryShares fetches category totals for userID. Not cached; the
// dashboard polls it.
func (l *Loader) CategoryShares(ctx context.Context, userID string) ([]model.CategoryShare, error) {
	totals, err := l.api.CategoryTotals(ctx, userID)
	if err != nil {
		return nil, l.check(fmt.Errorf("loading category totals: %w", err))
	}
	return CategoryShares(totals), nil
}

// Search returns stock suggestions for query. A blank query returns nothing
// without touching the network.
func (l *Loader) Search(ctx context.Context, query string) ([]model.Suggestion, bool, error) {
	if strings.TrimSpace(query) == "" {
		return nil, false, nil
	}
	entry := respcache.SearchKey(query)
	if s, ok := respcache.GetJSON[[]model.Suggestion](l.cache, entry, l.ttl.Search); ok {
		return s, true, nil
	}

	v, err := l.shared(ctx, entry.Key, func(ctx context.Context) (any, error) {
		s, err := l.api.SearchStocks(ctx, query, l.searchLimit)
		if err != nil {
			return nil, err
		}
		respcache.PutJSON(l.cache, entry, s)
		return s, nil
	})
	if err != nil {
		return nil, false, l.check(fmt.Errorf("searching %q: %w", query, err))
	}
	return v.([]model.Suggestion), false, nil
}

// MoversResult holds gainers and losers. Stale is set when the refresh
// failed and an older cached copy is shown; Err then holds the failure.
type MoversResult struct {
	Gainers   []model.Mover
	Losers    []model.Mover
	FetchedAt time.Time
	FromCache bool
	Stale     bool
	Err       error
}

type moversPair struct {
	gainers, losers []model.Mover
}

// Movers returns top gainers and losers, fetched concurrently.
func (l *Loader) Movers(ctx context.Context, force bool) (MoversResult, error) {
	if !force {
		g, gok := respcache.GetJSON[[]model.Mover](l.cache, respcache.GainersKey, l.ttl.Movers)
		lo, lok := respcache.GetJSON[[]model.Mover](l.cache, respcache.LosersKey, l.ttl.Movers)
		if gok && lok {
			_, at, _ := l.cache.GetStale(respcache.GainersKey)
			return MoversResult{Gainers: g, Losers: lo, FetchedAt: at, FromCache: true}, nil
		}
	}

	v, err := l.shared(ctx, "movers", func(ctx context.Context) (any, error) {
		var p moversPair
		eg, egctx := errgroup.WithContext(ctx)
		eg.Go(func() error {
			var err error
			p.gainers, err = l.api.Gainers(egctx)
			return err
		})
		eg.Go(func() error {
			var err error
			p.losers, err = l.api.Losers(egctx)
			return err
		})
		if err := eg.Wait(); err != nil {
			return nil, err
		}
		respcache.PutJSON(l.cache, respcache.GainersKey, p.gainers)
		respcache.PutJSON(l.cache, respcache.LosersKey, p.losers)
		return p, nil
	})
	if err == nil {
		p := v.(moversPair)
		return MoversResult{Gainers: p.gainers, Losers: p.losers, FetchedAt: l.now()}, nil
	}

	err = l.check(fmt.Errorf("loading market movers: %w", err))
	g, at, gok := respcache.GetStaleJSON[[]model.Mover](l.cache, respcache.GainersKey)
	lo, _, lok := respcache.GetStaleJSON[[]model.Mover](l.cache, respcache.LosersKey)
	if gok && lok {
		l.log.Warn("showing cached movers after refresh failure", log.FieldError, err)
		return MoversResult{Gainers: g, Losers: lo, FetchedAt: at, FromCache: true, Stale: true, Err: err}, nil
	}
	return MoversResult{}, err
}

// PredictionsResult holds forecasts and where they came from.
type PredictionsResult struct {
	Predictions []model.Prediction
	FetchedAt   time.Time
	FromCache   bool
	Stale       bool
	Err         error
}

// Predictions returns batch forecasts for tickers. force bypasses the cache.
// On failure a cached copy of any age is returned with Stale set.
func (l *Loader) Predictions(ctx context.Context, tickers []string, force bool) (PredictionsResult, error) {
	return l.predictions(ctx, respcache.PredictionsKey(tickers), force, func(ctx context.Context) ([]model.Prediction, error) {
		return l.api.GeneratePredictions(ctx, tickers)
	})
}

// IntervalPredictions returns the multi-horizon forecast for one ticker.
func (l *Loader) IntervalPredictions(ctx context.Context, ticker string, force bool) (PredictionsResult, error) {
	return l.predictions(ctx, respcache.IntervalPredictionsKey(ticker), force, func(ctx context.Context) ([]model.Prediction, error) {
		return l.api.GenerateIntervalPredictions(ctx, ticker)
	})
}

func (l *Loader) predictions(ctx context.Context, entry respcache.Entry, force bool,
	fetch func(context.Context) ([]model.Prediction, error)) (PredictionsResult, error) {
	if !force {
		if p, ok := respcache.GetJSON[[]model.Prediction](l.cache, entry, l.ttl.Predictions); ok {
			_, at, _ := l.cache.GetStale(entry)
			return PredictionsResult{Predictions: p, FetchedAt: at, FromCache: true}, nil
		}
	}

	v, err := l.shared(ctx, entry.Key, func(ctx context.Context) (any, error) {
		p, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		respcache.PutJSON(l.cache, entry, p)
		return p, nil
	})
	if err == nil {
		return PredictionsResult{Predictions: v.([]model.Prediction), FetchedAt: l.now()}, nil
	}

	err = l.check(fmt.Errorf("loading predictions: %w", err))
	if p, at, ok := respcache.GetStaleJSON[[]model.Prediction](l.cache, entry); ok {
		return PredictionsResult{Predictions: p, FetchedAt: at, FromCache: true, Stale: true, Err: err}, nil
	}
	return PredictionsResult{}, err
}

// NewTransaction fills in a client-side id and defaults for a manual entry.
func NewTransaction(merchant, category string, amount float64, date time.Time, currency string) model.Transaction {
	if currency == "" {
		currency = "USD"
	}
	return model.Transaction{
		ID:           uuid.NewString(),
		AccountID:    "manual",
		Amount:       amount,
		Currency:     currency,
		Category:     category,
		MerchantName: merchant,
		Date:         date.Format(model.DateLayout),
	}
}

// AddTransaction creates tx on the backend and drops every cached range
// that could contain it. The returned copy has its id filled in.
func (l *Loader) AddTransaction(ctx context.Context, tx model.Transaction) (model.Transaction, error) {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.DateKey() == "" {
		return tx, errors.New("transaction date required")
	}
	if err := l.api.CreateTransaction(ctx, tx); err != nil {
		return tx, l.check(fmt.Errorf("creating transaction: %w", err))
	}
	l.invalidateAround(tx)
	return tx, nil
}

// UpdateTransaction replaces tx. prev is the version being edited so the
// ranges around its old date are dropped too.
func (l *Loader) UpdateTransaction(ctx context.Context, prev, tx model.Transaction) error {
	if err := l.api.UpdateTransaction(ctx, tx); err != nil {
		return l.check(fmt.Errorf("updating transaction: %w", err))
	}
	l.invalidateAround(prev)
	l.invalidateAround(tx)
	return nil
}

// DeleteTransaction removes tx.
func (l *Loader) DeleteTransaction(ctx context.Context, tx model.Transaction) error {
	if err := l.api.DeleteTransaction(ctx, tx.ID); err != nil {
		return l.check(fmt.Errorf("deleting transaction: %w", err))
	}
	l.invalidateAround(tx)
	return nil
}

// invalidateAround drops every cached transaction range containing tx's
// date, whichever command or view loaded it.
func (l *Loader) invalidateAround(tx model.Transaction) {
	d := tx.Day(l.now().Location())
	if d.IsZero() {
		return
	}
	n := l.cache.InvalidateRangesContaining(respcache.KindTransactions, d)
	l.log.Debug("invalidated cached ranges", log.FieldKey, tx.DateKey(), log.FieldCount, n)
}
