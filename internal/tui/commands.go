package tui

import (
	"context"
	"strings"
	"time"

	"github.com/theirongolddev/finview/internal/fetch"
	"github.com/theirongolddev/finview/internal/model"
	"github.com/theirongolddev/finview/internal/pipeline"

	tea "github.com/charmbracelet/bubbletea"
)

const requestTimeout = 30 * time.Second

// Every fetch result carries the ticket it was issued with; the app
// applies it only while that ticket is still current.

type rangeMsg struct {
	ticket fetch.Ticket
	res    pipeline.RangeResult
	err    error
}

type upcomingMsg struct {
	ticket fetch.Ticket
	txs    []model.Transaction
	err    error
}

type txSavedMsg struct {
	tx  model.Transaction
	err error
}

type categoriesMsg struct {
	ticket fetch.Ticket
	shares []model.CategoryShare
	err    error
}

type searchDebounceMsg struct {
	ticket fetch.Ticket
}

type searchResultMsg struct {
	ticket    fetch.Ticket
	results   []model.Suggestion
	fromCache bool
	err       error
}

type moversMsg struct {
	ticket fetch.Ticket
	res    pipeline.MoversResult
	err    error
}

type predictionsMsg struct {
	ticket fetch.Ticket
	res    pipeline.PredictionsResult
	err    error
}

type intervalMsg struct {
	ticket fetch.Ticket
	res    pipeline.PredictionsResult
	err    error
}

type balancesMsg struct {
	ticket   fetch.Ticket
	balances []model.Balance
	err      error
}

type detailMsg struct {
	ticket fetch.Ticket
	res    pipeline.DetailResult
	err    error
}

func withTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}

// loadCalendarCmd fetches the range shown by the calendar view.
func (a App) loadCalendarCmd(force bool) tea.Cmd {
	l := a.deps.Loader
	mode, ref := a.cal.mode, a.cal.ref
	t := a.guards.cal.Issue(a.cal.rangeKey())
	return func() tea.Msg {
		ctx, cancel := withTimeout()
		defer cancel()
		res, err := l.LoadView(ctx, mode, ref, force)
		return rangeMsg{ticket: t, res: res, err: err}
	}
}

func (a App) loadUpcomingCmd(force bool) tea.Cmd {
	l := a.deps.Loader
	t := a.guards.upcoming.Issue("upcoming")
	return func() tea.Msg {
		ctx, cancel := withTimeout()
		defer cancel()
		txs, err := l.Upcoming(ctx, force)
		return upcomingMsg{ticket: t, txs: txs, err: err}
	}
}

func addTxCmd(l *pipeline.Loader, tx model.Transaction) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := withTimeout()
		defer cancel()
		saved, err := l.AddTransaction(ctx, tx)
		return txSavedMsg{tx: saved, err: err}
	}
}

// startCategories issues a category-spend fetch for the signed-in user.
func (a *App) startCategories() tea.Cmd {
	a.cats.polledAt = a.now()
	userID, err := a.deps.Session.UserID()
	if err != nil {
		a.cats.err = err
		a.cats.loading = false
		return nil
	}
	a.cats.loading = true
	l := a.deps.Loader
	t := a.guards.cats.Issue(userID)
	return func() tea.Msg {
		ctx, cancel := withTimeout()
		defer cancel()
		shares, err := l.CategoryShares(ctx, userID)
		return categoriesMsg{ticket: t, shares: shares, err: err}
	}
}

// queueSearch supersedes any pending search and waits out the debounce
// delay before querying.
func (a *App) queueSearch(query string) tea.Cmd {
	query = strings.TrimSpace(query)
	a.stocks.query = query
	t := a.guards.search.Issue(strings.ToLower(query))
	if query == "" {
		a.stocks.results = nil
		a.stocks.searchLoading = false
		a.stocks.searchErr = nil
		return nil
	}
	a.stocks.searchLoading = true
	return tea.Tick(searchDelay, func(time.Time) tea.Msg {
		return searchDebounceMsg{ticket: t}
	})
}

func searchCmd(l *pipeline.Loader, t fetch.Ticket, query string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := withTimeout()
		defer cancel()
		results, cached, err := l.Search(ctx, query)
		return searchResultMsg{ticket: t, results: results, fromCache: cached, err: err}
	}
}

func (a *App) startMovers(force bool) tea.Cmd {
	a.stocks.moversLoading = true
	l := a.deps.Loader
	t := a.guards.movers.Issue("movers")
	return func() tea.Msg {
		ctx, cancel := withTimeout()
		defer cancel()
		res, err := l.Movers(ctx, force)
		return moversMsg{ticket: t, res: res, err: err}
	}
}

func (a *App) startPredictions(force bool) tea.Cmd {
	a.stocks.predsLoading = true
	a.stocks.predsPolledAt = a.now()
	l := a.deps.Loader
	tickers := append([]string(nil), a.cfg.Stocks.Tickers...)
	t := a.guards.preds.Issue(strings.Join(tickers, ","))
	return func() tea.Msg {
		ctx, cancel := withTimeout()
		defer cancel()
		res, err := l.Predictions(ctx, tickers, force)
		return predictionsMsg{ticket: t, res: res, err: err}
	}
}

func (a *App) startInterval(ticker string, force bool) tea.Cmd {
	a.stocks.ticker = ticker
	a.stocks.intervalLoading = true
	l := a.deps.Loader
	t := a.guards.interval.Issue(ticker)
	return func() tea.Msg {
		ctx, cancel := withTimeout()
		defer cancel()
		res, err := l.IntervalPredictions(ctx, ticker, force)
		return intervalMsg{ticket: t, res: res, err: err}
	}
}

func (a App) loadBalancesCmd() tea.Cmd {
	l := a.deps.Loader
	t := a.guards.balances.Issue("balances")
	return func() tea.Msg {
		ctx, cancel := withTimeout()
		defer cancel()
		bs, err := l.Balances(ctx)
		return balancesMsg{ticket: t, balances: bs, err: err}
	}
}

func (a *App) startDetail(ticker string, force bool) tea.Cmd {
	a.stocks.detailLoading = true
	l := a.deps.Loader
	t := a.guards.detail.Issue(ticker)
	return func() tea.Msg {
		ctx, cancel := withTimeout()
		defer cancel()
		res, err := l.StockDetail(ctx, ticker, force)
		return detailMsg{ticket: t, res: res, err: err}
	}
}
