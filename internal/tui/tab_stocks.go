package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/finview/internal/cli"
	"github.com/theirongolddev/finview/internal/model"
	"github.com/theirongolddev/finview/internal/pipeline"
	"github.com/theirongolddev/finview/internal/tui/components"
	"github.com/theirongolddev/finview/internal/tui/theme"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// stocksState tracks the stocks tab: search, market movers, the tracked
// tickers' forecast and the selected ticker's multi-interval forecast.
type stocksState struct {
	searching     bool
	input         textinput.Model
	query         string
	results       []model.Suggestion
	resultsCached bool
	cursor        int
	searchLoading bool
	searchErr     error

	movers        pipeline.MoversResult
	moversLoaded  bool
	moversLoading bool
	moversErr     error

	preds         pipeline.PredictionsResult
	predsLoading  bool
	predsPolledAt time.Time
	predsErr      error

	ticker          string
	interval        pipeline.PredictionsResult
	intervalLoading bool
	intervalErr     error

	detail        pipeline.DetailResult
	detailLoading bool
	detailErr     error
}

func newStocksState() stocksState {
	return stocksState{input: newSearchInput()}
}

func newSearchInput() textinput.Model {
	ti := textinput.New()
	ti.Placeholder = "Search ticker or company…"
	ti.CharLimit = 64
	ti.Width = 40
	return ti
}

func (s *stocksState) moveCursor(n int) {
	s.cursor += n
	if s.cursor >= len(s.results) {
		s.cursor = len(s.results) - 1
	}
	if s.cursor < 0 {
		s.cursor = 0
	}
}

// predsDue reports whether the tracked-ticker forecast should be fetched:
// never loaded, or auto-refresh is on and the poll interval has passed.
func (s stocksState) predsDue(now time.Time, every time.Duration, auto bool) bool {
	if s.predsLoading {
		return false
	}
	if s.predsPolledAt.IsZero() {
		return true
	}
	return auto && now.Sub(s.predsPolledAt) >= every
}

// leaveStocks stops the tab's background work. Pending predictions are
// discarded and refetched on return.
func (a App) leaveStocks() App {
	if a.stocks.predsLoading {
		a.guards.preds.Close()
		a.stocks.predsLoading = false
		a.stocks.predsPolledAt = time.Time{}
	}
	if a.stocks.searching {
		a.stocks.searching = false
		a.stocks.input.Blur()
	}
	return a
}

func (a App) updateStocksKey(key string) (tea.Model, tea.Cmd, bool) {
	switch key {
	case "/":
		a.stocks.searching = true
		a.stocks.input.SetValue(a.stocks.query)
		cmd := a.stocks.input.Focus()
		return a, cmd, true
	case "j", "down":
		a.stocks.moveCursor(1)
		return a, nil, true
	case "k", "up":
		a.stocks.moveCursor(-1)
		return a, nil, true
	case "enter":
		m, cmd := a.selectResult()
		return m, cmd, true
	case "esc":
		a.stocks.ticker = ""
		a.stocks.interval = pipeline.PredictionsResult{}
		a.guards.interval.Close()
		a.stocks.intervalLoading = false
		a.stocks.detail = pipeline.DetailResult{}
		a.stocks.detailErr = nil
		a.guards.detail.Close()
		a.stocks.detailLoading = false
		return a, nil, true
	case "f":
		cmd := a.startPredictions(true)
		return a, cmd, true
	}
	return a, nil, false
}

func (a App) updateStocksSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		a.stocks.searching = false
		a.stocks.input.Blur()
		return a.selectResult()
	case "esc":
		a.stocks.searching = false
		a.stocks.input.Blur()
		return a, nil
	case "up":
		a.stocks.moveCursor(-1)
		return a, nil
	case "down":
		a.stocks.moveCursor(1)
		return a, nil
	}

	var cmd tea.Cmd
	a.stocks.input, cmd = a.stocks.input.Update(msg)
	if q := strings.TrimSpace(a.stocks.input.Value()); q != a.stocks.query {
		cmd = tea.Batch(cmd, a.queueSearch(q))
	}
	return a, cmd
}

func (a App) selectResult() (tea.Model, tea.Cmd) {
	if len(a.stocks.results) == 0 {
		return a, nil
	}
	sym := a.stocks.results[a.stocks.cursor].Symbol
	cmd := tea.Batch(a.startInterval(sym, false), a.startDetail(sym, false))
	return a, cmd
}

func (a App) onSearchDebounce(msg searchDebounceMsg) (tea.Model, tea.Cmd) {
	if !a.guards.search.Current(msg.ticket) {
		return a, nil
	}
	return a, searchCmd(a.deps.Loader, msg.ticket, a.stocks.query)
}

func (a App) onSearchResult(msg searchResultMsg) (tea.Model, tea.Cmd) {
	if !a.guards.search.Current(msg.ticket) {
		return a, nil
	}
	a.stocks.searchLoading = false
	a.stocks.searchErr = msg.err
	if msg.err != nil {
		a.noteErr(msg.err)
		return a, nil
	}
	a.stocks.results = msg.results
	a.stocks.resultsCached = msg.fromCache
	a.stocks.cursor = 0
	return a, nil
}

func (a App) onMovers(msg moversMsg) (tea.Model, tea.Cmd) {
	if !a.guards.movers.Current(msg.ticket) {
		return a, nil
	}
	a.stocks.moversLoading = false
	a.stocks.moversLoaded = true
	a.stocks.moversErr = msg.err
	if msg.err != nil {
		a.noteErr(msg.err)
		return a, nil
	}
	a.stocks.movers = msg.res
	if msg.res.Stale {
		a.noteErr(msg.res.Err)
	}
	return a, nil
}

func (a App) onPredictions(msg predictionsMsg) (tea.Model, tea.Cmd) {
	if !a.guards.preds.Current(msg.ticket) {
		return a, nil
	}
	a.stocks.predsLoading = false
	a.stocks.predsErr = msg.err
	if msg.err != nil {
		a.noteErr(msg.err)
		return a, nil
	}
	a.stocks.preds = msg.res
	return a, nil
}

func (a App) onInterval(msg intervalMsg) (tea.Model, tea.Cmd) {
	if !a.guards.interval.Current(msg.ticket) {
		return a, nil
	}
	a.stocks.intervalLoading = false
	a.stocks.intervalErr = msg.err
	if msg.err != nil {
		a.noteErr(msg.err)
		return a, nil
	}
	a.stocks.interval = msg.res
	return a, nil
}

func (a App) onDetail(msg detailMsg) (tea.Model, tea.Cmd) {
	if !a.guards.detail.Current(msg.ticket) {
		return a, nil
	}
	a.stocks.detailLoading = false
	a.stocks.detailErr = msg.err
	if msg.err != nil {
		a.noteErr(msg.err)
		return a, nil
	}
	a.stocks.detail = msg.res
	if msg.res.Stale {
		a.noteErr(msg.res.Err)
	}
	return a, nil
}

// ─── Rendering ──────────────────────────────────────────────────

func (a App) renderStocksTab(cw int) string {
	var b strings.Builder

	search := components.ContentCard("Search", a.renderSearch(components.CardInnerWidth(cw)), cw)
	b.WriteString(search)
	b.WriteString("\n")

	gainers := a.renderMovers(a.stocks.movers.Gainers)
	losers := a.renderMovers(a.stocks.movers.Losers)
	if a.isCompactLayout() {
		b.WriteString(components.ContentCard("Top gainers", gainers, cw))
		b.WriteString("\n")
		b.WriteString(components.ContentCard("Top losers", losers, cw))
	} else {
		ws := components.LayoutRow(cw, 2)
		b.WriteString(components.CardRow([]string{
			components.ContentCard("Top gainers", gainers, ws[0]),
			components.ContentCard("Top losers", losers, ws[1]),
		}))
	}
	b.WriteString("\n")

	if a.stocks.ticker != "" {
		title := a.stocks.ticker
		if sym := a.stocks.detail.Detail.Symbol; sym != "" {
			title += " · " + sym
		}
		if a.stocks.detailLoading {
			title += " · loading…"
		}
		b.WriteString(components.ContentCard(title, a.renderDetail(components.CardInnerWidth(cw)), cw))
		b.WriteString("\n")

		title = a.stocks.ticker + " forecast"
		if a.stocks.intervalLoading {
			title += " · loading…"
		}
		b.WriteString(components.ContentCard(title, a.renderPredictionRows(a.stocks.interval, true), cw))
		b.WriteString("\n")
	}

	title := "Predictions · " + strings.Join(a.cfg.Stocks.Tickers, " ")
	switch {
	case a.stocks.predsLoading:
		title += " · generating…"
	case !a.stocks.preds.FetchedAt.IsZero():
		title += " · " + cli.FormatAge(a.stocks.preds.FetchedAt, a.now())
	}
	b.WriteString(components.ContentCard(title, a.renderPredictionRows(a.stocks.preds, false), cw))
	return b.String()
}

func (a App) renderSearch(iw int) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	value := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	sel := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true)
	accent := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceBright)

	var b strings.Builder
	switch {
	case a.stocks.searching:
		b.WriteString(a.stocks.input.View())
	case a.stocks.query != "":
		b.WriteString(muted.Render("Results for ") + value.Render(a.stocks.query) + muted.Render("  [/] search again"))
	default:
		b.WriteString(muted.Render("[/] search  [j/k] move  [Enter] details  [f] refresh predictions"))
	}

	switch {
	case a.stocks.searchLoading:
		b.WriteString("\n" + muted.Render("Searching…"))
	case a.stocks.searchErr != nil:
		b.WriteString("\n" + lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface).Render(errorText(a.stocks.searchErr)))
	case a.stocks.query != "" && len(a.stocks.results) == 0:
		b.WriteString("\n" + muted.Render("No matches."))
	}

	for i, s := range a.stocks.results {
		line := fmt.Sprintf("%-8s %-*s %s", s.Symbol, max(iw-24, 10), truncStr(s.Name, max(iw-24, 10)), s.Exchange)
		if i == a.stocks.cursor {
			b.WriteString("\n" + accent.Render("▸ ") + sel.Render(line))
		} else {
			b.WriteString("\n" + muted.Render("  ") + value.Render(line))
		}
	}
	if a.stocks.resultsCached && len(a.stocks.results) > 0 {
		b.WriteString("\n" + muted.Render("(cached)"))
	}
	return b.String()
}

func (a App) renderMovers(movers []model.Mover) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	switch {
	case a.stocks.moversLoading && len(movers) == 0:
		return muted.Render("Loading…")
	case a.stocks.moversErr != nil && len(movers) == 0:
		return lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface).Render(errorText(a.stocks.moversErr))
	case len(movers) == 0:
		return muted.Render("No data")
	}

	sym := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Bold(true)
	lines := make([]string, 0, len(movers))
	for i, m := range movers {
		if i == 8 {
			break
		}
		change := lipgloss.NewStyle().Foreground(t.Change(m.ChangePercent)).Background(t.Surface)
		lines = append(lines, sym.Render(fmt.Sprintf("%-7s", m.Symbol))+
			muted.Render(fmt.Sprintf("%10s ", cli.FormatPrice(m.Price)))+
			change.Render(fmt.Sprintf("%8s", cli.FormatChange(m.ChangePercent))))
	}
	if a.stocks.movers.Stale {
		lines = append(lines, muted.Render("(stale, "+cli.FormatAge(a.stocks.movers.FetchedAt, a.now())+")"))
	}
	return strings.Join(lines, "\n")
}

func (a App) renderPredictionRows(res pipeline.PredictionsResult, byInterval bool) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	value := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	warn := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)

	if len(res.Predictions) == 0 {
		switch {
		case a.stocks.predsErr != nil && !byInterval:
			return warn.Render(errorText(a.stocks.predsErr))
		case a.stocks.intervalErr != nil && byInterval:
			return warn.Render(errorText(a.stocks.intervalErr))
		}
		return muted.Render("No data")
	}

	var b strings.Builder
	head := "Ticker "
	if byInterval {
		head = "Horizon"
	}
	b.WriteString(muted.Render(fmt.Sprintf("%-8s %12s %12s %9s  %s", head, "Current", "Predicted", "Change", "Range")))
	for _, p := range res.Predictions {
		name := p.Ticker
		if byInterval {
			name = p.Interval
		}
		b.WriteString("\n")
		if p.Error != "" {
			b.WriteString(value.Render(fmt.Sprintf("%-8s ", name)) + warn.Render(p.Error))
			continue
		}
		current := "-"
		if p.CurrentPrice > 0 {
			current = cli.FormatPrice(p.CurrentPrice)
		}
		rng := ""
		if p.HasConfidence() {
			rng = cli.FormatPrice(p.ConfidenceLow) + " – " + cli.FormatPrice(p.ConfidenceHigh)
		}
		change := lipgloss.NewStyle().Foreground(t.Change(p.Change)).Background(t.Surface)
		b.WriteString(value.Render(fmt.Sprintf("%-8s %12s %12s ", name, current, cli.FormatPrice(p.PredictedPrice))) +
			change.Render(fmt.Sprintf("%9s", cli.FormatChange(p.Change))) +
			muted.Render("  "+rng))
	}
	if res.Stale {
		b.WriteString("\n" + warn.Render("refresh failed, showing forecast from "+cli.FormatAge(res.FetchedAt, a.now())))
	}
	return b.String()
}

// detailNewsLimit caps the headlines in the stock detail card.
const detailNewsLimit = 4

func (a App) renderDetail(iw int) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	value := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	d := a.stocks.detail.Detail
	if d.Ticker != a.stocks.ticker {
		switch {
		case a.stocks.detailErr != nil:
			return lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface).Render(errorText(a.stocks.detailErr))
		case a.stocks.detailLoading:
			return muted.Render("Loading…")
		}
		return muted.Render("No data")
	}

	var lines []string
	co := d.Company
	if co.Name != "" {
		lines = append(lines, value.Bold(true).Render(truncStr(co.Name, iw)))
	}
	var facts []string
	for _, f := range []string{co.Exchange, co.Sector, co.Industry} {
		if f != "" {
			facts = append(facts, f)
		}
	}
	if co.MarketCap > 0 {
		facts = append(facts, "cap "+cli.FormatCompactMoney(co.MarketCap))
	}
	if len(facts) > 0 {
		lines = append(lines, muted.Render(truncStr(strings.Join(facts, " · "), iw)))
	}
	if co.CEO != "" {
		lines = append(lines, muted.Render("CEO ")+value.Render(truncStr(co.CEO, iw-4)))
	}

	news := d.News
	if len(news) > detailNewsLimit {
		news = news[:detailNewsLimit]
	}
	if len(news) > 0 {
		lines = append(lines, "")
	}
	for _, n := range news {
		date := n.PublishedDate
		if len(date) > len(model.DateLayout) {
			date = date[:len(model.DateLayout)]
		}
		lines = append(lines, muted.Render(fmt.Sprintf("%-11s", date))+value.Render(truncStr(n.Title, max(iw-11, 10))))
	}
	if len(lines) == 0 {
		lines = append(lines, muted.Render("No profile or news"))
	}
	if a.stocks.detail.Stale {
		lines = append(lines, muted.Render("(stale)"))
	}
	return strings.Join(lines, "\n")
}
