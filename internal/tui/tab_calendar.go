package tui

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/theirongolddev/finview/internal/calendar"
	"github.com/theirongolddev/finview/internal/cli"
	"github.com/theirongolddev/finview/internal/model"
	"github.com/theirongolddev/finview/internal/pipeline"
	"github.com/theirongolddev/finview/internal/respcache"
	"github.com/theirongolddev/finview/internal/tui/components"
	"github.com/theirongolddev/finview/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// calendarState tracks the calendar tab.
type calendarState struct {
	mode calendar.ViewMode
	ref  time.Time // anchors the visible week or month
	sel  time.Time // selected day

	txs     []model.Transaction
	grouped map[string][]model.Transaction
	days    []calendar.Bucket // week: 7 buckets; month: whole grid rows

	loading   bool
	fromCache bool
	fetchedAt time.Time
	err       error

	upcoming    []model.Transaction
	upcomingErr error

	balances       []model.Balance
	balancesLoaded bool
	balancesErr    error
}

func newCalendarState(mode calendar.ViewMode, today time.Time) calendarState {
	return calendarState{
		mode:    mode,
		ref:     today,
		sel:     today,
		days:    buildDays(mode, today, nil),
		loading: true,
	}
}

func (s calendarState) rangeKey() string {
	start, end := calendar.Range(s.mode, s.ref)
	return respcache.RangeKey(respcache.KindTransactions, start, end).Key
}

// buildDays lays out the buckets for the view around ref with grouped
// transactions attached. Month grids are flattened row by row.
func buildDays(mode calendar.ViewMode, ref time.Time, grouped map[string][]model.Transaction) []calendar.Bucket {
	if mode == calendar.ModeMonth {
		var days []calendar.Bucket
		for _, w := range calendar.FillMonth(calendar.BuildMonthBuckets(ref), grouped) {
			days = append(days, w.Days()...)
		}
		return days
	}
	w := calendar.FillWeek(calendar.BuildWeekBuckets(calendar.StartOfWeek(ref)), grouped)
	return w.Days()
}

func (a App) updateCalendarKey(key string) (tea.Model, tea.Cmd, bool) {
	var (
		m   tea.Model
		cmd tea.Cmd
	)
	switch key {
	case "h":
		m, cmd = a.moveSelection(-1)
	case "l":
		m, cmd = a.moveSelection(1)
	case "j", "down":
		m, cmd = a.moveSelection(7)
	case "k", "up":
		m, cmd = a.moveSelection(-7)
	case "[":
		m, cmd = a.shiftPeriod(-1)
	case "]":
		m, cmd = a.shiftPeriod(1)
	case "t":
		m, cmd = a.selectDay(a.now())
	case "w":
		m, cmd = a.setViewMode(calendar.ModeWeek)
	case "m":
		m, cmd = a.setViewMode(calendar.ModeMonth)
	case "a", "enter":
		m, cmd = a.openAddTransaction()
	default:
		return a, nil, false
	}
	return m, cmd, true
}

func (a App) moveSelection(days int) (tea.Model, tea.Cmd) {
	return a.selectDay(a.cal.sel.AddDate(0, 0, days))
}

// selectDay moves the cursor, following it into the next range when it
// leaves the visible one.
func (a App) selectDay(d time.Time) (tea.Model, tea.Cmd) {
	d = calendar.StartOfDay(d)
	a.cal.sel = d
	start, end := calendar.Range(a.cal.mode, a.cal.ref)
	if d.Before(start) || d.After(end) {
		a.cal.ref = d
		return a.reloadCalendar()
	}
	return a, nil
}

func (a App) shiftPeriod(n int) (tea.Model, tea.Cmd) {
	a.cal.ref = calendar.Shift(a.cal.mode, a.cal.ref, n)
	a.cal.sel = a.cal.ref
	return a.reloadCalendar()
}

func (a App) setViewMode(mode calendar.ViewMode) (tea.Model, tea.Cmd) {
	if a.cal.mode == mode {
		return a, nil
	}
	a.cal.mode = mode
	a.cal.ref = a.cal.sel
	return a.reloadCalendar()
}

// reloadCalendar resets the grid for the new range and fetches it. Any
// response still in flight for the old range is superseded.
func (a App) reloadCalendar() (tea.Model, tea.Cmd) {
	a.cal.loading = true
	a.cal.err = nil
	a.cal.txs = nil
	a.cal.grouped = nil
	a.cal.fromCache = false
	a.cal.days = buildDays(a.cal.mode, a.cal.ref, nil)
	cmd := a.loadCalendarCmd(false)
	return a, cmd
}

func (a App) onRange(msg rangeMsg) (tea.Model, tea.Cmd) {
	cmd := a.markLoaded()
	if !a.guards.cal.Current(msg.ticket) {
		return a, cmd
	}
	a.cal.loading = false
	if msg.err != nil {
		a.cal.err = msg.err
		a.noteErr(msg.err)
		return a, cmd
	}

	a.cal.err = nil
	a.cal.txs = msg.res.Transactions
	a.cal.grouped = calendar.GroupByDate(msg.res.Transactions)
	a.cal.days = buildDays(a.cal.mode, a.cal.ref, a.cal.grouped)
	a.cal.fromCache = msg.res.FromCache
	a.cal.fetchedAt = a.now()
	return a, cmd
}

func (a App) onUpcoming(msg upcomingMsg) (tea.Model, tea.Cmd) {
	if !a.guards.upcoming.Current(msg.ticket) {
		return a, nil
	}
	a.cal.upcoming, a.cal.upcomingErr = msg.txs, msg.err
	return a, nil
}

func (a App) onBalances(msg balancesMsg) (tea.Model, tea.Cmd) {
	if !a.guards.balances.Current(msg.ticket) {
		return a, nil
	}
	a.cal.balancesLoaded = true
	a.cal.balancesErr = msg.err
	if msg.err == nil {
		a.cal.balances = msg.balances
	}
	return a, nil
}

// applyOptimistic shows tx immediately, before the backend confirms it.
// A calendar fetch already in flight would not contain tx, so it is
// superseded.
func (a *App) applyOptimistic(tx model.Transaction) {
	a.cal.days = calendar.ApplyOptimisticInsert(a.cal.days, tx)
	a.cal.grouped = calendar.InsertGrouped(a.cal.grouped, tx)

	start, end := calendar.Range(a.cal.mode, a.cal.ref)
	if d := tx.Day(start.Location()); !d.Before(start) && !d.After(end) {
		a.cal.txs = append(slices.Clone(a.cal.txs), tx)
	}
	a.guards.cal.Issue(a.cal.rangeKey())
	a.cal.loading = false
}

func (a App) onTxSaved(msg txSavedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		a.noteErr(msg.err)
		// Drop the optimistic row by reloading what the backend has.
		a.cal.loading = true
		cmd := a.loadCalendarCmd(true)
		return a, cmd
	}
	a.note(fmt.Sprintf("Added %s %s on %s", msg.tx.Label(), cli.FormatSigned(msg.tx.Amount), msg.tx.DateKey()))
	cmd := a.loadUpcomingCmd(false)
	return a, cmd
}

// ─── Rendering ──────────────────────────────────────────────────

func (a App) renderCalendarTab(cw int) string {
	t := theme.Active
	start, end := calendar.Range(a.cal.mode, a.cal.ref)
	sum := pipeline.Summarize(a.cal.txs, start, end)

	var b strings.Builder
	b.WriteString(components.MetricCardRow([]components.Metric{
		{Label: "Income", Value: cli.FormatMoney(sum.Income), Color: t.Green},
		{Label: "Spend", Value: cli.FormatMoney(sum.Spend), Color: t.Red},
		{Label: "Net", Value: cli.FormatSigned(sum.Net), Color: t.Amount(sum.Net)},
		{Label: "Transactions", Value: cli.FormatNumber(int64(sum.Transactions)),
			Delta: fmt.Sprintf("%d active days", sum.ActiveDays)},
	}, cw))
	b.WriteString("\n")

	title := "Week of " + start.Format("Jan 2, 2006")
	grid := a.renderWeekList(components.CardInnerWidth(cw))
	if a.cal.mode == calendar.ModeMonth {
		title = start.Format("January 2006")
		grid = a.renderMonthGrid(components.CardInnerWidth(cw))
	}
	if a.cal.loading {
		title += " · loading…"
	}
	b.WriteString(components.ContentCard(title, grid, cw))
	b.WriteString("\n")

	if a.isCompactLayout() {
		b.WriteString(components.ContentCard(a.cal.sel.Format("Mon Jan 2"), a.renderDayDetail(components.CardInnerWidth(cw)), cw))
		b.WriteString("\n")
		b.WriteString(components.ContentCard("Upcoming", a.renderUpcoming(components.CardInnerWidth(cw)), cw))
	} else {
		ws := components.LayoutRow(cw, 2)
		b.WriteString(components.CardRow([]string{
			components.ContentCard(a.cal.sel.Format("Monday, Jan 2"), a.renderDayDetail(components.CardInnerWidth(ws[0])), ws[0]),
			components.ContentCard("Upcoming · next 30 days", a.renderUpcoming(components.CardInnerWidth(ws[1])), ws[1]),
		}))
	}
	b.WriteString("\n")
	b.WriteString(components.ContentCard(a.balancesTitle(), a.renderBalances(components.CardInnerWidth(cw)), cw))
	b.WriteString("\n")
	b.WriteString(components.ContentCard("Daily spend", a.renderSpendChart(components.CardInnerWidth(cw), start, end), cw))
	return b.String()
}

func (a App) renderWeekList(iw int) string {
	t := theme.Active
	today := calendar.StartOfDay(a.now())
	bg := lipgloss.NewStyle().Background(t.Surface)

	var b strings.Builder
	for i, day := range a.cal.days {
		selected := day.Date.Equal(a.cal.sel)
		rowBg := t.Surface
		if selected {
			rowBg = t.SurfaceBright
		}
		base := lipgloss.NewStyle().Background(rowBg)
		dateStyle := base.Foreground(t.TextPrimary)
		if day.Date.Equal(today) {
			dateStyle = dateStyle.Foreground(t.AccentBright).Bold(true)
		}
		marker := base.Render("  ")
		if selected {
			marker = base.Foreground(t.AccentBright).Render("▸ ")
		}

		net := calendar.DayNet(day)
		amount := base.Foreground(t.Amount(net)).Render(fmt.Sprintf("%12s", cli.FormatSigned(net)))
		if len(day.Transactions) == 0 {
			amount = base.Foreground(t.TextDim).Render(fmt.Sprintf("%12s", "·"))
		}
		count := base.Foreground(t.TextMuted).Render(fmt.Sprintf("  %-6s", txCount(len(day.Transactions))))

		line := marker + dateStyle.Render(fmt.Sprintf("%-11s", cli.FormatDay(day.Date))) + amount + count
		room := iw - lipgloss.Width(line) - 1
		if room > 4 && len(day.Transactions) > 0 {
			labels := make([]string, 0, len(day.Transactions))
			for _, tx := range day.Transactions {
				labels = append(labels, tx.Label())
			}
			line += base.Foreground(t.TextMuted).Render(" " + truncStr(strings.Join(labels, ", "), room))
		}
		if pad := iw - lipgloss.Width(line); pad > 0 {
			line += base.Render(strings.Repeat(" ", pad))
		}
		b.WriteString(line)
		if i < len(a.cal.days)-1 {
			b.WriteString("\n")
		}
	}
	if a.cal.err != nil {
		b.WriteString("\n")
		b.WriteString(bg.Foreground(t.Orange).Render(errorText(a.cal.err)))
	}
	return b.String()
}

func (a App) renderMonthGrid(iw int) string {
	t := theme.Active
	today := calendar.StartOfDay(a.now())
	cellW := iw / 7
	if cellW < 8 {
		cellW = 8
	}
	bg := lipgloss.NewStyle().Background(t.Surface)

	var b strings.Builder
	for wd := 0; wd < 7; wd++ {
		b.WriteString(bg.Foreground(t.TextMuted).Bold(true).Render(fmt.Sprintf("%-*s", cellW, cli.FormatDayOfWeek(wd))))
	}

	for i, day := range a.cal.days {
		if i%7 == 0 {
			b.WriteString("\n")
		}
		cellBg := t.Surface
		if day.Date.Equal(a.cal.sel) {
			cellBg = t.SurfaceBright
		}
		base := lipgloss.NewStyle().Background(cellBg)

		numStyle := base.Foreground(t.TextPrimary)
		switch {
		case !day.InCurrentPeriod:
			numStyle = base.Foreground(t.TextDim)
		case day.Date.Equal(today):
			numStyle = base.Foreground(t.AccentBright).Bold(true)
		}
		cell := numStyle.Render(fmt.Sprintf("%2d ", day.Date.Day()))

		if len(day.Transactions) > 0 {
			net := calendar.DayNet(day)
			cell += base.Foreground(t.Amount(net)).Render(truncStr(cli.FormatCompactMoney(net), cellW-4))
		}
		if pad := cellW - lipgloss.Width(cell); pad > 0 {
			cell += base.Render(strings.Repeat(" ", pad))
		}
		b.WriteString(cell)
	}
	if a.cal.err != nil {
		b.WriteString("\n")
		b.WriteString(bg.Foreground(t.Orange).Render(errorText(a.cal.err)))
	}
	return b.String()
}

func (a App) renderDayDetail(iw int) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	txs := a.cal.grouped[a.cal.sel.Format(model.DateLayout)]
	if len(txs) == 0 {
		if a.cal.loading {
			return muted.Render("Loading…")
		}
		return muted.Render("No transactions. Press [a] to add one.")
	}
	return renderTxLines(txs, iw, func(tx model.Transaction) string { return tx.Category })
}

func (a App) renderUpcoming(iw int) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	switch {
	case a.cal.upcomingErr != nil:
		return lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface).Render(errorText(a.cal.upcomingErr))
	case len(a.cal.upcoming) == 0:
		return muted.Render("Nothing scheduled.")
	}
	return renderTxLines(a.cal.upcoming, iw, func(tx model.Transaction) string {
		return tx.Day(a.now().Location()).Format("Jan 2")
	})
}

func (a App) balancesTitle() string {
	if len(a.cal.balances) == 0 {
		return "Balances"
	}
	return "Balances · " + cli.FormatMoney(model.TotalBalance(a.cal.balances))
}

func (a App) renderBalances(iw int) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	switch {
	case a.cal.balancesErr != nil && len(a.cal.balances) == 0:
		return lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface).Render(errorText(a.cal.balancesErr))
	case !a.cal.balancesLoaded:
		return muted.Render("Loading…")
	case len(a.cal.balances) == 0:
		return muted.Render("No balances. Set one with `finview balances set`.")
	}

	base := lipgloss.NewStyle().Background(t.Surface)
	nameW := iw - 26
	if nameW < 8 {
		nameW = 8
	}
	lines := make([]string, 0, len(a.cal.balances))
	for _, bal := range a.cal.balances {
		line := base.Foreground(t.TextPrimary).Render(fmt.Sprintf("%-*s", nameW, truncStr(titleCase(bal.Name), nameW))) +
			base.Foreground(t.TextPrimary).Render(fmt.Sprintf("%13s", cli.FormatMoney(bal.Amount)))
		if c := bal.Change(); c != 0 {
			line += base.Foreground(t.Amount(c)).Render(fmt.Sprintf("%13s", cli.FormatSigned(c)))
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// renderTxLines lists transactions as "label  note  amount" rows.
func renderTxLines(txs []model.Transaction, iw int, note func(model.Transaction) string) string {
	t := theme.Active
	base := lipgloss.NewStyle().Background(t.Surface)

	amountW := 12
	noteW := 10
	labelW := iw - amountW - noteW - 2
	if labelW < 8 {
		labelW = 8
	}

	lines := make([]string, 0, len(txs))
	for _, tx := range txs {
		lines = append(lines,
			base.Foreground(t.TextPrimary).Render(fmt.Sprintf("%-*s ", labelW, truncStr(tx.Label(), labelW)))+
				base.Foreground(t.TextMuted).Render(fmt.Sprintf("%-*s ", noteW, truncStr(note(tx), noteW)))+
				base.Foreground(t.Amount(tx.Amount)).Render(fmt.Sprintf("%*s", amountW, cli.FormatSigned(tx.Amount))))
	}
	return strings.Join(lines, "\n")
}

func (a App) renderSpendChart(iw int, start, end time.Time) string {
	t := theme.Active
	days := pipeline.AggregateDays(a.cal.txs, start, end)
	if len(days) == 0 {
		return lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Render("No data")
	}

	// AggregateDays is newest first; charts read left to right.
	values := make([]float64, len(days))
	labels := make([]string, len(days))
	for i, d := range days {
		j := len(days) - 1 - i
		if d.Net < 0 {
			values[j] = -d.Net
		}
		labels[j] = d.Date.Format("Jan 2")
	}
	return components.BarChart(values, labels, t.Red, iw, 5)
}

func txCount(n int) string {
	switch n {
	case 0:
		return ""
	case 1:
		return "1 tx"
	}
	return fmt.Sprintf("%d tx", n)
}
