package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/theirongolddev/finview/internal/cli"
	"github.com/theirongolddev/finview/internal/log"
	"github.com/theirongolddev/finview/internal/model"
	"github.com/theirongolddev/finview/internal/projection"
	"github.com/theirongolddev/finview/internal/tui/components"
	"github.com/theirongolddev/finview/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// projectionState tracks the projections tab. Every edit is written back
// to the draft so the form survives restarts.
type projectionState struct {
	input   projection.Input
	saveErr error
}

func (a App) updateProjectionsKey(key string) (tea.Model, tea.Cmd, bool) {
	var (
		m   tea.Model
		cmd tea.Cmd
	)
	switch key {
	case "e", "enter":
		m, cmd = a.openPlan()
	case "m":
		m, cmd = a.openMonthlyExpense()
	case "i":
		if a.proj.input.Intervals() == 0 {
			return a, nil, true
		}
		m, cmd = a.openIntervalExpense()
	case "backspace", "d":
		a.removeLastExpense()
		m = a
	case "C":
		a.proj.input = projection.DefaultInput(a.now())
		if a.deps.Drafts != nil {
			a.proj.saveErr = projection.ClearDraft(a.deps.Drafts)
		}
		a.note("Projection cleared")
		m = a
	default:
		return a, nil, false
	}
	return m, cmd, true
}

func (a *App) saveDraft() {
	if a.deps.Drafts == nil {
		return
	}
	a.proj.saveErr = projection.SaveDraft(a.deps.Drafts, a.proj.input)
	if a.proj.saveErr != nil {
		a.log.Warn("saving projection draft failed", log.FieldError, a.proj.saveErr)
	}
}

func (a *App) applyPlan(v *formValues) {
	in := a.proj.input
	in.Timeframe = v.timeframe
	if f, err := projection.ParseFrequency(v.frequency); err == nil {
		in.Frequency = f
	}
	if d, err := time.ParseInLocation(model.DateLayout, strings.TrimSpace(v.start), a.now().Location()); err == nil {
		in.StartDate = d
	}
	in.SavingsGoal = 0
	if g, err := parseAmount(v.goal); err == nil {
		in.SavingsGoal = g
	}
	if err := in.Validate(); err != nil {
		a.noteErr(err)
		return
	}
	a.proj.input = in
	a.saveDraft()
}

// nextExpenseID hands out increasing ids; they double as insertion order.
func (a App) nextExpenseID() int64 {
	id := a.now().UnixMilli()
	for _, e := range a.proj.input.MonthlyExpenses {
		id = max(id, e.ID+1)
	}
	for _, e := range a.proj.input.IntervalExpenses {
		id = max(id, e.ID+1)
	}
	return id
}

func (a *App) addMonthlyExpense(v *formValues) {
	amount, err := parseAmount(v.amount)
	if err != nil {
		a.noteErr(err)
		return
	}
	in := a.proj.input
	in.MonthlyExpenses = append(append([]projection.MonthlyExpense(nil), in.MonthlyExpenses...),
		projection.MonthlyExpense{ID: a.nextExpenseID(), Desc: strings.TrimSpace(v.desc), Amount: amount})
	a.proj.input = in
	a.saveDraft()
}

func (a *App) addIntervalExpense(v *formValues) {
	amount, err := parseAmount(v.amount)
	if err != nil {
		a.noteErr(err)
		return
	}
	idx, err := strconv.Atoi(strings.TrimSpace(v.index))
	if err != nil {
		a.noteErr(err)
		return
	}
	in := a.proj.input
	in.IntervalExpenses = append(append([]projection.IntervalExpense(nil), in.IntervalExpenses...),
		projection.IntervalExpense{ID: a.nextExpenseID(), Desc: strings.TrimSpace(v.desc), IntervalIndex: idx, Amount: amount})
	a.proj.input = in
	a.saveDraft()
}

// removeLastExpense drops the most recently added expense of either kind.
func (a *App) removeLastExpense() {
	in := a.proj.input
	mi, ii := -1, -1
	var best int64 = -1
	for i, e := range in.MonthlyExpenses {
		if e.ID > best {
			best, mi, ii = e.ID, i, -1
		}
	}
	for i, e := range in.IntervalExpenses {
		if e.ID > best {
			best, mi, ii = e.ID, -1, i
		}
	}
	switch {
	case mi >= 0:
		in.MonthlyExpenses = append(append([]projection.MonthlyExpense(nil), in.MonthlyExpenses[:mi]...), in.MonthlyExpenses[mi+1:]...)
	case ii >= 0:
		in.IntervalExpenses = append(append([]projection.IntervalExpense(nil), in.IntervalExpenses[:ii]...), in.IntervalExpenses[ii+1:]...)
	default:
		return
	}
	a.proj.input = in
	a.saveDraft()
}

// ─── Rendering ──────────────────────────────────────────────────

func (a App) renderProjectionsTab(cw int) string {
	t := theme.Active
	in := a.proj.input
	res := projection.Compute(in)

	perColor := t.Green
	if res.PerInterval < 0 {
		perColor = t.Red
	}

	var b strings.Builder
	b.WriteString(components.MetricCardRow([]components.Metric{
		{Label: "Save per " + intervalNoun(in.Frequency), Value: cli.FormatMoney(res.PerInterval), Color: perColor,
			Delta: fmt.Sprintf("%d intervals", res.Intervals)},
		{Label: "Net to save", Value: cli.FormatSigned(res.NetToSave), Color: t.Amount(res.NetToSave)},
		{Label: "Expenses over period", Value: cli.FormatMoney(res.TotalExpensesOverPeriod),
			Delta: cli.FormatMoney(res.TotalMonthlyExpenses) + "/mo"},
		{Label: "Goal", Value: cli.FormatMoney(in.SavingsGoal), Delta: "by " + res.EndDate.Format("Jan 2, 2006")},
	}, cw))
	b.WriteString("\n")

	label := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	value := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	warn := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)
	dim := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	var plan strings.Builder
	row := func(k, v string) {
		plan.WriteString(label.Render(fmt.Sprintf("%-14s", k)) + value.Render(v) + "\n")
	}
	row("Timeframe", fmt.Sprintf("%s (%d months)", in.Timeframe, res.Months))
	row("Frequency", fmt.Sprintf("%s · %d per month", in.Frequency, in.Frequency.IntervalsPerMonth()))
	row("Period", in.StartDate.Format("Jan 2, 2006")+" → "+res.EndDate.Format("Jan 2, 2006"))
	row("Goal", cli.FormatMoney(in.SavingsGoal))
	if in.SavingsGoal > 0 {
		barW := components.CardInnerWidth(cw/2) - 20
		plan.WriteString(label.Render(fmt.Sprintf("%-14s", "Eaten by costs")))
		plan.WriteString(components.ProgressBar(res.TotalExpensesOverPeriod/in.SavingsGoal, max(barW, 10)))
		plan.WriteString("\n")
	}
	if a.proj.saveErr != nil {
		plan.WriteString(warn.Render("Draft not saved: " + a.proj.saveErr.Error()))
		plan.WriteString("\n")
	}
	plan.WriteString(dim.Render("[e] edit plan  [m] monthly  [i] one-off  [d] remove last  [C] clear"))

	expenses := a.renderExpenses(res)

	if a.isCompactLayout() {
		b.WriteString(components.ContentCard("Plan", plan.String(), cw))
		b.WriteString("\n")
		b.WriteString(components.ContentCard("Expenses", expenses, cw))
		return b.String()
	}
	ws := components.LayoutRow(cw, 2)
	b.WriteString(components.CardRow([]string{
		components.ContentCard("Plan", plan.String(), ws[0]),
		components.ContentCard("Expenses", expenses, ws[1]),
	}))
	return b.String()
}

func (a App) renderExpenses(res projection.Result) string {
	t := theme.Active
	in := a.proj.input

	head := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	label := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	warn := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)

	var b strings.Builder
	b.WriteString(head.Render("Monthly"))
	b.WriteString("\n")
	if len(in.MonthlyExpenses) == 0 {
		b.WriteString(muted.Render("  none"))
		b.WriteString("\n")
	}
	for _, e := range in.MonthlyExpenses {
		b.WriteString(label.Render(fmt.Sprintf("  %-24s", truncStr(e.Desc, 24))))
		b.WriteString(muted.Render(fmt.Sprintf("%12s/mo", cli.FormatMoney(e.Amount))))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(head.Render("One-off"))
	b.WriteString("\n")
	if len(in.IntervalExpenses) == 0 {
		b.WriteString(muted.Render("  none"))
		b.WriteString("\n")
	}
	invalid := make(map[int64]bool)
	for _, e := range projection.InvalidIntervalExpenses(in) {
		invalid[e.ID] = true
	}
	for _, e := range in.IntervalExpenses {
		style := label
		note := fmt.Sprintf("#%d", e.IntervalIndex)
		if invalid[e.ID] {
			style = warn
			note += fmt.Sprintf(" (outside 1-%d, ignored)", res.Intervals)
		}
		b.WriteString(style.Render(fmt.Sprintf("  %-24s", truncStr(e.Desc, 24))))
		b.WriteString(muted.Render(fmt.Sprintf("%12s ", cli.FormatMoney(e.Amount))))
		b.WriteString(style.Render(note))
		b.WriteString("\n")
	}
	b.WriteString(muted.Render(fmt.Sprintf("Counted one-off total: %s", cli.FormatMoney(res.TotalIntervalExpenses))))
	return b.String()
}

func intervalNoun(f projection.Frequency) string {
	switch f {
	case projection.Weekly:
		return "week"
	case projection.Biweekly:
		return "two weeks"
	}
	return "month"
}
