package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/theirongolddev/finview/internal/calendar"
	"github.com/theirongolddev/finview/internal/model"
	"github.com/theirongolddev/finview/internal/pipeline"
	"github.com/theirongolddev/finview/internal/projection"
	"github.com/theirongolddev/finview/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

type formKind int

const (
	formNone formKind = iota
	formSetup
	formAddTx
	formPlan
	formMonthly
	formInterval
)

// formValues backs every modal form. It lives behind a pointer because huh
// binds fields by address and the App is copied on every update.
type formValues struct {
	// transaction
	merchant string
	category string
	amount   string
	kind     string // expense or income
	date     string

	// projection plan
	timeframe string
	frequency string
	start     string
	goal      string

	// projection expenses
	desc  string
	index string

	// setup
	baseURL string
	theme   string
	view    string
}

const (
	kindExpense = "expense"
	kindIncome  = "income"
)

func (a App) formWidth() int {
	w := a.width - 8
	if w > 72 {
		w = 72
	}
	if w < 40 {
		w = 40
	}
	return w
}

func huhTheme() *huh.Theme {
	switch theme.Active.Name {
	case "catppuccin-mocha":
		return huh.ThemeCatppuccin()
	case "terminal":
		return huh.ThemeBase16()
	}
	return huh.ThemeCharm()
}

// openForm shows f as a modal until it completes or is aborted.
func (a App) openForm(kind formKind, f *huh.Form, vals *formValues) (tea.Model, tea.Cmd) {
	f = f.WithTheme(huhTheme()).WithShowHelp(true).WithWidth(a.formWidth())
	if a.height > 0 {
		f = f.WithHeight(a.height - 6)
	}
	a.form = f
	a.formKind = kind
	a.formVals = vals
	return a, f.Init()
}

func (a App) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.form = f
	}

	switch a.form.State {
	case huh.StateCompleted:
		kind, vals := a.formKind, a.formVals
		a.closeForm()
		return a.applyForm(kind, vals)
	case huh.StateAborted:
		if a.formKind == formSetup {
			a.needSetup = false
		}
		a.closeForm()
		return a, nil
	}
	return a, cmd
}

func (a *App) closeForm() {
	a.form = nil
	a.formKind = formNone
	a.formVals = nil
}

func (a App) applyForm(kind formKind, v *formValues) (tea.Model, tea.Cmd) {
	switch kind {
	case formSetup:
		a.saveSetup(v)
		return a.reloadCalendar()
	case formAddTx:
		return a.submitTransaction(v)
	case formPlan:
		a.applyPlan(v)
	case formMonthly:
		a.addMonthlyExpense(v)
	case formInterval:
		a.addIntervalExpense(v)
	}
	return a, nil
}

// markLoaded flips the dashboard out of its loading screen. On a first run
// the setup form opens once the first data arrives.
func (a *App) markLoaded() tea.Cmd {
	if a.loaded {
		return nil
	}
	a.loaded = true
	if !a.needSetup {
		return nil
	}
	m, cmd := a.openSetup()
	*a = m.(App)
	return cmd
}

func (a App) viewForm() string {
	t := theme.Active

	titles := map[formKind]string{
		formSetup:    "◈ Welcome to finview",
		formAddTx:    "◈ Add transaction",
		formPlan:     "◈ Projection plan",
		formMonthly:  "◈ Monthly expense",
		formInterval: "◈ One-off expense",
	}
	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Bold(true)
	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Padding(1, 2)

	card := cardStyle.Render(titleStyle.Render(titles[a.formKind]) + "\n\n" + a.form.View())
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card,
		lipgloss.WithWhitespaceBackground(t.Background))
}

// ─── Transactions ───────────────────────────────────────────────

func (a App) openAddTransaction() (tea.Model, tea.Cmd) {
	v := &formValues{kind: kindExpense, date: a.cal.sel.Format(model.DateLayout)}
	f := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Merchant").Value(&v.merchant).Validate(required("merchant")),
			huh.NewInput().Title("Category").Placeholder("Groceries").Value(&v.category),
			huh.NewInput().Title("Amount").Placeholder("12.50").Value(&v.amount).Validate(validAmount),
			huh.NewSelect[string]().Title("Type").
				Options(huh.NewOption("Expense", kindExpense), huh.NewOption("Income", kindIncome)).
				Value(&v.kind),
			huh.NewInput().Title("Date").Placeholder(model.DateLayout).Value(&v.date).Validate(validDate),
		),
	)
	return a.openForm(formAddTx, f, v)
}

func (a App) submitTransaction(v *formValues) (tea.Model, tea.Cmd) {
	amount, err := parseAmount(v.amount)
	if err != nil {
		a.noteErr(err)
		return a, nil
	}
	if v.kind == kindExpense {
		amount = -amount
	}
	date, err := time.ParseInLocation(model.DateLayout, strings.TrimSpace(v.date), a.now().Location())
	if err != nil {
		a.noteErr(err)
		return a, nil
	}

	tx := pipeline.NewTransaction(strings.TrimSpace(v.merchant), strings.TrimSpace(v.category),
		amount, date, a.cfg.General.Currency)
	a.applyOptimistic(tx)
	a.cal.sel = calendar.StartOfDay(date)
	return a, addTxCmd(a.deps.Loader, tx)
}

// ─── Projections ────────────────────────────────────────────────

func (a App) openPlan() (tea.Model, tea.Cmd) {
	in := a.proj.input
	v := &formValues{
		timeframe: in.Timeframe,
		frequency: string(in.Frequency),
		start:     in.StartDate.Format(model.DateLayout),
		goal:      strconv.FormatFloat(in.SavingsGoal, 'f', -1, 64),
	}

	freqs := make([]huh.Option[string], len(projection.Frequencies))
	for i, f := range projection.Frequencies {
		freqs[i] = huh.NewOption(string(f), string(f))
	}
	f := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().Title("Timeframe").
				Options(huh.NewOptions(projection.TimeframeLabels()...)...).
				Value(&v.timeframe),
			huh.NewSelect[string]().Title("Savings frequency").Options(freqs...).Value(&v.frequency),
			huh.NewInput().Title("Start date").Placeholder(model.DateLayout).Value(&v.start).Validate(validDate),
			huh.NewInput().Title("Savings goal").Placeholder("5000").Value(&v.goal).Validate(validGoal),
		),
	)
	return a.openForm(formPlan, f, v)
}

func (a App) openMonthlyExpense() (tea.Model, tea.Cmd) {
	v := &formValues{}
	f := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Description").Value(&v.desc).Validate(required("description")),
			huh.NewInput().Title("Amount per month").Value(&v.amount).Validate(validAmount),
		),
	)
	return a.openForm(formMonthly, f, v)
}

func (a App) openIntervalExpense() (tea.Model, tea.Cmd) {
	v := &formValues{}
	n := a.proj.input.Intervals()
	f := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Description").Value(&v.desc).Validate(required("description")),
			huh.NewInput().Title(fmt.Sprintf("Interval (1-%d)", n)).Value(&v.index).Validate(validIndex(n)),
			huh.NewInput().Title("Amount").Value(&v.amount).Validate(validAmount),
		),
	)
	return a.openForm(formInterval, f, v)
}

// ─── Validation ─────────────────────────────────────────────────

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func parseAmount(s string) (float64, error) {
	s = strings.NewReplacer("$", "", ",", "").Replace(strings.TrimSpace(s))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.New("enter a number, e.g. 12.50")
	}
	if v <= 0 {
		return 0, errors.New("amount must be greater than zero")
	}
	return v, nil
}

func validAmount(s string) error {
	_, err := parseAmount(s)
	return err
}

func validGoal(s string) error {
	if strings.TrimSpace(s) == "" || strings.TrimSpace(s) == "0" {
		return nil
	}
	return validAmount(s)
}

func validDate(s string) error {
	if _, err := time.Parse(model.DateLayout, strings.TrimSpace(s)); err != nil {
		return errors.New("use YYYY-MM-DD")
	}
	return nil
}

func validIndex(n int) func(string) error {
	return func(s string) error {
		i, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil || i < 1 || i > n {
			return fmt.Errorf("pick an interval between 1 and %d", n)
		}
		return nil
	}
}
