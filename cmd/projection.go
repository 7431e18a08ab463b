package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/theirongolddev/finview/internal/calendar"
	"github.com/theirongolddev/finview/internal/cli"
	"github.com/theirongolddev/finview/internal/projection"

	"github.com/spf13/cobra"
)

var (
	projTimeframe string
	projFrequency string
	projStart     string
	projGoal      float64
	projMonthly   []string
	projOnce      []string
	projClear     bool
	projDropLast  bool
)

var projectionCmd = &cobra.Command{
	Use:     "projection",
	Aliases: []string{"plan"},
	Short:   "Savings projection: what to set aside each week, fortnight or month",
	Long: `Show or edit the savings projection. Edits are saved to the local store
and shared with the dashboard.

  finview projection --goal 5000 --timeframe "6 months" --frequency biweekly
  finview projection --monthly "Rent=1200" --once "Flight@3=450"`,
	Args: cobra.NoArgs,
	RunE: runProjection,
}

func init() {
	projectionCmd.Flags().StringVar(&projTimeframe, "timeframe", "", "One of: "+strings.Join(projection.TimeframeLabels(), ", "))
	projectionCmd.Flags().StringVar(&projFrequency, "frequency", "", "weekly, biweekly or monthly")
	projectionCmd.Flags().StringVar(&projStart, "start", "", "Start date (YYYY-MM-DD)")
	projectionCmd.Flags().Float64Var(&projGoal, "goal", 0, "Savings goal")
	projectionCmd.Flags().StringArrayVar(&projMonthly, "monthly", nil, `Add a monthly expense "desc=amount" (repeatable)`)
	projectionCmd.Flags().StringArrayVar(&projOnce, "once", nil, `Add a one-off expense "desc@interval=amount" (repeatable)`)
	projectionCmd.Flags().BoolVar(&projClear, "clear", false, "Start over from a blank projection")
	projectionCmd.Flags().BoolVar(&projDropLast, "remove-last", false, "Remove the most recently added expense")
	rootCmd.AddCommand(projectionCmd)
}

func runProjection(cmd *cobra.Command, _ []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	now := e.loader.Now()
	fallback := projection.DefaultInput(calendar.StartOfDay(now))
	in := fallback
	if e.store != nil && !projClear {
		in = projection.LoadDraft(e.store, fallback)
	}

	flags := cmd.Flags()
	changed := false
	if flags.Changed("timeframe") {
		in.Timeframe = projTimeframe
		changed = true
	}
	if flags.Changed("frequency") {
		f, err := projection.ParseFrequency(projFrequency)
		if err != nil {
			return err
		}
		in.Frequency = f
		changed = true
	}
	if flags.Changed("start") {
		if in.StartDate, err = parseDate(projStart, now.Location()); err != nil {
			return err
		}
		changed = true
	}
	if flags.Changed("goal") {
		in.SavingsGoal = projGoal
		changed = true
	}
	if err := in.Validate(); err != nil {
		return err
	}

	nextID := nextExpenseID(in, now)
	for _, arg := range projMonthly {
		desc, amount, err := splitExpense(arg)
		if err != nil {
			return err
		}
		in.MonthlyExpenses = append(in.MonthlyExpenses, projection.MonthlyExpense{ID: nextID, Desc: desc, Amount: amount})
		nextID++
		changed = true
	}
	for _, arg := range projOnce {
		desc, idx, amount, err := splitIntervalExpense(arg)
		if err != nil {
			return err
		}
		in.IntervalExpenses = append(in.IntervalExpenses,
			projection.IntervalExpense{ID: nextID, Desc: desc, IntervalIndex: idx, Amount: amount})
		nextID++
		changed = true
	}
	if projDropLast {
		in = dropLastExpense(in)
		changed = true
	}

	switch {
	case !changed && !projClear:
		// nothing to persist
	case e.store == nil:
		fmt.Println(cli.Warn("  Local store unavailable, changes were not saved"))
	case !changed:
		if err := projection.ClearDraft(e.store); err != nil {
			return err
		}
	default:
		if err := projection.SaveDraft(e.store, in); err != nil {
			return err
		}
	}

	printProjection(in)
	return nil
}

func printProjection(in projection.Input) {
	res := projection.Compute(in)

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("SAVINGS PROJECTION  %s", strings.ToUpper(in.Timeframe))))
	fmt.Println()

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Plan", "Value"},
		Rows: [][]string{
			{"Period", in.StartDate.Format("Jan 2, 2006") + " → " + res.EndDate.Format("Jan 2, 2006")},
			{"Frequency", fmt.Sprintf("%s (%d intervals)", in.Frequency, res.Intervals)},
			{"Savings goal", cli.FormatMoney(in.SavingsGoal)},
			{"---"},
			{"Monthly expenses", cli.FormatMoney(res.TotalMonthlyExpenses) + "/mo"},
			{"One-off expenses", cli.FormatMoney(res.TotalIntervalExpenses)},
			{"Expenses over period", cli.FormatMoney(res.TotalExpensesOverPeriod)},
			{"---"},
			{"Net to save", cli.ColorAmount(res.NetToSave, cli.FormatSigned(res.NetToSave))},
			{"Per interval", cli.ColorAmount(res.PerInterval, cli.FormatMoney(res.PerInterval))},
		},
	}))

	if len(in.MonthlyExpenses) == 0 && len(in.IntervalExpenses) == 0 {
		fmt.Println(cli.Muted("\n  No expenses yet. Add some with --monthly or --once."))
		return
	}

	invalid := make(map[int64]bool)
	for _, e := range projection.InvalidIntervalExpenses(in) {
		invalid[e.ID] = true
	}
	rows := make([][]string, 0, len(in.MonthlyExpenses)+len(in.IntervalExpenses))
	for _, e := range in.MonthlyExpenses {
		rows = append(rows, []string{e.Desc, "monthly", cli.FormatMoney(e.Amount)})
	}
	for _, e := range in.IntervalExpenses {
		when := fmt.Sprintf("interval %d", e.IntervalIndex)
		if invalid[e.ID] {
			when = cli.Warn(fmt.Sprintf("interval %d (outside 1-%d, ignored)", e.IntervalIndex, res.Intervals))
		}
		rows = append(rows, []string{e.Desc, when, cli.FormatMoney(e.Amount)})
	}
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Expenses",
		Headers: []string{"Description", "When", "Amount"},
		Rows:    rows,
	}))
}

// nextExpenseID returns an id above every existing one.
func nextExpenseID(in projection.Input, now time.Time) int64 {
	id := now.UnixMilli()
	for _, e := range in.MonthlyExpenses {
		id = max(id, e.ID+1)
	}
	for _, e := range in.IntervalExpenses {
		id = max(id, e.ID+1)
	}
	return id
}

func dropLastExpense(in projection.Input) projection.Input {
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
		in.MonthlyExpenses = append(in.MonthlyExpenses[:mi:mi], in.MonthlyExpenses[mi+1:]...)
	case ii >= 0:
		in.IntervalExpenses = append(in.IntervalExpenses[:ii:ii], in.IntervalExpenses[ii+1:]...)
	}
	return in
}

// splitExpense parses "desc=amount".
func splitExpense(arg string) (string, float64, error) {
	desc, amt, ok := strings.Cut(arg, "=")
	desc = strings.TrimSpace(desc)
	if !ok || desc == "" {
		return "", 0, fmt.Errorf("expense %q: want desc=amount", arg)
	}
	amount, err := parseAmount(amt)
	if err != nil {
		return "", 0, fmt.Errorf("expense %q: %w", arg, err)
	}
	return desc, amount, nil
}

// splitIntervalExpense parses "desc@interval=amount".
func splitIntervalExpense(arg string) (string, int, float64, error) {
	head, amount, err := splitExpense(arg)
	if err != nil {
		return "", 0, 0, err
	}
	desc, idxStr, ok := strings.Cut(head, "@")
	if !ok {
		return "", 0, 0, fmt.Errorf("expense %q: want desc@interval=amount", arg)
	}
	idx, err := strconv.Atoi(strings.TrimSpace(idxStr))
	if err != nil {
		return "", 0, 0, fmt.Errorf("expense %q: interval must be a number", arg)
	}
	return strings.TrimSpace(desc), idx, amount, nil
}
