package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/finview/internal/calendar"
	"github.com/theirongolddev/finview/internal/cli"
	"github.com/theirongolddev/finview/internal/model"
	"github.com/theirongolddev/finview/internal/pipeline"

	"github.com/spf13/cobra"
)

var (
	calMonth   bool
	calWeek    bool
	calOffset  int
	calDate    string
	calRefresh bool
)

var calendarCmd = &cobra.Command{
	Use:     "calendar",
	Aliases: []string{"cal"},
	Short:   "Transactions for a week or month",
	RunE:    runCalendar,
}

func init() {
	calendarCmd.Flags().BoolVar(&calMonth, "month", false, "Show the month grid")
	calendarCmd.Flags().BoolVar(&calWeek, "week", false, "Show the week list")
	calendarCmd.Flags().IntVarP(&calOffset, "offset", "o", 0, "Weeks or months from the current one (negative for past)")
	calendarCmd.Flags().StringVar(&calDate, "date", "", "Anchor date (YYYY-MM-DD), defaults to today")
	calendarCmd.Flags().BoolVar(&calRefresh, "refresh", false, "Bypass the cache")
	calendarCmd.MarkFlagsMutuallyExclusive("month", "week")
	rootCmd.AddCommand(calendarCmd)
}

func runCalendar(cmd *cobra.Command, _ []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	mode := calendar.ParseViewMode(e.cfg.General.DefaultView)
	switch {
	case calMonth:
		mode = calendar.ModeMonth
	case calWeek:
		mode = calendar.ModeWeek
	}

	now := e.loader.Now()
	today := calendar.StartOfDay(now)
	ref := today
	if calDate != "" {
		ref, err = time.ParseInLocation(model.DateLayout, calDate, now.Location())
		if err != nil {
			return fmt.Errorf("invalid --date %q (use YYYY-MM-DD)", calDate)
		}
	}
	ref = calendar.Shift(mode, ref, calOffset)

	ctx, cancel := commandContext(cmd)
	defer cancel()

	progress("  Loading transactions...\n")
	res, err := e.loader.LoadView(ctx, mode, ref, calRefresh)
	if err != nil {
		return err
	}
	grouped := calendar.GroupByDate(res.Transactions)
	start, end := calendar.Range(mode, ref)

	fmt.Println()
	if mode == calendar.ModeMonth {
		fmt.Println(cli.RenderTitle(strings.ToUpper(ref.Format("January 2006"))))
		fmt.Println()
		fmt.Print(cli.RenderMonthGrid(calendar.FillMonth(calendar.BuildMonthBuckets(ref), grouped), today))
	} else {
		fmt.Println(cli.RenderTitle("WEEK OF " + strings.ToUpper(start.Format("Jan 2, 2006"))))
		fmt.Println()
		fmt.Print(cli.RenderWeek(calendar.FillWeek(calendar.BuildWeekBuckets(start), grouped), today))
	}
	fmt.Println()

	printPeriodSummary(res.Transactions, start, end)
	if res.FromCache {
		fmt.Println(cli.Muted("  (from cache, use --refresh to reload)"))
	}
	return nil
}

// printPeriodSummary renders income, spend and net for [start, end].
func printPeriodSummary(txs []model.Transaction, start, end time.Time) {
	s := pipeline.Summarize(txs, start, end)
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Period", "Value"},
		Rows: [][]string{
			{"Transactions", cli.FormatNumber(int64(s.Transactions))},
			{"Income", cli.ColorAmount(s.Income, cli.FormatMoney(s.Income))},
			{"Spend", cli.ColorAmount(-s.Spend, cli.FormatMoney(s.Spend))},
			{"---"},
			{"Net", cli.ColorAmount(s.Net, cli.FormatSigned(s.Net))},
		},
	}))
}
