package cmd

import (
	"errors"
	"fmt"

	"github.com/theirongolddev/finview/internal/calendar"
	"github.com/theirongolddev/finview/internal/cli"
	"github.com/theirongolddev/finview/internal/pipeline"

	"github.com/spf13/cobra"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Income, spend and net over the last N days",
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, _ []string) error {
	if flagDays < 1 {
		return errors.New("--days must be at least 1")
	}
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	until := calendar.StartOfDay(e.loader.Now())
	since := until.AddDate(0, 0, -(flagDays - 1))
	prevSince := since.AddDate(0, 0, -flagDays)
	prevUntil := since.AddDate(0, 0, -1)

	ctx, cancel := commandContext(cmd)
	defer cancel()

	progress("  Loading transactions...\n")
	// One fetch covers both periods.
	res, err := e.loader.LoadRange(ctx, prevSince, until, false)
	if err != nil {
		return err
	}

	stats := pipeline.Summarize(res.Transactions, since, until)
	prev := pipeline.Summarize(res.Transactions, prevSince, prevUntil)

	if stats.Transactions == 0 {
		fmt.Println("\n  No transactions found in the selected time range.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("FINANCE SUMMARY  Last %dd", flagDays)))
	fmt.Println()

	days := float64(flagDays)
	spendDay := fmt.Sprintf("%s/day", cli.FormatMoney(stats.Spend/days))
	if prev.Spend > 0 {
		spendDay += fmt.Sprintf("  (%s vs prev %dd)", formatDelta(stats.Spend, prev.Spend), flagDays)
	}

	rows := [][]string{
		{"Transactions", cli.FormatNumber(int64(stats.Transactions))},
		{"Active days", fmt.Sprintf("%d of %d", stats.ActiveDays, flagDays)},
		{"---"},
		{"Income", cli.ColorAmount(stats.Income, cli.FormatMoney(stats.Income))},
		{"Spend", cli.ColorAmount(-stats.Spend, cli.FormatMoney(stats.Spend))},
		{"Net", cli.ColorAmount(stats.Net, cli.FormatSigned(stats.Net))},
		{"---"},
		{"Spend/day", spendDay},
		{"Previous net", cli.ColorAmount(prev.Net, cli.FormatSigned(prev.Net))},
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "Value"},
		Rows:    rows,
	}))

	spend := pipeline.SpendByCategory(pipeline.FilterByDate(res.Transactions, since, until, since.Location()))
	if shares := pipeline.CategoryShares(spend); len(shares) > 0 {
		fmt.Println()
		fmt.Println(cli.RenderTitle("SPEND BY CATEGORY"))
		fmt.Println()
		fmt.Print(cli.RenderCategoryBars(shares, 30))
	}
	return nil
}

// formatDelta formats the percentage change from prev to cur.
func formatDelta(cur, prev float64) string {
	if prev == 0 {
		return "n/a"
	}
	return cli.FormatChange((cur - prev) / prev * 100)
}
