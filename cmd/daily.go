package cmd

import (
	"errors"
	"fmt"

	"github.com/theirongolddev/finview/internal/calendar"
	"github.com/theirongolddev/finview/internal/cli"
	"github.com/theirongolddev/finview/internal/model"
	"github.com/theirongolddev/finview/internal/pipeline"

	"github.com/spf13/cobra"
)

var dailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Daily net table",
	RunE:  runDaily,
}

func init() {
	rootCmd.AddCommand(dailyCmd)
}

func runDaily(cmd *cobra.Command, _ []string) error {
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

	ctx, cancel := commandContext(cmd)
	defer cancel()

	res, err := e.loader.LoadRange(ctx, since, until, false)
	if err != nil {
		return err
	}
	days := pipeline.AggregateDays(res.Transactions, since, until)
	if len(res.Transactions) == 0 {
		fmt.Println("\n  No data for the selected period.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("DAILY NET  Last %dd", flagDays)))
	fmt.Println()

	rows := make([][]string, 0, len(days))
	series := make([]float64, len(days))
	for i, d := range days {
		rows = append(rows, []string{
			d.Date.Format(model.DateLayout),
			cli.FormatDayOfWeek(int(d.Date.Weekday())),
			cli.FormatNumber(int64(d.Count)),
			cli.ColorAmount(d.Net, cli.FormatSigned(d.Net)),
		})
		// days are newest first; the sparkline reads left to right
		series[len(days)-1-i] = d.Net
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Date", "Day", "Count", "Net"},
		Rows:    rows,
	}))
	fmt.Printf("\n  Trend  %s\n", cli.RenderSparkline(series))
	return nil
}
