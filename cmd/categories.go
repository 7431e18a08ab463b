package cmd

import (
	"fmt"

	"github.com/theirongolddev/finview/internal/calendar"
	"github.com/theirongolddev/finview/internal/cli"
	"github.com/theirongolddev/finview/internal/model"
	"github.com/theirongolddev/finview/internal/pipeline"

	"github.com/spf13/cobra"
)

var catLocal bool

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "Spend by category",
	Long: `Spend by category as reported by the backend for the signed-in user.
With --local the breakdown is computed from the last --days of transactions.`,
	RunE: runCategories,
}

func init() {
	categoriesCmd.Flags().BoolVar(&catLocal, "local", false, "Compute from recent transactions instead of the backend totals")
	rootCmd.AddCommand(categoriesCmd)
}

func runCategories(cmd *cobra.Command, _ []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, cancel := commandContext(cmd)
	defer cancel()

	var (
		shares []model.CategoryShare
		title  string
	)
	if catLocal {
		until := calendar.StartOfDay(e.loader.Now())
		since := until.AddDate(0, 0, -(max(flagDays, 1) - 1))
		res, err := e.loader.LoadRange(ctx, since, until, false)
		if err != nil {
			return err
		}
		shares = pipeline.CategoryShares(pipeline.SpendByCategory(res.Transactions))
		title = fmt.Sprintf("SPEND BY CATEGORY  Last %dd", flagDays)
	} else {
		userID, err := e.session.UserID()
		if err != nil {
			return err
		}
		if shares, err = e.loader.CategoryShares(ctx, userID); err != nil {
			return err
		}
		title = "SPEND BY CATEGORY"
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(title))
	fmt.Println()
	if len(shares) == 0 {
		fmt.Println(cli.Muted("  No data available to display."))
		return nil
	}
	fmt.Print(cli.RenderCategoryBars(shares, 30))

	var total float64
	rows := make([][]string, 0, len(shares)+2)
	for _, s := range shares {
		total += s.Total
		rows = append(rows, []string{s.Category, cli.FormatMoney(s.Total), cli.FormatShare(s.SharePercent)})
	}
	rows = append(rows, []string{"---"}, []string{"Total", cli.FormatMoney(total), "100%"})

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Category", "Spend", "Share"},
		Rows:    rows,
	}))
	return nil
}
