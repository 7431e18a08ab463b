package cmd

import (
	"fmt"

	"github.com/theirongolddev/finview/internal/cli"
	"github.com/theirongolddev/finview/internal/model"

	"github.com/spf13/cobra"
)

var (
	txListLimit   int
	txListRefresh bool
)

var upcomingCmd = &cobra.Command{
	Use:   "upcoming",
	Short: "Transactions due in the next 30 days",
	RunE:  runUpcoming,
}

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "Transactions from the last 30 days, newest first",
	RunE:  runRecent,
}

func init() {
	for _, c := range []*cobra.Command{upcomingCmd, recentCmd} {
		c.Flags().BoolVar(&txListRefresh, "refresh", false, "Bypass the cache")
	}
	recentCmd.Flags().IntVarP(&txListLimit, "limit", "l", 20, "Number of transactions to show")
	rootCmd.AddCommand(upcomingCmd, recentCmd)
}

func runUpcoming(cmd *cobra.Command, _ []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, cancel := commandContext(cmd)
	defer cancel()

	txs, err := e.loader.Upcoming(ctx, txListRefresh)
	if err != nil {
		return err
	}
	if len(txs) == 0 {
		fmt.Println("\n  Nothing scheduled in the next 30 days.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("UPCOMING  Next 30d"))
	fmt.Println()
	fmt.Print(cli.RenderTable(transactionTable(txs)))
	return nil
}

func runRecent(cmd *cobra.Command, _ []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, cancel := commandContext(cmd)
	defer cancel()

	txs, err := e.loader.Recent(ctx, txListRefresh)
	if err != nil {
		return err
	}
	if len(txs) == 0 {
		fmt.Println("\n  No transactions in the last 30 days.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("RECENT TRANSACTIONS  Last 30d"))
	fmt.Println()

	shown := txs
	if txListLimit > 0 && len(shown) > txListLimit {
		shown = shown[:txListLimit]
	}
	fmt.Print(cli.RenderTable(transactionTable(shown)))

	if len(txs) > len(shown) {
		fmt.Printf("\n  Showing %d of %d transactions (use -l to see more)\n", len(shown), len(txs))
	}
	return nil
}

func transactionTable(txs []model.Transaction) cli.Table {
	rows := make([][]string, 0, len(txs))
	for _, tx := range txs {
		recurring := ""
		if tx.IsRecurring {
			recurring = "↻"
		}
		rows = append(rows, []string{
			tx.DateKey(),
			tx.Label(),
			tx.Category,
			cli.ColorAmount(tx.Amount, cli.FormatSigned(tx.Amount)),
			recurring,
			cli.Muted(shortID(tx.ID)),
		})
	}
	return cli.Table{
		Headers: []string{"Date", "Description", "Category", "Amount", "", "ID"},
		Rows:    rows,
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
