package cmd

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/finview/internal/cli"
	"github.com/theirongolddev/finview/internal/model"

	"github.com/spf13/cobra"
)

// stockNewsLimit caps the headlines printed by the stock command.
const stockNewsLimit = 5

var stockCmd = &cobra.Command{
	Use:   "stock <TICKER>",
	Short: "Company profile and recent news for one ticker",
	Args:  cobra.ExactArgs(1),
	RunE:  runStock,
}

func init() {
	stockCmd.Flags().BoolVar(&stocksRefresh, "refresh", false, "Bypass the cache")
	rootCmd.AddCommand(stockCmd)
}

func runStock(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, cancel := commandContext(cmd)
	defer cancel()

	progress("  Fetching %s...\n", strings.ToUpper(args[0]))
	res, err := e.loader.StockDetail(ctx, args[0], stocksRefresh)
	if err != nil {
		return err
	}
	d := res.Detail

	fmt.Println()
	fmt.Println(cli.RenderTitle(d.Ticker + "  " + d.Symbol))
	fmt.Println()
	fmt.Print(cli.RenderTable(companyTable(d.Company)))
	if desc := strings.TrimSpace(d.Company.Description); desc != "" {
		fmt.Println()
		fmt.Println("  " + truncate(desc, 400))
	}
	fmt.Println()
	fmt.Print(cli.RenderTable(newsTable(d.News, stockNewsLimit)))

	if res.Stale {
		fmt.Println(cli.Warn("\n  Showing cached data; refresh failed: " + userMessage(res.Err)))
	} else if res.FromCache {
		fmt.Println(cli.Muted("\n  Cached (use --refresh to reload)"))
	}
	return nil
}

func companyTable(c model.Company) cli.Table {
	var rows [][]string
	add := func(k, v string) {
		if v != "" {
			rows = append(rows, []string{k, v})
		}
	}
	add("Name", c.Name)
	add("Exchange", c.Exchange)
	add("Sector", c.Sector)
	add("Industry", c.Industry)
	add("CEO", c.CEO)
	if c.MarketCap > 0 {
		add("Market cap", cli.FormatCompactMoney(c.MarketCap))
	}
	add("Website", c.Website)
	if len(rows) == 0 {
		rows = append(rows, []string{cli.Muted("no profile"), ""})
	}
	return cli.Table{Title: "Company", Rows: rows}
}

func newsTable(news []model.NewsArticle, limit int) cli.Table {
	if len(news) > limit {
		news = news[:limit]
	}
	rows := make([][]string, 0, len(news))
	for _, n := range news {
		rows = append(rows, []string{newsDate(n.PublishedDate), truncate(n.Title, 70), n.Site})
	}
	if len(rows) == 0 {
		rows = append(rows, []string{cli.Muted("no news"), "", ""})
	}
	return cli.Table{Title: "Recent news", Headers: []string{"Date", "Headline", "Source"}, Rows: rows}
}

// newsDate keeps the date part of "2006-01-02 15:04:05".
func newsDate(s string) string {
	if len(s) >= len(model.DateLayout) {
		return s[:len(model.DateLayout)]
	}
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
