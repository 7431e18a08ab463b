package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/finview/internal/cli"
	"github.com/theirongolddev/finview/internal/model"
	"github.com/theirongolddev/finview/internal/pipeline"

	"github.com/spf13/cobra"
)

var (
	stocksRefresh  bool
	predictTicker  string
	searchLimitArg int
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search stocks by ticker or company name",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

var moversCmd = &cobra.Command{
	Use:   "movers",
	Short: "Top market gainers and losers",
	Args:  cobra.NoArgs,
	RunE:  runMovers,
}

var predictCmd = &cobra.Command{
	Use:   "predict [TICKER...]",
	Short: "Price forecasts for the watch list or the given tickers",
	Long: `Price forecasts for the tickers in the config (or those given).
With --interval the forecast for one ticker is broken down by horizon
(5m, 15m, 30m, 60m, 1d).`,
	RunE: runPredict,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimitArg, "limit", "l", 0, "Maximum suggestions (default from config)")
	moversCmd.Flags().BoolVar(&stocksRefresh, "refresh", false, "Bypass the cache")
	predictCmd.Flags().BoolVar(&stocksRefresh, "refresh", false, "Bypass the cache")
	predictCmd.Flags().StringVarP(&predictTicker, "interval", "i", "", "Show per-horizon forecasts for this ticker")
	rootCmd.AddCommand(searchCmd, moversCmd, predictCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	loader := e.loader
	if searchLimitArg > 0 {
		loader = pipeline.NewLoader(e.client, e.cache, loaderTTLs(e.cfg),
			pipeline.WithLogger(e.log), pipeline.WithSearchLimit(searchLimitArg))
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	query := strings.Join(args, " ")
	results, cached, err := loader.Search(ctx, query)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Printf("\n  No matches for %q.\n", query)
		return nil
	}

	rows := make([][]string, 0, len(results))
	for _, s := range results {
		rows = append(rows, []string{s.Symbol, s.Name, s.Exchange})
	}
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   fmt.Sprintf("Results for %q", query),
		Headers: []string{"Symbol", "Name", "Exchange"},
		Rows:    rows,
	}))
	if cached {
		fmt.Println(cli.Muted("  (from cache)"))
	}
	return nil
}

func runMovers(cmd *cobra.Command, _ []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, cancel := commandContext(cmd)
	defer cancel()

	progress("  Fetching market movers...\n")
	res, err := e.loader.Movers(ctx, stocksRefresh)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("MARKET MOVERS"))
	fmt.Println()
	fmt.Print(cli.RenderTable(moversTable("Top Gainers", res.Gainers)))
	fmt.Println()
	fmt.Print(cli.RenderTable(moversTable("Top Losers", res.Losers)))

	printFreshness(e, res.FetchedAt, res.FromCache, res.Stale, res.Err)
	return nil
}

func moversTable(title string, movers []model.Mover) cli.Table {
	rows := make([][]string, 0, len(movers))
	for _, m := range movers {
		rows = append(rows, []string{
			m.Symbol,
			m.Name,
			cli.FormatPrice(m.Price),
			cli.ColorAmount(m.Change, fmt.Sprintf("%+.2f", m.Change)),
			cli.ColorAmount(m.ChangePercent, cli.FormatChange(m.ChangePercent)),
		})
	}
	if len(rows) == 0 {
		rows = append(rows, []string{cli.Muted("no data"), "", "", "", ""})
	}
	return cli.Table{
		Title:   title,
		Headers: []string{"Symbol", "Name", "Price", "Change", "%"},
		Rows:    rows,
	}
}

func runPredict(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, cancel := commandContext(cmd)
	defer cancel()

	progress("  Generating forecasts...\n")

	var (
		res   pipeline.PredictionsResult
		title string
	)
	if predictTicker != "" {
		ticker := strings.ToUpper(strings.TrimSpace(predictTicker))
		res, err = e.loader.IntervalPredictions(ctx, ticker, stocksRefresh)
		title = "FORECAST  " + ticker
	} else {
		tickers := e.cfg.Stocks.Tickers
		if len(args) > 0 {
			tickers = make([]string, len(args))
			for i, a := range args {
				tickers[i] = strings.ToUpper(a)
			}
		}
		if len(tickers) == 0 {
			return errors.New("no tickers: pass some or set [stocks] tickers in the config")
		}
		res, err = e.loader.Predictions(ctx, tickers, stocksRefresh)
		title = "FORECASTS"
	}
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(title))
	fmt.Println()
	fmt.Print(cli.RenderTable(predictionsTable(res.Predictions, predictTicker != "")))

	printFreshness(e, res.FetchedAt, res.FromCache, res.Stale, res.Err)
	return nil
}

func predictionsTable(preds []model.Prediction, byInterval bool) cli.Table {
	first := "Ticker"
	if byInterval {
		first = "Horizon"
	}
	rows := make([][]string, 0, len(preds))
	for _, p := range preds {
		name := p.Ticker
		if byInterval {
			name = p.Interval
		}
		if p.Error != "" {
			rows = append(rows, []string{name, "", "", "", cli.Warn(p.Error)})
			continue
		}
		band := ""
		if p.HasConfidence() {
			band = cli.FormatPrice(p.ConfidenceLow) + " – " + cli.FormatPrice(p.ConfidenceHigh)
		}
		current := ""
		if p.CurrentPrice > 0 {
			current = cli.FormatPrice(p.CurrentPrice)
		}
		rows = append(rows, []string{
			name,
			current,
			cli.FormatPrice(p.PredictedPrice),
			cli.ColorAmount(p.Change, cli.FormatChange(p.Change)),
			band,
		})
	}
	return cli.Table{
		Headers: []string{first, "Current", "Predicted", "Change", "Confidence"},
		Rows:    rows,
	}
}

// printFreshness notes when the data came from cache or is a stale
// fallback after a failed fetch.
func printFreshness(e *appEnv, fetchedAt time.Time, fromCache, stale bool, fetchErr error) {
	switch {
	case stale:
		reason := "backend unavailable"
		if fetchErr != nil {
			reason = userMessage(fetchErr)
		}
		fmt.Println(cli.Warn(fmt.Sprintf("\n  Showing data from %s; refresh failed: %s",
			cli.FormatAge(fetchedAt, e.loader.Now()), reason)))
	case fromCache:
		fmt.Println(cli.Muted(fmt.Sprintf("\n  Cached %s (use --refresh to reload)", cli.FormatAge(fetchedAt, e.loader.Now()))))
	}
}
