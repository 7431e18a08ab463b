// Package cmd implements the finview CLI commands.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/theirongolddev/finview/internal/config"
	"github.com/theirongolddev/finview/internal/session"
	"github.com/theirongolddev/finview/internal/store"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fmt.Printf("  Config file: %s\n", config.Path())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Printf("  Store:       %s\n", store.Path())
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Default view: %s\n", cfg.General.DefaultView)
	fmt.Printf("    Currency:     %s\n", cfg.General.Currency)
	fmt.Printf("    Log level:    %s\n", cfg.General.LogLevel)
	fmt.Println()

	fmt.Println("  [Backend]")
	fmt.Printf("    Base URL: %s%s\n", cfg.Backend.BaseURL, envNote(config.EnvBaseURL))
	if cfg.Backend.Username != "" {
		fmt.Printf("    Username: %s\n", cfg.Backend.Username)
	}
	if os.Getenv(session.EnvToken) != "" {
		fmt.Printf("    Token:    from %s\n", session.EnvToken)
	}
	fmt.Println()

	fmt.Println("  [Cache]")
	fmt.Printf("    Enabled:     %v\n", cfg.Cache.Enabled)
	fmt.Printf("    Search TTL:  %s\n", cfg.Cache.SearchTTL.Or(config.DefaultSearchTTL))
	fmt.Printf("    Movers TTL:  %s\n", cfg.Cache.MoversTTL.Or(config.DefaultMoversTTL))
	fmt.Printf("    Forecasts:   %s\n", cfg.Cache.PredictionsTTL.Or(config.DefaultPredictionsTTL))
	fmt.Printf("    Ranges:      %s\n", cfg.Cache.RangeTTL.Or(config.DefaultRangeTTL))
	fmt.Printf("    Stock info:  %s\n", cfg.Cache.DetailTTL.Or(config.DefaultDetailTTL))
	fmt.Println()

	fmt.Println("  [Polling]")
	fmt.Printf("    Categories:  %s\n", cfg.Polling.Categories.Or(config.DefaultCategoriesPoll))
	fmt.Printf("    Forecasts:   %s\n", cfg.Polling.Predictions.Or(config.DefaultPredictionsPoll))
	fmt.Println()

	fmt.Println("  [Stocks]")
	fmt.Printf("    Tickers:      %s\n", strings.Join(cfg.Stocks.Tickers, ", "))
	fmt.Printf("    Search limit: %d\n", cfg.Stocks.SearchLimit)
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme:        %s\n", cfg.Appearance.Theme)
	fmt.Printf("    Auto refresh: %v\n", cfg.TUI.AutoRefresh)
	fmt.Println()

	fmt.Println("  [Daemon]")
	fmt.Printf("    Address:  %s\n", cfg.Daemon.Addr)
	fmt.Printf("    Interval: %s\n", cfg.Daemon.Interval.Or(config.DefaultDaemonPoll))
	fmt.Println()

	fmt.Println("  Run `finview setup` to reconfigure.")
	return nil
}

func envNote(name string) string {
	if os.Getenv(name) != "" {
		return "  (from " + name + ")"
	}
	return ""
}
