package cmd

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/theirongolddev/finview/internal/config"
	"github.com/theirongolddev/finview/internal/tui/theme"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	Args:  cobra.NoArgs,
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	// Load existing config or defaults
	cfg, _ := config.Load()

	baseURL := cfg.Backend.BaseURL
	username := cfg.Backend.Username
	themeName := cfg.Appearance.Theme
	view := cfg.General.DefaultView
	tickers := strings.Join(cfg.Stocks.Tickers, ", ")
	autoRefresh := cfg.TUI.AutoRefresh

	themes := make([]huh.Option[string], 0, len(theme.All))
	for _, t := range theme.All {
		themes = append(themes, huh.NewOption(t.Name, t.Name))
	}

	fmt.Println()
	fmt.Println("  Welcome to finview!")
	fmt.Println()

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Backend URL").
				Description("Where the finance API listens.").
				Value(&baseURL).
				Validate(validURL),
			huh.NewInput().Title("Username").
				Description("Used by `finview login`; leave blank to be asked.").
				Value(&username),
		),
		huh.NewGroup(
			huh.NewSelect[string]().Title("Default calendar view").
				Options(huh.NewOption("Week", "week"), huh.NewOption("Month", "month")).
				Value(&view),
			huh.NewSelect[string]().Title("Color theme").Options(themes...).Value(&themeName),
			huh.NewConfirm().Title("Auto-refresh the dashboard?").Value(&autoRefresh),
		),
		huh.NewGroup(
			huh.NewInput().Title("Stock watch list").
				Description("Comma-separated tickers for forecasts.").
				Value(&tickers),
		),
	)
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("  Setup cancelled, nothing saved.")
			return nil
		}
		return err
	}

	cfg.Backend.BaseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	cfg.Backend.Username = strings.TrimSpace(username)
	cfg.General.DefaultView = view
	cfg.Appearance.Theme = themeName
	cfg.TUI.AutoRefresh = autoRefresh
	cfg.Stocks.Tickers = splitTickers(tickers)

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.Path())
	fmt.Println("  Run `finview login` to sign in, `finview setup` anytime to reconfigure.")
	fmt.Println()

	return nil
}

func validURL(s string) error {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("enter a URL like http://localhost:8000")
	}
	return nil
}

func splitTickers(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.ToUpper(strings.TrimSpace(t)); t != "" {
			out = append(out, t)
		}
	}
	return out
}
