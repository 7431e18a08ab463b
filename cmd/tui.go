package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/theirongolddev/finview/internal/config"
	"github.com/theirongolddev/finview/internal/store"
	"github.com/theirongolddev/finview/internal/tui"
	"github.com/theirongolddev/finview/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive TUI dashboard",
	Args:  cobra.NoArgs,
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, _ []string) error {
	// Logs would tear the alt screen; send them to a file instead.
	logf := openTUILog()
	if logf != nil {
		defer func() { _ = logf.Close() }()
		logOutput = logf
	} else {
		logOutput = io.Discard
	}

	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	theme.SetActive(e.cfg.Appearance.Theme)

	// Force TrueColor profile so all background styling produces ANSI codes
	// Without this, lipgloss may default to Ascii profile (no colors)
	lipgloss.SetColorProfile(termenv.TrueColor)

	deps := tui.Deps{
		Loader:     e.loader,
		Session:    e.session,
		Config:     e.cfg,
		ConfigPath: config.Path(),
		StorePath:  e.storePath(),
		Logger:     e.log,
	}
	if e.store != nil {
		deps.Drafts = e.store
	}
	if e.cache != nil {
		deps.CacheCounts = e.cache.Counts
	}

	app := tui.NewApp(deps, !config.Exists())
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

func openTUILog() *os.File {
	if err := os.MkdirAll(store.Dir(), 0o750); err != nil {
		return nil
	}
	//nolint:gosec // log path lives in the user's own cache dir
	f, err := os.OpenFile(filepath.Join(store.Dir(), "finview-tui.log"), os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return nil
	}
	return f
}
