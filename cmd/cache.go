package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/theirongolddev/finview/internal/cli"
	"github.com/theirongolddev/finview/internal/projection"
	"github.com/theirongolddev/finview/internal/session"
	"github.com/theirongolddev/finview/internal/store"

	"github.com/spf13/cobra"
)

var cacheClearAll bool

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the local response cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show what the local store holds",
	Args:  cobra.NoArgs,
	RunE:  runCacheStats,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop cached responses (keeps the session and projection draft)",
	Args:  cobra.NoArgs,
	RunE:  runCacheClear,
}

func init() {
	cacheClearCmd.Flags().BoolVar(&cacheClearAll, "all", false, "Also remove the stored token and projection draft")
	cacheCmd.AddCommand(cacheStatsCmd, cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

// persistentKeys are store entries that are not cached responses.
var persistentKeys = map[string]bool{
	session.TokenKey:    true,
	projection.DraftKey: true,
}

func openStore() (*store.Store, error) {
	st, err := store.Open(store.Path())
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	return st, nil
}

func runCacheStats(_ *cobra.Command, _ []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	stats, err := st.Stats()
	if err != nil {
		return err
	}
	keys, err := st.Keys("")
	if err != nil {
		return err
	}

	var cached, stamps int
	for _, k := range keys {
		switch {
		case persistentKeys[k]:
		case strings.HasSuffix(k, "_time"):
			stamps++
		default:
			cached++
		}
	}

	rows := [][]string{
		{"Location", store.Path()},
		{"Items", cli.FormatNumber(int64(stats.Items))},
		{"Cached responses", cli.FormatNumber(int64(cached))},
		{"Timestamps", cli.FormatNumber(int64(stamps))},
		{"Size", formatBytes(stats.TotalBytes)},
	}
	if !stats.Newest.IsZero() {
		rows = append(rows,
			[]string{"Oldest write", stats.Oldest.Local().Format("2006-01-02 15:04")},
			[]string{"Newest write", stats.Newest.Local().Format("2006-01-02 15:04")},
		)
	}
	for _, k := range []string{session.TokenKey, projection.DraftKey} {
		_, ok, err := st.GetItem(k)
		if err != nil {
			return err
		}
		state := "absent"
		if ok {
			state = "stored"
		}
		rows = append(rows, []string{k, state})
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Local Store",
		Headers: []string{"Item", "Value"},
		Rows:    rows,
	}))
	return nil
}

func runCacheClear(_ *cobra.Command, _ []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	if cacheClearAll {
		n, err := st.Clear("")
		if err != nil {
			return err
		}
		fmt.Printf("  Removed %d items (signed out, projection reset)\n", n)
		return nil
	}

	keys, err := st.Keys("")
	if err != nil {
		return err
	}
	var removed int
	var errs []error
	for _, k := range keys {
		if persistentKeys[k] {
			continue
		}
		if err := st.RemoveItem(k); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	fmt.Printf("  Removed %d cached items\n", removed)
	return errors.Join(errs...)
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	}
	return fmt.Sprintf("%d B", n)
}
