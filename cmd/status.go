package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/theirongolddev/finview/internal/calendar"
	"github.com/theirongolddev/finview/internal/cli"
	"github.com/theirongolddev/finview/internal/finapi"
	"github.com/theirongolddev/finview/internal/session"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show backend reachability, session and local store state",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	now := e.loader.Now()
	rows := [][]string{
		{"Backend", e.client.BaseURL()},
		{"Session", sessionState(e.session, now)},
	}
	if c, err := e.session.Claims(); err == nil && !c.Expires.IsZero() {
		rows = append(rows, []string{"Token expires", c.Expires.Local().Format("2006-01-02 15:04")})
	}

	if e.session.Authenticated() {
		progress("  Probing backend...\n")
		ctx, cancel := commandContext(cmd)
		today := calendar.StartOfDay(now)
		start := time.Now()
		res, err := e.loader.LoadRange(ctx, today, today, true)
		cancel()
		rows = append(rows, []string{"Backend check", checkResult(err, len(res.Transactions), time.Since(start))})
	} else {
		rows = append(rows, []string{"Backend check", cli.Muted("skipped (not signed in)")})
	}

	rows = append(rows, []string{"---"})
	if path := e.storePath(); path != "" {
		rows = append(rows, []string{"Local store", path})
	} else {
		rows = append(rows, []string{"Local store", cli.Warn("unavailable")})
	}
	switch {
	case e.cache == nil:
		rows = append(rows, []string{"Cache", "disabled"})
	default:
		hits, misses := e.cache.Counts()
		rows = append(rows, []string{"Cache", fmt.Sprintf("enabled (%s hits, %s misses this run)",
			cli.FormatNumber(hits), cli.FormatNumber(misses))})
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "finview status",
		Headers: []string{"Check", "Result"},
		Rows:    rows,
	}))
	return nil
}

func sessionState(s *session.Session, now time.Time) string {
	if !s.Authenticated() {
		return cli.Warn("signed out")
	}
	desc := "signed in"
	if id, err := s.UserID(); err == nil {
		desc += " as user " + id
	}
	if s.FromEnv() {
		desc += " (from " + session.EnvToken + ")"
	}
	if s.Expired(now) {
		return cli.Warn(desc + ", token expired")
	}
	return desc
}

func checkResult(err error, n int, took time.Duration) string {
	switch {
	case err == nil:
		return fmt.Sprintf("ok, %d transactions today (%s)", n, took.Round(time.Millisecond))
	case errors.Is(err, finapi.ErrUnauthorized):
		return cli.Warn("unauthorized, token cleared; run `finview login`")
	}
	return cli.Warn("error: " + userMessage(err))
}
