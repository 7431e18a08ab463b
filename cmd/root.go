package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/theirongolddev/finview/internal/config"
	"github.com/theirongolddev/finview/internal/finapi"
	"github.com/theirongolddev/finview/internal/log"
	"github.com/theirongolddev/finview/internal/pipeline"
	"github.com/theirongolddev/finview/internal/respcache"
	"github.com/theirongolddev/finview/internal/session"
	"github.com/theirongolddev/finview/internal/store"

	"github.com/spf13/cobra"
)

const commandTimeout = 30 * time.Second

var (
	flagDays    int
	flagNoCache bool
	flagQuiet   bool
	flagVerbose bool
	flagBaseURL string
)

// logOutput, when set, replaces stderr as the log destination.
var logOutput io.Writer

var rootCmd = &cobra.Command{
	Use:           "finview",
	Short:         "Personal finance dashboard CLI",
	Long:          "Browse transactions by week or month, plan savings, and follow stock movers and forecasts.",
	RunE:          runCalendar,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the main entry point called from main.go.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "  Error: %s\n", userMessage(err))
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().IntVarP(&flagDays, "days", "n", 30, "Time window in days")
	rootCmd.PersistentFlags().BoolVar(&flagNoCache, "no-cache", false, "Skip the local response cache")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Log debug output to stderr")
	rootCmd.PersistentFlags().StringVar(&flagBaseURL, "base-url", "", "Backend URL (overrides config and FINVIEW_BASE_URL)")
}

// appEnv is what a command needs to reach the backend: config, the local
// store, the session and a cached loader.
type appEnv struct {
	cfg     config.Config
	log     *log.Logger
	store   *store.Store // nil when the store could not be opened
	session *session.Session
	client  *finapi.Client
	cache   *respcache.Cache // nil with --no-cache
	loader  *pipeline.Loader
}

// openEnv loads config and wires the backend stack. A store that cannot be
// opened degrades to an uncached, env-token-only session.
func openEnv() (*appEnv, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if flagBaseURL != "" {
		cfg.Backend.BaseURL = flagBaseURL
	}

	logger := newLogger(cfg)
	log.SetDefault(logger)

	e := &appEnv{cfg: cfg, log: logger}

	st, err := store.Open(store.Path())
	if err != nil {
		logger.Warn("store unavailable, continuing without cache", log.FieldError, err)
		progress("  Local store unavailable, running uncached\n")
		e.session = session.Load(nil, logger)
	} else {
		e.store = st
		e.session = session.Load(st, logger)
		if !flagNoCache && cfg.Cache.Enabled {
			e.cache = respcache.New(st, respcache.WithLogger(logger))
		}
	}

	e.client = finapi.NewClient(cfg.Backend.BaseURL, e.session.Token(), finapi.WithLogger(logger))
	e.loader = pipeline.NewLoader(e.client, e.cache, loaderTTLs(cfg),
		pipeline.WithLogger(logger),
		pipeline.WithSearchLimit(cfg.Stocks.SearchLimit),
		pipeline.OnUnauthorized(func() {
			if err := e.session.Clear(); err != nil {
				logger.Warn("clearing rejected token failed", log.FieldError, err)
			}
		}),
	)
	return e, nil
}

// Close releases the store.
func (e *appEnv) Close() {
	if e == nil || e.store == nil {
		return
	}
	if err := e.store.Close(); err != nil {
		e.log.Warn("closing store failed", log.FieldError, err)
	}
}

// storePath is the store location shown to the user, or "" when unused.
func (e *appEnv) storePath() string {
	if e.store == nil {
		return ""
	}
	return store.Path()
}

func loaderTTLs(cfg config.Config) pipeline.TTLs {
	return pipeline.TTLs{
		Search:      cfg.Cache.SearchTTL.Or(config.DefaultSearchTTL),
		Movers:      cfg.Cache.MoversTTL.Or(config.DefaultMoversTTL),
		Predictions: cfg.Cache.PredictionsTTL.Or(config.DefaultPredictionsTTL),
		Range:       cfg.Cache.RangeTTL.Or(config.DefaultRangeTTL),
		Detail:      cfg.Cache.DetailTTL.Or(config.DefaultDetailTTL),
	}
}

func newLogger(cfg config.Config) *log.Logger {
	lc := log.DefaultConfig()
	lc.Level = log.ParseLevel(cfg.General.LogLevel)
	switch {
	case flagVerbose:
		lc.Level = slog.LevelDebug
	case flagQuiet:
		lc.Level = slog.LevelError
	}
	if logOutput != nil {
		lc.Output = logOutput
	}
	return log.New(lc)
}

// commandContext bounds a command's backend calls.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, commandTimeout)
}

// progress writes status lines to stderr unless --quiet.
func progress(format string, args ...any) {
	if flagQuiet {
		return
	}
	fmt.Fprintf(os.Stderr, format, args...)
}

// userMessage turns known failures into something actionable.
func userMessage(err error) string {
	switch {
	case errors.Is(err, finapi.ErrUnauthorized), errors.Is(err, session.ErrNoToken):
		return "not authenticated, run `finview login`"
	case errors.Is(err, finapi.ErrRateLimited):
		return "rate limited by the backend, try again in a minute"
	case errors.Is(err, context.DeadlineExceeded):
		return "the backend did not respond in time"
	case errors.Is(err, context.Canceled):
		return "interrupted"
	}
	return err.Error()
}
