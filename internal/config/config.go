// Package config loads and saves the finview TOML configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Environment overrides.
const (
	EnvBaseURL  = "FINVIEW_BASE_URL"
	EnvLogLevel = "FINVIEW_LOG_LEVEL"
)

// Config holds all finview configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Backend    BackendConfig    `toml:"backend"`
	Cache      CacheConfig      `toml:"cache"`
	Polling    PollingConfig    `toml:"polling"`
	Stocks     StocksConfig     `toml:"stocks"`
	Appearance AppearanceConfig `toml:"appearance"`
	TUI        TUIConfig        `toml:"tui"`
	Daemon     DaemonConfig     `toml:"daemon"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	LogLevel    string `toml:"log_level"`
	DefaultView string `toml:"default_view"` // week or month
	Currency    string `toml:"currency"`
}

// BackendConfig locates the finance API.
type BackendConfig struct {
	BaseURL  string `toml:"base_url"`
	Username string `toml:"username,omitempty"`
}

// CacheConfig sets response lifetimes.
type CacheConfig struct {
	Enabled        bool     `toml:"enabled"`
	SearchTTL      Duration `toml:"search_ttl"`
	MoversTTL      Duration `toml:"movers_ttl"`
	PredictionsTTL Duration `toml:"predictions_ttl"`
	RangeTTL       Duration `toml:"range_ttl"`
	DetailTTL      Duration `toml:"detail_ttl"`
}

// PollingConfig sets background refresh cadences.
type PollingConfig struct {
	Categories  Duration `toml:"categories"`
	Predictions Duration `toml:"predictions"`
}

// StocksConfig holds the prediction watch list.
type StocksConfig struct {
	Tickers     []string `toml:"tickers"`
	SearchLimit int      `toml:"search_limit"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// TUIConfig holds dashboard settings.
type TUIConfig struct {
	AutoRefresh bool `toml:"auto_refresh"`
}

// DaemonConfig holds poller settings.
type DaemonConfig struct {
	Addr         string   `toml:"addr"`
	Interval     Duration `toml:"interval"`
	EventsBuffer int      `toml:"events_buffer"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			LogLevel:    "warn",
			DefaultView: "week",
			Currency:    "USD",
		},
		Backend: BackendConfig{
			BaseURL: "http://localhost:8000",
		},
		Cache: CacheConfig{
			Enabled:        true,
			SearchTTL:      D(DefaultSearchTTL),
			MoversTTL:      D(DefaultMoversTTL),
			PredictionsTTL: D(DefaultPredictionsTTL),
			RangeTTL:       D(DefaultRangeTTL),
			DetailTTL:      D(DefaultDetailTTL),
		},
		Polling: PollingConfig{
			Categories:  D(DefaultCategoriesPoll),
			Predictions: D(DefaultPredictionsPoll),
		},
		Stocks: StocksConfig{
			Tickers:     []string{"AAPL", "MSFT", "NVDA", "AMZN", "GOOGL", "META", "BRK.B", "TSLA"},
			SearchLimit: 10,
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
		TUI: TUIConfig{
			AutoRefresh: true,
		},
		Daemon: DaemonConfig{
			Addr:         "127.0.0.1:8797",
			Interval:     D(DefaultDaemonPoll),
			EventsBuffer: 200,
		},
	}
}

// Dir returns the XDG-compliant config directory.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "finview")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "finview")
}

// Path returns the full path to the config file.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// Load reads the config file, returning defaults if it doesn't exist.
// Environment overrides are applied on top.
func Load() (Config, error) {
	return LoadFile(Path())
}

// LoadFile is Load for an explicit path.
func LoadFile(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path) //nolint:gosec // path is the user's config file
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			applyEnv(&cfg)
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	applyEnv(&cfg)
	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	return SaveFile(Path(), cfg)
}

// SaveFile is Save for an explicit path.
func SaveFile(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600) //nolint:gosec // path is the user's config file
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing config: %w", err)
	}
	return f.Close()
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(Path())
	return err == nil
}

// LoadDotEnv loads KEY=VALUE pairs from .env in the working directory.
// Variables already set in the environment win. A missing file is fine.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("loading .env: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvBaseURL)); v != "" {
		cfg.Backend.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.General.LogLevel = v
	}
}
