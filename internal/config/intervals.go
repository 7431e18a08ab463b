package config

import (
	"fmt"
	"time"
)

// Cache lifetimes for backend responses.
const (
	DefaultSearchTTL      = 10 * time.Minute
	DefaultMoversTTL      = 5 * time.Minute
	DefaultPredictionsTTL = 5 * time.Minute
	DefaultRangeTTL       = 5 * time.Minute
	DefaultDetailTTL      = 30 * time.Minute
)

// Background refresh cadences.
const (
	DefaultCategoriesPoll  = 60 * time.Second
	DefaultPredictionsPoll = 5 * time.Minute
	DefaultDaemonPoll      = 60 * time.Second
)

// Duration is a time.Duration that reads and writes as "5m" in TOML.
type Duration struct {
	time.Duration
}

// D wraps d.
func D(d time.Duration) Duration { return Duration{d} }

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(b), err)
	}
	if v < 0 {
		return fmt.Errorf("invalid duration %q: negative", string(b))
	}
	d.Duration = v
	return nil
}

// Or returns d, or def when d is unset.
func (d Duration) Or(def time.Duration) time.Duration {
	if d.Duration <= 0 {
		return def
	}
	return d.Duration
}
