// Package respcache is a TTL cache of backend responses on top of a string
// key/value store. Entries are kept in the same layout the web client used:
// the JSON payload under one key and the stored-at time, in Unix
// milliseconds, under a companion time key.
//
// The cache never fails its caller. A storage error, a corrupt payload or an
// unreadable timestamp is logged and reported as a miss.
package respcache

import (
	"bytes"
	"encoding/json"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/theirongolddev/finview/internal/log"
)

// Storage is the backing key/value store.
type Storage interface {
	GetItem(key string) (string, bool, error)
	SetItem(key, value string) error
	RemoveItem(key string) error
	Keys(prefix string) ([]string, error)
}

// Entry names a cached payload and the key holding its timestamp.
type Entry struct {
	Key     string
	TimeKey string
}

// At returns the entry for key with the default "<key>_time" timestamp key.
func At(key string) Entry {
	return Entry{Key: key, TimeKey: key + "_time"}
}

// Cache reads and writes timestamped entries. A nil *Cache is valid and
// behaves as an always-empty cache that drops writes.
type Cache struct {
	store Storage
	now   func() time.Time
	log   *log.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithLogger sets the logger used for degraded reads and writes.
func WithLogger(l *log.Logger) Option {
	return func(c *Cache) { c.log = l.WithComponent(log.ComponentCache) }
}

// New creates a cache over store.
func New(store Storage, opts ...Option) *Cache {
	c := &Cache{store: store, now: time.Now, log: log.Nop()}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Get returns the payload for e if it was stored less than ttl ago.
// Stale entries are left in place.
func (c *Cache) Get(e Entry, ttl time.Duration) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	payload, storedAt, ok := c.read(e)
	if !ok || c.now().Sub(storedAt) >= ttl {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return payload, true
}

// GetStale returns the payload for e regardless of age, with its stored-at
// time. Used as a fallback when a refresh fails.
func (c *Cache) GetStale(e Entry) ([]byte, time.Time, bool) {
	if c == nil {
		return nil, time.Time{}, false
	}
	return c.read(e)
}

// Put stores payload under e stamped with the current time.
func (c *Cache) Put(e Entry, payload []byte) {
	if c == nil {
		return
	}
	if err := c.store.SetItem(e.Key, string(payload)); err != nil {
		c.log.Warn("cache write failed", log.FieldKey, e.Key, log.FieldError, err)
		return
	}
	ms := strconv.FormatInt(c.now().UnixMilli(), 10)
	if err := c.store.SetItem(e.TimeKey, ms); err != nil {
		c.log.Warn("cache write failed", log.FieldKey, e.TimeKey, log.FieldError, err)
	}
}

// PutIfNonEmpty stores payload only when it holds data. It reports whether
// the entry was written.
func (c *Cache) PutIfNonEmpty(e Entry, payload []byte) bool {
	if c == nil || IsEmpty(payload) {
		return false
	}
	c.Put(e, payload)
	return true
}

// Invalidate removes e.
func (c *Cache) Invalidate(e Entry) {
	if c == nil {
		return
	}
	for _, k := range []string{e.Key, e.TimeKey} {
		if err := c.store.RemoveItem(k); err != nil {
			c.log.Warn("cache invalidate failed", log.FieldKey, k, log.FieldError, err)
		}
	}
}

// InvalidateRangesContaining removes every kind range entry whose
// [start, end] covers day, and reports how many were dropped.
func (c *Cache) InvalidateRangesContaining(kind string, day time.Time) int {
	if c == nil {
		return 0
	}
	keys, err := c.store.Keys(kind + "_")
	if err != nil {
		c.log.Warn("cache key listing failed", log.FieldKey, kind, log.FieldError, err)
		return 0
	}
	d := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	var n int
	for _, k := range keys {
		kk, start, end, ok := ParseRangeKey(k, day.Location())
		if !ok || kk != kind || d.Before(start) || d.After(end) {
			continue
		}
		c.Invalidate(At(k))
		n++
	}
	return n
}

// Counts returns the number of fresh hits and misses served by Get.
func (c *Cache) Counts() (hits, misses int64) {
	if c == nil {
		return 0, 0
	}
	return c.hits.Load(), c.misses.Load()
}

func (c *Cache) read(e Entry) ([]byte, time.Time, bool) {
	raw, ok, err := c.store.GetItem(e.Key)
	if err != nil {
		c.log.Debug("cache read failed", log.FieldKey, e.Key, log.FieldError, err)
		return nil, time.Time{}, false
	}
	if !ok || raw == "" {
		return nil, time.Time{}, false
	}
	if !json.Valid([]byte(raw)) {
		c.log.Debug("cache payload corrupt", log.FieldKey, e.Key)
		return nil, time.Time{}, false
	}

	ts, ok, err := c.store.GetItem(e.TimeKey)
	if err != nil {
		c.log.Debug("cache read failed", log.FieldKey, e.TimeKey, log.FieldError, err)
		return nil, time.Time{}, false
	}
	if !ok {
		return nil, time.Time{}, false
	}
	ms, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		c.log.Debug("cache timestamp corrupt", log.FieldKey, e.TimeKey, log.FieldError, err)
		return nil, time.Time{}, false
	}
	return []byte(raw), time.UnixMilli(ms), true
}

// IsEmpty reports whether payload carries no data: blank, invalid JSON,
// null, an empty array, an empty object or an empty string.
func IsEmpty(payload []byte) bool {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return true
	}
	var v any
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return true
	}
	switch x := v.(type) {
	case nil:
		return true
	case []any:
		return len(x) == 0
	case map[string]any:
		return len(x) == 0
	case string:
		return x == ""
	}
	return false
}

// GetJSON decodes a fresh entry into T. A payload that does not decode is a miss.
func GetJSON[T any](c *Cache, e Entry, ttl time.Duration) (T, bool) {
	var v T
	payload, ok := c.Get(e, ttl)
	if !ok {
		return v, false
	}
	if err := json.Unmarshal(payload, &v); err != nil {
		c.log.Debug("cache payload undecodable", log.FieldKey, e.Key, log.FieldError, err)
		return v, false
	}
	return v, true
}

// GetStaleJSON decodes e regardless of age.
func GetStaleJSON[T any](c *Cache, e Entry) (T, time.Time, bool) {
	var v T
	payload, at, ok := c.GetStale(e)
	if !ok {
		return v, time.Time{}, false
	}
	if err := json.Unmarshal(payload, &v); err != nil {
		return v, time.Time{}, false
	}
	return v, at, true
}

// PutJSON encodes v and stores it if it is non-empty.
func PutJSON(c *Cache, e Entry, v any) bool {
	if c == nil {
		return false
	}
	payload, err := json.Marshal(v)
	if err != nil {
		c.log.Warn("cache encode failed", log.FieldKey, e.Key, log.FieldError, err)
		return false
	}
	return c.PutIfNonEmpty(e, payload)
}
