// Package store provides the SQLite-backed local key/value store that plays
// the role of browser storage: session token, cached responses, drafts.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // register sqlite driver
)

// Store is a string key/value store persisted in SQLite.
type Store struct {
	db *sql.DB
}

// Open opens or creates the store database at the given path and brings its
// schema up to date.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating store dir: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening store db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("opening store db: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the store database.
func (s *Store) Close() error {
	return s.db.Close()
}

// GetItem returns the value for key. ok is false when the key is absent.
func (s *Store) GetItem(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM items WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// SetItem stores value under key, replacing any previous value.
func (s *Store) SetItem(key, value string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(`INSERT OR REPLACE INTO items (key, value, updated_at) VALUES (?, ?, ?)`,
		key, value, now)
	return err
}

// SetItems stores several pairs atomically.
func (s *Store) SetItems(pairs map[string]string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(time.RFC3339)
	for k, v := range pairs {
		if _, err := tx.Exec(`INSERT OR REPLACE INTO items (key, value, updated_at) VALUES (?, ?, ?)`,
			k, v, now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// RemoveItem deletes key. Removing a missing key is not an error.
func (s *Store) RemoveItem(key string) error {
	_, err := s.db.Exec("DELETE FROM items WHERE key = ?", key)
	return err
}

// Keys returns all keys with the given prefix, sorted.
func (s *Store) Keys(prefix string) ([]string, error) {
	rows, err := s.db.Query("SELECT key FROM items WHERE key LIKE ? ESCAPE '\\' ORDER BY key",
		escapeLike(prefix)+"%")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Clear deletes every key with the given prefix and returns how many were removed.
// An empty prefix clears the whole store.
func (s *Store) Clear(prefix string) (int64, error) {
	res, err := s.db.Exec("DELETE FROM items WHERE key LIKE ? ESCAPE '\\'", escapeLike(prefix)+"%")
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Stats summarizes store contents for `finview cache stats`.
type Stats struct {
	Items      int
	TotalBytes int64
	Oldest     time.Time
	Newest     time.Time
}

// Stats returns item count, payload size and update-time bounds.
func (s *Store) Stats() (Stats, error) {
	var st Stats
	var oldest, newest sql.NullString
	var total sql.NullInt64
	err := s.db.QueryRow(`SELECT COUNT(*), SUM(LENGTH(value)), MIN(updated_at), MAX(updated_at) FROM items`).
		Scan(&st.Items, &total, &oldest, &newest)
	if err != nil {
		return st, err
	}
	if total.Valid {
		st.TotalBytes = total.Int64
	}
	if oldest.Valid {
		st.Oldest, _ = time.Parse(time.RFC3339, oldest.String)
	}
	if newest.Valid {
		st.Newest, _ = time.Parse(time.RFC3339, newest.String)
	}
	return st, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// Dir returns the platform-appropriate data directory.
func Dir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "finview")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", "finview")
}

// Path returns the full path to the store database.
func Path() string {
	return filepath.Join(Dir(), "store.db")
}
