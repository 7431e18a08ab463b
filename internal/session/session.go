// Package session holds the backend access token for the current user.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/theirongolddev/finview/internal/log"
)

// TokenKey is the store key holding the access token.
const TokenKey = "token"

// EnvToken overrides the stored token when set.
const EnvToken = "FINVIEW_TOKEN"

// ErrNoToken indicates nobody is logged in.
var ErrNoToken = errors.New("not authenticated, run `finview login`")

// KV is the persistent store the token lives in.
type KV interface {
	GetItem(key string) (string, bool, error)
	SetItem(key, value string) error
	RemoveItem(key string) error
}

// Session is the single source of the access token. It is created once at
// startup and passed to whatever needs to authenticate. A Session is safe
// for concurrent use.
type Session struct {
	kv  KV
	log *log.Logger

	mu      sync.RWMutex
	token   string
	fromEnv bool
}

// Load hydrates a session from kv, letting FINVIEW_TOKEN take precedence.
// A store read failure yields an unauthenticated session.
func Load(kv KV, logger *log.Logger) *Session {
	if logger == nil {
		logger = log.Nop()
	}
	s := &Session{kv: kv, log: logger.WithComponent(log.ComponentSession)}

	if tok := strings.TrimSpace(os.Getenv(EnvToken)); tok != "" {
		s.token = tok
		s.fromEnv = true
		return s
	}
	if kv == nil {
		return s
	}
	tok, ok, err := kv.GetItem(TokenKey)
	if err != nil {
		s.log.Warn("reading stored token failed", log.FieldError, err)
		return s
	}
	if ok {
		s.token = strings.TrimSpace(tok)
	}
	return s
}

// Token returns the current access token, or "".
func (s *Session) Token() string {
	if s == nil {
		return ""
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Authenticated reports whether a token is present.
func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

// FromEnv reports whether the token came from the environment.
func (s *Session) FromEnv() bool {
	if s == nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fromEnv
}

// Set stores a freshly issued token.
func (s *Session) Set(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("session: empty token")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.fromEnv = false
	if s.kv == nil {
		return nil
	}
	if err := s.kv.SetItem(TokenKey, token); err != nil {
		return fmt.Errorf("session: saving token: %w", err)
	}
	return nil
}

// Clear forgets the token in memory and in the store. Called on logout and
// whenever the backend answers 401.
func (s *Session) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.fromEnv = false
	if s.kv == nil {
		return nil
	}
	if err := s.kv.RemoveItem(TokenKey); err != nil {
		return fmt.Errorf("session: removing token: %w", err)
	}
	return nil
}

// Claims is the subset of the JWT payload the client reads.
type Claims struct {
	UserID  string
	Subject string
	Expires time.Time
}

// Claims decodes the token payload without verifying the signature; the
// backend is the authority, the client only needs the user id.
func (s *Session) Claims() (Claims, error) {
	tok := s.Token()
	if tok == "" {
		return Claims{}, ErrNoToken
	}
	return ParseClaims(tok)
}

// UserID returns the "id" claim of the token.
func (s *Session) UserID() (string, error) {
	c, err := s.Claims()
	if err != nil {
		return "", err
	}
	if c.UserID == "" {
		return "", errors.New("session: token has no user id")
	}
	return c.UserID, nil
}

// Expired reports whether the token carries an exp claim in the past.
func (s *Session) Expired(now time.Time) bool {
	c, err := s.Claims()
	if err != nil || c.Expires.IsZero() {
		return false
	}
	return !now.Before(c.Expires)
}

var claimsParser = jwt.NewParser(jwt.WithJSONNumber())

// ParseClaims extracts claims from a compact JWT without checking its
// signature. An alg the library does not know is tolerated.
func ParseClaims(token string) (Claims, error) {
	mc := jwt.MapClaims{}
	if _, _, err := claimsParser.ParseUnverified(token, mc); err != nil && !errors.Is(err, jwt.ErrTokenUnverifiable) {
		return Claims{}, fmt.Errorf("session: parsing token: %w", err)
	}

	c := Claims{UserID: claimString(mc["id"])}
	if sub, err := mc.GetSubject(); err == nil {
		c.Subject = sub
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		c.Expires = exp.Time
	}
	return c, nil
}

// claimString accepts the id claim as either a JSON string or number.
func claimString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return strconv.FormatInt(i, 10)
		}
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	}
	return ""
}
