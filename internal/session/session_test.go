package session

import (
	"encoding/base64"
	"errors"
	"sync"
	"testing"
	"time"
)

type mapKV map[string]string

func (m mapKV) GetItem(k string) (string, bool, error) { v, ok := m[k]; return v, ok, nil }
func (m mapKV) SetItem(k, v string) error              { m[k] = v; return nil }
func (m mapKV) RemoveItem(k string) error              { delete(m, k); return nil }

type lockedKV struct {
	mu sync.Mutex
	m  map[string]string
}

func (k *lockedKV) GetItem(key string) (string, bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	v, ok := k.m[key]
	return v, ok, nil
}

func (k *lockedKV) SetItem(key, v string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.m[key] = v
	return nil
}

func (k *lockedKV) RemoveItem(key string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.m, key)
	return nil
}

type failKV struct{}

func (failKV) GetItem(string) (string, bool, error) { return "", false, errors.New("boom") }
func (failKV) SetItem(string, string) error         { return errors.New("boom") }
func (failKV) RemoveItem(string) error              { return errors.New("boom") }

func testToken(payload string) string {
	enc := base64.RawURLEncoding
	return enc.EncodeToString([]byte(`{"alg":"HS256"}`)) + "." +
		enc.EncodeToString([]byte(payload)) + ".sig"
}

func TestLoadFromStore(t *testing.T) {
	t.Setenv(EnvToken, "")
	kv := mapKV{TokenKey: "abc"}
	s := Load(kv, nil)
	if s.Token() != "abc" {
		t.Fatalf("Token() = %q, want abc", s.Token())
	}
	if s.FromEnv() {
		t.Fatal("FromEnv() = true")
	}
}

func TestEnvOverridesStore(t *testing.T) {
	t.Setenv(EnvToken, "from-env")
	s := Load(mapKV{TokenKey: "abc"}, nil)
	if s.Token() != "from-env" || !s.FromEnv() {
		t.Fatalf("Token() = %q FromEnv=%v", s.Token(), s.FromEnv())
	}
}

func TestStoreFailureIsUnauthenticated(t *testing.T) {
	t.Setenv(EnvToken, "")
	s := Load(failKV{}, nil)
	if s.Authenticated() {
		t.Fatal("Authenticated() = true on failing store")
	}
}

func TestSetAndClear(t *testing.T) {
	t.Setenv(EnvToken, "")
	kv := mapKV{}
	s := Load(kv, nil)

	if err := s.Set("  new-token "); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if kv[TokenKey] != "new-token" {
		t.Fatalf("stored token = %q", kv[TokenKey])
	}
	if err := s.Set(""); err == nil {
		t.Fatal("Set(\"\") = nil error")
	}

	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if s.Authenticated() {
		t.Fatal("Authenticated() after Clear")
	}
	if _, ok := kv[TokenKey]; ok {
		t.Fatal("token still in store after Clear")
	}
}

func TestUserIDNumericAndString(t *testing.T) {
	tests := []struct {
		payload string
		want    string
	}{
		{`{"sub":"sam","id":42,"exp":1893456000}`, "42"},
		{`{"sub":"sam","id":"u-7"}`, "u-7"},
	}
	for _, tt := range tests {
		t.Setenv(EnvToken, testToken(tt.payload))
		s := Load(nil, nil)
		got, err := s.UserID()
		if err != nil {
			t.Fatalf("UserID(%s): %v", tt.payload, err)
		}
		if got != tt.want {
			t.Fatalf("UserID(%s) = %q, want %q", tt.payload, got, tt.want)
		}
	}
}

func TestUserIDErrors(t *testing.T) {
	t.Setenv(EnvToken, "")
	s := Load(mapKV{}, nil)
	if _, err := s.UserID(); !errors.Is(err, ErrNoToken) {
		t.Fatalf("UserID without token err = %v, want ErrNoToken", err)
	}

	t.Setenv(EnvToken, "not-a-jwt")
	if _, err := Load(nil, nil).UserID(); err == nil {
		t.Fatal("UserID on garbage token = nil error")
	}

	t.Setenv(EnvToken, testToken(`{"sub":"sam"}`))
	if _, err := Load(nil, nil).UserID(); err == nil {
		t.Fatal("UserID without id claim = nil error")
	}
}

func TestExpired(t *testing.T) {
	t.Setenv(EnvToken, testToken(`{"id":1,"exp":1750000000}`))
	s := Load(nil, nil)

	if s.Expired(time.Unix(1749999999, 0)) {
		t.Fatal("Expired before exp = true")
	}
	if !s.Expired(time.Unix(1750000000, 0)) {
		t.Fatal("Expired at exp = false")
	}

	t.Setenv(EnvToken, testToken(`{"id":1}`))
	if Load(nil, nil).Expired(time.Now()) {
		t.Fatal("Expired without exp claim = true")
	}
}

func TestConcurrentClearAndRead(t *testing.T) {
	t.Setenv(EnvToken, "")
	tok := testToken(`{"id":7}`)
	s := Load(&lockedKV{m: map[string]string{TokenKey: tok}}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				_ = s.Clear()
				_ = s.Set(tok)
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				_ = s.Authenticated()
				_, _ = s.UserID()
				_ = s.FromEnv()
				_ = s.Expired(time.Now())
			}
		}()
	}
	wg.Wait()

	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if s.Authenticated() {
		t.Fatal("Authenticated() after final Clear")
	}
}

func TestParseClaimsUnknownAlg(t *testing.T) {
	enc := base64.RawURLEncoding
	tok := enc.EncodeToString([]byte(`{"alg":"XX999"}`)) + "." +
		enc.EncodeToString([]byte(`{"id":"u-1","sub":"sam","exp":1750000000}`)) + ".sig"
	c, err := ParseClaims(tok)
	if err != nil {
		t.Fatalf("ParseClaims: %v", err)
	}
	if c.UserID != "u-1" || c.Subject != "sam" || c.Expires.Unix() != 1750000000 {
		t.Fatalf("claims = %+v", c)
	}
}
