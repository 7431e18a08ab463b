// Package finapi is the HTTP client for the finance backend: transactions,
// category totals, stock search, market movers and predictions.
package finapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/theirongolddev/finview/internal/log"
)

const (
	// DefaultBaseURL is where the backend listens in a local install.
	DefaultBaseURL = "http://localhost:8000"
	requestTimeout = 15 * time.Second
	maxBodySize    = 4 << 20 // 4 MB
	userAgent      = "finview/1.0"
)

var (
	// ErrUnauthorized indicates the token is missing, expired or rejected.
	ErrUnauthorized = errors.New("finapi: unauthorized (token expired or invalid)")
	// ErrRateLimited indicates the backend (or its market data provider) throttled us.
	ErrRateLimited = errors.New("finapi: rate limited")
	// ErrNotFound indicates the addressed resource does not exist.
	ErrNotFound = errors.New("finapi: not found")
)

// StatusError is returned for any other non-2xx response.
type StatusError struct {
	Method string
	Path   string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("finapi: %s %s: unexpected status %d", e.Method, e.Path, e.Code)
}

// Client talks to the backend REST API. A Client is safe for concurrent use.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	log     *log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.log = l.WithComponent(log.ComponentAPI) }
}

// NewClient creates a client for baseURL. token may be empty for
// unauthenticated calls such as Login.
func NewClient(baseURL, token string, opts ...Option) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: baseURL,
		token:   strings.TrimSpace(token),
		http:    &http.Client{},
		log:     log.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// BaseURL returns the backend root the client targets.
func (c *Client) BaseURL() string { return c.baseURL }

// HasToken reports whether requests will carry a bearer token.
func (c *Client) HasToken() bool { return c.token != "" }

// WithToken returns a copy of c using token.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = strings.TrimSpace(token)
	return &cp
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	return c.do(ctx, http.MethodGet, path, "", nil)
}

func (c *Client) sendJSON(ctx context.Context, method, path string, v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("finapi: encoding request: %w", err)
	}
	return c.do(ctx, method, path, "application/json", bytes.NewReader(body))
}

// do performs a request and returns the response body. The bearer token is
// attached when set. No retries are attempted.
func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("finapi: creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("request failed", log.FieldMethod, method, log.FieldPath, path, log.FieldError, err)
		return nil, fmt.Errorf("finapi: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.log.Debug("request",
		log.FieldMethod, method,
		log.FieldPath, path,
		log.FieldStatus, resp.StatusCode,
		log.FieldDuration, time.Since(start).Milliseconds(),
	)

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, ErrUnauthorized
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case http.StatusNotFound:
		return nil, ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Method: method, Path: strings.SplitN(path, "?", 2)[0], Code: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("finapi: reading response: %w", err)
	}
	return data, nil
}

// decode unmarshals body into v. An empty or malformed body leaves v at its
// zero value and is logged rather than returned: the caller shows "no data".
func (c *Client) decode(path string, body []byte, v any) {
	if len(bytes.TrimSpace(body)) == 0 {
		return
	}
	if err := json.Unmarshal(body, v); err != nil {
		c.log.Warn("malformed response", log.FieldPath, path, log.FieldError, err)
	}
}
