// Package daemon provides the long-running background poller service.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/theirongolddev/finview/internal/calendar"
	"github.com/theirongolddev/finview/internal/log"
	"github.com/theirongolddev/finview/internal/model"
	"github.com/theirongolddev/finview/internal/pipeline"
)

// Source is what the daemon polls.
type Source interface {
	LoadRange(ctx context.Context, start, end time.Time, force bool) (pipeline.RangeResult, error)
	CategoryShares(ctx context.Context, userID string) ([]model.CategoryShare, error)
}

// Config controls the daemon runtime behavior.
type Config struct {
	Interval     time.Duration
	Addr         string
	EventsBuffer int
	// UserID enables the category poll; without it the top category is
	// derived from the month's transactions.
	UserID string
	// CacheCounts, when set, feeds the cache hit/miss metrics.
	CacheCounts func() (hits, misses int64)
	Logger      *log.Logger
	Now         func() time.Time
}

// Snapshot is the compact month-to-date state served in status and events.
type Snapshot struct {
	At               time.Time `json:"at"`
	MonthStart       string    `json:"month_start"`
	Transactions     int       `json:"transactions"`
	Income           float64   `json:"income"`
	Spend            float64   `json:"spend"`
	Net              float64   `json:"net"`
	ActiveDays       int       `json:"active_days"`
	TopCategory      string    `json:"top_category,omitempty"`
	TopCategoryTotal float64   `json:"top_category_total,omitempty"`
}

// Delta captures snapshot changes between polls.
type Delta struct {
	Transactions int     `json:"transactions"`
	Income       float64 `json:"income"`
	Spend        float64 `json:"spend"`
	Net          float64 `json:"net"`
}

func (d Delta) isZero() bool {
	return d.Transactions == 0 &&
		d.Income == 0 &&
		d.Spend == 0 &&
		d.Net == 0
}

// Event types.
const (
	EventSnapshot = "snapshot"
	EventDelta    = "finance_delta"
)

// Event is emitted whenever the snapshot changes.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Snapshot  Snapshot  `json:"snapshot"`
	Delta     Delta     `json:"delta"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	LastPollAt      time.Time `json:"last_poll_at"`
	PollIntervalSec int       `json:"poll_interval_sec"`
	PollCount       int64     `json:"poll_count"`
	Summary         Snapshot  `json:"summary"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg     Config
	src     Source
	log     *log.Logger
	metrics *metrics

	mu          sync.RWMutex
	startedAt   time.Time
	lastPollAt  time.Time
	pollCount   int64
	lastError   string
	hasSnapshot bool
	snapshot    Snapshot
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a daemon service polling src.
func New(src Source, cfg Config) *Service {
	if cfg.Interval < 2*time.Second {
		cfg.Interval = 60 * time.Second
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8797"
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	lg := cfg.Logger
	if lg == nil {
		lg = log.Nop()
	}

	s := &Service{
		cfg:       cfg,
		src:       src,
		log:       lg.WithComponent(log.ComponentDaemon),
		startedAt: cfg.Now(),
		subs:      make(map[int]chan Event),
	}
	s.metrics = newMetrics(s)
	return s
}

// Handler returns the daemon's HTTP routes.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/v1/status", s.handleStatus)
	mux.HandleFunc("/v1/events", s.handleEvents)
	mux.HandleFunc("/v1/stream", s.handleStream)
	mux.Handle("/metrics", s.metrics.handler())
	return mux
}

// Run starts HTTP endpoints and polling until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	s.log.Info("daemon listening", "addr", s.cfg.Addr, "interval", s.cfg.Interval.String())

	// Seed initial snapshot so status is useful immediately.
	s.pollOnce(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case <-ticker.C:
			s.pollOnce(ctx)
		case err := <-errCh:
			return fmt.Errorf("daemon http server: %w", err)
		}
	}
}

func (s *Service) pollOnce(ctx context.Context) {
	now := s.cfg.Now()
	s.metrics.polls.Inc()

	snap, err := s.collect(ctx, now)
	if err != nil {
		s.metrics.pollErrors.Inc()
		s.mu.Lock()
		s.lastError = err.Error()
		s.lastPollAt = now
		s.pollCount++
		s.mu.Unlock()
		s.log.Warn("poll failed", log.FieldError, err)
		return
	}
	s.metrics.observe(snap)

	var (
		ev      Event
		publish bool
	)

	s.mu.Lock()
	prev := s.snapshot
	prevExists := s.hasSnapshot

	s.hasSnapshot = true
	s.snapshot = snap
	s.lastPollAt = now
	s.pollCount++
	s.lastError = ""

	switch {
	case !prevExists || prev.MonthStart != snap.MonthStart:
		s.nextEventID++
		ev = Event{ID: s.nextEventID, Type: EventSnapshot, Timestamp: now, Snapshot: snap}
		publish = true
	default:
		if delta := diffSnapshots(prev, snap); !delta.isZero() {
			s.nextEventID++
			ev = Event{ID: s.nextEventID, Type: EventDelta, Timestamp: now, Snapshot: snap, Delta: delta}
			publish = true
		}
	}
	s.mu.Unlock()

	if publish {
		s.publishEvent(ev)
	}
}

// collect builds a month-to-date snapshot.
func (s *Service) collect(ctx context.Context, now time.Time) (Snapshot, error) {
	start, end := calendar.Range(calendar.ModeMonth, now)
	res, err := s.src.LoadRange(ctx, start, end, true)
	if err != nil {
		return Snapshot{}, err
	}
	sum := pipeline.Summarize(res.Transactions, start, end)

	snap := Snapshot{
		At:           now,
		MonthStart:   start.Format(model.DateLayout),
		Transactions: sum.Transactions,
		Income:       sum.Income,
		Spend:        sum.Spend,
		Net:          sum.Net,
		ActiveDays:   sum.ActiveDays,
	}

	var shares []model.CategoryShare
	if s.cfg.UserID != "" {
		shares, err = s.src.CategoryShares(ctx, s.cfg.UserID)
		if err != nil {
			s.log.Debug("category poll failed", log.FieldError, err)
		}
	}
	if len(shares) == 0 {
		shares = pipeline.CategoryShares(pipeline.SpendByCategory(res.Transactions))
	}
	if len(shares) > 0 {
		snap.TopCategory = shares[0].Category
		snap.TopCategoryTotal = shares[0].Total
	}
	return snap, nil
}

func diffSnapshots(prev, curr Snapshot) Delta {
	return Delta{
		Transactions: curr.Transactions - prev.Transactions,
		Income:       curr.Income - prev.Income,
		Spend:        curr.Spend - prev.Spend,
		Net:          curr.Net - prev.Net,
	}
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		LastPollAt:      s.lastPollAt,
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		PollCount:       s.pollCount,
		Summary:         s.snapshot,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

func (s *Service) subscriberCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.snapshotStatus())
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(events)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	writeSSE(w, Event{
		Type:      EventSnapshot,
		Timestamp: s.cfg.Now(),
		Snapshot:  s.snapshotStatus().Summary,
	})
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
