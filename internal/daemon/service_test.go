package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/theirongolddev/finview/internal/model"
	"github.com/theirongolddev/finview/internal/pipeline"
)

type fakeSource struct {
	txs    []model.Transaction
	shares []model.CategoryShare
	err    error
	calls  int
}

func (f *fakeSource) LoadRange(_ context.Context, start, end time.Time, _ bool) (pipeline.RangeResult, error) {
	f.calls++
	if f.err != nil {
		return pipeline.RangeResult{}, f.err
	}
	return pipeline.RangeResult{Start: start, End: end, Transactions: f.txs}, nil
}

func (f *fakeSource) CategoryShares(context.Context, string) ([]model.CategoryShare, error) {
	return f.shares, nil
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestService(src Source) (*Service, *clock) {
	clk := &clock{t: time.Date(2025, 6, 18, 12, 0, 0, 0, time.UTC)}
	return New(src, Config{Interval: 10 * time.Second, EventsBuffer: 10, Now: clk.now}), clk
}

func TestDiffSnapshots(t *testing.T) {
	prev := Snapshot{Transactions: 10, Income: 2000, Spend: 300, Net: 1700}
	curr := Snapshot{Transactions: 12, Income: 2000, Spend: 342.6, Net: 1657.4}

	delta := diffSnapshots(prev, curr)
	if delta.Transactions != 2 {
		t.Fatalf("Transactions delta = %d, want 2", delta.Transactions)
	}
	if math.Abs(delta.Spend-42.6) > 1e-9 {
		t.Fatalf("Spend delta = %.2f, want 42.60", delta.Spend)
	}
	if math.Abs(delta.Net+42.6) > 1e-9 {
		t.Fatalf("Net delta = %.2f, want -42.60", delta.Net)
	}
	if delta.isZero() {
		t.Fatal("delta unexpectedly reported as zero")
	}
	if !diffSnapshots(curr, curr).isZero() {
		t.Fatal("identical snapshots produced a non-zero delta")
	}
}

func TestPublishEventRingBuffer(t *testing.T) {
	s := New(&fakeSource{}, Config{Interval: 10 * time.Second, EventsBuffer: 2})

	s.publishEvent(Event{ID: 1})
	s.publishEvent(Event{ID: 2})
	s.publishEvent(Event{ID: 3})

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.events) != 2 {
		t.Fatalf("events len = %d, want 2", len(s.events))
	}
	if s.events[0].ID != 2 || s.events[1].ID != 3 {
		t.Fatalf("events ring contains IDs [%d, %d], want [2, 3]", s.events[0].ID, s.events[1].ID)
	}
}

func TestPollEmitsSnapshotThenDelta(t *testing.T) {
	src := &fakeSource{txs: []model.Transaction{
		{ID: "pay", Amount: 2000, Date: "2025-06-01"},
		{ID: "rent", Amount: -900, Category: "Rent", Date: "2025-06-02"},
	}}
	s, _ := newTestService(src)
	ctx := context.Background()

	s.pollOnce(ctx)
	s.pollOnce(ctx) // unchanged: no event

	src.txs = append(src.txs, model.Transaction{ID: "food", Amount: -40, Category: "Food", Date: "2025-06-17"})
	s.pollOnce(ctx)

	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.events) != 2 {
		t.Fatalf("events = %d, want 2", len(s.events))
	}
	if s.events[0].Type != EventSnapshot || s.events[1].Type != EventDelta {
		t.Fatalf("event types = %s, %s", s.events[0].Type, s.events[1].Type)
	}
	if s.events[1].Delta.Transactions != 1 || s.events[1].Delta.Spend != 40 {
		t.Fatalf("delta = %+v", s.events[1].Delta)
	}
	if s.snapshot.TopCategory != "Rent" || s.snapshot.Net != 1060 {
		t.Fatalf("snapshot = %+v", s.snapshot)
	}
	if s.snapshot.MonthStart != "2025-06-01" {
		t.Fatalf("MonthStart = %q", s.snapshot.MonthStart)
	}
	if s.pollCount != 3 {
		t.Fatalf("pollCount = %d, want 3", s.pollCount)
	}
}

func TestMonthRolloverEmitsSnapshot(t *testing.T) {
	src := &fakeSource{}
	s, clk := newTestService(src)
	s.pollOnce(context.Background())
	clk.t = time.Date(2025, 7, 1, 8, 0, 0, 0, time.UTC)
	s.pollOnce(context.Background())

	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.events) != 2 || s.events[1].Type != EventSnapshot {
		t.Fatalf("events = %+v", s.events)
	}
}

func TestPollErrorRecorded(t *testing.T) {
	src := &fakeSource{err: errors.New("backend down")}
	s, _ := newTestService(src)
	s.pollOnce(context.Background())

	st := s.snapshotStatus()
	if st.LastError == "" || st.PollCount != 1 || st.EventCount != 0 {
		t.Fatalf("status = %+v", st)
	}
}

func TestCategorySharesPreferredWhenUserKnown(t *testing.T) {
	src := &fakeSource{
		txs:    []model.Transaction{{Amount: -5, Category: "Food", Date: "2025-06-03"}},
		shares: []model.CategoryShare{{Category: "Travel", Total: 800}},
	}
	clk := &clock{t: time.Date(2025, 6, 18, 0, 0, 0, 0, time.UTC)}
	s := New(src, Config{UserID: "42", Now: clk.now})
	s.pollOnce(context.Background())

	if got := s.snapshotStatus().Summary.TopCategory; got != "Travel" {
		t.Fatalf("TopCategory = %q, want Travel", got)
	}
}

func TestHTTPEndpoints(t *testing.T) {
	src := &fakeSource{txs: []model.Transaction{{Amount: -25, Date: "2025-06-10"}}}
	clk := &clock{t: time.Date(2025, 6, 18, 0, 0, 0, 0, time.UTC)}
	s := New(src, Config{Now: clk.now, CacheCounts: func() (int64, int64) { return 7, 3 }})
	s.pollOnce(context.Background())

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "/v1/status")
	if err != nil {
		t.Fatal(err)
	}
	var st Status
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		t.Fatal(err)
	}
	_ = resp.Body.Close()
	if st.Summary.Spend != 25 || st.PollCount != 1 {
		t.Fatalf("status = %+v", st)
	}

	resp, err = srv.Client().Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	for _, want := range []string{
		"finview_month_spend 25",
		"finview_daemon_polls_total 1",
		"finview_cache_hits_total 7",
		"finview_cache_misses_total 3",
	} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("/metrics missing %q", want)
		}
	}

	resp, err = srv.Client().Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	body, _ = io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if string(body) != "ok\n" {
		t.Fatalf("/healthz = %q", body)
	}
}
