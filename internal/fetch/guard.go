// Package fetch tracks which response a view is still waiting for, so a
// slow reply for an old query never overwrites a newer one.
package fetch

import "sync"

// Ticket identifies one issued request.
type Ticket struct {
	Seq uint64
	Key string
}

// Guard hands out tickets for a single view. Only the most recently issued
// ticket is current; Close invalidates all of them.
type Guard struct {
	mu     sync.Mutex
	seq    uint64
	key    string
	closed bool
}

// Issue starts a new request for key and supersedes any earlier ticket.
func (g *Guard) Issue(key string) Ticket {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	g.key = key
	g.closed = false
	return Ticket{Seq: g.seq, Key: key}
}

// Current reports whether t is still the latest ticket for an open view.
func (g *Guard) Current(t Ticket) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return !g.closed && t.Seq == g.seq && t.Key == g.key
}

// Accept runs apply only when t is current and reports whether it did.
func (g *Guard) Accept(t Ticket, apply func()) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed || t.Seq != g.seq || t.Key != g.key {
		return false
	}
	apply()
	return true
}

// Close marks the view as gone. Outstanding tickets are discarded.
func (g *Guard) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
}
