package fetch

import (
	"sync"
	"testing"
)

func TestLatestTicketWins(t *testing.T) {
	var g Guard
	first := g.Issue("search_ap")
	second := g.Issue("search_app")

	if g.Current(first) {
		t.Fatal("superseded ticket is current")
	}
	if !g.Current(second) {
		t.Fatal("latest ticket is not current")
	}

	var applied string
	if g.Accept(first, func() { applied = "first" }) {
		t.Fatal("Accept(first) = true")
	}
	if !g.Accept(second, func() { applied = "second" }) {
		t.Fatal("Accept(second) = false")
	}
	if applied != "second" {
		t.Fatalf("applied = %q, want second", applied)
	}
}

func TestSameKeyReissued(t *testing.T) {
	var g Guard
	a := g.Issue("k")
	b := g.Issue("k")
	if g.Current(a) {
		t.Fatal("older ticket with same key is current")
	}
	if !g.Current(b) {
		t.Fatal("newest ticket not current")
	}
}

func TestCloseDropsEverything(t *testing.T) {
	var g Guard
	tk := g.Issue("k")
	g.Close()
	if g.Accept(tk, func() { t.Fatal("applied after Close") }) {
		t.Fatal("Accept after Close = true")
	}

	tk = g.Issue("k")
	if !g.Current(tk) {
		t.Fatal("Issue after Close should reopen the guard")
	}
}

func TestOutOfOrderCompletion(t *testing.T) {
	var g Guard
	tickets := make([]Ticket, 20)
	for i := range tickets {
		tickets[i] = g.Issue("q")
	}

	var mu sync.Mutex
	var applied []uint64
	var wg sync.WaitGroup
	for i := len(tickets) - 1; i >= 0; i-- {
		wg.Add(1)
		go func(tk Ticket) {
			defer wg.Done()
			g.Accept(tk, func() {
				mu.Lock()
				applied = append(applied, tk.Seq)
				mu.Unlock()
			})
		}(tickets[i])
	}
	wg.Wait()

	if len(applied) != 1 || applied[0] != tickets[len(tickets)-1].Seq {
		t.Fatalf("applied = %v, want only the last ticket", applied)
	}
}
