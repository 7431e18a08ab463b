package cmd

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/theirongolddev/finview/internal/finapi"
	"github.com/theirongolddev/finview/internal/model"
	"github.com/theirongolddev/finview/internal/projection"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"12.50", 12.5, false},
		{" $1,200 ", 1200, false},
		{"0", 0, true},
		{"-5", 0, true},
		{"abc", 0, true},
	}
	for _, tt := range tests {
		got, err := parseAmount(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("parseAmount(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("parseAmount(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := parseDate("2025-06-15", time.UTC)
	if err != nil {
		t.Fatalf("parseDate: %v", err)
	}
	if want := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC); !d.Equal(want) {
		t.Errorf("parseDate = %v, want %v", d, want)
	}
	if _, err := parseDate("06/15/2025", time.UTC); err == nil {
		t.Error("expected error for non-ISO date")
	}
}

func TestSplitExpense(t *testing.T) {
	desc, amount, err := splitExpense("Rent = 1,500")
	if err != nil {
		t.Fatalf("splitExpense: %v", err)
	}
	if desc != "Rent" || amount != 1500 {
		t.Errorf("splitExpense = (%q, %v), want (Rent, 1500)", desc, amount)
	}
	for _, bad := range []string{"Rent", "=10", "Rent=0"} {
		if _, _, err := splitExpense(bad); err == nil {
			t.Errorf("splitExpense(%q) expected error", bad)
		}
	}
}

func TestSplitIntervalExpense(t *testing.T) {
	desc, idx, amount, err := splitIntervalExpense("Car repair@3=400")
	if err != nil {
		t.Fatalf("splitIntervalExpense: %v", err)
	}
	if desc != "Car repair" || idx != 3 || amount != 400 {
		t.Errorf("got (%q, %d, %v), want (Car repair, 3, 400)", desc, idx, amount)
	}
	if _, _, _, err := splitIntervalExpense("Car repair=400"); err == nil {
		t.Error("expected error without @interval")
	}
	if _, _, _, err := splitIntervalExpense("Car@x=400"); err == nil {
		t.Error("expected error for non-numeric interval")
	}
}

func TestDropLastExpense(t *testing.T) {
	in := projection.Input{
		MonthlyExpenses:  []projection.MonthlyExpense{{ID: 1, Desc: "rent"}, {ID: 5, Desc: "gym"}},
		IntervalExpenses: []projection.IntervalExpense{{ID: 3, Desc: "car"}},
	}
	out := dropLastExpense(in)
	if len(out.MonthlyExpenses) != 1 || out.MonthlyExpenses[0].Desc != "rent" {
		t.Fatalf("monthly = %+v, want only rent", out.MonthlyExpenses)
	}
	if len(out.IntervalExpenses) != 1 {
		t.Fatalf("interval expenses changed: %+v", out.IntervalExpenses)
	}
	if len(in.MonthlyExpenses) != 2 || in.MonthlyExpenses[1].Desc != "gym" {
		t.Errorf("input mutated: %+v", in.MonthlyExpenses)
	}

	out = dropLastExpense(out)
	if len(out.IntervalExpenses) != 0 {
		t.Errorf("interval = %+v, want empty", out.IntervalExpenses)
	}

	empty := dropLastExpense(projection.Input{})
	if len(empty.MonthlyExpenses)+len(empty.IntervalExpenses) != 0 {
		t.Error("dropping from an empty draft should be a no-op")
	}
}

func TestNextExpenseID(t *testing.T) {
	now := time.UnixMilli(1000)
	in := projection.Input{MonthlyExpenses: []projection.MonthlyExpense{{ID: 5000}}}
	if got := nextExpenseID(in, now); got != 5001 {
		t.Errorf("nextExpenseID = %d, want 5001", got)
	}
	if got := nextExpenseID(projection.Input{}, now); got != 1000 {
		t.Errorf("nextExpenseID(empty) = %d, want 1000", got)
	}
}

func TestSplitTickers(t *testing.T) {
	got := strings.Join(splitTickers(" aapl, ,msft,NVDA "), ",")
	if got != "AAPL,MSFT,NVDA" {
		t.Errorf("splitTickers = %q, want AAPL,MSFT,NVDA", got)
	}
}

func TestValidURL(t *testing.T) {
	for _, ok := range []string{"http://localhost:8000", "https://api.example.com"} {
		if err := validURL(ok); err != nil {
			t.Errorf("validURL(%q) = %v", ok, err)
		}
	}
	for _, bad := range []string{"", "localhost:8000", "ftp://x"} {
		if err := validURL(bad); err == nil {
			t.Errorf("validURL(%q) expected error", bad)
		}
	}
}

func TestFilterDetachArg(t *testing.T) {
	got := filterDetachArg([]string{"daemon", "--detach", "--addr", "x", "--detach=true"})
	if strings.Join(got, " ") != "daemon --addr x" {
		t.Errorf("filterDetachArg = %v", got)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := map[int64]string{
		512:     "512 B",
		2048:    "2.0 KB",
		3 << 20: "3.0 MB",
	}
	for n, want := range tests {
		if got := formatBytes(n); got != want {
			t.Errorf("formatBytes(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("load: %w", finapi.ErrUnauthorized), "not authenticated, run `finview login`"},
		{finapi.ErrRateLimited, "rate limited by the backend, try again in a minute"},
		{fmt.Errorf("fetch: %w", context.DeadlineExceeded), "the backend did not respond in time"},
		{fmt.Errorf("boom"), "boom"},
	}
	for _, tt := range tests {
		if got := userMessage(tt.err); got != tt.want {
			t.Errorf("userMessage(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestFormatDelta(t *testing.T) {
	if got := formatDelta(10, 0); got != "n/a" {
		t.Errorf("formatDelta(10, 0) = %q, want n/a", got)
	}
	if got := formatDelta(150, 100); !strings.Contains(got, "50") {
		t.Errorf("formatDelta(150, 100) = %q, want a 50%% change", got)
	}
}

func TestShortID(t *testing.T) {
	if got := shortID("0123456789abcdef"); got != "01234567" {
		t.Errorf("shortID = %q", got)
	}
	if got := shortID("abc"); got != "abc" {
		t.Errorf("shortID(short) = %q", got)
	}
}

func TestParseBalance(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"1,200.50", 1200.5, false},
		{"$0", 0, false},
		{"-35", -35, false},
		{"Inf", 0, true},
		{"abc", 0, true},
	}
	for _, tt := range tests {
		got, err := parseBalance(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("parseBalance(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func TestBalancesTableTotals(t *testing.T) {
	tbl := balancesTable([]model.Balance{
		{Name: "checking", Amount: 100, Previous: 80},
		{Name: "cash", Amount: 20},
	})
	if len(tbl.Rows) != 4 {
		t.Fatalf("rows = %d, want 2 balances, separator, total", len(tbl.Rows))
	}
	if tbl.Rows[0][0] != "Checking" || tbl.Rows[3][0] != "Total" || !strings.Contains(tbl.Rows[3][1], "120") {
		t.Errorf("rows = %q", tbl.Rows)
	}
	if got := balancesTable(nil); len(got.Rows) != 1 {
		t.Errorf("empty table rows = %d, want placeholder", len(got.Rows))
	}
}

func TestParseOnOff(t *testing.T) {
	for _, s := range []string{"on", "TRUE", " yes "} {
		if v, err := parseOnOff(s); err != nil || !v {
			t.Errorf("parseOnOff(%q) = %v, %v", s, v, err)
		}
	}
	if v, err := parseOnOff("off"); err != nil || v {
		t.Errorf("parseOnOff(off) = %v, %v", v, err)
	}
	if _, err := parseOnOff("maybe"); err == nil {
		t.Error("parseOnOff(maybe) = nil error")
	}
}

func TestNewsTableLimit(t *testing.T) {
	news := make([]model.NewsArticle, 8)
	for i := range news {
		news[i] = model.NewsArticle{Title: fmt.Sprintf("headline %d", i), PublishedDate: "2025-06-14 10:00:00"}
	}
	tbl := newsTable(news, stockNewsLimit)
	if len(tbl.Rows) != stockNewsLimit {
		t.Fatalf("rows = %d, want %d", len(tbl.Rows), stockNewsLimit)
	}
	if tbl.Rows[0][0] != "2025-06-14" {
		t.Errorf("date cell = %q", tbl.Rows[0][0])
	}
	if got := truncate(strings.Repeat("x", 10), 5); got != "xxxx…" {
		t.Errorf("truncate = %q", got)
	}
}
