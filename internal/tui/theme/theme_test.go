package theme

import "testing"

func TestByNameFallsBack(t *testing.T) {
	if got := ByName("nope").Name; got != FlexokiDark.Name {
		t.Fatalf("ByName(nope) = %q, want %q", got, FlexokiDark.Name)
	}
	if got := ByName("tokyo-night").Name; got != "tokyo-night" {
		t.Fatalf("ByName(tokyo-night) = %q", got)
	}
}

func TestValidAndNames(t *testing.T) {
	names := Names()
	if len(names) != len(All) {
		t.Fatalf("Names() len = %d, want %d", len(names), len(All))
	}
	for _, n := range names {
		if !Valid(n) {
			t.Fatalf("Valid(%q) = false", n)
		}
	}
	if Valid("") {
		t.Fatal("Valid(\"\") = true")
	}
}

func TestAmountColors(t *testing.T) {
	th := FlexokiDark
	if th.Amount(10) != th.Green {
		t.Fatal("income should be green")
	}
	if th.Amount(-10) != th.Red {
		t.Fatal("spend should be red")
	}
	if th.Amount(0) != th.TextMuted {
		t.Fatal("zero should be muted")
	}
	if th.Change(-0.5) != th.Red || th.Change(1) != th.GreenBright {
		t.Fatal("change colors")
	}
}
