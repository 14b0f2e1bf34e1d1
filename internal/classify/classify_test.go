package classify

import "testing"

const (
	bid = 100.00
	ask = 100.05
)

func TestClassifyOutcomes(t *testing.T) {
	c := New(1e-3)
	cases := []struct {
		name  string
		price float64
		want  Outcome
	}{
		{"at ask", 100.05, AtAsk},
		{"at ask within tolerance", 100.0504, AtAsk},
		{"at bid", 100.00, AtBid},
		{"at bid within tolerance", 99.9996, AtBid},
		{"above ask", 100.10, AboveAsk},
		{"below bid", 99.90, BelowBid},
		{"mid closer to bid", 100.02, MidCloserToBid},
		{"mid closer to ask", 100.04, MidCloserToAsk},
		{"mid equidistant", 100.025, MidEquidistant},
	}
	for _, tc := range cases {
		if got := c.Classify(tc.price, bid, ask, true); got != tc.want {
			t.Fatalf("%s: got %v want %v", tc.name, got, tc.want)
		}
	}
}

func TestClassifyWithoutQuote(t *testing.T) {
	c := New(1e-3)
	if got := c.Classify(100.05, 0, 0, false); got != Indeterminate {
		t.Fatalf("expected indeterminate before any quote, got %v", got)
	}
}

func TestSideMapping(t *testing.T) {
	cases := map[Outcome]Side{
		AtAsk:          SideAsk,
		AboveAsk:       SideAsk,
		MidCloserToAsk: SideAsk,
		AtBid:          SideBid,
		BelowBid:       SideBid,
		MidCloserToBid: SideBid,
		MidEquidistant: SideNone,
		Indeterminate:  SideNone,
	}
	for outcome, want := range cases {
		if got := outcome.Side(); got != want {
			t.Fatalf("%v: side got %v want %v", outcome, got, want)
		}
	}
}

func TestZeroToleranceFallsBackToDefault(t *testing.T) {
	c := New(0)
	if got := c.Classify(100.0501, bid, ask, true); got != AtAsk {
		t.Fatalf("expected default tolerance to absorb 1e-4 noise, got %v", got)
	}
}
