package engine

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"volume_follower/internal/models"
	"volume_follower/internal/window"
)

// base is a wall-clock instant exactly on a 5s boundary.
var base = time.Unix(1_700_000_000, 0).UTC()

func newTestEngine(t *testing.T, mut func(*Config)) (*Engine, *[]window.Result) {
	t.Helper()
	cfg := DefaultConfig("SPY")
	cfg.Tick = time.Hour // rotation driven explicitly in tests
	cfg.MinNotional = 0
	if mut != nil {
		mut(&cfg)
	}
	eng, err := New(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	var results []window.Result
	eng.SetResultHandler(func(r window.Result) { results = append(results, r) })
	return eng, &results
}

func quoteEvent(bid, ask float64) Event {
	q := models.Quote{Symbol: "SPY", BidPrice: bid, AskPrice: ask, ObservedAt: base}
	return Event{Quote: &q}
}

func tradeEvent(ts time.Time, price float64, size int64) Event {
	tr := models.Trade{Symbol: "SPY", Price: price, Size: size, OccurredAt: ts}
	return Event{Trade: &tr}
}

func TestScenarioQuoteThenTrades(t *testing.T) {
	eng, results := newTestEngine(t, nil)
	eng.Process(quoteEvent(100.00, 100.05))
	eng.Process(tradeEvent(base, 100.05, 200))                  // at ask
	eng.Process(tradeEvent(base.Add(time.Second), 100.00, 150)) // at bid
	eng.Tick(base.Add(5 * time.Second))

	if len(*results) != 1 {
		t.Fatalf("expected 1 window, got %d", len(*results))
	}
	r := (*results)[0]
	if r.AskVolume != 200 || r.BidVolume != 150 || r.Delta() != 50 {
		t.Fatalf("got ask=%d bid=%d delta=%d", r.AskVolume, r.BidVolume, r.Delta())
	}
}

func TestMidTradeGoesToCloserSide(t *testing.T) {
	eng, results := newTestEngine(t, nil)
	eng.Process(quoteEvent(100.00, 100.05))
	// distBid=0.02 < distAsk=0.03
	eng.Process(tradeEvent(base, 100.02, 50))
	eng.Tick(base.Add(5 * time.Second))

	if r := (*results)[0]; r.BidVolume != 50 || r.AskVolume != 0 {
		t.Fatalf("mid trade misattributed: %+v", r)
	}
}

func TestTradeBeforeQuoteIsUnclassified(t *testing.T) {
	eng, results := newTestEngine(t, nil)
	eng.Process(tradeEvent(base, 100.05, 200))
	eng.Tick(base.Add(5 * time.Second))

	r := (*results)[0]
	if r.AskVolume != 0 || r.BidVolume != 0 {
		t.Fatalf("indeterminate trade landed in a signed bucket: %+v", r)
	}
	if r.Unclassified != 200 {
		t.Fatalf("unclassified volume got %d want 200", r.Unclassified)
	}
}

func TestMinNotionalFiltering(t *testing.T) {
	eng, results := newTestEngine(t, func(c *Config) { c.MinNotional = 90000 })
	eng.Process(quoteEvent(100.00, 100.05))
	eng.Process(tradeEvent(base, 100.02, 50))   // notional ~5k, dropped
	eng.Process(tradeEvent(base, 100.05, 1000)) // notional ~100k, kept
	eng.Tick(base.Add(5 * time.Second))

	r := (*results)[0]
	if r.Trades != 1 {
		t.Fatalf("filtered trade counted, trades=%d", r.Trades)
	}
	if r.AskVolume != 1000 || r.BidVolume != 0 {
		t.Fatalf("got ask=%d bid=%d", r.AskVolume, r.BidVolume)
	}
}

func TestLargeTradeTaggedNotRebucketed(t *testing.T) {
	eng, results := newTestEngine(t, nil)
	eng.Process(quoteEvent(100.00, 100.05))
	eng.Process(tradeEvent(base, 100.05, 5000)) // notional ~500k
	eng.Tick(base.Add(5 * time.Second))

	r := (*results)[0]
	if r.LargeTrades != 1 {
		t.Fatalf("large trade not tagged: %+v", r)
	}
	if r.AskVolume != 5000 {
		t.Fatalf("large tag changed the bucket: %+v", r)
	}
}

func TestMalformedEventsDropped(t *testing.T) {
	eng, results := newTestEngine(t, nil)
	eng.Process(tradeEvent(base, 0, 100))             // no price
	eng.Process(tradeEvent(base, 100.05, 0))          // no size
	eng.Process(tradeEvent(time.Time{}, 100.05, 100)) // no timestamp
	eng.Process(quoteEvent(0, 100.05))                // malformed quote, not stored
	eng.Process(tradeEvent(base, 100.05, 200))        // valid, but still no quote
	eng.Tick(base.Add(5 * time.Second))

	r := (*results)[0]
	if r.Trades != 1 {
		t.Fatalf("malformed events counted, trades=%d", r.Trades)
	}
	if r.Unclassified != 200 {
		t.Fatalf("malformed quote was stored; got %+v", r)
	}
}

func TestForeignSymbolIgnored(t *testing.T) {
	eng, results := newTestEngine(t, nil)
	eng.Process(quoteEvent(100.00, 100.05))
	qqq := models.Trade{Symbol: "QQQ", Price: 100.05, Size: 999, OccurredAt: base}
	eng.Process(Event{Trade: &qqq})
	eng.Process(tradeEvent(base, 100.05, 100))
	eng.Tick(base.Add(5 * time.Second))

	if r := (*results)[0]; r.Trades != 1 || r.AskVolume != 100 {
		t.Fatalf("foreign symbol leaked into the window: %+v", r)
	}
}

func TestConfigValidation(t *testing.T) {
	cases := []struct {
		name string
		mut  func(*Config)
	}{
		{"empty symbol", func(c *Config) { c.Symbol = "" }},
		{"zero window", func(c *Config) { c.Window = 0 }},
		{"zero tick", func(c *Config) { c.Tick = 0 }},
		{"zero tolerance", func(c *Config) { c.PriceTolerance = 0 }},
		{"negative notional", func(c *Config) { c.MinNotional = -1 }},
		{"big below min", func(c *Config) { c.MinNotional = 100000; c.BigNotional = 50000 }},
		{"negative skew", func(c *Config) { c.ClockSkew = -time.Second }},
	}
	for _, tc := range cases {
		cfg := DefaultConfig("SPY")
		tc.mut(&cfg)
		if _, err := New(cfg, zerolog.Nop()); err == nil {
			t.Fatalf("%s: expected a construction error", tc.name)
		}
	}
}

func TestRunDeliversResultsAndClosesChannel(t *testing.T) {
	cfg := DefaultConfig("SPY")
	cfg.Tick = time.Hour
	cfg.MinNotional = 0
	eng, err := New(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- eng.Run(ctx) }()

	eng.In() <- quoteEvent(100.00, 100.05)
	eng.In() <- tradeEvent(base, 100.05, 200)
	// Crossing the boundary forces the first window out.
	eng.In() <- tradeEvent(base.Add(6*time.Second), 100.05, 100)

	select {
	case r := <-eng.Results():
		if r.AskVolume != 200 || !r.Start.Equal(base) {
			t.Fatalf("unexpected first window: %+v", r)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for the first window")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not stop on cancellation")
	}
	// The open window is discarded, never emitted: the channel just closes.
	if r, ok := <-eng.Results(); ok {
		t.Fatalf("open window emitted on shutdown: %+v", r)
	}
}
