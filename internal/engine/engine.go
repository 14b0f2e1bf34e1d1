// Package engine wires quote ingest, trade classification, and window
// aggregation into a single event loop.
package engine

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"volume_follower/internal/classify"
	"volume_follower/internal/metrics"
	"volume_follower/internal/models"
	"volume_follower/internal/quotes"
	"volume_follower/internal/window"
)

// Config fixes engine policy at construction.
type Config struct {
	Symbol         string
	Window         time.Duration // aggregation window length
	Tick           time.Duration // heartbeat driving rotation when no trades arrive
	MinNotional    float64       // trades below this are dropped before classification
	BigNotional    float64       // trades at or above this are tagged large
	PriceTolerance float64       // EPS for price equality against the quote
	ClockSkew      time.Duration // regression allowance before a trade counts as late
}

// DefaultConfig returns the stock policy for one instrument.
func DefaultConfig(symbol string) Config {
	return Config{
		Symbol:         symbol,
		Window:         5 * time.Second,
		Tick:           time.Second,
		MinNotional:    90000,
		BigNotional:    490000,
		PriceTolerance: classify.DefaultTolerance,
		ClockSkew:      2 * time.Second,
	}
}

func (c Config) Validate() error {
	if c.Symbol == "" {
		return errors.New("engine: symbol is required")
	}
	if c.Window <= 0 {
		return errors.New("engine: window must be positive")
	}
	if c.Tick <= 0 {
		return errors.New("engine: tick must be positive")
	}
	if c.PriceTolerance <= 0 {
		return errors.New("engine: price tolerance must be positive")
	}
	if c.MinNotional < 0 || c.BigNotional < 0 {
		return errors.New("engine: notional thresholds must not be negative")
	}
	if c.BigNotional > 0 && c.BigNotional < c.MinNotional {
		return errors.New("engine: big notional below min notional")
	}
	if c.ClockSkew < 0 {
		return errors.New("engine: clock skew must not be negative")
	}
	return nil
}

// Event is one inbound feed message. Exactly one field is set.
type Event struct {
	Quote *models.Quote
	Trade *models.Trade
}

// Engine routes quotes to the store and trades through the classifier into
// the aggregator, and drives rotation from a steady ticker. All state is
// touched only by the Run goroutine.
type Engine struct {
	cfg   Config
	log   zerolog.Logger
	store *quotes.Store
	cls   *classify.Classifier
	agg   *window.Aggregator

	in       chan Event
	out      chan window.Result
	onResult func(window.Result)
}

func New(cfg Config, log zerolog.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		cfg:   cfg,
		log:   log.With().Str("symbol", cfg.Symbol).Logger(),
		store: quotes.NewStore(),
		cls:   classify.New(cfg.PriceTolerance),
		in:    make(chan Event, 1024),
		out:   make(chan window.Result, 64),
	}
	e.onResult = e.deliver
	agg, err := window.New(cfg.Window, cfg.ClockSkew, e.forward)
	if err != nil {
		return nil, err
	}
	e.agg = agg
	return e, nil
}

// SetResultHandler replaces channel delivery with a synchronous callback.
// Must be set before Run or Process is first called.
func (e *Engine) SetResultHandler(fn func(window.Result)) {
	if fn != nil {
		e.onResult = fn
	}
}

// Process applies one event synchronously, for replay and tests. It must not
// be called while Run is active.
func (e *Engine) Process(ev Event) {
	e.handle(ev)
}

// Tick advances the rotation clock synchronously (same restriction as
// Process).
func (e *Engine) Tick(now time.Time) {
	e.agg.OnTick(now)
}

// In is the inbound event channel fed by the transport collaborator.
func (e *Engine) In() chan<- Event {
	return e.in
}

// Results streams finalized windows in boundary order. The channel is closed
// when Run returns; the in-progress window is never emitted.
func (e *Engine) Results() <-chan window.Result {
	return e.out
}

// Run processes events and ticks until the context is canceled.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.cfg.Tick)
	defer ticker.Stop()
	defer close(e.out)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			e.agg.OnTick(now)
		case ev := <-e.in:
			e.handle(ev)
		}
	}
}

func (e *Engine) handle(ev Event) {
	switch {
	case ev.Quote != nil:
		e.handleQuote(*ev.Quote)
	case ev.Trade != nil:
		e.handleTrade(*ev.Trade)
	default:
		metrics.MalformedTotal.Inc()
	}
}

func (e *Engine) handleQuote(q models.Quote) {
	if q.Symbol != e.cfg.Symbol {
		return
	}
	if q.BidPrice <= 0 || q.AskPrice <= 0 {
		metrics.MalformedTotal.Inc()
		e.log.Debug().Float64("bid", q.BidPrice).Float64("ask", q.AskPrice).Msg("dropping malformed quote")
		return
	}
	e.store.Update(q)
	metrics.QuotesTotal.Inc()
}

func (e *Engine) handleTrade(t models.Trade) {
	if t.Symbol != e.cfg.Symbol {
		return
	}
	if t.Price <= 0 || t.Size <= 0 || t.OccurredAt.IsZero() {
		metrics.MalformedTotal.Inc()
		e.log.Debug().Float64("price", t.Price).Int64("size", t.Size).Msg("dropping malformed trade")
		return
	}

	notional := t.Notional()
	if notional < e.cfg.MinNotional {
		metrics.FilteredTotal.Inc()
		return
	}
	large := e.cfg.BigNotional > 0 && notional >= e.cfg.BigNotional

	q, ok := e.store.Current(t.Symbol)
	outcome := e.cls.Classify(t.Price, q.BidPrice, q.AskPrice, ok)
	metrics.TradesTotal.WithLabelValues(outcome.String()).Inc()
	if large {
		metrics.LargeTradesTotal.Inc()
		e.log.Info().
			Float64("price", t.Price).
			Int64("size", t.Size).
			Float64("notional", notional).
			Str("outcome", outcome.String()).
			Msg("large trade")
	}

	if !e.agg.OnTrade(t.OccurredAt, t.Size, outcome.Side(), large, t.Price) {
		metrics.LateTotal.Inc()
		e.log.Debug().Time("occurred_at", t.OccurredAt).Msg("dropping late trade")
	}
}

func (e *Engine) forward(r window.Result) {
	metrics.WindowsTotal.Inc()
	e.onResult(r)
}

// deliver hands a finalized window to the consumer without blocking the
// event loop; a lagging consumer loses windows rather than stalling ticks.
func (e *Engine) deliver(r window.Result) {
	select {
	case e.out <- r:
	default:
		metrics.ResultsDroppedTotal.Inc()
		e.log.Warn().Time("start", r.Start).Msg("result consumer lagging, window dropped")
	}
}
