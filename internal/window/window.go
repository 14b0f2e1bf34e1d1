// Package window accumulates classified trade volume into fixed-length,
// wall-clock-aligned time buckets and finalizes them as boundaries pass.
package window

import (
	"errors"
	"math"
	"time"

	"volume_follower/internal/classify"
	"volume_follower/internal/models"
)

// Result is a finalized, immutable window.
type Result struct {
	Start        time.Time
	End          time.Time
	AskVolume    int64
	BidVolume    int64
	Unclassified int64
	Trades       int
	LargeTrades  int
	// LastPrice is the last traded price seen up to the window end;
	// PrevClose is the last traded price at the window open. Spike is
	// the fractional price move over the window times |Delta|.
	LastPrice float64
	PrevClose float64
	Spike     float64
}

// Delta is ask volume minus bid volume, the primary signal.
func (r Result) Delta() int64 {
	return r.AskVolume - r.BidVolume
}

// Output converts the result into the published record shape.
func (r Result) Output(symbol string) models.DeltaOutput {
	return models.DeltaOutput{
		Symbol:       symbol,
		WindowStart:  r.Start.UnixMilli(),
		WindowEnd:    r.End.UnixMilli(),
		AskVolume:    r.AskVolume,
		BidVolume:    r.BidVolume,
		Delta:        r.Delta(),
		Unclassified: r.Unclassified,
		Trades:       int64(r.Trades),
		LargeTrades:  int64(r.LargeTrades),
		LastPrice:    r.LastPrice,
		Spike:        r.Spike,
	}
}

// Aggregator owns at most one open window at a time. It is not safe for
// concurrent use; the engine serializes OnTrade/OnTick in its event loop.
type Aggregator struct {
	size time.Duration
	skew time.Duration
	emit func(Result)

	open        bool
	cur         Result
	lastPrice   float64
	lateDropped int64
}

// New builds an aggregator. size must be positive. skew is how far behind the
// open window start a trade timestamp may fall and still be folded into the
// open window; anything older is dropped as late. emit receives every
// finalized window, in boundary order.
func New(size, skew time.Duration, emit func(Result)) (*Aggregator, error) {
	if size <= 0 {
		return nil, errors.New("window: size must be positive")
	}
	if skew < 0 {
		skew = 0
	}
	if emit == nil {
		emit = func(Result) {}
	}
	return &Aggregator{size: size, skew: skew, emit: emit}, nil
}

// OnTrade accumulates one classified trade. It rotates zero or more times
// until the open window contains ts. Returns false when the trade was
// dropped as late.
func (a *Aggregator) OnTrade(ts time.Time, size int64, side classify.Side, large bool, price float64) bool {
	if !a.open {
		a.openAt(ts)
	}
	if ts.Before(a.cur.Start) {
		if a.cur.Start.Sub(ts) > a.skew {
			a.lateDropped++
			return false
		}
		// Small clock regression: fold into the open window.
	} else {
		for !ts.Before(a.cur.End) {
			a.rotate()
		}
	}

	switch side {
	case classify.SideAsk:
		a.cur.AskVolume += size
	case classify.SideBid:
		a.cur.BidVolume += size
	default:
		a.cur.Unclassified += size
	}
	a.cur.Trades++
	if large {
		a.cur.LargeTrades++
	}
	a.lastPrice = price
	a.cur.LastPrice = price
	return true
}

// OnTick forces rotation on a heartbeat so quiet intervals still emit an
// empty result per boundary. A tick before any event opens the first window.
func (a *Aggregator) OnTick(now time.Time) {
	if !a.open {
		a.openAt(now)
		return
	}
	for !now.Before(a.cur.End) {
		a.rotate()
	}
}

// Open reports the currently open window, if any. The returned copy is a
// snapshot; the open window is never emitted.
func (a *Aggregator) Open() (Result, bool) {
	return a.cur, a.open
}

// LateDropped is the count of trades dropped for arriving before the open
// window's start beyond the skew allowance.
func (a *Aggregator) LateDropped() int64 {
	return a.lateDropped
}

// openAt opens the first window, floored to a wall-clock multiple of the
// window size (boundaries at :00, :05, :10 for a 5s size), never to the
// event's own arrival time.
func (a *Aggregator) openAt(ts time.Time) {
	start := ts.Truncate(a.size)
	a.cur = Result{
		Start:     start,
		End:       start.Add(a.size),
		PrevClose: a.lastPrice,
		LastPrice: a.lastPrice,
	}
	a.open = true
}

// rotate freezes the open window, emits it, and opens the next window at
// exactly the previous end so the boundary sequence stays gap-free.
func (a *Aggregator) rotate() {
	done := a.cur
	done.Spike = spike(done)
	a.emit(done)
	start := done.End
	a.cur = Result{
		Start:     start,
		End:       start.Add(a.size),
		PrevClose: a.lastPrice,
		LastPrice: a.lastPrice,
	}
}

func spike(r Result) float64 {
	if r.PrevClose == 0 || r.LastPrice == 0 {
		return 0
	}
	pct := (r.LastPrice - r.PrevClose) / r.PrevClose
	return pct * math.Abs(float64(r.Delta()))
}
