// Package classify decides whether a trade was buyer- or seller-initiated by
// comparing its price to the prevailing best bid/ask. This is the quote-rule
// approximation of "uptick adds to ask volume, downtick adds to bid volume":
// exactness depends on quote freshness, not on order-book reconstruction.
package classify

import "math"

// Outcome is the classification of one trade against the prevailing quote.
type Outcome int

const (
	// Indeterminate means no quote was known for the instrument yet.
	Indeterminate Outcome = iota
	AtAsk
	AtBid
	AboveAsk
	BelowBid
	MidCloserToAsk
	MidCloserToBid
	MidEquidistant
)

func (o Outcome) String() string {
	switch o {
	case AtAsk:
		return "at_ask"
	case AtBid:
		return "at_bid"
	case AboveAsk:
		return "above_ask"
	case BelowBid:
		return "below_bid"
	case MidCloserToAsk:
		return "mid_closer_to_ask"
	case MidCloserToBid:
		return "mid_closer_to_bid"
	case MidEquidistant:
		return "mid_equidistant"
	default:
		return "indeterminate"
	}
}

// Side is the accumulation bucket an outcome maps to.
type Side int

const (
	// SideNone counts as unclassified volume (diagnostics only).
	SideNone Side = iota
	SideAsk
	SideBid
)

// Side maps the outcome to its volume bucket. Indeterminate and equidistant
// mid trades contribute to neither signed bucket.
func (o Outcome) Side() Side {
	switch o {
	case AtAsk, AboveAsk, MidCloserToAsk:
		return SideAsk
	case AtBid, BelowBid, MidCloserToBid:
		return SideBid
	default:
		return SideNone
	}
}

// DefaultTolerance absorbs floating-point noise in feed prices.
const DefaultTolerance = 1e-3

// equidistantTolerance decides when the two mid distances count as equal.
const equidistantTolerance = 1e-9

// Classifier applies the tolerance ladder with a fixed price tolerance.
type Classifier struct {
	eps float64
}

func New(eps float64) *Classifier {
	if eps <= 0 {
		eps = DefaultTolerance
	}
	return &Classifier{eps: eps}
}

// Classify returns the outcome for a trade price against the quote. haveQuote
// is false when no quote has arrived for the instrument yet.
func (c *Classifier) Classify(price, bid, ask float64, haveQuote bool) Outcome {
	if !haveQuote {
		return Indeterminate
	}
	switch {
	case math.Abs(price-ask) < c.eps:
		return AtAsk
	case math.Abs(price-bid) < c.eps:
		return AtBid
	case price > ask+c.eps:
		return AboveAsk
	case price < bid-c.eps:
		return BelowBid
	}
	// Strictly between bid and ask, outside tolerance of both.
	distAsk := math.Abs(price - ask)
	distBid := math.Abs(price - bid)
	if math.Abs(distAsk-distBid) < equidistantTolerance {
		return MidEquidistant
	}
	if distAsk < distBid {
		return MidCloserToAsk
	}
	return MidCloserToBid
}
