package models

import "time"

// Quote is the latest observed top-of-book for an instrument. Only the most
// recent quote per symbol is kept; older ones are discarded on arrival.
type Quote struct {
	Symbol     string
	BidPrice   float64
	AskPrice   float64
	ObservedAt time.Time
}

// Trade is a single tape print, immutable once received.
type Trade struct {
	Symbol     string
	Price      float64
	Size       int64
	OccurredAt time.Time
}

// Notional is the dollar value of the trade.
func (t Trade) Notional() float64 {
	return t.Price * float64(t.Size)
}

// PolygonTrade is the wire shape of a T.* event on the Polygon stocks cluster.
type PolygonTrade struct {
	Event      string  `json:"ev"`
	Symbol     string  `json:"sym"`
	Exchange   int     `json:"x"`
	Price      float64 `json:"p"`
	Size       int64   `json:"s"`
	Conditions []int   `json:"c"`
	Timestamp  int64   `json:"t"` // unix ms
}

// PolygonQuote is the wire shape of a Q.* event.
type PolygonQuote struct {
	Event     string  `json:"ev"`
	Symbol    string  `json:"sym"`
	BidPrice  float64 `json:"bp"`
	BidSize   int64   `json:"bs"`
	AskPrice  float64 `json:"ap"`
	AskSize   int64   `json:"as"`
	Timestamp int64   `json:"t"` // unix ms
}

// PolygonStatus carries connection lifecycle messages (auth, subscriptions).
type PolygonStatus struct {
	Event   string `json:"ev"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Trade converts the wire trade into the domain type.
func (p PolygonTrade) Trade() Trade {
	return Trade{
		Symbol:     p.Symbol,
		Price:      p.Price,
		Size:       p.Size,
		OccurredAt: time.UnixMilli(p.Timestamp),
	}
}

// Quote converts the wire quote into the domain type.
func (p PolygonQuote) Quote() Quote {
	return Quote{
		Symbol:     p.Symbol,
		BidPrice:   p.BidPrice,
		AskPrice:   p.AskPrice,
		ObservedAt: time.UnixMilli(p.Timestamp),
	}
}
