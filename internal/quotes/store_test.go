package quotes

import (
	"sync"
	"testing"
	"time"

	"volume_follower/internal/models"
)

func TestCurrentBeforeAnyUpdate(t *testing.T) {
	s := NewStore()
	if _, ok := s.Current("SPY"); ok {
		t.Fatalf("expected no quote before first update")
	}
}

func TestUpdateIsLastWriteWins(t *testing.T) {
	s := NewStore()
	now := time.Now()
	s.Update(models.Quote{Symbol: "SPY", BidPrice: 100.00, AskPrice: 100.05, ObservedAt: now})
	// Older ObservedAt still replaces: arrival order wins.
	s.Update(models.Quote{Symbol: "SPY", BidPrice: 99.95, AskPrice: 100.00, ObservedAt: now.Add(-time.Second)})

	q, ok := s.Current("SPY")
	if !ok {
		t.Fatalf("expected a quote")
	}
	if q.BidPrice != 99.95 || q.AskPrice != 100.00 {
		t.Fatalf("expected the most recently applied quote, got %+v", q)
	}
}

func TestSymbolsAreIndependent(t *testing.T) {
	s := NewStore()
	s.Update(models.Quote{Symbol: "SPY", BidPrice: 100.00, AskPrice: 100.05})
	if _, ok := s.Current("QQQ"); ok {
		t.Fatalf("unexpected quote for an unseen symbol")
	}
}

func TestNoTornReadsUnderConcurrency(t *testing.T) {
	s := NewStore()
	const spread = 0.05
	done := make(chan struct{})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 5000; i++ {
			px := 100.0 + float64(i)*0.01
			s.Update(models.Quote{Symbol: "SPY", BidPrice: px, AskPrice: px + spread})
		}
		close(done)
	}()

	for {
		select {
		case <-done:
			wg.Wait()
			return
		default:
		}
		if q, ok := s.Current("SPY"); ok {
			if diff := q.AskPrice - q.BidPrice; diff < spread-1e-9 || diff > spread+1e-9 {
				t.Fatalf("torn read: bid=%v ask=%v", q.BidPrice, q.AskPrice)
			}
		}
	}
}
