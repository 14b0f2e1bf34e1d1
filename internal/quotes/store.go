// Package quotes holds the most recent best bid/ask per instrument.
package quotes

import (
	"sync"

	"volume_follower/internal/models"
)

// Store is a concurrent last-quote store. Update is last-write-wins by
// arrival order, not by quote timestamp: feeds reorder slightly and the
// engine must stay on the freshest observation.
type Store struct {
	mu     sync.RWMutex
	latest map[string]models.Quote
}

func NewStore() *Store {
	return &Store{latest: make(map[string]models.Quote)}
}

// Update unconditionally replaces the stored quote for the symbol. The
// bid/ask pair is replaced as a unit; readers never see a torn pair.
func (s *Store) Update(q models.Quote) {
	s.mu.Lock()
	s.latest[q.Symbol] = q
	s.mu.Unlock()
}

// Current returns the latest quote for the symbol, or false if none has
// arrived yet.
func (s *Store) Current(symbol string) (models.Quote, bool) {
	s.mu.RLock()
	q, ok := s.latest[symbol]
	s.mu.RUnlock()
	return q, ok
}
