package cursor

import (
	"context"
	"sync"

	"github.com/tradewatch/tradewatch/internal/market"
)

// MemoryStore holds cursors in memory only; state is lost on restart. Used
// when no cursor path or database is configured, and by tests.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[market.ChatID]int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[market.ChatID]int64{}}
}

func (s *MemoryStore) Load(_ context.Context) (map[market.ChatID]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[market.ChatID]int64, len(s.data))
	for k, v := range s.data {
		out[k] = v
	}
	return out, nil
}

func (s *MemoryStore) Save(_ context.Context, cursors map[market.ChatID]int64) error {
	copied := make(map[market.ChatID]int64, len(cursors))
	for k, v := range cursors {
		copied[k] = v
	}
	s.mu.Lock()
	s.data = copied
	s.mu.Unlock()
	return nil
}
