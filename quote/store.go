package quote

import (
	"sync"

	"github.com/thunderpay/thunder-go/types"
)

// Store persists the most recent quote per category so a session whose
// in-memory state was cleared by a remount can recover it at PIN entry.
// It is read once on PIN entry and never watched for changes.
type Store interface {
	Save(category types.Category, q *types.Quote)
	Load(category types.Category) (*types.Quote, bool)
	Delete(category types.Category)
}

// MemoryStore is the default Store.
type MemoryStore struct {
	mu     sync.Mutex
	quotes map[types.Category]*types.Quote
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{quotes: make(map[types.Category]*types.Quote)}
}

func (s *MemoryStore) Save(category types.Category, q *types.Quote) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quotes[category] = q
}

func (s *MemoryStore) Load(category types.Category) (*types.Quote, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.quotes[category]
	return q, ok
}

func (s *MemoryStore) Delete(category types.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.quotes, category)
}
