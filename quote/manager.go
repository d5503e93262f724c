// Package quote owns the quote lifecycle: requesting a priced, expiring
// quote for a payment intent against a funding source, holding it for the
// confirmation and PIN steps, and invalidating it when it may no longer be
// executed.
package quote

import (
	"context"
	"sync"

	"github.com/thunderpay/thunder-go/logger"
	"github.com/thunderpay/thunder-go/types"
)

// Quoter is the backend surface the manager needs.
type Quoter interface {
	Quote(ctx context.Context, intent *types.PaymentIntent, source *types.FundingSource) (*types.Quote, error)
}

// Manager requests and holds quotes. In-memory state is authoritative;
// the Store is a fallback consulted only when memory was cleared.
type Manager struct {
	backend Quoter
	store   Store
	log     logger.Logger

	mu      sync.Mutex
	current map[types.Category]*types.Quote
}

// NewManager builds a Manager. A nil store selects an in-memory one.
func NewManager(backend Quoter, store Store, log logger.Logger) *Manager {
	if store == nil {
		store = NewMemoryStore()
	}
	if log == nil {
		log = logger.NoopLogger{}
	}
	return &Manager{
		backend: backend,
		store:   store,
		log:     log,
		current: make(map[types.Category]*types.Quote),
	}
}

// Request fetches a fresh quote and persists it both in memory and in the
// store. Inputs must carry a positive amount and a resolved funding source.
func (m *Manager) Request(ctx context.Context, intent *types.PaymentIntent, source *types.FundingSource) (*types.Quote, error) {
	if intent == nil || !intent.Amount.IsPositive() {
		return nil, types.E(types.ErrInvalidInput, "amount must be greater than 0")
	}
	if err := source.Validate(); err != nil {
		return nil, err
	}

	q, err := m.backend.Quote(ctx, intent, source)
	if err != nil {
		return nil, err
	}
	if q.Reference == "" || !q.DeductionAmount.IsPositive() {
		return nil, types.E(types.ErrQuoteFailed, "backend returned unusable quote")
	}

	m.mu.Lock()
	m.current[intent.Category] = q
	m.mu.Unlock()
	m.store.Save(intent.Category, q)

	m.log.Debug("quote stored", map[string]any{
		"category":  intent.Category.String(),
		"reference": q.Reference,
		"expiresAt": q.ExpiresAt,
	})
	return q, nil
}

// Current returns the held quote for a category: memory first, store
// fallback. Repeated calls without an intervening Request return the same
// quote.
func (m *Manager) Current(category types.Category) *types.Quote {
	m.mu.Lock()
	q := m.current[category]
	m.mu.Unlock()
	if q != nil {
		return q
	}

	stored, ok := m.store.Load(category)
	if !ok {
		return nil
	}
	m.mu.Lock()
	m.current[category] = stored
	m.mu.Unlock()
	return stored
}

// Invalidate drops the held quote from memory and store. Called when the
// user revisits method selection and after any completed execution, so a
// consumed or stale reference can never be submitted again.
func (m *Manager) Invalidate(category types.Category) {
	m.mu.Lock()
	delete(m.current, category)
	m.mu.Unlock()
	m.store.Delete(category)
}
