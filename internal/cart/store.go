package cart

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// Store is the cart state container. Mutations never return errors: they apply to the
// in-memory lines and persist synchronously, logging any persistence failure.
type Store struct {
	mu        sync.Mutex
	items     []Item
	version   int
	persister Persister
	logg      *logger.Logger
}

// NewStore builds an empty store; call Load to hydrate it from the persister.
func NewStore(persister Persister, logg *logger.Logger) *Store {
	if persister == nil {
		persister = NewMemoryPersister(nil)
	}
	return &Store{persister: persister, logg: logg}
}

// Load replaces the current lines with whatever the persister holds. Corrupt data
// degrades to an empty cart.
func (s *Store) Load(ctx context.Context) {
	raw, err := s.persister.Load(ctx)
	if err != nil {
		s.warn(ctx, "cart.load_failed", err)
	}
	env := DecodeEnvelope(raw)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = env.Items
	s.version = env.Version
}

// AddItem merges by (branch, variant): an existing line's qty grows by qty, otherwise
// the item is appended. qty below 1 counts as 1.
func (s *Store) AddItem(ctx context.Context, item Item, qty int) {
	if qty < 1 {
		qty = 1
	}

	s.mu.Lock()
	merged := false
	for i := range s.items {
		if s.items[i].matches(item.BranchID, item.VariantID) {
			s.items[i].Qty += qty
			merged = true
			break
		}
	}
	if !merged {
		item.Qty = qty
		s.items = append(s.items, item)
	}
	s.mu.Unlock()

	s.persist(ctx)
}

// UpdateQty replaces a line's qty; qty below 1 removes the line.
func (s *Store) UpdateQty(ctx context.Context, branchID, variantID string, qty int) {
	if qty < 1 {
		s.RemoveItem(ctx, branchID, variantID)
		return
	}

	s.mu.Lock()
	for i := range s.items {
		if s.items[i].matches(branchID, variantID) {
			s.items[i].Qty = qty
			break
		}
	}
	s.mu.Unlock()

	s.persist(ctx)
}

// RemoveItem drops the matching line; absent lines are a no-op.
func (s *Store) RemoveItem(ctx context.Context, branchID, variantID string) {
	s.mu.Lock()
	kept := s.items[:0]
	for _, it := range s.items {
		if !it.matches(branchID, variantID) {
			kept = append(kept, it)
		}
	}
	s.items = kept
	s.mu.Unlock()

	s.persist(ctx)
}

// Clear empties the cart. Clearing an empty cart is harmless.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	s.items = nil
	s.mu.Unlock()

	s.persist(ctx)
}

// Replace swaps every line for the valid entries of env, keeping env's version.
func (s *Store) Replace(ctx context.Context, env Envelope) {
	s.mu.Lock()
	s.items = append([]Item(nil), env.Items...)
	s.version = env.Version
	s.mu.Unlock()

	s.persist(ctx)
}

// Subtotal is Σ unitPrice × qty with no discounts or extra rounding.
func (s *Store) Subtotal() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := decimal.Zero
	for _, it := range s.items {
		total = total.Add(it.LineTotal())
	}
	return total
}

// ItemCount is the number of units, not lines.
func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, it := range s.items {
		count += it.Qty
	}
	return count
}

// Items returns a copy of the current lines.
func (s *Store) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Item(nil), s.items...)
}

// BranchID is the branch checkout uses: the branch of the first line.
func (s *Store) BranchID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.items) == 0 {
		return ""
	}
	return s.items[0].BranchID
}

// Version returns the envelope version read at load time.
func (s *Store) Version() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

func (s *Store) persist(ctx context.Context) {
	s.mu.Lock()
	env := Envelope{Items: append([]Item(nil), s.items...), Version: s.version}
	s.mu.Unlock()

	raw, err := EncodeEnvelope(env)
	if err != nil {
		s.warn(ctx, "cart.encode_failed", err)
		return
	}
	if err := s.persister.Save(ctx, raw); err != nil {
		s.warn(ctx, "cart.persist_failed", err)
	}
}

func (s *Store) warn(ctx context.Context, msg string, err error) {
	if s.logg == nil {
		return
	}
	s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), msg)
}
