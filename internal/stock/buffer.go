package stock

import "github.com/google/uuid"

// Edit is one pending quantity change.
type Edit struct {
	VariantID uuid.UUID `json:"variantId"`
	Quantity  int       `json:"quantity"`
}

// EditBuffer accumulates quantity edits for one branch. Only touched variants are
// kept and a later Set for the same variant replaces the earlier value in place.
type EditBuffer struct {
	order []uuid.UUID
	qty   map[uuid.UUID]int
}

func NewEditBuffer() *EditBuffer {
	return &EditBuffer{qty: map[uuid.UUID]int{}}
}

// Set records qty for the variant. Negative quantities are dropped without error.
func (b *EditBuffer) Set(variantID uuid.UUID, qty int) {
	if qty < 0 {
		return
	}
	if _, seen := b.qty[variantID]; !seen {
		b.order = append(b.order, variantID)
	}
	b.qty[variantID] = qty
}

// Dirty returns the pending edits in the order they were first set.
func (b *EditBuffer) Dirty() []Edit {
	out := make([]Edit, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, Edit{VariantID: id, Quantity: b.qty[id]})
	}
	return out
}

func (b *EditBuffer) Len() int { return len(b.order) }
