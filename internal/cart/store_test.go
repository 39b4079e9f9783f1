package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func milk(branch string, price int64) Item {
	return Item{
		BranchID:     branch,
		VariantID:    "milk-1l",
		ProductName:  "Fresh Milk",
		VariantLabel: "1L",
		UnitPrice:    decimal.NewFromInt(price),
	}
}

func bread(branch string) Item {
	return Item{
		BranchID:     branch,
		VariantID:    "bread-400g",
		ProductName:  "Sandwich Bread",
		VariantLabel: "400g",
		UnitPrice:    decimal.RequireFromString("185.50"),
	}
}

func TestAddItemMergesSameKey(t *testing.T) {
	ctx := context.Background()
	s := NewStore(nil, nil)

	s.AddItem(ctx, milk("B1", 100), 1)
	s.AddItem(ctx, milk("B1", 100), 1)

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Qty)
}

func TestAddItemKeepsBranchesApart(t *testing.T) {
	ctx := context.Background()
	s := NewStore(nil, nil)

	s.AddItem(ctx, milk("B1", 100), 1)
	s.AddItem(ctx, milk("B2", 100), 1)

	require.Len(t, s.Items(), 2)
	assert.Equal(t, "B1", s.BranchID())
}

func TestAddItemFloorsQtyToOne(t *testing.T) {
	ctx := context.Background()
	s := NewStore(nil, nil)

	s.AddItem(ctx, milk("B1", 100), 0)
	s.AddItem(ctx, bread("B1"), -4)

	assert.Equal(t, 2, s.ItemCount())
}

func TestUpdateQtyDeletesOnZeroOrNegative(t *testing.T) {
	ctx := context.Background()
	for _, qty := range []int{0, -1} {
		s := NewStore(nil, nil)
		s.AddItem(ctx, milk("B1", 100), 3)
		s.AddItem(ctx, bread("B1"), 1)

		s.UpdateQty(ctx, "B1", "milk-1l", qty)

		items := s.Items()
		require.Len(t, items, 1, "qty %d", qty)
		assert.Equal(t, "bread-400g", items[0].VariantID)

		removed := NewStore(nil, nil)
		removed.AddItem(ctx, milk("B1", 100), 3)
		removed.AddItem(ctx, bread("B1"), 1)
		removed.RemoveItem(ctx, "B1", "milk-1l")
		assert.Equal(t, removed.Items(), items)
	}
}

func TestUpdateQtyReplaces(t *testing.T) {
	ctx := context.Background()
	s := NewStore(nil, nil)
	s.AddItem(ctx, milk("B1", 100), 3)

	s.UpdateQty(ctx, "B1", "milk-1l", 5)

	assert.Equal(t, 5, s.ItemCount())
}

func TestRemoveAbsentIsNoop(t *testing.T) {
	ctx := context.Background()
	s := NewStore(nil, nil)
	s.AddItem(ctx, milk("B1", 100), 1)

	s.RemoveItem(ctx, "B1", "missing")

	assert.Len(t, s.Items(), 1)
}

func TestSubtotalIsAdditive(t *testing.T) {
	ctx := context.Background()
	s := NewStore(nil, nil)
	s.AddItem(ctx, milk("B1", 100), 3)
	before := s.Subtotal()
	require.True(t, before.Equal(decimal.NewFromInt(300)))

	s.AddItem(ctx, bread("B1"), 2)

	delta := s.Subtotal().Sub(before)
	assert.True(t, delta.Equal(decimal.RequireFromString("371")), "delta %s", delta)
	assert.Equal(t, 5, s.ItemCount())
}

func TestClearIsIdempotent(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryPersister(nil)
	s := NewStore(p, nil)
	s.AddItem(ctx, milk("B1", 100), 1)

	s.Clear(ctx)
	s.Clear(ctx)

	assert.Empty(t, s.Items())
	assert.True(t, s.Subtotal().IsZero())

	reloaded := NewStore(p, nil)
	reloaded.Load(ctx)
	assert.Empty(t, reloaded.Items())
}

func TestMutationsPersistSynchronously(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryPersister(nil)
	s := NewStore(p, nil)
	s.AddItem(ctx, milk("B1", 100), 2)

	reloaded := NewStore(p, nil)
	reloaded.Load(ctx)
	require.Len(t, reloaded.Items(), 1)
	assert.Equal(t, 2, reloaded.Items()[0].Qty)
	assert.True(t, reloaded.Subtotal().Equal(decimal.NewFromInt(200)))
}

func TestItemsReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewStore(nil, nil)
	s.AddItem(ctx, milk("B1", 100), 1)

	items := s.Items()
	items[0].Qty = 99

	assert.Equal(t, 1, s.ItemCount())
}

type failingPersister struct{}

func (failingPersister) Load(context.Context) ([]byte, error) { return nil, errors.New("down") }
func (failingPersister) Save(context.Context, []byte) error  { return errors.New("down") }

func TestPersistenceFailuresDoNotSurface(t *testing.T) {
	ctx := context.Background()
	s := NewStore(failingPersister{}, nil)

	s.Load(ctx)
	s.AddItem(ctx, milk("B1", 100), 1)

	assert.Equal(t, 1, s.ItemCount())
}
