package stock

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

func discardLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

type stubRepo struct {
	mu       sync.Mutex
	upserted map[uuid.UUID]int
	failOn   map[uuid.UUID]error
	inFlight atomic.Int32
	peak     atomic.Int32
}

func newStubRepo() *stubRepo {
	return &stubRepo{upserted: map[uuid.UUID]int{}, failOn: map[uuid.UUID]error{}}
}

func (s *stubRepo) List(context.Context, uuid.UUID, string) ([]Row, error) { return nil, nil }

func (s *stubRepo) BranchExists(context.Context, uuid.UUID) (bool, error) { return true, nil }

func (s *stubRepo) Upsert(_ context.Context, _ uuid.UUID, variantID uuid.UUID, qty int) error {
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		peak := s.peak.Load()
		if n <= peak || s.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)

	if err := s.failOn[variantID]; err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upserted[variantID] = qty
	return nil
}

type rowCounter struct{ saved, failed int }

func (r *rowCounter) AddStockRows(saved, failed int) {
	r.saved += saved
	r.failed += failed
}

func TestSaveReportsFirstFailureInRequestOrder(t *testing.T) {
	repo := newStubRepo()
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New(), uuid.New()}
	repo.failOn[ids[1]] = errors.New("first failure")
	repo.failOn[ids[3]] = errors.New("second failure")
	counter := &rowCounter{}
	svc, err := NewService(repo, counter, discardLogger(), Options{})
	require.NoError(t, err)

	edits := []Edit{{ids[0], 5}, {ids[1], 6}, {ids[2], 7}, {ids[3], 8}}
	results, err := svc.Save(context.Background(), uuid.New(), edits)
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeWriteFailed, typed.Code())
	assert.Equal(t, "first failure", typed.Message())

	require.Len(t, results, 4)
	for i, res := range results {
		assert.Equal(t, ids[i], res.VariantID)
	}
	assert.True(t, results[0].OK)
	assert.False(t, results[1].OK)
	assert.Equal(t, "first failure", results[1].Error)
	assert.True(t, results[2].OK)
	assert.False(t, results[3].OK)

	assert.Equal(t, map[uuid.UUID]int{ids[0]: 5, ids[2]: 7}, repo.upserted)
	assert.Equal(t, 2, counter.saved)
	assert.Equal(t, 2, counter.failed)
}

func TestSaveRunsUpsertsConcurrently(t *testing.T) {
	repo := newStubRepo()
	svc, err := NewService(repo, nil, discardLogger(), Options{MaxConcurrency: 4})
	require.NoError(t, err)

	var edits []Edit
	for i := 0; i < 12; i++ {
		edits = append(edits, Edit{VariantID: uuid.New(), Quantity: i})
	}
	results, err := svc.Save(context.Background(), uuid.New(), edits)
	require.NoError(t, err)
	assert.Len(t, results, 12)
	assert.Len(t, repo.upserted, 12)
	assert.Greater(t, repo.peak.Load(), int32(1))
	assert.LessOrEqual(t, repo.peak.Load(), int32(4))
}

func TestSaveRejectsNegativeQuantity(t *testing.T) {
	repo := newStubRepo()
	svc, err := NewService(repo, nil, discardLogger(), Options{})
	require.NoError(t, err)

	_, err = svc.Save(context.Background(), uuid.New(), []Edit{{VariantID: uuid.New(), Quantity: -1}})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Empty(t, repo.upserted)
}

func TestSaveWithoutEditsIsNoop(t *testing.T) {
	svc, err := NewService(newStubRepo(), nil, discardLogger(), Options{})
	require.NoError(t, err)

	results, err := svc.Save(context.Background(), uuid.New(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestStockAgainstDatabase(t *testing.T) {
	conn := dbtest.Open(t)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	branch := dbtest.Branch(t, conn, "Colombo 07")
	other := dbtest.Branch(t, conn, "Jaffna")
	rice := dbtest.Product(t, conn, "Basmati Rice", "basmati-rice", dbtest.ProductOpts{})
	small := dbtest.Variant(t, conn, rice.ID, "RICE-1KG", "300", time.Time{})
	large := dbtest.Variant(t, conn, rice.ID, "RICE-5KG", "1400", time.Time{})
	milk := dbtest.Product(t, conn, "Fresh Milk", "fresh-milk", dbtest.ProductOpts{})
	milkV := dbtest.Variant(t, conn, milk.ID, "MILK-1L", "150", time.Time{})
	dbtest.Stock(t, conn, branch.ID, small.ID, 4)
	dbtest.Stock(t, conn, other.ID, milkV.ID, 9)

	svc, err := NewService(NewRepository(conn), nil, discardLogger(), Options{})
	require.NoError(t, err)
	ctx := context.Background()

	rows, err := svc.List(ctx, branch.ID, "")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, small.ID, rows[0].VariantID)
	assert.Equal(t, 4, rows[0].Quantity)
	assert.Equal(t, large.ID, rows[1].VariantID)
	assert.Equal(t, 0, rows[1].Quantity)
	assert.Equal(t, "Fresh Milk", rows[2].ProductName)
	assert.Equal(t, 0, rows[2].Quantity)

	filtered, err := svc.List(ctx, branch.ID, "MILK")
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, milkV.ID, filtered[0].VariantID)

	buf := NewEditBuffer()
	buf.Set(small.ID, 10)
	buf.Set(milkV.ID, 2)
	buf.Set(large.ID, -3)
	results, err := svc.Save(ctx, branch.ID, buf.Dirty())
	require.NoError(t, err)
	require.Len(t, results, 2)

	var inv []models.InventoryRow
	require.NoError(t, conn.Where("branch_id = ?", branch.ID).Find(&inv).Error)
	got := map[uuid.UUID]int{}
	for _, row := range inv {
		got[row.ProductVariantID] = row.Quantity
	}
	assert.Equal(t, map[uuid.UUID]int{small.ID: 10, milkV.ID: 2}, got)

	var otherRow models.InventoryRow
	require.NoError(t, conn.Where("branch_id = ? AND product_variant_id = ?", other.ID, milkV.ID).First(&otherRow).Error)
	assert.Equal(t, 9, otherRow.Quantity)

	_, err = svc.List(ctx, uuid.New(), "")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
