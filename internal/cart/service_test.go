package cart

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type fakeKV struct {
	data map[string]string
	ttls map[string]time.Duration
	err  error
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeKV) Get(_ context.Context, key string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	v, ok := f.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (f *fakeKV) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	if f.err != nil {
		return f.err
	}
	f.data[key] = value.(string)
	f.ttls[key] = ttl
	return nil
}

func (f *fakeKV) CartKey(token string) string { return "sf:cart:" + token }

func TestNewServiceRequiresProvider(t *testing.T) {
	_, err := NewService(nil, nil)
	require.Error(t, err)
}

func TestServiceRequiresToken(t *testing.T) {
	svc, err := NewService(MemoryProvider(time.Hour), nil)
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), "  ")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestServiceKeepsCartsPerToken(t *testing.T) {
	ctx := context.Background()
	svc, err := NewService(MemoryProvider(time.Hour), nil)
	require.NoError(t, err)

	_, err = svc.Add(ctx, "tab-a", milk("B1", 100), 1)
	require.NoError(t, err)
	view, err := svc.Add(ctx, "tab-a", milk("B1", 100), 2)
	require.NoError(t, err)
	assert.Equal(t, 3, view.ItemCount)
	assert.True(t, view.Subtotal.Equal(decimal.NewFromInt(300)))
	assert.Equal(t, "B1", view.BranchID)

	other, err := svc.Get(ctx, "tab-b")
	require.NoError(t, err)
	assert.Empty(t, other.Items)
	assert.NotNil(t, other.Items)
}

func TestServiceAddRejectsMissingKey(t *testing.T) {
	svc, _ := NewService(MemoryProvider(time.Hour), nil)
	_, err := svc.Add(context.Background(), "tab", Item{ProductName: "x"}, 1)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestServiceUpdateRemoveClear(t *testing.T) {
	ctx := context.Background()
	svc, _ := NewService(MemoryProvider(time.Hour), nil)
	_, _ = svc.Add(ctx, "t", milk("B1", 100), 1)
	_, _ = svc.Add(ctx, "t", bread("B1"), 1)

	view, err := svc.UpdateQty(ctx, "t", "B1", "milk-1l", 4)
	require.NoError(t, err)
	assert.Equal(t, 5, view.ItemCount)

	view, err = svc.Remove(ctx, "t", "B1", "bread-400g")
	require.NoError(t, err)
	assert.Len(t, view.Items, 1)

	view, err = svc.Clear(ctx, "t")
	require.NoError(t, err)
	assert.Zero(t, view.ItemCount)

	view, err = svc.Clear(ctx, "t")
	require.NoError(t, err)
	assert.Zero(t, view.ItemCount)
}

func TestServiceImportKeepsValidEntries(t *testing.T) {
	ctx := context.Background()
	svc, _ := NewService(MemoryProvider(time.Hour), nil)

	view, err := svc.Import(ctx, "t", []byte(`{"state":{"items":[
		{"branchId":"B1","variantId":"V1","productName":"Rice","variantLabel":"5kg","unitPrice":100,"qty":3},
		{"branchId":"B1","variantId":"V2","productName":"Dhal","variantLabel":"1kg","unitPrice":420}
	]},"version":2}`))
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 2, view.Version)
	assert.True(t, view.Subtotal.Equal(decimal.NewFromInt(300)))
}

func TestRedisProviderStoresEnvelopeWithTTL(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	svc, _ := NewService(RedisProvider(kv, 48*time.Hour), nil)

	_, err := svc.Add(ctx, "tok", milk("B1", 100), 2)
	require.NoError(t, err)

	raw, ok := kv.data["sf:cart:tok"]
	require.True(t, ok)
	assert.Equal(t, 48*time.Hour, kv.ttls["sf:cart:tok"])
	env := DecodeEnvelope([]byte(raw))
	require.Len(t, env.Items, 1)
	assert.Equal(t, 2, env.Items[0].Qty)

	view, err := svc.Get(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, 2, view.ItemCount)
}

func TestRedisPersisterMissingKeyIsEmpty(t *testing.T) {
	p := NewRedisPersister(newFakeKV(), "nobody", time.Hour)
	raw, err := p.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, raw)
}

func TestRedisOutageDegradesToEmptyCart(t *testing.T) {
	kv := newFakeKV()
	kv.err = errors.New("connection refused")
	svc, _ := NewService(RedisProvider(kv, time.Hour), nil)

	view, err := svc.Add(context.Background(), "tok", milk("B1", 100), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, view.ItemCount)
}

func TestMemoryStoreOnlySavesCreateEntries(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Hour)
	svc, err := NewService(store.Provider(), nil)
	require.NoError(t, err)

	for i := 0; i < 1000; i++ {
		_, err := svc.Get(ctx, fmt.Sprintf("visitor-%d", i))
		require.NoError(t, err)
	}
	assert.Zero(t, store.Len())

	_, err = svc.Add(ctx, "buyer", milk("B1", 100), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, store.Len())
}

func TestMemoryStoreExpiresIdleCarts(t *testing.T) {
	ctx := context.Background()
	svc, err := NewService(NewMemoryStore(40*time.Millisecond).Provider(), nil)
	require.NoError(t, err)

	_, err = svc.Add(ctx, "tok", milk("B1", 100), 2)
	require.NoError(t, err)
	view, err := svc.Get(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, 2, view.ItemCount)

	time.Sleep(80 * time.Millisecond)
	view, err = svc.Get(ctx, "tok")
	require.NoError(t, err)
	assert.Zero(t, view.ItemCount)
}
