package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// Persister stores the opaque envelope bytes for one cart.
type Persister interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, raw []byte) error
}

// MemoryPersister keeps the envelope in process memory.
type MemoryPersister struct {
	mu  sync.Mutex
	raw []byte
}

func NewMemoryPersister(initial []byte) *MemoryPersister {
	return &MemoryPersister{raw: append([]byte(nil), initial...)}
}

func (m *MemoryPersister) Load(context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.raw...), nil
}

func (m *MemoryPersister) Save(_ context.Context, raw []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.raw = append([]byte(nil), raw...)
	return nil
}

// KV is the slice of the redis client used for session carts.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	CartKey(token string) string
}

// RedisPersister keeps one session cart under its namespaced key, refreshing the TTL on every save.
type RedisPersister struct {
	kv  KV
	key string
	ttl time.Duration
}

func NewRedisPersister(kv KV, token string, ttl time.Duration) *RedisPersister {
	return &RedisPersister{kv: kv, key: kv.CartKey(token), ttl: ttl}
}

func (r *RedisPersister) Load(ctx context.Context) ([]byte, error) {
	raw, err := r.kv.Get(ctx, r.key)
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart %s: %w", r.key, err)
	}
	return []byte(raw), nil
}

func (r *RedisPersister) Save(ctx context.Context, raw []byte) error {
	if err := r.kv.Set(ctx, r.key, string(raw), r.ttl); err != nil {
		return fmt.Errorf("save cart %s: %w", r.key, err)
	}
	return nil
}

// PersisterProvider resolves the persister for a cart token.
type PersisterProvider func(token string) Persister

// DefaultMemoryTTL applies when a MemoryStore is built without a TTL.
const DefaultMemoryTTL = 7 * 24 * time.Hour

// MemoryStore keeps session carts in process memory. Entries expire ttl after
// their last save and only a save creates one.
type MemoryStore struct {
	c *cache.Cache
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultMemoryTTL
	}
	cleanup := ttl
	if cleanup > time.Hour {
		cleanup = time.Hour
	}
	return &MemoryStore{c: cache.New(ttl, cleanup)}
}

// Provider resolves token persisters backed by the store.
func (m *MemoryStore) Provider() PersisterProvider {
	return func(token string) Persister {
		return &cachedPersister{c: m.c, key: token}
	}
}

// Len counts live carts, including expired ones the janitor has not swept yet.
func (m *MemoryStore) Len() int {
	return m.c.ItemCount()
}

// MemoryProvider is NewMemoryStore(ttl).Provider().
func MemoryProvider(ttl time.Duration) PersisterProvider {
	return NewMemoryStore(ttl).Provider()
}

type cachedPersister struct {
	c   *cache.Cache
	key string
}

func (p *cachedPersister) Load(context.Context) ([]byte, error) {
	v, ok := p.c.Get(p.key)
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v.([]byte)...), nil
}

func (p *cachedPersister) Save(_ context.Context, raw []byte) error {
	p.c.SetDefault(p.key, append([]byte(nil), raw...))
	return nil
}

// RedisProvider stores each token's cart in redis with the given TTL.
func RedisProvider(kv KV, ttl time.Duration) PersisterProvider {
	return func(token string) Persister {
		return NewRedisPersister(kv, token, ttl)
	}
}
