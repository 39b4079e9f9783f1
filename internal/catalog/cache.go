package catalog

import (
	"time"

	"github.com/patrickmn/go-cache"
)

const (
	keyActiveBranches = "branches:active"
	keyCategories     = "categories:all"
	keyBranchPrefix   = "branch:"
)

// lookupCache time-boxes branch and category lookups. Stock is never cached.
type lookupCache struct {
	c *cache.Cache
}

func newLookupCache(ttl, cleanup time.Duration) *lookupCache {
	if ttl <= 0 {
		return &lookupCache{}
	}
	return &lookupCache{c: cache.New(ttl, cleanup)}
}

func cached[T any](lc *lookupCache, key string, load func() (T, error)) (T, error) {
	if lc != nil && lc.c != nil {
		if v, ok := lc.c.Get(key); ok {
			return v.(T), nil
		}
	}
	v, err := load()
	if err != nil {
		return v, err
	}
	if lc != nil && lc.c != nil {
		lc.c.SetDefault(key, v)
	}
	return v, nil
}

// Flush drops every cached lookup, e.g. after an admin edit.
func (lc *lookupCache) Flush() {
	if lc != nil && lc.c != nil {
		lc.c.Flush()
	}
}
