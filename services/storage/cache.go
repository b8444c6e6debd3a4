package storagesvc

import (
	"context"
	"sync"
	"time"

	"github.com/dsteam/cohortboard/core"
)

type (
	cacheKey struct {
		path   string
		format string
	}

	cacheEntry struct {
		table     core.Table
		fetchedAt time.Time
	}

	// TTLCache decorates a Storage with a time-to-live read cache.
	// Entries are keyed by (path, format) and expire purely by elapsed
	// time; there is no invalidation signal. Listing is never cached.
	TTLCache struct {
		inner core.Storage
		now   func() time.Time

		mu      sync.Mutex
		entries map[cacheKey]cacheEntry
	}
)

var _ core.Storage = (*TTLCache)(nil)

func NewTTLCache(inner core.Storage) *TTLCache {
	return &TTLCache{
		inner:   inner,
		now:     time.Now,
		entries: make(map[cacheKey]cacheEntry),
	}
}

// NewTTLCacheWithClock injects the clock; for tests.
func NewTTLCacheWithClock(inner core.Storage, now func() time.Time) *TTLCache {
	c := NewTTLCache(inner)
	c.now = now
	return c
}

func (c *TTLCache) ListTree(ctx context.Context, root string) ([]core.TreeEntry, error) {
	return c.inner.ListTree(ctx, root)
}

func (c *TTLCache) ReadTable(ctx context.Context, path string, opts core.ReadOptions) (core.Table, error) {
	if opts.TTL <= 0 {
		return c.inner.ReadTable(ctx, path, opts)
	}

	key := cacheKey{path: path, format: opts.Format}
	c.mu.Lock()
	entry, ok := c.entries[key]
	c.mu.Unlock()
	if ok && c.now().Sub(entry.fetchedAt) < opts.TTL {
		return entry.table, nil
	}

	tbl, err := c.inner.ReadTable(ctx, path, opts)
	if err != nil {
		return core.Table{}, err
	}
	c.mu.Lock()
	c.entries[key] = cacheEntry{table: tbl, fetchedAt: c.now()}
	c.mu.Unlock()
	return tbl, nil
}
