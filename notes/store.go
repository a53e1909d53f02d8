// Package notes persists the per-SKU notes memo that lets a run skip the
// detail fetch for variants already enriched by an earlier run.
package notes

import (
	"context"
	"log/slog"
)

// Store is the persistent backing for the notes memo. Append-only:
// entries are never updated or removed.
type Store interface {
	// Load reads the full store. A missing or unreadable store is not an
	// error for callers; implementations return an empty map instead.
	Load(ctx context.Context) (map[string]string, error)
	// Append durably records one (sku, notes) pair, write-through.
	Append(ctx context.Context, sku, notes string) error
	Close() error
}

// Cache is the in-memory view of a Store for one run. Reads hit the map,
// appends go through to the store immediately so a crash mid-run keeps
// everything enriched so far.
type Cache struct {
	store   Store
	entries map[string]string
}

// NewCache loads the store once. A load failure degrades to an empty
// cache; the run proceeds as if no prior notes existed.
func NewCache(ctx context.Context, store Store) *Cache {
	entries, err := store.Load(ctx)
	if err != nil {
		slog.Warn("notes store load failed, starting with empty cache", slog.Any("error", err))
		entries = make(map[string]string)
	}
	if entries == nil {
		entries = make(map[string]string)
	}
	return &Cache{store: store, entries: entries}
}

// Get returns the notes recorded for sku, if any.
func (c *Cache) Get(sku string) (string, bool) {
	v, ok := c.entries[sku]
	return v, ok
}

// Contains reports whether sku was enriched by an earlier run.
func (c *Cache) Contains(sku string) bool {
	_, ok := c.entries[sku]
	return ok
}

// Append records the pair in memory and in the backing store. A store
// write failure is logged, not escalated: the run keeps its in-memory copy.
func (c *Cache) Append(ctx context.Context, sku, notes string) {
	c.entries[sku] = notes
	if err := c.store.Append(ctx, sku, notes); err != nil {
		slog.Warn("notes append failed", slog.String("sku", sku), slog.Any("error", err))
	}
}

// Len returns the number of cached SKUs.
func (c *Cache) Len() int {
	return len(c.entries)
}
