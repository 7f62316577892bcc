package services

import (
	"fmt"
	"time"

	"pricehub/models"
	"pricehub/storage"
)

// FreshnessCache is the TTL-gated decision layer over persisted products,
// keyed by (query, platformsKey). A scope is fresh while its newest batch is
// no older than the TTL; anything else is a miss.
type FreshnessCache struct {
	store storage.ProductStore
	ttl   time.Duration
	now   func() time.Time
}

// NewFreshnessCache creates a FreshnessCache over the given store.
func NewFreshnessCache(store storage.ProductStore, ttl time.Duration) *FreshnessCache {
	return &FreshnessCache{store: store, ttl: ttl, now: time.Now}
}

// Lookup returns the cached scope, ordered by sequence, when its latest
// batch is still within the TTL window. The boolean reports a hit.
func (c *FreshnessCache) Lookup(query, platformsKey string) ([]models.Product, bool, error) {
	latest, exists, err := c.store.LatestSearchedAt(query, platformsKey)
	if err != nil {
		return nil, false, fmt.Errorf("cache: lookup %q: %w", query, err)
	}
	if !exists || c.now().Sub(latest) > c.ttl {
		return nil, false, nil
	}

	products, err := c.store.FetchScope(query, platformsKey)
	if err != nil {
		return nil, false, fmt.Errorf("cache: fetch %q: %w", query, err)
	}
	return products, true, nil
}

// Store rewrites the scope with a fresh result set. The underlying Replace
// is delete-then-insert with best-effort ordered inserts; it is not wrapped
// in a transaction, so a crash in between degrades to a miss on the next
// read rather than corrupting the scope.
func (c *FreshnessCache) Store(query, platformsKey string, products []models.Product) error {
	if err := c.store.Replace(query, platformsKey, products); err != nil {
		return fmt.Errorf("cache: store %q: %w", query, err)
	}
	return nil
}
