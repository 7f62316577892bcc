package services

import (
	"fmt"

	"pricehub/storage"
)

const recentQueryLimit = 4

// History derives the most recently seen distinct search queries from
// persisted products. Read-only; no ordering contract beyond recency.
type History struct {
	store storage.ProductStore
}

// NewHistory creates a History aggregator over the given store.
func NewHistory(store storage.ProductStore) *History {
	return &History{store: store}
}

// Recent returns up to four query strings, most recently searched first.
func (h *History) Recent() ([]string, error) {
	queries, err := h.store.RecentQueries(recentQueryLimit)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	return queries, nil
}
