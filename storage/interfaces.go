package storage

import (
	"time"

	"pricehub/models"
)

// ProductStore is the contract any persistence backend must satisfy. All
// reads and writes are scoped by the (searchQuery, platformsKey) pair.
type ProductStore interface {
	// FetchScope returns every product in the scope, ordered by Seq ascending.
	FetchScope(query, platformsKey string) ([]models.Product, error)

	// LatestSearchedAt returns the newest batch timestamp in the scope and
	// whether the scope holds any records at all.
	LatestSearchedAt(query, platformsKey string) (time.Time, bool, error)

	// Replace rewrites the scope: delete everything for the exact key, then
	// insert the new set. Inserts are best-effort ordered — rows that collide
	// with another scope's unique index are skipped, not rolled back.
	Replace(query, platformsKey string, products []models.Product) error

	// RecentQueries returns the most recently searched distinct queries,
	// newest first, up to limit.
	RecentQueries(limit int) ([]string, error)

	Close() error
}

// RawDumper persists unprocessed scrape output for debugging. Failures are
// never fatal to a request.
type RawDumper interface {
	WriteRaw(listings []*models.RawListing) error
	Close() error
}
