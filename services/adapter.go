package services

import (
	"context"

	"pricehub/models"
)

// SiteAdapter turns a search term or category into raw listings for one
// marketplace. An empty result is not an error; navigation or timeout
// failures are returned as errors and treated by callers as zero results
// for that platform, never as a request-fatal condition.
type SiteAdapter interface {
	Platform() string
	Search(ctx context.Context, query string) ([]*models.RawListing, error)
}

// AdapterRegistry maps platform ids to their adapters.
type AdapterRegistry map[string]SiteAdapter

// Resolve looks up the adapter for a platform id.
func (r AdapterRegistry) Resolve(platform string) (SiteAdapter, bool) {
	a, ok := r[platform]
	return a, ok
}
