package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"pricehub/metrics"
	"pricehub/models"
	"pricehub/utils"
)

func newTestLogger() *utils.Logger { return utils.NewLogger() }

func scopeKey(query, platformsKey string) string { return query + "|" + platformsKey }

// fakeStore is an in-memory ProductStore with error injection knobs.
type fakeStore struct {
	mu           sync.Mutex
	scopes       map[string][]models.Product
	readErr      error
	failNextRead error
	writeErr     error
	replaceCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{scopes: make(map[string][]models.Product)}
}

func (f *fakeStore) FetchScope(query, platformsKey string) ([]models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return nil, f.readErr
	}
	out := append([]models.Product(nil), f.scopes[scopeKey(query, platformsKey)]...)
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

func (f *fakeStore) LatestSearchedAt(query, platformsKey string) (time.Time, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNextRead != nil {
		err := f.failNextRead
		f.failNextRead = nil
		return time.Time{}, false, err
	}
	if f.readErr != nil {
		return time.Time{}, false, f.readErr
	}
	var latest time.Time
	products := f.scopes[scopeKey(query, platformsKey)]
	for _, p := range products {
		if p.SearchedAt.After(latest) {
			latest = p.SearchedAt
		}
	}
	return latest, len(products) > 0, nil
}

func (f *fakeStore) Replace(query, platformsKey string, products []models.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replaceCalls++
	if f.writeErr != nil {
		return f.writeErr
	}
	// Mirror the best-effort unique index: one row per seq.
	kept := make([]models.Product, 0, len(products))
	seen := make(map[int]struct{})
	for _, p := range products {
		if _, dup := seen[p.Seq]; dup {
			continue
		}
		seen[p.Seq] = struct{}{}
		kept = append(kept, p)
	}
	f.scopes[scopeKey(query, platformsKey)] = kept
	return nil
}

func (f *fakeStore) RecentQueries(limit int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return nil, f.readErr
	}
	latest := make(map[string]time.Time)
	for _, products := range f.scopes {
		for _, p := range products {
			if p.SearchedAt.After(latest[p.SearchQuery]) {
				latest[p.SearchQuery] = p.SearchedAt
			}
		}
	}
	queries := make([]string, 0, len(latest))
	for q := range latest {
		queries = append(queries, q)
	}
	sort.Slice(queries, func(i, j int) bool {
		return latest[queries[i]].After(latest[queries[j]])
	})
	if len(queries) > limit {
		queries = queries[:limit]
	}
	return queries, nil
}

func (f *fakeStore) Close() error { return nil }

// fakeAdapter records its calls and serves canned listings, optionally
// failing for specific queries.
type fakeAdapter struct {
	platform string
	listings map[string][]*models.RawListing
	failFor  map[string]error
	calls    *[]string
}

func newFakeAdapter(platform string, calls *[]string) *fakeAdapter {
	return &fakeAdapter{
		platform: platform,
		listings: make(map[string][]*models.RawListing),
		failFor:  make(map[string]error),
		calls:    calls,
	}
}

func (f *fakeAdapter) Platform() string { return f.platform }

func (f *fakeAdapter) Search(_ context.Context, query string) ([]*models.RawListing, error) {
	if f.calls != nil {
		*f.calls = append(*f.calls, f.platform+":"+query)
	}
	if err, ok := f.failFor[query]; ok {
		return nil, err
	}
	return f.listings[query], nil
}

func rawListing(platform, name, price string) *models.RawListing {
	return &models.RawListing{
		Name:      name,
		RawPrice:  price,
		Link:      "https://example.com/" + platform + "/" + name,
		Platform:  platform,
		ScrapedAt: time.Now(),
	}
}

func newTestMetrics() *metrics.Registry { return metrics.NewRegistry() }
