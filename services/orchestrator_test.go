package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"pricehub/models"
)

func newTestOrchestrator(store *fakeStore, adapters AdapterRegistry) *Orchestrator {
	cache := NewFreshnessCache(store, 5*time.Minute)
	return NewOrchestrator(adapters, cache, newTestLogger(), newTestMetrics(), nil)
}

func TestSearchColdCacheScrapesSequentiallyAndPersists(t *testing.T) {
	var calls []string
	amazon := newFakeAdapter("amazon", &calls)
	amazon.listings["shoes"] = []*models.RawListing{
		rawListing("amazon", "A1", "₹1,000"),
		rawListing("amazon", "A2", "₹2,000"),
		rawListing("amazon", "A3", "₹3,000"),
	}
	flipkart := newFakeAdapter("flipkart", &calls)
	flipkart.listings["shoes"] = []*models.RawListing{
		rawListing("flipkart", "F1", "₹1,500"),
		rawListing("flipkart", "F2", "₹2,500"),
	}

	store := newFakeStore()
	o := newTestOrchestrator(store, AdapterRegistry{"amazon": amazon, "flipkart": flipkart})

	results, err := o.Search(context.Background(), "Shoes", "amazon,flipkart")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	wantCalls := []string{"amazon:shoes", "flipkart:shoes"}
	if len(calls) != 2 || calls[0] != wantCalls[0] || calls[1] != wantCalls[1] {
		t.Errorf("adapter call order = %v; want %v", calls, wantCalls)
	}

	if store.replaceCalls != 1 {
		t.Errorf("expected exactly one rewrite, got %d", store.replaceCalls)
	}

	if len(results) != 5 {
		t.Fatalf("got %d results, want 5", len(results))
	}
	for i := 1; i < len(results); i++ {
		if results[i].ID <= results[i-1].ID {
			t.Fatalf("results not sorted by id: %v", results)
		}
	}
	// First four alternate amazon/flipkart, the fifth is amazon's leftover.
	wantPlatforms := []string{"amazon", "flipkart", "amazon", "flipkart", "amazon"}
	for i, r := range results {
		if r.Platform != wantPlatforms[i] {
			t.Errorf("results[%d].Platform = %s; want %s", i, r.Platform, wantPlatforms[i])
		}
	}
}

func TestSearchCacheHitSkipsAdapters(t *testing.T) {
	var calls []string
	amazon := newFakeAdapter("amazon", &calls)
	flipkart := newFakeAdapter("flipkart", &calls)

	store := newFakeStore()
	searchedAt := time.Now().Add(-1 * time.Minute)
	store.Replace("shoes", "amazon,flipkart", []models.Product{
		storedProduct(2, "shoes", "amazon,flipkart", searchedAt),
		storedProduct(1, "shoes", "amazon,flipkart", searchedAt),
	})

	o := newTestOrchestrator(store, AdapterRegistry{"amazon": amazon, "flipkart": flipkart})

	results, err := o.Search(context.Background(), "shoes", "amazon,flipkart")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(calls) != 0 {
		t.Errorf("cache hit must not invoke adapters; got calls %v", calls)
	}
	if len(results) != 2 || results[0].ID != 1 || results[1].ID != 2 {
		t.Errorf("cached results not ordered by id: %v", results)
	}
}

func TestSearchAdapterFailureIsIsolated(t *testing.T) {
	var calls []string
	amazon := newFakeAdapter("amazon", &calls)
	amazon.failFor["shoes"] = errors.New("navigation timeout")
	flipkart := newFakeAdapter("flipkart", &calls)
	flipkart.listings["shoes"] = []*models.RawListing{
		rawListing("flipkart", "F1", "₹999"),
	}

	o := newTestOrchestrator(newFakeStore(), AdapterRegistry{"amazon": amazon, "flipkart": flipkart})

	results, err := o.Search(context.Background(), "shoes", "amazon,flipkart")
	if err != nil {
		t.Fatalf("an adapter failure must not fail the request: %v", err)
	}
	if len(results) != 1 || results[0].Platform != "flipkart" {
		t.Errorf("expected flipkart's lone contribution, got %v", results)
	}
}

func TestSearchBothAdaptersFailingReturnsEmpty(t *testing.T) {
	var calls []string
	amazon := newFakeAdapter("amazon", &calls)
	amazon.failFor["shoes"] = errors.New("blocked")
	flipkart := newFakeAdapter("flipkart", &calls)
	flipkart.failFor["shoes"] = errors.New("blocked")

	store := newFakeStore()
	o := newTestOrchestrator(store, AdapterRegistry{"amazon": amazon, "flipkart": flipkart})

	results, err := o.Search(context.Background(), "shoes", "amazon,flipkart")
	if err != nil {
		t.Fatalf("scraping failure must not become a request error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected empty results, got %v", results)
	}
	if store.replaceCalls != 0 {
		t.Errorf("an empty batch must not rewrite the scope")
	}
}

func TestSearchReadFailureForcesMiss(t *testing.T) {
	var calls []string
	amazon := newFakeAdapter("amazon", &calls)
	amazon.listings["shoes"] = []*models.RawListing{
		rawListing("amazon", "A1", "₹100"),
	}
	flipkart := newFakeAdapter("flipkart", &calls)

	store := newFakeStore()
	store.failNextRead = errors.New("connection refused")

	o := newTestOrchestrator(store, AdapterRegistry{"amazon": amazon, "flipkart": flipkart})

	results, err := o.Search(context.Background(), "shoes", "amazon,flipkart")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(calls) == 0 {
		t.Fatal("a read failure must force a scrape, not a request error")
	}
	if len(results) != 1 {
		t.Errorf("got %d results, want 1", len(results))
	}
}

func TestSearchWriteFailureIsFatal(t *testing.T) {
	var calls []string
	amazon := newFakeAdapter("amazon", &calls)
	amazon.listings["shoes"] = []*models.RawListing{
		rawListing("amazon", "A1", "₹100"),
	}
	flipkart := newFakeAdapter("flipkart", &calls)

	store := newFakeStore()
	store.writeErr = errors.New("disk full")

	o := newTestOrchestrator(store, AdapterRegistry{"amazon": amazon, "flipkart": flipkart})

	if _, err := o.Search(context.Background(), "shoes", "amazon,flipkart"); err == nil {
		t.Fatal("a failing mandatory write must surface as an error")
	}
}

func TestSearchValidation(t *testing.T) {
	o := newTestOrchestrator(newFakeStore(), AdapterRegistry{})

	for _, tt := range []struct{ q, platforms string }{
		{"", "amazon,flipkart"},
		{"shoes", ""},
		{"  ", "amazon,flipkart"},
		{"shoes", " , "},
	} {
		_, err := o.Search(context.Background(), tt.q, tt.platforms)
		if !errors.Is(err, ErrInvalidRequest) {
			t.Errorf("Search(%q, %q) = %v; want ErrInvalidRequest", tt.q, tt.platforms, err)
		}
	}
}

func TestParsePlatformsTruncatesToTwo(t *testing.T) {
	got := ParsePlatforms(" Amazon , FLIPKART , meesho ")
	if len(got) != 2 || got[0] != "amazon" || got[1] != "flipkart" {
		t.Errorf("ParsePlatforms = %v; want [amazon flipkart]", got)
	}
}

func TestCanonicalPlatformsKeyIsOrderInsensitive(t *testing.T) {
	a := CanonicalPlatformsKey([]string{"flipkart", "amazon"})
	b := CanonicalPlatformsKey([]string{"Amazon", " flipkart"})
	if a != b || a != "amazon,flipkart" {
		t.Errorf("keys differ: %q vs %q", a, b)
	}
}
