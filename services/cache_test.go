package services

import (
	"errors"
	"testing"
	"time"

	"pricehub/models"
)

func storedProduct(seq int, query, key string, searchedAt time.Time) models.Product {
	return models.Product{
		Seq:             seq,
		Platform:        "amazon",
		Name:            "P",
		Price:           100,
		SearchQuery:     query,
		SearchPlatforms: key,
		SearchedAt:      searchedAt,
	}
}

func TestFreshnessCacheHitWithinTTL(t *testing.T) {
	store := newFakeStore()
	now := time.Now()

	c := NewFreshnessCache(store, 5*time.Minute)
	c.now = func() time.Time { return now }

	searchedAt := now.Add(-4 * time.Minute)
	store.Replace("shoes", "amazon,flipkart", []models.Product{
		storedProduct(1, "shoes", "amazon,flipkart", searchedAt),
		storedProduct(2, "shoes", "amazon,flipkart", searchedAt),
	})

	products, hit, err := c.Lookup("shoes", "amazon,flipkart")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if !hit {
		t.Fatal("expected a hit at 4 minutes with a 5 minute TTL")
	}
	if len(products) != 2 {
		t.Fatalf("got %d products, want 2", len(products))
	}
	if products[0].Seq != 1 || products[1].Seq != 2 {
		t.Errorf("scope not ordered by seq: %d, %d", products[0].Seq, products[1].Seq)
	}
}

func TestFreshnessCacheMissPastTTL(t *testing.T) {
	store := newFakeStore()
	now := time.Now()

	c := NewFreshnessCache(store, 5*time.Minute)
	c.now = func() time.Time { return now }

	store.Replace("shoes", "amazon,flipkart", []models.Product{
		storedProduct(1, "shoes", "amazon,flipkart", now.Add(-6*time.Minute)),
	})

	_, hit, err := c.Lookup("shoes", "amazon,flipkart")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if hit {
		t.Fatal("expected a miss at 6 minutes with a 5 minute TTL")
	}
}

func TestFreshnessCacheMissOnEmptyScope(t *testing.T) {
	c := NewFreshnessCache(newFakeStore(), 5*time.Minute)

	_, hit, err := c.Lookup("shoes", "amazon,flipkart")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if hit {
		t.Fatal("expected a miss for an empty scope")
	}
}

func TestFreshnessCacheSurfacesReadError(t *testing.T) {
	store := newFakeStore()
	store.readErr = errors.New("connection refused")

	c := NewFreshnessCache(store, 5*time.Minute)

	_, hit, err := c.Lookup("shoes", "amazon,flipkart")
	if err == nil {
		t.Fatal("expected an error from a failing store")
	}
	if hit {
		t.Fatal("a failing read must not report a hit")
	}
}
