package services

import (
	"context"
	"errors"
	"testing"

	"pricehub/models"
)

var testCategories = []string{"smartphones", "laptops", "headphones", "tshirts", "bags", "shoes"}

func newTestHomeFeed(adapters AdapterRegistry) *HomeFeed {
	h := NewHomeFeed(adapters, HomeFeedConfig{
		Platforms:  []string{"amazon", "flipkart"},
		Categories: testCategories,
		TopN:       5,
		Workers:    1,
	}, newTestLogger(), newTestMetrics())
	h.pick = func(int) int { return 0 } // always amazon
	return h
}

func TestHomeFeedSkipsFailedCategory(t *testing.T) {
	amazon := newFakeAdapter("amazon", nil)
	for _, cat := range testCategories {
		amazon.listings[cat] = []*models.RawListing{rawListing("amazon", "P-"+cat, "₹500")}
	}
	amazon.failFor["laptops"] = errors.New("navigation timeout")

	h := newTestHomeFeed(AdapterRegistry{"amazon": amazon})

	sections, err := h.Compose(context.Background())
	if err != nil {
		t.Fatalf("a category failure must not abort the feed: %v", err)
	}
	if len(sections) != 5 {
		t.Fatalf("got %d sections, want 5", len(sections))
	}
	for _, s := range sections {
		if s.Category == "laptops" {
			t.Error("failed category must be omitted")
		}
	}
	// Remaining sections keep the category list order.
	want := []string{"smartphones", "headphones", "tshirts", "bags", "shoes"}
	for i, s := range sections {
		if s.Category != want[i] {
			t.Errorf("sections[%d] = %s; want %s", i, s.Category, want[i])
		}
	}
}

func TestHomeFeedKeepsCheapestFive(t *testing.T) {
	amazon := newFakeAdapter("amazon", nil)
	prices := []string{"₹700", "₹100", "₹500", "₹300", "₹900", "₹200", "not a price"}
	var raw []*models.RawListing
	for i, p := range prices {
		raw = append(raw, rawListing("amazon", "P"+string(rune('A'+i)), p))
	}
	for _, cat := range testCategories {
		amazon.listings[cat] = raw
	}

	h := newTestHomeFeed(AdapterRegistry{"amazon": amazon})

	sections, err := h.Compose(context.Background())
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if len(sections) != len(testCategories) {
		t.Fatalf("got %d sections, want %d", len(sections), len(testCategories))
	}

	got := sections[0].Products
	if len(got) != 5 {
		t.Fatalf("got %d products, want the cheapest 5", len(got))
	}
	wantPrices := []float64{100, 200, 300, 500, 700}
	for i, p := range got {
		if p.Price != wantPrices[i] {
			t.Errorf("products[%d].Price = %v; want %v", i, p.Price, wantPrices[i])
		}
	}
}

func TestHomeFeedNoAdapterIsAnError(t *testing.T) {
	h := newTestHomeFeed(AdapterRegistry{})

	if _, err := h.Compose(context.Background()); !errors.Is(err, ErrNoAdapter) {
		t.Fatalf("Compose = %v; want ErrNoAdapter", err)
	}
}

func TestHomeFeedParallelWorkersPreserveOrder(t *testing.T) {
	amazon := newFakeAdapter("amazon", nil)
	for _, cat := range testCategories {
		amazon.listings[cat] = []*models.RawListing{rawListing("amazon", "P-"+cat, "₹500")}
	}

	h := NewHomeFeed(AdapterRegistry{"amazon": amazon}, HomeFeedConfig{
		Platforms:  []string{"amazon"},
		Categories: testCategories,
		TopN:       5,
		Workers:    4,
	}, newTestLogger(), newTestMetrics())
	h.pick = func(int) int { return 0 }

	sections, err := h.Compose(context.Background())
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	for i, s := range sections {
		if s.Category != testCategories[i] {
			t.Errorf("sections[%d] = %s; want %s", i, s.Category, testCategories[i])
		}
	}
}
