package services

import (
	"context"
	"fmt"
	"math/rand"
	"sort"

	"pricehub/metrics"
	"pricehub/models"
	"pricehub/utils"
)

// HomeFeedConfig holds the knobs for home-feed composition.
type HomeFeedConfig struct {
	// Platforms is the fixed pool one platform is sampled from per request.
	Platforms []string
	// Categories are scraped in order; each successful one yields a section.
	Categories []string
	// TopN is how many of the cheapest products each section keeps.
	TopN int
	// Workers sizes the category worker pool. 1 keeps the scrapes strictly
	// sequential; larger values parallelize categories while section order
	// and per-category failure isolation are preserved.
	Workers     int
	RateLimitMs int
}

// HomeFeed composes the landing-page feed: one randomly chosen platform,
// re-scraped per category, each section keeping its cheapest products.
type HomeFeed struct {
	adapters AdapterRegistry
	cfg      HomeFeedConfig
	logger   *utils.Logger
	metrics  *metrics.Registry
	pick     func(n int) int
}

// NewHomeFeed creates a HomeFeed composer.
func NewHomeFeed(adapters AdapterRegistry, cfg HomeFeedConfig, logger *utils.Logger, reg *metrics.Registry) *HomeFeed {
	if cfg.TopN <= 0 {
		cfg.TopN = 5
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &HomeFeed{
		adapters: adapters,
		cfg:      cfg,
		logger:   logger,
		metrics:  reg,
		pick:     rand.Intn,
	}
}

// Compose builds the ordered list of home-feed sections. A category whose
// scrape fails is logged and skipped; it never aborts the rest of the feed.
func (h *HomeFeed) Compose(ctx context.Context) ([]models.HomeFeedSection, error) {
	if len(h.cfg.Platforms) == 0 {
		return nil, ErrNoAdapter
	}

	platform := h.cfg.Platforms[h.pick(len(h.cfg.Platforms))]
	adapter, ok := h.adapters.Resolve(platform)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoAdapter, platform)
	}

	h.logger.Info("[homefeed] Scraping %d categories on %s", len(h.cfg.Categories), platform)

	results := make([][]*models.RawListing, len(h.cfg.Categories))
	errs := make([]error, len(h.cfg.Categories))

	pool := utils.NewWorkerPool(h.cfg.Workers, h.cfg.RateLimitMs)
	for i, category := range h.cfg.Categories {
		i, category := i, category
		pool.Submit(func() {
			results[i], errs[i] = adapter.Search(ctx, category)
		})
	}
	pool.Wait()

	sections := make([]models.HomeFeedSection, 0, len(h.cfg.Categories))
	for i, category := range h.cfg.Categories {
		if errs[i] != nil {
			h.metrics.ScrapeFailures.WithLabelValues(platform).Inc()
			h.logger.Warn("[homefeed] Category %q failed on %s — skipping: %v", category, platform, errs[i])
			continue
		}

		sections = append(sections, models.HomeFeedSection{
			Category: category,
			Platform: platform,
			Products: h.cheapest(results[i], platform),
		})
	}

	return sections, nil
}

// cheapest normalizes a category's raw listings, drops invalid entries, and
// keeps the TopN cheapest in ascending price order.
func (h *HomeFeed) cheapest(raw []*models.RawListing, platform string) []models.ProductView {
	views := make([]models.ProductView, 0, len(raw))
	for _, r := range raw {
		price := NormalizePrice(r.RawPrice)
		if r.Name == "" || price <= 0 {
			continue
		}
		views = append(views, models.ProductView{
			Platform: platform,
			Name:     r.Name,
			Price:    price,
			Image:    r.Image,
			Link:     r.Link,
		})
	}

	sort.Slice(views, func(i, j int) bool { return views[i].Price < views[j].Price })
	if len(views) > h.cfg.TopN {
		views = views[:h.cfg.TopN]
	}
	for i := range views {
		views[i].ID = i + 1
	}
	return views
}
