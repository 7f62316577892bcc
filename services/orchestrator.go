package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"pricehub/metrics"
	"pricehub/models"
	"pricehub/storage"
	"pricehub/utils"
)

// Orchestrator drives the search pipeline: validate, consult the freshness
// cache, on a miss scrape both platforms strictly in sequence, persist the
// rewritten scope, and return the interleaved projection.
type Orchestrator struct {
	adapters AdapterRegistry
	cache    *FreshnessCache
	logger   *utils.Logger
	metrics  *metrics.Registry
	rawDump  storage.RawDumper
	now      func() time.Time
}

// NewOrchestrator creates an Orchestrator. rawDump may be nil, in which case
// raw scrape output is not dumped.
func NewOrchestrator(adapters AdapterRegistry, cache *FreshnessCache, logger *utils.Logger, reg *metrics.Registry, rawDump storage.RawDumper) *Orchestrator {
	return &Orchestrator{
		adapters: adapters,
		cache:    cache,
		logger:   logger,
		metrics:  reg,
		rawDump:  rawDump,
		now:      time.Now,
	}
}

// CanonicalPlatformsKey encodes the unordered platform pair as a stable
// string key: ids lowercased, trimmed, sorted, comma-joined.
func CanonicalPlatformsKey(platforms []string) string {
	ids := make([]string, len(platforms))
	for i, p := range platforms {
		ids[i] = strings.ToLower(strings.TrimSpace(p))
	}
	sort.Strings(ids)
	return strings.Join(ids, ",")
}

// ParsePlatforms splits a csv of platform ids, lowercase-trims each entry,
// drops empties, and truncates to at most two.
func ParsePlatforms(csv string) []string {
	parts := strings.Split(csv, ",")
	platforms := make([]string, 0, 2)
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		platforms = append(platforms, p)
		if len(platforms) == 2 {
			break
		}
	}
	return platforms
}

// Search executes the full pipeline for a (query, platform pair) request.
//
// Adapter failures are isolated: a failing platform contributes an empty
// result and the request proceeds. A cache read failure is downgraded to a
// forced miss. Only a failure of the mandatory persistence write is
// surfaced to the caller.
func (o *Orchestrator) Search(ctx context.Context, query, platformsCsv string) ([]models.ProductView, error) {
	start := o.now()
	defer func() {
		o.metrics.SearchLatency.Observe(o.now().Sub(start).Seconds())
	}()

	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" || strings.TrimSpace(platformsCsv) == "" {
		return nil, fmt.Errorf("%w: missing q or platforms", ErrInvalidRequest)
	}

	platforms := ParsePlatforms(platformsCsv)
	if len(platforms) == 0 {
		return nil, fmt.Errorf("%w: no usable platform ids in %q", ErrInvalidRequest, platformsCsv)
	}
	platformsKey := CanonicalPlatformsKey(platforms)

	cached, hit, err := o.cache.Lookup(query, platformsKey)
	if err != nil {
		// A read failure must not take the request down; scrape instead.
		o.logger.Warn("[search] Cache lookup failed for %q — forcing a miss: %v", query, err)
	}
	if hit {
		o.metrics.CacheHits.Inc()
		o.logger.Info("[search] Cache hit for %q on %s (%d products)", query, platformsKey, len(cached))
		return Project(cached), nil
	}
	o.metrics.CacheMisses.Inc()
	o.logger.Info("[search] Cache miss for %q on %s — starting sequential scrape", query, platformsKey)

	batchAt := o.now()
	step := len(platforms)
	var combined []models.Product
	var raws []*models.RawListing

	for idx, platform := range platforms {
		adapter, ok := o.adapters.Resolve(platform)
		if !ok {
			o.logger.Warn("[search] No adapter for platform %q — skipping", platform)
			continue
		}

		listings, err := adapter.Search(ctx, query)
		if err != nil {
			o.metrics.ScrapeFailures.WithLabelValues(platform).Inc()
			o.logger.Warn("[search] Scrape failed for %s — contributing no results: %v", platform, err)
			continue
		}

		assembled := Assemble(listings, platform, query, platformsKey, batchAt, idx+1, step)
		o.logger.Info("[search] %s: %d raw → %d assembled", platform, len(listings), len(assembled))
		raws = append(raws, listings...)
		combined = append(combined, assembled...)
	}

	if o.rawDump != nil && len(raws) > 0 {
		if err := o.rawDump.WriteRaw(raws); err != nil {
			o.logger.Warn("[search] Raw CSV dump failed: %v", err)
		}
	}

	// An all-platforms failure leaves nothing to persist; keep whatever
	// scope is already stored instead of rewriting it to empty.
	if len(combined) > 0 {
		if err := o.cache.Store(query, platformsKey, combined); err != nil {
			return nil, fmt.Errorf("orchestrator: persist %q: %w", query, err)
		}
		o.metrics.ProductsStored.Add(float64(len(combined)))
	} else {
		o.logger.Warn("[search] No valid products assembled for %q — skipping rewrite", query)
	}

	SortBySeq(combined)
	return Project(combined), nil
}
