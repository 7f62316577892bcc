package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry bundles the application's prometheus collectors.
type Registry struct {
	reg *prometheus.Registry

	CacheHits      prometheus.Counter
	CacheMisses    prometheus.Counter
	ScrapeFailures *prometheus.CounterVec
	ProductsStored prometheus.Counter
	SearchLatency  prometheus.Histogram
}

// NewRegistry creates and registers all collectors.
func NewRegistry() *Registry {
	r := prometheus.NewRegistry()

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{Name: "pricehub_cache_hits_total"})
	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{Name: "pricehub_cache_misses_total"})
	scrapeFailures := prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "pricehub_scrape_failures_total"},
		[]string{"platform"},
	)
	productsStored := prometheus.NewCounter(prometheus.CounterOpts{Name: "pricehub_products_stored_total"})
	searchLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "pricehub_search_latency_seconds",
		Buckets: prometheus.DefBuckets,
	})

	r.MustRegister(cacheHits, cacheMisses, scrapeFailures, productsStored, searchLatency)
	return &Registry{
		reg:            r,
		CacheHits:      cacheHits,
		CacheMisses:    cacheMisses,
		ScrapeFailures: scrapeFailures,
		ProductsStored: productsStored,
		SearchLatency:  searchLatency,
	}
}

// Handler returns the /metrics HTTP handler for this registry.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
