package main

import (
	"os"
	"time"

	"pricehub/api"
	"pricehub/config"
	"pricehub/metrics"
	"pricehub/scraper/amazon"
	"pricehub/scraper/flipkart"
	"pricehub/scraper/meesho"
	"pricehub/scraper/myntra"
	"pricehub/services"
	"pricehub/storage"
	"pricehub/utils"
)

// homeFeedPlatforms is the fixed pool the home feed samples one platform from.
var homeFeedPlatforms = []string{"amazon", "flipkart"}

func main() {
	logger := utils.NewLogger()
	cfg := config.Load()

	logger.Info("=== PriceHub aggregation server starting ===")
	logger.Info("Config: store=%s | cache TTL=%dm | results/site=%d | retries=%d",
		cfg.StoreBackend, cfg.CacheTTLMinutes, cfg.MaxResultsPerSite, cfg.MaxRetries)

	store, err := openStore(cfg)
	if err != nil {
		logger.Error("Failed to open product store: %v", err)
		os.Exit(1)
	}
	defer store.Close()

	var rawDump storage.RawDumper
	if cfg.CSVOutputPath != "" {
		csvWriter, err := storage.NewCSVWriter(cfg.CSVOutputPath)
		if err != nil {
			logger.Warn("CSV raw dump disabled: %v", err)
		} else {
			rawDump = csvWriter
			defer csvWriter.Close()
		}
	}

	reg := metrics.NewRegistry()

	adapters := services.AdapterRegistry{}
	for _, a := range []services.SiteAdapter{
		amazon.New(cfg, logger),
		flipkart.New(cfg, logger),
		meesho.New(cfg, logger),
		myntra.New(cfg, logger),
	} {
		adapters[a.Platform()] = a
	}

	cache := services.NewFreshnessCache(store, time.Duration(cfg.CacheTTLMinutes)*time.Minute)
	orchestrator := services.NewOrchestrator(adapters, cache, logger, reg, rawDump)
	homeFeed := services.NewHomeFeed(adapters, services.HomeFeedConfig{
		Platforms:   homeFeedPlatforms,
		Categories:  cfg.HomeFeedCategories,
		TopN:        cfg.HomeFeedTopN,
		Workers:     cfg.HomeFeedWorkers,
		RateLimitMs: cfg.RateLimitMs,
	}, logger, reg)
	history := services.NewHistory(store)

	server := api.New(orchestrator, homeFeed, history, reg.Handler(), logger)
	if err := server.ListenAndServe(cfg.HTTPAddr); err != nil {
		logger.Error("HTTP server failed: %v", err)
		os.Exit(1)
	}
}

func openStore(cfg *config.Config) (storage.ProductStore, error) {
	if cfg.StoreBackend == "sqlite" {
		return storage.NewSQLiteStore(cfg.SQLitePath)
	}
	return storage.NewPostgresStore(cfg.DSN())
}
