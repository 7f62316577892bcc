package amazon

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/chromedp/chromedp"

	"pricehub/config"
	"pricehub/models"
	"pricehub/scraper/browser"
	"pricehub/utils"
)

const (
	platform  = "amazon"
	searchURL = "https://www.amazon.in/s?k="

	// cardSelector works across most product types via the data-asin attribute.
	cardSelector = `div[data-asin]:not([data-asin=""])`
)

// Scraper is the Amazon site adapter, backed by a headless browser.
type Scraper struct {
	cfg    *config.Config
	logger *utils.Logger
	retry  *utils.RetryConfig
}

// New creates a ready-to-use Amazon Scraper.
func New(cfg *config.Config, logger *utils.Logger) *Scraper {
	return &Scraper{
		cfg:    cfg,
		logger: logger,
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
	}
}

// Platform returns the platform id this adapter serves.
func (s *Scraper) Platform() string { return platform }

type cardData struct {
	Name  string `json:"name"`
	Price string `json:"price"`
	Image string `json:"image"`
	Link  string `json:"link"`
}

// Search scrapes the Amazon search results page for the given query.
// An empty page yields an empty slice, not an error.
func (s *Scraper) Search(ctx context.Context, query string) ([]*models.RawListing, error) {
	target := searchURL + url.QueryEscape(query)
	s.logger.Info("[amazon] Searching %q: %s", query, target)

	allocCtx, cancelAlloc := browser.NewAllocator(ctx, s.cfg.ChromeBin)
	defer cancelAlloc()

	var cards []cardData
	err := s.retry.Do(ctx, "amazon-search", func() error {
		tabCtx, cancel := chromedp.NewContext(allocCtx)
		defer cancel()

		tabCtx, cancelTimeout := context.WithTimeout(tabCtx, 60*time.Second)
		defer cancelTimeout()

		return chromedp.Run(tabCtx,
			chromedp.Navigate(target),
			chromedp.WaitVisible(cardSelector, chromedp.ByQuery),

			// Scroll halfway down so lazily loaded cards render.
			chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight/2)`, nil),
			chromedp.Sleep(2*time.Second),

			chromedp.Evaluate(extractJS(s.cfg.MaxResultsPerSite), &cards),
		)
	})
	if err != nil {
		return nil, fmt.Errorf("amazon: search %q: %w", query, err)
	}

	seen := utils.NewURLSet()
	listings := make([]*models.RawListing, 0, len(cards))
	for _, c := range cards {
		if c.Name == "" || c.Link == "" {
			continue
		}
		if !seen.Add(c.Link) {
			continue
		}
		listings = append(listings, &models.RawListing{
			Name:      c.Name,
			RawPrice:  c.Price,
			Image:     c.Image,
			Link:      c.Link,
			Platform:  platform,
			ScrapedAt: time.Now(),
		})
	}

	s.logger.Info("[amazon] Found %d product(s) for %q", len(listings), query)
	return listings, nil
}

// extractJS walks the result cards in-page. The layered selectors cover the
// standard, sponsored and fashion card layouts.
func extractJS(limit int) string {
	return fmt.Sprintf(`
		(function() {
			var cards = document.querySelectorAll('%s');
			var data = [];
			for (var i = 0; i < cards.length && data.length < %d; i++) {
				var card = cards[i];

				var nameEl = card.querySelector('h2 span') ||
				             card.querySelector('.a-size-medium.a-color-base.a-text-normal');
				var name = nameEl ? nameEl.innerText.trim() : '';
				if (!name) {
					var brandEl = card.querySelector('h2 span.a-size-base-plus.a-color-base');
					var productEl = card.querySelector('h2 span.a-size-base-plus.a-color-base.a-text-normal');
					if (brandEl && productEl) {
						name = brandEl.innerText.trim() + ' ' + productEl.innerText.trim();
					}
				}

				// The hidden offscreen price carries the actual discounted value.
				var priceEl = card.querySelector('.a-price .a-offscreen');
				var price = priceEl ? priceEl.innerText : '';
				if (!price) {
					var whole = card.querySelector('.a-price-whole');
					var symbol = card.querySelector('.a-price-symbol');
					if (whole && symbol) price = symbol.innerText + whole.innerText;
				}

				var linkEl = card.querySelector(
					'a.a-link-normal.s-no-outline, a.a-link-normal.s-line-clamp-2, a.a-link-normal.s-underline-text');
				var link = linkEl ? linkEl.href : '';

				var imgEl = card.querySelector('img.s-image');
				var image = imgEl ? (imgEl.getAttribute('src') || imgEl.getAttribute('data-lazy-src') || '') : '';

				if (name && price && link) {
					data.push({name: name, price: price, image: image, link: link});
				}
			}
			return data;
		})()
	`, cardSelector, limit)
}
