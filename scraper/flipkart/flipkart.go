package flipkart

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
	platform  = "flipkart"
	baseURL   = "https://www.flipkart.com"
	searchURL = baseURL + "/search?q="

	// Card wrappers vary per department: electronics, fashion, accessories.
	cardSelector = "div.tUxRFH, div._1AtVbE, div._1sdMkc.LFEi7Z, div.slAVV4"
	// waitSelector is a stabler signal that any results rendered at all.
	waitSelector = "div[data-tkid]"
)

// Scraper is the Flipkart site adapter, backed by a headless browser.
type Scraper struct {
	cfg    *config.Config
	logger *utils.Logger
	retry  *utils.RetryConfig
}

// New creates a ready-to-use Flipkart Scraper.
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

// Search scrapes the Flipkart search results page for the given query.
func (s *Scraper) Search(ctx context.Context, query string) ([]*models.RawListing, error) {
	target := searchURL + url.QueryEscape(query)
	s.logger.Info("[flipkart] Searching %q: %s", query, target)

	allocCtx, cancelAlloc := browser.NewAllocator(ctx, s.cfg.ChromeBin)
	defer cancelAlloc()

	var cards []cardData
	err := s.retry.Do(ctx, "flipkart-search", func() error {
		tabCtx, cancel := chromedp.NewContext(allocCtx)
		defer cancel()

		tabCtx, cancelTimeout := context.WithTimeout(tabCtx, 60*time.Second)
		defer cancelTimeout()

		return chromedp.Run(tabCtx,
			chromedp.Navigate(target),
			chromedp.WaitVisible(waitSelector, chromedp.ByQuery),
			chromedp.Sleep(time.Second),

			chromedp.Evaluate(extractJS(s.cfg.MaxResultsPerSite), &cards),
		)
	})
	if err != nil {
		return nil, fmt.Errorf("flipkart: search %q: %w", query, err)
	}

	seen := utils.NewURLSet()
	listings := make([]*models.RawListing, 0, len(cards))
	for _, c := range cards {
		if c.Name == "" {
			continue
		}
		if c.Link != "" && !seen.Add(c.Link) {
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

	s.logger.Info("[flipkart] Found %d product(s) for %q", len(listings), query)
	return listings, nil
}

// extractJS walks the result cards in-page, trying each department's
// selector variant for name, price, link and image.
func extractJS(limit int) string {
	return fmt.Sprintf(`
		(function() {
			var cards = document.querySelectorAll('%s');
			var data = [];
			for (var i = 0; i < cards.length && data.length < %d; i++) {
				var card = cards[i];

				var name =
					(card.querySelector('.KzDlHZ') || {}).innerText ||
					(card.querySelector('a.IRpwTa') || {}).innerText ||
					(card.querySelector('a.s1Q9rs') || {}).innerText ||
					(card.querySelector('.WKTcLC') || {}).title ||
					(card.querySelector('.WKTcLC') || {}).innerText ||
					(card.querySelector('.wjcEIp') || {}).title ||
					(card.querySelector('.wjcEIp') || {}).innerText || '';

				var price =
					(card.querySelector('.Nx9bqj') || {}).innerText ||
					(card.querySelector('._30jeq3') || {}).innerText || '';

				var linkEl = card.querySelector('a.rPDeLR') ||
				             card.querySelector('a.VJA3rP') ||
				             card.querySelector("a[href*='/p/']") ||
				             card.querySelector('a');
				var href = linkEl ? linkEl.getAttribute('href') : '';
				var link = '';
				if (href) {
					link = href.indexOf('http') === 0 ? href : '%s' + href;
				}

				var imgEl = card.querySelector('img');
				var image = imgEl ? (imgEl.getAttribute('src') || imgEl.getAttribute('data-src') || '') : '';

				if (name && price) {
					data.push({name: name.trim(), price: price.trim(), image: image, link: link});
				}
			}
			return data;
		})()
	`, cardSelector, limit, baseURL)
}
