package meesho

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"pricehub/config"
	"pricehub/models"
	"pricehub/utils"
)

const (
	platform       = "meesho"
	defaultBaseURL = "https://www.meesho.com"
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Scraper is the Meesho site adapter. Meesho serves usable markup without a
// browser, so this adapter fetches and parses the search page directly.
type Scraper struct {
	cfg    *config.Config
	logger *utils.Logger

	// Overridable in tests.
	client  *http.Client
	baseURL string
}

// New creates a ready-to-use Meesho Scraper.
func New(cfg *config.Config, logger *utils.Logger) *Scraper {
	return &Scraper{
		cfg:     cfg,
		logger:  logger,
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: defaultBaseURL,
	}
}

// Platform returns the platform id this adapter serves.
func (s *Scraper) Platform() string { return platform }

// Search fetches and parses the Meesho search results page.
func (s *Scraper) Search(ctx context.Context, query string) ([]*models.RawListing, error) {
	target := fmt.Sprintf("%s/search?q=%s", s.baseURL, url.QueryEscape(query))
	s.logger.Info("[meesho] Searching %q: %s", query, target)

	doc, err := s.fetchDocument(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("meesho: search %q: %w", query, err)
	}

	seen := utils.NewURLSet()
	var listings []*models.RawListing

	doc.Find(`div[data-testid^="product-card"]`).Each(func(_ int, card *goquery.Selection) {
		if len(listings) >= s.cfg.MaxResultsPerSite {
			return
		}

		name := strings.TrimSpace(card.Find("p").First().Text())
		price := strings.TrimSpace(card.Find("h5").First().Text())

		img := card.Find("img").First()
		image, ok := img.Attr("src")
		if !ok {
			image, _ = img.Attr("data-src")
		}

		href, _ := card.Find("a[href]").First().Attr("href")
		if href == "" {
			href, _ = card.Closest("a").Attr("href")
		}
		link := s.absoluteLink(href)

		if name == "" || price == "" || link == "" {
			return
		}
		if !seen.Add(link) {
			return
		}

		listings = append(listings, &models.RawListing{
			Name:      name,
			RawPrice:  price,
			Image:     image,
			Link:      link,
			Platform:  platform,
			ScrapedAt: time.Now(),
		})
	})

	s.logger.Info("[meesho] Found %d product(s) for %q", len(listings), query)
	return listings, nil
}

func (s *Scraper) absoluteLink(href string) string {
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "http") {
		return href
	}
	return s.baseURL + "/" + strings.TrimPrefix(href, "/")
}

func (s *Scraper) fetchDocument(ctx context.Context, rawURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, rawURL)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}
