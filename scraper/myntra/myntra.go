package myntra

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
	platform       = "myntra"
	defaultBaseURL = "https://www.myntra.com"
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Scraper is the Myntra site adapter, parsing the category listing page
// directly over HTTP.
type Scraper struct {
	cfg    *config.Config
	logger *utils.Logger

	// Overridable in tests.
	client  *http.Client
	baseURL string
}

// New creates a ready-to-use Myntra Scraper.
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

// Search fetches and parses the Myntra listing page for the given query.
// Myntra routes searches as path segments rather than query parameters.
func (s *Scraper) Search(ctx context.Context, query string) ([]*models.RawListing, error) {
	target := fmt.Sprintf("%s/%s", s.baseURL, url.PathEscape(query))
	s.logger.Info("[myntra] Searching %q: %s", query, target)

	doc, err := s.fetchDocument(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("myntra: search %q: %w", query, err)
	}

	seen := utils.NewURLSet()
	var listings []*models.RawListing

	doc.Find(".product-base").Each(func(_ int, card *goquery.Selection) {
		if len(listings) >= s.cfg.MaxResultsPerSite {
			return
		}

		brand := strings.TrimSpace(card.Find(".product-brand").First().Text())
		name := strings.TrimSpace(card.Find(".product-product").First().Text())
		fullName := strings.TrimSpace(brand + " " + name)

		price := strings.TrimSpace(card.Find(".product-discountedPrice").First().Text())
		if price == "" {
			price = strings.TrimSpace(card.Find(".product-price").First().Text())
		}

		href, _ := card.Find("a").First().Attr("href")
		link := s.absoluteLink(href)

		image := s.cardImage(card)

		if fullName == "" || price == "" {
			return
		}
		if link != "" && !seen.Add(link) {
			return
		}

		listings = append(listings, &models.RawListing{
			Name:      fullName,
			RawPrice:  price,
			Image:     image,
			Link:      link,
			Platform:  platform,
			ScrapedAt: time.Now(),
		})
	})

	s.logger.Info("[myntra] Found %d product(s) for %q", len(listings), query)
	return listings, nil
}

// cardImage prefers the high-resolution srcset entry over the plain img src.
func (s *Scraper) cardImage(card *goquery.Selection) string {
	if srcset, ok := card.Find("picture source").First().Attr("srcset"); ok {
		for _, entry := range strings.Split(srcset, ",") {
			entry = strings.TrimSpace(entry)
			if strings.HasSuffix(entry, "2.0x") {
				return strings.TrimSpace(strings.TrimSuffix(entry, "2.0x"))
			}
		}
		if first := strings.Fields(srcset); len(first) > 0 {
			return first[0]
		}
	}
	image, _ := card.Find("img").First().Attr("src")
	return image
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
