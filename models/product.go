package models

import "time"

// RawListing holds unprocessed scraped data directly from a marketplace page.
// Adapters fill whatever fields they manage to extract; validation happens at
// the assembly boundary, never inside an adapter.
type RawListing struct {
	Name      string
	RawPrice  string
	Image     string
	Link      string
	Platform  string
	ScrapedAt time.Time
}

// Product is the cleaned, sequenced record persisted per search scope.
// Seq encodes the interleave order and is unique within a
// (SearchQuery, SearchPlatforms) scope, not globally.
type Product struct {
	Seq             int
	Platform        string
	Name            string
	Price           float64
	Image           string
	Link            string
	SearchQuery     string
	SearchPlatforms string
	SearchedAt      time.Time
}

// View projects a Product to its public response shape.
func (p *Product) View() ProductView {
	return ProductView{
		ID:       p.Seq,
		Platform: p.Platform,
		Name:     p.Name,
		Price:    p.Price,
		Image:    p.Image,
		Link:     p.Link,
	}
}

// ProductView is the shape returned by the search and home-feed endpoints.
type ProductView struct {
	ID       int     `json:"id"`
	Platform string  `json:"platform"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Image    string  `json:"image,omitempty"`
	Link     string  `json:"link,omitempty"`
}

// HomeFeedSection groups one category's cheapest products from a single
// platform. Rebuilt on every home-feed request, never persisted.
type HomeFeedSection struct {
	Category string        `json:"category"`
	Platform string        `json:"platform"`
	Products []ProductView `json:"products"`
}
