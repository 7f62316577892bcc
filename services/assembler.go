package services

import (
	"sort"
	"strings"
	"time"

	"pricehub/models"
)

// Assemble validates one platform's raw listings and stamps them with scope
// metadata and interleave sequence numbers. The record at input position i
// gets Seq = startSeq + i*step; with startSeq 1 or 2 and step 2 this encodes
// the two-platform alternation directly into the sequence space. Records
// with an empty name or a non-positive normalized price are dropped (their
// sequence slot is left as a gap, never reused).
func Assemble(raw []*models.RawListing, platform, query, platformsKey string, searchedAt time.Time, startSeq, step int) []models.Product {
	products := make([]models.Product, 0, len(raw))

	for i, r := range raw {
		name := strings.TrimSpace(r.Name)
		price := NormalizePrice(r.RawPrice)
		if name == "" || price <= 0 {
			continue
		}

		products = append(products, models.Product{
			Seq:             startSeq + i*step,
			Platform:        platform,
			Name:            name,
			Price:           price,
			Image:           strings.TrimSpace(r.Image),
			Link:            strings.TrimSpace(r.Link),
			SearchQuery:     strings.ToLower(query),
			SearchPlatforms: platformsKey,
			SearchedAt:      searchedAt,
		})
	}

	return products
}

// SortBySeq orders a combined batch by sequence number ascending, which
// reconstructs the platform interleaving deterministically.
func SortBySeq(products []models.Product) {
	sort.Slice(products, func(i, j int) bool {
		return products[i].Seq < products[j].Seq
	})
}

// Project maps persisted products to their public response shape.
func Project(products []models.Product) []models.ProductView {
	views := make([]models.ProductView, 0, len(products))
	for i := range products {
		views = append(views, products[i].View())
	}
	return views
}
