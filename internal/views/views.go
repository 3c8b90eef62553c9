// Package views derives the featured, favorites and sorted favorites
// projections from a quote list.
package views

import (
	"cmp"
	"slices"

	"stonks/internal/quote"
)

// Featured returns the featured quotes in list order.
func Featured(quotes []quote.Quote) []quote.Quote {
	out := make([]quote.Quote, 0, len(quotes))
	for _, q := range quotes {
		if q.IsFeatured {
			out = append(out, q)
		}
	}
	return out
}

// Favorites returns the quotes whose id satisfies isFavorite, in list order.
func Favorites(quotes []quote.Quote, isFavorite func(id string) bool) []quote.Quote {
	out := make([]quote.Quote, 0, len(quotes))
	for _, q := range quotes {
		if isFavorite(q.ID) {
			out = append(out, q)
		}
	}
	return out
}

// SortByChange returns a copy of quotes stably sorted by price change.
// Quotes with equal change keep their relative order in both directions.
func SortByChange(quotes []quote.Quote, ascending bool) []quote.Quote {
	out := slices.Clone(quotes)
	if out == nil {
		out = []quote.Quote{}
	}
	slices.SortStableFunc(out, func(a, b quote.Quote) int {
		if ascending {
			return cmp.Compare(a.PriceChange(), b.PriceChange())
		}
		return cmp.Compare(b.PriceChange(), a.PriceChange())
	})
	return out
}

// Cache holds the projections for the latest inputs. The zero value sorts
// descending, like a fresh controller.
type Cache struct {
	Featured        []quote.Quote
	Favorites       []quote.Quote
	SortedFavorites []quote.Quote
	Ascending       bool
}

// Recompute rebuilds every projection.
func (c *Cache) Recompute(quotes []quote.Quote, isFavorite func(id string) bool) {
	c.Featured = Featured(quotes)
	c.Favorites = Favorites(quotes, isFavorite)
	c.SortedFavorites = SortByChange(c.Favorites, c.Ascending)
}

// SetSortOrder changes the direction and rebuilds SortedFavorites only.
func (c *Cache) SetSortOrder(ascending bool) {
	c.Ascending = ascending
	c.SortedFavorites = SortByChange(c.Favorites, ascending)
}
