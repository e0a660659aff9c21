// Package catalog derives what the storefront shows from the fetched product
// collection: category filtering, pagination, and the view-state reducer.
package catalog

import (
	"errors"
	"fmt"

	"github.com/01moynul/keyu-storefront/internal/models"
)

// DefaultPageSize is the number of products shown per storefront page.
const DefaultPageSize = 12

var ErrInvalidPageSize = errors.New("catalog: page size must be positive")

// Page is one page of a filtered catalog plus its pagination metadata.
type Page struct {
	Products   []models.Product
	Number     int
	PageSize   int
	Total      int
	TotalPages int
}

func (p Page) HasNext() bool     { return p.Number < p.TotalPages }
func (p Page) HasPrevious() bool { return p.Number > 1 }

// ShowControls reports whether pagination controls should be rendered.
func (p Page) ShowControls() bool { return p.TotalPages > 1 }

// Engine filters and paginates catalogs with a fixed page size.
// All of its methods are pure.
type Engine struct {
	pageSize int
}

func NewEngine(pageSize int) (Engine, error) {
	if pageSize <= 0 {
		return Engine{}, fmt.Errorf("%w: got %d", ErrInvalidPageSize, pageSize)
	}
	return Engine{pageSize: pageSize}, nil
}

func (e Engine) PageSize() int { return e.pageSize }

// Filter returns the products matching category, preserving their order.
// For All the input slice itself is returned.
func Filter(products []models.Product, category models.FilterCategory) []models.Product {
	if category == models.FilterAll {
		return products
	}
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if category.Matches(p.Category) {
			out = append(out, p)
		}
	}
	return out
}

// TotalPages is ceil(count/pageSize); an empty set has zero pages.
func TotalPages(count, pageSize int) int {
	if count <= 0 {
		return 0
	}
	return (count + pageSize - 1) / pageSize
}

// ClampPage forces page into [1, max(totalPages, 1)].
func ClampPage(page, totalPages int) int {
	upper := max(totalPages, 1)
	switch {
	case page < 1:
		return 1
	case page > upper:
		return upper
	default:
		return page
	}
}

// Paginate slices an already filtered set. The requested page is clamped
// first, so the start index never passes the end of a non-empty set.
func (e Engine) Paginate(filtered []models.Product, page int) Page {
	total := len(filtered)
	totalPages := TotalPages(total, e.pageSize)
	number := ClampPage(page, totalPages)

	start := min((number-1)*e.pageSize, total)
	end := min(start+e.pageSize, total)

	return Page{
		Products:   filtered[start:end:end],
		Number:     number,
		PageSize:   e.pageSize,
		Total:      total,
		TotalPages: totalPages,
	}
}

// View filters the catalog by category and returns the requested page.
func (e Engine) View(products []models.Product, category models.FilterCategory, page int) Page {
	return e.Paginate(Filter(products, category), page)
}

// ViewOf renders the page described by a reducer State.
func (e Engine) ViewOf(s State) Page {
	return e.View(s.Catalog, s.Category, s.Page)
}
