package catalog

import "github.com/01moynul/keyu-storefront/internal/models"

// State is the browsing view state: the loaded catalog plus the active
// category and requested page.
type State struct {
	Catalog    []models.Product
	Generation uint64
	Loaded     bool
	Category   models.FilterCategory
	Page       int
}

// NewState is the state of a fresh page view: nothing loaded, All, page 1.
func NewState() State {
	return State{Category: models.FilterAll, Page: 1}
}

// Event is a state transition understood by Reduce.
type Event interface {
	isEvent()
}

// CatalogLoaded carries the result of a full fetch. Generation is the ticket
// the fetch was issued with; results older than the loaded one are dropped.
type CatalogLoaded struct {
	Products   []models.Product
	Generation uint64
}

// CategoryChanged selects a new filter category.
type CategoryChanged struct {
	Category models.FilterCategory
}

// PageRequested asks for a page. The value is kept as given; rendering clamps it.
type PageRequested struct {
	Page int
}

// ProductDeleted removes one product from the loaded catalog. Generation is
// the ticket taken when the delete was confirmed; fetches issued before it
// can no longer bring the product back.
type ProductDeleted struct {
	ID         string
	Generation uint64
}

func (CatalogLoaded) isEvent()   {}
func (CategoryChanged) isEvent() {}
func (PageRequested) isEvent()   {}
func (ProductDeleted) isEvent()  {}

// Reduce returns the state after ev. It never mutates s.Catalog in place.
func Reduce(s State, ev Event) State {
	switch ev := ev.(type) {
	case CatalogLoaded:
		if ev.Generation <= s.Generation {
			return s
		}
		s.Catalog = ev.Products
		s.Generation = ev.Generation
		s.Loaded = true

	case CategoryChanged:
		if ev.Category != s.Category {
			s.Category = ev.Category
			s.Page = 1
		}

	case PageRequested:
		s.Page = ev.Page

	case ProductDeleted:
		// The ticket is kept even before the first load, so a fetch issued
		// earlier cannot restore the row when it resolves.
		if ev.Generation > s.Generation {
			s.Generation = ev.Generation
		}
		if !s.Loaded {
			return s
		}
		kept := make([]models.Product, 0, len(s.Catalog))
		for _, p := range s.Catalog {
			if p.ID != ev.ID {
				kept = append(kept, p)
			}
		}
		s.Catalog = kept
	}
	return s
}
