package models

import (
	"database/sql/driver"
	"errors"
	"fmt"
)

// Category is the closed set of categories a Product may carry.
type Category string

const (
	CategoryTops        Category = "Tops"
	CategoryBottoms     Category = "Bottoms"
	CategoryOuterwear   Category = "Outerwear"
	CategoryFootwear    Category = "Footwear"
	CategoryAccessories Category = "Accessories"
)

// Categories lists every Category in display order.
var Categories = []Category{
	CategoryTops,
	CategoryBottoms,
	CategoryOuterwear,
	CategoryFootwear,
	CategoryAccessories,
}

var ErrUnknownCategory = errors.New("unknown category")

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Value implements driver.Valuer.
func (c Category) Value() (driver.Value, error) {
	return string(c), nil
}

// Scan implements sql.Scanner.
func (c *Category) Scan(src any) error {
	switch v := src.(type) {
	case string:
		*c = Category(v)
	case []byte:
		*c = Category(v)
	default:
		return fmt.Errorf("category: cannot scan %T", src)
	}
	return nil
}

// FilterCategory is a Category plus the synthetic All wildcard used by the
// storefront filter. All is never stored on a Product.
type FilterCategory string

const FilterAll FilterCategory = "All"

// FilterCategories lists the storefront filter pills in display order.
var FilterCategories = []FilterCategory{
	FilterAll,
	FilterCategory(CategoryTops),
	FilterCategory(CategoryBottoms),
	FilterCategory(CategoryOuterwear),
	FilterCategory(CategoryFootwear),
	FilterCategory(CategoryAccessories),
}

// ParseFilterCategory accepts any FilterCategory name. Empty input means All.
func ParseFilterCategory(s string) (FilterCategory, error) {
	if s == "" {
		return FilterAll, nil
	}
	for _, f := range FilterCategories {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

// Matches reports whether a product with category c belongs under f.
// A product without a category only matches All.
func (f FilterCategory) Matches(c *Category) bool {
	if f == FilterAll {
		return true
	}
	return c != nil && string(*c) == string(f)
}
