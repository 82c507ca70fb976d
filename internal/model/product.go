package model

import "time"

// Product is a canonical storefront product as supplied by the catalog
// database. Images are ordered by sort order (first = primary), variants
// contain active variants only, and CategoryIDs/CategoryNames follow the
// association order so index 0 is the first-matched category.
type Product struct {
	ID            string
	Name          string
	Description   string
	Price         float64
	Currency      string
	Brand         string
	SKU           *string
	Inventory     int
	URL           string
	Tags          []string
	Images        []ProductImage
	Variants      []ProductVariant
	CategoryIDs   []int64
	CategoryNames []string
	IsActive      bool
	CreatedAt     time.Time
}

type ProductImage struct {
	URL       string
	SortOrder int
}

// ProductVariant overrides product-level fields when set. Pointer fields
// fall back to the parent product when nil.
type ProductVariant struct {
	ID          string
	ProductID   string
	Name        string
	SKU         *string
	Price       *float64
	Description *string
	Inventory   *int
	IsActive    bool
	SortOrder   int
}
