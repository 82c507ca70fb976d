// Package catalog builds the canonical per-sellable-unit view of the
// product database that every platform formatter consumes.
package catalog

import (
	"context"
	"log/slog"
	"sort"

	"shopfeed.app/engine/internal/model"
)

type BuildOptions struct {
	// CategoryFilter restricts to products having at least one category ID
	// in the set. Empty or nil means all products.
	CategoryFilter map[int64]bool

	// IncludeVariants expands products with active variants into one entry
	// per variant instead of one entry per product.
	IncludeVariants bool
}

type BuildResult struct {
	Entries []model.CatalogEntry
	Errors  []model.ValidationError
}

// Build joins products, variants, images, and categories into an ordered
// list of catalog entries. Order is stable: products by creation time
// descending, variants of one product consecutive in sort order.
//
// A malformed source record is skipped and reported, never fatal: one bad
// product must not take down the whole feed.
func Build(ctx context.Context, products []model.Product, opts BuildOptions) BuildResult {
	sorted := make([]model.Product, len(products))
	copy(sorted, products)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	result := BuildResult{}
	seen := make(map[string]bool)

	for i := range sorted {
		product := &sorted[i]
		if !product.IsActive {
			continue
		}
		if !matchesFilter(product, opts.CategoryFilter) {
			continue
		}
		if product.Name == "" {
			slog.WarnContext(ctx, "skipping product without name", "product_id", product.ID)
			result.Errors = append(result.Errors, model.ValidationError{
				ProductID: product.ID,
				Field:     "name",
				Message:   "product name is required",
				Severity:  model.SeverityError,
			})
			continue
		}

		variants := activeVariants(product)
		if opts.IncludeVariants && len(variants) > 0 {
			for _, variant := range variants {
				entry := variantEntry(product, variant)
				appendEntry(ctx, &result, seen, entry)
			}
			continue
		}

		appendEntry(ctx, &result, seen, productEntry(product))
	}

	return result
}

func appendEntry(ctx context.Context, result *BuildResult, seen map[string]bool, entry model.CatalogEntry) {
	if seen[entry.ID] {
		slog.WarnContext(ctx, "skipping duplicate catalog entry", "entry_id", entry.ID)
		result.Errors = append(result.Errors, model.ValidationError{
			ProductID: entry.ID,
			Field:     "id",
			Message:   "duplicate entry id within one generation pass",
			Severity:  model.SeverityError,
		})
		return
	}
	seen[entry.ID] = true
	result.Entries = append(result.Entries, entry)
}

func matchesFilter(product *model.Product, filter map[int64]bool) bool {
	if len(filter) == 0 {
		return true
	}
	for _, categoryID := range product.CategoryIDs {
		if filter[categoryID] {
			return true
		}
	}
	return false
}

func activeVariants(product *model.Product) []model.ProductVariant {
	variants := make([]model.ProductVariant, 0, len(product.Variants))
	for _, variant := range product.Variants {
		if variant.IsActive {
			variants = append(variants, variant)
		}
	}
	sort.SliceStable(variants, func(i, j int) bool {
		return variants[i].SortOrder < variants[j].SortOrder
	})
	return variants
}

func productEntry(product *model.Product) model.CatalogEntry {
	entry := baseEntry(product)
	entry.ID = resolveProductID(product)
	entry.Title = product.Name
	entry.Description = product.Description
	entry.Price = product.Price
	entry.Inventory = product.Inventory
	if product.SKU != nil {
		entry.SKU = *product.SKU
	}
	entry.Availability = availabilityFor(product.Inventory)
	return entry
}

func variantEntry(product *model.Product, variant model.ProductVariant) model.CatalogEntry {
	entry := baseEntry(product)
	entry.ID = resolveVariantID(product, variant)
	entry.Title = product.Name + " - " + variant.Name

	entry.Description = product.Description
	if variant.Description != nil {
		entry.Description = *variant.Description
	}

	entry.Price = product.Price
	if variant.Price != nil {
		entry.Price = *variant.Price
	}

	entry.Inventory = product.Inventory
	if variant.Inventory != nil {
		entry.Inventory = *variant.Inventory
	}

	switch {
	case variant.SKU != nil:
		entry.SKU = *variant.SKU
	case product.SKU != nil:
		entry.SKU = *product.SKU
	}

	entry.Availability = availabilityFor(entry.Inventory)
	return entry
}

func baseEntry(product *model.Product) model.CatalogEntry {
	entry := model.CatalogEntry{
		Currency:   product.Currency,
		Condition:  model.ConditionNew,
		Brand:      product.Brand,
		Category:   model.DefaultCategory,
		ProductURL: product.URL,
		Tags:       product.Tags,
	}
	if len(product.CategoryNames) > 0 {
		entry.Category = product.CategoryNames[0]
	}

	images := sortedImages(product)
	if len(images) > 0 {
		// A missing primary image stays empty here; whether that matters
		// is a per-platform formatter concern.
		entry.ImageURL = images[0]
		entry.AdditionalImages = images[1:]
	}
	return entry
}

func sortedImages(product *model.Product) []string {
	images := make([]model.ProductImage, len(product.Images))
	copy(images, product.Images)
	sort.SliceStable(images, func(i, j int) bool {
		return images[i].SortOrder < images[j].SortOrder
	})
	urls := make([]string, 0, len(images))
	for _, image := range images {
		urls = append(urls, image.URL)
	}
	return urls
}

func resolveProductID(product *model.Product) string {
	if product.SKU != nil && *product.SKU != "" {
		return *product.SKU
	}
	return product.ID
}

func resolveVariantID(product *model.Product, variant model.ProductVariant) string {
	if variant.SKU != nil && *variant.SKU != "" {
		return *variant.SKU
	}
	if variant.ID != "" {
		return variant.ID
	}
	return resolveProductID(product)
}

func availabilityFor(inventory int) model.Availability {
	if inventory > 0 {
		return model.AvailabilityInStock
	}
	return model.AvailabilityOutOfStock
}
