// Package feed transforms canonical catalog entries into per-platform
// records and serializes them to the wire formats the ad networks crawl.
package feed

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"shopfeed.app/engine/internal/model"
)

// ErrUnknownPlatform is a configuration error: a feed config references a
// platform with no registered formatter. Never silently degraded.
var ErrUnknownPlatform = errors.New("unknown platform")

type formatterFunc func(entry model.CatalogEntry) *Record

// formatters is the closed registry. init verifies it covers every
// platform the model declares, so adding a platform without a formatter
// fails at startup instead of at request time.
var formatters = map[model.Platform]formatterFunc{
	model.PlatformMeta:      formatMeta,
	model.PlatformGoogle:    formatGoogle,
	model.PlatformTikTok:    formatTikTok,
	model.PlatformPinterest: formatPinterest,
	model.PlatformSnapchat:  formatSnapchat,
	model.PlatformMicrosoft: formatMicrosoft,
	model.PlatformTwitter:   formatTwitter,
	model.PlatformLinkedIn:  formatLinkedIn,
	model.PlatformGeneric:   formatGeneric,
}

func init() {
	for _, platform := range model.Platforms() {
		if _, ok := formatters[platform]; !ok {
			panic(fmt.Sprintf("feed: no formatter registered for platform %q", platform))
		}
	}
}

// FormatEntries maps catalog entries to platform records. Formatters are
// pure; the only side output is validation warnings (an entry without an
// image is emitted but flagged, since every network's crawler wants one).
func FormatEntries(platform model.Platform, entries []model.CatalogEntry) ([]*Record, []model.ValidationError, error) {
	formatter, ok := formatters[platform]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownPlatform, platform)
	}

	records := make([]*Record, 0, len(entries))
	var warnings []model.ValidationError
	for _, entry := range entries {
		if entry.ImageURL == "" {
			warnings = append(warnings, model.ValidationError{
				ProductID: entry.ID,
				Field:     "image_url",
				Message:   "entry has no primary image",
				Severity:  model.SeverityWarning,
			})
		}
		records = append(records, formatter(entry))
	}
	return records, warnings, nil
}

func formatMeta(entry model.CatalogEntry) *Record {
	limits := platformLimits[model.PlatformMeta]
	r := NewRecord()
	// Meta rejects null-ish values outright, so empty fields are dropped
	// from the object instead of being emitted blank.
	setNonEmpty(r, "id", firstNonEmpty(entry.SKU, entry.ID))
	setNonEmpty(r, "title", truncate(entry.Title, limits.titleMax))
	setNonEmpty(r, "description", truncate(entry.Description, limits.descriptionMax))
	setNonEmpty(r, "availability", spacedAvailability(entry.Availability))
	setNonEmpty(r, "condition", entry.Condition)
	setNonEmpty(r, "price", priceWithCurrency(entry))
	setNonEmpty(r, "link", entry.ProductURL)
	setNonEmpty(r, "image_link", entry.ImageURL)
	setNonEmpty(r, "brand", entry.Brand)
	for i, tag := range entry.Tags {
		if i >= 2 {
			break
		}
		setNonEmpty(r, fmt.Sprintf("custom_label_%d", i), tag)
	}
	return r
}

func formatGoogle(entry model.CatalogEntry) *Record {
	limits := platformLimits[model.PlatformGoogle]
	r := NewRecord()
	r.Set("id", entry.ID)
	r.Set("title", truncate(entry.Title, limits.titleMax))
	r.Set("description", truncate(entry.Description, limits.descriptionMax))
	r.Set("link", entry.ProductURL)
	r.Set("image_link", entry.ImageURL)
	r.Set("condition", entry.Condition)
	r.Set("availability", spacedAvailability(entry.Availability))
	r.Set("price", priceWithCurrency(entry))
	r.Set("brand", entry.Brand)
	r.Set("mpn", entry.SKU)
	if entry.SKU != "" {
		r.Set("identifier_exists", "TRUE")
	} else {
		r.Set("identifier_exists", "FALSE")
	}
	r.Set("google_product_category", entry.Category)
	r.Set("shipping_weight", "1 kg")
	return r
}

func formatTikTok(entry model.CatalogEntry) *Record {
	r := NewRecord()
	r.Set("id", entry.ID)
	r.Set("title", entry.Title)
	r.Set("description", entry.Description)
	r.Set("availability", upperAvailability(entry.Availability))
	r.Set("condition", "NEW")
	r.Set("price", entry.Price)
	r.Set("currency", entry.Currency)
	r.Set("link", entry.ProductURL)
	r.Set("image_link", entry.ImageURL)
	r.Set("brand", entry.Brand)
	r.Set("category", entry.Category)
	return r
}

func formatPinterest(entry model.CatalogEntry) *Record {
	r := NewRecord()
	r.Set("id", entry.ID)
	r.Set("title", entry.Title)
	r.Set("description", entry.Description)
	r.Set("link", entry.ProductURL)
	r.Set("image_link", entry.ImageURL)
	r.Set("price", priceWithCurrency(entry))
	r.Set("availability", spacedAvailability(entry.Availability))
	r.Set("condition", entry.Condition)
	r.Set("product_type", entry.Category)
	images := entry.AdditionalImages
	if len(images) > pinterestMaxImages {
		images = images[:pinterestMaxImages]
	}
	if len(images) > 0 {
		r.Set("additional_image_link", strings.Join(images, pinterestImageDelimiter))
	}
	return r
}

func formatSnapchat(entry model.CatalogEntry) *Record {
	r := NewRecord()
	r.Set("id", entry.ID)
	r.Set("title", entry.Title)
	r.Set("description", entry.Description)
	r.Set("link", entry.ProductURL)
	r.Set("image_link", entry.ImageURL)
	r.Set("price", entry.Price)
	r.Set("currency", entry.Currency)
	r.Set("availability", spacedAvailability(entry.Availability))
	r.Set("condition", entry.Condition)
	r.Set("brand", entry.Brand)
	r.Set("item_group_id", entry.Category)
	return r
}

func formatMicrosoft(entry model.CatalogEntry) *Record {
	r := NewRecord()
	r.Set("id", entry.ID)
	r.Set("title", entry.Title)
	r.Set("description", entry.Description)
	r.Set("link", entry.ProductURL)
	r.Set("image_link", entry.ImageURL)
	r.Set("price", priceWithCurrency(entry))
	r.Set("availability", spacedAvailability(entry.Availability))
	r.Set("condition", entry.Condition)
	r.Set("brand", entry.Brand)
	r.Set("product_category", entry.Category)
	return r
}

func formatTwitter(entry model.CatalogEntry) *Record {
	r := NewRecord()
	r.Set("id", entry.ID)
	r.Set("title", entry.Title)
	r.Set("description", entry.Description)
	r.Set("url", entry.ProductURL)
	r.Set("image", entry.ImageURL)
	r.Set("price", entry.Price)
	r.Set("currency", entry.Currency)
	if entry.Availability == model.AvailabilityInStock {
		r.Set("availability", "available")
	} else {
		r.Set("availability", "unavailable")
	}
	r.Set("brand", entry.Brand)
	return r
}

func formatLinkedIn(entry model.CatalogEntry) *Record {
	r := NewRecord()
	r.Set("product_id", entry.ID)
	r.Set("name", entry.Title)
	r.Set("description", entry.Description)
	r.Set("url", entry.ProductURL)
	r.Set("image_url", entry.ImageURL)
	r.Set("price", entry.Price)
	r.Set("currency", entry.Currency)
	r.Set("availability", spacedAvailability(entry.Availability))
	r.Set("brand", entry.Brand)
	r.Set("category", entry.Category)
	return r
}

func formatGeneric(entry model.CatalogEntry) *Record {
	r := NewRecord()
	r.Set("id", entry.ID)
	r.Set("title", entry.Title)
	r.Set("description", entry.Description)
	r.Set("price", entry.Price)
	r.Set("currency", entry.Currency)
	r.Set("availability", string(entry.Availability))
	r.Set("condition", entry.Condition)
	r.Set("brand", entry.Brand)
	r.Set("category", entry.Category)
	r.Set("image_url", entry.ImageURL)
	r.Set("additional_images", entry.AdditionalImages)
	r.Set("product_url", entry.ProductURL)
	r.Set("sku", entry.SKU)
	r.Set("inventory", entry.Inventory)
	r.Set("tags", entry.Tags)
	return r
}

// truncate cuts s to max runes, reserving three for the ellipsis: the cut
// happens at max-3 so the appended "..." never pushes past the limit.
func truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}

// FormatPrice renders a price magnitude without trailing zeros:
// 1200 -> "1200", 12.5 -> "12.5".
func FormatPrice(price float64) string {
	return strconv.FormatFloat(price, 'f', -1, 64)
}

func priceWithCurrency(entry model.CatalogEntry) string {
	return FormatPrice(entry.Price) + " " + entry.Currency
}

func spacedAvailability(a model.Availability) string {
	if a == model.AvailabilityInStock {
		return "in stock"
	}
	return "out of stock"
}

func upperAvailability(a model.Availability) string {
	if a == model.AvailabilityInStock {
		return "IN_STOCK"
	}
	return "OUT_OF_STOCK"
}

func setNonEmpty(r *Record, key, value string) {
	if value == "" {
		return
	}
	r.Set(key, value)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
