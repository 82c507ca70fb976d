package model

type Availability string

const (
	AvailabilityInStock    Availability = "in_stock"
	AvailabilityOutOfStock Availability = "out_of_stock"
)

// ConditionNew is the only condition the storefront sells.
const ConditionNew = "new"

// DefaultCategory is used when a product has no category association.
const DefaultCategory = "Uncategorized"

// CatalogEntry is one sellable unit (product or variant), built fresh on
// every feed generation pass and immutable once built. ID is resolved
// SKU-first: variant SKU, variant ID, product SKU, product ID.
type CatalogEntry struct {
	ID               string
	Title            string
	Description      string
	Price            float64
	Currency         string
	Availability     Availability
	Condition        string
	Brand            string
	Category         string
	ImageURL         string
	AdditionalImages []string
	ProductURL       string
	SKU              string
	Inventory        int
	Tags             []string
}

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// ValidationError describes a per-product problem found while building or
// formatting a feed. Warnings do not prevent the entry from being emitted.
type ValidationError struct {
	ProductID string   `json:"product_id"`
	Field     string   `json:"field"`
	Message   string   `json:"message"`
	Severity  Severity `json:"severity"`
}
