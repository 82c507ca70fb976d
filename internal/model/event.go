package model

import (
	"encoding/json"
	"time"
)

type EventType string

const (
	EventPageView         EventType = "page_view"
	EventViewContent      EventType = "view_content"
	EventAddToCart        EventType = "add_to_cart"
	EventInitiateCheckout EventType = "initiate_checkout"
	EventPurchase         EventType = "purchase"
	EventSearch           EventType = "search"
	EventCustom           EventType = "custom"
)

func (t EventType) Valid() bool {
	switch t {
	case EventPageView, EventViewContent, EventAddToCart,
		EventInitiateCheckout, EventPurchase, EventSearch, EventCustom:
		return true
	}
	return false
}

// PixelPlatform is a configured advertising pixel the storefront emits
// events for. Maintained by the back office; this engine only reads it.
type PixelPlatform struct {
	ID        int64
	Name      string
	Platform  Platform
	PixelID   string
	IsEnabled bool
	CreatedAt time.Time
}

// TrackedEvent is one behavioral signal on its way to the durable event
// log. ProductID cross-references a catalog entry by the same SKU-first
// identifier the feeds use; referential integrity is deliberately not
// enforced.
type TrackedEvent struct {
	ID        int64
	PixelID   int64
	EventType EventType
	Value     *float64
	Currency  string
	ProductID *string
	OrderID   *string
	UserID    *string
	SessionID string
	Metadata  json.RawMessage
	CreatedAt time.Time
}
