package dto

import (
	"encoding/json"
	"time"

	"shopfeed.app/engine/internal/model"
	"shopfeed.app/engine/internal/service"
)

// TrackedEventRequest is one pixel event as posted by the storefront.
// The endpoint accepts either a single object or an array of these.
type TrackedEventRequest struct {
	PixelID   int64           `json:"pixel_id"`
	EventType string          `json:"event_type"`
	Value     *float64        `json:"value,omitempty"`
	Currency  string          `json:"currency,omitempty"`
	ProductID *string         `json:"product_id,omitempty"`
	OrderID   *string         `json:"order_id,omitempty"`
	UserID    *string         `json:"user_id,omitempty"`
	SessionID string          `json:"session_id,omitempty"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
}

func (r TrackedEventRequest) ToParams() service.EventParams {
	return service.EventParams{
		PixelID:   r.PixelID,
		EventType: model.EventType(r.EventType),
		Value:     r.Value,
		Currency:  r.Currency,
		ProductID: r.ProductID,
		OrderID:   r.OrderID,
		UserID:    r.UserID,
		SessionID: r.SessionID,
		Metadata:  r.Metadata,
	}
}

type IngestEventsResponse struct {
	Queued    int `json:"queued"`
	Dropped   int `json:"dropped"`
	QueueSize int `json:"queue_size"`
}

type ValidationErrorResponse struct {
	Error  string               `json:"error"`
	Fields []service.FieldError `json:"fields"`
}

type TrackedEventResponse struct {
	ID        int64           `json:"id"`
	PixelID   int64           `json:"pixel_id"`
	EventType string          `json:"event_type"`
	Value     *float64        `json:"value,omitempty"`
	Currency  string          `json:"currency"`
	ProductID *string         `json:"product_id,omitempty"`
	OrderID   *string         `json:"order_id,omitempty"`
	UserID    *string         `json:"user_id,omitempty"`
	SessionID string          `json:"session_id"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

func ToTrackedEventResponse(event model.TrackedEvent) TrackedEventResponse {
	return TrackedEventResponse{
		ID:        event.ID,
		PixelID:   event.PixelID,
		EventType: string(event.EventType),
		Value:     event.Value,
		Currency:  event.Currency,
		ProductID: event.ProductID,
		OrderID:   event.OrderID,
		UserID:    event.UserID,
		SessionID: event.SessionID,
		Metadata:  event.Metadata,
		CreatedAt: event.CreatedAt,
	}
}

type ListEventsResponse struct {
	Events []TrackedEventResponse `json:"events"`
}
