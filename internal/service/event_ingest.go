package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"shopfeed.app/engine/common/id"
	"shopfeed.app/engine/common/logger"
	"shopfeed.app/engine/internal/ingest"
	"shopfeed.app/engine/internal/model"
	"shopfeed.app/engine/internal/store"
)

var (
	ErrPixelNotFound = errors.New("pixel platform not found")
	ErrPixelDisabled = errors.New("pixel platform is disabled")
)

// DefaultCurrency applies when an event carries a value but no currency.
const DefaultCurrency = "USD"

// addToCartDedupWindow tightens the duplicate window for add-to-cart:
// rapid quantity clicks are legitimate distinct signals sooner than the
// default window allows.
const addToCartDedupWindow = 3 * time.Second

type EventParams struct {
	PixelID   int64
	EventType model.EventType
	Value     *float64
	Currency  string
	ProductID *string
	OrderID   *string
	UserID    *string
	SessionID string
	Metadata  json.RawMessage
}

// FieldError is a structured per-field validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationFailure rejects a whole ingest request with field-level
// detail. Field names are prefixed "events[i]." for batch submissions.
type ValidationFailure struct {
	Errors []FieldError
}

func (e *ValidationFailure) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "invalid events: " + strings.Join(parts, "; ")
}

// IngestResult reports what happened to a submission. Dropped counts
// duplicates the guard suppressed; the producer still gets a success.
type IngestResult struct {
	Queued    int
	Dropped   int
	QueueSize int
}

type ListQuery struct {
	PixelID   *int64
	EventType *model.EventType
	Limit     int
	Offset    int
}

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

type EventIngestService interface {
	// Ingest validates and enqueues a batch of events (a single event is
	// a batch of one). Validation failures reject the whole submission;
	// past validation, tracking is fire-and-forget: durable-write
	// failures are absorbed by the queue and never surface here.
	Ingest(ctx context.Context, events []EventParams) (*IngestResult, error)

	// List returns stored events newest-first.
	List(ctx context.Context, q ListQuery) ([]model.TrackedEvent, error)
}

type eventIngestService struct {
	pixels store.PixelStore
	events store.EventStore
	guard  *ingest.Guard
	queue  *ingest.Queue
	logger *slog.Logger
}

func NewEventIngestService(
	pixels store.PixelStore,
	events store.EventStore,
	guard *ingest.Guard,
	queue *ingest.Queue,
	log *slog.Logger,
) EventIngestService {
	if log == nil {
		log = slog.Default()
	}
	return &eventIngestService{
		pixels: pixels,
		events: events,
		guard:  guard,
		queue:  queue,
		logger: log,
	}
}

func (s *eventIngestService) Ingest(ctx context.Context, events []EventParams) (*IngestResult, error) {
	if len(events) == 0 {
		return nil, &ValidationFailure{Errors: []FieldError{{Field: "events", Message: "at least one event is required"}}}
	}

	var fieldErrors []FieldError
	for i := range events {
		fieldErrors = append(fieldErrors, s.validate(ctx, &events[i], fieldPrefix(i, len(events)))...)
	}
	if len(fieldErrors) > 0 {
		return nil, &ValidationFailure{Errors: fieldErrors}
	}

	result := &IngestResult{}
	for i := range events {
		params := &events[i]
		ctx := logger.WithLogFields(ctx, logger.LogFields{
			PixelID:   logger.Ptr(params.PixelID),
			EventType: logger.Ptr(string(params.EventType)),
			Component: "engine.ingest.service",
		})

		if !s.shouldTrack(params) {
			result.Dropped++
			s.logger.InfoContext(ctx, "duplicate event suppressed")
			continue
		}

		s.queue.Enqueue(&model.TrackedEvent{
			ID:        id.New(),
			PixelID:   params.PixelID,
			EventType: params.EventType,
			Value:     params.Value,
			Currency:  params.Currency,
			ProductID: params.ProductID,
			OrderID:   params.OrderID,
			UserID:    params.UserID,
			SessionID: params.SessionID,
			Metadata:  params.Metadata,
			CreatedAt: time.Now().UTC(),
		})
		result.Queued++
	}

	result.QueueSize = s.queue.Len()
	return result, nil
}

func (s *eventIngestService) List(ctx context.Context, q ListQuery) ([]model.TrackedEvent, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	return s.events.List(ctx, store.EventQuery{
		PixelID:   q.PixelID,
		EventType: q.EventType,
		Limit:     int32(limit),
		Offset:    int32(offset),
	})
}

func (s *eventIngestService) validate(ctx context.Context, params *EventParams, prefix string) []FieldError {
	var errs []FieldError

	if params.PixelID == 0 {
		errs = append(errs, FieldError{Field: prefix + "pixel_id", Message: "pixel_id is required"})
	} else {
		pixel, err := s.pixels.GetByID(ctx, params.PixelID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			errs = append(errs, FieldError{Field: prefix + "pixel_id", Message: ErrPixelNotFound.Error()})
		case err != nil:
			s.logger.ErrorContext(ctx, "pixel lookup failed", "error", err, "pixel_id", params.PixelID)
			errs = append(errs, FieldError{Field: prefix + "pixel_id", Message: "pixel lookup failed"})
		case !pixel.IsEnabled:
			errs = append(errs, FieldError{Field: prefix + "pixel_id", Message: ErrPixelDisabled.Error()})
		}
	}

	if params.EventType == "" {
		errs = append(errs, FieldError{Field: prefix + "event_type", Message: "event_type is required"})
	} else if !params.EventType.Valid() {
		errs = append(errs, FieldError{Field: prefix + "event_type", Message: fmt.Sprintf("unknown event type %q", params.EventType)})
	}

	if params.EventType == model.EventPurchase && (params.OrderID == nil || *params.OrderID == "") {
		errs = append(errs, FieldError{Field: prefix + "order_id", Message: "order_id is required for purchase events"})
	}

	if params.Currency == "" {
		params.Currency = DefaultCurrency
	}

	return errs
}

// shouldTrack applies the dedup guard: a permanent per-order guard for
// purchases (dropped before they ever reach the queue), a sliding window
// for everything else.
func (s *eventIngestService) shouldTrack(params *EventParams) bool {
	if params.EventType == model.EventPurchase {
		return s.guard.TrackPurchase(params.PixelID, *params.OrderID)
	}

	fields := map[string]any{
		"pixel_id":   params.PixelID,
		"session_id": params.SessionID,
	}
	if params.ProductID != nil {
		fields["product_id"] = *params.ProductID
	}
	if params.Value != nil {
		fields["value"] = *params.Value
	}

	if params.EventType == model.EventAddToCart {
		return s.guard.ShouldTrackWithin(params.EventType, fields, addToCartDedupWindow)
	}
	return s.guard.ShouldTrack(params.EventType, fields)
}

func fieldPrefix(i, total int) string {
	if total == 1 {
		return ""
	}
	return fmt.Sprintf("events[%d].", i)
}
