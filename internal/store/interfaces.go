package store

import (
	"context"
	"errors"

	"shopfeed.app/engine/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ProductStore loads the raw catalog the builder joins into canonical
// entries: products with their images, active variants, and ordered
// category associations, newest first.
type ProductStore interface {
	ListActive(ctx context.Context) ([]model.Product, error)
}

// FeedConfigStore reads and updates feed export configurations. Configs
// are created and edited by the back office; this engine only consumes
// them and maintains generation bookkeeping.
type FeedConfigStore interface {
	GetBySlug(ctx context.Context, slug string) (*model.FeedConfig, error)
	GetActiveBySlug(ctx context.Context, slug string) (*model.FeedConfig, error)
	UpdateGenerationStats(ctx context.Context, id int64) error
}

// FeedGenerationStore records generation audit rows. Append-only.
type FeedGenerationStore interface {
	Create(ctx context.Context, record *model.FeedGenerationRecord) error
	CountByFeed(ctx context.Context, feedID int64) (int64, error)
}

// EventStore is the durable sink for tracked pixel events.
type EventStore interface {
	Insert(ctx context.Context, event *model.TrackedEvent) error
	InsertBatch(ctx context.Context, events []*model.TrackedEvent) error
	List(ctx context.Context, q EventQuery) ([]model.TrackedEvent, error)
}

// EventQuery filters the newest-first event listing.
type EventQuery struct {
	PixelID   *int64
	EventType *model.EventType
	Limit     int32
	Offset    int32
}

// PixelStore reads configured pixel platforms.
type PixelStore interface {
	GetByID(ctx context.Context, id int64) (*model.PixelPlatform, error)
}
