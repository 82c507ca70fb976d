package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"shopfeed.app/engine/internal/model"
)

type eventStore struct {
	pool *pgxpool.Pool
}

func newEventStore(pool *pgxpool.Pool) EventStore {
	return &eventStore{pool: pool}
}

const insertEventSQL = `
	INSERT INTO tracked_events
		(id, pixel_id, event_type, value, currency, product_id, order_id,
		 user_id, session_id, metadata, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

func (s *eventStore) Insert(ctx context.Context, event *model.TrackedEvent) error {
	_, err := s.pool.Exec(ctx, insertEventSQL, eventArgs(event)...)
	if err != nil {
		return fmt.Errorf("inserting tracked event: %w", err)
	}
	return nil
}

// InsertBatch pipelines one insert per event over a single round trip.
// Not idempotent: a retried batch after a partial failure may duplicate
// rows, which the dedup guard upstream makes rare and analytics tolerate.
func (s *eventStore) InsertBatch(ctx context.Context, events []*model.TrackedEvent) error {
	batch := &pgx.Batch{}
	for _, event := range events {
		batch.Queue(insertEventSQL, eventArgs(event)...)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range events {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("inserting tracked event batch: %w", err)
		}
	}
	return nil
}

func (s *eventStore) List(ctx context.Context, q EventQuery) ([]model.TrackedEvent, error) {
	var conditions []string
	var args []any

	if q.PixelID != nil {
		args = append(args, *q.PixelID)
		conditions = append(conditions, fmt.Sprintf("pixel_id = $%d", len(args)))
	}
	if q.EventType != nil {
		args = append(args, *q.EventType)
		conditions = append(conditions, fmt.Sprintf("event_type = $%d", len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	args = append(args, q.Limit)
	limitParam := len(args)
	args = append(args, q.Offset)
	offsetParam := len(args)

	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
		SELECT id, pixel_id, event_type, value, currency, product_id,
		       order_id, user_id, session_id, metadata, created_at
		FROM tracked_events
		%s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d`, where, limitParam, offsetParam), args...)
	if err != nil {
		return nil, fmt.Errorf("querying tracked events: %w", err)
	}
	defer rows.Close()

	var events []model.TrackedEvent
	for rows.Next() {
		var event model.TrackedEvent
		if err := rows.Scan(&event.ID, &event.PixelID, &event.EventType, &event.Value,
			&event.Currency, &event.ProductID, &event.OrderID, &event.UserID,
			&event.SessionID, &event.Metadata, &event.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning tracked event: %w", err)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func eventArgs(event *model.TrackedEvent) []any {
	return []any{
		event.ID, event.PixelID, event.EventType, event.Value, event.Currency,
		event.ProductID, event.OrderID, event.UserID, event.SessionID,
		event.Metadata, event.CreatedAt,
	}
}
