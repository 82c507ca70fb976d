package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"shopfeed.app/engine/internal/model"
)

type feedGenerationStore struct {
	pool *pgxpool.Pool
}

func newFeedGenerationStore(pool *pgxpool.Pool) FeedGenerationStore {
	return &feedGenerationStore{pool: pool}
}

func (s *feedGenerationStore) Create(ctx context.Context, record *model.FeedGenerationRecord) error {
	validationErrors, err := json.Marshal(record.ValidationErrors)
	if err != nil {
		return fmt.Errorf("marshaling validation errors: %w", err)
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO feed_generation_records
			(id, feed_id, status, product_count, validation_errors,
			 error_message, generation_time_ms, file_size_bytes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`,
		record.ID, record.FeedID, record.Status, record.ProductCount,
		validationErrors, record.ErrorMessage, record.GenerationTimeMs,
		record.FileSizeBytes)
	if err := row.Scan(&record.CreatedAt); err != nil {
		return fmt.Errorf("inserting generation record: %w", err)
	}
	return nil
}

func (s *feedGenerationStore) CountByFeed(ctx context.Context, feedID int64) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM feed_generation_records WHERE feed_id = $1`, feedID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting generation records: %w", err)
	}
	return count, nil
}
