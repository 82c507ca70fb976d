package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"shopfeed.app/engine/internal/model"
)

type feedConfigStore struct {
	pool *pgxpool.Pool
}

func newFeedConfigStore(pool *pgxpool.Pool) FeedConfigStore {
	return &feedConfigStore{pool: pool}
}

const feedConfigColumns = `
	id, name, platform, format, slug, is_active, category_filter,
	include_variants, cache_duration_seconds, generation_count,
	last_generated_at, created_at, updated_at`

func (s *feedConfigStore) GetBySlug(ctx context.Context, slug string) (*model.FeedConfig, error) {
	row := s.pool.QueryRow(ctx, `SELECT`+feedConfigColumns+` FROM feed_configs WHERE slug = $1`, slug)
	return scanFeedConfig(row)
}

func (s *feedConfigStore) GetActiveBySlug(ctx context.Context, slug string) (*model.FeedConfig, error) {
	row := s.pool.QueryRow(ctx, `SELECT`+feedConfigColumns+` FROM feed_configs WHERE slug = $1 AND is_active = true`, slug)
	return scanFeedConfig(row)
}

// UpdateGenerationStats bumps the generation counter and last-generated
// timestamp. Callers treat a failure here as best-effort.
func (s *feedConfigStore) UpdateGenerationStats(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE feed_configs
		SET generation_count = generation_count + 1,
		    last_generated_at = now(),
		    updated_at = now()
		WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("updating generation stats: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanFeedConfig(row pgx.Row) (*model.FeedConfig, error) {
	var cfg model.FeedConfig
	err := row.Scan(&cfg.ID, &cfg.Name, &cfg.Platform, &cfg.Format, &cfg.Slug,
		&cfg.IsActive, &cfg.CategoryFilter, &cfg.IncludeVariants,
		&cfg.CacheDurationSeconds, &cfg.GenerationCount,
		&cfg.LastGeneratedAt, &cfg.CreatedAt, &cfg.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scanning feed config: %w", err)
	}
	return &cfg, nil
}
