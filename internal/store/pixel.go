package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"shopfeed.app/engine/internal/model"
)

type pixelStore struct {
	pool *pgxpool.Pool
}

func newPixelStore(pool *pgxpool.Pool) PixelStore {
	return &pixelStore{pool: pool}
}

func (s *pixelStore) GetByID(ctx context.Context, id int64) (*model.PixelPlatform, error) {
	var pixel model.PixelPlatform
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, platform, pixel_id, is_enabled, created_at
		FROM pixel_platforms
		WHERE id = $1`, id).Scan(&pixel.ID, &pixel.Name, &pixel.Platform,
		&pixel.PixelID, &pixel.IsEnabled, &pixel.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying pixel platform: %w", err)
	}
	return &pixel, nil
}
