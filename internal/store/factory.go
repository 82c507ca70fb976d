package store

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Stores bundles the pgx-backed store implementations over one pool.
type Stores struct {
	pool *pgxpool.Pool
}

func NewStores(pool *pgxpool.Pool) *Stores {
	return &Stores{pool: pool}
}

func (s *Stores) Products() ProductStore {
	return newProductStore(s.pool)
}

func (s *Stores) FeedConfigs() FeedConfigStore {
	return newFeedConfigStore(s.pool)
}

func (s *Stores) FeedGenerations() FeedGenerationStore {
	return newFeedGenerationStore(s.pool)
}

func (s *Stores) Events() EventStore {
	return newEventStore(s.pool)
}

func (s *Stores) Pixels() PixelStore {
	return newPixelStore(s.pool)
}
