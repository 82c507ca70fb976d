// Package cache holds the Redis-backed cache for generated feed
// documents, so repeat crawler hits inside a feed's cache window skip
// regeneration entirely.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Document is a generated feed body with the metadata the HTTP layer
// exposes alongside it.
type Document struct {
	Body             string `json:"body"`
	ContentType      string `json:"content_type"`
	ProductCount     int    `json:"product_count"`
	GenerationTimeMs int64  `json:"generation_time_ms"`
}

// FeedCache is best-effort: every failure is logged and swallowed, since
// a broken cache must never break feed serving.
type FeedCache interface {
	Get(ctx context.Context, slug string) (*Document, bool)
	Set(ctx context.Context, slug string, doc *Document, ttl time.Duration)
}

type redisFeedCache struct {
	client    *redis.Client
	keyPrefix string
	logger    *slog.Logger
}

func NewRedisFeedCache(client *redis.Client, keyPrefix string, logger *slog.Logger) FeedCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &redisFeedCache{
		client:    client,
		keyPrefix: keyPrefix,
		logger:    logger,
	}
}

func (c *redisFeedCache) Get(ctx context.Context, slug string) (*Document, bool) {
	data, err := c.client.Get(ctx, c.keyPrefix+slug).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.WarnContext(ctx, "feed cache read failed", "error", err, "slug", slug)
		}
		return nil, false
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		c.logger.WarnContext(ctx, "feed cache entry corrupt", "error", err, "slug", slug)
		return nil, false
	}
	return &doc, true
}

func (c *redisFeedCache) Set(ctx context.Context, slug string, doc *Document, ttl time.Duration) {
	data, err := json.Marshal(doc)
	if err != nil {
		c.logger.WarnContext(ctx, "feed cache marshal failed", "error", err, "slug", slug)
		return
	}
	if err := c.client.Set(ctx, c.keyPrefix+slug, data, ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "feed cache write failed", "error", err, "slug", slug)
	}
}

// Noop returns a cache that stores nothing, for deployments without Redis.
func Noop() FeedCache {
	return noopCache{}
}

type noopCache struct{}

func (noopCache) Get(context.Context, string) (*Document, bool) { return nil, false }

func (noopCache) Set(context.Context, string, *Document, time.Duration) {}
