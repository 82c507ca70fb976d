package service

import (
	"log/slog"

	"shopfeed.app/engine/internal/cache"
	"shopfeed.app/engine/internal/ingest"
	"shopfeed.app/engine/internal/store"
)

type ServicesConfig struct {
	Stores        *store.Stores
	FeedCache     cache.FeedCache
	Guard         *ingest.Guard
	Queue         *ingest.Queue
	StorefrontURL string
	Logger        *slog.Logger
}

type Services struct {
	feeds  FeedService
	events EventIngestService
}

func NewServices(cfg ServicesConfig) *Services {
	return &Services{
		feeds: NewFeedService(
			cfg.Stores.FeedConfigs(),
			cfg.Stores.Products(),
			cfg.Stores.FeedGenerations(),
			cfg.FeedCache,
			cfg.StorefrontURL,
			cfg.Logger,
		),
		events: NewEventIngestService(
			cfg.Stores.Pixels(),
			cfg.Stores.Events(),
			cfg.Guard,
			cfg.Queue,
			cfg.Logger,
		),
	}
}

func (s *Services) Feeds() FeedService {
	return s.feeds
}

func (s *Services) Events() EventIngestService {
	return s.events
}
