package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"shopfeed.app/engine/common/id"
	"shopfeed.app/engine/common/logger"
	"shopfeed.app/engine/internal/cache"
	"shopfeed.app/engine/internal/catalog"
	"shopfeed.app/engine/internal/feed"
	"shopfeed.app/engine/internal/model"
	"shopfeed.app/engine/internal/store"
)

// ErrFeedNotFound covers both unknown and inactive slugs: a disabled feed
// is indistinguishable from a missing one at the HTTP boundary.
var ErrFeedNotFound = errors.New("feed not found")

// GenerationError wraps any failure during build, format, or serialize.
// The audit record has already been attempted by the time this surfaces.
type GenerationError struct {
	Slug string
	Err  error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generating feed %q: %v", e.Slug, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// FeedDocument is a rendered feed plus the metadata the HTTP layer
// exposes as headers.
type FeedDocument struct {
	Body             string
	ContentType      string
	CacheSeconds     int
	ProductCount     int
	GenerationTimeMs int64
	FromCache        bool
}

// FeedStatus summarizes a config and its generation history for
// operational inspection. Unlike Generate, it resolves inactive slugs.
type FeedStatus struct {
	ID              int64
	Name            string
	Platform        model.Platform
	Format          model.FeedFormat
	Slug            string
	IsActive        bool
	CacheSeconds    int
	GenerationCount int64
	AuditCount      int64
	LastGeneratedAt *time.Time
}

type FeedService interface {
	Generate(ctx context.Context, slug string) (*FeedDocument, error)
	Status(ctx context.Context, slug string) (*FeedStatus, error)
}

type feedService struct {
	configs       store.FeedConfigStore
	products      store.ProductStore
	generations   store.FeedGenerationStore
	cache         cache.FeedCache
	storefrontURL string
	logger        *slog.Logger
}

func NewFeedService(
	configs store.FeedConfigStore,
	products store.ProductStore,
	generations store.FeedGenerationStore,
	feedCache cache.FeedCache,
	storefrontURL string,
	log *slog.Logger,
) FeedService {
	if log == nil {
		log = slog.Default()
	}
	if feedCache == nil {
		feedCache = cache.Noop()
	}
	return &feedService{
		configs:       configs,
		products:      products,
		generations:   generations,
		cache:         feedCache,
		storefrontURL: storefrontURL,
		logger:        log,
	}
}

// Generate runs the full pipeline for one slug: config lookup, cache
// probe, catalog build, platform format, serialize, audit. Generation is
// stateless and safely parallel across requests; the audit write and the
// config counter bump are best-effort side effects that never fail an
// already-computed response.
func (s *feedService) Generate(ctx context.Context, slug string) (*FeedDocument, error) {
	cfg, err := s.configs.GetActiveBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrFeedNotFound
		}
		return nil, fmt.Errorf("looking up feed config: %w", err)
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		FeedID:    logger.Ptr(cfg.ID),
		FeedSlug:  logger.Ptr(cfg.Slug),
		Platform:  logger.Ptr(string(cfg.Platform)),
		Component: "engine.feed.service",
	})

	if doc, ok := s.cache.Get(ctx, slug); ok {
		s.logger.DebugContext(ctx, "feed served from cache")
		return &FeedDocument{
			Body:             doc.Body,
			ContentType:      doc.ContentType,
			CacheSeconds:     cfg.CacheSeconds(),
			ProductCount:     doc.ProductCount,
			GenerationTimeMs: doc.GenerationTimeMs,
			FromCache:        true,
		}, nil
	}

	sc := logger.StartSpan(ctx, "feed.generate")
	defer sc.End()
	ctx = sc.Context()

	start := time.Now()
	doc, validationErrors, err := s.generate(ctx, cfg)
	elapsedMs := time.Since(start).Milliseconds()

	if err != nil {
		sc.RecordError(err)
		s.logger.ErrorContext(ctx, "feed generation failed", "error", err)
		message := err.Error()
		s.writeAudit(ctx, &model.FeedGenerationRecord{
			ID:               id.New(),
			FeedID:           cfg.ID,
			Status:           model.GenerationStatusFailed,
			ValidationErrors: validationErrors,
			ErrorMessage:     &message,
			GenerationTimeMs: elapsedMs,
		})
		return nil, &GenerationError{Slug: slug, Err: err}
	}

	doc.GenerationTimeMs = elapsedMs
	doc.CacheSeconds = cfg.CacheSeconds()

	status := model.GenerationStatusSuccess
	for _, ve := range validationErrors {
		if ve.Severity == model.SeverityError {
			status = model.GenerationStatusPartial
			break
		}
	}

	s.writeAudit(ctx, &model.FeedGenerationRecord{
		ID:               id.New(),
		FeedID:           cfg.ID,
		Status:           status,
		ProductCount:     doc.ProductCount,
		ValidationErrors: validationErrors,
		GenerationTimeMs: elapsedMs,
		FileSizeBytes:    len(doc.Body),
	})

	if err := s.configs.UpdateGenerationStats(ctx, cfg.ID); err != nil {
		s.logger.WarnContext(ctx, "feed stats update failed", "error", err)
	}

	s.cache.Set(ctx, slug, &cache.Document{
		Body:             doc.Body,
		ContentType:      doc.ContentType,
		ProductCount:     doc.ProductCount,
		GenerationTimeMs: elapsedMs,
	}, time.Duration(cfg.CacheSeconds())*time.Second)

	s.logger.InfoContext(ctx, "feed generated",
		"status", status,
		"product_count", doc.ProductCount,
		"generation_time_ms", elapsedMs,
		"file_size_bytes", len(doc.Body))

	return doc, nil
}

// Status reports a config and its audit depth without generating
// anything. Inactive feeds resolve here so operators can inspect them.
func (s *feedService) Status(ctx context.Context, slug string) (*FeedStatus, error) {
	cfg, err := s.configs.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrFeedNotFound
		}
		return nil, fmt.Errorf("looking up feed config: %w", err)
	}

	auditCount, err := s.generations.CountByFeed(ctx, cfg.ID)
	if err != nil {
		return nil, fmt.Errorf("counting generation records: %w", err)
	}

	return &FeedStatus{
		ID:              cfg.ID,
		Name:            cfg.Name,
		Platform:        cfg.Platform,
		Format:          cfg.Format,
		Slug:            cfg.Slug,
		IsActive:        cfg.IsActive,
		CacheSeconds:    cfg.CacheSeconds(),
		GenerationCount: cfg.GenerationCount,
		AuditCount:      auditCount,
		LastGeneratedAt: cfg.LastGeneratedAt,
	}, nil
}

func (s *feedService) generate(ctx context.Context, cfg *model.FeedConfig) (*FeedDocument, []model.ValidationError, error) {
	products, err := s.products.ListActive(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("loading products: %w", err)
	}

	opts := catalog.BuildOptions{IncludeVariants: cfg.IncludeVariants}
	if len(cfg.CategoryFilter) > 0 {
		opts.CategoryFilter = make(map[int64]bool, len(cfg.CategoryFilter))
		for _, categoryID := range cfg.CategoryFilter {
			opts.CategoryFilter[categoryID] = true
		}
	}

	built := catalog.Build(ctx, products, opts)
	validationErrors := built.Errors

	records, warnings, err := feed.FormatEntries(cfg.Platform, built.Entries)
	if err != nil {
		return nil, validationErrors, err
	}
	validationErrors = append(validationErrors, warnings...)

	body, contentType, err := feed.Serialize(cfg.Format, cfg.Platform, feed.Channel{
		Title: cfg.Name,
		Link:  s.storefrontURL,
	}, records)
	if err != nil {
		return nil, validationErrors, err
	}

	return &FeedDocument{
		Body:         body,
		ContentType:  contentType,
		ProductCount: len(built.Entries),
	}, validationErrors, nil
}

// writeAudit appends a generation record. Failures are logged and
// swallowed: the audit trail must never decide the response.
func (s *feedService) writeAudit(ctx context.Context, record *model.FeedGenerationRecord) {
	if err := s.generations.Create(ctx, record); err != nil {
		s.logger.WarnContext(ctx, "generation audit write failed", "error", err, "status", record.Status)
	}
}
