package service_test

import (
	"context"
	"errors"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"shopfeed.app/engine/common/id"
	"shopfeed.app/engine/internal/cache"
	"shopfeed.app/engine/internal/model"
	"shopfeed.app/engine/internal/service"
	"shopfeed.app/engine/internal/store"
)

var _ = Describe("FeedService", func() {
	var (
		svc         service.FeedService
		configs     *mockFeedConfigStore
		products    *mockProductStore
		generations *mockFeedGenerationStore
		feedCache   *mockFeedCache
		ctx         context.Context
	)

	sku := "ASH-100"
	activeConfig := func() *model.FeedConfig {
		return &model.FeedConfig{
			ID:       1,
			Name:     "Main Store Feed",
			Platform: model.PlatformMeta,
			Format:   model.FormatJSON,
			Slug:     "main-store-feed",
			IsActive: true,
		}
	}
	catalogProducts := func() []model.Product {
		return []model.Product{{
			ID:        "prod-1",
			Name:      "Ashwagandha Capsules",
			Price:     1200,
			Currency:  "PKR",
			SKU:       &sku,
			Inventory: 10,
			IsActive:  true,
			CreatedAt: time.Now(),
		}}
	}

	BeforeEach(func() {
		ctx = context.Background()
		configs = &mockFeedConfigStore{}
		products = &mockProductStore{}
		generations = &mockFeedGenerationStore{}
		feedCache = newMockFeedCache()

		Expect(id.Init(1)).To(Succeed())

		svc = service.NewFeedService(configs, products, generations, feedCache, "https://shop.example.com", nil)
	})

	Describe("Generate", func() {
		Context("with an active config and products", func() {
			BeforeEach(func() {
				configs.getActiveBySlugFn = func(_ context.Context, slug string) (*model.FeedConfig, error) {
					return activeConfig(), nil
				}
				products.listActiveFn = func(_ context.Context) ([]model.Product, error) {
					return catalogProducts(), nil
				}
			})

			It("renders the document and reports success", func() {
				doc, err := svc.Generate(ctx, "main-store-feed")
				Expect(err).NotTo(HaveOccurred())

				Expect(doc.ContentType).To(HavePrefix("application/json"))
				Expect(doc.Body).To(ContainSubstring(`"id": "ASH-100"`))
				Expect(doc.Body).To(ContainSubstring(`"price": "1200 PKR"`))
				Expect(doc.ProductCount).To(Equal(1))
				Expect(doc.FromCache).To(BeFalse())
				Expect(doc.CacheSeconds).To(Equal(3600))
			})

			It("writes a success audit record", func() {
				_, err := svc.Generate(ctx, "main-store-feed")
				Expect(err).NotTo(HaveOccurred())

				Expect(generations.records).To(HaveLen(1))
				record := generations.records[0]
				Expect(record.Status).To(Equal(model.GenerationStatusSuccess))
				Expect(record.ProductCount).To(Equal(1))
				Expect(record.FileSizeBytes).To(BeNumerically(">", 0))
			})

			It("bumps generation stats and fills the cache", func() {
				_, err := svc.Generate(ctx, "main-store-feed")
				Expect(err).NotTo(HaveOccurred())

				Expect(configs.statsCalls).To(Equal(1))
				Expect(feedCache.setCalls).To(Equal(1))
				Expect(feedCache.lastTTL).To(Equal(3600 * time.Second))
			})

			It("does not fail the response when the audit write fails", func() {
				generations.createFn = func(_ context.Context, _ *model.FeedGenerationRecord) error {
					return errors.New("audit table gone")
				}

				doc, err := svc.Generate(ctx, "main-store-feed")
				Expect(err).NotTo(HaveOccurred())
				Expect(doc.ProductCount).To(Equal(1))
			})

			It("does not fail the response when the stats update fails", func() {
				configs.statsErr = errors.New("deadlock")

				_, err := svc.Generate(ctx, "main-store-feed")
				Expect(err).NotTo(HaveOccurred())
			})

			It("marks the generation partial when entries were skipped", func() {
				products.listActiveFn = func(_ context.Context) ([]model.Product, error) {
					nameless := model.Product{ID: "prod-2", IsActive: true}
					return append(catalogProducts(), nameless), nil
				}

				doc, err := svc.Generate(ctx, "main-store-feed")
				Expect(err).NotTo(HaveOccurred())
				Expect(doc.ProductCount).To(Equal(1))

				Expect(generations.records).To(HaveLen(1))
				Expect(generations.records[0].Status).To(Equal(model.GenerationStatusPartial))
				Expect(generations.records[0].ValidationErrors).NotTo(BeEmpty())
			})

			It("keeps the status success for warning-only validation issues", func() {
				// Products without images generate warnings, not errors.
				_, err := svc.Generate(ctx, "main-store-feed")
				Expect(err).NotTo(HaveOccurred())
				Expect(generations.records[0].Status).To(Equal(model.GenerationStatusSuccess))
				Expect(generations.records[0].ValidationErrors).To(HaveLen(1))
			})
		})

		Context("with a cached document", func() {
			BeforeEach(func() {
				configs.getActiveBySlugFn = func(_ context.Context, slug string) (*model.FeedConfig, error) {
					return activeConfig(), nil
				}
				feedCache.entries["main-store-feed"] = &cache.Document{
					Body:         "[]",
					ContentType:  "application/json; charset=utf-8",
					ProductCount: 0,
				}
			})

			It("serves from cache without regenerating", func() {
				doc, err := svc.Generate(ctx, "main-store-feed")
				Expect(err).NotTo(HaveOccurred())

				Expect(doc.FromCache).To(BeTrue())
				Expect(doc.Body).To(Equal("[]"))
				Expect(generations.records).To(BeEmpty())
				Expect(configs.statsCalls).To(BeZero())
			})
		})

		Context("with an unknown or inactive slug", func() {
			It("returns ErrFeedNotFound and writes no audit record", func() {
				_, err := svc.Generate(ctx, "nope")
				Expect(err).To(MatchError(service.ErrFeedNotFound))
				Expect(generations.records).To(BeEmpty())
			})
		})

		Context("when the product load fails", func() {
			BeforeEach(func() {
				configs.getActiveBySlugFn = func(_ context.Context, slug string) (*model.FeedConfig, error) {
					return activeConfig(), nil
				}
				products.listActiveFn = func(_ context.Context) ([]model.Product, error) {
					return nil, errors.New("connection refused")
				}
			})

			It("returns a GenerationError and writes a failed audit record", func() {
				_, err := svc.Generate(ctx, "main-store-feed")

				var genErr *service.GenerationError
				Expect(errors.As(err, &genErr)).To(BeTrue())
				Expect(genErr.Slug).To(Equal("main-store-feed"))

				Expect(generations.records).To(HaveLen(1))
				record := generations.records[0]
				Expect(record.Status).To(Equal(model.GenerationStatusFailed))
				Expect(record.ErrorMessage).NotTo(BeNil())
				Expect(*record.ErrorMessage).To(ContainSubstring("connection refused"))

				Expect(feedCache.setCalls).To(BeZero())
				Expect(configs.statsCalls).To(BeZero())
			})
		})

		Context("with a config store error", func() {
			It("propagates the error without masking it as not-found", func() {
				configs.getActiveBySlugFn = func(_ context.Context, slug string) (*model.FeedConfig, error) {
					return nil, errors.New("timeout")
				}

				_, err := svc.Generate(ctx, "main-store-feed")
				Expect(err).To(HaveOccurred())
				Expect(errors.Is(err, service.ErrFeedNotFound)).To(BeFalse())
				Expect(errors.Is(err, store.ErrNotFound)).To(BeFalse())
			})
		})
	})

	Describe("Status", func() {
		It("resolves inactive configs and counts audit rows", func() {
			configs.getBySlugFn = func(_ context.Context, slug string) (*model.FeedConfig, error) {
				cfg := activeConfig()
				cfg.IsActive = false
				cfg.GenerationCount = 12
				return cfg, nil
			}
			generations.records = append(generations.records, &model.FeedGenerationRecord{FeedID: 1})

			status, err := svc.Status(ctx, "main-store-feed")
			Expect(err).NotTo(HaveOccurred())

			Expect(status.IsActive).To(BeFalse())
			Expect(status.GenerationCount).To(Equal(int64(12)))
			Expect(status.AuditCount).To(Equal(int64(1)))
			Expect(status.CacheSeconds).To(Equal(3600))
		})

		It("returns ErrFeedNotFound for unknown slugs", func() {
			_, err := svc.Status(ctx, "nope")
			Expect(err).To(MatchError(service.ErrFeedNotFound))
		})
	})

	Describe("Generate (platform variations)", func() {
		Context("with a google XML config", func() {
			It("produces the RSS envelope with channel metadata", func() {
				configs.getActiveBySlugFn = func(_ context.Context, slug string) (*model.FeedConfig, error) {
					cfg := activeConfig()
					cfg.Platform = model.PlatformGoogle
					cfg.Format = model.FormatXML
					return cfg, nil
				}
				products.listActiveFn = func(_ context.Context) ([]model.Product, error) {
					return catalogProducts(), nil
				}

				doc, err := svc.Generate(ctx, "main-store-feed")
				Expect(err).NotTo(HaveOccurred())

				Expect(strings.HasPrefix(doc.Body, `<?xml version="1.0" encoding="UTF-8"?>`)).To(BeTrue())
				Expect(doc.Body).To(ContainSubstring("<title><![CDATA[Main Store Feed]]></title>"))
				Expect(doc.Body).To(ContainSubstring("<link><![CDATA[https://shop.example.com]]></link>"))
				Expect(doc.Body).To(ContainSubstring("<g:id><![CDATA[ASH-100]]></g:id>"))
				Expect(doc.CacheSeconds).To(Equal(86400))
			})
		})
	})
})
