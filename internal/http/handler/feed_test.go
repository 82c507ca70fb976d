package handler_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"shopfeed.app/engine/internal/http/handler"
	"shopfeed.app/engine/internal/model"
	"shopfeed.app/engine/internal/service"
)

var _ = Describe("FeedHandler", func() {
	var (
		router *gin.Engine
		svc    *mockFeedService
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		svc = &mockFeedService{}
		h := handler.NewFeedHandler(svc)
		router.GET("/:slug", h.Serve)
		router.GET("/:slug/status", h.Status)
	})

	It("serves the document with cache and metadata headers", func() {
		svc.generateFn = func(_ context.Context, slug string) (*service.FeedDocument, error) {
			Expect(slug).To(Equal("main-store-feed"))
			return &service.FeedDocument{
				Body:             `[{"id":"ASH-100"}]`,
				ContentType:      "application/json; charset=utf-8",
				CacheSeconds:     3600,
				ProductCount:     1,
				GenerationTimeMs: 42,
			}, nil
		}

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/main-store-feed", nil)
		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Header().Get("Content-Type")).To(Equal("application/json; charset=utf-8"))
		Expect(w.Header().Get("Cache-Control")).To(Equal("public, max-age=3600"))
		Expect(w.Header().Get("X-Product-Count")).To(Equal("1"))
		Expect(w.Header().Get("X-Generation-Time-Ms")).To(Equal("42"))
		Expect(w.Header().Get("X-Feed-Cache")).To(BeEmpty())
		Expect(w.Body.String()).To(Equal(`[{"id":"ASH-100"}]`))
	})

	It("marks cache hits", func() {
		svc.generateFn = func(_ context.Context, slug string) (*service.FeedDocument, error) {
			return &service.FeedDocument{
				Body:        "[]",
				ContentType: "application/json; charset=utf-8",
				FromCache:   true,
			}, nil
		}

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/main-store-feed", nil)
		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Header().Get("X-Feed-Cache")).To(Equal("hit"))
	})

	It("returns 404 for unknown slugs", func() {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/nope", nil)
		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusNotFound))
		Expect(w.Body.String()).To(MatchJSON(`{"error": "feed not found"}`))
	})

	It("returns 404 for malformed slugs without hitting the service", func() {
		svc.generateFn = func(_ context.Context, slug string) (*service.FeedDocument, error) {
			Fail("service must not be called for a malformed slug")
			return nil, nil
		}

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/NOT-A-SLUG", nil)
		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusNotFound))
	})

	It("returns 500 with a JSON body on generation failure", func() {
		svc.generateFn = func(_ context.Context, slug string) (*service.FeedDocument, error) {
			return nil, &service.GenerationError{Slug: slug, Err: errors.New("boom")}
		}

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/main-store-feed", nil)
		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusInternalServerError))
		Expect(w.Body.String()).To(MatchJSON(`{"error": "feed generation failed"}`))
	})

	Describe("Status", func() {
		It("reports config metadata and counters", func() {
			svc.statusFn = func(_ context.Context, slug string) (*service.FeedStatus, error) {
				return &service.FeedStatus{
					ID:              1,
					Name:            "Main Store Feed",
					Platform:        model.PlatformMeta,
					Format:          model.FormatJSON,
					Slug:            slug,
					IsActive:        false,
					CacheSeconds:    3600,
					GenerationCount: 12,
					AuditCount:      15,
				}, nil
			}

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/main-store-feed/status", nil)
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(MatchJSON(`{
				"id": 1,
				"name": "Main Store Feed",
				"platform": "meta",
				"format": "json",
				"slug": "main-store-feed",
				"is_active": false,
				"cache_seconds": 3600,
				"generation_count": 12,
				"audit_count": 15
			}`))
		})

		It("returns 404 for unknown slugs", func() {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/nope/status", nil)
			router.ServeHTTP(w, req)
			Expect(w.Code).To(Equal(http.StatusNotFound))
		})
	})
})
