package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"shopfeed.app/engine/common"
	"shopfeed.app/engine/internal/http/dto"
	"shopfeed.app/engine/internal/service"
)

type FeedHandler struct {
	service service.FeedService
}

func NewFeedHandler(service service.FeedService) *FeedHandler {
	return &FeedHandler{service: service}
}

// Serve generates (or fetches from cache) the feed for the slug in the
// path and writes the raw document with platform cache headers.
func (h *FeedHandler) Serve(c *gin.Context) {
	ctx := c.Request.Context()
	slug := c.Param("slug")

	// A malformed slug can never match a config; skip the lookup.
	if err := common.ValidateSlug(slug); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "feed not found"})
		return
	}

	doc, err := h.service.Generate(ctx, slug)
	if err != nil {
		if errors.Is(err, service.ErrFeedNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "feed not found"})
			return
		}
		slog.ErrorContext(ctx, "failed to generate feed", "slug", slug, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "feed generation failed"})
		return
	}

	c.Header("Cache-Control", "public, max-age="+strconv.Itoa(doc.CacheSeconds))
	c.Header("X-Product-Count", strconv.Itoa(doc.ProductCount))
	c.Header("X-Generation-Time-Ms", strconv.FormatInt(doc.GenerationTimeMs, 10))
	if doc.FromCache {
		c.Header("X-Feed-Cache", "hit")
	}
	c.Data(http.StatusOK, doc.ContentType, []byte(doc.Body))
}

// Status reports config metadata and generation counters, including for
// inactive feeds.
func (h *FeedHandler) Status(c *gin.Context) {
	ctx := c.Request.Context()
	slug := c.Param("slug")

	status, err := h.service.Status(ctx, slug)
	if err != nil {
		if errors.Is(err, service.ErrFeedNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "feed not found"})
			return
		}
		slog.ErrorContext(ctx, "failed to load feed status", "slug", slug, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load feed status"})
		return
	}

	c.JSON(http.StatusOK, dto.ToFeedStatusResponse(status))
}
