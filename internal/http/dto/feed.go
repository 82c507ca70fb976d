package dto

import (
	"time"

	"shopfeed.app/engine/internal/service"
)

type FeedStatusResponse struct {
	ID              int64      `json:"id"`
	Name            string     `json:"name"`
	Platform        string     `json:"platform"`
	Format          string     `json:"format"`
	Slug            string     `json:"slug"`
	IsActive        bool       `json:"is_active"`
	CacheSeconds    int        `json:"cache_seconds"`
	GenerationCount int64      `json:"generation_count"`
	AuditCount      int64      `json:"audit_count"`
	LastGeneratedAt *time.Time `json:"last_generated_at,omitempty"`
}

func ToFeedStatusResponse(status *service.FeedStatus) FeedStatusResponse {
	return FeedStatusResponse{
		ID:              status.ID,
		Name:            status.Name,
		Platform:        string(status.Platform),
		Format:          string(status.Format),
		Slug:            status.Slug,
		IsActive:        status.IsActive,
		CacheSeconds:    status.CacheSeconds,
		GenerationCount: status.GenerationCount,
		AuditCount:      status.AuditCount,
		LastGeneratedAt: status.LastGeneratedAt,
	}
}
