package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"shopfeed.app/engine/common/logger"
	"shopfeed.app/engine/internal/http/dto"
	"shopfeed.app/engine/internal/model"
	"shopfeed.app/engine/internal/service"
)

type EventHandler struct {
	service service.EventIngestService
}

func NewEventHandler(service service.EventIngestService) *EventHandler {
	return &EventHandler{service: service}
}

// Ingest accepts a single event object or an array of events. Any
// validation failure rejects the whole submission; accepted events are
// queued and acknowledged with 202 before the durable write happens.
func (h *EventHandler) Ingest(c *gin.Context) {
	ctx := c.Request.Context()

	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	reqs, err := decodeEvents(body)
	if err != nil {
		slog.WarnContext(ctx, "invalid ingest request", "error", err, "body", logger.Truncate(string(body), 256))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(reqs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no events in request"})
		return
	}

	params := make([]service.EventParams, len(reqs))
	for i, req := range reqs {
		params[i] = req.ToParams()
	}

	result, err := h.service.Ingest(ctx, params)
	if err != nil {
		var failure *service.ValidationFailure
		if errors.As(err, &failure) {
			c.JSON(http.StatusBadRequest, dto.ValidationErrorResponse{
				Error:  "validation failed",
				Fields: failure.Errors,
			})
			return
		}
		slog.ErrorContext(ctx, "failed to ingest events", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to ingest events"})
		return
	}

	c.JSON(http.StatusAccepted, dto.IngestEventsResponse{
		Queued:    result.Queued,
		Dropped:   result.Dropped,
		QueueSize: result.QueueSize,
	})
}

func (h *EventHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	q := service.ListQuery{}
	if v := c.Query("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer"})
			return
		}
		q.Limit = limit
	}
	if v := c.Query("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "offset must be an integer"})
			return
		}
		q.Offset = offset
	}
	if v := c.Query("pixel_id"); v != "" {
		pixelID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "pixel_id must be an integer"})
			return
		}
		q.PixelID = &pixelID
	}
	if v := c.Query("event_type"); v != "" {
		eventType := model.EventType(v)
		if !eventType.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown event_type"})
			return
		}
		q.EventType = &eventType
	}

	events, err := h.service.List(ctx, q)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list events", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list events"})
		return
	}

	resp := dto.ListEventsResponse{Events: make([]dto.TrackedEventResponse, len(events))}
	for i, event := range events {
		resp.Events[i] = dto.ToTrackedEventResponse(event)
	}
	c.JSON(http.StatusOK, resp)
}

func decodeEvents(body []byte) ([]dto.TrackedEventRequest, error) {
	trimmed := bytes.TrimLeft(body, " \t\r\n")
	if len(trimmed) == 0 {
		return nil, errors.New("empty request body")
	}
	if trimmed[0] == '[' {
		var reqs []dto.TrackedEventRequest
		if err := json.Unmarshal(trimmed, &reqs); err != nil {
			return nil, errors.New("invalid JSON array of events")
		}
		return reqs, nil
	}
	var req dto.TrackedEventRequest
	if err := json.Unmarshal(trimmed, &req); err != nil {
		return nil, errors.New("invalid JSON event object")
	}
	return []dto.TrackedEventRequest{req}, nil
}
