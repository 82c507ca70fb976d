package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"shopfeed.app/engine/internal/http/handler"
	"shopfeed.app/engine/internal/model"
	"shopfeed.app/engine/internal/service"
)

var _ = Describe("EventHandler", func() {
	var (
		router *gin.Engine
		svc    *mockEventIngestService
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		svc = &mockEventIngestService{}
		h := handler.NewEventHandler(svc)
		router.POST("/pixel-events", h.Ingest)
		router.GET("/pixel-events", h.List)
	})

	post := func(body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/pixel-events", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)
		return w
	}

	Describe("Ingest", func() {
		It("accepts a single event object", func() {
			var captured []service.EventParams
			svc.ingestFn = func(_ context.Context, events []service.EventParams) (*service.IngestResult, error) {
				captured = events
				return &service.IngestResult{Queued: 1, QueueSize: 1}, nil
			}

			w := post(`{"pixel_id": 1, "event_type": "page_view", "session_id": "s-1"}`)

			Expect(w.Code).To(Equal(http.StatusAccepted))
			Expect(captured).To(HaveLen(1))
			Expect(captured[0].PixelID).To(Equal(int64(1)))
			Expect(captured[0].EventType).To(Equal(model.EventPageView))
			Expect(w.Body.String()).To(MatchJSON(`{"queued": 1, "dropped": 0, "queue_size": 1}`))
		})

		It("accepts an array of events", func() {
			var captured []service.EventParams
			svc.ingestFn = func(_ context.Context, events []service.EventParams) (*service.IngestResult, error) {
				captured = events
				return &service.IngestResult{Queued: 2, QueueSize: 2}, nil
			}

			w := post(`[
				{"pixel_id": 1, "event_type": "page_view"},
				{"pixel_id": 1, "event_type": "purchase", "order_id": "o-1", "value": 99.5}
			]`)

			Expect(w.Code).To(Equal(http.StatusAccepted))
			Expect(captured).To(HaveLen(2))
			Expect(captured[1].OrderID).To(HaveValue(Equal("o-1")))
			Expect(captured[1].Value).To(HaveValue(Equal(99.5)))
		})

		It("returns field errors on validation failure", func() {
			svc.ingestFn = func(_ context.Context, events []service.EventParams) (*service.IngestResult, error) {
				return nil, &service.ValidationFailure{Errors: []service.FieldError{
					{Field: "events[1].event_type", Message: "event_type is required"},
				}}
			}

			w := post(`[{"pixel_id": 1, "event_type": "page_view"}, {"pixel_id": 1}]`)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(w.Body.String()).To(MatchJSON(`{
				"error": "validation failed",
				"fields": [{"field": "events[1].event_type", "message": "event_type is required"}]
			}`))
		})

		It("reports pixel lookup failures as field errors", func() {
			svc.ingestFn = func(_ context.Context, events []service.EventParams) (*service.IngestResult, error) {
				return nil, &service.ValidationFailure{Errors: []service.FieldError{
					{Field: "pixel_id", Message: "pixel platform not found"},
				}}
			}

			w := post(`{"pixel_id": 999, "event_type": "page_view", "session_id": "s-1"}`)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(w.Body.String()).To(MatchJSON(`{
				"error": "validation failed",
				"fields": [{"field": "pixel_id", "message": "pixel platform not found"}]
			}`))
		})

		It("rejects malformed JSON", func() {
			w := post(`{"pixel_id": `)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("rejects an empty body", func() {
			w := post("")
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("rejects an empty array", func() {
			w := post(`[]`)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("List", func() {
		It("returns stored events with filters applied", func() {
			productID := "ASH-100"
			svc.listFn = func(_ context.Context, q service.ListQuery) ([]model.TrackedEvent, error) {
				Expect(q.PixelID).To(HaveValue(Equal(int64(7))))
				Expect(q.EventType).To(HaveValue(Equal(model.EventPurchase)))
				Expect(q.Limit).To(Equal(25))
				Expect(q.Offset).To(Equal(50))
				return []model.TrackedEvent{{
					ID:        101,
					PixelID:   7,
					EventType: model.EventPurchase,
					Currency:  "USD",
					ProductID: &productID,
					SessionID: "s-1",
					CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
				}}, nil
			}

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet,
				"/pixel-events?pixel_id=7&event_type=purchase&limit=25&offset=50", nil)
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))

			var resp struct {
				Events []map[string]any `json:"events"`
			}
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp.Events).To(HaveLen(1))
			Expect(resp.Events[0]["id"]).To(BeNumerically("==", 101))
			Expect(resp.Events[0]["event_type"]).To(Equal("purchase"))
			Expect(resp.Events[0]["product_id"]).To(Equal("ASH-100"))
		})

		It("rejects a non-numeric pixel_id", func() {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/pixel-events?pixel_id=abc", nil)
			router.ServeHTTP(w, req)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("rejects an unknown event_type filter", func() {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/pixel-events?event_type=hover", nil)
			router.ServeHTTP(w, req)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})
})
