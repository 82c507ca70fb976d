package service_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"shopfeed.app/engine/common/id"
	"shopfeed.app/engine/internal/ingest"
	"shopfeed.app/engine/internal/model"
	"shopfeed.app/engine/internal/service"
	"shopfeed.app/engine/internal/store"
)

var _ = Describe("EventIngestService", func() {
	var (
		svc    service.EventIngestService
		pixels *mockPixelStore
		events *mockEventStore
		guard  *ingest.Guard
		queue  *ingest.Queue
		ctx    context.Context
	)

	enabledPixel := func(_ context.Context, pixelID int64) (*model.PixelPlatform, error) {
		return &model.PixelPlatform{
			ID:        pixelID,
			Name:      "Meta Pixel",
			Platform:  model.PlatformMeta,
			PixelID:   "1234567890",
			IsEnabled: true,
		}, nil
	}

	pageView := func(session string) service.EventParams {
		return service.EventParams{
			PixelID:   1,
			EventType: model.EventPageView,
			SessionID: session,
		}
	}

	BeforeEach(func() {
		ctx = context.Background()
		pixels = &mockPixelStore{getByIDFn: enabledPixel}
		events = &mockEventStore{}
		guard = ingest.NewGuard(5 * time.Second)
		queue = ingest.NewQueue(events, ingest.QueueConfig{BatchSize: 1000, FlushInterval: time.Hour}, nil)

		Expect(id.Init(1)).To(Succeed())

		svc = service.NewEventIngestService(pixels, events, guard, queue, nil)
	})

	AfterEach(func() {
		queue.Close(ctx)
	})

	Describe("Ingest", func() {
		It("queues a valid event and reports the queue size", func() {
			result, err := svc.Ingest(ctx, []service.EventParams{pageView("s-1")})
			Expect(err).NotTo(HaveOccurred())

			Expect(result.Queued).To(Equal(1))
			Expect(result.Dropped).To(BeZero())
			Expect(result.QueueSize).To(Equal(1))
			Expect(events.inserted).To(BeEmpty(), "the ack precedes the durable write")
		})

		It("stamps queued events with an id, UTC timestamp, and default currency", func() {
			value := 49.99
			params := pageView("s-1")
			params.EventType = model.EventViewContent
			params.Value = &value

			_, err := svc.Ingest(ctx, []service.EventParams{params})
			Expect(err).NotTo(HaveOccurred())

			queue.Flush(ctx)
			Expect(events.inserted).To(HaveLen(1))
			stored := events.inserted[0]
			Expect(stored.ID).NotTo(BeZero())
			Expect(stored.CreatedAt.Location()).To(Equal(time.UTC))
			Expect(stored.Currency).To(Equal(service.DefaultCurrency))
			Expect(stored.Value).To(HaveValue(Equal(49.99)))
		})

		It("accepts a batch and queues every distinct event", func() {
			result, err := svc.Ingest(ctx, []service.EventParams{
				pageView("s-1"), pageView("s-2"), pageView("s-3"),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Queued).To(Equal(3))
		})

		It("drops in-window duplicates without failing the request", func() {
			result, err := svc.Ingest(ctx, []service.EventParams{
				pageView("s-1"), pageView("s-1"),
			})
			Expect(err).NotTo(HaveOccurred())

			Expect(result.Queued).To(Equal(1))
			Expect(result.Dropped).To(Equal(1))
		})

		It("suppresses repeat purchases for the same order permanently", func() {
			orderID := "order-42"
			purchase := service.EventParams{
				PixelID:   1,
				EventType: model.EventPurchase,
				OrderID:   &orderID,
			}

			first, err := svc.Ingest(ctx, []service.EventParams{purchase})
			Expect(err).NotTo(HaveOccurred())
			Expect(first.Queued).To(Equal(1))

			second, err := svc.Ingest(ctx, []service.EventParams{purchase})
			Expect(err).NotTo(HaveOccurred())
			Expect(second.Queued).To(BeZero())
			Expect(second.Dropped).To(Equal(1))
		})

		Context("validation", func() {
			It("rejects an empty submission", func() {
				_, err := svc.Ingest(ctx, nil)

				var failure *service.ValidationFailure
				Expect(errors.As(err, &failure)).To(BeTrue())
			})

			It("rejects a missing pixel", func() {
				pixels.getByIDFn = nil

				_, err := svc.Ingest(ctx, []service.EventParams{pageView("s-1")})

				var failure *service.ValidationFailure
				Expect(errors.As(err, &failure)).To(BeTrue())
				Expect(failure.Errors).To(HaveLen(1))
				Expect(failure.Errors[0].Field).To(Equal("pixel_id"))
			})

			It("rejects a disabled pixel", func() {
				pixels.getByIDFn = func(_ context.Context, pixelID int64) (*model.PixelPlatform, error) {
					return &model.PixelPlatform{ID: pixelID, IsEnabled: false}, nil
				}

				_, err := svc.Ingest(ctx, []service.EventParams{pageView("s-1")})

				var failure *service.ValidationFailure
				Expect(errors.As(err, &failure)).To(BeTrue())
				Expect(failure.Errors[0].Message).To(ContainSubstring("disabled"))
			})

			It("rejects an unknown event type", func() {
				params := pageView("s-1")
				params.EventType = "hover"

				_, err := svc.Ingest(ctx, []service.EventParams{params})

				var failure *service.ValidationFailure
				Expect(errors.As(err, &failure)).To(BeTrue())
				Expect(failure.Errors[0].Field).To(Equal("event_type"))
			})

			It("requires order_id for purchase events", func() {
				params := service.EventParams{PixelID: 1, EventType: model.EventPurchase}

				_, err := svc.Ingest(ctx, []service.EventParams{params})

				var failure *service.ValidationFailure
				Expect(errors.As(err, &failure)).To(BeTrue())
				Expect(failure.Errors[0].Field).To(Equal("order_id"))
			})

			It("rejects the whole batch when any event is invalid", func() {
				bad := pageView("s-2")
				bad.EventType = ""

				_, err := svc.Ingest(ctx, []service.EventParams{pageView("s-1"), bad})

				var failure *service.ValidationFailure
				Expect(errors.As(err, &failure)).To(BeTrue())
				Expect(failure.Errors[0].Field).To(Equal("events[1].event_type"))

				result, err := svc.Ingest(ctx, []service.EventParams{pageView("s-3")})
				Expect(err).NotTo(HaveOccurred())
				Expect(result.QueueSize).To(Equal(1), "nothing from the rejected batch was queued")
			})
		})
	})

	Describe("List", func() {
		It("passes filters through and clamps the limit", func() {
			var captured store.EventQuery
			events.listFn = func(_ context.Context, q store.EventQuery) ([]model.TrackedEvent, error) {
				captured = q
				return []model.TrackedEvent{}, nil
			}

			pixelID := int64(7)
			eventType := model.EventPurchase
			_, err := svc.List(ctx, service.ListQuery{
				PixelID:   &pixelID,
				EventType: &eventType,
				Limit:     5000,
				Offset:    -3,
			})
			Expect(err).NotTo(HaveOccurred())

			Expect(captured.PixelID).To(HaveValue(Equal(int64(7))))
			Expect(captured.EventType).To(HaveValue(Equal(model.EventPurchase)))
			Expect(captured.Limit).To(Equal(int32(1000)))
			Expect(captured.Offset).To(Equal(int32(0)))
		})

		It("applies the default limit", func() {
			var captured store.EventQuery
			events.listFn = func(_ context.Context, q store.EventQuery) ([]model.TrackedEvent, error) {
				captured = q
				return nil, nil
			}

			_, err := svc.List(ctx, service.ListQuery{})
			Expect(err).NotTo(HaveOccurred())
			Expect(captured.Limit).To(Equal(int32(100)))
		})
	})
})
