package ingest

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"shopfeed.app/engine/internal/model"
)

const (
	DefaultBatchSize     = 50
	DefaultFlushInterval = 5 * time.Second
)

// EventWriter is the durable sink for flushed batches. Mirrors
// store.EventStore - defined here to avoid import cycles.
type EventWriter interface {
	Insert(ctx context.Context, event *model.TrackedEvent) error
	InsertBatch(ctx context.Context, events []*model.TrackedEvent) error
}

type QueueConfig struct {
	BatchSize     int
	FlushInterval time.Duration
}

// Queue buffers tracked events and flushes them by size or timer.
// Producers never see write errors: a failed flush re-queues the batch at
// the front of the buffer and retries on the next timer, so delivery is
// at-least-once within the process lifetime.
type Queue struct {
	writer EventWriter
	cfg    QueueConfig
	logger *slog.Logger

	mu     sync.Mutex
	buf    []*model.TrackedEvent
	timer  *time.Timer
	closed bool
}

func NewQueue(writer EventWriter, cfg QueueConfig, logger *slog.Logger) *Queue {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = DefaultFlushInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{
		writer: writer,
		cfg:    cfg,
		logger: logger,
	}
}

// Enqueue appends an event to the buffer. Reaching the batch size flushes
// immediately; otherwise the single-shot flush timer restarts, so the
// event waits at most one flush interval.
func (q *Queue) Enqueue(event *model.TrackedEvent) {
	q.mu.Lock()

	if q.closed {
		q.mu.Unlock()
		q.logger.Warn("event dropped: queue closed", "event_type", event.EventType)
		return
	}

	q.buf = append(q.buf, event)

	if len(q.buf) >= q.cfg.BatchSize {
		q.stopTimerLocked()
		q.mu.Unlock()
		go q.Flush(context.Background())
		return
	}

	q.resetTimerLocked()
	q.mu.Unlock()
}

// Len reports the current buffer size.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.buf)
}

// Flush swaps the buffer out under the lock, then performs the durable
// write outside it, so concurrent Enqueue calls build a fresh buffer
// instead of racing on the in-flight one. On failure the snapshot is
// prepended back onto the live buffer, preserving arrival order.
func (q *Queue) Flush(ctx context.Context) {
	q.mu.Lock()
	snapshot := q.buf
	q.buf = nil
	q.stopTimerLocked()
	q.mu.Unlock()

	if len(snapshot) == 0 {
		return
	}

	if err := q.write(ctx, snapshot); err != nil {
		q.logger.WarnContext(ctx, "event batch write failed, re-queueing",
			"error", err,
			"count", len(snapshot))

		q.mu.Lock()
		q.buf = append(snapshot, q.buf...)
		if !q.closed {
			q.resetTimerLocked()
		}
		q.mu.Unlock()
		return
	}

	q.logger.DebugContext(ctx, "event batch flushed", "count", len(snapshot))
}

// Close stops the timer and makes one final synchronous flush attempt.
// Best-effort: events still buffered after a failed final write are lost
// with a log line, matching the fire-and-forget producer contract.
func (q *Queue) Close(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.stopTimerLocked()
	q.mu.Unlock()

	q.Flush(ctx)

	q.mu.Lock()
	remaining := len(q.buf)
	q.mu.Unlock()
	if remaining > 0 {
		q.logger.WarnContext(ctx, "queue closed with unflushed events", "count", remaining)
	}
}

// write picks the single-row insert for a batch of one; multi-row batches
// go through the batched insert.
func (q *Queue) write(ctx context.Context, events []*model.TrackedEvent) error {
	if len(events) == 1 {
		return q.writer.Insert(ctx, events[0])
	}
	return q.writer.InsertBatch(ctx, events)
}

func (q *Queue) stopTimerLocked() {
	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
	}
}

func (q *Queue) resetTimerLocked() {
	q.stopTimerLocked()
	q.timer = time.AfterFunc(q.cfg.FlushInterval, func() {
		q.Flush(context.Background())
	})
}
