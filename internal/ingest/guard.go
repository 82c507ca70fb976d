// Package ingest absorbs bursts of behavioral pixel events: a dedup
// guard suppresses repeats at the source and a buffered queue batches the
// durable writes.
package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"shopfeed.app/engine/internal/model"
)

// DefaultDedupWindow is how long an identical event is considered a
// duplicate of its predecessor.
const DefaultDedupWindow = 5 * time.Second

// Guard suppresses semantically duplicate events inside a sliding time
// window, with a separate permanent guard for purchase transactions.
// Guard state is process-local; no cross-process coordination is
// attempted or guaranteed.
type Guard struct {
	mu      sync.Mutex
	window  time.Duration
	seen    map[string]time.Time
	orders  map[string]bool
	nowFunc func() time.Time
}

func NewGuard(window time.Duration) *Guard {
	if window <= 0 {
		window = DefaultDedupWindow
	}
	return &Guard{
		window:  window,
		seen:    make(map[string]time.Time),
		orders:  make(map[string]bool),
		nowFunc: time.Now,
	}
}

// ShouldTrack reports whether an event with these identifying fields
// should be emitted. A duplicate within the window returns false without
// refreshing the timestamp; anything else refreshes and returns true.
func (g *Guard) ShouldTrack(eventType model.EventType, fields map[string]any) bool {
	return g.ShouldTrackWithin(eventType, fields, g.window)
}

// ShouldTrackWithin is ShouldTrack with a per-call window override. The
// configured default is untouched, so a call site that wants a tighter
// window (add-to-cart uses 3s) doesn't leak it to other callers.
func (g *Guard) ShouldTrackWithin(eventType model.EventType, fields map[string]any, window time.Duration) bool {
	if window <= 0 {
		window = g.window
	}
	key := dedupKey(eventType, fields)
	now := g.nowFunc()

	g.mu.Lock()
	defer g.mu.Unlock()

	g.prune(now)

	if last, ok := g.seen[key]; ok && now.Sub(last) < window {
		return false
	}
	g.seen[key] = now
	return true
}

// TrackPurchase reports whether a purchase for this pixel/order pair has
// been seen before. Unlike the sliding window, the order set never
// expires: a repeated purchase event for the same order is suppressed no
// matter how much time has passed.
func (g *Guard) TrackPurchase(pixelID int64, orderID string) bool {
	key := fmt.Sprintf("%d:%s", pixelID, orderID)

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.orders[key] {
		return false
	}
	g.orders[key] = true
	return true
}

// prune drops window entries that can no longer suppress anything. Called
// under the mutex. Uses the configured window as the horizon so per-call
// overrides (always shorter in practice) stay correct.
func (g *Guard) prune(now time.Time) {
	for key, last := range g.seen {
		if now.Sub(last) >= g.window {
			delete(g.seen, key)
		}
	}
}

// dedupKey composes the event type with a hash of the identifying fields.
// json.Marshal sorts map keys, so the same fields always hash the same.
func dedupKey(eventType model.EventType, fields map[string]any) string {
	data, err := json.Marshal(fields)
	if err != nil {
		data = []byte(fmt.Sprint(fields))
	}
	hash := sha256.Sum256(data)
	return string(eventType) + ":" + hex.EncodeToString(hash[:])
}
