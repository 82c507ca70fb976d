package logger

import "context"

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields contains structured fields automatically added to all logs
// within a context. Fields flow through context enrichment so business
// context (feed_id, pixel_id, etc.) lands on every log statement without
// repeating it at each call site.
type LogFields struct {
	FeedID    *int64  // Feed config ID
	FeedSlug  *string // Feed slug being generated
	Platform  *string // Advertising platform (e.g. "meta", "google")
	PixelID   *int64  // Pixel platform ID for tracked events
	EventType *string // Behavioral event type (e.g. "purchase")
	Component string  // Component name (e.g. "engine.feed.service")
}

// WithLogFields enriches context with structured log fields.
// Multiple calls merge fields, with newer non-nil/non-empty values taking
// precedence. Context timeouts and cancellation are preserved.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	existing := GetLogFields(ctx)
	merged := mergeFields(existing, fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

// GetLogFields retrieves log fields from context.
// Returns empty LogFields if none are set.
func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

func mergeFields(existing, next LogFields) LogFields {
	result := existing

	if next.FeedID != nil {
		result.FeedID = next.FeedID
	}
	if next.FeedSlug != nil {
		result.FeedSlug = next.FeedSlug
	}
	if next.Platform != nil {
		result.Platform = next.Platform
	}
	if next.PixelID != nil {
		result.PixelID = next.PixelID
	}
	if next.EventType != nil {
		result.EventType = next.EventType
	}
	if next.Component != "" {
		result.Component = next.Component
	}

	return result
}

// Ptr is a helper to create a pointer from a value.
// Useful for setting LogFields inline.
func Ptr[T any](v T) *T {
	return &v
}

// Truncate truncates a string to maxLen characters, appending "..." if
// truncated. Useful for logging potentially long strings like feed bodies.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
