package model

import "time"

type Platform string

const (
	PlatformMeta      Platform = "meta"
	PlatformGoogle    Platform = "google"
	PlatformTikTok    Platform = "tiktok"
	PlatformPinterest Platform = "pinterest"
	PlatformSnapchat  Platform = "snapchat"
	PlatformMicrosoft Platform = "microsoft"
	PlatformTwitter   Platform = "twitter"
	PlatformLinkedIn  Platform = "linkedin"
	PlatformGeneric   Platform = "generic"
)

// Platforms lists every supported platform. The formatter registry is
// checked against this list at init so a new platform cannot be added
// without a formatter.
func Platforms() []Platform {
	return []Platform{
		PlatformMeta,
		PlatformGoogle,
		PlatformTikTok,
		PlatformPinterest,
		PlatformSnapchat,
		PlatformMicrosoft,
		PlatformTwitter,
		PlatformLinkedIn,
		PlatformGeneric,
	}
}

func (p Platform) Valid() bool {
	for _, known := range Platforms() {
		if p == known {
			return true
		}
	}
	return false
}

// DefaultCacheSeconds returns the recommended cache lifetime for feeds of
// this platform, matching each network's typical crawl cadence.
func (p Platform) DefaultCacheSeconds() int {
	switch p {
	case PlatformGoogle:
		return 86400
	case PlatformTikTok, PlatformSnapchat:
		return 21600
	default:
		return 3600
	}
}

type FeedFormat string

const (
	FormatXML  FeedFormat = "xml"
	FormatCSV  FeedFormat = "csv"
	FormatJSON FeedFormat = "json"
)

func (f FeedFormat) Valid() bool {
	switch f {
	case FormatXML, FormatCSV, FormatJSON:
		return true
	}
	return false
}

// FeedConfig is a named export configuration maintained by the back
// office. Read-heavy, write-rare; slug is unique across configs.
type FeedConfig struct {
	ID                   int64
	Name                 string
	Platform             Platform
	Format               FeedFormat
	Slug                 string
	IsActive             bool
	CategoryFilter       []int64
	IncludeVariants      bool
	CacheDurationSeconds int
	GenerationCount      int64
	LastGeneratedAt      *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// CacheSeconds returns the configured cache duration, falling back to the
// platform default when unset.
func (c *FeedConfig) CacheSeconds() int {
	if c.CacheDurationSeconds > 0 {
		return c.CacheDurationSeconds
	}
	return c.Platform.DefaultCacheSeconds()
}

type GenerationStatus string

const (
	GenerationStatusSuccess GenerationStatus = "success"
	GenerationStatusFailed  GenerationStatus = "failed"
	GenerationStatusPartial GenerationStatus = "partial"
)

// FeedGenerationRecord is one append-only audit row per generation
// attempt. Never mutated after insert.
type FeedGenerationRecord struct {
	ID               int64
	FeedID           int64
	Status           GenerationStatus
	ProductCount     int
	ValidationErrors []ValidationError
	ErrorMessage     *string
	GenerationTimeMs int64
	FileSizeBytes    int
	CreatedAt        time.Time
}
