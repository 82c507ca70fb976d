package common

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	SlugMinLen = 3
	SlugMaxLen = 50
)

var (
	ErrEmptySlug = errors.New("slug cannot be empty")
	nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)
	validSlug    = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
)

// Slugify derives a URL-safe slug from input, falling back to fallback
// when input yields nothing usable.
func Slugify(input, fallback string) (string, error) {
	slug := slugify(input)
	if slug == "" {
		slug = slugify(fallback)
	}
	if slug == "" {
		return "", ErrEmptySlug
	}
	return slug, nil
}

// ValidateSlug enforces the feed slug contract: 3-50 chars, lowercase
// alphanumeric and hyphens, no leading or trailing hyphen.
func ValidateSlug(slug string) error {
	if len(slug) < SlugMinLen || len(slug) > SlugMaxLen {
		return fmt.Errorf("slug must be %d-%d characters, got %d", SlugMinLen, SlugMaxLen, len(slug))
	}
	if !validSlug.MatchString(slug) {
		return fmt.Errorf("slug %q must be lowercase alphanumeric with inner hyphens", slug)
	}
	return nil
}

func slugify(s string) string {
	lower := strings.ToLower(strings.TrimSpace(s))
	slug := nonSlugChars.ReplaceAllString(lower, "-")
	return strings.Trim(slug, "-")
}
