package feed

import "shopfeed.app/engine/internal/model"

// fieldLimits caps per-platform title and description lengths. A zero max
// means unlimited.
//
// TODO: confirm the Meta caps with the ads team; the legacy exporters
// disagree (title 150 vs 200, description 5000 vs 9999). The stricter
// values are in force until confirmed.
type fieldLimits struct {
	titleMax       int
	descriptionMax int
}

var platformLimits = map[model.Platform]fieldLimits{
	model.PlatformMeta:   {titleMax: 150, descriptionMax: 5000},
	model.PlatformGoogle: {titleMax: 150, descriptionMax: 5000},
}

// pinterestMaxImages caps the additional_image_link list; Pinterest
// ignores anything past the first five.
const pinterestMaxImages = 5

// pinterestImageDelimiter joins additional image URLs. Deliberately "|":
// it survives CSV quoting and matches the list join used elsewhere in the
// CSV serializer.
const pinterestImageDelimiter = "|"

// Limits reports the title and description caps for a platform (0 = none).
// Exposed so feed health checks can assert produced records against them.
func Limits(platform model.Platform) (titleMax, descriptionMax int) {
	l := platformLimits[platform]
	return l.titleMax, l.descriptionMax
}
