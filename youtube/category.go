package youtube

import "strings"

// VideoCategory classifies a music video by how it was produced.
type VideoCategory string

const (
	CategoryLive     VideoCategory = "live"
	CategoryCover    VideoCategory = "cover"
	CategoryOriginal VideoCategory = "original"
)

// NormalizeVideoCategory maps free-form input to a known category,
// returning false for anything unrecognized.
func NormalizeVideoCategory(raw string) (VideoCategory, bool) {
	switch VideoCategory(strings.ToLower(strings.TrimSpace(raw))) {
	case CategoryLive:
		return CategoryLive, true
	case CategoryCover:
		return CategoryCover, true
	case CategoryOriginal:
		return CategoryOriginal, true
	default:
		return "", false
	}
}

// DeriveVideoCategoryFromTitle guesses a category from a video title.
// Live markers win over cover markers, so a "live cover" stream is
// classified as live. Titles with no marker yield false.
func DeriveVideoCategoryFromTitle(title string) (VideoCategory, bool) {
	lowered := strings.ToLower(title)
	if lowered == "" {
		return "", false
	}
	if strings.Contains(lowered, "歌枠") || strings.Contains(lowered, "live") {
		return CategoryLive, true
	}
	if strings.Contains(lowered, "cover") {
		return CategoryCover, true
	}
	if strings.Contains(lowered, "original") {
		return CategoryOriginal, true
	}
	return "", false
}
