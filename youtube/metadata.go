package youtube

import (
	"context"
	"fmt"
	"strings"
)

const maxSummaryTextLen = 255

// VideoSummary is the per-video metadata detection and storage rely on.
// DurationSec is zero when the duration is unknown.
type VideoSummary struct {
	VideoID      string `json:"videoId"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	ChannelID    string `json:"channelId"`
	ThumbnailURL string `json:"thumbnailUrl"`
	DurationSec  int    `json:"durationSec"`
}

// fallbackSummary is what callers get when the Data API cannot be
// consulted. The hqdefault thumbnail exists for every public video.
func fallbackSummary(videoID string) VideoSummary {
	return VideoSummary{
		VideoID:      videoID,
		Title:        fmt.Sprintf("Video %s", videoID),
		ThumbnailURL: fmt.Sprintf("https://i.ytimg.com/vi/%s/hqdefault.jpg", videoID),
	}
}

// VideoSummary fetches a video's metadata, degrading to a usable
// placeholder on any failure so callers never block on the API.
func (d *Detector) VideoSummary(ctx context.Context, videoID string) VideoSummary {
	videoID = strings.TrimSpace(videoID)
	fallback := fallbackSummary(videoID)

	if d.api == nil {
		d.warn.WarnMissingAPIKey(d.log)
		return fallback
	}

	items, err := d.api.GetVideos(ctx, []string{videoID}, []string{"snippet", "contentDetails"})
	if err != nil {
		d.log.Warn().Str("video_id", videoID).Err(err).Msg("video metadata fetch failed")
		return fallback
	}
	if len(items) == 0 {
		d.log.Warn().Str("video_id", videoID).Msg("video metadata lookup returned no items")
		return fallback
	}

	item := items[0]
	summary := fallback
	if title := strings.TrimSpace(item.Title); title != "" {
		summary.Title = clipSummaryText(title)
	}
	summary.Description = item.Description
	summary.ChannelID = strings.TrimSpace(item.ChannelID)
	if item.ThumbnailURL != "" {
		summary.ThumbnailURL = item.ThumbnailURL
	}
	if item.DurationSec > 0 {
		summary.DurationSec = item.DurationSec
	}
	return summary
}

// clipSummaryText trims a short text field to the length the storage
// schema allows.
func clipSummaryText(value string) string {
	runes := []rune(strings.TrimSpace(value))
	if len(runes) > maxSummaryTextLen {
		return string(runes[:maxSummaryTextLen])
	}
	return string(runes)
}
