package youtube

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVideoSummary(t *testing.T) {
	api := &stubAPI{
		getVideosFn: func(ctx context.Context, ids []string, parts []string) ([]VideoItem, error) {
			assert.Equal(t, []string{"dQw4w9WgXcQ"}, ids)
			assert.ElementsMatch(t, []string{"snippet", "contentDetails"}, parts)
			return []VideoItem{{
				ID:           "dQw4w9WgXcQ",
				Title:        "  Never Gonna Give You Up  ",
				Description:  "The official video.",
				ChannelID:    "UCabcdefghijklmnopqrstuv",
				ThumbnailURL: "https://i.ytimg.com/vi/dQw4w9WgXcQ/maxresdefault.jpg",
				DurationSec:  212,
			}}, nil
		},
	}
	detector, _ := newTestDetector(api)

	summary := detector.VideoSummary(context.Background(), "dQw4w9WgXcQ")
	assert.Equal(t, "Never Gonna Give You Up", summary.Title)
	assert.Equal(t, "The official video.", summary.Description)
	assert.Equal(t, "UCabcdefghijklmnopqrstuv", summary.ChannelID)
	assert.Equal(t, "https://i.ytimg.com/vi/dQw4w9WgXcQ/maxresdefault.jpg", summary.ThumbnailURL)
	assert.Equal(t, 212, summary.DurationSec)
}

func TestVideoSummaryTruncatesLongTitle(t *testing.T) {
	api := &stubAPI{
		getVideosFn: func(ctx context.Context, ids []string, parts []string) ([]VideoItem, error) {
			return []VideoItem{{ID: "dQw4w9WgXcQ", Title: strings.Repeat("x", maxSummaryTextLen+50)}}, nil
		},
	}
	detector, _ := newTestDetector(api)

	summary := detector.VideoSummary(context.Background(), "dQw4w9WgXcQ")
	assert.Len(t, []rune(summary.Title), maxSummaryTextLen)
}

func TestVideoSummaryFallback(t *testing.T) {
	want := VideoSummary{
		VideoID:      "dQw4w9WgXcQ",
		Title:        "Video dQw4w9WgXcQ",
		ThumbnailURL: "https://i.ytimg.com/vi/dQw4w9WgXcQ/hqdefault.jpg",
	}

	t.Run("no api key", func(t *testing.T) {
		detector, warn := newTestDetector(nil)
		assert.Equal(t, want, detector.VideoSummary(context.Background(), "dQw4w9WgXcQ"))
		assert.True(t, warn.warnedMissingKey)
	})

	t.Run("api error", func(t *testing.T) {
		api := &stubAPI{
			getVideosFn: func(ctx context.Context, ids []string, parts []string) ([]VideoItem, error) {
				return nil, fmt.Errorf("backend error")
			},
		}
		detector, _ := newTestDetector(api)
		assert.Equal(t, want, detector.VideoSummary(context.Background(), "dQw4w9WgXcQ"))
	})

	t.Run("empty result", func(t *testing.T) {
		api := &stubAPI{
			getVideosFn: func(ctx context.Context, ids []string, parts []string) ([]VideoItem, error) {
				return nil, nil
			},
		}
		detector, _ := newTestDetector(api)
		assert.Equal(t, want, detector.VideoSummary(context.Background(), "dQw4w9WgXcQ"))
	})
}
