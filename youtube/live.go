package youtube

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// LiveBroadcastVideo is a read-only projection of a live (or
// previously live) video, built per request and never persisted here.
type LiveBroadcastVideo struct {
	VideoID          string `json:"videoId"`
	Title            string `json:"title"`
	URL              string `json:"url"`
	ThumbnailURL     string `json:"thumbnailUrl"`
	StartedAt        string `json:"startedAt"`
	ScheduledStartAt string `json:"scheduledStartAt"`
}

// FetchRecord captures one fetch attempt for observability. It is
// optional; callers pass nil when they do not need it.
type FetchRecord struct {
	Attempted  bool   `json:"attempted"`
	HTTPStatus int    `json:"httpStatus,omitempty"`
	Count      int    `json:"count"`
	Error      string `json:"error,omitempty"`
}

const maxLiveResults = 25

// BroadcastFinder discovers currently or previously live videos for a
// resolved channel and ranks them by recency.
type BroadcastFinder struct {
	api  DataAPI // nil when no API key is configured
	warn *WarnState
	log  zerolog.Logger
}

// NewBroadcastFinder creates a finder. api may be nil.
func NewBroadcastFinder(api DataAPI, warn *WarnState, log zerolog.Logger) *BroadcastFinder {
	if warn == nil {
		warn = NewWarnState()
	}
	return &BroadcastFinder{
		api:  api,
		warn: warn,
		log:  log.With().Str("component", "broadcast_finder").Logger(),
	}
}

// LiveBroadcasts lists a channel's live broadcasts, newest first.
// Any network or parse failure yields an empty list, never an error;
// the optional record captures what happened.
func (f *BroadcastFinder) LiveBroadcasts(ctx context.Context, channelID string, record *FetchRecord) []LiveBroadcastVideo {
	if record == nil {
		record = &FetchRecord{}
	}

	channelID = strings.TrimSpace(channelID)
	if channelID == "" {
		record.Error = "channelId missing"
		return nil
	}
	if f.api == nil {
		f.warn.WarnMissingAPIKey(f.log)
		record.Error = "youtube api key missing"
		return nil
	}

	record.Attempted = true

	hits, err := f.api.SearchVideos(ctx, VideoSearch{
		ChannelID:  channelID,
		EventType:  "live",
		Order:      "date",
		MaxResults: maxLiveResults,
	})
	if err != nil {
		record.HTTPStatus = HTTPStatusFromError(err)
		record.Error = err.Error()
		f.log.Warn().Str("channel_id", channelID).Err(err).Msg("live broadcast search failed")
		return nil
	}
	record.HTTPStatus = 200

	var videoIDs []string
	searchByID := make(map[string]SearchItem)
	for _, hit := range hits {
		if hit.VideoID == "" || searchByID[hit.VideoID].VideoID != "" {
			continue
		}
		videoIDs = append(videoIDs, hit.VideoID)
		searchByID[hit.VideoID] = hit
	}
	if len(videoIDs) == 0 {
		return nil
	}

	// The detail fetch is best-effort: when it fails, the search
	// snippets still produce a usable listing.
	detailByID := make(map[string]VideoItem)
	details, err := f.api.GetVideos(ctx, videoIDs, []string{"snippet", "liveStreamingDetails"})
	if err != nil {
		f.log.Warn().Str("channel_id", channelID).Err(err).Msg("live video detail fetch failed")
	}
	for _, detail := range details {
		detailByID[detail.ID] = detail
	}

	results := make([]LiveBroadcastVideo, 0, len(videoIDs))
	for _, videoID := range videoIDs {
		hit := searchByID[videoID]
		detail := detailByID[videoID]

		title := detailTitle(detail, hit)
		thumbnail := detail.ThumbnailURL
		if thumbnail == "" {
			thumbnail = hit.ThumbnailURL
		}

		startedAt := normalizeTimestamp(detail.ActualStartTime)
		if startedAt == "" {
			startedAt = normalizeTimestamp(hit.PublishedAt)
		}

		results = append(results, LiveBroadcastVideo{
			VideoID:          videoID,
			Title:            title,
			URL:              WatchURL(videoID),
			ThumbnailURL:     thumbnail,
			StartedAt:        startedAt,
			ScheduledStartAt: normalizeTimestamp(detail.ScheduledStartTime),
		})
	}

	// Newest first; items with neither timestamp sort last, keeping
	// their relative order.
	sort.SliceStable(results, func(i, j int) bool {
		iKey := broadcastSortKey(results[i])
		jKey := broadcastSortKey(results[j])
		if iKey == "" || jKey == "" {
			return iKey != "" && jKey == ""
		}
		return iKey > jKey
	})

	record.Count = len(results)
	return results
}

func broadcastSortKey(video LiveBroadcastVideo) string {
	if video.StartedAt != "" {
		return video.StartedAt
	}
	return video.ScheduledStartAt
}

func detailTitle(detail VideoItem, hit SearchItem) string {
	if detail.Title != "" {
		return detail.Title
	}
	return hit.Title
}

// normalizeTimestamp re-encodes an RFC3339 timestamp in UTC, or
// returns "" when the value does not parse.
func normalizeTimestamp(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return ""
	}
	return parsed.UTC().Format(time.RFC3339)
}

// WatchURL returns the canonical watch URL for a video ID.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}
