package youtube

import (
	"context"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// ChannelUploadVideo is a read-only projection of one recent upload.
type ChannelUploadVideo struct {
	VideoID      string `json:"videoId"`
	Title        string `json:"title"`
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnailUrl"`
	PublishedAt  string `json:"publishedAt"`
}

// channelUploadKeywords select uploads worth surfacing: song covers,
// original releases, and official uploads.
var channelUploadKeywords = []string{"cover", "original", "official"}

const maxUploadResults = 50

// UploadFilter lists a channel's recent uploads filtered by title
// keywords. Without an API client it degrades to the channel's public
// Atom feed.
type UploadFilter struct {
	api  DataAPI // nil when no API key is configured
	feed *FeedClient
	warn *WarnState
	log  zerolog.Logger
}

// NewUploadFilter creates an upload filter. api may be nil; feed may be
// nil when no fallback source is available.
func NewUploadFilter(api DataAPI, feed *FeedClient, warn *WarnState, log zerolog.Logger) *UploadFilter {
	if warn == nil {
		warn = NewWarnState()
	}
	return &UploadFilter{
		api:  api,
		feed: feed,
		warn: warn,
		log:  log.With().Str("component", "upload_filter").Logger(),
	}
}

// Keywords returns the active title keyword set.
func (u *UploadFilter) Keywords() []string {
	return append([]string(nil), channelUploadKeywords...)
}

// FilteredUploads lists a channel's recent uploads whose titles contain
// at least one keyword, newest first. Failures yield an empty list.
func (u *UploadFilter) FilteredUploads(ctx context.Context, channelID string, record *FetchRecord) []ChannelUploadVideo {
	if record == nil {
		record = &FetchRecord{}
	}

	channelID = strings.TrimSpace(channelID)
	if channelID == "" {
		record.Error = "channelId missing"
		return nil
	}
	if u.api == nil {
		u.warn.WarnMissingAPIKey(u.log)
		return u.feedUploads(ctx, channelID, record)
	}

	record.Attempted = true

	hits, err := u.api.SearchVideos(ctx, VideoSearch{
		ChannelID:  channelID,
		Order:      "date",
		MaxResults: maxUploadResults,
	})
	if err != nil {
		record.HTTPStatus = HTTPStatusFromError(err)
		record.Error = err.Error()
		u.log.Warn().Str("channel_id", channelID).Err(err).Msg("channel upload listing failed")
		return nil
	}
	record.HTTPStatus = 200

	seen := make(map[string]bool)
	var filtered []ChannelUploadVideo
	for _, hit := range hits {
		if hit.VideoID == "" || seen[hit.VideoID] {
			continue
		}
		if !titleMatchesKeywords(hit.Title) {
			continue
		}
		seen[hit.VideoID] = true
		filtered = append(filtered, ChannelUploadVideo{
			VideoID:      hit.VideoID,
			Title:        strings.TrimSpace(hit.Title),
			URL:          WatchURL(hit.VideoID),
			ThumbnailURL: hit.ThumbnailURL,
			PublishedAt:  normalizeTimestamp(hit.PublishedAt),
		})
	}

	// Newest first; undated items last, relative order preserved.
	sort.SliceStable(filtered, func(i, j int) bool {
		a, b := filtered[i].PublishedAt, filtered[j].PublishedAt
		if a == "" || b == "" {
			return a != "" && b == ""
		}
		return a > b
	})

	record.Count = len(filtered)
	return filtered
}

// feedUploads serves the keyword filter from the public Atom feed when
// no API client exists. The feed covers only recent uploads.
func (u *UploadFilter) feedUploads(ctx context.Context, channelID string, record *FetchRecord) []ChannelUploadVideo {
	if u.feed == nil {
		record.Error = "youtube api key missing"
		return nil
	}

	record.Attempted = true
	entries, err := u.feed.RecentUploads(ctx, channelID)
	if err != nil {
		record.HTTPStatus = HTTPStatusFromError(err)
		record.Error = err.Error()
		u.log.Warn().Str("channel_id", channelID).Err(err).Msg("feed upload listing failed")
		return nil
	}
	record.HTTPStatus = 200

	seen := make(map[string]bool)
	var filtered []ChannelUploadVideo
	for _, entry := range entries {
		if entry.VideoID == "" || seen[entry.VideoID] {
			continue
		}
		if !titleMatchesKeywords(entry.Title) {
			continue
		}
		seen[entry.VideoID] = true
		filtered = append(filtered, ChannelUploadVideo{
			VideoID:      entry.VideoID,
			Title:        strings.TrimSpace(entry.Title),
			URL:          WatchURL(entry.VideoID),
			ThumbnailURL: entry.ThumbnailURL,
			PublishedAt:  entry.PublishedAt,
		})
	}

	record.Count = len(filtered)
	return filtered
}

func titleMatchesKeywords(title string) bool {
	lower := strings.ToLower(strings.TrimSpace(title))
	for _, keyword := range channelUploadKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}
