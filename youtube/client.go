// Package youtube implements channel identity resolution and clip
// candidate detection over YouTube data sources.
package youtube

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

// Sentinel errors for YouTube operations.
var (
	ErrChannelNotFound = errors.New("youtube: channel not found")
	ErrVideoNotFound   = errors.New("youtube: video not found")
	ErrInvalidURL      = errors.New("youtube: invalid URL")
	ErrNoAPIKey        = errors.New("youtube: api key not configured")
)

// ChannelLookup selects a channel by canonical ID or legacy username.
// Exactly one field should be set.
type ChannelLookup struct {
	ID       string
	Username string
}

// ChannelResult is a resolved channel from the channels or search
// endpoints. ThumbnailURL is already the best available variant.
type ChannelResult struct {
	ID           string
	Title        string
	ThumbnailURL string
}

// VideoSearch configures a search.list call scoped to one channel.
type VideoSearch struct {
	ChannelID  string
	EventType  string // "live" for live broadcasts, "" otherwise
	Order      string // "date" unless stated otherwise
	MaxResults int64
}

// SearchItem is one video hit from the search endpoint.
type SearchItem struct {
	VideoID      string
	Title        string
	ThumbnailURL string
	PublishedAt  string // RFC3339 or ""
}

// VideoItem is one item from the videos endpoint. DurationSec is 0
// when the duration is unknown. The live timestamps are empty unless
// liveStreamingDetails was requested and present.
type VideoItem struct {
	ID                 string
	Title              string
	Description        string
	ChannelID          string
	ThumbnailURL       string
	DurationSec        int
	PublishedAt        string
	ActualStartTime    string
	ScheduledStartTime string
}

// Chapter is one entry of a video's official chapter list. Boundary
// values keep their wire shape (number, string, or keyed object) and
// are interpreted by ParseBoundary.
type Chapter struct {
	Title string `json:"title"`
	Start any    `json:"startTime"`
	End   any    `json:"endTime"`
}

// CommentPage is one page of top-level comment bodies.
type CommentPage struct {
	Comments      []string
	NextPageToken string
}

// DataAPI is the YouTube Data API surface this package consumes.
// Every method reports transport failures, non-2xx statuses, and
// malformed payloads as errors; empty results are not errors.
type DataAPI interface {
	// LookupChannel queries the channels endpoint by ID or username.
	// It returns nil when the result set is empty.
	LookupChannel(ctx context.Context, lookup ChannelLookup) (*ChannelResult, error)

	// SearchChannel queries channel search with a free-text query and
	// returns the first result, or nil when there is none.
	SearchChannel(ctx context.Context, query string) (*ChannelResult, error)

	// SearchVideos lists a channel's videos via the search endpoint.
	SearchVideos(ctx context.Context, search VideoSearch) ([]SearchItem, error)

	// GetVideos batch-fetches videos with the given parts.
	GetVideos(ctx context.Context, ids []string, parts []string) ([]VideoItem, error)

	// GetChapters fetches the official chapter list for a video. An
	// absent or empty chapter list yields a nil slice, not an error.
	GetChapters(ctx context.Context, videoID string) ([]Chapter, error)

	// ListCommentThreads pages through top-level comments ordered by
	// relevance.
	ListCommentThreads(ctx context.Context, videoID, pageToken string, maxResults int64) (*CommentPage, error)
}

// PageFetcher fetches raw HTML pages for the scrape fallback. Any
// non-2xx status or network failure is an error; callers treat every
// error as "page absent".
type PageFetcher interface {
	FetchHTML(ctx context.Context, url string) (string, error)
}

// WarnState holds process-wide "warned once" flags. It exists purely
// to suppress repeated log noise and has no effect on resolution
// outcomes. Construct a fresh one (or call Reset) for test isolation.
type WarnState struct {
	mu               sync.Mutex
	warnedMissingKey bool
}

// NewWarnState returns warn-once state at its baseline.
func NewWarnState() *WarnState {
	return &WarnState{}
}

// WarnMissingAPIKey logs the missing-API-key warning the first time it
// is called for this state's lifetime.
func (w *WarnState) WarnMissingAPIKey(log zerolog.Logger) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.warnedMissingKey {
		return
	}
	w.warnedMissingKey = true
	log.Warn().Msg("youtube api key not configured, falling back to html scraping")
}

// Reset restores the baseline state.
func (w *WarnState) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.warnedMissingKey = false
}
