package youtube

import (
	"context"
	"encoding/xml"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	clipscouthttp "clipscout/http"
)

const feedURLTemplate = "https://www.youtube.com/feeds/videos.xml?channel_id=%s"

// FeedClient reads a channel's public Atom feed. The feed carries only
// the 15 most recent uploads and no duration or live state, so it is a
// degraded source for when the Data API is unavailable.
type FeedClient struct {
	httpClient *clipscouthttp.Client
	baseURL    string
	log        zerolog.Logger
}

// NewFeedClient creates a feed client over the project HTTP client.
func NewFeedClient(client *clipscouthttp.Client, log zerolog.Logger) *FeedClient {
	return &FeedClient{
		httpClient: client,
		baseURL:    feedURLTemplate,
		log:        log.With().Str("component", "feed_client").Logger(),
	}
}

// FeedEntry is one upload taken from a channel's Atom feed.
type FeedEntry struct {
	VideoID      string
	Title        string
	ThumbnailURL string
	PublishedAt  string
}

// RecentUploads returns the channel's recent uploads, newest first as
// the feed orders them.
func (f *FeedClient) RecentUploads(ctx context.Context, channelID string) ([]FeedEntry, error) {
	if !channelIDPattern.MatchString(channelID) {
		return nil, fmt.Errorf("%w: feed lookup needs a channel id", ErrInvalidURL)
	}

	response, err := f.httpClient.Get(ctx, fmt.Sprintf(f.baseURL, channelID))
	if err != nil {
		return nil, fmt.Errorf("fetch channel feed: %w", err)
	}

	var feed atomFeed
	if err := xml.Unmarshal(response.Body, &feed); err != nil {
		return nil, fmt.Errorf("parse channel feed: %w", err)
	}

	entries := make([]FeedEntry, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		if entry.VideoID == "" {
			continue
		}
		published := ""
		if !entry.Published.IsZero() {
			published = entry.Published.UTC().Format(time.RFC3339)
		}
		entries = append(entries, FeedEntry{
			VideoID:      entry.VideoID,
			Title:        entry.Title,
			ThumbnailURL: entry.Thumbnail.URL,
			PublishedAt:  published,
		})
	}
	return entries, nil
}

// atomFeed is the subset of YouTube's Atom feed schema this client
// reads.
type atomFeed struct {
	XMLName xml.Name    `xml:"feed"`
	Title   string      `xml:"title"`
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	VideoID   string        `xml:"http://www.youtube.com/xml/schemas/2015 videoId"`
	Title     string        `xml:"title"`
	Published time.Time     `xml:"published"`
	Thumbnail atomThumbnail `xml:"group>thumbnail"`
}

type atomThumbnail struct {
	URL string `xml:"url,attr"`
}
