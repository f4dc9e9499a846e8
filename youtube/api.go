package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	clipscouthttp "clipscout/http"
	"clipscout/internal/retry"
)

// APIClient implements DataAPI using YouTube Data API v3.
//
// The chapters part is not exposed by the typed client, so GetChapters
// issues a raw videos-endpoint call through the project HTTP client.
type APIClient struct {
	service     *youtube.Service
	apiKey      string
	httpClient  *clipscouthttp.Client
	retryConfig retry.Config
	log         zerolog.Logger
}

const videosEndpoint = "https://www.googleapis.com/youtube/v3/videos"

// NewAPIClient creates a Data API client. The HTTP client is used only
// for the raw chapters call.
func NewAPIClient(ctx context.Context, apiKey string, httpClient *clipscouthttp.Client, log zerolog.Logger) (*APIClient, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}

	service, err := youtube.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}

	if httpClient == nil {
		httpClient = clipscouthttp.New(nil)
	}

	return &APIClient{
		service:     service,
		apiKey:      apiKey,
		httpClient:  httpClient,
		retryConfig: retry.DefaultConfig(),
		log:         log.With().Str("component", "youtube_api").Logger(),
	}, nil
}

// LookupChannel queries the channels endpoint by ID or legacy username.
func (a *APIClient) LookupChannel(ctx context.Context, lookup ChannelLookup) (*ChannelResult, error) {
	var result *ChannelResult

	err := retry.Do(ctx, a.retryConfig, apiErrorClassifier, func(ctx context.Context) error {
		call := a.service.Channels.List([]string{"snippet"}).Context(ctx)
		switch {
		case lookup.ID != "":
			call = call.Id(lookup.ID)
		case lookup.Username != "":
			call = call.ForUsername(lookup.Username)
		default:
			return fmt.Errorf("%w: empty channel lookup", ErrChannelNotFound)
		}

		resp, err := call.Do()
		if err != nil {
			return err
		}
		if len(resp.Items) == 0 {
			result = nil
			return nil
		}

		item := resp.Items[0]
		result = &ChannelResult{ID: item.Id}
		if item.Snippet != nil {
			result.Title = strings.TrimSpace(item.Snippet.Title)
			result.ThumbnailURL = selectThumbnailURL(item.Snippet.Thumbnails)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SearchChannel queries channel search and returns the first hit.
func (a *APIClient) SearchChannel(ctx context.Context, query string) (*ChannelResult, error) {
	var result *ChannelResult

	err := retry.Do(ctx, a.retryConfig, apiErrorClassifier, func(ctx context.Context) error {
		resp, err := a.service.Search.List([]string{"snippet"}).
			Q(query).
			Type("channel").
			MaxResults(1).
			Context(ctx).
			Do()
		if err != nil {
			return err
		}
		if len(resp.Items) == 0 {
			result = nil
			return nil
		}

		item := resp.Items[0]
		result = &ChannelResult{}
		if item.Id != nil {
			result.ID = strings.TrimSpace(item.Id.ChannelId)
		}
		if item.Snippet != nil {
			result.Title = strings.TrimSpace(item.Snippet.Title)
			result.ThumbnailURL = selectThumbnailURL(item.Snippet.Thumbnails)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SearchVideos lists a channel's videos via the search endpoint.
func (a *APIClient) SearchVideos(ctx context.Context, search VideoSearch) ([]SearchItem, error) {
	var items []SearchItem

	err := retry.Do(ctx, a.retryConfig, apiErrorClassifier, func(ctx context.Context) error {
		call := a.service.Search.List([]string{"snippet"}).
			ChannelId(search.ChannelID).
			Type("video").
			Context(ctx)
		if search.EventType != "" {
			call = call.EventType(search.EventType)
		}
		if search.Order != "" {
			call = call.Order(search.Order)
		}
		if search.MaxResults > 0 {
			call = call.MaxResults(search.MaxResults)
		}

		resp, err := call.Do()
		if err != nil {
			return err
		}

		items = items[:0]
		for _, item := range resp.Items {
			if item.Id == nil || strings.TrimSpace(item.Id.VideoId) == "" {
				continue
			}
			converted := SearchItem{VideoID: strings.TrimSpace(item.Id.VideoId)}
			if item.Snippet != nil {
				converted.Title = strings.TrimSpace(item.Snippet.Title)
				converted.ThumbnailURL = selectThumbnailURL(item.Snippet.Thumbnails)
				converted.PublishedAt = item.Snippet.PublishedAt
			}
			items = append(items, converted)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// GetVideos batch-fetches videos with the given parts.
func (a *APIClient) GetVideos(ctx context.Context, ids []string, parts []string) ([]VideoItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var items []VideoItem

	err := retry.Do(ctx, a.retryConfig, apiErrorClassifier, func(ctx context.Context) error {
		resp, err := a.service.Videos.List(parts).
			Id(ids...).
			Context(ctx).
			Do()
		if err != nil {
			return err
		}

		items = items[:0]
		for _, item := range resp.Items {
			converted := VideoItem{ID: strings.TrimSpace(item.Id)}
			if converted.ID == "" {
				continue
			}
			if item.Snippet != nil {
				converted.Title = strings.TrimSpace(item.Snippet.Title)
				converted.Description = item.Snippet.Description
				converted.ChannelID = strings.TrimSpace(item.Snippet.ChannelId)
				converted.ThumbnailURL = selectThumbnailURL(item.Snippet.Thumbnails)
				converted.PublishedAt = item.Snippet.PublishedAt
			}
			if item.ContentDetails != nil {
				if sec, ok := ParseISODuration(item.ContentDetails.Duration); ok {
					converted.DurationSec = sec
				}
			}
			if item.LiveStreamingDetails != nil {
				converted.ActualStartTime = item.LiveStreamingDetails.ActualStartTime
				converted.ScheduledStartTime = item.LiveStreamingDetails.ScheduledStartTime
			}
			items = append(items, converted)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// chaptersResponse is the partial shape of the raw chapters payload.
type chaptersResponse struct {
	Items []struct {
		Chapters *struct {
			Chapters []Chapter `json:"chapters"`
		} `json:"chapters"`
	} `json:"items"`
}

// GetChapters fetches a video's official chapter list.
func (a *APIClient) GetChapters(ctx context.Context, videoID string) ([]Chapter, error) {
	params := url.Values{}
	params.Set("part", "chapters")
	params.Set("id", videoID)
	params.Set("key", a.apiKey)

	var payload chaptersResponse
	if err := a.httpClient.GetJSON(ctx, videosEndpoint+"?"+params.Encode(), &payload); err != nil {
		return nil, fmt.Errorf("fetch chapters for %s: %w", videoID, err)
	}

	if len(payload.Items) == 0 || payload.Items[0].Chapters == nil {
		return nil, nil
	}
	return payload.Items[0].Chapters.Chapters, nil
}

// ListCommentThreads fetches one page of top-level comment bodies
// ordered by relevance.
func (a *APIClient) ListCommentThreads(ctx context.Context, videoID, pageToken string, maxResults int64) (*CommentPage, error) {
	var page *CommentPage

	err := retry.Do(ctx, a.retryConfig, apiErrorClassifier, func(ctx context.Context) error {
		call := a.service.CommentThreads.List([]string{"snippet"}).
			VideoId(videoID).
			Order("relevance").
			TextFormat("plainText").
			MaxResults(maxResults).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return err
		}

		page = &CommentPage{NextPageToken: strings.TrimSpace(resp.NextPageToken)}
		for _, item := range resp.Items {
			text := topLevelCommentText(item)
			if text != "" {
				page.Comments = append(page.Comments, text)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}

// topLevelCommentText prefers the original text over the display text.
func topLevelCommentText(thread *youtube.CommentThread) string {
	if thread == nil || thread.Snippet == nil || thread.Snippet.TopLevelComment == nil {
		return ""
	}
	snippet := thread.Snippet.TopLevelComment.Snippet
	if snippet == nil {
		return ""
	}
	if text := strings.TrimSpace(snippet.TextOriginal); text != "" {
		return text
	}
	return strings.TrimSpace(snippet.TextDisplay)
}

// selectThumbnailURL picks the best available thumbnail variant.
func selectThumbnailURL(thumbnails *youtube.ThumbnailDetails) string {
	if thumbnails == nil {
		return ""
	}
	for _, thumb := range []*youtube.Thumbnail{
		thumbnails.Maxres,
		thumbnails.Standard,
		thumbnails.High,
		thumbnails.Medium,
		thumbnails.Default,
	} {
		if thumb != nil && strings.TrimSpace(thumb.Url) != "" {
			return strings.TrimSpace(thumb.Url)
		}
	}
	return ""
}

// apiErrorClassifier determines if a Data API error is retryable.
func apiErrorClassifier(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == 429 || apiErr.Code >= 500 {
			return true
		}
		if apiErr.Code == 403 {
			message := apiErr.Error()
			return strings.Contains(message, "quotaExceeded") || strings.Contains(message, "rateLimitExceeded")
		}
		return false
	}

	return true
}

// HTTPStatusFromError extracts the HTTP status carried by a Data API or
// scrape error, or 0 when none is recorded. Resolution traces use this
// for observability only.
func HTTPStatusFromError(err error) int {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	var httpErr *clipscouthttp.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	var rateErr *clipscouthttp.RateLimitError
	if errors.As(err, &rateErr) {
		return rateErr.StatusCode
	}
	return 0
}
