package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	clipscouthttp "clipscout/http"
)

const timedtextEndpoint = "https://www.youtube.com/api/timedtext"

// CaptionClient fetches caption tracks from the public timedtext
// endpoint and converts them to the cue form detection consumes.
type CaptionClient struct {
	httpClient *clipscouthttp.Client
	baseURL    string
	log        zerolog.Logger
}

// NewCaptionClient creates a caption client over the project HTTP client.
func NewCaptionClient(client *clipscouthttp.Client, log zerolog.Logger) *CaptionClient {
	return &CaptionClient{
		httpClient: client,
		baseURL:    timedtextEndpoint,
		log:        log.With().Str("component", "caption_client").Logger(),
	}
}

// timedtextResponse is the JSON3 payload of the timedtext endpoint.
type timedtextResponse struct {
	Events []timedtextEvent `json:"events"`
}

type timedtextEvent struct {
	StartMs int64              `json:"tStartMs"`
	Segs    []timedtextSegment `json:"segs,omitempty"`
}

type timedtextSegment struct {
	UTF8 string `json:"utf8"`
}

// FetchTrack fetches a video's caption track in the given language and
// returns it as a JSON cue array. An empty string means no usable
// track.
func (c *CaptionClient) FetchTrack(ctx context.Context, videoID, lang string) (string, error) {
	if videoID == "" {
		return "", fmt.Errorf("video id is required")
	}
	if lang == "" {
		lang = "en"
	}

	params := url.Values{}
	params.Set("v", videoID)
	params.Set("lang", lang)
	params.Set("fmt", "json3")

	var payload timedtextResponse
	if err := c.httpClient.GetJSON(ctx, c.baseURL+"?"+params.Encode(), &payload); err != nil {
		return "", fmt.Errorf("fetch caption track: %w", err)
	}

	type cue struct {
		Start float64 `json:"start"`
		Text  string  `json:"text"`
	}
	var cues []cue
	for _, event := range payload.Events {
		if len(event.Segs) == 0 {
			continue
		}
		var text strings.Builder
		for _, seg := range event.Segs {
			text.WriteString(seg.UTF8)
		}
		trimmed := strings.TrimSpace(text.String())
		if trimmed == "" {
			continue
		}
		cues = append(cues, cue{
			Start: float64(event.StartMs) / 1000.0,
			Text:  trimmed,
		})
	}
	if len(cues) == 0 {
		return "", nil
	}

	encoded, err := json.Marshal(cues)
	if err != nil {
		return "", fmt.Errorf("encode caption cues: %w", err)
	}
	return string(encoded), nil
}
