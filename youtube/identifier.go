package youtube

import (
	"net/url"
	"regexp"
	"strings"
)

// channelIDPattern matches canonical YouTube channel IDs: "UC" followed
// by 22 base62-like characters.
var channelIDPattern = regexp.MustCompile(`^UC[0-9A-Za-z_-]{22}$`)

var youtubeHostSuffixes = []string{"youtube.com", "youtu.be"}

// ChannelIdentifier is the structured form of a raw channel reference.
// At most one field is set; an empty string means unknown. A canonical
// channel ID, when present, takes precedence over handle and username.
type ChannelIdentifier struct {
	ChannelID string `json:"channelId"`
	Username  string `json:"username"`
	Handle    string `json:"handle"`
}

// IsZero reports whether no field of the identifier is set.
func (ci ChannelIdentifier) IsZero() bool {
	return ci.ChannelID == "" && ci.Username == "" && ci.Handle == ""
}

// ParseChannelIdentifier normalizes a raw channel reference (canonical
// ID, @handle, legacy username, or URL) into a ChannelIdentifier. It
// performs no network I/O and never fails; unrecognized input yields
// the zero identifier.
func ParseChannelIdentifier(raw string) ChannelIdentifier {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ChannelIdentifier{}
	}

	if channelIDPattern.MatchString(trimmed) {
		return ChannelIdentifier{ChannelID: trimmed}
	}

	if strings.HasPrefix(trimmed, "@") {
		return ChannelIdentifier{Handle: trimmed[1:]}
	}

	parsed := tryParseYouTubeURL(trimmed)
	if parsed == nil || !isYouTubeHost(parsed.Hostname()) {
		return ChannelIdentifier{}
	}

	var segments []string
	for _, segment := range strings.Split(parsed.Path, "/") {
		if s := strings.TrimSpace(segment); s != "" {
			segments = append(segments, s)
		}
	}
	if len(segments) == 0 {
		return ChannelIdentifier{}
	}

	first := segments[0]
	if strings.HasPrefix(first, "@") {
		return ChannelIdentifier{Handle: first[1:]}
	}

	if first == "channel" && len(segments) > 1 {
		candidate := segments[1]
		if channelIDPattern.MatchString(candidate) {
			return ChannelIdentifier{ChannelID: candidate}
		}
		return ChannelIdentifier{}
	}

	if (first == "user" || first == "c") && len(segments) > 1 {
		return ChannelIdentifier{Username: segments[1]}
	}

	if len(segments) == 1 {
		return ChannelIdentifier{Username: first}
	}

	return ChannelIdentifier{}
}

// tryParseYouTubeURL parses a URL, retrying bare host strings with an
// assumed https scheme.
func tryParseYouTubeURL(raw string) *url.URL {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	if parsed, err := url.Parse(trimmed); err == nil && parsed.Host != "" {
		return parsed
	}
	if parsed, err := url.Parse("https://" + trimmed); err == nil && parsed.Host != "" {
		return parsed
	}
	return nil
}

func isYouTubeHost(host string) bool {
	lower := strings.ToLower(host)
	for _, suffix := range youtubeHostSuffixes {
		if lower == suffix || strings.HasSuffix(lower, "."+suffix) {
			return true
		}
	}
	return false
}

// videoIDPattern matches the v= query parameter of a watch URL.
var videoIDPattern = regexp.MustCompile(`[?&]v=([a-zA-Z0-9_-]{11})`)

// ExtractVideoID pulls an 11-character video ID out of a watch URL, a
// short URL, or any URL whose final path segment is a video ID. It
// returns "" when no ID can be found.
func ExtractVideoID(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	if match := videoIDPattern.FindStringSubmatch(rawURL); match != nil {
		return match[1]
	}
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	segments := strings.Split(parsed.Path, "/")
	for i := len(segments) - 1; i >= 0; i-- {
		if segments[i] == "" {
			continue
		}
		if len(segments[i]) == 11 {
			return segments[i]
		}
		break
	}
	return ""
}
