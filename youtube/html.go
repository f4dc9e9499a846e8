package youtube

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	clipscouthttp "clipscout/http"
)

// HTMLChannelMetadata is the partial channel metadata a channel page
// yields. Empty fields were not found.
type HTMLChannelMetadata struct {
	Title        string
	ThumbnailURL string
	ChannelID    string
}

// IsEmpty reports whether the scrape found nothing at all.
func (m HTMLChannelMetadata) IsEmpty() bool {
	return m.Title == "" && m.ThumbnailURL == "" && m.ChannelID == ""
}

var (
	browseIDLiteral  = regexp.MustCompile(`"browseId":"(UC[0-9A-Za-z_-]{22})"`)
	channelIDLiteral = regexp.MustCompile(`"channelId":"(UC[0-9A-Za-z_-]{22})"`)
	avatarURLLiteral = regexp.MustCompile(`"avatar":\{[^}]*"url":"([^"]+)"`)
	httpSchemePrefix = regexp.MustCompile(`(?i)^https?:`)
)

// HTMLScraper resolves channel metadata by fetching channel pages and
// mining the markup. It is the lowest-priority resolution stage.
type HTMLScraper struct {
	fetcher PageFetcher
	log     zerolog.Logger
}

// NewHTMLScraper creates a scraper over the given page fetcher.
func NewHTMLScraper(fetcher PageFetcher, log zerolog.Logger) *HTMLScraper {
	return &HTMLScraper{
		fetcher: fetcher,
		log:     log.With().Str("component", "html_scraper").Logger(),
	}
}

// FetchChannelMetadata tries each candidate URL in order and returns
// the first page that is fetchable and yields at least one field, or
// nil when every candidate fails.
func (s *HTMLScraper) FetchChannelMetadata(ctx context.Context, urls []string) *HTMLChannelMetadata {
	for _, pageURL := range urls {
		page, err := s.fetcher.FetchHTML(ctx, pageURL)
		if err != nil {
			s.log.Warn().Str("url", pageURL).Err(err).Msg("channel page fetch failed")
			continue
		}

		metadata := HTMLChannelMetadata{
			ChannelID:    extractChannelIDFromHTML(page),
			ThumbnailURL: extractThumbnailFromHTML(page),
			Title:        extractTitleFromHTML(page),
		}
		if !metadata.IsEmpty() {
			return &metadata
		}
	}
	return nil
}

// BuildChannelURLCandidates derives the channel page URLs worth
// scraping from the identifier and the original input, in priority
// order, without duplicates.
func BuildChannelURLCandidates(identifier ChannelIdentifier, originalInput string) []string {
	var candidates []string
	seen := make(map[string]bool)
	add := func(candidate string) {
		if candidate != "" && !seen[candidate] {
			seen[candidate] = true
			candidates = append(candidates, candidate)
		}
	}

	trimmed := strings.TrimSpace(originalInput)
	if parsed := tryParseYouTubeURL(trimmed); parsed != nil && isYouTubeHost(parsed.Hostname()) {
		normalizedPath := strings.TrimRight(parsed.Path, "/")
		add(parsed.Scheme + "://" + parsed.Host + normalizedPath)
	} else if trimmed != "" {
		add("https://www.youtube.com/" + strings.TrimLeft(trimmed, "/"))
	}

	if identifier.Handle != "" {
		add("https://www.youtube.com/@" + identifier.Handle)
	}
	if identifier.ChannelID != "" {
		add("https://www.youtube.com/channel/" + identifier.ChannelID)
	}
	if identifier.Username != "" {
		add("https://www.youtube.com/user/" + identifier.Username)
		add("https://www.youtube.com/c/" + identifier.Username)
	}

	return candidates
}

// extractChannelIDFromHTML finds an embedded canonical channel ID.
func extractChannelIDFromHTML(page string) string {
	if match := browseIDLiteral.FindStringSubmatch(page); match != nil {
		return match[1]
	}
	if match := channelIDLiteral.FindStringSubmatch(page); match != nil {
		return match[1]
	}
	return ""
}

// extractTitleFromHTML prefers the og:title meta tag over the document
// title.
func extractTitleFromHTML(page string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return ""
	}
	if content, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok {
		if title := strings.TrimSpace(content); title != "" {
			return title
		}
	}
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	return ""
}

// extractThumbnailFromHTML prefers the embedded avatar literal over the
// og:image meta tag.
func extractThumbnailFromHTML(page string) string {
	if match := avatarURLLiteral.FindStringSubmatch(page); match != nil {
		if sanitized := sanitizeThumbnailURL(match[1]); sanitized != "" {
			return sanitized
		}
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return ""
	}
	if content, ok := doc.Find(`meta[property="og:image"]`).Attr("content"); ok {
		return sanitizeThumbnailURL(content)
	}
	return ""
}

// sanitizeThumbnailURL decodes JS-string escapes and HTML entities and
// upgrades protocol-relative URLs to https.
func sanitizeThumbnailURL(raw string) string {
	replacer := strings.NewReplacer(
		`\u0026`, "&",
		`\u003d`, "=",
		`\u003D`, "=",
		`\u002f`, "/",
		`\u002F`, "/",
		`\/`, "/",
	)
	unescaped := strings.TrimSpace(html.UnescapeString(replacer.Replace(raw)))
	if unescaped == "" {
		return ""
	}
	if strings.HasPrefix(unescaped, "//") {
		return "https:" + unescaped
	}
	if !httpSchemePrefix.MatchString(unescaped) {
		return ""
	}
	return unescaped
}

// httpPageFetcher implements PageFetcher over the project HTTP client.
type httpPageFetcher struct {
	client *clipscouthttp.Client
}

// NewPageFetcher wraps the HTTP client as a PageFetcher.
func NewPageFetcher(client *clipscouthttp.Client) PageFetcher {
	return &httpPageFetcher{client: client}
}

func (f *httpPageFetcher) FetchHTML(ctx context.Context, url string) (string, error) {
	resp, err := f.client.Get(ctx, url)
	if err != nil {
		return "", fmt.Errorf("fetch page: %w", err)
	}
	return string(resp.Body), nil
}
