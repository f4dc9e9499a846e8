package youtube

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Resolution stage names as they appear in traces.
const (
	StageOfficial = "official"
	StageSearch   = "search"
	StageHTML     = "html"
)

// StageOutcome records one resolution stage's execution for the trace.
type StageOutcome struct {
	Stage      string `json:"stage"`
	Attempted  bool   `json:"attempted"`
	HTTPStatus int    `json:"httpStatus,omitempty"`
	Error      string `json:"error,omitempty"`
}

// ResolutionTrace is a diagnostic record of which fallback stage
// supplied which field during metadata resolution. It is append-only,
// built incrementally as stages execute, and never used for control
// flow.
type ResolutionTrace struct {
	TraceID           string            `json:"traceId"`
	Input             string            `json:"input"`
	Identifier        ChannelIdentifier `json:"identifier"`
	HTMLCandidates    []string          `json:"htmlCandidates"`
	Stages            []StageOutcome    `json:"stages"`
	FieldSources      map[string]string `json:"fieldSources"`
	Warnings          []string          `json:"warnings"`
	UsedHTMLFallback  bool              `json:"usedHtmlFallback"`
	ResolvedChannelID string            `json:"resolvedChannelId"`
}

func newResolutionTrace(input string) *ResolutionTrace {
	return &ResolutionTrace{
		TraceID:      uuid.NewString(),
		Input:        input,
		FieldSources: map[string]string{},
		Warnings:     []string{},
		Stages:       []StageOutcome{},
	}
}

func (t *ResolutionTrace) recordStage(outcome StageOutcome) {
	t.Stages = append(t.Stages, outcome)
}

// warn appends a warning, deduplicated.
func (t *ResolutionTrace) warn(message string) {
	for _, existing := range t.Warnings {
		if existing == message {
			return
		}
	}
	t.Warnings = append(t.Warnings, message)
}

// markField records which stage supplied a field.
func (t *ResolutionTrace) markField(field, stage string) {
	t.FieldSources[field] = stage
	if stage == StageHTML {
		t.UsedHTMLFallback = true
	}
}

// ChannelMetadata is the resolved channel identity returned alongside
// its resolution trace.
type ChannelMetadata struct {
	Title           string           `json:"title"`
	ProfileImageURL string           `json:"profileImageUrl"`
	ChannelID       string           `json:"channelId"`
	Trace           *ResolutionTrace `json:"trace"`
}

// Resolver cascades through the official lookup API, channel search,
// and HTML-page scraping to resolve a channel's canonical ID, title,
// and thumbnail. Stages are strictly sequential: later stages only run
// when earlier ones fail to supply a field, and no failure propagates
// as an error.
type Resolver struct {
	api     DataAPI // nil when no API key is configured
	scraper *HTMLScraper
	warn    *WarnState
	log     zerolog.Logger
}

// NewResolver creates a resolver. api may be nil, in which case the
// official and search stages are skipped entirely.
func NewResolver(api DataAPI, scraper *HTMLScraper, warn *WarnState, log zerolog.Logger) *Resolver {
	if warn == nil {
		warn = NewWarnState()
	}
	return &Resolver{
		api:     api,
		scraper: scraper,
		warn:    warn,
		log:     log.With().Str("component", "channel_resolver").Logger(),
	}
}

// lazyHTML memoizes the single HTML scrape a resolution may perform,
// so multiple failure paths share one set of page fetches.
type lazyHTML struct {
	scraper    *HTMLScraper
	candidates []string
	trace      *ResolutionTrace
	loaded     bool
	result     *HTMLChannelMetadata
}

func (l *lazyHTML) load(ctx context.Context) *HTMLChannelMetadata {
	if l.loaded {
		return l.result
	}
	l.loaded = true
	if l.scraper == nil || len(l.candidates) == 0 {
		l.trace.recordStage(StageOutcome{Stage: StageHTML, Attempted: false})
		return nil
	}
	l.result = l.scraper.FetchChannelMetadata(ctx, l.candidates)
	outcome := StageOutcome{Stage: StageHTML, Attempted: true}
	if l.result == nil {
		outcome.Error = "no candidate page yielded metadata"
	}
	l.trace.recordStage(outcome)
	return l.result
}

// Resolve turns a raw channel reference into channel metadata plus a
// full resolution trace. Exhausting every fallback is not an error;
// the result simply carries empty fields.
func (r *Resolver) Resolve(ctx context.Context, rawInput string) ChannelMetadata {
	input := strings.TrimSpace(rawInput)
	trace := newResolutionTrace(input)

	if input == "" {
		return ChannelMetadata{Trace: trace}
	}

	identifier := ParseChannelIdentifier(input)
	trace.Identifier = identifier
	trace.HTMLCandidates = BuildChannelURLCandidates(identifier, input)

	html := &lazyHTML{scraper: r.scraper, candidates: trace.HTMLCandidates, trace: trace}

	effectiveID := identifier.ChannelID
	effectiveIDStage := ""

	// A handle alone cannot feed the official lookup; the channel page
	// usually embeds the canonical ID.
	if effectiveID == "" && identifier.Handle != "" {
		if m := html.load(ctx); m != nil && m.ChannelID != "" {
			effectiveID = m.ChannelID
			effectiveIDStage = StageHTML
		}
	}

	if r.api == nil {
		r.warn.WarnMissingAPIKey(r.log)
		trace.warn("youtube api key missing")
		return r.merge(ctx, trace, identifier, effectiveID, effectiveIDStage, nil, nil, html)
	}

	var search *ChannelResult
	if effectiveID == "" && identifier.Handle != "" {
		search = r.searchStage(ctx, trace, identifier.Handle)
		if search != nil && search.ID != "" {
			effectiveID = search.ID
			effectiveIDStage = StageSearch
			trace.warn("resolved channel id via search api: " + search.ID)
		}
	}

	var official *ChannelResult
	if effectiveID != "" || identifier.Username != "" {
		official = r.officialStage(ctx, trace, ChannelLookup{ID: effectiveID, Username: identifier.Username})
	}

	return r.merge(ctx, trace, identifier, effectiveID, effectiveIDStage, official, search, html)
}

// officialStage runs the canonical channels-endpoint lookup.
func (r *Resolver) officialStage(ctx context.Context, trace *ResolutionTrace, lookup ChannelLookup) *ChannelResult {
	if lookup.ID != "" {
		lookup.Username = ""
	}
	outcome := StageOutcome{Stage: StageOfficial, Attempted: true}
	result, err := r.api.LookupChannel(ctx, lookup)
	if err != nil {
		outcome.HTTPStatus = HTTPStatusFromError(err)
		outcome.Error = err.Error()
		trace.recordStage(outcome)
		r.log.Warn().Str("channel_id", lookup.ID).Str("username", lookup.Username).Err(err).
			Msg("official channel lookup failed")
		return nil
	}
	outcome.HTTPStatus = 200
	if result == nil {
		outcome.Error = "empty result set"
	}
	trace.recordStage(outcome)
	return result
}

// searchStage resolves a handle through channel search; the snippet is
// retained as a lower-priority fallback value.
func (r *Resolver) searchStage(ctx context.Context, trace *ResolutionTrace, handle string) *ChannelResult {
	query := handle
	if !strings.HasPrefix(query, "@") {
		query = "@" + query
	}
	outcome := StageOutcome{Stage: StageSearch, Attempted: true}
	result, err := r.api.SearchChannel(ctx, query)
	if err != nil {
		outcome.HTTPStatus = HTTPStatusFromError(err)
		outcome.Error = err.Error()
		trace.recordStage(outcome)
		r.log.Warn().Str("handle", handle).Err(err).Msg("channel search failed")
		return nil
	}
	outcome.HTTPStatus = 200
	if result == nil {
		outcome.Error = "empty result set"
	}
	trace.recordStage(outcome)
	return result
}

// merge folds stage results into final metadata with field priority
// official > search > HTML. A field filled by a higher-priority stage
// is never overwritten; the HTML stage is only loaded when a field is
// still missing.
func (r *Resolver) merge(ctx context.Context, trace *ResolutionTrace, identifier ChannelIdentifier, effectiveID, effectiveIDStage string, official, search *ChannelResult, html *lazyHTML) ChannelMetadata {
	metadata := ChannelMetadata{Trace: trace}

	fill := func(stage string, source *ChannelResult) {
		if source == nil {
			return
		}
		if metadata.Title == "" && source.Title != "" {
			metadata.Title = source.Title
			trace.markField("title", stage)
		}
		if metadata.ProfileImageURL == "" && source.ThumbnailURL != "" {
			metadata.ProfileImageURL = source.ThumbnailURL
			trace.markField("profileImageUrl", stage)
		}
	}

	fill(StageOfficial, official)
	fill(StageSearch, search)

	var htmlMeta *HTMLChannelMetadata
	if metadata.Title == "" || metadata.ProfileImageURL == "" || effectiveID == "" {
		htmlMeta = html.load(ctx)
	} else if html.loaded {
		htmlMeta = html.result
	}
	if htmlMeta != nil {
		fill(StageHTML, &ChannelResult{Title: htmlMeta.Title, ThumbnailURL: htmlMeta.ThumbnailURL})
	}

	switch {
	case official != nil && official.ID != "":
		metadata.ChannelID = official.ID
		trace.markField("channelId", StageOfficial)
	case effectiveID != "":
		metadata.ChannelID = effectiveID
		if effectiveIDStage != "" {
			trace.markField("channelId", effectiveIDStage)
		}
	case htmlMeta != nil && htmlMeta.ChannelID != "":
		metadata.ChannelID = htmlMeta.ChannelID
		trace.markField("channelId", StageHTML)
	case search != nil && search.ID != "":
		metadata.ChannelID = search.ID
		trace.markField("channelId", StageSearch)
	}

	trace.ResolvedChannelID = metadata.ChannelID
	return metadata
}
