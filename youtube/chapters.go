package youtube

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
)

const (
	maxCommentPages    = 5
	commentsPerPage    = 100
	minCommentSections = 2
)

// Detector obtains a video's semantic sections and converts them into
// scored clip candidates. The chapter-source cascade tries official
// chapters first and only mines comments when no chapter exists.
type Detector struct {
	api      DataAPI // nil when no API key is configured
	captions *CaptionClient
	warn     *WarnState
	log      zerolog.Logger
}

// NewDetector creates a detector. api may be nil, in which case every
// API-backed source yields no sections. captions may be nil when no
// caption track source is available.
func NewDetector(api DataAPI, captions *CaptionClient, warn *WarnState, log zerolog.Logger) *Detector {
	if warn == nil {
		warn = NewWarnState()
	}
	return &Detector{
		api:      api,
		captions: captions,
		warn:     warn,
		log:      log.With().Str("component", "clip_detector").Logger(),
	}
}

// ChapterSections maps a video's official chapter list to sections.
// An absent or empty chapter list yields nil.
func (d *Detector) ChapterSections(ctx context.Context, videoID string, durationSec int) []VideoSection {
	if d.api == nil {
		d.warn.WarnMissingAPIKey(d.log)
		return nil
	}

	chapters, err := d.api.GetChapters(ctx, videoID)
	if err != nil {
		d.log.Warn().Str("video_id", videoID).Err(err).Msg("chapter fetch failed")
		return nil
	}

	var sections []VideoSection
	for _, chapter := range chapters {
		start, ok := ParseBoundary(chapter.Start)
		if !ok {
			continue
		}
		end, endOK := ParseBoundary(chapter.End)
		if !endOK || end <= start {
			end = start + defaultSectionLength
		}
		end = clampSectionEnd(start, end, durationSec)

		sections = append(sections, VideoSection{
			Title:    normalizeSectionLabel(chapter.Title),
			StartSec: start,
			EndSec:   end,
			Source:   SourceChapter,
		})
	}
	return sections
}

// CommentSections pages through a video's comment threads and returns
// the sections of the first comment that yields a reliable tracklist.
// Scanning stops at the first qualifying comment.
func (d *Detector) CommentSections(ctx context.Context, videoID string, durationSec int) []VideoSection {
	if d.api == nil {
		d.warn.WarnMissingAPIKey(d.log)
		return nil
	}

	pageToken := ""
	for page := 0; page < maxCommentPages; page++ {
		result, err := d.api.ListCommentThreads(ctx, videoID, pageToken, commentsPerPage)
		if err != nil {
			d.log.Warn().Str("video_id", videoID).Err(err).Msg("comment thread fetch failed")
			return nil
		}
		if result == nil {
			return nil
		}

		for _, comment := range result.Comments {
			sections := ExtractSections(comment, durationSec, SourceComment)
			if len(sections) >= minCommentSections {
				return sections
			}
		}

		if result.NextPageToken == "" {
			break
		}
		pageToken = result.NextPageToken
	}
	return nil
}

// DetectFromChapterSources runs the chapter-source cascade for a video:
// official chapters win outright; comment mining only runs when the
// chapter list is absent or empty.
func (d *Detector) DetectFromChapterSources(ctx context.Context, videoID string, durationSec int) []ClipCandidate {
	videoID = strings.TrimSpace(videoID)
	if videoID == "" {
		return nil
	}

	if sections := d.ChapterSections(ctx, videoID, durationSec); len(sections) > 0 {
		return candidatesFromSections(sections)
	}

	sections := d.CommentSections(ctx, videoID, durationSec)
	if len(sections) == 0 {
		return nil
	}
	return candidatesFromSections(sections)
}

func candidatesFromSections(sections []VideoSection) []ClipCandidate {
	candidates := make([]ClipCandidate, 0, len(sections))
	for _, section := range sections {
		candidates = append(candidates, CandidateFromSection(section))
	}
	return candidates
}
