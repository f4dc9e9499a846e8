package youtube

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
)

// ClipCandidate is a scored suggestion for a clip within a video.
// Score is in [0,1]; higher means a more reliable boundary source.
type ClipCandidate struct {
	StartSec int     `json:"startSec"`
	EndSec   int     `json:"endSec"`
	Score    float64 `json:"score"`
	Label    string  `json:"label"`
}

const (
	defaultClipLength = 30

	scoreChapter     = 0.95
	scoreComment     = 0.85
	scoreDescription = 0.6
	scoreUnknown     = 0.5

	scoreCaptionKeyword  = 0.8
	scoreCaptionFallback = 0.4

	descriptionKeywordBonus = 0.3

	maxFallbackCandidates = 5
	fallbackLabelLen      = 40
)

// clipKeywords mark caption or section text that usually points at the
// musically interesting part of a performance.
var clipKeywords = []string{"chorus", "hook", "verse", "intro", "outro"}

func scoreForSource(source SectionSource) float64 {
	switch source {
	case SourceChapter:
		return scoreChapter
	case SourceComment:
		return scoreComment
	case SourceDescription:
		return scoreDescription
	default:
		return scoreUnknown
	}
}

// CandidateFromSection converts a section into a candidate scored by
// the reliability of the section's source.
func CandidateFromSection(section VideoSection) ClipCandidate {
	return ClipCandidate{
		StartSec: section.StartSec,
		EndSec:   section.EndSec,
		Score:    scoreForSource(section.Source),
		Label:    section.Title,
	}
}

// MergeCandidates combines candidate lists, collapsing entries that
// share a start and end into one carrying the highest score. The
// result is ordered by ascending start time.
func MergeCandidates(lists ...[]ClipCandidate) []ClipCandidate {
	type span struct{ start, end int }
	best := make(map[span]ClipCandidate)
	for _, list := range lists {
		for _, candidate := range list {
			key := span{candidate.StartSec, candidate.EndSec}
			existing, ok := best[key]
			if !ok || candidate.Score > existing.Score {
				best[key] = candidate
			}
		}
	}

	merged := make([]ClipCandidate, 0, len(best))
	for _, candidate := range best {
		merged = append(merged, candidate)
	}
	sort.Slice(merged, func(i, j int) bool {
		if merged[i].StartSec != merged[j].StartSec {
			return merged[i].StartSec < merged[j].StartSec
		}
		return merged[i].EndSec < merged[j].EndSec
	})
	return merged
}

// DetectFromDescription scans a video description for a timestamped
// tracklist. Unlike comment mining a single timestamp is enough, and
// lines mentioning a clip keyword get a score bonus.
func DetectFromDescription(description string, durationSec int) []ClipCandidate {
	description = strings.ReplaceAll(description, "\r\n", "\n")

	var sections []VideoSection
	for _, line := range strings.Split(description, "\n") {
		match := timestampPattern.FindStringSubmatch(strings.TrimSpace(line))
		if match == nil {
			continue
		}
		start := timestampSeconds(match)
		sections = append(sections, VideoSection{
			Title:    normalizeDescriptionLabel(match[4]),
			StartSec: start,
			Source:   SourceDescription,
		})
	}
	if len(sections) == 0 {
		return nil
	}

	sort.SliceStable(sections, func(i, j int) bool {
		return sections[i].StartSec < sections[j].StartSec
	})

	candidates := make([]ClipCandidate, 0, len(sections))
	for i, section := range sections {
		end := section.StartSec + defaultClipLength
		if i+1 < len(sections) {
			end = sections[i+1].StartSec
		}
		end = clampSectionEnd(section.StartSec, end, durationSec)

		score := scoreDescription
		if containsKeyword(section.Title) {
			score += descriptionKeywordBonus
		}
		candidates = append(candidates, ClipCandidate{
			StartSec: section.StartSec,
			EndSec:   end,
			Score:    score,
			Label:    section.Title,
		})
	}
	return candidates
}

func normalizeDescriptionLabel(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return "Chapter"
	}
	runes := []rune(label)
	if len(runes) > maxSectionLabelLen {
		label = string(runes[:maxSectionLabelLen])
	}
	return label
}

type captionCue struct {
	StartSec int
	Text     string
}

// clampToDuration bounds a candidate end to the video duration when the
// duration is known. Caption cues keep whatever length remains, even a
// sliver near the end of the video.
func clampToDuration(end, durationSec int) int {
	if durationSec > 0 && end > durationSec {
		return durationSec
	}
	return end
}

func sortCues(cues []captionCue) []captionCue {
	sort.SliceStable(cues, func(i, j int) bool {
		return cues[i].StartSec < cues[j].StartSec
	})
	return cues
}

// DetectFromCaptions looks for clip keywords inside caption cues. When
// no cue mentions a keyword, the earliest cues become low-confidence
// fallback candidates so a downstream consumer always has something to
// offer.
func DetectFromCaptions(captionsRaw string, durationSec int) []ClipCandidate {
	cues := parseCaptions(captionsRaw)
	if len(cues) == 0 {
		return nil
	}

	var candidates []ClipCandidate
	for _, cue := range cues {
		if !containsKeyword(cue.Text) {
			continue
		}
		end := clampToDuration(cue.StartSec+defaultClipLength, durationSec)
		candidates = append(candidates, ClipCandidate{
			StartSec: cue.StartSec,
			EndSec:   end,
			Score:    scoreCaptionKeyword,
			Label:    cue.Text,
		})
	}
	if len(candidates) > 0 {
		return candidates
	}

	for _, cue := range cues {
		if len(candidates) == maxFallbackCandidates {
			break
		}
		end := clampToDuration(cue.StartSec+defaultSectionLength, durationSec)
		candidates = append(candidates, ClipCandidate{
			StartSec: cue.StartSec,
			EndSec:   end,
			Score:    scoreCaptionFallback,
			Label:    truncateLabel(cue.Text, fallbackLabelLen),
		})
	}
	return candidates
}

// parseCaptions accepts either a JSON cue array or a plain "start|text"
// line format. Cue objects may use start/offset and text/content keys.
// Cues come back sorted by start time.
func parseCaptions(raw string) []captionCue {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	if strings.HasPrefix(raw, "[") {
		var entries []map[string]any
		if err := json.Unmarshal([]byte(raw), &entries); err == nil {
			var cues []captionCue
			for _, entry := range entries {
				value, ok := entry["start"]
				if !ok {
					value, ok = entry["offset"]
				}
				if !ok {
					continue
				}
				start := parseSecondsValue(value)
				if start < 0 {
					continue
				}
				text, _ := entry["text"].(string)
				if text == "" {
					text, _ = entry["content"].(string)
				}
				text = strings.TrimSpace(text)
				if text == "" {
					continue
				}
				cues = append(cues, captionCue{StartSec: start, Text: text})
			}
			return sortCues(cues)
		}
	}

	var cues []captionCue
	for _, line := range strings.Split(raw, "\n") {
		start, text, found := strings.Cut(strings.TrimSpace(line), "|")
		if !found {
			continue
		}
		startSec := parseSecondsValue(strings.TrimSpace(start))
		text = strings.TrimSpace(text)
		if startSec < 0 || text == "" {
			continue
		}
		cues = append(cues, captionCue{StartSec: startSec, Text: text})
	}
	return sortCues(cues)
}

func containsKeyword(text string) bool {
	lowered := strings.ToLower(text)
	for _, keyword := range clipKeywords {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}

func truncateLabel(label string, limit int) string {
	label = strings.TrimSpace(label)
	runes := []rune(label)
	if len(runes) <= limit {
		return label
	}
	return string(runes[:limit]) + "..."
}

// DetectionMode selects which sources feed clip detection for a video.
type DetectionMode string

const (
	ModeChapters DetectionMode = "chapters"
	ModeCaptions DetectionMode = "captions"
	ModeCombined DetectionMode = "combined"
)

// NormalizeDetectionMode maps free-form input to a mode, defaulting to
// chapter detection.
func NormalizeDetectionMode(raw string) DetectionMode {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(ModeCaptions):
		return ModeCaptions
	case string(ModeCombined):
		return ModeCombined
	default:
		return ModeChapters
	}
}

// DetectionInput carries everything detection needs about one video.
type DetectionInput struct {
	VideoID     string
	Description string
	CaptionsRaw string
	DurationSec int
}

// DetectForVideo runs detection in the given mode and returns the
// merged, ascending candidate list. In caption modes a missing track
// is fetched from the timedtext endpoint when a caption client exists.
func (d *Detector) DetectForVideo(ctx context.Context, input DetectionInput, mode DetectionMode) []ClipCandidate {
	switch mode {
	case ModeCaptions:
		return MergeCandidates(DetectFromCaptions(d.captionTrack(ctx, input), input.DurationSec))
	case ModeCombined:
		return MergeCandidates(
			DetectFromDescription(input.Description, input.DurationSec),
			DetectFromCaptions(d.captionTrack(ctx, input), input.DurationSec),
		)
	default:
		return MergeCandidates(
			d.DetectFromChapterSources(ctx, input.VideoID, input.DurationSec),
			DetectFromDescription(input.Description, input.DurationSec),
		)
	}
}

func (d *Detector) captionTrack(ctx context.Context, input DetectionInput) string {
	if strings.TrimSpace(input.CaptionsRaw) != "" || d.captions == nil {
		return input.CaptionsRaw
	}
	track, err := d.captions.FetchTrack(ctx, input.VideoID, "")
	if err != nil {
		d.log.Warn().Str("video_id", input.VideoID).Err(err).Msg("caption track fetch failed")
		return ""
	}
	return track
}
