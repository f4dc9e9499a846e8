package youtube

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// SectionSource identifies where a video section was mined from.
type SectionSource string

const (
	// SourceChapter marks sections from official creator-authored chapters.
	SourceChapter SectionSource = "CHAPTER"
	// SourceComment marks sections mined from viewer comments.
	SourceComment SectionSource = "COMMENT"
	// SourceDescription marks sections mined from the video description.
	SourceDescription SectionSource = "DESCRIPTION"
)

// VideoSection is a timestamped semantic section of a video.
// EndSec is always greater than StartSec.
type VideoSection struct {
	Title    string        `json:"title"`
	StartSec int           `json:"startSec"`
	EndSec   int           `json:"endSec"`
	Source   SectionSource `json:"source"`
}

const (
	// defaultSectionLength is the assumed length of a trailing section
	// with no successor.
	defaultSectionLength = 45
	// minSectionLength is the floor applied to every section.
	minSectionLength = 5
	// maxSectionLabelLen caps section labels.
	maxSectionLabelLen = 120
)

// timestampPattern matches a line-start timestamp, tolerating a leading
// list or number marker: an optional hour group, mandatory minute and
// second groups, and a trailing label.
var timestampPattern = regexp.MustCompile(`^(?:(?:\d+\s*[\.)-]\s*)|(?:\d+\s+)|(?:[-•*]\s*))?(?:(\d{1,2}):)?(\d{1,2}):(\d{2})\s*-?\s*(.*)$`)

// ExtractSections mines ordered timestamped sections out of free text.
// A text block yields no sections unless at least two timestamp lines
// are found; a lone timestamp in prose is not reliable structure.
// durationSec clamps section ends when positive; pass 0 when the total
// duration is unknown.
func ExtractSections(text string, durationSec int, source SectionSource) []VideoSection {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	normalized := strings.ReplaceAll(strings.ReplaceAll(text, "\r\n", "\n"), "\r", "\n")

	type candidate struct {
		start int
		label string
	}
	var candidates []candidate

	for _, rawLine := range strings.Split(normalized, "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" {
			continue
		}
		match := timestampPattern.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		candidates = append(candidates, candidate{start: timestampSeconds(match), label: normalizeSectionLabel(match[4])})
	}

	if len(candidates) < 2 {
		return nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].start < candidates[j].start
	})

	sections := make([]VideoSection, 0, len(candidates))
	for i, current := range candidates {
		end := current.start + defaultSectionLength
		if i+1 < len(candidates) {
			end = candidates[i+1].start
		}
		end = clampSectionEnd(current.start, end, durationSec)
		sections = append(sections, VideoSection{
			Title:    current.label,
			StartSec: current.start,
			EndSec:   end,
			Source:   source,
		})
	}

	return sections
}

// timestampSeconds converts a timestampPattern match to seconds.
func timestampSeconds(match []string) int {
	hours := 0
	if match[1] != "" {
		hours, _ = strconv.Atoi(match[1])
	}
	minutes, _ := strconv.Atoi(match[2])
	seconds, _ := strconv.Atoi(match[3])
	return hours*3600 + minutes*60 + seconds
}

// clampSectionEnd bounds a section end to the video duration (when
// known) while keeping every section at least minSectionLength long.
func clampSectionEnd(start, end, durationSec int) int {
	if durationSec > 0 && end > durationSec {
		end = durationSec
	}
	if end < start+minSectionLength {
		end = start + minSectionLength
	}
	return end
}

// normalizeSectionLabel trims and truncates a label; an empty label
// becomes "Track".
func normalizeSectionLabel(label string) string {
	trimmed := strings.TrimSpace(label)
	if trimmed == "" {
		return "Track"
	}
	runes := []rune(trimmed)
	if len(runes) > maxSectionLabelLen {
		return string(runes[:maxSectionLabelLen])
	}
	return trimmed
}
