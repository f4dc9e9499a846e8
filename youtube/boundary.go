package youtube

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	isoDurationPattern = regexp.MustCompile(`(?i)^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)
	colonTimePattern   = regexp.MustCompile(`^(?:(\d{1,2}):)?(\d{1,2}):(\d{2})$`)
	decimalPattern     = regexp.MustCompile(`^-?\d+(?:\.\d+)?$`)
)

// ParseISODuration converts an ISO-8601 duration (P…DT…H…M…S, each
// component optional) into whole seconds.
func ParseISODuration(value string) (int, bool) {
	if value == "" {
		return 0, false
	}
	match := isoDurationPattern.FindStringSubmatch(value)
	if match == nil {
		return 0, false
	}
	total := 0
	for i, unit := range []int{86400, 3600, 60, 1} {
		if match[i+1] == "" {
			continue
		}
		n, err := strconv.Atoi(match[i+1])
		if err != nil {
			return 0, false
		}
		total += n * unit
	}
	return total, true
}

// ParseBoundary converts a value of unknown shape into a non-negative
// whole second count. It accepts numbers, numeric strings, colon times
// (H:MM:SS or MM:SS), ISO-8601 durations, and objects carrying
// second-, millisecond-, or display-text fields, tried in that order.
// The second return value is false when nothing parses.
func ParseBoundary(value any) (int, bool) {
	if sec := parseSecondsValue(value); sec >= 0 {
		return sec, true
	}
	if sec := parseMillisecondsValue(value); sec >= 0 {
		return sec, true
	}

	fields, ok := value.(map[string]any)
	if !ok {
		return 0, false
	}

	for _, key := range boundarySecondKeys {
		if sec := parseSecondsValue(fields[key]); sec >= 0 {
			return sec, true
		}
	}
	for _, key := range boundaryMillisecondKeys {
		if sec := parseMillisecondsValue(fields[key]); sec >= 0 {
			return sec, true
		}
	}
	for _, key := range boundaryTextKeys {
		raw, ok := fields[key].(string)
		if !ok {
			continue
		}
		if sec, ok := ParseISODuration(strings.TrimSpace(raw)); ok && sec >= 0 {
			return sec, true
		}
	}

	return 0, false
}

var (
	boundarySecondKeys      = []string{"seconds", "sec", "value", "start", "startSeconds", "startTime"}
	boundaryMillisecondKeys = []string{"milliseconds", "ms", "startMs", "startMilliseconds"}
	boundaryTextKeys        = []string{"text", "displayText", "startTimeText"}
)

// parseSecondsValue interprets a value denominated in seconds,
// returning -1 when it cannot.
func parseSecondsValue(value any) int {
	switch v := value.(type) {
	case nil:
		return -1
	case float64:
		return floorNonNegative(v)
	case int:
		if v < 0 {
			return -1
		}
		return v
	case int64:
		if v < 0 {
			return -1
		}
		return int(v)
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return -1
		}
		if match := colonTimePattern.FindStringSubmatch(trimmed); match != nil {
			hours := 0
			if match[1] != "" {
				hours, _ = strconv.Atoi(match[1])
			}
			minutes, _ := strconv.Atoi(match[2])
			seconds, _ := strconv.Atoi(match[3])
			return hours*3600 + minutes*60 + seconds
		}
		if decimalPattern.MatchString(trimmed) {
			numeric, err := strconv.ParseFloat(trimmed, 64)
			if err != nil {
				return -1
			}
			return floorNonNegative(numeric)
		}
		if sec, ok := ParseISODuration(trimmed); ok && sec >= 0 {
			return sec
		}
		return -1
	default:
		return -1
	}
}

// parseMillisecondsValue interprets a value denominated in
// milliseconds, returning floored whole seconds or -1.
func parseMillisecondsValue(value any) int {
	switch v := value.(type) {
	case nil:
		return -1
	case float64:
		return floorNonNegative(v / 1000)
	case int:
		if v < 0 {
			return -1
		}
		return v / 1000
	case int64:
		if v < 0 {
			return -1
		}
		return int(v / 1000)
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" || !decimalPattern.MatchString(trimmed) {
			return -1
		}
		numeric, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return -1
		}
		return floorNonNegative(numeric / 1000)
	default:
		return -1
	}
}

func floorNonNegative(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return -1
	}
	return int(math.Floor(v))
}
