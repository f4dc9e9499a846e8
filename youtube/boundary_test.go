package youtube

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseISODuration(t *testing.T) {
	tests := []struct {
		input string
		want  int
		ok    bool
	}{
		{"PT1H2M3S", 3723, true},
		{"PT4M13S", 253, true},
		{"PT30S", 30, true},
		{"P1D", 86400, true},
		{"P1DT1H", 90000, true},
		{"pt2m", 120, true},
		{"P", 0, true},
		{"", 0, false},
		{"1:02:03", 0, false},
		{"PT1X", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseISODuration(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseBoundaryScalars(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  int
		ok    bool
	}{
		{"float seconds", 65.9, 65, true},
		{"int seconds", 90, 90, true},
		{"zero", 0, 0, true},
		{"numeric string", "125", 125, true},
		{"colon time", "1:02:03", 3723, true},
		{"minute colon time", "4:13", 253, true},
		{"iso string", "PT2M5S", 125, true},
		{"negative", -3, 0, false},
		{"negative float", -0.5, 0, false},
		{"garbage string", "soon", 0, false},
		{"nil", nil, 0, false},
		{"bool", true, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseBoundary(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseBoundaryObjects(t *testing.T) {
	tests := []struct {
		name  string
		input map[string]any
		want  int
		ok    bool
	}{
		{"seconds key", map[string]any{"seconds": 42.0}, 42, true},
		{"startSeconds key", map[string]any{"startSeconds": "1:30"}, 90, true},
		{"milliseconds key", map[string]any{"milliseconds": 65000.0}, 65, true},
		{"startMs key", map[string]any{"startMs": 1500}, 1, true},
		{"text key iso", map[string]any{"text": "PT2M"}, 120, true},
		{"second key beats ms key", map[string]any{"sec": 10, "ms": 99000.0}, 10, true},
		{"unknown keys", map[string]any{"offsetFromEnd": 5}, 0, false},
		{"empty object", map[string]any{}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseBoundary(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
