package rooftop

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name      string
		candidate any
		want      float64
	}{
		{"value kept", with(KeyConfidence, 0.42), 0.42},
		{"lower bound", with(KeyConfidence, 0.0), 0},
		{"upper bound", with(KeyConfidence, 1), 1},
		{"numeric string", with(KeyConfidence, "0.3"), 0.3},
		{"bool true", with(KeyConfidence, true), 1},
		{"absent", validFields(), 0.95},
		{"non-numeric", with(KeyConfidence, "high"), FallbackConfidence},
		{"null", with(KeyConfidence, nil), FallbackConfidence},
		{"above range", with(KeyConfidence, 1.01), FallbackConfidence},
		{"below range", with(KeyConfidence, -0.1), FallbackConfidence},
		{"percentage", with(KeyConfidence, 92), FallbackConfidence},
		{"nan", with(KeyConfidence, math.NaN()), FallbackConfidence},
		{"inf string", with(KeyConfidence, "inf"), FallbackConfidence},
		{"overflow string", with(KeyConfidence, "1e999"), FallbackConfidence},
		{"not a mapping", "0.5", FallbackConfidence},
		{"nil", nil, FallbackConfidence},
		{"typed result", RooftopResult{Confidence: ptr(0.6)}, 0.6},
		{"typed result without confidence", RooftopResult{}, FallbackConfidence},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Score(tt.candidate))
		})
	}
}

func TestAssess(t *testing.T) {
	outcome, conf := Assess(with(KeyConfidence, 0.42))
	assert.True(t, outcome.IsValid)
	assert.Equal(t, 0.42, conf)

	outcome, conf = Assess(with(KeyUsableArea, 0))
	assert.False(t, outcome.IsValid)
	assert.Equal(t, MsgBadArea, outcome.Message)
	assert.Zero(t, conf)

	outcome, conf = Assess(nil)
	assert.Equal(t, MsgNoResult, outcome.Message)
	assert.Zero(t, conf)
}

func ptr(f float64) *float64 { return &f }
