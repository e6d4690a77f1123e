package rooftop

import "math"

// Score returns the candidate's own confidence when it converts to a float in
// [0, 1], and FallbackConfidence otherwise. It never trusts the raw value
// blindly and never panics.
func Score(candidate any) float64 {
	if isEmpty(candidate) {
		return FallbackConfidence
	}
	fields, ok := asFields(candidate)
	if !ok {
		return FallbackConfidence
	}
	raw, ok := fields[KeyConfidence]
	if !ok {
		return FallbackConfidence
	}
	conf, err := coerceFloat(raw)
	if err != nil || math.IsNaN(conf) || conf < 0 || conf > 1 {
		return FallbackConfidence
	}
	return conf
}

// Assess runs Validate and Score together. The confidence of an invalid
// result is zero.
func Assess(candidate any) (ValidationOutcome, float64) {
	outcome := Check(candidate)
	if !outcome.IsValid {
		return outcome, 0
	}
	return outcome, Score(candidate)
}
