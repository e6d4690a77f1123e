package rooftop

import (
	"encoding/json"
	"math"
)

// Keys understood by the extractor, validator and scorer.
const (
	KeyMask       = "mask"
	KeyUsableArea = "usable_area_m2"
	KeySummary    = "summary"
	KeyConfidence = "confidence"
)

// FallbackConfidence is substituted whenever no usable confidence figure exists.
const FallbackConfidence = 0.95

// MinMaskLength is the shortest mask description treated as well-formed.
const MinMaskLength = 10

// Fields is the untyped object decoded from a vision model response.
type Fields map[string]any

// RooftopResult describes a detected rooftop. It is built from Fields only
// after validation and is treated as a value afterwards.
type RooftopResult struct {
	Mask         string   `json:"mask" msgpack:"mask" description:"Rooftop outline as a polygon description or coordinate list"`
	UsableAreaM2 float64  `json:"usable_area_m2" msgpack:"usable_area_m2" description:"Usable rooftop area in square metres"`
	Summary      string   `json:"summary" msgpack:"summary" description:"Short human readable summary"`
	Confidence   *float64 `json:"confidence,omitempty" msgpack:"confidence,omitempty" description:"Model confidence between 0 and 1"`
}

// Fields converts the result back into its untyped form so it can be fed to
// Validate or Score.
func (r RooftopResult) Fields() Fields {
	f := Fields{
		KeyMask:       r.Mask,
		KeyUsableArea: r.UsableAreaM2,
		KeySummary:    r.Summary,
	}
	if r.Confidence != nil {
		f[KeyConfidence] = *r.Confidence
	}
	return f
}

// ConfidenceOr returns the raw confidence or fallback when absent.
func (r RooftopResult) ConfidenceOr(fallback float64) float64 {
	if r.Confidence == nil {
		return fallback
	}
	return *r.Confidence
}

// Result projects the fields onto a RooftopResult. Values with the wrong type
// are left at their zero value, and a non-finite confidence is dropped so the
// result always serialises.
func (f Fields) Result() RooftopResult {
	var out RooftopResult
	if s, ok := f[KeyMask].(string); ok {
		out.Mask = s
	}
	if v, ok := asNumber(f[KeyUsableArea]); ok {
		out.UsableAreaM2 = v
	}
	if s, ok := f[KeySummary].(string); ok {
		out.Summary = s
	}
	if raw, ok := f[KeyConfidence]; ok {
		if v, err := coerceFloat(raw); err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
			out.Confidence = &v
		}
	}
	return out
}

// Clone returns a shallow copy of the fields.
func (f Fields) Clone() Fields {
	if f == nil {
		return nil
	}
	cp := make(Fields, len(f))
	for k, v := range f {
		cp[k] = v
	}
	return cp
}

// asNumber reports whether v holds a Go numeric value. Booleans and strings
// are not numbers here, unlike coerceFloat.
func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
