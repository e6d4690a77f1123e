package rooftop

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrParse reports text without a recoverable JSON object, or an object
	// missing one of the required keys.
	ErrParse = errors.New("rooftop: parse error")
	// ErrCoercion reports a numeric field that cannot be converted to float64.
	ErrCoercion = errors.New("rooftop: coercion error")
)

const (
	fenceJSON = "```json"
	fence     = "```"
)

// RequiredKeys lists the keys every extracted object must carry, in check order.
var RequiredKeys = []string{KeyMask, KeyUsableArea, KeySummary, KeyConfidence}

// Extract isolates the JSON object inside a raw model response and decodes it.
//
// The response may be wrapped in a fenced block (tagged json or untagged) or
// surrounded by prose. The object span runs from the first '{' to the last
// '}', so stray braces in surrounding prose are captured too. On any failure
// the returned Fields is nil and the error wraps ErrParse or ErrCoercion.
func Extract(raw string) (Fields, error) {
	candidate := objectSpan(stripFence(strings.TrimSpace(raw)))

	var fields Fields
	if err := json.Unmarshal([]byte(candidate), &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if fields == nil {
		return nil, fmt.Errorf("%w: response is not a JSON object", ErrParse)
	}
	for _, key := range RequiredKeys {
		if _, ok := fields[key]; !ok {
			return nil, fmt.Errorf("%w: missing field: %s", ErrParse, key)
		}
	}

	conf, err := coerceFloat(fields[KeyConfidence])
	if err != nil {
		return nil, fmt.Errorf("%w: confidence: %v", ErrCoercion, err)
	}
	fields[KeyConfidence] = conf
	return fields, nil
}

// stripFence removes a leading fence marker and a trailing fence, if present.
func stripFence(s string) string {
	var marker string
	switch {
	case strings.HasPrefix(s, fenceJSON):
		marker = fenceJSON
	case strings.HasPrefix(s, fence):
		marker = fence
	default:
		return s
	}
	s = strings.TrimPrefix(s, marker)
	trimmed := strings.TrimSuffix(s, "\n")
	if strings.HasSuffix(trimmed, fence) {
		s = strings.TrimSuffix(trimmed, fence)
	}
	return strings.TrimSpace(s)
}

// objectSpan returns s[first '{' : last '}'], or s when no such span exists.
func objectSpan(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return s
	}
	end := strings.LastIndexByte(s, '}')
	if end < start {
		return s
	}
	return s[start : end+1]
}

// coerceFloat converts v the way a lenient float() conversion would: numbers
// pass through, numeric strings are parsed and booleans become 1 or 0.
func coerceFloat(v any) (float64, error) {
	if n, ok := asNumber(v); ok {
		return n, nil
	}
	switch t := v.(type) {
	case bool:
		if t {
			return 1, nil
		}
		return 0, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			var numErr *strconv.NumError
			if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
				// overflow yields ±Inf, which scoring rejects as out of range
				return f, nil
			}
			return 0, fmt.Errorf("cannot convert %q to float", t)
		}
		return f, nil
	case nil:
		return 0, errors.New("cannot convert null to float")
	default:
		return 0, fmt.Errorf("cannot convert %T to float", v)
	}
}
