package rooftop

import (
	"math"
	"reflect"
	"unicode/utf8"
)

// Validation messages.
const (
	MsgNoResult     = "No result returned."
	MsgNotMapping   = "Result is not a dictionary."
	MsgMissingField = "Missing field: "
	MsgBadArea      = "Usable area must be a positive number."
	MsgBadMask      = "Mask format appears invalid."
	MsgValid        = "Valid rooftop result."
)

// validatedKeys are checked for presence in this order. Confidence is
// optional here because Score re-derives it independently.
var validatedKeys = []string{KeyMask, KeyUsableArea, KeySummary}

// ValidationOutcome is the verdict on a candidate result.
type ValidationOutcome struct {
	IsValid bool   `json:"is_valid"`
	Message string `json:"validation_msg"`
}

// Check is Validate returning a ValidationOutcome.
func Check(candidate any) ValidationOutcome {
	ok, msg := Validate(candidate)
	return ValidationOutcome{IsValid: ok, Message: msg}
}

// Validate decides whether candidate is trustworthy enough to feed the
// downstream calculators. A failed check is reported through the returned
// message, never through an error.
func Validate(candidate any) (bool, string) {
	if isEmpty(candidate) {
		return false, MsgNoResult
	}
	fields, ok := asFields(candidate)
	if !ok {
		return false, MsgNotMapping
	}
	if len(fields) == 0 {
		return false, MsgNoResult
	}
	for _, key := range validatedKeys {
		if _, ok := fields[key]; !ok {
			return false, MsgMissingField + key
		}
	}
	area, ok := asNumber(fields[KeyUsableArea])
	if !ok || math.IsNaN(area) || math.IsInf(area, 0) || area <= 0 {
		return false, MsgBadArea
	}
	mask, ok := fields[KeyMask].(string)
	if !ok || utf8.RuneCountInString(mask) < MinMaskLength {
		return false, MsgBadMask
	}
	return true, MsgValid
}

// asFields views the mapping-shaped candidates as Fields.
func asFields(candidate any) (Fields, bool) {
	switch v := candidate.(type) {
	case Fields:
		return v, true
	case map[string]any:
		return Fields(v), true
	case RooftopResult:
		return v.Fields(), true
	case *RooftopResult:
		return v.Fields(), true
	default:
		return nil, false
	}
}

// isEmpty reports falsy candidates: nil, typed nil, false, numeric zero and
// empty strings, slices, arrays and maps.
func isEmpty(candidate any) bool {
	if candidate == nil {
		return true
	}
	rv := reflect.ValueOf(candidate)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	case reflect.Map, reflect.Slice, reflect.Array, reflect.String:
		return rv.Len() == 0
	case reflect.Bool:
		return !rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return rv.IsZero()
	}
	return false
}
