package rooftop

import (
	"context"
	"errors"

	"github.com/VikasCh3108/Solar-AI/pkg/imagery"
)

// Detection sources.
const (
	SourceMock   = "mock"
	SourceVision = "vision"
	SourceCache  = "cache"
)

// ErrEmptyResponse is returned when the vision model answers without content.
var ErrEmptyResponse = errors.New("rooftop: vision model returned no content")

// Detector turns a preprocessed image into a rooftop detection.
//
// A transport or upstream failure is returned as an error. A response that
// arrived but could not be extracted is not an error: the Detection carries
// nil Fields and the extraction error in Err.
type Detector interface {
	Detect(ctx context.Context, img imagery.Image) (*Detection, error)
	// Model names the model behind the detector, used in cache keys.
	Model() string
}

// Detection is the outcome of one detector call.
type Detection struct {
	Raw    string `json:"raw" msgpack:"raw"`
	Fields Fields `json:"fields" msgpack:"fields"`
	Source string `json:"source" msgpack:"source"`
	Model  string `json:"model" msgpack:"model"`
	Err    error  `json:"-" msgpack:"-"`
}

// OK reports whether extraction produced fields.
func (d *Detection) OK() bool {
	return d != nil && d.Fields != nil
}

// DetectorFunc adapts a function to the Detector interface.
type DetectorFunc func(ctx context.Context, img imagery.Image) (*Detection, error)

// Detect calls f.
func (f DetectorFunc) Detect(ctx context.Context, img imagery.Image) (*Detection, error) {
	return f(ctx, img)
}

// Model returns "func".
func (f DetectorFunc) Model() string { return "func" }
