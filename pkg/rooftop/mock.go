package rooftop

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/VikasCh3108/Solar-AI/pkg/imagery"
)

// Canned mock output.
const (
	MockMask    = "POLYGON((100,100),(400,100),(400,400),(100,400))"
	MockArea    = 42.3
	MockSummary = "Rooftop area detected and segmented. Usable area is approximately 42.3 m^2."

	mockMinConfidence = 0.70
	mockMaxConfidence = 0.99
)

// MockDetector returns a fixed rooftop without calling any model. The
// confidence varies per image but is stable for identical bytes.
type MockDetector struct {
	confidence func(img imagery.Image) float64
}

// MockOption customises a MockDetector.
type MockOption func(*MockDetector)

// WithConfidence replaces the digest-derived confidence.
func WithConfidence(fn func(img imagery.Image) float64) MockOption {
	return func(m *MockDetector) {
		m.confidence = fn
	}
}

// NewMockDetector builds a MockDetector.
func NewMockDetector(opts ...MockOption) *MockDetector {
	m := &MockDetector{confidence: DigestConfidence}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Detect renders the canned result as JSON and extracts it, so mock output
// goes through the same path as a live response.
func (m *MockDetector) Detect(ctx context.Context, img imagery.Image) (*Detection, error) {
	payload, err := json.Marshal(map[string]any{
		KeyMask:       MockMask,
		KeyUsableArea: MockArea,
		KeySummary:    MockSummary,
		KeyConfidence: m.confidence(img),
	})
	if err != nil {
		return nil, fmt.Errorf("rooftop: render mock result: %w", err)
	}
	raw := string(payload)
	fields, err := Extract(raw)
	logx.WithContext(ctx).Infof("mock vision output for %s: %s", img.Name, raw)
	return &Detection{Raw: raw, Fields: fields, Source: SourceMock, Model: m.Model(), Err: err}, nil
}

// Model returns "mock".
func (m *MockDetector) Model() string { return SourceMock }

// DigestConfidence maps the image's SHA-256 onto [0.70, 0.99], rounded to two
// decimals.
func DigestConfidence(img imagery.Image) float64 {
	digest := img.Digest
	if len(digest) < 16 {
		digest = imagery.Digest(img.Data)
	}
	v, err := strconv.ParseUint(digest[:16], 16, 64)
	if err != nil {
		return mockMinConfidence
	}
	frac := float64(v) / float64(math.MaxUint64)
	conf := mockMinConfidence + frac*(mockMaxConfidence-mockMinConfidence)
	return math.Round(conf*100) / 100
}
