package analysis

import "github.com/zeromicro/go-zero/core/metric"

// Request outcomes.
const (
	OutcomeOK              = "ok"
	OutcomeInvalid         = "invalid"
	OutcomeDetectionFailed = "detection_failed"
	OutcomeError           = "error"
)

var (
	stageDuration = metric.NewHistogramVec(&metric.HistogramVecOpts{
		Namespace: "rooftop",
		Name:      "stage_duration_ms",
		Help:      "Rooftop analysis stage duration in milliseconds.",
		Labels:    []string{"stage"},
		Buckets:   []float64{1, 5, 25, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
	})
	analyzeRequests = metric.NewCounterVec(&metric.CounterVecOpts{
		Namespace: "rooftop",
		Name:      "analyze_requests_total",
		Help:      "Rooftop analyses by outcome.",
		Labels:    []string{"outcome"},
	})
)

// Metrics receives pipeline measurements.
type Metrics interface {
	ObserveStage(stage string, ms int64)
	CountRequest(outcome string)
}

type promMetrics struct{}

// PrometheusMetrics reports through go-zero's metric vectors.
func PrometheusMetrics() Metrics { return promMetrics{} }

func (promMetrics) ObserveStage(stage string, ms int64) {
	stageDuration.Observe(ms, stage)
}

func (promMetrics) CountRequest(outcome string) {
	analyzeRequests.Inc(outcome)
}

type nopMetrics struct{}

func (nopMetrics) ObserveStage(string, int64) {}
func (nopMetrics) CountRequest(string)        {}
