package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/zeromicro/go-zero/core/logx"

	"github.com/VikasCh3108/Solar-AI/pkg/imagery"
	"github.com/VikasCh3108/Solar-AI/pkg/rooftop"
	"github.com/VikasCh3108/Solar-AI/pkg/solar"
)

// DefaultLowConfidence is the threshold below which a valid result is
// flagged for review.
const DefaultLowConfidence = 0.7

// ErrDetectionFailed means the detector returned nothing usable. The Context
// returned alongside it still carries the failure result.
var ErrDetectionFailed = errors.New("analysis: rooftop detection failed")

// Recorder persists finished analyses. Errors are logged by the pipeline and
// never fail the analysis.
type Recorder interface {
	Record(ctx context.Context, ac Context) error
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(ctx context.Context, ac Context) error

// Record calls f.
func (f RecorderFunc) Record(ctx context.Context, ac Context) error { return f(ctx, ac) }

// Input is one analysis request.
type Input struct {
	Image     imagery.Image
	UserInput UserInput
}

// Pipeline runs detection, validation and the solar stages in order.
type Pipeline struct {
	detector      rooftop.Detector
	calc          *solar.Calculator
	weather       solar.WeatherProvider
	recorders     []Recorder
	metrics       Metrics
	lowConfidence float64
	now           func() time.Time
	newID         func() string
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithWeather replaces the static weather provider.
func WithWeather(w solar.WeatherProvider) Option {
	return func(p *Pipeline) { p.weather = w }
}

// WithRecorder appends recorders run after every analysis.
func WithRecorder(r ...Recorder) Option {
	return func(p *Pipeline) { p.recorders = append(p.recorders, r...) }
}

// WithMetrics replaces the Prometheus metrics sink.
func WithMetrics(m Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithoutMetrics disables metrics.
func WithoutMetrics() Option {
	return WithMetrics(nopMetrics{})
}

// WithLowConfidence sets the review threshold.
func WithLowConfidence(threshold float64) Option {
	return func(p *Pipeline) { p.lowConfidence = threshold }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// WithIDGenerator replaces the uuid generator.
func WithIDGenerator(fn func() string) Option {
	return func(p *Pipeline) { p.newID = fn }
}

// New builds a pipeline. A nil calculator uses the default constants.
func New(detector rooftop.Detector, calc *solar.Calculator, opts ...Option) *Pipeline {
	if calc == nil {
		calc = solar.NewCalculator(solar.DefaultConfig())
	}
	p := &Pipeline{
		detector:      detector,
		calc:          calc,
		weather:       solar.StaticWeather{Value: calc.Config().Weather},
		metrics:       PrometheusMetrics(),
		lowConfidence: DefaultLowConfidence,
		now:           time.Now,
		newID:         uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Calculator exposes the solar calculator.
func (p *Pipeline) Calculator() *solar.Calculator { return p.calc }

// Run analyses one image. On ErrDetectionFailed the returned Context holds
// the failure result; other errors leave it partially filled.
func (p *Pipeline) Run(ctx context.Context, in Input) (Context, error) {
	start := p.now()
	ac := Context{
		AnalysisID: p.newID(),
		StartedAt:  start,
		UserInput:  in.UserInput,
		Image:      in.Image,
	}
	logger := logx.WithContext(ctx).WithFields(logx.Field("analysis_id", ac.AnalysisID))

	weather, err := p.weather.Weather(ctx, in.UserInput.Address)
	if err != nil {
		p.metrics.CountRequest(OutcomeError)
		return ac, fmt.Errorf("analysis: weather: %w", err)
	}
	ac = ac.withWeather(weather)

	var (
		detection *rooftop.Detection
		detectErr error
	)
	ac = p.timed(ac, StageDetection, func(c Context) Context {
		detection, detectErr = p.detector.Detect(ctx, in.Image)
		return c
	})
	if detectErr != nil || !detection.OK() {
		cause := detectErr
		if cause == nil && detection != nil {
			cause = detection.Err
		}
		logger.Errorf("rooftop detection failed for %s: %v", in.Image.Name, cause)
		ac = ac.withDetectionFailure(detection)
		ac = ac.withTiming(StageTotal, p.now().Sub(start))
		p.metrics.CountRequest(OutcomeDetectionFailed)
		p.record(ctx, ac)
		if cause == nil {
			return ac, ErrDetectionFailed
		}
		return ac, fmt.Errorf("%w: %v", ErrDetectionFailed, cause)
	}
	ac = ac.withDetection(detection)

	ac = p.timed(ac, StageValidation, func(c Context) Context {
		outcome, confidence := rooftop.Assess(detection.Fields)
		return c.withValidation(Validation{
			IsValid:    outcome.IsValid,
			Message:    outcome.Message,
			Confidence: confidence,
		})
	})
	switch {
	case !ac.Validation.IsValid:
		logger.Errorf("rooftop output failed validation (%s); downstream results may be unreliable", ac.Validation.Message)
	case ac.Validation.Confidence < p.lowConfidence:
		logger.Infof("rooftop confidence %.2f is below %.2f; verify the result", ac.Validation.Confidence, p.lowConfidence)
	}

	roof := *ac.Rooftop
	ac = p.timed(ac, StageShading, func(c Context) Context {
		return c.withShading(p.calc.AnalyzeShading(c.Image, roof))
	})
	ac = p.timed(ac, StageAssessment, func(c Context) Context {
		return c.withAssessment(p.calc.Assess(roof, c.Weather))
	})
	ac = p.timed(ac, StageRecommendation, func(c Context) Context {
		return c.withRecommendation(p.calc.Recommend(*c.Assessment))
	})
	ac = p.timed(ac, StageROI, func(c Context) Context {
		return c.withROI(p.calc.AnalyzeCostAndROI(*c.Recommendation))
	})

	report := p.calc.GenerateReport(ac.Bundle())
	ac = ac.withReport(report, p.calc.CollectFeedback(report))

	total := p.now().Sub(start)
	ac = ac.withTiming(StageTotal, total)
	p.metrics.ObserveStage(StageTotal, total.Milliseconds())
	logger.Infof("analysis of %s finished in %.3fs (valid=%t confidence=%.2f)",
		in.Image.Name, total.Seconds(), ac.Validation.IsValid, ac.Validation.Confidence)

	if ac.Validation.IsValid {
		p.metrics.CountRequest(OutcomeOK)
	} else {
		p.metrics.CountRequest(OutcomeInvalid)
	}
	p.record(ctx, ac)
	return ac, nil
}

// timed runs one stage and appends its timing to the Context it returns.
func (p *Pipeline) timed(ac Context, stage string, fn func(Context) Context) Context {
	start := p.now()
	next := fn(ac)
	elapsed := p.now().Sub(start)
	p.metrics.ObserveStage(stage, elapsed.Milliseconds())
	logx.Debugf("[perf] %s: %.3fs", stage, elapsed.Seconds())
	return next.withTiming(stage, elapsed)
}

func (p *Pipeline) record(ctx context.Context, ac Context) {
	for _, r := range p.recorders {
		if err := r.Record(ctx, ac); err != nil {
			logx.WithContext(ctx).Errorf("record analysis %s: %v", ac.AnalysisID, err)
		}
	}
}
