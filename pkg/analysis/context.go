package analysis

import (
	"time"

	"github.com/VikasCh3108/Solar-AI/pkg/imagery"
	"github.com/VikasCh3108/Solar-AI/pkg/rooftop"
	"github.com/VikasCh3108/Solar-AI/pkg/solar"
)

// Stage names, as reported in Performance and in metrics.
const (
	StageDetection      = "rooftop_detection"
	StageValidation     = "validation"
	StageShading        = "shading_analysis"
	StageAssessment     = "solar_assessment"
	StageRecommendation = "recommendation"
	StageROI            = "roi_analysis"
	StageTotal          = "total_analysis"
)

// FailureSummary is reported when no rooftop could be detected.
const FailureSummary = "Rooftop detection failed."

// UserInput records what the caller asked for.
type UserInput struct {
	ImageFile string `json:"image_file,omitempty"`
	Address   string `json:"address,omitempty"`
	UserType  string `json:"user_type,omitempty"`
}

// Validation is the validator verdict plus the derived confidence, which is
// zero for invalid results.
type Validation struct {
	IsValid    bool    `json:"is_valid"`
	Message    string  `json:"validation_msg"`
	Confidence float64 `json:"confidence"`
}

// StageTiming is the wall time of one stage.
type StageTiming struct {
	Stage    string
	Duration time.Duration
}

// Context is everything known about one analysis. It is a value: each stage
// receives a Context and returns a new one, and no stage writes to state
// another stage holds.
type Context struct {
	AnalysisID string
	StartedAt  time.Time
	UserInput  UserInput
	Image      imagery.Image
	Weather    solar.Weather

	Detection  *rooftop.Detection
	Rooftop    *rooftop.RooftopResult
	Validation Validation

	Shading        solar.ShadingMap
	Assessment     *solar.Assessment
	Recommendation *solar.Recommendation
	ROI            *solar.ROIReport
	ReportPath     string
	Feedback       string

	Performance []StageTiming
	// DetectionFailed is set when the detector produced no usable fields.
	DetectionFailed bool
}

func (c Context) withWeather(w solar.Weather) Context {
	c.Weather = w
	return c
}

func (c Context) withDetection(d *rooftop.Detection) Context {
	c.Detection = d
	if d != nil && d.OK() {
		result := d.Fields.Result()
		c.Rooftop = &result
	}
	return c
}

func (c Context) withDetectionFailure(d *rooftop.Detection) Context {
	c.Detection = d
	c.Rooftop = nil
	c.DetectionFailed = true
	c.Validation = Validation{Message: FailureSummary}
	return c
}

func (c Context) withValidation(v Validation) Context {
	c.Validation = v
	return c
}

func (c Context) withShading(s solar.ShadingMap) Context {
	c.Shading = s
	return c
}

func (c Context) withAssessment(a solar.Assessment) Context {
	c.Assessment = &a
	return c
}

func (c Context) withRecommendation(r solar.Recommendation) Context {
	c.Recommendation = &r
	return c
}

func (c Context) withROI(r solar.ROIReport) Context {
	c.ROI = &r
	return c
}

func (c Context) withReport(path, feedback string) Context {
	c.ReportPath = path
	c.Feedback = feedback
	return c
}

func (c Context) withTiming(stage string, d time.Duration) Context {
	perf := make([]StageTiming, len(c.Performance), len(c.Performance)+1)
	copy(perf, c.Performance)
	c.Performance = append(perf, StageTiming{Stage: stage, Duration: d})
	return c
}

// Timing returns the duration recorded for stage.
func (c Context) Timing(stage string) (time.Duration, bool) {
	for _, t := range c.Performance {
		if t.Stage == stage {
			return t.Duration, true
		}
	}
	return 0, false
}

// Confidence returns the validated confidence.
func (c Context) Confidence() float64 {
	return c.Validation.Confidence
}
