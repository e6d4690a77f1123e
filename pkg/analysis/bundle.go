package analysis

import "github.com/VikasCh3108/Solar-AI/pkg/solar"

// Bundle is the JSON view of a Context. Image bytes are never included.
type Bundle struct {
	AnalysisID        string                `json:"analysis_id"`
	UserInput         UserInput             `json:"user_input"`
	Weather           solar.Weather         `json:"weather"`
	Rooftop           RooftopView           `json:"rooftop"`
	RooftopValidation Validation            `json:"rooftop_validation"`
	Shading           solar.ShadingMap      `json:"shading,omitempty"`
	Assessment        *solar.Assessment     `json:"assessment,omitempty"`
	Recommendation    *solar.Recommendation `json:"recommendation,omitempty"`
	ROI               *solar.ROIReport      `json:"roi,omitempty"`
	ReportPath        string                `json:"report_path,omitempty"`
	Feedback          string                `json:"feedback,omitempty"`
	Performance       map[string]float64    `json:"performance,omitempty"`
}

// RooftopView is the rooftop as reported. Mask and area are null after a
// detection failure.
type RooftopView struct {
	Mask         *string  `json:"mask"`
	UsableAreaM2 *float64 `json:"usable_area_m2"`
	Summary      string   `json:"summary"`
	Confidence   float64  `json:"confidence"`
}

// Bundle renders the context for API responses, journals and storage.
// Performance keys carry a _sec suffix and values are seconds.
func (c Context) Bundle() Bundle {
	b := Bundle{
		AnalysisID:        c.AnalysisID,
		UserInput:         c.UserInput,
		Weather:           c.Weather,
		RooftopValidation: c.Validation,
		Shading:           c.Shading,
		Assessment:        c.Assessment,
		Recommendation:    c.Recommendation,
		ROI:               c.ROI,
		ReportPath:        c.ReportPath,
		Feedback:          c.Feedback,
	}
	if c.Rooftop != nil {
		mask, area := c.Rooftop.Mask, c.Rooftop.UsableAreaM2
		b.Rooftop = RooftopView{
			Mask:         &mask,
			UsableAreaM2: &area,
			Summary:      c.Rooftop.Summary,
			Confidence:   c.Rooftop.ConfidenceOr(0),
		}
	} else {
		b.Rooftop = RooftopView{Summary: FailureSummary}
	}
	if len(c.Performance) > 0 {
		b.Performance = make(map[string]float64, len(c.Performance))
		for _, t := range c.Performance {
			b.Performance[t.Stage+"_sec"] = t.Duration.Seconds()
		}
	}
	return b
}
