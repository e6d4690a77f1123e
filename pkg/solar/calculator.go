package solar

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/VikasCh3108/Solar-AI/pkg/imagery"
	"github.com/VikasCh3108/Solar-AI/pkg/rooftop"
)

// ShadingMap is the shading analysis output. It is a placeholder label until
// obstacle detection exists.
type ShadingMap string

// LayoutOption is one way of filling the roof with panels.
type LayoutOption struct {
	PanelCount  int    `json:"panel_count"`
	Orientation string `json:"orientation"`
	Tilt        int    `json:"tilt"`
}

// Assessment is the solar potential of the detected rooftop.
type Assessment struct {
	UsableAreaM2                     float64        `json:"usable_area_m2"`
	EstimatedIrradiationKWhPerM2Year float64        `json:"estimated_irradiation_kwh_per_m2_year"`
	LayoutOptions                    []LayoutOption `json:"layout_options"`
}

// Placement positions a panel group on the roof, in image pixels.
type Placement struct {
	X      int `json:"x" yaml:"x"`
	Y      int `json:"y" yaml:"y"`
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// Recommendation is the proposed system.
type Recommendation struct {
	PanelType string      `json:"panel_type"`
	NumPanels int         `json:"num_panels"`
	Layout    []Placement `json:"layout"`
	Inverter  string      `json:"inverter"`
	Mounting  string      `json:"mounting"`
}

// ROIReport holds the cost and return estimates in USD.
type ROIReport struct {
	CostUSD                   float64 `json:"cost_usd"`
	EstimatedAnnualSavingsUSD float64 `json:"estimated_annual_savings_usd"`
	ROIPercent                float64 `json:"roi_percent"`
	PaybackPeriodYears        float64 `json:"payback_period_years"`
	IncentivesUSD             float64 `json:"incentives_usd"`
}

// Calculator runs the downstream stages. It is stateless apart from its
// config and safe for concurrent use.
type Calculator struct {
	cfg Config
}

// NewCalculator builds a Calculator. A zero PanelAreaM2 selects the defaults.
func NewCalculator(cfg Config) *Calculator {
	if cfg.Layout.PanelAreaM2 <= 0 {
		cfg = DefaultConfig()
	}
	return &Calculator{cfg: cfg}
}

// Config returns the calculator's constants.
func (c *Calculator) Config() Config { return c.cfg }

// AnalyzeShading returns the shading placeholder.
func (c *Calculator) AnalyzeShading(_ imagery.Image, _ rooftop.RooftopResult) ShadingMap {
	return ShadingMap(c.cfg.Placeholders.ShadingMap)
}

// MaxPanels caps the panel count so huge areas cannot overflow int.
const MaxPanels = math.MaxInt32

// Assess estimates how many panels fit on the usable area. A non-positive
// area yields zero panels and the count never exceeds MaxPanels.
func (c *Calculator) Assess(roof rooftop.RooftopResult, weather Weather) Assessment {
	count := 0
	if area := roof.UsableAreaM2; area > 0 && !math.IsInf(area, 0) {
		if q := math.Floor(area / c.cfg.Layout.PanelAreaM2); q >= MaxPanels {
			count = MaxPanels
		} else if q > 0 {
			count = int(q)
		}
	}
	return Assessment{
		UsableAreaM2:                     roof.UsableAreaM2,
		EstimatedIrradiationKWhPerM2Year: weather.AverageIrradianceKWhM2Year,
		LayoutOptions: []LayoutOption{{
			PanelCount:  count,
			Orientation: c.cfg.Layout.Orientation,
			Tilt:        c.cfg.Layout.Tilt,
		}},
	}
}

// Recommend sizes the system from the first layout option.
func (c *Calculator) Recommend(a Assessment) Recommendation {
	panels := 0
	if len(a.LayoutOptions) > 0 {
		panels = a.LayoutOptions[0].PanelCount
	}
	layout := make([]Placement, len(c.cfg.Design.Layout))
	copy(layout, c.cfg.Design.Layout)
	return Recommendation{
		PanelType: c.cfg.Design.PanelType,
		NumPanels: panels,
		Layout:    layout,
		Inverter:  c.cfg.Design.Inverter,
		Mounting:  c.cfg.Design.Mounting,
	}
}

// AnalyzeCostAndROI prices the recommendation.
func (c *Calculator) AnalyzeCostAndROI(rec Recommendation) ROIReport {
	cost := decimal.NewFromInt(int64(rec.NumPanels)).
		Mul(decimal.NewFromFloat(c.cfg.Costs.PricePerPanelUSD)).
		Round(2)
	return ROIReport{
		CostUSD:                   cost.InexactFloat64(),
		EstimatedAnnualSavingsUSD: c.cfg.Costs.EstimatedAnnualSavingsUSD,
		ROIPercent:                c.cfg.Costs.ROIPercent,
		PaybackPeriodYears:        c.cfg.Costs.PaybackPeriodYears,
		IncentivesUSD:             c.cfg.Costs.IncentivesUSD,
	}
}

// GenerateReport returns where the report would be written. No file is
// produced.
func (c *Calculator) GenerateReport(any) string {
	return c.cfg.Placeholders.ReportPath
}

// CollectFeedback returns the feedback placeholder for a report.
func (c *Calculator) CollectFeedback(string) string {
	return c.cfg.Placeholders.Feedback
}
