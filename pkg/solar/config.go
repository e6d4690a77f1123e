package solar

import (
	"errors"
	"fmt"

	"github.com/VikasCh3108/Solar-AI/pkg/confkit"
)

// Config holds every constant the placeholder calculators use.
type Config struct {
	Weather      Weather           `yaml:"weather"`
	Layout       LayoutConfig      `yaml:"layout"`
	Design       DesignConfig      `yaml:"design"`
	Costs        CostConfig        `yaml:"costs"`
	Placeholders PlaceholderConfig `yaml:"placeholders"`
}

// LayoutConfig drives the panel layout estimate.
type LayoutConfig struct {
	PanelAreaM2 float64 `yaml:"panel_area_m2"`
	Orientation string  `yaml:"orientation"`
	Tilt        int     `yaml:"tilt"`
}

// DesignConfig is the fixed system recommendation.
type DesignConfig struct {
	PanelType string      `yaml:"panel_type"`
	Layout    []Placement `yaml:"layout"`
	Inverter  string      `yaml:"inverter"`
	Mounting  string      `yaml:"mounting"`
}

// CostConfig prices the recommendation. Everything except the per-panel price
// is reported as is.
type CostConfig struct {
	PricePerPanelUSD          float64 `yaml:"price_per_panel_usd"`
	EstimatedAnnualSavingsUSD float64 `yaml:"estimated_annual_savings_usd"`
	ROIPercent                float64 `yaml:"roi_percent"`
	PaybackPeriodYears        float64 `yaml:"payback_period_years"`
	IncentivesUSD             float64 `yaml:"incentives_usd"`
}

// PlaceholderConfig holds the values returned by stages without real logic.
type PlaceholderConfig struct {
	ShadingMap string `yaml:"shading_map"`
	ReportPath string `yaml:"report_path"`
	Feedback   string `yaml:"feedback"`
}

// DefaultConfig returns the built-in constants.
func DefaultConfig() Config {
	return Config{
		Weather: Weather{
			AverageIrradianceKWhM2Year: 1700,
			ClimateZone:                "Temperate",
			SunnyDaysPerYear:           220,
		},
		Layout: LayoutConfig{
			PanelAreaM2: 2.0,
			Orientation: "south",
			Tilt:        20,
		},
		Design: DesignConfig{
			PanelType: "Monocrystalline 400W",
			Layout:    []Placement{{X: 10, Y: 20, Width: 1, Height: 2}},
			Inverter:  "5kW string inverter",
			Mounting:  "flush mount",
		},
		Costs: CostConfig{
			PricePerPanelUSD:          500,
			EstimatedAnnualSavingsUSD: 1600,
			ROIPercent:                17.8,
			PaybackPeriodYears:        5.6,
			IncentivesUSD:             2000,
		},
		Placeholders: PlaceholderConfig{
			ShadingMap: "shading_map",
			ReportPath: "report.pdf",
			Feedback:   "feedback",
		},
	}
}

// LoadConfig overlays the YAML file at path on DefaultConfig.
func LoadConfig(path string) (*Config, error) {
	cfg, err := confkit.LoadYAML(path, DefaultConfig)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects constants that would break the arithmetic.
func (c Config) Validate() error {
	if c.Layout.PanelAreaM2 <= 0 {
		return fmt.Errorf("solar config: panel_area_m2 must be positive, got %v", c.Layout.PanelAreaM2)
	}
	if c.Costs.PricePerPanelUSD < 0 {
		return errors.New("solar config: price_per_panel_usd cannot be negative")
	}
	return nil
}
