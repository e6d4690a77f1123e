package solar

import (
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VikasCh3108/Solar-AI/pkg/imagery"
	"github.com/VikasCh3108/Solar-AI/pkg/rooftop"
)

func TestStagesWithDefaults(t *testing.T) {
	calc := NewCalculator(DefaultConfig())
	weather, err := StaticWeather{Value: DefaultConfig().Weather}.Weather(context.Background(), "1 Main St")
	require.NoError(t, err)

	roof := rooftop.RooftopResult{Mask: rooftop.MockMask, UsableAreaM2: 42.3, Summary: "ok"}
	assert.Equal(t, ShadingMap("shading_map"), calc.AnalyzeShading(imagery.Image{}, roof))

	assessment := calc.Assess(roof, weather)
	assert.Equal(t, Assessment{
		UsableAreaM2:                     42.3,
		EstimatedIrradiationKWhPerM2Year: 1700,
		LayoutOptions:                    []LayoutOption{{PanelCount: 21, Orientation: "south", Tilt: 20}},
	}, assessment)

	rec := calc.Recommend(assessment)
	assert.Equal(t, Recommendation{
		PanelType: "Monocrystalline 400W",
		NumPanels: 21,
		Layout:    []Placement{{X: 10, Y: 20, Width: 1, Height: 2}},
		Inverter:  "5kW string inverter",
		Mounting:  "flush mount",
	}, rec)

	roi := calc.AnalyzeCostAndROI(rec)
	assert.Equal(t, ROIReport{
		CostUSD:                   10500,
		EstimatedAnnualSavingsUSD: 1600,
		ROIPercent:                17.8,
		PaybackPeriodYears:        5.6,
		IncentivesUSD:             2000,
	}, roi)

	assert.Equal(t, "report.pdf", calc.GenerateReport(nil))
	assert.Equal(t, "feedback", calc.CollectFeedback("report.pdf"))
}

func TestAssessPanelCount(t *testing.T) {
	calc := NewCalculator(DefaultConfig())
	tests := []struct {
		area float64
		want int
	}{
		{0, 0},
		{-4, 0},
		{1.99, 0},
		{2, 1},
		{3.9, 1},
		{10.5, 5},
		{1e30, MaxPanels},
		{math.MaxFloat64, MaxPanels},
	}
	for _, tt := range tests {
		got := calc.Assess(rooftop.RooftopResult{UsableAreaM2: tt.area}, Weather{})
		assert.Equal(t, tt.want, got.LayoutOptions[0].PanelCount, "area %v", tt.area)
	}
}

func TestHugeAreaKeepsCostPositive(t *testing.T) {
	calc := NewCalculator(DefaultConfig())
	a := calc.Assess(rooftop.RooftopResult{UsableAreaM2: 1e30}, Weather{})
	rec := calc.Recommend(a)
	assert.Equal(t, MaxPanels, rec.NumPanels)
	roi := calc.AnalyzeCostAndROI(rec)
	assert.Greater(t, roi.CostUSD, 0.0)
}

func TestRecommendWithoutLayoutOptions(t *testing.T) {
	calc := NewCalculator(Config{})
	rec := calc.Recommend(Assessment{})
	assert.Zero(t, rec.NumPanels)
	assert.Zero(t, calc.AnalyzeCostAndROI(rec).CostUSD)

	rec.Layout[0].X = 99
	assert.Equal(t, 10, calc.Config().Design.Layout[0].X, "layout is copied")
}

func TestCostUsesDecimalArithmetic(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Costs.PricePerPanelUSD = 333.33
	roi := NewCalculator(cfg).AnalyzeCostAndROI(Recommendation{NumPanels: 3})
	assert.Equal(t, 999.99, roi.CostUSD)
}

func TestJSONShape(t *testing.T) {
	calc := NewCalculator(DefaultConfig())
	a := calc.Assess(rooftop.RooftopResult{UsableAreaM2: 4}, DefaultConfig().Weather)
	raw, err := json.Marshal(a)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"usable_area_m2": 4,
		"estimated_irradiation_kwh_per_m2_year": 1700,
		"layout_options": [{"panel_count": 2, "orientation": "south", "tilt": 20}]
	}`, string(raw))

	raw, err = json.Marshal(DefaultConfig().Weather)
	require.NoError(t, err)
	assert.JSONEq(t, `{"average_irradiance_kwh_m2_year":1700,"climate_zone":"Temperate","sunny_days_per_year":220}`, string(raw))
}

func TestStaticWeatherHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := StaticWeather{}.Weather(ctx, "")
	require.ErrorIs(t, err, context.Canceled)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "solar.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
layout:
  panel_area_m2: 1.7
costs:
  price_per_panel_usd: 420
placeholders:
  report_path: out/report.pdf
`), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 1.7, cfg.Layout.PanelAreaM2)
	assert.Equal(t, "south", cfg.Layout.Orientation)
	assert.Equal(t, 420.0, cfg.Costs.PricePerPanelUSD)
	assert.Equal(t, 1600.0, cfg.Costs.EstimatedAnnualSavingsUSD)
	assert.Equal(t, "out/report.pdf", cfg.Placeholders.ReportPath)
	assert.Equal(t, "Temperate", cfg.Weather.ClimateZone)

	require.NoError(t, os.WriteFile(path, []byte("layout:\n  panel_area_m2: 0\n"), 0o600))
	_, err = LoadConfig(path)
	require.ErrorContains(t, err, "panel_area_m2")
}

func TestShippedSolarConfigMatchesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("..", "..", "etc", "solar.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), *cfg)
}
