package solar

import "context"

// Weather summarises the solar climate at a site.
type Weather struct {
	AverageIrradianceKWhM2Year float64 `json:"average_irradiance_kwh_m2_year" yaml:"average_irradiance_kwh_m2_year"`
	ClimateZone                string  `json:"climate_zone" yaml:"climate_zone"`
	SunnyDaysPerYear           int     `json:"sunny_days_per_year" yaml:"sunny_days_per_year"`
}

// WeatherProvider looks up the climate for an address. An empty address
// means no address was given.
type WeatherProvider interface {
	Weather(ctx context.Context, address string) (Weather, error)
}

// StaticWeather returns the same figures for every address.
type StaticWeather struct {
	Value Weather
}

// Weather implements WeatherProvider.
func (s StaticWeather) Weather(ctx context.Context, _ string) (Weather, error) {
	if err := ctx.Err(); err != nil {
		return Weather{}, err
	}
	return s.Value, nil
}
