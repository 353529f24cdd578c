package domain

import "time"

// LocationQuery identifies the place a profile is requested for. Admin and
// Country narrow ambiguous names and may be empty.
type LocationQuery struct {
	Name    string `json:"name"`
	Admin   string `json:"admin,omitempty"`
	Country string `json:"country,omitempty"`
}

// Coordinate is a WGS-84 latitude/longitude pair.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Temperature holds one day's temperature readings in °C.
type Temperature struct {
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	Afternoon float64 `json:"afternoon"`
}

// WeatherRecord is a single day's weather observation for a coordinate.
type WeatherRecord struct {
	Date              time.Time `json:"date"`
	Temperature       Temperature
	HumidityAfternoon float64 `json:"humidity_afternoon"` // relative humidity, %
	PrecipitationMM   float64 `json:"precipitation_mm"`   // total for the day
}

// TemperatureSummary aggregates temperatures across a day range.
type TemperatureSummary struct {
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Average float64 `json:"average"` // mean of afternoon readings
}

// WeatherSummary is the reduced form of a daily weather series.
// Immutable once computed; cached by the weather stage.
type WeatherSummary struct {
	Temperature        TemperatureSummary `json:"temperature"`
	HumidityAverage    float64            `json:"humidity_average"`
	TotalPrecipitation float64            `json:"total_precipitation"`
	KeyEvents          []string           `json:"key_events"`
	Days               int                `json:"days"` // days the summary was computed over
}

// SoilLayer is one depth reading of a soil property. Mean is nil when the
// provider returned no data for the layer.
type SoilLayer struct {
	Depth string   `json:"depth"` // e.g. "0-5cm"
	Mean  *float64 `json:"mean"`
	Unit  string   `json:"unit"`
}

// SoilSample holds the per-property, per-depth readings returned for one
// candidate coordinate of the spatial fallback search.
type SoilSample struct {
	Coordinate Coordinate             `json:"coordinate"`
	Properties map[string][]SoilLayer `json:"properties"` // property name -> layers
}

// NDVIFrame is a raster of raw 8-bit pixel intensities encoding a rescaled
// vegetation index. Consumed immediately into an NDVISummary.
type NDVIFrame [][]uint8

// Vegetation index trend labels, in classification priority order.
const (
	TrendFluctuating      = "fluctuating"
	TrendConsistentlyHigh = "consistently high"
	TrendStable           = "stable"
)

// NDVISummary is the reduced form of an NDVI raster sample.
type NDVISummary struct {
	Mean      float64  `json:"mean"`
	Max       float64  `json:"max"`
	Min       float64  `json:"min"`
	Trend     string   `json:"trend,omitempty"`
	KeyEvents []string `json:"key_events,omitempty"`
	NoData    bool     `json:"no_data,omitempty"`
}

// Observation is a single year's value of an economic indicator series.
// Value is nil for years the source reports no data.
type Observation struct {
	Year        int      `json:"year"`
	Value       *float64 `json:"value"`
	ISO3        string   `json:"iso3,omitempty"`
	CountryName string   `json:"country_name,omitempty"`
}

// EconomicIndicator is the most recent qualifying observation of a series
// at or before the cutoff year.
type EconomicIndicator struct {
	Value       float64 `json:"value"`
	Year        int     `json:"year"`
	ISO3        string  `json:"iso3,omitempty"`
	CountryName string  `json:"country_name,omitempty"`
}

// FusedIndicators bundles the economic stage's lookups. Each indicator is
// independently optional; nil means no qualifying observation was found.
type FusedIndicators struct {
	GDP              *EconomicIndicator `json:"gdp,omitempty"`
	PovertyRate      *EconomicIndicator `json:"poverty_rate,omitempty"`
	EducationExpense *EconomicIndicator `json:"education_expense,omitempty"`
}

// CollectedRecord is the accumulating envelope passed between pipeline
// stages. Its shape is always complete when forwarded: each of the weather,
// soil, and vegetation sections carries either a result or an explicit
// error marker, never neither.
type CollectedRecord struct {
	RunID       string        `json:"run_id"`
	Location    LocationQuery `json:"location"`
	Coordinate  Coordinate    `json:"coordinate"`
	CountryCode string        `json:"country_code,omitempty"` // ISO-2, from reverse geocoding

	Weather      *WeatherSummary `json:"weather,omitempty"`
	WeatherError string          `json:"weather_error,omitempty"`

	Soil      string `json:"soil,omitempty"` // human-readable layer readings or the no-data marker
	SoilError string `json:"soil_error,omitempty"`

	Vegetation      *NDVISummary `json:"vegetation,omitempty"`
	VegetationError string       `json:"vegetation_error,omitempty"`

	CollectedAt time.Time `json:"collected_at"`
}

// Complete reports whether every collection section carries either a result
// or an explicit error marker. A record must be complete before it is
// forwarded to the economic stage.
func (r CollectedRecord) Complete() bool {
	weather := r.Weather != nil || r.WeatherError != ""
	soil := r.Soil != "" || r.SoilError != ""
	vegetation := r.Vegetation != nil || r.VegetationError != ""
	return weather && soil && vegetation
}

// ImpactAnalysis is the terminal artifact of a pipeline run.
type ImpactAnalysis struct {
	RunID       string    `json:"run_id"`
	Location    string    `json:"location"`
	Summary     string    `json:"summary"`
	KeyPhrases  []string  `json:"key_phrases"`
	GeneratedAt time.Time `json:"generated_at"`
}
