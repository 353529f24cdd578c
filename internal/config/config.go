package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers      []string
	KafkaRequestTopic string // incoming location queries
	KafkaRecordTopic  string // collected records forwarded to the impact stage
	KafkaReportTopic  string // final impact analyses
	KafkaGroupID      string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Geocoding service (direct and reverse endpoints).
	GeocodeBaseURL   string
	GeocodeAPIKey    string
	GeocodeTimeout   time.Duration
	GeocodeCacheSize int

	// Daily weather service.
	WeatherBaseURL string
	WeatherAPIKey  string
	WeatherTimeout time.Duration
	// WeatherPacing is the fixed delay enforced between per-day requests to
	// respect upstream rate limits.
	WeatherPacing time.Duration

	// Soil point-sample service.
	SoilBaseURL string
	SoilTimeout time.Duration

	// Satellite median-NDVI raster service.
	SatelliteBaseURL string
	SatelliteTimeout time.Duration
	CloudThreshold   float64 // maximum cloud cover fraction accepted for a raster

	// Economic indicator services.
	IndicatorBaseURL string // World Bank-style series API
	SDMXBaseURL      string // OECD-style education expenditure API
	CutoffYear       int

	// Key-phrase extraction service. A key implies enabled.
	TextAnalyticsEndpoint string
	TextAnalyticsKey      string
	TextAnalyticsEnabled  bool
	TextAnalyticsTimeout  time.Duration

	// QueryTimeout bounds request/reply exchanges on the message bus.
	QueryTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parsePositiveDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	geocodeTimeout, err := parsePositiveDuration("GEOCODE_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	weatherTimeout, err := parsePositiveDuration("WEATHER_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	weatherPacing, err := parsePositiveDuration("WEATHER_PACING", "200ms")
	if err != nil {
		return nil, err
	}
	soilTimeout, err := parsePositiveDuration("SOIL_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	satelliteTimeout, err := parsePositiveDuration("SATELLITE_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	textTimeout, err := parsePositiveDuration("TEXT_ANALYTICS_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	queryTimeout, err := parsePositiveDuration("QUERY_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	cutoffYear, err := parseCutoffYear()
	if err != nil {
		return nil, err
	}
	cloudThreshold, err := parseCloudThreshold()
	if err != nil {
		return nil, err
	}

	textKey := os.Getenv("TEXT_ANALYTICS_KEY")
	textEnabled := textKey != ""
	if v := os.Getenv("TEXT_ANALYTICS_ENABLED"); v != "" {
		textEnabled = v == "true"
	}

	cfg := &Config{
		KafkaBrokers:      parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaRequestTopic: envOrDefault("KAFKA_REQUEST_TOPIC", "profile-requests"),
		KafkaRecordTopic:  envOrDefault("KAFKA_RECORD_TOPIC", "collected-records"),
		KafkaReportTopic:  envOrDefault("KAFKA_REPORT_TOPIC", "impact-reports"),
		KafkaGroupID:      envOrDefault("KAFKA_GROUP_ID", "impact-profiler"),
		HTTPAddr:          envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:          envOrDefault("LOG_LEVEL", "info"),
		LogFormat:         envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:   shutdownTimeout,

		GeocodeBaseURL:   envOrDefault("GEOCODE_BASE_URL", "http://api.openweathermap.org/geo/1.0"),
		GeocodeAPIKey:    os.Getenv("GEOCODE_API_KEY"),
		GeocodeTimeout:   geocodeTimeout,
		GeocodeCacheSize: parsePositiveIntOrDefault("GEOCODE_CACHE_SIZE", 1000),

		WeatherBaseURL: envOrDefault("WEATHER_BASE_URL", "https://api.openweathermap.org/data/3.0/onecall"),
		WeatherAPIKey:  os.Getenv("WEATHER_API_KEY"),
		WeatherTimeout: weatherTimeout,
		WeatherPacing:  weatherPacing,

		SoilBaseURL: envOrDefault("SOIL_BASE_URL", "https://rest.isric.org/soilgrids/v2.0"),
		SoilTimeout: soilTimeout,

		SatelliteBaseURL: os.Getenv("SATELLITE_BASE_URL"),
		SatelliteTimeout: satelliteTimeout,
		CloudThreshold:   cloudThreshold,

		IndicatorBaseURL: envOrDefault("INDICATOR_BASE_URL", "https://api.worldbank.org/v2"),
		SDMXBaseURL:      envOrDefault("SDMX_BASE_URL", "https://sdmx.oecd.org/public/rest/data"),
		CutoffYear:       cutoffYear,

		TextAnalyticsEndpoint: os.Getenv("TEXT_ANALYTICS_ENDPOINT"),
		TextAnalyticsKey:      textKey,
		TextAnalyticsEnabled:  textEnabled,
		TextAnalyticsTimeout:  textTimeout,

		QueryTimeout: queryTimeout,
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaRecordTopic == "" {
		return nil, errors.New("KAFKA_RECORD_TOPIC is required")
	}
	if cfg.KafkaReportTopic == "" {
		return nil, errors.New("KAFKA_REPORT_TOPIC is required")
	}
	if cfg.TextAnalyticsEnabled && (cfg.TextAnalyticsEndpoint == "" || cfg.TextAnalyticsKey == "") {
		return nil, errors.New("TEXT_ANALYTICS_ENABLED is true but TEXT_ANALYTICS_ENDPOINT or TEXT_ANALYTICS_KEY is not set")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBrokers(raw string) []string {
	parts := strings.Split(raw, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}

func parsePositiveDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveIntOrDefault(key string, fallback int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func parseCutoffYear() (int, error) {
	s := envOrDefault("CUTOFF_YEAR", "2021")
	year, err := strconv.Atoi(s)
	if err != nil || year < 1960 || year > 2100 {
		return 0, errors.New("invalid CUTOFF_YEAR")
	}
	return year, nil
}

func parseCloudThreshold() (float64, error) {
	s := envOrDefault("CLOUD_THRESHOLD", "0.2")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 || v > 1 {
		return 0, errors.New("invalid CLOUD_THRESHOLD")
	}
	return v, nil
}
