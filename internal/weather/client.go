package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/geoimpact/impact-profiler/internal/domain"
)

// Client implements DailyProvider against an OpenWeather-style daily
// summary endpoint.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates a daily weather client.
func NewClient(baseURL, apiKey string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		logger:  logger,
	}
}

// DailySummary fetches one day's record. Non-success upstream statuses wrap
// domain.ErrUpstreamUnavailable so callers can skip the day.
func (c *Client) DailySummary(ctx context.Context, coord domain.Coordinate, date time.Time) (domain.WeatherRecord, error) {
	params := url.Values{
		"lat":   {fmt.Sprintf("%.6f", coord.Lat)},
		"lon":   {fmt.Sprintf("%.6f", coord.Lon)},
		"date":  {date.Format("2006-01-02")},
		"units": {"metric"},
		"appid": {c.apiKey},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/day_summary?"+params.Encode(), nil)
	if err != nil {
		return domain.WeatherRecord{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.WeatherRecord{}, fmt.Errorf("%w: weather request: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return domain.WeatherRecord{}, fmt.Errorf("%w: weather API status %d: %s", domain.ErrUpstreamUnavailable, resp.StatusCode, body)
	}

	var day daySummary
	if err := json.NewDecoder(resp.Body).Decode(&day); err != nil {
		return domain.WeatherRecord{}, fmt.Errorf("decode weather response: %w", err)
	}

	return domain.WeatherRecord{
		Date: date,
		Temperature: domain.Temperature{
			Min:       day.Temperature.Min,
			Max:       day.Temperature.Max,
			Afternoon: day.Temperature.Afternoon,
		},
		HumidityAfternoon: day.Humidity.Afternoon,
		PrecipitationMM:   day.Precipitation.Total,
	}, nil
}

// Daily summary API response shape.

type daySummary struct {
	Temperature struct {
		Min       float64 `json:"min"`
		Max       float64 `json:"max"`
		Afternoon float64 `json:"afternoon"`
	} `json:"temperature"`
	Humidity struct {
		Afternoon float64 `json:"afternoon"`
	} `json:"humidity"`
	Precipitation struct {
		Total float64 `json:"total"`
	} `json:"precipitation"`
}
