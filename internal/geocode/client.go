// Package geocode implements domain.Geocoder against an OpenWeather-style
// geocoding API with direct and reverse endpoints.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/geoimpact/impact-profiler/internal/domain"
)

// Client resolves location queries over HTTP.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates a geocoding client. baseURL is the API root without a
// trailing slash, e.g. "http://api.openweathermap.org/geo/1.0".
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

// Resolve converts a location query to a coordinate. An empty upstream
// result set is a resolution failure, never a zero coordinate.
func (c *Client) Resolve(ctx context.Context, query domain.LocationQuery) (domain.Coordinate, error) {
	q := query.Name
	if query.Admin != "" || query.Country != "" {
		q = strings.Join([]string{query.Name, query.Admin, query.Country}, ",")
	}

	params := url.Values{
		"q":     {q},
		"limit": {"1"},
		"appid": {c.apiKey},
	}

	var places []place
	if err := c.doRequest(ctx, c.baseURL+"/direct?"+params.Encode(), &places); err != nil {
		return domain.Coordinate{}, err
	}

	if len(places) == 0 {
		return domain.Coordinate{}, fmt.Errorf("%w: no match for %q", domain.ErrResolutionFailure, query.Name)
	}

	return domain.Coordinate{Lat: places[0].Lat, Lon: places[0].Lon}, nil
}

// ReverseResolve converts a coordinate to an ISO-2 country code.
func (c *Client) ReverseResolve(ctx context.Context, coord domain.Coordinate) (string, error) {
	params := url.Values{
		"lat":   {fmt.Sprintf("%.6f", coord.Lat)},
		"lon":   {fmt.Sprintf("%.6f", coord.Lon)},
		"limit": {"1"},
		"appid": {c.apiKey},
	}

	var places []place
	if err := c.doRequest(ctx, c.baseURL+"/reverse?"+params.Encode(), &places); err != nil {
		return "", err
	}

	if len(places) == 0 || places[0].Country == "" {
		return "", fmt.Errorf("%w: no country at (%.4f, %.4f)", domain.ErrResolutionFailure, coord.Lat, coord.Lon)
	}

	return places[0].Country, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string, out *[]place) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: geocode request: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: geocode API status %d: %s", domain.ErrUpstreamUnavailable, resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode geocode response: %w", err)
	}
	return nil
}

// Geocoding API response shape.

type place struct {
	Name    string  `json:"name"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Country string  `json:"country"` // ISO-2
	State   string  `json:"state"`
}
