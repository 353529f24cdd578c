// Package soil queries point-sample soil properties with a bounded spatial
// fallback search around the requested coordinate.
package soil

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

// Default property and depth sets requested from the provider.
var (
	DefaultProperties = []string{"clay", "sand", "silt", "phh2o", "soc"}
	DefaultDepths     = []string{"0-5cm", "5-15cm"}
)

// PointService fetches a multi-property, multi-depth soil sample for one
// coordinate.
type PointService interface {
	SampleProperties(ctx context.Context, coord domain.Coordinate, properties, depths []string) (domain.SoilSample, error)
}

// Client implements PointService against a SoilGrids-style REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates a soil point-query client.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		logger:  logger,
	}
}

func (c *Client) SampleProperties(ctx context.Context, coord domain.Coordinate, properties, depths []string) (domain.SoilSample, error) {
	params := url.Values{
		"lat": {fmt.Sprintf("%.4f", coord.Lat)},
		"lon": {fmt.Sprintf("%.4f", coord.Lon)},
	}
	for _, p := range properties {
		params.Add("property", p)
	}
	for _, d := range depths {
		params.Add("depth", d)
	}
	params.Add("value", "mean")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/properties/query?"+params.Encode(), nil)
	if err != nil {
		return domain.SoilSample{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.SoilSample{}, fmt.Errorf("%w: soil request: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return domain.SoilSample{}, fmt.Errorf("%w: soil API status %d: %s", domain.ErrUpstreamUnavailable, resp.StatusCode, body)
	}

	var payload queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return domain.SoilSample{}, fmt.Errorf("decode soil response: %w", err)
	}

	return mapSample(coord, payload), nil
}

// mapSample flattens the provider's layer hierarchy into a domain sample.
func mapSample(coord domain.Coordinate, payload queryResponse) domain.SoilSample {
	sample := domain.SoilSample{
		Coordinate: coord,
		Properties: make(map[string][]domain.SoilLayer, len(payload.Properties.Layers)),
	}
	for _, layer := range payload.Properties.Layers {
		depths := make([]domain.SoilLayer, 0, len(layer.Depths))
		for _, d := range layer.Depths {
			depths = append(depths, domain.SoilLayer{
				Depth: d.Label,
				Mean:  d.Values.Mean,
				Unit:  layer.UnitMeasure.MappedUnits,
			})
		}
		sample.Properties[layer.Name] = depths
	}
	return sample
}

// Soil API response shape.

type queryResponse struct {
	Properties struct {
		Layers []soilLayer `json:"layers"`
	} `json:"properties"`
}

type soilLayer struct {
	Name        string `json:"name"`
	UnitMeasure struct {
		MappedUnits string `json:"mapped_units"`
	} `json:"unit_measure"`
	Depths []soilDepth `json:"depths"`
}

type soilDepth struct {
	Label  string `json:"label"`
	Values struct {
		Mean *float64 `json:"mean"`
	} `json:"values"`
}
