// Package vegetation fetches NDVI raster frames from a satellite imagery
// provider and condenses them into vegetation summaries.
package vegetation

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

// RasterQuery describes one NDVI frame request: a point of interest, an
// acquisition window, and the maximum acceptable cloud fraction.
type RasterQuery struct {
	Coordinate     domain.Coordinate
	Start          time.Time
	End            time.Time
	CloudThreshold float64
}

// RasterProvider fetches a raw NDVI raster for a query. Raw values are
// provider-scaled bytes; rescaling to the [-1, 1] index range happens
// downstream.
type RasterProvider interface {
	FetchNDVI(ctx context.Context, query RasterQuery) (domain.NDVIFrame, error)
}

// Client implements RasterProvider against a process-API-style imagery
// endpoint that returns the NDVI band as a row-major byte grid.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates a satellite raster client.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		logger:  logger,
	}
}

type rasterResponse struct {
	Rows [][]uint8 `json:"rows"`
}

func (c *Client) FetchNDVI(ctx context.Context, query RasterQuery) (domain.NDVIFrame, error) {
	params := url.Values{
		"lat":       {fmt.Sprintf("%.4f", query.Coordinate.Lat)},
		"lon":       {fmt.Sprintf("%.4f", query.Coordinate.Lon)},
		"start":     {query.Start.Format("2006-01-02")},
		"end":       {query.End.Format("2006-01-02")},
		"max_cloud": {fmt.Sprintf("%.2f", query.CloudThreshold)},
		"band":      {"ndvi"},
	}

	reqURL := fmt.Sprintf("%s/raster?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building raster request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: raster request: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: raster service returned %d: %s", domain.ErrUpstreamUnavailable, resp.StatusCode, body)
	}

	var parsed rasterResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding raster response: %w", err)
	}

	return domain.NDVIFrame(parsed.Rows), nil
}
