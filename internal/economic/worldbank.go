// Package economic fetches national indicator series and fuses them into
// the per-run economic picture: GDP, poverty rate, and education spending.
package economic

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/geoimpact/impact-profiler/internal/domain"
)

// Indicator codes requested from the development-data provider.
const (
	IndicatorGDP     = "NY.GDP.MKTP.CD"
	IndicatorPoverty = "SI.POV.DDAY"
)

// IndicatorService fetches the annual series of one indicator for one
// country. The country code may be ISO-2 or ISO-3.
type IndicatorService interface {
	FetchSeries(ctx context.Context, countryCode, indicator string) ([]domain.Observation, error)
}

// WorldBankClient implements IndicatorService against the World Bank v2
// JSON API, which returns a two-element array of [paging, observations].
type WorldBankClient struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewWorldBankClient creates an indicator series client.
func NewWorldBankClient(baseURL string, timeout time.Duration, logger *slog.Logger) *WorldBankClient {
	return &WorldBankClient{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		logger:  logger,
	}
}

type worldBankEntry struct {
	CountryISO3 string `json:"countryiso3code"`
	Country     struct {
		Value string `json:"value"`
	} `json:"country"`
	Date  string   `json:"date"`
	Value *float64 `json:"value"`
}

func (c *WorldBankClient) FetchSeries(ctx context.Context, countryCode, indicator string) ([]domain.Observation, error) {
	params := url.Values{
		"format":   {"json"},
		"per_page": {"100"},
	}
	reqURL := fmt.Sprintf("%s/country/%s/indicator/%s?%s",
		c.baseURL, url.PathEscape(countryCode), url.PathEscape(indicator), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building indicator request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: indicator request: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: indicator service returned %d: %s", domain.ErrUpstreamUnavailable, resp.StatusCode, body)
	}

	// The API wraps the series in [pagingMetadata, entries]; an unknown
	// country yields a one-element array carrying an error message.
	var envelope []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decoding indicator response: %w", err)
	}
	if len(envelope) < 2 {
		return nil, fmt.Errorf("indicator %s for %s: no series in response", indicator, countryCode)
	}

	var entries []worldBankEntry
	if err := json.Unmarshal(envelope[1], &entries); err != nil {
		return nil, fmt.Errorf("decoding indicator series: %w", err)
	}

	observations := make([]domain.Observation, 0, len(entries))
	for _, entry := range entries {
		year, err := strconv.Atoi(entry.Date)
		if err != nil {
			c.logger.Debug("skipping non-annual observation", "indicator", indicator, "date", entry.Date)
			continue
		}
		observations = append(observations, domain.Observation{
			Year:        year,
			Value:       entry.Value,
			ISO3:        entry.CountryISO3,
			CountryName: entry.Country.Value,
		})
	}
	return observations, nil
}
