package economic

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/geoimpact/impact-profiler/internal/domain"
)

// EducationService fetches a country's annual education-expenditure series.
// The country is addressed by ISO-3 code.
type EducationService interface {
	FetchEducationSeries(ctx context.Context, iso3 string) ([]domain.Observation, error)
}

// SDMXClient implements EducationService against an SDMX-ML generic-data
// endpoint publishing education spending as a share of GDP.
type SDMXClient struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewSDMXClient creates an education-expenditure client.
func NewSDMXClient(baseURL string, timeout time.Duration, logger *slog.Logger) *SDMXClient {
	return &SDMXClient{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		logger:  logger,
	}
}

// sdmxDocument matches the subset of an SDMX-ML generic data message we
// read: each observation's time dimension and value.
type sdmxDocument struct {
	Series []struct {
		Obs []struct {
			Dimension struct {
				Value string `xml:"value,attr"`
			} `xml:"ObsDimension"`
			Value struct {
				Value string `xml:"value,attr"`
			} `xml:"ObsValue"`
		} `xml:"Obs"`
	} `xml:"DataSet>Series"`
}

func (c *SDMXClient) FetchEducationSeries(ctx context.Context, iso3 string) ([]domain.Observation, error) {
	reqURL := fmt.Sprintf("%s/data/EDU_FIN/%s/all", c.baseURL, iso3)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building education request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.sdmx.genericdata+xml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: education request: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		// No dataset for this country; treat as an empty series.
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: education service returned %d: %s", domain.ErrUpstreamUnavailable, resp.StatusCode, body)
	}

	var doc sdmxDocument
	if err := xml.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding education response: %w", err)
	}

	var observations []domain.Observation
	for _, series := range doc.Series {
		for _, obs := range series.Obs {
			year, err := strconv.Atoi(obs.Dimension.Value)
			if err != nil {
				c.logger.Debug("skipping non-annual education observation", "time", obs.Dimension.Value)
				continue
			}
			value, err := strconv.ParseFloat(obs.Value.Value, 64)
			if err != nil {
				observations = append(observations, domain.Observation{Year: year, ISO3: iso3})
				continue
			}
			observations = append(observations, domain.Observation{
				Year:  year,
				Value: &value,
				ISO3:  iso3,
			})
		}
	}
	return observations, nil
}
