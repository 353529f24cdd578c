// Package textanalytics turns a collected record and its economic
// indicators into the final narrative, optionally enriched with key
// phrases from a hosted language service.
package textanalytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/geoimpact/impact-profiler/internal/domain"
)

// KeyPhraseExtractor pulls the salient phrases out of a block of text.
type KeyPhraseExtractor interface {
	ExtractKeyPhrases(ctx context.Context, text string) ([]string, error)
}

// Client implements KeyPhraseExtractor against an Azure-Language-style
// key-phrase endpoint.
type Client struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	logger     *slog.Logger
}

// NewClient creates a key-phrase extraction client.
func NewClient(endpoint, apiKey string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		endpoint: endpoint,
		apiKey:   apiKey,
		logger:   logger,
	}
}

type extractionRequest struct {
	Documents []extractionDocument `json:"documents"`
}

type extractionDocument struct {
	ID       string `json:"id"`
	Language string `json:"language"`
	Text     string `json:"text"`
}

type extractionResponse struct {
	Documents []struct {
		ID         string   `json:"id"`
		KeyPhrases []string `json:"keyPhrases"`
	} `json:"documents"`
	Errors []struct {
		ID    string `json:"id"`
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	} `json:"errors"`
}

func (c *Client) ExtractKeyPhrases(ctx context.Context, text string) ([]string, error) {
	payload, err := json.Marshal(extractionRequest{
		Documents: []extractionDocument{{ID: "1", Language: "en", Text: text}},
	})
	if err != nil {
		return nil, fmt.Errorf("encoding extraction request: %w", err)
	}

	reqURL := c.endpoint + "/text/analytics/v3.1/keyPhrases"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building extraction request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Ocp-Apim-Subscription-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: extraction request: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: language service returned %d: %s", domain.ErrUpstreamUnavailable, resp.StatusCode, body)
	}

	var parsed extractionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding extraction response: %w", err)
	}
	if len(parsed.Errors) > 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrExtractionFailure, parsed.Errors[0].Error.Message)
	}
	if len(parsed.Documents) == 0 {
		return nil, fmt.Errorf("%w: no documents in response", domain.ErrExtractionFailure)
	}
	return parsed.Documents[0].KeyPhrases, nil
}
