package soil

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/geoimpact/impact-profiler/internal/domain"
	"github.com/geoimpact/impact-profiler/internal/observability"
)

// offsets applied independently to latitude and longitude during the
// spatial fallback search. Latitude is the outer loop, so candidates are
// visited in the fixed order (-0.5,-0.5), (-0.5,0), ..., (0.5,0.5).
var offsets = []float64{-0.5, 0, 0.5}

// Sampler runs the bounded spatial fallback search: up to 9 candidate
// points, first valid sample wins.
type Sampler struct {
	service    PointService
	properties []string
	depths     []string
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewSampler creates a Sampler using the default property and depth sets.
func NewSampler(service PointService, logger *slog.Logger, metrics *observability.Metrics) *Sampler {
	return &Sampler{
		service:    service,
		properties: DefaultProperties,
		depths:     DefaultDepths,
		logger:     logger,
		metrics:    metrics,
	}
}

// Sample searches the 3x3 offset grid around coord and returns the summary
// of the first valid candidate. Candidate failures (upstream errors or
// all-null samples) are logged and skipped; exhausting the grid returns
// domain.ErrNoValidSample. Worst case cost is 9 upstream calls.
func (s *Sampler) Sample(ctx context.Context, coord domain.Coordinate) (string, error) {
	for _, latOffset := range offsets {
		for _, lonOffset := range offsets {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}

			candidate := domain.Coordinate{
				Lat: coord.Lat + latOffset,
				Lon: coord.Lon + lonOffset,
			}

			start := time.Now()
			sample, err := s.service.SampleProperties(ctx, candidate, s.properties, s.depths)
			s.metrics.UpstreamDuration.WithLabelValues("soil").Observe(time.Since(start).Seconds())

			if err != nil {
				s.logger.Warn("soil candidate fetch failed, trying next offset",
					"lat", candidate.Lat,
					"lon", candidate.Lon,
					"error", err,
				)
				s.metrics.UpstreamRequests.WithLabelValues("soil", "error").Inc()
				continue
			}

			if !sample.Valid() {
				s.logger.Debug("soil candidate has no readable layers",
					"lat", candidate.Lat,
					"lon", candidate.Lon,
				)
				s.metrics.UpstreamRequests.WithLabelValues("soil", "empty").Inc()
				continue
			}

			s.metrics.UpstreamRequests.WithLabelValues("soil", "success").Inc()
			return domain.SummarizeSoil(sample), nil
		}
	}

	return "", fmt.Errorf("%w: exhausted %d candidates around (%.4f, %.4f)",
		domain.ErrNoValidSample, len(offsets)*len(offsets), coord.Lat, coord.Lon)
}
