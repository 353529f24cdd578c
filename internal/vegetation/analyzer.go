package vegetation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/geoimpact/impact-profiler/internal/domain"
	"github.com/geoimpact/impact-profiler/internal/observability"
)

// Analyzer fetches an NDVI frame for a point and reduces it to a vegetation
// summary. An empty frame is not an error: it yields a summary flagged as
// having no data, so downstream narrative stages can report the gap.
type Analyzer struct {
	provider RasterProvider
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewAnalyzer creates an Analyzer.
func NewAnalyzer(provider RasterProvider, logger *slog.Logger, metrics *observability.Metrics) *Analyzer {
	return &Analyzer{
		provider: provider,
		logger:   logger,
		metrics:  metrics,
	}
}

// Analyze fetches the NDVI raster for the query and summarizes it. Upstream
// failure is returned to the caller; an empty raster produces a no-data
// summary instead.
func (a *Analyzer) Analyze(ctx context.Context, query RasterQuery) (domain.NDVISummary, error) {
	fetchStart := time.Now()
	frame, err := a.provider.FetchNDVI(ctx, query)
	a.metrics.UpstreamDuration.WithLabelValues("satellite").Observe(time.Since(fetchStart).Seconds())

	if err != nil {
		a.metrics.UpstreamRequests.WithLabelValues("satellite", "error").Inc()
		return domain.NDVISummary{}, fmt.Errorf("fetching NDVI raster: %w", err)
	}
	a.metrics.UpstreamRequests.WithLabelValues("satellite", "success").Inc()

	summary := domain.AnalyzeNDVI(frame)
	if summary.NoData {
		a.logger.Warn("no usable NDVI pixels for query window",
			"lat", query.Coordinate.Lat,
			"lon", query.Coordinate.Lon,
			"start", query.Start.Format("2006-01-02"),
			"end", query.End.Format("2006-01-02"),
		)
	}
	return summary, nil
}
