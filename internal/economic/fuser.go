package economic

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/geoimpact/impact-profiler/internal/domain"
	"github.com/geoimpact/impact-profiler/internal/observability"
)

// Fuser assembles the economic picture for a country: GDP and poverty rate
// from the indicator service, education spending from the SDMX service.
// Each lookup is best-effort; a failed or empty one leaves its field nil
// rather than failing the fuse. The education lookup is keyed by the ISO-3
// code carried on the GDP observation, so it is skipped entirely when GDP
// resolution produced nothing.
type Fuser struct {
	indicators IndicatorService
	education  EducationService
	cutoffYear int
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewFuser creates a Fuser. cutoffYear bounds how recent a qualifying
// observation may be.
func NewFuser(indicators IndicatorService, education EducationService, cutoffYear int, logger *slog.Logger, metrics *observability.Metrics) *Fuser {
	return &Fuser{
		indicators: indicators,
		education:  education,
		cutoffYear: cutoffYear,
		logger:     logger,
		metrics:    metrics,
	}
}

// Fuse looks up all three indicators for the country. countryCode is the
// ISO-2 code from reverse geocoding; an empty code means the run never
// resolved a country, and no lookup can proceed.
func (f *Fuser) Fuse(ctx context.Context, countryCode string) (domain.FusedIndicators, error) {
	if countryCode == "" {
		return domain.FusedIndicators{}, fmt.Errorf("%w: no country code for economic lookups", domain.ErrMissingDependency)
	}

	var fused domain.FusedIndicators

	if gdp, ok := f.fetchIndicator(ctx, countryCode, IndicatorGDP); ok {
		fused.GDP = &gdp
	}
	if poverty, ok := f.fetchIndicator(ctx, countryCode, IndicatorPoverty); ok {
		fused.PovertyRate = &poverty
	}

	if fused.GDP == nil {
		f.logger.Warn("skipping education lookup, no GDP observation to key it on",
			"country", countryCode,
			"error", domain.ErrMissingDependency,
		)
		f.metrics.StageFailures.WithLabelValues("economic").Inc()
		return fused, nil
	}

	series, err := f.education.FetchEducationSeries(ctx, fused.GDP.ISO3)
	if err != nil {
		f.logger.Warn("education series lookup failed",
			"iso3", fused.GDP.ISO3,
			"error", err,
		)
		f.metrics.StageFailures.WithLabelValues("economic").Inc()
		return fused, nil
	}
	if education, ok := domain.MostRecentObservation(series, f.cutoffYear); ok {
		// The SDMX series carries no country name; borrow GDP's.
		education.CountryName = fused.GDP.CountryName
		fused.EducationExpense = &education
	}

	return fused, nil
}

// fetchIndicator fetches one series and reduces it to its most recent
// qualifying observation.
func (f *Fuser) fetchIndicator(ctx context.Context, countryCode, indicator string) (domain.EconomicIndicator, bool) {
	series, err := f.indicators.FetchSeries(ctx, countryCode, indicator)
	if err != nil {
		f.logger.Warn("indicator series lookup failed",
			"country", countryCode,
			"indicator", indicator,
			"error", err,
		)
		f.metrics.StageFailures.WithLabelValues("economic").Inc()
		return domain.EconomicIndicator{}, false
	}
	return domain.MostRecentObservation(series, f.cutoffYear)
}
