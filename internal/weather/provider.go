// Package weather fetches bounded daily weather series and reduces them to
// cached summaries.
package weather

import (
	"context"
	"time"

	"github.com/geoimpact/impact-profiler/internal/domain"
)

// DailyProvider fetches one day's weather record for a coordinate.
type DailyProvider interface {
	DailySummary(ctx context.Context, coord domain.Coordinate, date time.Time) (domain.WeatherRecord, error)
}

// SummaryCache stores computed weather summaries keyed by location and date
// range. Implementations must be safe for concurrent use.
type SummaryCache interface {
	Get(key string) (domain.WeatherSummary, bool)
	Put(key string, summary domain.WeatherSummary)
}
