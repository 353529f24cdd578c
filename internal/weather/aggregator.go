package weather

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/geoimpact/impact-profiler/internal/domain"
	"github.com/geoimpact/impact-profiler/internal/observability"
)

// Aggregator fetches a bounded daily series and reduces it to a cached
// summary. A cache hit bypasses the network entirely; the check-fetch-store
// sequence is serialized per cache key so two runs targeting the same key
// perform exactly one fetch sequence.
type Aggregator struct {
	provider DailyProvider
	cache    SummaryCache
	limiter  *rate.Limiter
	logger   *slog.Logger
	metrics  *observability.Metrics
	keys     keyedMutex
}

// NewAggregator creates an Aggregator. pacing is the fixed delay enforced
// between per-day requests.
func NewAggregator(provider DailyProvider, cache SummaryCache, pacing time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Aggregator {
	return &Aggregator{
		provider: provider,
		cache:    cache,
		limiter:  rate.NewLimiter(rate.Every(pacing), 1),
		logger:   logger,
		metrics:  metrics,
	}
}

// Aggregate returns the weather summary for the inclusive date range,
// computing and caching it on first use. A day that fails upstream is
// logged and skipped; the summary covers however many days succeeded. Zero
// usable days yields domain.ErrEmptySeries, which is never cached.
func (a *Aggregator) Aggregate(ctx context.Context, coord domain.Coordinate, start, end time.Time, cacheKey string) (domain.WeatherSummary, error) {
	unlock := a.keys.lock(cacheKey)
	defer unlock()

	if summary, ok := a.cache.Get(cacheKey); ok {
		a.metrics.CacheLookups.WithLabelValues("weather", "hit").Inc()
		return summary, nil
	}
	a.metrics.CacheLookups.WithLabelValues("weather", "miss").Inc()

	days, err := a.fetchRange(ctx, coord, start, end)
	if err != nil {
		return domain.WeatherSummary{}, err
	}

	summary, err := domain.AggregateWeather(days)
	if err != nil {
		return domain.WeatherSummary{}, err
	}

	a.cache.Put(cacheKey, summary)
	return summary, nil
}

// fetchRange requests one record per day in [start, end], pacing requests
// through the rate limiter. Per-day failures are skipped, not retried.
func (a *Aggregator) fetchRange(ctx context.Context, coord domain.Coordinate, start, end time.Time) ([]domain.WeatherRecord, error) {
	var days []domain.WeatherRecord

	for date := start; !date.After(end); date = date.AddDate(0, 0, 1) {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		fetchStart := time.Now()
		record, err := a.provider.DailySummary(ctx, coord, date)
		a.metrics.UpstreamDuration.WithLabelValues("weather").Observe(time.Since(fetchStart).Seconds())

		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			a.logger.Warn("daily weather fetch failed, skipping day",
				"date", date.Format("2006-01-02"),
				"lat", coord.Lat,
				"lon", coord.Lon,
				"error", err,
			)
			a.metrics.UpstreamRequests.WithLabelValues("weather", "skipped").Inc()
			continue
		}

		a.metrics.UpstreamRequests.WithLabelValues("weather", "success").Inc()
		days = append(days, record)
	}

	return days, nil
}

// keyedMutex serializes callers per string key.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
