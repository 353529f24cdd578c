package weather

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geoimpact/impact-profiler/internal/domain"
	"github.com/geoimpact/impact-profiler/internal/observability"
)

// --- mock provider ---

type mockProvider struct {
	mu      sync.Mutex
	calls   atomic.Int64
	failOn  map[string]bool // dates that return an upstream error
	records map[string]domain.WeatherRecord
}

func (m *mockProvider) DailySummary(_ context.Context, _ domain.Coordinate, date time.Time) (domain.WeatherRecord, error) {
	m.calls.Add(1)
	key := date.Format("2006-01-02")

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn[key] {
		return domain.WeatherRecord{}, domain.ErrUpstreamUnavailable
	}
	if rec, ok := m.records[key]; ok {
		return rec, nil
	}
	return domain.WeatherRecord{
		Date:              date,
		Temperature:       domain.Temperature{Min: 1, Max: 10, Afternoon: 7},
		HumidityAfternoon: 60,
		PrecipitationMM:   2,
	}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testAggregator(p DailyProvider) *Aggregator {
	return NewAggregator(p, NewInMemoryCache(), time.Millisecond, discardLogger(), observability.NewMetricsForTesting())
}

func dateOf(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

// --- tests ---

func TestAggregator_Aggregate_BasicRange(t *testing.T) {
	p := &mockProvider{}
	a := testAggregator(p)

	summary, err := a.Aggregate(context.Background(), domain.Coordinate{Lat: 39.78, Lon: -89.65},
		dateOf("2021-01-01"), dateOf("2021-01-03"), "springfield|2021-01-01..2021-01-03")
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Days)
	assert.Equal(t, int64(3), p.calls.Load())
	assert.Equal(t, 1.0, summary.Temperature.Min)
	assert.Equal(t, 10.0, summary.Temperature.Max)
	assert.InEpsilon(t, 6.0, summary.TotalPrecipitation, 1e-9)
}

func TestAggregator_Aggregate_CacheHitSkipsFetch(t *testing.T) {
	p := &mockProvider{}
	a := testAggregator(p)

	coord := domain.Coordinate{Lat: 39.78, Lon: -89.65}
	key := CacheKey("springfield", "2021-01-01", "2021-01-03")

	first, err := a.Aggregate(context.Background(), coord, dateOf("2021-01-01"), dateOf("2021-01-03"), key)
	require.NoError(t, err)
	callsAfterFirst := p.calls.Load()

	second, err := a.Aggregate(context.Background(), coord, dateOf("2021-01-01"), dateOf("2021-01-03"), key)
	require.NoError(t, err)

	assert.Equal(t, callsAfterFirst, p.calls.Load(), "cache hit must not touch the provider")
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("cached summary mismatch (-first +second):\n%s", diff)
	}
}

func TestAggregator_Aggregate_FailedDaySkipped(t *testing.T) {
	p := &mockProvider{failOn: map[string]bool{"2021-01-02": true}}
	a := testAggregator(p)

	summary, err := a.Aggregate(context.Background(), domain.Coordinate{Lat: 39.78, Lon: -89.65},
		dateOf("2021-01-01"), dateOf("2021-01-03"), "k1")
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Days, "summary computed over the days that succeeded")
	assert.Equal(t, int64(3), p.calls.Load(), "failed day is skipped, not retried")
}

func TestAggregator_Aggregate_AllDaysFailed(t *testing.T) {
	p := &mockProvider{failOn: map[string]bool{
		"2021-01-01": true, "2021-01-02": true, "2021-01-03": true,
	}}
	a := testAggregator(p)

	_, err := a.Aggregate(context.Background(), domain.Coordinate{},
		dateOf("2021-01-01"), dateOf("2021-01-03"), "k2")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrEmptySeries))

	// An empty-series failure must not be cached: a later call retries.
	_, err = a.Aggregate(context.Background(), domain.Coordinate{},
		dateOf("2021-01-01"), dateOf("2021-01-03"), "k2")
	require.Error(t, err)
	assert.Equal(t, int64(6), p.calls.Load())
}

func TestAggregator_Aggregate_ConcurrentSameKeySingleFetch(t *testing.T) {
	p := &mockProvider{}
	a := testAggregator(p)

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := a.Aggregate(context.Background(), domain.Coordinate{},
				dateOf("2021-01-01"), dateOf("2021-01-02"), "shared-key")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(2), p.calls.Load(), "same key must fetch exactly once across concurrent runs")
}

func TestAggregator_Aggregate_ContextCancelled(t *testing.T) {
	p := &mockProvider{}
	a := testAggregator(p)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.Aggregate(ctx, domain.Coordinate{}, dateOf("2021-01-01"), dateOf("2021-12-31"), "k3")
	require.Error(t, err)
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "springfield|2021-01-01..2021-01-03", CacheKey("springfield", "2021-01-01", "2021-01-03"))
}
