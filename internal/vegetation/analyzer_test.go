package vegetation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geoimpact/impact-profiler/internal/domain"
	"github.com/geoimpact/impact-profiler/internal/observability"
)

type stubProvider struct {
	frame domain.NDVIFrame
	err   error
	calls int
}

func (s *stubProvider) FetchNDVI(_ context.Context, _ RasterQuery) (domain.NDVIFrame, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.frame, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAnalyzer_Analyze(t *testing.T) {
	query := RasterQuery{
		Coordinate: domain.Coordinate{Lat: -1.29, Lon: 36.82},
		Start:      time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		End:        time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC),
	}

	t.Run("summarizes fetched frame", func(t *testing.T) {
		// All pixels at 230 rescale to about 0.80: dense vegetation.
		provider := &stubProvider{frame: domain.NDVIFrame{{230, 230}, {230, 230}}}
		a := NewAnalyzer(provider, discardLogger(), observability.NewMetricsForTesting())

		summary, err := a.Analyze(context.Background(), query)
		require.NoError(t, err)
		assert.False(t, summary.NoData)
		assert.Equal(t, domain.TrendConsistentlyHigh, summary.Trend)
		assert.InDelta(t, 0.80, summary.Mean, 0.01)
	})

	t.Run("empty frame yields no-data summary", func(t *testing.T) {
		provider := &stubProvider{frame: domain.NDVIFrame{}}
		a := NewAnalyzer(provider, discardLogger(), observability.NewMetricsForTesting())

		summary, err := a.Analyze(context.Background(), query)
		require.NoError(t, err)
		assert.True(t, summary.NoData)
	})

	t.Run("provider failure surfaces upstream error", func(t *testing.T) {
		provider := &stubProvider{err: domain.ErrUpstreamUnavailable}
		a := NewAnalyzer(provider, discardLogger(), observability.NewMetricsForTesting())

		_, err := a.Analyze(context.Background(), query)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrUpstreamUnavailable))
	})
}

func TestClient_FetchNDVI(t *testing.T) {
	t.Run("decodes byte grid", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/raster", r.URL.Path)
			assert.Equal(t, "ndvi", r.URL.Query().Get("band"))
			assert.Equal(t, "2024-05-01", r.URL.Query().Get("start"))
			assert.Equal(t, "0.20", r.URL.Query().Get("max_cloud"))

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"rows": [[0, 128], [255, 64]]}`))
		}))
		defer srv.Close()

		c := NewClient(srv.URL, 5*time.Second, discardLogger())
		frame, err := c.FetchNDVI(context.Background(), RasterQuery{
			Coordinate:     domain.Coordinate{Lat: 1, Lon: 2},
			Start:          time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
			End:            time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC),
			CloudThreshold: 0.2,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.NDVIFrame{{0, 128}, {255, 64}}, frame)
	})

	t.Run("non-200 maps to upstream error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		c := NewClient(srv.URL, 5*time.Second, discardLogger())
		_, err := c.FetchNDVI(context.Background(), RasterQuery{})
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrUpstreamUnavailable))
	})
}
