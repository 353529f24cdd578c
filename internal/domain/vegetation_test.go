package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRescaleNDVI(t *testing.T) {
	tests := []struct {
		name     string
		raw      uint8
		expected float64
	}{
		{"zero maps to -1", 0, -1},
		{"full scale maps to 1", 255, 1},
		{"midpoint near zero", 128, float64(128)/255*2 - 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, RescaleNDVI(tt.raw), 1e-9)
		})
	}
}

func TestRescaleNDVI_RoundTrip(t *testing.T) {
	// Inverse of the rescale is raw = (v+1)/2*255; the round trip must hold
	// for every representable pixel up to float rounding.
	for raw := 0; raw <= 255; raw++ {
		v := RescaleNDVI(uint8(raw))
		back := (v + 1) / 2 * 255
		assert.InDelta(t, float64(raw), back, 1e-9)
	}
}

func TestAnalyzeNDVI(t *testing.T) {
	t.Run("empty frame carries no-data marker", func(t *testing.T) {
		summary := AnalyzeNDVI(nil)
		assert.True(t, summary.NoData)
		assert.Empty(t, summary.Trend)
		assert.Empty(t, summary.KeyEvents)
	})

	t.Run("frame of empty rows carries no-data marker", func(t *testing.T) {
		summary := AnalyzeNDVI(NDVIFrame{{}, {}})
		assert.True(t, summary.NoData)
	})

	t.Run("uniform frame is stable", func(t *testing.T) {
		// raw 140 → NDVI ≈ 0.098: low spread, low mean.
		summary := AnalyzeNDVI(NDVIFrame{{140, 140}, {140, 140}})
		require.False(t, summary.NoData)
		assert.Equal(t, TrendStable, summary.Trend)
		assert.Equal(t, summary.Max, summary.Min)
		assert.Equal(t, []string{NoVegetationEvents}, summary.KeyEvents)
	})

	t.Run("high mean low spread is consistently high", func(t *testing.T) {
		// raw 200 → NDVI ≈ 0.57, raw 210 → ≈ 0.65: mean > 0.4, spread < 0.5.
		summary := AnalyzeNDVI(NDVIFrame{{200, 210}, {205, 208}})
		assert.Equal(t, TrendConsistentlyHigh, summary.Trend)
	})

	t.Run("spread wins over level", func(t *testing.T) {
		// raw 255 → 1.0, raw 120 → ≈ -0.06: spread > 0.5 even though mean > 0.4.
		summary := AnalyzeNDVI(NDVIFrame{{255, 255}, {255, 120}})
		assert.Equal(t, TrendFluctuating, summary.Trend)
	})
}

func TestAnalyzeNDVI_KeyEvents(t *testing.T) {
	t.Run("high vegetation event", func(t *testing.T) {
		summary := AnalyzeNDVI(NDVIFrame{{220, 215}}) // max ≈ 0.73
		require.Len(t, summary.KeyEvents, 1)
		assert.Contains(t, summary.KeyEvents[0], "high vegetation density")
	})

	t.Run("barren event", func(t *testing.T) {
		summary := AnalyzeNDVI(NDVIFrame{{80, 130}}) // min ≈ -0.37
		require.NotEmpty(t, summary.KeyEvents)
		assert.Contains(t, summary.KeyEvents[0], "barren or low-vegetation")
	})

	t.Run("both events", func(t *testing.T) {
		summary := AnalyzeNDVI(NDVIFrame{{250, 60}})
		require.Len(t, summary.KeyEvents, 2)
		assert.Contains(t, summary.KeyEvents[0], "high vegetation density")
		assert.Contains(t, summary.KeyEvents[1], "barren or low-vegetation")
	})

	t.Run("no significant events", func(t *testing.T) {
		summary := AnalyzeNDVI(NDVIFrame{{150, 160}})
		assert.Equal(t, []string{NoVegetationEvents}, summary.KeyEvents)
	})
}
