package domain

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildNarrative_AllSectionsPresent(t *testing.T) {
	record := CollectedRecord{
		Weather: &WeatherSummary{
			Temperature:        TemperatureSummary{Min: 2, Max: 12, Average: 7.5},
			HumidityAverage:    68,
			TotalPrecipitation: 4.5,
			KeyEvents:          []string{"highest temperature recorded on 2021-01-02 (12.0°C)"},
		},
		Soil: "clay at 0-5cm: 18.2 g/kg",
		Vegetation: &NDVISummary{
			Mean: 0.45, Max: 0.62, Min: 0.30,
			Trend:     TrendConsistentlyHigh,
			KeyEvents: []string{"high vegetation density detected (max NDVI 0.62)"},
		},
	}
	indicators := FusedIndicators{
		GDP:              &EconomicIndicator{Value: 3.1e12, Year: 2021, ISO3: "GBR", CountryName: "United Kingdom"},
		PovertyRate:      &EconomicIndicator{Value: 0.3, Year: 2020, CountryName: "United Kingdom"},
		EducationExpense: &EconomicIndicator{Value: 1.2e11, Year: 2021, ISO3: "GBR"},
	}

	sentences := BuildNarrative(record, indicators)
	require.Len(t, sentences, 6)

	assert.Contains(t, sentences[0], "GDP of United Kingdom in 2021")
	assert.Contains(t, sentences[1], "Poverty rate in United Kingdom in 2020")
	assert.Contains(t, sentences[2], "Educational expenditure of United Kingdom")
	assert.Contains(t, sentences[3], "NDVI summary")
	assert.Contains(t, sentences[3], TrendConsistentlyHigh)
	assert.Contains(t, sentences[4], "Total precipitation: 4.50 mm")
	assert.Contains(t, sentences[5], "Soil data: clay at 0-5cm: 18.2 g/kg.")
}

func TestBuildNarrative_MissingSectionsKeepOrder(t *testing.T) {
	sentences := BuildNarrative(CollectedRecord{}, FusedIndicators{})

	expected := []string{
		"GDP data for the region is unavailable.",
		"Poverty rate data for the region is unavailable.",
		"No education data available for the region.",
		"Vegetation index data is unavailable.",
		"Weather data is unavailable.",
		"Soil data is unavailable.",
	}
	if diff := cmp.Diff(expected, sentences); diff != "" {
		t.Fatalf("narrative mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildNarrative_NoDataVegetationReadsUnavailable(t *testing.T) {
	record := CollectedRecord{Vegetation: &NDVISummary{NoData: true}}
	sentences := BuildNarrative(record, FusedIndicators{})
	assert.Equal(t, "Vegetation index data is unavailable.", sentences[3])
}

func TestBuildNarrative_SoilMarkerReadsUnavailable(t *testing.T) {
	record := CollectedRecord{Soil: NoSoilDataMarker}
	sentences := BuildNarrative(record, FusedIndicators{})
	assert.Equal(t, "Soil data is unavailable.", sentences[5])
}

func TestJoinNarrative(t *testing.T) {
	joined := JoinNarrative([]string{"a.", "b."})
	assert.Equal(t, "a.\nb.", joined)
	assert.Equal(t, 2, len(strings.Split(joined, "\n")))
}

func TestCollectedRecord_Complete(t *testing.T) {
	tests := []struct {
		name     string
		record   CollectedRecord
		expected bool
	}{
		{"empty record", CollectedRecord{}, false},
		{
			"all results present",
			CollectedRecord{
				Weather:    &WeatherSummary{},
				Soil:       "clay at 0-5cm: 18.2 g/kg",
				Vegetation: &NDVISummary{},
			},
			true,
		},
		{
			"error markers count as present",
			CollectedRecord{
				WeatherError:    "empty series: no usable samples",
				SoilError:       "no valid sample after spatial fallback",
				VegetationError: "upstream service unavailable",
			},
			true,
		},
		{
			"one section missing",
			CollectedRecord{
				Weather: &WeatherSummary{},
				Soil:    NoSoilDataMarker,
			},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.record.Complete())
		})
	}
}
