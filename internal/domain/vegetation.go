package domain

import "fmt"

// Notable-event thresholds for the vegetation index.
const (
	highVegetationNDVI = 0.6  // max above this marks dense vegetation
	barrenNDVI         = -0.2 // min below this marks barren ground
)

// NoVegetationEvents is the key-events entry used when neither notable
// threshold was crossed.
const NoVegetationEvents = "no significant events"

// RescaleNDVI maps a raw 8-bit pixel intensity to the normalized vegetation
// index range [-1,1].
func RescaleNDVI(raw uint8) float64 {
	return float64(raw)/255*2 - 1
}

// AnalyzeNDVI reduces a raster frame to an NDVI summary. An empty or absent
// frame yields a summary carrying only the no-data marker.
//
// Trend classification checks spread before level: max-min above 0.5 is
// "fluctuating", otherwise a mean above 0.4 is "consistently high",
// otherwise "stable".
func AnalyzeNDVI(frame NDVIFrame) NDVISummary {
	var sum float64
	var count int
	var minVal, maxVal float64

	for _, row := range frame {
		for _, raw := range row {
			v := RescaleNDVI(raw)
			if count == 0 {
				minVal, maxVal = v, v
			}
			if v < minVal {
				minVal = v
			}
			if v > maxVal {
				maxVal = v
			}
			sum += v
			count++
		}
	}

	if count == 0 {
		return NDVISummary{NoData: true}
	}

	summary := NDVISummary{
		Mean: sum / float64(count),
		Max:  maxVal,
		Min:  minVal,
	}
	summary.Trend = classifyNDVITrend(summary.Mean, summary.Max, summary.Min)
	summary.KeyEvents = collectNDVIEvents(summary.Max, summary.Min)
	return summary
}

func classifyNDVITrend(mean, maxVal, minVal float64) string {
	switch {
	case maxVal-minVal > 0.5:
		return TrendFluctuating
	case mean > 0.4:
		return TrendConsistentlyHigh
	default:
		return TrendStable
	}
}

func collectNDVIEvents(maxVal, minVal float64) []string {
	var events []string
	if maxVal > highVegetationNDVI {
		events = append(events, fmt.Sprintf("high vegetation density detected (max NDVI %.2f)", maxVal))
	}
	if minVal < barrenNDVI {
		events = append(events, fmt.Sprintf("barren or low-vegetation area detected (min NDVI %.2f)", minVal))
	}
	if len(events) == 0 {
		events = append(events, NoVegetationEvents)
	}
	return events
}
