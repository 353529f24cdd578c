package domain

import "fmt"

// NotableRainfallMM is the single-day precipitation threshold above which a
// day is recorded as a notable rainfall event.
const NotableRainfallMM = 10.0

// AggregateWeather reduces a daily weather series to a summary. The input
// holds only the days that were successfully fetched; callers skip failed
// days upstream. An empty series returns ErrEmptySeries rather than a
// NaN-bearing summary.
//
// Key events collect, in date order, every day whose max temperature ties
// the overall max and every day whose precipitation exceeds
// [NotableRainfallMM].
func AggregateWeather(days []WeatherRecord) (WeatherSummary, error) {
	if len(days) == 0 {
		return WeatherSummary{}, ErrEmptySeries
	}

	summary := WeatherSummary{
		Temperature: TemperatureSummary{
			Min: days[0].Temperature.Min,
			Max: days[0].Temperature.Max,
		},
		Days: len(days),
	}

	var afternoonSum, humiditySum float64
	for _, day := range days {
		if day.Temperature.Min < summary.Temperature.Min {
			summary.Temperature.Min = day.Temperature.Min
		}
		if day.Temperature.Max > summary.Temperature.Max {
			summary.Temperature.Max = day.Temperature.Max
		}
		afternoonSum += day.Temperature.Afternoon
		humiditySum += day.HumidityAfternoon
		summary.TotalPrecipitation += day.PrecipitationMM
	}

	summary.Temperature.Average = afternoonSum / float64(len(days))
	summary.HumidityAverage = humiditySum / float64(len(days))
	summary.KeyEvents = collectWeatherEvents(days, summary.Temperature.Max)

	return summary, nil
}

// collectWeatherEvents walks the series in date order and emits one event
// per day tied for the overall max temperature, plus one per day with
// notable rainfall.
func collectWeatherEvents(days []WeatherRecord, maxTemp float64) []string {
	events := make([]string, 0, 2)
	for _, day := range days {
		date := day.Date.Format("2006-01-02")
		if day.Temperature.Max == maxTemp {
			events = append(events, fmt.Sprintf("highest temperature recorded on %s (%.1f°C)", date, maxTemp))
		}
		if day.PrecipitationMM > NotableRainfallMM {
			events = append(events, fmt.Sprintf("notable rainfall on %s (%.1f mm)", date, day.PrecipitationMM))
		}
	}
	return events
}
