package domain

import (
	"fmt"
	"strings"
)

// BuildNarrative renders the collected record and fused indicators into an
// ordered list of prose sentences, one per section. Section order is fixed
// (GDP, poverty, education, vegetation, weather, soil) regardless of which
// sections are missing; a missing section gets an explicit "unavailable"
// sentence so the narrative shape is stable.
func BuildNarrative(record CollectedRecord, indicators FusedIndicators) []string {
	country := countryLabel(indicators)

	sentences := make([]string, 0, 6)

	if gdp := indicators.GDP; gdp != nil {
		sentences = append(sentences, fmt.Sprintf("GDP of %s in %d: %.2f USD.", country, gdp.Year, gdp.Value))
	} else {
		sentences = append(sentences, fmt.Sprintf("GDP data for %s is unavailable.", country))
	}

	if pov := indicators.PovertyRate; pov != nil {
		sentences = append(sentences, fmt.Sprintf("Poverty rate in %s in %d: %.1f%% of the population.", country, pov.Year, pov.Value))
	} else {
		sentences = append(sentences, fmt.Sprintf("Poverty rate data for %s is unavailable.", country))
	}

	if edu := indicators.EducationExpense; edu != nil {
		sentences = append(sentences, fmt.Sprintf("Educational expenditure of %s: %.2f USD.", country, edu.Value))
	} else {
		sentences = append(sentences, fmt.Sprintf("No education data available for %s.", country))
	}

	sentences = append(sentences,
		vegetationSentence(record),
		weatherSentence(record),
		soilSentence(record),
	)

	return sentences
}

// JoinNarrative concatenates narrative sentences into the document handed
// to key-phrase extraction.
func JoinNarrative(sentences []string) string {
	return strings.Join(sentences, "\n")
}

func countryLabel(indicators FusedIndicators) string {
	if indicators.GDP != nil && indicators.GDP.CountryName != "" {
		return indicators.GDP.CountryName
	}
	if indicators.PovertyRate != nil && indicators.PovertyRate.CountryName != "" {
		return indicators.PovertyRate.CountryName
	}
	return "the region"
}

func vegetationSentence(record CollectedRecord) string {
	veg := record.Vegetation
	if veg == nil || veg.NoData {
		return "Vegetation index data is unavailable."
	}
	return fmt.Sprintf("NDVI summary: mean %.2f, max %.2f, min %.2f, trend %s. Vegetation events: %s.",
		veg.Mean, veg.Max, veg.Min, veg.Trend, strings.Join(veg.KeyEvents, ", "))
}

func weatherSentence(record CollectedRecord) string {
	w := record.Weather
	if w == nil {
		return "Weather data is unavailable."
	}
	return fmt.Sprintf("Temperature: max %.1f°C, avg %.2f°C. Average humidity: %.2f%%. Total precipitation: %.2f mm. Notable weather events: %s.",
		w.Temperature.Max, w.Temperature.Average, w.HumidityAverage, w.TotalPrecipitation, strings.Join(w.KeyEvents, ", "))
}

func soilSentence(record CollectedRecord) string {
	if record.Soil == "" || record.Soil == NoSoilDataMarker {
		return "Soil data is unavailable."
	}
	return fmt.Sprintf("Soil data: %s.", record.Soil)
}
