package domain

import "sort"

// MostRecentObservation selects the most recent observation with a non-null
// value at or before the cutoff year. Observations after the cutoff never
// qualify regardless of recency. The second return is false when no
// observation qualifies.
func MostRecentObservation(series []Observation, cutoffYear int) (EconomicIndicator, bool) {
	qualifying := make([]Observation, 0, len(series))
	for _, obs := range series {
		if obs.Value == nil || obs.Year > cutoffYear {
			continue
		}
		qualifying = append(qualifying, obs)
	}
	if len(qualifying) == 0 {
		return EconomicIndicator{}, false
	}

	sort.SliceStable(qualifying, func(i, j int) bool {
		return qualifying[i].Year > qualifying[j].Year
	})

	best := qualifying[0]
	return EconomicIndicator{
		Value:       *best.Value,
		Year:        best.Year,
		ISO3:        best.ISO3,
		CountryName: best.CountryName,
	}, true
}
