package domain

import (
	"fmt"
	"sort"
	"strings"
)

// NoSoilDataMarker is the explicit summary used when no candidate point of
// the spatial fallback search yielded a readable layer.
const NoSoilDataMarker = "no valid soil data"

// Valid reports whether the sample carries at least one layer with a
// non-null mean. Invalid samples trigger the next fallback offset.
func (s SoilSample) Valid() bool {
	for _, layers := range s.Properties {
		for _, layer := range layers {
			if layer.Mean != nil {
				return true
			}
		}
	}
	return false
}

// SummarizeSoil renders a sample's readable layers as a single
// human-readable string, properties in alphabetical order, layers in
// provider order. Layers with a null mean are omitted. An invalid sample
// renders as [NoSoilDataMarker].
func SummarizeSoil(s SoilSample) string {
	names := make([]string, 0, len(s.Properties))
	for name := range s.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	var parts []string
	for _, name := range names {
		for _, layer := range s.Properties[name] {
			if layer.Mean == nil {
				continue
			}
			parts = append(parts, fmt.Sprintf("%s at %s: %.1f %s", name, layer.Depth, *layer.Mean, layer.Unit))
		}
	}

	if len(parts) == 0 {
		return NoSoilDataMarker
	}
	return strings.Join(parts, "; ")
}
