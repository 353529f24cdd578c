package domain

import "context"

// Geocoder resolves place names to coordinates and coordinates to country
// codes. Implementations return ErrResolutionFailure for an empty result
// set; a zero Coordinate is never used as a failure signal.
type Geocoder interface {
	// Resolve converts a location query to a coordinate.
	Resolve(ctx context.Context, query LocationQuery) (Coordinate, error)

	// ReverseResolve converts a coordinate to an ISO-2 country code.
	ReverseResolve(ctx context.Context, coord Coordinate) (string, error)
}
