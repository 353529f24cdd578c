package domain

import "errors"

// Failure taxonomy for the pipeline. Per-day and per-candidate failures
// inside fetch loops are logged and skipped locally; these sentinels mark
// whole-stage outcomes and are encoded into the CollectedRecord rather than
// thrown across the message boundary.
var (
	// ErrResolutionFailure means geocoding produced no match for the query.
	ErrResolutionFailure = errors.New("location resolution failed")

	// ErrUpstreamUnavailable wraps a non-success response from an external
	// data source.
	ErrUpstreamUnavailable = errors.New("upstream service unavailable")

	// ErrEmptySeries means zero usable samples survived a fetch loop, so
	// aggregation has nothing to average over.
	ErrEmptySeries = errors.New("empty series: no usable samples")

	// ErrNoValidSample means the soil spatial fallback search exhausted all
	// candidate offsets without finding a readable layer.
	ErrNoValidSample = errors.New("no valid sample after spatial fallback")

	// ErrMissingDependency means a lookup was attempted without a value it
	// depends on, e.g. education expenditure without a resolved ISO-3 code.
	ErrMissingDependency = errors.New("missing dependency for lookup")

	// ErrExtractionFailure means the key-phrase extraction service was
	// unavailable or rejected the document.
	ErrExtractionFailure = errors.New("key phrase extraction failed")
)
