// Package domain models the environmental and economic impact profile
// assembled for a named location.
//
// # Pipeline Shape
//
// A profile is built by a chain of independently-scheduled stages that
// exchange typed messages: location resolution, weather aggregation, soil
// sampling, vegetation index analysis, economic indicator fusion, and a
// final natural-language summary. Each stage appends its result to a
// [CollectedRecord] and forwards it. Stage failures are encoded as explicit
// marker fields inside the record rather than aborting the run, so a
// downstream stage always receives a record of complete shape and decides
// how to render unavailable sections.
//
// # Data Conventions
//
// Weather:
//
//	Daily records carry min/max/afternoon temperature (°C), afternoon
//	relative humidity (%), and total precipitation (mm). Aggregation is
//	computed over however many days were fetched successfully; a day that
//	fails upstream is skipped, never retried. Precipitation above 10 mm in
//	a single day is treated as a notable rainfall event.
//
// NDVI:
//
//	Raster pixels arrive as 8-bit grayscale intensities in [0,255] and are
//	rescaled to the normalized vegetation index range [-1,1] via
//	value = (raw/255)*2 - 1. Trend classification checks spread before
//	level: a max-min spread above 0.5 reads "fluctuating", otherwise a mean
//	above 0.4 reads "consistently high", otherwise "stable".
//
// Soil:
//
//	A point sample is valid when at least one property layer carries a
//	non-null mean. Samplers fall back to a bounded 3x3 grid of ±0.5 degree
//	offsets around the requested point before giving up.
//
// Economic indicators:
//
//	An indicator value is the most recent observation with a non-null value
//	at or before the cutoff year, never a future one. Series arrive in
//	arbitrary year order and are sorted here.
package domain
