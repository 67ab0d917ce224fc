// Package pipeline runs one stock-data request end to end:
//
//	validate -> fetch registry -> filter by industry -> fetch series
//	(bounded worker pool) -> aggregate -> sort -> export
//
// Per-ticker fetch failures are isolated: they are logged, reported to the
// ProgressReporter and listed in the Result, and the run continues with the
// tickers that succeeded. A run fails only when parameters are invalid, the
// registry cannot be read, no ticker produced data, or the format is unknown.
package pipeline
