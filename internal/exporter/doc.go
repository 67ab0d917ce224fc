// Package exporter renders a dataset into downloadable artifacts.
//
// Each output format has its own Exporter; a Registry maps format names to
// exporters and rejects anything it does not know:
//
//	csv    tabular text with a header row
//	json   an array of row records
//	html   a bordered markup table
//	chart  a PNG line chart of closing prices
//	xlsx   a single-sheet workbook
//
// Persist writes an artifact under an output directory.
package exporter
