package domain

import (
	"fmt"
	"strings"
)

// Format identifies an export rendering
type Format string

const (
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
	FormatHTML  Format = "html"
	FormatChart Format = "chart"
	FormatXLSX  Format = "xlsx"
)

// ParseFormat normalizes a caller-provided format name.
// It does not check whether an exporter is registered for the result.
func ParseFormat(s string) Format {
	return Format(strings.ToLower(strings.TrimSpace(s)))
}

// ArtifactKind describes the shape of an exported artifact
type ArtifactKind string

const (
	KindTabularText       ArtifactKind = "tabular-text"
	KindStructuredRecords ArtifactKind = "structured-records"
	KindMarkupTable       ArtifactKind = "markup-table"
	KindChartImage        ArtifactKind = "chart-image"
	KindSpreadsheet       ArtifactKind = "spreadsheet"
)

// Artifact is the exported representation of a dataset.
type Artifact struct {
	Kind        ArtifactKind `json:"kind"`
	Format      Format       `json:"format"`
	ContentType string       `json:"content_type"`
	Extension   string       `json:"extension"`
	Content     []byte       `json:"-"`
	Rows        int          `json:"rows"`
}

// FileName builds the persisted file name for a date range.
func (a *Artifact) FileName(start, end string) string {
	return fmt.Sprintf("stock_data_%s_%s.%s", start, end, a.Extension)
}

// SortKey selects the dataset ordering
type SortKey string

const (
	SortByDate  SortKey = "date"
	SortByPrice SortKey = "price"
)
