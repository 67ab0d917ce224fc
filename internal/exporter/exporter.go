package exporter

import (
	"sort"

	apperrors "github.com/oinktech/StockAPI/internal/errors"
	"github.com/oinktech/StockAPI/pkg/contracts/domain"
)

// Columns is the column order shared by every tabular export.
var Columns = []string{"Date", "Open", "High", "Low", "Close", "Adj Close", "Volume", "Ticker"}

// Exporter renders a dataset in one format.
type Exporter interface {
	Format() domain.Format
	Export(ds domain.Dataset) (*domain.Artifact, error)
}

// Options configures the built-in exporters
type Options struct {
	CSVBOM      bool
	ChartWidth  float64 // inches
	ChartHeight float64 // inches
}

// DefaultOptions returns a 10x5 inch chart and no CSV BOM.
func DefaultOptions() Options {
	return Options{ChartWidth: 10, ChartHeight: 5}
}

// Registry resolves formats to exporters.
type Registry struct {
	exporters map[domain.Format]Exporter
}

// NewRegistry creates a registry holding the given exporters
func NewRegistry(exporters ...Exporter) *Registry {
	r := &Registry{exporters: make(map[domain.Format]Exporter, len(exporters))}
	for _, e := range exporters {
		r.exporters[e.Format()] = e
	}
	return r
}

// NewDefaultRegistry registers csv, json, html, chart and xlsx exporters.
func NewDefaultRegistry(opts Options) *Registry {
	return NewRegistry(
		&CSVExporter{BOMPrefix: opts.CSVBOM},
		&JSONExporter{},
		&HTMLExporter{},
		&ChartExporter{Width: opts.ChartWidth, Height: opts.ChartHeight},
		&XLSXExporter{},
	)
}

// Lookup returns the exporter for format or an UnsupportedFormatError.
func (r *Registry) Lookup(format domain.Format) (Exporter, error) {
	e, ok := r.exporters[format]
	if !ok {
		return nil, apperrors.NewUnsupportedFormatError(string(format))
	}
	return e, nil
}

// Export renders ds in format.
func (r *Registry) Export(ds domain.Dataset, format domain.Format) (*domain.Artifact, error) {
	e, err := r.Lookup(format)
	if err != nil {
		return nil, err
	}
	return e.Export(ds)
}

// Formats lists the registered formats in name order
func (r *Registry) Formats() []domain.Format {
	out := make([]domain.Format, 0, len(r.exporters))
	for f := range r.exporters {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
