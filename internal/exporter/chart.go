package exporter

import (
	"bytes"
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/oinktech/StockAPI/pkg/contracts/domain"
)

// ChartExporter renders closing prices as a PNG line chart.
// Rows are plotted in dataset order, so interleaved tickers share one line.
type ChartExporter struct {
	Width  float64 // inches, 10 when zero
	Height float64 // inches, 5 when zero
}

// Format implements Exporter
func (e *ChartExporter) Format() domain.Format { return domain.FormatChart }

// Export implements Exporter
func (e *ChartExporter) Export(ds domain.Dataset) (*domain.Artifact, error) {
	p := plot.New()
	p.Title.Text = "Stock Prices"
	p.X.Label.Text = "Date"
	p.Y.Label.Text = "Price"
	p.X.Tick.Marker = plot.TimeTicks{Format: domain.DateLayout}
	p.Add(plotter.NewGrid())

	pts := make(plotter.XYs, 0, ds.Len())
	for _, row := range ds.Rows {
		if !row.Close.Valid {
			continue
		}
		pts = append(pts, plotter.XY{
			X: float64(row.Date.Unix()),
			Y: row.Close.Decimal.InexactFloat64(),
		})
	}

	if len(pts) > 0 {
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("build price line: %w", err)
		}
		line.Color = color.RGBA{B: 180, A: 255}
		p.Add(line)
	}

	content, err := renderPNG(p, e.Width, e.Height)
	if err != nil {
		return nil, err
	}

	return &domain.Artifact{
		Kind:        domain.KindChartImage,
		Format:      domain.FormatChart,
		ContentType: "image/png",
		Extension:   "png",
		Content:     content,
		Rows:        ds.Len(),
	}, nil
}

// MonitorChart renders the API request count as a single-bar PNG chart.
func MonitorChart(count int64, width, height float64) ([]byte, error) {
	p := plot.New()
	p.Title.Text = "API Requests Monitor"
	p.Y.Label.Text = "Number of Requests"
	p.Y.Min = 0

	bars, err := plotter.NewBarChart(plotter.Values{float64(count)}, vg.Points(60))
	if err != nil {
		return nil, fmt.Errorf("build request bar: %w", err)
	}
	bars.Color = color.RGBA{B: 180, A: 255}
	p.Add(bars)
	p.NominalX("API Call Count")

	return renderPNG(p, width, height)
}

func renderPNG(p *plot.Plot, width, height float64) ([]byte, error) {
	if width <= 0 {
		width = 10
	}
	if height <= 0 {
		height = 5
	}

	wt, err := p.WriterTo(vg.Length(width)*vg.Inch, vg.Length(height)*vg.Inch, "png")
	if err != nil {
		return nil, fmt.Errorf("create png canvas: %w", err)
	}

	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("render png: %w", err)
	}
	return buf.Bytes(), nil
}
