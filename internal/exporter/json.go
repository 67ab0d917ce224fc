package exporter

import (
	"encoding/json"
	"fmt"

	"github.com/oinktech/StockAPI/pkg/contracts/domain"
)

// JSONExporter renders the dataset as an array of row records.
type JSONExporter struct{}

// Record is one exported row
type Record struct {
	Date     string       `json:"Date"`
	Open     *json.Number `json:"Open"`
	High     *json.Number `json:"High"`
	Low      *json.Number `json:"Low"`
	Close    *json.Number `json:"Close"`
	AdjClose *json.Number `json:"Adj Close"`
	Volume   int64        `json:"Volume"`
	Ticker   string       `json:"Ticker"`
}

// Format implements Exporter
func (e *JSONExporter) Format() domain.Format { return domain.FormatJSON }

// Export implements Exporter
func (e *JSONExporter) Export(ds domain.Dataset) (*domain.Artifact, error) {
	records := make([]Record, 0, ds.Len())
	for _, p := range ds.Rows {
		records = append(records, Record{
			Date:     p.Date.Format(domain.DateLayout),
			Open:     jsonDecimal(p.Open),
			High:     jsonDecimal(p.High),
			Low:      jsonDecimal(p.Low),
			Close:    jsonDecimal(p.Close),
			AdjClose: jsonDecimal(p.AdjClose),
			Volume:   p.Volume,
			Ticker:   p.Ticker,
		})
	}

	content, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("encode records: %w", err)
	}

	return &domain.Artifact{
		Kind:        domain.KindStructuredRecords,
		Format:      domain.FormatJSON,
		ContentType: "application/json",
		Extension:   "json",
		Content:     content,
		Rows:        ds.Len(),
	}, nil
}
