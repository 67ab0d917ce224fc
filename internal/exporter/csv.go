package exporter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/oinktech/StockAPI/pkg/contracts/domain"
)

// CSVExporter renders the dataset as comma-separated text with a header row.
type CSVExporter struct {
	BOMPrefix bool // UTF-8 BOM for Excel
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool
}

// Format implements Exporter
func (e *CSVExporter) Format() domain.Format { return domain.FormatCSV }

// Export implements Exporter
func (e *CSVExporter) Export(ds domain.Dataset) (*domain.Artifact, error) {
	records := make([][]string, 0, ds.Len())
	for _, p := range ds.Rows {
		records = append(records, record(p))
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, WriteOptions{Headers: Columns, Records: records, BOMPrefix: e.BOMPrefix}); err != nil {
		return nil, err
	}

	return &domain.Artifact{
		Kind:        domain.KindTabularText,
		Format:      domain.FormatCSV,
		ContentType: "text/csv; charset=utf-8",
		Extension:   "csv",
		Content:     buf.Bytes(),
		Rows:        ds.Len(),
	}, nil
}

// WriteCSV writes headers and records to w
func WriteCSV(w io.Writer, options WriteOptions) error {
	if options.BOMPrefix {
		if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(w)

	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}

	for i, rec := range options.Records {
		if err := writer.Write(rec); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
