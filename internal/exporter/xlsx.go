package exporter

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/oinktech/StockAPI/pkg/contracts/domain"
)

// SheetName is the worksheet holding exported rows.
const SheetName = "stock_data"

// XLSXExporter renders the dataset as a single-sheet workbook.
type XLSXExporter struct{}

// Format implements Exporter
func (e *XLSXExporter) Format() domain.Format { return domain.FormatXLSX }

// Export implements Exporter
func (e *XLSXExporter) Export(ds domain.Dataset) (*domain.Artifact, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]interface{}, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, p := range ds.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []interface{}{
			p.Date.Format(domain.DateLayout),
			cellNumber(p.Open),
			cellNumber(p.High),
			cellNumber(p.Low),
			cellNumber(p.Close),
			cellNumber(p.AdjClose),
			p.Volume,
			p.Ticker,
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("encode workbook: %w", err)
	}

	return &domain.Artifact{
		Kind:        domain.KindSpreadsheet,
		Format:      domain.FormatXLSX,
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Extension:   "xlsx",
		Content:     buf.Bytes(),
		Rows:        ds.Len(),
	}, nil
}

// cellNumber leaves missing prices as empty cells.
func cellNumber(d decimal.NullDecimal) interface{} {
	if !d.Valid {
		return nil
	}
	return d.Decimal.InexactFloat64()
}
