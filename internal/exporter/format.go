package exporter

import (
	"encoding/json"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/oinktech/StockAPI/pkg/contracts/domain"
)

// formatDecimal renders a price with its full precision; missing values are empty.
func formatDecimal(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}

// jsonDecimal renders a price as a JSON number, or null when missing.
func jsonDecimal(d decimal.NullDecimal) *json.Number {
	if !d.Valid {
		return nil
	}
	n := json.Number(d.Decimal.String())
	return &n
}

func formatInt(i int64) string {
	return strconv.FormatInt(i, 10)
}

// record returns the row's cells in Columns order.
func record(p domain.PricePoint) []string {
	return []string{
		p.Date.Format(domain.DateLayout),
		formatDecimal(p.Open),
		formatDecimal(p.High),
		formatDecimal(p.Low),
		formatDecimal(p.Close),
		formatDecimal(p.AdjClose),
		formatInt(p.Volume),
		p.Ticker,
	}
}
