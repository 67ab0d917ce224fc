package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar-date layout used for request parameters and exports.
const DateLayout = "2006-01-02"

// PricePoint is one trading day of one ticker.
// Price fields are invalid NullDecimals when the provider returned no value.
type PricePoint struct {
	Date     time.Time           `json:"date"`
	Open     decimal.NullDecimal `json:"open"`
	High     decimal.NullDecimal `json:"high"`
	Low      decimal.NullDecimal `json:"low"`
	Close    decimal.NullDecimal `json:"close"`
	AdjClose decimal.NullDecimal `json:"adj_close"`
	Volume   int64               `json:"volume"`
	Ticker   string              `json:"ticker"`
}

// Dataset is the merged, ticker-tagged collection of price rows.
type Dataset struct {
	Rows []PricePoint `json:"rows"`
}

// Len returns the number of rows.
func (d Dataset) Len() int {
	return len(d.Rows)
}

// Tickers returns the distinct tickers in first-seen order.
func (d Dataset) Tickers() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, row := range d.Rows {
		if _, ok := seen[row.Ticker]; ok {
			continue
		}
		seen[row.Ticker] = struct{}{}
		out = append(out, row.Ticker)
	}
	return out
}

// NewDate truncates t to a UTC calendar date.
func NewDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
