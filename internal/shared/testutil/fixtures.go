package testutil

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/oinktech/StockAPI/pkg/contracts/domain"
)

// RegistryRow is one listed security in a fake registry page
type RegistryRow struct {
	Code     string
	Name     string
	Industry string
}

// RegistryPage renders a registry listing shaped like the TWSE ISIN page:
// a header row, a one-cell section row, then one row per security with the
// code, name and industry in cells 1, 2 and 3.
func RegistryPage(rows ...RegistryRow) string {
	var b strings.Builder
	b.WriteString("<html><head><title>ISIN</title></head><body>\n")
	b.WriteString(`<table class="h4" border="0">` + "\n")
	b.WriteString("<tr><td>ISIN</td><td>Code</td><td>Name</td><td>Industry</td><td>Listed</td></tr>\n")
	b.WriteString(`<tr><td colspan="5"><b> Stocks </b></td></tr>` + "\n")
	for i, r := range rows {
		fmt.Fprintf(&b, "<tr><td>TW000%04d</td><td> %s </td><td>%s</td><td>%s</td><td>2000/01/01</td></tr>\n",
			i, r.Code, r.Name, r.Industry)
	}
	b.WriteString("</table></body></html>\n")
	return b.String()
}

// Point builds a PricePoint with only a close price set
func Point(ticker string, date time.Time, close float64) domain.PricePoint {
	return domain.PricePoint{
		Date:   date,
		Close:  decimal.NewNullDecimal(decimal.NewFromFloat(close)),
		Ticker: ticker,
	}
}

// FullPoint builds a PricePoint with every column set
func FullPoint(ticker string, date time.Time, open, high, low, close float64, volume int64) domain.PricePoint {
	return domain.PricePoint{
		Date:     date,
		Open:     decimal.NewNullDecimal(decimal.NewFromFloat(open)),
		High:     decimal.NewNullDecimal(decimal.NewFromFloat(high)),
		Low:      decimal.NewNullDecimal(decimal.NewFromFloat(low)),
		Close:    decimal.NewNullDecimal(decimal.NewFromFloat(close)),
		AdjClose: decimal.NewNullDecimal(decimal.NewFromFloat(close)),
		Volume:   volume,
		Ticker:   ticker,
	}
}

// Day returns a UTC calendar date in 2024
func Day(month time.Month, day int) time.Time {
	return domain.NewDate(2024, month, day)
}

// ChartPayload renders a Yahoo chart API response for the given daily closes.
// A nil close is encoded as null in every OHLCV series for that bar.
func ChartPayload(symbol string, dates []time.Time, closes []*float64) string {
	ts := make([]string, len(dates))
	vals := make([]string, len(closes))
	vols := make([]string, len(closes))
	for i, d := range dates {
		ts[i] = fmt.Sprintf("%d", d.Add(1*time.Hour).Unix())
	}
	for i, c := range closes {
		if c == nil {
			vals[i] = "null"
			vols[i] = "null"
			continue
		}
		vals[i] = fmt.Sprintf("%g", *c)
		vols[i] = "1000"
	}
	series := strings.Join(vals, ",")
	return fmt.Sprintf(`{"chart":{"result":[{"meta":{"symbol":%q,"currency":"TWD","gmtoffset":28800,"regularMarketPrice":%s},`+
		`"timestamp":[%s],"indicators":{"quote":[{"open":[%s],"high":[%s],"low":[%s],"close":[%s],"volume":[%s]}],`+
		`"adjclose":[{"adjclose":[%s]}]}}],"error":null}}`,
		symbol, lastValue(vals), strings.Join(ts, ","), series, series, series, series, strings.Join(vols, ","), series)
}

func lastValue(vals []string) string {
	for i := len(vals) - 1; i >= 0; i-- {
		if vals[i] != "null" {
			return vals[i]
		}
	}
	return "null"
}

// F returns a pointer to v
func F(v float64) *float64 { return &v }
