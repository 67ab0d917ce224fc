// Package provider fetches historical daily price series from an external
// market-data service.
package provider

import (
	"context"
	"time"

	"github.com/oinktech/StockAPI/pkg/contracts/domain"
)

// Fetcher retrieves market data for one ticker at a time.
type Fetcher interface {
	// FetchSeries returns the daily bars of ticker in [start, end), ascending
	// by date, every row tagged with ticker. Failures are TickerFetchErrors.
	FetchSeries(ctx context.Context, ticker string, start, end time.Time) ([]domain.PricePoint, error)

	// LatestPrice returns the most recent close of ticker.
	LatestPrice(ctx context.Context, ticker string) (domain.Quote, error)
}
