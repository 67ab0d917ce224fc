// Package dataset merges per-ticker series into one dataset and orders it.
package dataset

import (
	"fmt"
	"slices"

	apperrors "github.com/oinktech/StockAPI/internal/errors"
	"github.com/oinktech/StockAPI/pkg/contracts/domain"
)

// Merge concatenates series in the given order. Every row keeps its ticker
// tag; nothing is deduplicated. It fails with a NoDataError when no series
// holds any row.
func Merge(series [][]domain.PricePoint) (domain.Dataset, error) {
	total := 0
	for _, s := range series {
		total += len(s)
	}
	if total == 0 {
		return domain.Dataset{}, apperrors.NewNoDataError("no stock data was retrieved for any ticker")
	}

	rows := make([]domain.PricePoint, 0, total)
	for i, s := range series {
		for _, p := range s {
			if p.Ticker == "" {
				return domain.Dataset{}, apperrors.NewInternalError(fmt.Sprintf("series %d contains an untagged row", i))
			}
		}
		rows = append(rows, s...)
	}

	return domain.Dataset{Rows: rows}, nil
}

// Sort returns a copy of ds ordered by key. Both orderings are stable:
// date sorts ascending by trading day and keeps fetch order among equal
// dates; price sorts ascending by close across all tickers and places rows
// without a close last. An empty key sorts by date.
func Sort(ds domain.Dataset, key domain.SortKey) domain.Dataset {
	rows := slices.Clone(ds.Rows)

	switch key {
	case domain.SortByPrice:
		slices.SortStableFunc(rows, compareClose)
	default:
		slices.SortStableFunc(rows, func(a, b domain.PricePoint) int {
			return a.Date.Compare(b.Date)
		})
	}

	return domain.Dataset{Rows: rows}
}

func compareClose(a, b domain.PricePoint) int {
	switch {
	case !a.Close.Valid && !b.Close.Valid:
		return 0
	case !a.Close.Valid:
		return 1
	case !b.Close.Valid:
		return -1
	}
	return a.Close.Decimal.Cmp(b.Close.Decimal)
}
