package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/oinktech/StockAPI/internal/errors"
	"github.com/oinktech/StockAPI/internal/shared/testutil"
	"github.com/oinktech/StockAPI/pkg/contracts/domain"
)

func closes(ds domain.Dataset) []string {
	out := make([]string, 0, ds.Len())
	for _, r := range ds.Rows {
		if !r.Close.Valid {
			out = append(out, "NaN")
			continue
		}
		out = append(out, r.Close.Decimal.String())
	}
	return out
}

func tickers(ds domain.Dataset) []string {
	out := make([]string, 0, ds.Len())
	for _, r := range ds.Rows {
		out = append(out, r.Ticker)
	}
	return out
}

func TestMerge(t *testing.T) {
	a := []domain.PricePoint{
		testutil.Point("A.TW", testutil.Day(1, 2), 10),
		testutil.Point("A.TW", testutil.Day(1, 3), 11),
	}
	c := []domain.PricePoint{
		testutil.Point("C.TW", testutil.Day(1, 2), 30),
	}

	ds, err := Merge([][]domain.PricePoint{a, nil, c})
	require.NoError(t, err)
	assert.Equal(t, 3, ds.Len())
	assert.Equal(t, []string{"A.TW", "A.TW", "C.TW"}, tickers(ds))
	assert.Equal(t, []string{"A.TW", "C.TW"}, ds.Tickers())
}

func TestMerge_NoData(t *testing.T) {
	tests := []struct {
		name   string
		series [][]domain.PricePoint
	}{
		{"nil input", nil},
		{"empty input", [][]domain.PricePoint{}},
		{"only empty series", [][]domain.PricePoint{{}, nil}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Merge(tt.series)
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNoData))
		})
	}
}

func TestMerge_RejectsUntaggedRow(t *testing.T) {
	_, err := Merge([][]domain.PricePoint{{testutil.Point("", testutil.Day(1, 2), 1)}})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeInternal))
}

func TestMerge_DuplicateTickersKept(t *testing.T) {
	s := []domain.PricePoint{testutil.Point("A.TW", testutil.Day(1, 2), 10)}
	ds, err := Merge([][]domain.PricePoint{s, s})
	require.NoError(t, err)
	assert.Equal(t, 2, ds.Len())
}

func TestSort_Price(t *testing.T) {
	ds := domain.Dataset{Rows: []domain.PricePoint{
		testutil.Point("A.TW", testutil.Day(1, 2), 10),
		testutil.Point("B.TW", testutil.Day(1, 2), 5),
		testutil.Point("C.TW", testutil.Day(1, 2), 20),
	}}

	sorted := Sort(ds, domain.SortByPrice)
	assert.Equal(t, []string{"5", "10", "20"}, closes(sorted))
	assert.Equal(t, []string{"B.TW", "A.TW", "C.TW"}, tickers(sorted))
	assert.Equal(t, []string{"10", "5", "20"}, closes(ds), "input must not be modified")
}

func TestSort_PriceMissingCloseLast(t *testing.T) {
	missing := testutil.Point("X.TW", testutil.Day(1, 2), 0)
	missing.Close.Valid = false

	ds := domain.Dataset{Rows: []domain.PricePoint{
		missing,
		testutil.Point("A.TW", testutil.Day(1, 3), 7),
		testutil.Point("B.TW", testutil.Day(1, 1), 3),
	}}

	assert.Equal(t, []string{"3", "7", "NaN"}, closes(Sort(ds, domain.SortByPrice)))
}

func TestSort_PriceStableAcrossTickers(t *testing.T) {
	ds := domain.Dataset{Rows: []domain.PricePoint{
		testutil.Point("A.TW", testutil.Day(1, 3), 10),
		testutil.Point("B.TW", testutil.Day(1, 2), 10),
		testutil.Point("C.TW", testutil.Day(1, 1), 10),
	}}

	assert.Equal(t, []string{"A.TW", "B.TW", "C.TW"}, tickers(Sort(ds, domain.SortByPrice)))
}

func TestSort_Date(t *testing.T) {
	ds := domain.Dataset{Rows: []domain.PricePoint{
		testutil.Point("A.TW", testutil.Day(1, 3), 1),
		testutil.Point("A.TW", testutil.Day(1, 2), 2),
		testutil.Point("B.TW", testutil.Day(1, 3), 3),
		testutil.Point("B.TW", testutil.Day(1, 2), 4),
	}}

	for _, key := range []domain.SortKey{domain.SortByDate, ""} {
		sorted := Sort(ds, key)
		assert.Equal(t, []string{"2", "4", "1", "3"}, closes(sorted))
		assert.Equal(t, []string{"A.TW", "B.TW", "A.TW", "B.TW"}, tickers(sorted))
	}
}

func TestSort_Idempotent(t *testing.T) {
	ds := domain.Dataset{Rows: []domain.PricePoint{
		testutil.Point("A.TW", testutil.Day(1, 4), 12),
		testutil.Point("B.TW", testutil.Day(1, 2), 12),
		testutil.Point("A.TW", testutil.Day(1, 2), 8),
		testutil.Point("C.TW", testutil.Day(1, 3), 15),
	}}

	for _, key := range []domain.SortKey{domain.SortByDate, domain.SortByPrice} {
		once := Sort(ds, key)
		twice := Sort(once, key)
		assert.Equal(t, once, twice, "key %s", key)
	}
}
