package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/oinktech/StockAPI/internal/errors"
	"github.com/oinktech/StockAPI/internal/httpx"
	"github.com/oinktech/StockAPI/pkg/contracts/domain"
)

// YahooFetcher implements Fetcher using the Yahoo Finance chart API.
type YahooFetcher struct {
	client  *httpx.Client
	baseURL string
	logger  *slog.Logger
}

// NewYahooFetcher creates a fetcher against baseURL (e.g. https://query1.finance.yahoo.com).
func NewYahooFetcher(client *httpx.Client, baseURL string, logger *slog.Logger) *YahooFetcher {
	return &YahooFetcher{
		client:  client,
		baseURL: baseURL,
		logger:  logger.With(slog.String("component", "yahoo_fetcher")),
	}
}

// yahooChart is the response structure from the chart API.
// Series entries are null for bars without trading.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string   `json:"symbol"`
				Currency           string   `json:"currency"`
				GMTOffset          int      `json:"gmtoffset"`
				RegularMarketPrice *float64 `json:"regularMarketPrice"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// FetchSeries implements Fetcher
func (f *YahooFetcher) FetchSeries(ctx context.Context, ticker string, start, end time.Time) ([]domain.PricePoint, error) {
	q := url.Values{}
	q.Set("period1", strconv.FormatInt(start.Unix(), 10))
	q.Set("period2", strconv.FormatInt(end.Unix(), 10))
	q.Set("interval", "1d")
	q.Set("events", "history")

	chart, err := f.fetchChart(ctx, ticker, q)
	if err != nil {
		return nil, apperrors.NewTickerFetchError(ticker, err)
	}

	points, err := normalize(chart, ticker, start, end)
	if err != nil {
		return nil, apperrors.NewTickerFetchError(ticker, err)
	}

	f.logger.DebugContext(ctx, "series fetched",
		slog.String("ticker", ticker),
		slog.Int("rows", len(points)))

	return points, nil
}

// LatestPrice implements Fetcher
func (f *YahooFetcher) LatestPrice(ctx context.Context, ticker string) (domain.Quote, error) {
	q := url.Values{}
	q.Set("range", "1d")
	q.Set("interval", "1d")

	chart, err := f.fetchChart(ctx, ticker, q)
	if err != nil {
		return domain.Quote{}, apperrors.NewTickerFetchError(ticker, err)
	}

	result := chart.Chart.Result[0]
	quote := domain.Quote{Ticker: ticker, Currency: result.Meta.Currency}

	if len(result.Indicators.Quote) > 0 {
		closes := result.Indicators.Quote[0].Close
		for i := len(closes) - 1; i >= 0; i-- {
			if closes[i] != nil && !math.IsNaN(*closes[i]) {
				quote.LastPrice = *closes[i]
				return quote, nil
			}
		}
	}
	if result.Meta.RegularMarketPrice != nil {
		quote.LastPrice = *result.Meta.RegularMarketPrice
		return quote, nil
	}

	return domain.Quote{}, apperrors.NewTickerFetchError(ticker, fmt.Errorf("no price data"))
}

func (f *YahooFetcher) fetchChart(ctx context.Context, ticker string, q url.Values) (*yahooChart, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", f.baseURL, url.PathEscape(ticker), q.Encode())

	body, _, err := f.client.Get(ctx, u)
	if err != nil {
		return nil, err
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("decode chart: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("provider error %s: %s", chart.Chart.Error.Code, chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 {
		return nil, fmt.Errorf("no data returned")
	}
	return &chart, nil
}

// normalize converts a chart result into ticker-tagged calendar-date rows in
// [start, end). Bars with no OHLC values are dropped.
func normalize(chart *yahooChart, ticker string, start, end time.Time) ([]domain.PricePoint, error) {
	result := chart.Chart.Result[0]
	if len(result.Timestamp) == 0 || len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("no data returned")
	}

	quote := result.Indicators.Quote[0]
	var adj []*float64
	if len(result.Indicators.AdjClose) > 0 {
		adj = result.Indicators.AdjClose[0].AdjClose
	}

	loc := time.FixedZone("exchange", result.Meta.GMTOffset)
	points := make([]domain.PricePoint, 0, len(result.Timestamp))

	for i, ts := range result.Timestamp {
		p := domain.PricePoint{
			Open:     at(quote.Open, i),
			High:     at(quote.High, i),
			Low:      at(quote.Low, i),
			Close:    at(quote.Close, i),
			AdjClose: at(adj, i),
			Ticker:   ticker,
		}
		if !p.Open.Valid && !p.High.Valid && !p.Low.Valid && !p.Close.Valid {
			continue
		}
		if v := at(quote.Volume, i); v.Valid {
			p.Volume = v.Decimal.IntPart()
		}

		local := time.Unix(ts, 0).In(loc)
		p.Date = domain.NewDate(local.Year(), local.Month(), local.Day())
		if p.Date.Before(start) || !p.Date.Before(end) {
			continue
		}
		points = append(points, p)
	}

	if len(points) == 0 {
		return nil, fmt.Errorf("no rows in range %s to %s", start.Format(domain.DateLayout), end.Format(domain.DateLayout))
	}

	sort.SliceStable(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points, nil
}

func at(series []*float64, i int) decimal.NullDecimal {
	if i >= len(series) || series[i] == nil || math.IsNaN(*series[i]) || math.IsInf(*series[i], 0) {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.NewFromFloat(*series[i]))
}
