package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	apperrors "github.com/oinktech/StockAPI/internal/errors"
	"github.com/oinktech/StockAPI/internal/exporter"
	"github.com/oinktech/StockAPI/internal/infrastructure"
	"github.com/oinktech/StockAPI/internal/pipeline"
	"github.com/oinktech/StockAPI/internal/registry"
	"github.com/oinktech/StockAPI/pkg/contracts/domain"
)

// Runner executes pipeline runs
type Runner interface {
	Run(ctx context.Context, req domain.Request) (*pipeline.Result, error)
}

// QuoteFetcher returns the latest price of a ticker
type QuoteFetcher interface {
	LatestPrice(ctx context.Context, ticker string) (domain.Quote, error)
}

// StockOptions configures a StockService
type StockOptions struct {
	RegistryURL string
	OutputDir   string
	ChartWidth  float64
	ChartHeight float64
}

// SaveResult reports a persisted artifact
type SaveResult struct {
	Status   string          `json:"status"`
	File     string          `json:"file"`
	Rows     int             `json:"rows"`
	Checksum string          `json:"checksum"`
	Report   pipeline.Report `json:"report"`
}

// MonitorSnapshot is the request monitor state
type MonitorSnapshot struct {
	RequestCount int64 `json:"request_count"`
}

// StockService serves stock-data requests
type StockService struct {
	runner  Runner
	tickers pipeline.TickerSource
	quotes  QuoteFetcher
	counter *infrastructure.RequestCounter
	opts    StockOptions
	logger  *slog.Logger
}

// NewStockService creates a stock service
func NewStockService(runner Runner, tickers pipeline.TickerSource, quotes QuoteFetcher, counter *infrastructure.RequestCounter, opts StockOptions, logger *slog.Logger) *StockService {
	if logger == nil {
		logger = slog.Default()
	}
	if counter == nil {
		counter = infrastructure.NewRequestCounter(nil)
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "."
	}

	return &StockService{
		runner:  runner,
		tickers: tickers,
		quotes:  quotes,
		counter: counter,
		opts:    opts,
		logger:  logger.With(slog.String("service", "stock")),
	}
}

// Export runs the pipeline and returns the artifact inline
func (s *StockService) Export(ctx context.Context, req domain.Request) (*pipeline.Result, error) {
	s.counter.Increment(ctx)
	return s.runner.Run(ctx, req)
}

// Save runs the pipeline and writes the artifact to the output directory
func (s *StockService) Save(ctx context.Context, req domain.Request) (*SaveResult, error) {
	s.counter.Increment(ctx)

	result, err := s.runner.Run(ctx, req)
	if err != nil {
		return nil, err
	}

	name := result.Artifact.FileName(result.Params.StartDate(), result.Params.EndDate())
	path, err := exporter.Persist(s.opts.OutputDir, name, result.Artifact)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to persist artifact",
			slog.String("file", name),
			slog.String("error", err.Error()))
		return nil, err
	}

	s.logger.InfoContext(ctx, "artifact saved",
		slog.String("path", path),
		slog.String("format", string(result.Artifact.Format)),
		slog.Int("bytes", len(result.Artifact.Content)))

	return &SaveResult{
		Status:   fmt.Sprintf("%s saved successfully", strings.ToUpper(string(result.Params.Format))),
		File:     path,
		Rows:     result.Artifact.Rows,
		Checksum: exporter.Checksum(result.Artifact.Content),
		Report:   result.Report,
	}, nil
}

// LivePrice returns the latest close of ticker
func (s *StockService) LivePrice(ctx context.Context, ticker string) (domain.Quote, error) {
	ticker = strings.TrimSpace(ticker)
	if ticker == "" {
		return domain.Quote{}, apperrors.NewInvalidParameterError("ticker", "is required")
	}
	return s.quotes.LatestPrice(ctx, ticker)
}

// Tickers lists the registry, filtered by industry when one is given
func (s *StockService) Tickers(ctx context.Context, industry string) ([]domain.TickerInfo, error) {
	tickers, err := s.tickers.FetchTickers(ctx, s.opts.RegistryURL)
	if err != nil {
		return nil, err
	}
	return registry.FilterByIndustry(tickers, strings.TrimSpace(industry)), nil
}

// Industries lists the distinct industries of the registry
func (s *StockService) Industries(ctx context.Context) ([]string, error) {
	tickers, err := s.tickers.FetchTickers(ctx, s.opts.RegistryURL)
	if err != nil {
		return nil, err
	}
	return registry.Industries(tickers), nil
}

// Monitor returns the current request count
func (s *StockService) Monitor() MonitorSnapshot {
	return MonitorSnapshot{RequestCount: s.counter.Count()}
}

// MonitorChart renders the request count as a PNG bar chart
func (s *StockService) MonitorChart() ([]byte, error) {
	return exporter.MonitorChart(s.counter.Count(), s.opts.ChartWidth, s.opts.ChartHeight)
}
