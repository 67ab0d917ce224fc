package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/oinktech/StockAPI/internal/dataset"
	apperrors "github.com/oinktech/StockAPI/internal/errors"
	"github.com/oinktech/StockAPI/internal/exporter"
	"github.com/oinktech/StockAPI/internal/infrastructure"
	"github.com/oinktech/StockAPI/internal/provider"
	"github.com/oinktech/StockAPI/internal/registry"
	"github.com/oinktech/StockAPI/pkg/contracts/domain"
)

// TracerName names the pipeline tracer
const TracerName = "github.com/oinktech/StockAPI/pipeline"

// TickerSource lists the securities of the ticker registry.
type TickerSource interface {
	FetchTickers(ctx context.Context, url string) ([]domain.TickerInfo, error)
}

// Config bounds a pipeline run.
type Config struct {
	RegistryURL string
	Workers     int
	Timeout     time.Duration
}

// TickerFailure records one ticker that produced no series.
type TickerFailure struct {
	Ticker string `json:"ticker"`
	Error  string `json:"error"`
}

// Report summarizes the fetch stage of a run.
type Report struct {
	RunID     string          `json:"run_id"`
	Tickers   int             `json:"tickers"`
	Succeeded int             `json:"succeeded"`
	Failed    []TickerFailure `json:"failed,omitempty"`
}

// Result is the outcome of a successful run.
type Result struct {
	Report
	Params   domain.Params    `json:"-"`
	Artifact *domain.Artifact `json:"artifact"`
}

// Pipeline wires the registry, fetcher and exporters into one run.
type Pipeline struct {
	cfg       Config
	source    TickerSource
	fetcher   provider.Fetcher
	exporters *exporter.Registry
	reporter  ProgressReporter
	metrics   *infrastructure.PipelineMetrics
	tracer    trace.Tracer
	validate  *validator.Validate
	logger    *slog.Logger
}

// Option customizes a Pipeline
type Option func(*Pipeline)

// WithReporter sets the progress reporter
func WithReporter(r ProgressReporter) Option {
	return func(p *Pipeline) {
		if r != nil {
			p.reporter = r
		}
	}
}

// WithMetrics sets the metric instruments
func WithMetrics(m *infrastructure.PipelineMetrics) Option {
	return func(p *Pipeline) {
		if m != nil {
			p.metrics = m
		}
	}
}

// WithTracer sets the tracer
func WithTracer(t trace.Tracer) Option {
	return func(p *Pipeline) {
		if t != nil {
			p.tracer = t
		}
	}
}

// New creates a pipeline. Workers defaults to 8 and Timeout to two minutes.
func New(cfg Config, source TickerSource, fetcher provider.Fetcher, exporters *exporter.Registry, logger *slog.Logger, opts ...Option) *Pipeline {
	if cfg.Workers <= 0 {
		cfg.Workers = 8
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}

	p := &Pipeline{
		cfg:       cfg,
		source:    source,
		fetcher:   fetcher,
		exporters: exporters,
		reporter:  nopReporter{},
		metrics:   infrastructure.NoopPipelineMetrics(),
		tracer:    otel.Tracer(TracerName),
		validate:  newValidator(),
		logger:    infrastructure.WithComponent(logger, "pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Formats lists the output formats the pipeline can produce
func (p *Pipeline) Formats() []domain.Format {
	return p.exporters.Formats()
}

// Run validates req, collects the dataset and exports it.
func (p *Pipeline) Run(ctx context.Context, req domain.Request) (*Result, error) {
	started := time.Now()
	runID := uuid.New().String()

	ctx, span := p.tracer.Start(ctx, "pipeline.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("pipeline.run_id", runID),
			attribute.String("pipeline.start_date", req.StartDate),
			attribute.String("pipeline.end_date", req.EndDate),
			attribute.String("pipeline.format", req.OutputFormat),
			attribute.String("pipeline.industry", req.Industry),
		),
	)
	defer span.End()

	p.reporter.Report(ctx, Progress{RunID: runID, Stage: StageValidate})
	params, err := p.Validate(req)
	if err != nil {
		return nil, p.fail(ctx, runID, req.OutputFormat, started, err)
	}

	ds, report, err := p.collect(ctx, runID, params)
	if err != nil {
		return nil, p.fail(ctx, runID, string(params.Format), started, err)
	}

	p.reporter.Report(ctx, Progress{RunID: runID, Stage: StageExport, Done: ds.Len(), Total: ds.Len()})
	artifact, err := p.exporters.Export(ds, params.Format)
	if err != nil {
		return nil, p.fail(ctx, runID, string(params.Format), started, err)
	}

	p.metrics.ExportBytes.Add(ctx, int64(len(artifact.Content)),
		metric.WithAttributes(attribute.String("format", string(params.Format))))
	p.metrics.RecordRun(ctx, "success", string(params.Format), time.Since(started))
	span.SetAttributes(
		attribute.Int("pipeline.rows", ds.Len()),
		attribute.Int("pipeline.failed_tickers", len(report.Failed)),
	)

	p.logger.InfoContext(ctx, "pipeline run completed",
		slog.String("run_id", runID),
		slog.String("format", string(params.Format)),
		slog.Int("tickers", report.Tickers),
		slog.Int("succeeded", report.Succeeded),
		slog.Int("failed", len(report.Failed)),
		slog.Int("rows", ds.Len()),
		slog.Int("bytes", len(artifact.Content)),
		slog.Duration("duration", time.Since(started)))
	p.reporter.Report(ctx, Progress{RunID: runID, Stage: StageCompleted, Done: report.Succeeded, Total: report.Tickers})

	return &Result{Report: report, Params: params, Artifact: artifact}, nil
}

// Collect runs every stage up to and including sorting, returning the
// in-memory dataset instead of an artifact.
func (p *Pipeline) Collect(ctx context.Context, params domain.Params) (domain.Dataset, Report, error) {
	return p.collect(ctx, uuid.New().String(), params)
}

func (p *Pipeline) collect(ctx context.Context, runID string, params domain.Params) (domain.Dataset, Report, error) {
	report := Report{RunID: runID}

	p.reporter.Report(ctx, Progress{RunID: runID, Stage: StageRegistry})
	tickers, err := p.source.FetchTickers(ctx, p.cfg.RegistryURL)
	if err != nil {
		return domain.Dataset{}, report, err
	}
	tickers = registry.FilterByIndustry(tickers, params.Industry)
	report.Tickers = len(tickers)
	p.metrics.RegistryTickers.Record(ctx, int64(len(tickers)))

	if len(tickers) == 0 {
		return domain.Dataset{}, report, apperrors.NewNoDataError(noTickersMessage(params.Industry))
	}

	series, failed := p.fetchAll(ctx, runID, tickers, params)
	if err := ctx.Err(); err != nil {
		return domain.Dataset{}, report, err
	}
	report.Failed = failed
	report.Succeeded = len(tickers) - len(failed)

	p.reporter.Report(ctx, Progress{RunID: runID, Stage: StageAggregate, Done: report.Succeeded, Total: report.Tickers})
	ds, err := dataset.Merge(series)
	if err != nil {
		return domain.Dataset{}, report, err
	}
	return dataset.Sort(ds, params.SortBy), report, nil
}

// fetchAll fetches every ticker on a bounded pool. Results keep ticker order;
// failed tickers leave a nil slot.
func (p *Pipeline) fetchAll(ctx context.Context, runID string, tickers []domain.TickerInfo, params domain.Params) ([][]domain.PricePoint, []TickerFailure) {
	ctx, span := p.tracer.Start(ctx, "pipeline.fetch",
		trace.WithAttributes(
			attribute.Int("pipeline.tickers", len(tickers)),
			attribute.Int("pipeline.workers", p.cfg.Workers),
		))
	defer span.End()

	fetchCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	results := make([][]domain.PricePoint, len(tickers))
	errs := make([]error, len(tickers))
	var done atomic.Int64

	g := new(errgroup.Group)
	g.SetLimit(p.cfg.Workers)
	for i, t := range tickers {
		g.Go(func() error {
			if err := fetchCtx.Err(); err != nil {
				errs[i] = apperrors.NewTickerFetchError(t.Ticker, err)
			} else {
				results[i], errs[i] = p.fetcher.FetchSeries(fetchCtx, t.Ticker, params.Start, params.End)
			}
			p.metrics.RecordFetch(ctx, errs[i] == nil)

			ev := Progress{RunID: runID, Stage: StageFetch, Ticker: t.Ticker, Done: int(done.Add(1)), Total: len(tickers)}
			if errs[i] != nil {
				ev.Err = errs[i].Error()
			}
			p.reporter.Report(ctx, ev)
			return nil
		})
	}
	_ = g.Wait()

	var failed []TickerFailure
	for i, err := range errs {
		if err == nil {
			continue
		}
		results[i] = nil
		p.logger.WarnContext(ctx, "ticker fetch failed",
			slog.String("run_id", runID),
			slog.String("ticker", tickers[i].Ticker),
			slog.String("error", err.Error()))
		failed = append(failed, TickerFailure{Ticker: tickers[i].Ticker, Error: err.Error()})
	}
	span.SetAttributes(attribute.Int("pipeline.failed_tickers", len(failed)))
	return results, failed
}

func (p *Pipeline) fail(ctx context.Context, runID, format string, started time.Time, err error) error {
	infrastructure.RecordError(ctx, err)
	p.metrics.RecordRun(ctx, "failure", format, time.Since(started))
	p.logger.WarnContext(ctx, "pipeline run failed",
		slog.String("run_id", runID),
		slog.String("error_type", string(apperrors.TypeOf(err))),
		slog.String("error", err.Error()))
	p.reporter.Report(ctx, Progress{RunID: runID, Stage: StageFailed, Err: err.Error()})
	return err
}

func noTickersMessage(industry string) string {
	if industry == "" {
		return "ticker registry listed no securities"
	}
	return fmt.Sprintf("no securities listed in industry %q", industry)
}
