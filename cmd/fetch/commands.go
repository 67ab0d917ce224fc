package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/subcommands"

	"github.com/oinktech/StockAPI/internal/app"
	"github.com/oinktech/StockAPI/internal/config"
	"github.com/oinktech/StockAPI/internal/exporter"
	"github.com/oinktech/StockAPI/internal/infrastructure"
	"github.com/oinktech/StockAPI/internal/pipeline"
	"github.com/oinktech/StockAPI/internal/registry"
	"github.com/oinktech/StockAPI/pkg/contracts"
	"github.com/oinktech/StockAPI/pkg/contracts/domain"
)

// Commands are the subcommands registered by main
var Commands = []subcommands.Command{
	&exportCmd{stdout: os.Stdout},
	&previewCmd{stdout: os.Stdout},
	&tickersCmd{stdout: os.Stdout},
	&industriesCmd{stdout: os.Stdout},
	&versionCmd{stdout: os.Stdout},
}

// env is the wiring shared by every subcommand that talks to the network
type env struct {
	cfg        *config.Config
	logger     *slog.Logger
	providers  *infrastructure.OTelProviders
	components *app.Components
}

func setup(configPath string) (*env, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	providers, err := infrastructure.InitializeOTel(infrastructure.OTelConfig{
		ServiceName:   cfg.Telemetry.ServiceName,
		EnableTracing: cfg.Telemetry.TracingEnabled,
	}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	components, err := app.BuildComponents(cfg, providers, logger)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		if err := providers.Shutdown(context.Background()); err != nil {
			logger.Warn("telemetry shutdown failed", slog.String("error", err.Error()))
		}
		infrastructure.CloseLogFile()
	}
	return &env{cfg: cfg, logger: logger, providers: providers, components: components}, cleanup, nil
}

type exportCmd struct {
	configPath string
	outDir     string
	request    domain.Request
	stdout     io.Writer
}

func (*exportCmd) Name() string { return "export" }
func (*exportCmd) Synopsis() string {
	return "fetch every listed ticker over a date range and write one export file"
}
func (*exportCmd) Usage() string {
	return `stockapi-fetch export -from <YYYY-MM-DD> [-to <YYYY-MM-DD>] [-format csv|json|html|chart|xlsx]
    [-industry <name>] [-sort date|price] [-out <dir>] [-config <file>]

  Discovers the ticker universe, fetches daily series for every ticker and
  writes the unified dataset to stock_data_<from>_<to>.<ext>.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.configPath, "config", "", "path to a YAML config file")
	f.StringVar(&c.outDir, "out", "", "output directory (defaults to export.output_dir)")
	f.StringVar(&c.request.StartDate, "from", "", "first day of the range, YYYY-MM-DD")
	f.StringVar(&c.request.EndDate, "to", time.Now().UTC().Format(domain.DateLayout), "end of the range (exclusive), YYYY-MM-DD")
	f.StringVar(&c.request.OutputFormat, "format", string(domain.FormatCSV), "csv | json | html | chart | xlsx")
	f.StringVar(&c.request.Industry, "industry", "", "only tickers in this industry")
	f.StringVar(&c.request.SortBy, "sort", "date", "date | price")
}

func (c *exportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.request.StartDate == "" {
		fmt.Fprintln(os.Stderr, "-from is required")
		f.Usage()
		return subcommands.ExitUsageError
	}

	e, cleanup, err := setup(c.configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer cleanup()

	if c.outDir != "" {
		e.cfg.Export.OutputDir = c.outDir
	}

	progress := pipeline.ReporterFunc(func(ctx context.Context, p pipeline.Progress) {
		if p.Stage != pipeline.StageFetch {
			e.logger.InfoContext(ctx, "pipeline stage", slog.String("stage", p.Stage))
			return
		}
		e.logger.DebugContext(ctx, "ticker fetched",
			slog.String("ticker", p.Ticker),
			slog.Int("done", p.Done),
			slog.Int("total", p.Total))
	})

	result, err := e.components.NewPipeline(e.cfg, e.providers, progress, e.logger).Run(ctx, c.request)
	if err != nil {
		e.logger.Error("export failed", slog.String("error", err.Error()))
		return subcommands.ExitFailure
	}

	name := result.Artifact.FileName(result.Params.StartDate(), result.Params.EndDate())
	path, err := exporter.Persist(e.cfg.Export.OutputDir, name, result.Artifact)
	if err != nil {
		e.logger.Error("export failed", slog.String("error", err.Error()))
		return subcommands.ExitFailure
	}

	e.logger.Info("artifact written",
		slog.String("path", path),
		slog.Int("rows", result.Artifact.Rows),
		slog.Int("tickers", result.Tickers),
		slog.Int("succeeded", result.Succeeded),
		slog.Int("failed", len(result.Failed)))
	fmt.Fprintln(c.stdout, path)
	return subcommands.ExitSuccess
}

type previewCmd struct {
	configPath string
	rows       int
	request    domain.Request
	stdout     io.Writer
}

func (*previewCmd) Name() string { return "preview" }
func (*previewCmd) Synopsis() string {
	return "fetch and merge the dataset, then print a summary instead of exporting"
}
func (*previewCmd) Usage() string {
	return `stockapi-fetch preview -from <YYYY-MM-DD> [-to <YYYY-MM-DD>] [-industry <name>]
    [-sort date|price] [-n <rows>] [-config <file>]

  Runs the pipeline up to sorting and prints the row count, the tickers that
  returned data, the failed tickers and the first rows of the dataset.
`
}

func (c *previewCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.configPath, "config", "", "path to a YAML config file")
	f.StringVar(&c.request.StartDate, "from", "", "first day of the range, YYYY-MM-DD")
	f.StringVar(&c.request.EndDate, "to", time.Now().UTC().Format(domain.DateLayout), "end of the range (exclusive), YYYY-MM-DD")
	f.StringVar(&c.request.Industry, "industry", "", "only tickers in this industry")
	f.StringVar(&c.request.SortBy, "sort", "date", "date | price")
	f.IntVar(&c.rows, "n", 10, "number of rows to print")
}

func (c *previewCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.request.StartDate == "" {
		fmt.Fprintln(os.Stderr, "-from is required")
		f.Usage()
		return subcommands.ExitUsageError
	}

	e, cleanup, err := setup(c.configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer cleanup()

	p := e.components.NewPipeline(e.cfg, e.providers, nil, e.logger)
	req := c.request
	req.OutputFormat = string(domain.FormatCSV)
	params, err := p.Validate(req)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}

	ds, report, err := p.Collect(ctx, params)
	if err != nil {
		e.logger.Error("preview failed", slog.String("error", err.Error()))
		return subcommands.ExitFailure
	}

	if err := writePreview(c.stdout, ds, report, c.rows); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func writePreview(w io.Writer, ds domain.Dataset, report pipeline.Report, limit int) error {
	fmt.Fprintf(w, "rows: %d\n", ds.Len())
	fmt.Fprintf(w, "tickers with data: %d of %d\n", len(ds.Tickers()), report.Tickers)
	for _, f := range report.Failed {
		fmt.Fprintf(w, "failed: %s (%s)\n", f.Ticker, f.Error)
	}
	if limit <= 0 || ds.Len() == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Date\tTicker\tClose")
	for i, row := range ds.Rows {
		if i == limit {
			break
		}
		price := "-"
		if row.Close.Valid {
			price = row.Close.Decimal.String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", row.Date.Format(domain.DateLayout), row.Ticker, price)
	}
	return tw.Flush()
}

type tickersCmd struct {
	configPath string
	industry   string
	stdout     io.Writer
}

func (*tickersCmd) Name() string     { return "tickers" }
func (*tickersCmd) Synopsis() string { return "list the securities of the ticker registry" }
func (*tickersCmd) Usage() string {
	return `stockapi-fetch tickers [-industry <name>] [-config <file>]

  Prints one tab-separated line per listed security: ticker, name, industry.
`
}

func (c *tickersCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.configPath, "config", "", "path to a YAML config file")
	f.StringVar(&c.industry, "industry", "", "only tickers in this industry")
}

func (c *tickersCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	e, cleanup, err := setup(c.configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer cleanup()

	tickers, err := e.components.Tickers.FetchTickers(ctx, e.cfg.Registry.URL)
	if err != nil {
		e.logger.Error("registry fetch failed", slog.String("error", err.Error()))
		return subcommands.ExitFailure
	}

	if err := writeTickers(c.stdout, registry.FilterByIndustry(tickers, c.industry)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func writeTickers(w io.Writer, tickers []domain.TickerInfo) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, t := range tickers {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", t.Ticker, t.Name, t.Industry)
	}
	return tw.Flush()
}

type industriesCmd struct {
	configPath string
	stdout     io.Writer
}

func (*industriesCmd) Name() string     { return "industries" }
func (*industriesCmd) Synopsis() string { return "list the distinct industries of the ticker registry" }
func (*industriesCmd) Usage() string {
	return "stockapi-fetch industries [-config <file>]\n"
}

func (c *industriesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.configPath, "config", "", "path to a YAML config file")
}

func (c *industriesCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	e, cleanup, err := setup(c.configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer cleanup()

	tickers, err := e.components.Tickers.FetchTickers(ctx, e.cfg.Registry.URL)
	if err != nil {
		e.logger.Error("registry fetch failed", slog.String("error", err.Error()))
		return subcommands.ExitFailure
	}

	for _, industry := range registry.Industries(tickers) {
		fmt.Fprintln(c.stdout, industry)
	}
	return subcommands.ExitSuccess
}

type versionCmd struct {
	stdout io.Writer
}

func (*versionCmd) Name() string           { return "version" }
func (*versionCmd) Synopsis() string       { return "print version information" }
func (*versionCmd) Usage() string          { return "stockapi-fetch version\n" }
func (*versionCmd) SetFlags(*flag.FlagSet) {}

func (c *versionCmd) Execute(context.Context, *flag.FlagSet, ...interface{}) subcommands.ExitStatus {
	fmt.Fprintln(c.stdout, contracts.GetFullVersionString())
	return subcommands.ExitSuccess
}
