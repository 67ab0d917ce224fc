package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/oinktech/StockAPI/internal/config"
	apierrors "github.com/oinktech/StockAPI/internal/errors"
	"github.com/oinktech/StockAPI/internal/exporter"
	"github.com/oinktech/StockAPI/internal/httpx"
	"github.com/oinktech/StockAPI/internal/infrastructure"
	customMiddleware "github.com/oinktech/StockAPI/internal/middleware"
	"github.com/oinktech/StockAPI/internal/pipeline"
	"github.com/oinktech/StockAPI/internal/provider"
	"github.com/oinktech/StockAPI/internal/registry"
	"github.com/oinktech/StockAPI/internal/scheduler"
	"github.com/oinktech/StockAPI/internal/services"
	handlers "github.com/oinktech/StockAPI/internal/transport/http"
	ws "github.com/oinktech/StockAPI/internal/websocket"
	"github.com/oinktech/StockAPI/pkg/contracts"
)

// VERSION is reported by the health endpoint and the telemetry resource
const VERSION = contracts.Version

// Components are the pipeline building blocks shared by the server and the CLI
type Components struct {
	Tickers   pipeline.TickerSource
	Fetcher   provider.Fetcher
	Exporters *exporter.Registry
	Metrics   *infrastructure.PipelineMetrics
}

// Option overrides a component before the application is wired
type Option func(*Components)

// WithTickerSource replaces the registry client
func WithTickerSource(src pipeline.TickerSource) Option {
	return func(c *Components) { c.Tickers = src }
}

// WithFetcher replaces the market-data fetcher
func WithFetcher(f provider.Fetcher) Option {
	return func(c *Components) { c.Fetcher = f }
}

// BuildComponents creates the registry client, fetcher and exporters described by cfg
func BuildComponents(cfg *config.Config, providers *infrastructure.OTelProviders, logger *slog.Logger, opts ...Option) (*Components, error) {
	metrics, err := infrastructure.NewPipelineMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline metrics: %w", err)
	}

	c := &Components{
		Exporters: exporter.NewDefaultRegistry(exporter.Options{
			CSVBOM:      cfg.Export.CSVBOM,
			ChartWidth:  cfg.Export.ChartWidth,
			ChartHeight: cfg.Export.ChartHeight,
		}),
		Metrics: metrics,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.Fetcher == nil {
		client := httpx.New(cfg.Provider.Timeout, cfg.Provider.UserAgent).
			WithRateLimit(cfg.Provider.RequestsPerSecond, cfg.Provider.Burst)
		c.Fetcher = provider.NewYahooFetcher(client, cfg.Provider.BaseURL, logger)
	}

	if c.Tickers == nil {
		var source registry.PageSource
		switch strings.ToLower(cfg.Registry.Renderer) {
		case "chrome":
			source = &registry.ChromeSource{Timeout: cfg.Registry.Timeout, Logger: logger}
		default:
			source = &registry.HTTPSource{Client: httpx.New(cfg.Registry.Timeout, cfg.Provider.UserAgent)}
		}
		c.Tickers = registry.NewClient(source, registry.Options{
			TableClass:     cfg.Registry.TableClass,
			TickerColumn:   cfg.Registry.TickerColumn,
			NameColumn:     cfg.Registry.NameColumn,
			IndustryColumn: cfg.Registry.IndustryCol,
			Suffix:         cfg.Registry.Suffix,
		}, logger)
	}

	return c, nil
}

// NewPipeline creates a pipeline over c
func (c *Components) NewPipeline(cfg *config.Config, providers *infrastructure.OTelProviders, reporter pipeline.ProgressReporter, logger *slog.Logger) *pipeline.Pipeline {
	opts := []pipeline.Option{
		pipeline.WithMetrics(c.Metrics),
		pipeline.WithTracer(providers.Tracer),
	}
	if reporter != nil {
		opts = append(opts, pipeline.WithReporter(reporter))
	}

	return pipeline.New(pipeline.Config{
		RegistryURL: cfg.Registry.URL,
		Workers:     cfg.Pipeline.Workers,
		Timeout:     cfg.Pipeline.Timeout,
	}, c.Tickers, c.Fetcher, c.Exporters, logger, opts...)
}

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	WebSocketHub  *ws.Hub
	Pipeline      *pipeline.Pipeline
	StockService  *services.StockService
	HealthService *services.HealthService
	Scheduler     *scheduler.Scheduler
	ErrorHandler  *apierrors.ErrorHandler
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders

	components *Components
}

// NewApplication loads configuration from configPath and wires the application
func NewApplication(configPath string) (*Application, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", VERSION))

	return New(cfg, logger)
}

// New wires an application from an already loaded configuration
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Application, error) {
	otelProviders, err := infrastructure.InitializeOTel(infrastructure.OTelConfig{
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: VERSION,
		EnableMetrics:  cfg.Telemetry.MetricsEnabled,
		EnableTracing:  cfg.Telemetry.TracingEnabled,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	components, err := BuildComponents(cfg, otelProviders, logger, opts...)
	if err != nil {
		return nil, err
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		ErrorHandler:  apierrors.NewErrorHandler(logger, cfg.Logging.Development),
		components:    components,
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}
	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices initializes all application services
func (a *Application) initializeServices() error {
	hub := ws.NewHub(a.Logger)
	hub.Start()
	a.WebSocketHub = hub

	a.Pipeline = a.components.NewPipeline(a.Config, a.OTelProviders, hub, a.Logger)

	counter := infrastructure.NewRequestCounter(a.components.Metrics.RequestsTotal)
	a.StockService = services.NewStockService(a.Pipeline, a.components.Tickers, a.components.Fetcher, counter,
		services.StockOptions{
			RegistryURL: a.Config.Registry.URL,
			OutputDir:   a.Config.Export.OutputDir,
			ChartWidth:  a.Config.Export.ChartWidth,
			ChartHeight: a.Config.Export.ChartHeight,
		}, a.Logger)

	a.HealthService = services.NewHealthService(VERSION, hub, a.StockService, a.Logger)

	if a.Config.Schedule.Enabled {
		loc, err := time.LoadLocation(a.Config.Schedule.Timezone)
		if err != nil {
			return fmt.Errorf("invalid schedule timezone: %w", err)
		}
		a.Scheduler = scheduler.New(a.StockService, loc, a.Config.Pipeline.Timeout+time.Minute, a.Logger)
		if err := a.Scheduler.Register(scheduler.Job{
			Name:         "scheduled-export",
			Spec:         a.Config.Schedule.Cron,
			LookbackDays: a.Config.Schedule.LookbackDays,
			Format:       a.Config.Schedule.Format,
			Industry:     a.Config.Schedule.Industry,
			SortBy:       a.Config.Schedule.SortBy,
		}); err != nil {
			return err
		}
	}

	return nil
}

// setupRouter configures the HTTP router
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// These don't wrap the ResponseWriter, so the websocket upgrade still works
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	r.HandleFunc("/ws", ws.Handler(a.WebSocketHub, ws.Options{
		ReadBufferSize:  a.Config.WebSocket.ReadBufferSize,
		WriteBufferSize: a.Config.WebSocket.WriteBufferSize,
		PingPeriod:      a.Config.WebSocket.PingPeriod,
		PongWait:        a.Config.WebSocket.PongWait,
		AllowedOrigins:  a.Config.Security.AllowedOrigins,
	}, a.Logger))

	r.Group(func(r chi.Router) {
		// RequestID → RealIP → OTel → Logger → Recoverer → Timeout
		otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders)
		if err != nil {
			a.Logger.Error("Failed to create OpenTelemetry middleware", slog.String("error", err.Error()))
		} else {
			r.Use(otelMiddleware.Handler)
		}

		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.ErrorHandler))
		r.Use(customMiddleware.SecurityHeaders)
		r.Use(middleware.Compress(5))
		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{
				AllowedOrigins: a.Config.Security.AllowedOrigins,
				ExposedHeaders: []string{"Content-Disposition", "X-Request-ID", "X-Run-ID", "X-Tickers-Succeeded", "X-Tickers-Failed"},
				Logger:         a.Logger,
			}))
		}
		if a.Config.Server.RequestTimeout > 0 {
			r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout))
		}

		a.setupAPIRoutes(r)
	})

	r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	a.Router = r
}

// setupAPIRoutes mounts the /api tree
func (a *Application) setupAPIRoutes(r chi.Router) {
	stockHandler := handlers.NewStockHandler(a.StockService, a.Logger, a.ErrorHandler)
	monitorHandler := handlers.NewMonitorHandler(a.StockService, a.Logger, a.ErrorHandler)
	healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(customMiddleware.ContentTypeValidator("application/json"))

		r.Get("/health", healthHandler.HealthCheck)
		r.Mount("/monitor", monitorHandler.Routes())
		r.Mount("/", stockHandler.Routes())
	})
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           a.Config.Address(),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start starts the HTTP server in the background. cancel is called if the
// server stops with an error.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", config.AppName),
		slog.String("version", VERSION),
		slog.String("address", a.Server.Addr),
		slog.String("registry", a.Config.Registry.URL),
		slog.Int("workers", a.Config.Pipeline.Workers))

	if a.Scheduler != nil {
		a.Scheduler.Start()
	}

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if a.Scheduler != nil {
		a.Scheduler.Stop(shutdownCtx)
	}
	a.WebSocketHub.Stop()

	if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
		a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal")
	case <-ctx.Done():
	}

	return a.Stop(context.Background())
}
