package config

import (
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata" // schedule timezones resolve on hosts without a zoneinfo database

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "github.com/oinktech/StockAPI/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Registry  RegistryConfig  `yaml:"registry" envconfig:"REGISTRY"`
	Provider  ProviderConfig  `yaml:"provider" envconfig:"PROVIDER"`
	Pipeline  PipelineConfig  `yaml:"pipeline" envconfig:"PIPELINE"`
	Export    ExportConfig    `yaml:"export" envconfig:"EXPORT"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
	WebSocket WebSocketConfig `yaml:"websocket" envconfig:"WEBSOCKET"`
	Schedule  ScheduleConfig  `yaml:"schedule" envconfig:"SCHEDULE"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host" envconfig:"HOST"`
	Port            int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
	EnableCORS     bool     `yaml:"enable_cors" envconfig:"ENABLE_CORS"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL"`
	Output      string `yaml:"output" envconfig:"OUTPUT"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// RegistryConfig locates and parses the market's ticker listing
type RegistryConfig struct {
	URL          string        `yaml:"url" envconfig:"URL"`
	Renderer     string        `yaml:"renderer" envconfig:"RENDERER"`
	TableClass   string        `yaml:"table_class" envconfig:"TABLE_CLASS"`
	TickerColumn int           `yaml:"ticker_column" envconfig:"TICKER_COLUMN"`
	NameColumn   int           `yaml:"name_column" envconfig:"NAME_COLUMN"`
	IndustryCol  int           `yaml:"industry_column" envconfig:"INDUSTRY_COLUMN"`
	Suffix       string        `yaml:"suffix" envconfig:"SUFFIX"`
	Timeout      time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
}

// ProviderConfig configures the historical market-data provider
type ProviderConfig struct {
	BaseURL           string        `yaml:"base_url" envconfig:"BASE_URL"`
	UserAgent         string        `yaml:"user_agent" envconfig:"USER_AGENT"`
	Timeout           time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
	RequestsPerSecond float64       `yaml:"requests_per_second" envconfig:"REQUESTS_PER_SECOND"`
	Burst             int           `yaml:"burst" envconfig:"BURST"`
}

// PipelineConfig bounds the per-ticker fan-out
type PipelineConfig struct {
	Workers int           `yaml:"workers" envconfig:"WORKERS"`
	Timeout time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
}

// ExportConfig controls artifact rendering and persistence
type ExportConfig struct {
	OutputDir   string  `yaml:"output_dir" envconfig:"OUTPUT_DIR"`
	CSVBOM      bool    `yaml:"csv_bom" envconfig:"CSV_BOM"`
	ChartWidth  float64 `yaml:"chart_width_in" envconfig:"CHART_WIDTH_IN"`
	ChartHeight float64 `yaml:"chart_height_in" envconfig:"CHART_HEIGHT_IN"`
}

// TelemetryConfig toggles tracing and metrics
type TelemetryConfig struct {
	ServiceName    string `yaml:"service_name" envconfig:"SERVICE_NAME"`
	TracingEnabled bool   `yaml:"tracing_enabled" envconfig:"TRACING_ENABLED"`
	MetricsEnabled bool   `yaml:"metrics_enabled" envconfig:"METRICS_ENABLED"`
}

// WebSocketConfig contains progress stream configuration
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE"`
	WriteBufferSize int           `yaml:"write_buffer_size" envconfig:"WRITE_BUFFER_SIZE"`
	PingPeriod      time.Duration `yaml:"ping_period" envconfig:"PING_PERIOD"`
	PongWait        time.Duration `yaml:"pong_wait" envconfig:"PONG_WAIT"`
}

// ScheduleConfig describes the recurring export saved by the server
type ScheduleConfig struct {
	Enabled      bool   `yaml:"enabled" envconfig:"ENABLED"`
	Cron         string `yaml:"cron" envconfig:"CRON"`
	Timezone     string `yaml:"timezone" envconfig:"TIMEZONE"`
	LookbackDays int    `yaml:"lookback_days" envconfig:"LOOKBACK_DAYS"`
	Format       string `yaml:"format" envconfig:"FORMAT"`
	Industry     string `yaml:"industry" envconfig:"INDUSTRY"`
	SortBy       string `yaml:"sort_by" envconfig:"SORT_BY"`
}

// Load builds the configuration from defaults, an optional YAML file and the
// environment, in increasing order of precedence. An empty path falls back to
// STOCKAPI_CONFIG_FILE and then to the well-known locations.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = getConfigFilePath()
	}
	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, apperrors.NewConfigError("failed to load config from file", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	cfg.normalize()

	if err := cfg.validate(); err != nil {
		return nil, apperrors.NewConfigError("config validation failed", err)
	}

	return cfg, nil
}

// loadFromFile overlays YAML file values on cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func (c *Config) normalize() {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Output = strings.ToLower(strings.TrimSpace(c.Logging.Output))
	c.Registry.Renderer = strings.ToLower(strings.TrimSpace(c.Registry.Renderer))
	if c.Export.OutputDir == "" {
		c.Export.OutputDir = "."
	}
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server timeouts must be positive")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log level: %q", c.Logging.Level)
	}
	switch c.Logging.Output {
	case "console", "file", "both":
	default:
		return fmt.Errorf("invalid log output: %q", c.Logging.Output)
	}

	if c.Registry.URL == "" {
		return fmt.Errorf("registry url is required")
	}
	if c.Registry.Renderer != "http" && c.Registry.Renderer != "chrome" {
		return fmt.Errorf("invalid registry renderer: %q", c.Registry.Renderer)
	}
	if c.Registry.TickerColumn < 0 || c.Registry.NameColumn < 0 || c.Registry.IndustryCol < 0 {
		return fmt.Errorf("registry column indexes must not be negative")
	}

	if c.Provider.BaseURL == "" {
		return fmt.Errorf("provider base url is required")
	}
	if c.Provider.RequestsPerSecond < 0 {
		return fmt.Errorf("provider requests_per_second must not be negative")
	}

	if c.Pipeline.Workers <= 0 {
		return fmt.Errorf("pipeline workers must be positive, got %d", c.Pipeline.Workers)
	}
	if c.Pipeline.Timeout <= 0 {
		return fmt.Errorf("pipeline timeout must be positive")
	}

	if c.Export.ChartWidth <= 0 || c.Export.ChartHeight <= 0 {
		return fmt.Errorf("chart dimensions must be positive")
	}

	if c.Schedule.Enabled {
		if strings.TrimSpace(c.Schedule.Cron) == "" {
			return fmt.Errorf("schedule cron expression is required when the schedule is enabled")
		}
		if c.Schedule.LookbackDays <= 0 {
			return fmt.Errorf("schedule lookback_days must be positive, got %d", c.Schedule.LookbackDays)
		}
		if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
			return fmt.Errorf("invalid schedule timezone %q: %w", c.Schedule.Timezone, err)
		}
	}

	if c.Security.EnableCORS && len(c.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin must be specified when CORS is enabled")
	}

	return nil
}

// Address returns the listen address for the HTTP server
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// getConfigFilePath returns the path to the config file, or "" when none exists
func getConfigFilePath() string {
	if p := os.Getenv(ConfigFileEnv); p != "" {
		return p
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}
	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    3 * time.Minute,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20,
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  DefaultPipelineTimeout + 30*time.Second,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"*"},
			EnableCORS:     true,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "console",
			FilePath: "logs/stockapi.log",
		},
		Registry: RegistryConfig{
			URL:          DefaultRegistryURL,
			Renderer:     "http",
			TableClass:   DefaultRegistryTable,
			TickerColumn: 1,
			NameColumn:   2,
			IndustryCol:  3,
			Suffix:       DefaultTickerSuffix,
			Timeout:      DefaultHTTPTimeout,
		},
		Provider: ProviderConfig{
			BaseURL:           DefaultProviderURL,
			UserAgent:         DefaultUserAgent,
			Timeout:           DefaultHTTPTimeout,
			RequestsPerSecond: 0,
			Burst:             1,
		},
		Pipeline: PipelineConfig{
			Workers: DefaultWorkers,
			Timeout: DefaultPipelineTimeout,
		},
		Export: ExportConfig{
			OutputDir:   ".",
			ChartWidth:  10,
			ChartHeight: 5,
		},
		Telemetry: TelemetryConfig{
			ServiceName:    "stockapi",
			MetricsEnabled: true,
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			PingPeriod:      30 * time.Second,
			PongWait:        60 * time.Second,
		},
		Schedule: ScheduleConfig{
			Cron:         DefaultScheduleCron,
			Timezone:     DefaultScheduleTimezone,
			LookbackDays: 30,
			Format:       "csv",
			SortBy:       "date",
		},
	}
}
