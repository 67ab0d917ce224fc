package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/oinktech/StockAPI/internal/errors"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		file        string
		env         map[string]string
		wantErr     string
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "defaults",
			file: "{}",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, DefaultRegistryURL, cfg.Registry.URL)
				assert.Equal(t, ".TW", cfg.Registry.Suffix)
				assert.Equal(t, 1, cfg.Registry.TickerColumn)
				assert.Equal(t, 3, cfg.Registry.IndustryCol)
				assert.Equal(t, DefaultWorkers, cfg.Pipeline.Workers)
				assert.Equal(t, 2*time.Minute, cfg.Pipeline.Timeout)
				assert.Equal(t, 10.0, cfg.Export.ChartWidth)
				assert.Equal(t, "http", cfg.Registry.Renderer)
			},
		},
		{
			name: "file overrides defaults",
			file: `
server:
  port: 9090
pipeline:
  workers: 3
  timeout: 45s
registry:
  renderer: Chrome
export:
  output_dir: /tmp/out
  csv_bom: true
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, 3, cfg.Pipeline.Workers)
				assert.Equal(t, 45*time.Second, cfg.Pipeline.Timeout)
				assert.Equal(t, "chrome", cfg.Registry.Renderer)
				assert.Equal(t, "/tmp/out", cfg.Export.OutputDir)
				assert.True(t, cfg.Export.CSVBOM)
				assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
			},
		},
		{
			name: "environment overrides file",
			file: "pipeline:\n  workers: 3\n",
			env: map[string]string{
				"STOCKAPI_PIPELINE_WORKERS":         "12",
				"STOCKAPI_REGISTRY_SUFFIX":          ".TWO",
				"STOCKAPI_SECURITY_ALLOWED_ORIGINS": "http://a.example,http://b.example",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 12, cfg.Pipeline.Workers)
				assert.Equal(t, ".TWO", cfg.Registry.Suffix)
				assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.Security.AllowedOrigins)
			},
		},
		{
			name:    "zero workers rejected",
			file:    "pipeline:\n  workers: 0\n",
			wantErr: "pipeline workers must be positive",
		},
		{
			name:    "unknown renderer rejected",
			file:    "registry:\n  renderer: phantom\n",
			wantErr: "invalid registry renderer",
		},
		{
			name:    "bad log level rejected",
			env:     map[string]string{"STOCKAPI_LOGGING_LEVEL": "chatty"},
			file:    "{}",
			wantErr: "invalid log level",
		},
		{
			name: "schedule enabled",
			file: "schedule:\n  enabled: true\n  cron: \"0 30 15 * * *\"\n  lookback_days: 7\n  industry: Cement\n",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.True(t, cfg.Schedule.Enabled)
				assert.Equal(t, "0 30 15 * * *", cfg.Schedule.Cron)
				assert.Equal(t, 7, cfg.Schedule.LookbackDays)
				assert.Equal(t, "Cement", cfg.Schedule.Industry)
				assert.Equal(t, DefaultScheduleTimezone, cfg.Schedule.Timezone)
				assert.Equal(t, "csv", cfg.Schedule.Format)
			},
		},
		{
			name:    "schedule without lookback rejected",
			file:    "schedule:\n  enabled: true\n  lookback_days: 0\n",
			wantErr: "schedule lookback_days must be positive",
		},
		{
			name:    "malformed yaml",
			file:    "server: [",
			wantErr: "failed to load config from file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := writeConfigFile(t, tt.file)

			cfg, err := Load(path)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.validateCfg(t, cfg)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
}

func TestLoad_InvalidIsConfigError(t *testing.T) {
	path := writeConfigFile(t, "server:\n  port: 0\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
	assert.Contains(t, err.Error(), "invalid server port")
}

func TestLoad_ConfigFileEnv(t *testing.T) {
	path := writeConfigFile(t, "server:\n  port: 7070\n")
	t.Setenv(ConfigFileEnv, path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
}

func TestConfig_Address(t *testing.T) {
	cfg := Default()
	cfg.Server.Host = "127.0.0.1"
	assert.Equal(t, "127.0.0.1:8080", cfg.Address())
}
