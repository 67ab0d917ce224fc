package config

import "time"

const (
	AppName = "StockAPI"

	// EnvPrefix namespaces every environment override (STOCKAPI_SERVER_PORT, ...)
	EnvPrefix = "STOCKAPI"

	// ConfigFileEnv names the variable pointing at an explicit YAML config file
	ConfigFileEnv = "STOCKAPI_CONFIG_FILE"

	// Taiwan Stock Exchange ISIN listing for listed equities
	DefaultRegistryURL   = "https://isin.twse.com.tw/isin/C_public.jsp?strMode=2"
	DefaultRegistryTable = "h4"
	DefaultTickerSuffix  = ".TW"

	DefaultProviderURL = "https://query1.finance.yahoo.com"
	DefaultUserAgent   = "Mozilla/5.0 (compatible; StockAPI/1.0)"

	DefaultHTTPTimeout     = 30 * time.Second
	DefaultPipelineTimeout = 2 * time.Minute
	DefaultWorkers         = 8

	// Weekdays at 14:00 Taipei time, after the TWSE close. Six fields, seconds first.
	DefaultScheduleCron     = "0 0 14 * * 1-5"
	DefaultScheduleTimezone = "Asia/Taipei"
)
