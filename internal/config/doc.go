// Package config loads StockAPI configuration.
//
// Values are resolved in increasing order of precedence:
//
//	1. Default()
//	2. A YAML file (explicit path, STOCKAPI_CONFIG_FILE, config.yaml or configs/config.yaml)
//	3. Environment variables prefixed with STOCKAPI_
//
// Nested sections map to underscore-joined names:
//
//	STOCKAPI_SERVER_PORT=9090
//	STOCKAPI_PIPELINE_WORKERS=16
//	STOCKAPI_REGISTRY_RENDERER=chrome
//	STOCKAPI_EXPORT_OUTPUT_DIR=/var/lib/stockapi
package config
