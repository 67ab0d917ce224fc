// Package app wires configuration, telemetry, the pipeline and the HTTP
// surface into a runnable server.
//
// # Initialization Flow
//
//	1. Load configuration from YAML and STOCKAPI_* environment variables
//	2. Initialize logging and OpenTelemetry
//	3. Build the registry client, market-data fetcher and exporters
//	4. Start the progress hub and create the pipeline and services
//	5. Set up HTTP handlers and middleware
//
// # Graceful Shutdown
//
// Run blocks until SIGINT or SIGTERM, then drains in-flight requests within
// the configured shutdown timeout, closes websocket clients and flushes
// telemetry. Errors are returned to the caller; the package never calls
// os.Exit.
package app
