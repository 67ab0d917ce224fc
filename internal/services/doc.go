// Package services implements the business logic behind the HTTP handlers
// and the command-line tools.
//
// StockService turns caller requests into pipeline runs, persists artifacts
// when asked to, and serves the supporting lookups: live prices, the ticker
// registry listing and the request monitor. HealthService reports process
// health.
//
// Services take their collaborators through small interfaces so they can be
// tested with mocks:
//
//	svc := services.NewStockService(pipe, tickers, fetcher, counter, opts, logger)
//	result, err := svc.Export(ctx, req)
package services
