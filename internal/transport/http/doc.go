// Package http implements the HTTP handlers of the stock-data service.
//
// Handlers stay thin: they decode the request, call a service and render
// either a JSON body or the artifact bytes. Every failure goes through the
// RFC 7807 ErrorHandler so callers always receive a problem document:
//
//	POST /api/stock-data             artifact as an attachment
//	POST /api/stock-data/save        persist the artifact, JSON status
//	GET  /api/live-price/{ticker}    latest close of one ticker
//	GET  /api/tickers?industry=      registry listing
//	GET  /api/industries             distinct industries
//	GET  /api/monitor                request count
//	GET  /api/monitor/chart          request count as a PNG bar chart
//	GET  /api/health                 process health
package http
