// Package shared holds helpers used by more than one StockAPI package.
//
// The testutil subpackage provides a capturing slog handler and fixtures
// (price series, registry pages, provider payloads) for package tests.
package shared
