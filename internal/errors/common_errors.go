package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeInvalidParameter    ErrorType = "INVALID_PARAMETER"
	ErrTypeRegistryUnavailable ErrorType = "REGISTRY_UNAVAILABLE"
	ErrTypeRegistryFormat      ErrorType = "REGISTRY_FORMAT"
	ErrTypeTickerFetch         ErrorType = "TICKER_FETCH"
	ErrTypeNoData              ErrorType = "NO_DATA"
	ErrTypeUnsupportedFormat   ErrorType = "UNSUPPORTED_FORMAT"
	ErrTypeStorage             ErrorType = "STORAGE"
	ErrTypeConfig              ErrorType = "CONFIG"
	ErrTypeInternal            ErrorType = "INTERNAL"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// NewInvalidParameterError reports a malformed or out-of-range caller parameter
func NewInvalidParameterError(field, message string) *AppError {
	return NewAppError(ErrTypeInvalidParameter, fmt.Sprintf("invalid %s: %s", field, message), nil).
		WithContext("field", field)
}

// NewRegistryUnavailableError reports that the ticker registry could not be retrieved
func NewRegistryUnavailableError(url string, cause error) *AppError {
	return NewAppError(ErrTypeRegistryUnavailable, "ticker registry unavailable", cause).
		WithContext("url", url)
}

// NewRegistryFormatError reports that the registry page no longer has the expected layout
func NewRegistryFormatError(message string) *AppError {
	return NewAppError(ErrTypeRegistryFormat, message, nil)
}

// NewTickerFetchError reports a failed series fetch for one ticker
func NewTickerFetchError(ticker string, cause error) *AppError {
	return NewAppError(ErrTypeTickerFetch, fmt.Sprintf("fetch %s failed", ticker), cause).
		WithContext("ticker", ticker)
}

// NewNoDataError reports that no ticker produced any rows
func NewNoDataError(message string) *AppError {
	return NewAppError(ErrTypeNoData, message, nil)
}

// NewUnsupportedFormatError reports an unknown export format
func NewUnsupportedFormatError(format string) *AppError {
	return NewAppError(ErrTypeUnsupportedFormat, fmt.Sprintf("unsupported output format %q", format), nil).
		WithContext("format", format)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// NewInternalError creates an invariant-violation error
func NewInternalError(message string) *AppError {
	return NewAppError(ErrTypeInternal, message, nil)
}

// TypeOf returns the ErrorType of the first AppError in err's chain, or "".
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

// IsType reports whether err's chain contains an AppError of type t
func IsType(err error, t ErrorType) bool {
	return TypeOf(err) == t
}
