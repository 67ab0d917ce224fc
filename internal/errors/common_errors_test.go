package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name        string
		appError    *AppError
		wantMessage string
	}{
		{
			name:        "error without cause",
			appError:    NewNoDataError("no ticker returned data"),
			wantMessage: "[NO_DATA] no ticker returned data",
		},
		{
			name:        "error with cause",
			appError:    NewTickerFetchError("2330.TW", fmt.Errorf("status 404")),
			wantMessage: "[TICKER_FETCH] fetch 2330.TW failed: status 404",
		},
		{
			name:        "invalid parameter names the field",
			appError:    NewInvalidParameterError("start_date", "must be YYYY-MM-DD"),
			wantMessage: "[INVALID_PARAMETER] invalid start_date: must be YYYY-MM-DD",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMessage, tt.appError.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewRegistryUnavailableError("http://registry", cause)

	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "http://registry", err.Context["url"])
}

func TestTypeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"nil", nil, ""},
		{"plain error", errors.New("boom"), ""},
		{"direct", NewUnsupportedFormatError("xml"), ErrTypeUnsupportedFormat},
		{"wrapped", fmt.Errorf("run: %w", NewNoDataError("empty")), ErrTypeNoData},
		{"registry format", NewRegistryFormatError("table missing"), ErrTypeRegistryFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TypeOf(tt.err))
			if tt.want != "" {
				assert.True(t, IsType(tt.err, tt.want))
			}
		})
	}
}

func TestTickerFetchError_Context(t *testing.T) {
	err := NewTickerFetchError("1101.TW", nil)
	require.NotNil(t, err.Context)
	assert.Equal(t, "1101.TW", err.Context["ticker"])
	assert.Nil(t, err.Unwrap())
}

func TestUnsupportedFormatError_Context(t *testing.T) {
	err := NewUnsupportedFormatError("xml")
	assert.Equal(t, "xml", err.Context["format"])
	assert.Contains(t, err.Error(), `"xml"`)
}
