package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oinktech/StockAPI/internal/shared/testutil"
)

func TestErrorHandler_HandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{
			name:       "nil error writes nothing",
			err:        nil,
			wantStatus: http.StatusOK,
		},
		{
			name:       "deadline exceeded",
			err:        fmt.Errorf("pipeline: %w", context.DeadlineExceeded),
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
		},
		{
			name:       "invalid parameter",
			err:        NewInvalidParameterError("start_date", "bad date"),
			wantStatus: http.StatusBadRequest,
			wantType:   TypeInvalidParameter,
		},
		{
			name:       "unsupported format",
			err:        NewUnsupportedFormatError("xml"),
			wantStatus: http.StatusBadRequest,
			wantType:   TypeUnsupportedFormat,
		},
		{
			name:       "no data",
			err:        NewNoDataError("every ticker failed"),
			wantStatus: http.StatusNotFound,
			wantType:   TypeNoData,
		},
		{
			name:       "registry unavailable",
			err:        NewRegistryUnavailableError("http://x", errors.New("dial")),
			wantStatus: http.StatusBadGateway,
			wantType:   TypeRegistryUnavailable,
		},
		{
			name:       "registry format",
			err:        NewRegistryFormatError("table missing"),
			wantStatus: http.StatusBadGateway,
			wantType:   TypeRegistryFormat,
		},
		{
			name:       "api error",
			err:        ErrInvalidRequest,
			wantStatus: http.StatusBadRequest,
			wantType:   TypeValidation,
		},
		{
			name:       "generic error",
			err:        errors.New("something went wrong"),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logs := testutil.NewTestLogger(t)
			handler := NewErrorHandler(logger, false)

			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/api/stock-data", nil)

			handler.HandleError(w, r, tt.err)

			if tt.err == nil {
				assert.Equal(t, 0, w.Body.Len())
				assert.False(t, logs.ContainsMessage("request failed"))
				return
			}

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Header().Get("Content-Type"), "application/json")

			var problem map[string]interface{}
			require.NoError(t, json.NewDecoder(w.Body).Decode(&problem))
			assert.Equal(t, tt.wantType, problem["type"])
			assert.EqualValues(t, tt.wantStatus, problem["status"])
			assert.Equal(t, "/api/stock-data", problem["instance"])
			assert.True(t, logs.ContainsMessage("request failed"))
		})
	}
}

func TestErrorHandler_ContextExtensions(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	handler := NewErrorHandler(logger, false)
	r := httptest.NewRequest(http.MethodGet, "/api/live-price/9999.TW", nil)

	problem := handler.ErrorToProblem(NewTickerFetchError("9999.TW", errors.New("not found")), r)

	assert.Equal(t, http.StatusBadGateway, problem.Status)
	assert.Equal(t, "9999.TW", problem.Extensions["ticker"])
	assert.Equal(t, "TICKER_FETCH", problem.Extensions["error_code"])
}

func TestErrorHandler_RegistryURLNotLeaked(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	handler := NewErrorHandler(logger, false)
	r := httptest.NewRequest(http.MethodGet, "/api/tickers", nil)

	problem := handler.ErrorToProblem(NewRegistryUnavailableError("http://internal", nil), r)

	_, ok := problem.Extensions["url"]
	assert.False(t, ok)
}

func TestErrorHandler_NotFound(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	handler := NewErrorHandler(logger, false)
	w := httptest.NewRecorder()

	handler.NotFound(w, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestErrorHandler_HandlePanic(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	handler := NewErrorHandler(logger, true)
	w := httptest.NewRecorder()

	handler.HandlePanic(w, httptest.NewRequest(http.MethodGet, "/boom", nil), "kaboom")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.True(t, logs.ContainsMessage("panic recovered"))
	assert.Contains(t, w.Body.String(), "kaboom")
}

func TestProblemDetails_MarshalJSON(t *testing.T) {
	pd := NewProblemDetails(http.StatusBadRequest, TypeInvalidParameter, "Invalid Parameter", "bad", "/x").
		WithExtension("field", "end_date")

	data, err := json.Marshal(pd)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, "end_date", out["field"])
	assert.Equal(t, "Invalid Parameter", out["title"])
	assert.EqualValues(t, 400, out["status"])
}
