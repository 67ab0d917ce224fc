package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apierrors "github.com/oinktech/StockAPI/internal/errors"
	"github.com/oinktech/StockAPI/internal/pipeline"
	"github.com/oinktech/StockAPI/internal/services"
	"github.com/oinktech/StockAPI/internal/shared/testutil"
	"github.com/oinktech/StockAPI/pkg/contracts/domain"
)

// MockStockService is a mock implementation of StockServiceInterface
type MockStockService struct {
	mock.Mock
}

func (m *MockStockService) Export(ctx context.Context, req domain.Request) (*pipeline.Result, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pipeline.Result), args.Error(1)
}

func (m *MockStockService) Save(ctx context.Context, req domain.Request) (*services.SaveResult, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.SaveResult), args.Error(1)
}

func (m *MockStockService) LivePrice(ctx context.Context, ticker string) (domain.Quote, error) {
	args := m.Called(ticker)
	return args.Get(0).(domain.Quote), args.Error(1)
}

func (m *MockStockService) Tickers(ctx context.Context, industry string) ([]domain.TickerInfo, error) {
	args := m.Called(industry)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TickerInfo), args.Error(1)
}

func (m *MockStockService) Industries(ctx context.Context) ([]string, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockStockService) Monitor() services.MonitorSnapshot {
	return m.Called().Get(0).(services.MonitorSnapshot)
}

func (m *MockStockService) MonitorChart() ([]byte, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func newTestRouter(svc StockServiceInterface) http.Handler {
	logger := testutil.DiscardLogger()
	eh := apierrors.NewErrorHandler(logger, false)

	r := chi.NewRouter()
	r.Mount("/api/monitor", NewMonitorHandler(svc, logger, eh).Routes())
	r.Mount("/api", NewStockHandler(svc, logger, eh).Routes())
	return r
}

func serve(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func problemOf(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

const stockBody = `{"start_date":"2024-01-01","end_date":"2024-02-01","output_format":"csv","industry":"Semiconductors","sort_by":"price"}`

func TestStockHandler_GetStockData(t *testing.T) {
	svc := new(MockStockService)
	want := domain.Request{StartDate: "2024-01-01", EndDate: "2024-02-01", OutputFormat: "csv", Industry: "Semiconductors", SortBy: "price"}
	svc.On("Export", want).Return(&pipeline.Result{
		Report: pipeline.Report{RunID: "run-7", Tickers: 3, Succeeded: 2, Failed: []pipeline.TickerFailure{{Ticker: "B.TW", Error: "boom"}}},
		Params: domain.Params{Start: testutil.Day(1, 1), End: testutil.Day(2, 1), Format: domain.FormatCSV},
		Artifact: &domain.Artifact{
			Format:      domain.FormatCSV,
			ContentType: "text/csv; charset=utf-8",
			Extension:   "csv",
			Content:     []byte("Date,Close\n2024-01-02,10\n"),
		},
	}, nil)

	rec := serve(newTestRouter(svc), http.MethodPost, "/api/stock-data", stockBody)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="stock_data_2024-01-01_2024-02-01.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "run-7", rec.Header().Get("X-Run-ID"))
	assert.Len(t, rec.Header().Get("ETag"), 66)
	assert.Equal(t, "1", rec.Header().Get("X-Tickers-Failed"))
	assert.Equal(t, "Date,Close\n2024-01-02,10\n", rec.Body.String())
	svc.AssertExpectations(t)
}

func TestStockHandler_GetStockData_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"invalid parameter", apierrors.NewInvalidParameterError("start_date", "bad"), http.StatusBadRequest, "INVALID_PARAMETER"},
		{"unsupported format", apierrors.NewUnsupportedFormatError("xml"), http.StatusBadRequest, "UNSUPPORTED_FORMAT"},
		{"no data", apierrors.NewNoDataError("nothing"), http.StatusNotFound, "NO_DATA"},
		{"registry down", apierrors.NewRegistryUnavailableError("http://x", errors.New("refused")), http.StatusBadGateway, "REGISTRY_UNAVAILABLE"},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockStockService)
			svc.On("Export", mock.Anything).Return(nil, tt.err)

			rec := serve(newTestRouter(svc), http.MethodPost, "/api/stock-data", stockBody)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
			body := problemOf(t, rec)
			assert.Equal(t, float64(tt.wantStatus), body["status"])
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, body["error_code"])
			}
		})
	}
}

func TestStockHandler_MalformedBody(t *testing.T) {
	svc := new(MockStockService)
	rec := serve(newTestRouter(svc), http.MethodPost, "/api/stock-data", `{"start_date":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "Export", mock.Anything)
}

func TestStockHandler_SaveStockData(t *testing.T) {
	svc := new(MockStockService)
	svc.On("Save", mock.Anything).Return(&services.SaveResult{
		Status: "CSV saved successfully",
		File:   "out/stock_data_2024-01-01_2024-02-01.csv",
		Rows:   4,
	}, nil)

	rec := serve(newTestRouter(svc), http.MethodPost, "/api/stock-data/save", stockBody)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := problemOf(t, rec)
	assert.Equal(t, "CSV saved successfully", body["status"])
	assert.Equal(t, "out/stock_data_2024-01-01_2024-02-01.csv", body["file"])
}

func TestStockHandler_GetLivePrice(t *testing.T) {
	svc := new(MockStockService)
	svc.On("LivePrice", "2330.TW").Return(domain.Quote{Ticker: "2330.TW", LastPrice: 593.5, Currency: "TWD"}, nil)
	svc.On("LivePrice", "NOPE").Return(domain.Quote{}, apierrors.NewTickerFetchError("NOPE", errors.New("404")))

	h := newTestRouter(svc)

	rec := serve(h, http.MethodGet, "/api/live-price/2330.TW", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ticker":"2330.TW","last_price":593.5,"currency":"TWD"}`, rec.Body.String())

	rec = serve(h, http.MethodGet, "/api/live-price/NOPE", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "NOPE", problemOf(t, rec)["ticker"])
}

func TestStockHandler_GetTickers(t *testing.T) {
	svc := new(MockStockService)
	svc.On("Tickers", "Shipping").Return([]domain.TickerInfo{{Ticker: "2603.TW", Name: "Evergreen", Industry: "Shipping"}}, nil)
	svc.On("Tickers", "Aerospace").Return(nil, nil)

	h := newTestRouter(svc)

	rec := serve(h, http.MethodGet, "/api/tickers?industry=Shipping", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	body := problemOf(t, rec)
	assert.Equal(t, float64(1), body["count"])

	rec = serve(h, http.MethodGet, "/api/tickers?industry=Aerospace", "")
	assert.JSONEq(t, `{"count":0,"data":[]}`, rec.Body.String())
}

func TestStockHandler_GetIndustries(t *testing.T) {
	svc := new(MockStockService)
	svc.On("Industries").Return(nil, apierrors.NewRegistryFormatError("table missing"))

	rec := serve(newTestRouter(svc), http.MethodGet, "/api/industries", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "REGISTRY_FORMAT", problemOf(t, rec)["error_code"])
}

func TestMonitorHandler(t *testing.T) {
	svc := new(MockStockService)
	svc.On("Monitor").Return(services.MonitorSnapshot{RequestCount: 12})
	svc.On("MonitorChart").Return([]byte("\x89PNG"), nil)

	h := newTestRouter(svc)

	rec := serve(h, http.MethodGet, "/api/monitor", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"request_count":12}`, rec.Body.String())

	rec = serve(h, http.MethodGet, "/api/monitor/chart", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "\x89PNG", rec.Body.String())
}
