package infrastructure

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oinktech/StockAPI/internal/shared/testutil"
)

func TestInitializeOTel_Metrics(t *testing.T) {
	providers, err := InitializeOTel(OTelConfig{ServiceName: "stockapi-test", EnableMetrics: true}, testutil.DiscardLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	require.NotNil(t, providers.MeterProvider)
	assert.Nil(t, providers.TracerProvider)

	metrics, err := NewPipelineMetrics(providers.Meter)
	require.NoError(t, err)
	metrics.RecordRun(context.Background(), "success", "csv", 1500*time.Millisecond)
	metrics.RecordFetch(context.Background(), false)

	counter := NewRequestCounter(metrics.RequestsTotal)
	counter.Increment(context.Background())

	rec := httptest.NewRecorder()
	providers.PrometheusHTTP.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "pipeline_runs_total")
	assert.Contains(t, body, "ticker_fetch_total")
	assert.Contains(t, body, "stock_requests_total")
}

func TestInitializeOTel_Disabled(t *testing.T) {
	providers, err := InitializeOTel(OTelConfig{ServiceName: "stockapi-test"}, testutil.DiscardLogger())
	require.NoError(t, err)

	assert.NotNil(t, providers.Tracer)
	assert.NotNil(t, providers.Meter)
	assert.NoError(t, providers.Shutdown(context.Background()))

	rec := httptest.NewRecorder()
	providers.PrometheusHTTP.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequestCounter_Concurrent(t *testing.T) {
	counter := NewRequestCounter(NoopPipelineMetrics().RequestsTotal)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				counter.Increment(context.Background())
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1000, counter.Count())
}

func TestRequestCounter_NilInstrument(t *testing.T) {
	counter := NewRequestCounter(nil)
	assert.EqualValues(t, 1, counter.Increment(context.Background()))
	assert.EqualValues(t, 1, counter.Count())
}
