package telemetry

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusMetrics_RecordsRequests(t *testing.T) {
	pm, err := NewPrometheusMetrics("supplier", nil)
	require.NoError(t, err)

	done := pm.RequestStarted()
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.inFlight))
	done(http.MethodGet, "/api/v1/suppliers", http.StatusOK)

	assert.Equal(t, 0.0, testutil.ToFloat64(pm.inFlight))
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.requestsTotal.WithLabelValues("GET", "/api/v1/suppliers", "200")))

	pm.RequestStarted()(http.MethodGet, "", http.StatusNotFound)
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.requestsTotal.WithLabelValues("GET", "unmatched", "404")))
}

func TestPrometheusMetrics_Handler(t *testing.T) {
	pm, err := NewPrometheusMetrics("supplier", nil)
	require.NoError(t, err)
	pm.RequestStarted()(http.MethodPost, "/api/v1/purchase-orders", http.StatusCreated)

	w := httptest.NewRecorder()
	pm.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(body), "supplier_http_requests_total")
	assert.Contains(t, string(body), "go_goroutines")
}
