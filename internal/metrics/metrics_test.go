package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordSearch(t *testing.T) {
	m := New()

	m.RecordSearch("success", 120*time.Millisecond)
	m.RecordSearch("success", 80*time.Millisecond)
	m.RecordSearch("transport_error", time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.SearchRequests.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SearchRequests.WithLabelValues("transport_error")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.SearchRequests.WithLabelValues("decode_error")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.RecordSearch("success", time.Millisecond)
		m.RecordStale()
		m.RecordImageLoad("memory")
	})
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.RecordStale()
	m.RecordImageLoad("network")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "snapgrid_stale_responses_total 1")
	assert.Contains(t, body, `snapgrid_image_loads_total{tier="network"} 1`)
}
