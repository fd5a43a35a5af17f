package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lewisedginton/support_relay/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() logger.Logger {
	return logger.NewLogger(logger.Config{Level: logger.ErrorLevel, Format: "json"})
}

func TestNewMetrics(t *testing.T) {
	m := NewMetrics(true, true, testLogger())
	assert.NotNil(t, m.TotalHTTPRequestsCounter)
	assert.NotNil(t, m.HTTPDurationHistogram)
	assert.Len(t, m.RelayCounters, 6)

	disabled := NewMetrics(false, false, testLogger())
	assert.Nil(t, disabled.TotalHTTPRequestsCounter)
	assert.Nil(t, disabled.RelayCounters)
}

func TestIncrementRelayCounter(t *testing.T) {
	m := NewMetrics(false, true, testLogger())
	m.IncrementRelayCounter(RelayInboundTelegram)
	m.IncrementRelayCounter(RelayInboundTelegram)
	m.IncrementRelayCounter(RelayDeliveryFailures)
	// Unknown index must not panic
	m.IncrementRelayCounter(999)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	assert.Contains(t, body, "relay_inbound_telegram_messages 2")
	assert.Contains(t, body, "relay_delivery_failures 1")
}

func TestHTTPMiddleware(t *testing.T) {
	m := NewMetrics(true, false, testLogger())

	handler := m.HTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))

	for i := 0; i < 3; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/wecom/callback", nil))
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	assert.Contains(t, body, "relay_total_http_requests 3")
	assert.Contains(t, body, "relay_total_http_403_responses 3")
}

func TestAddCustomMetric(t *testing.T) {
	m := NewMetrics(false, false, testLogger())
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Subsystem: "relay",
		Name:      "route_index_entries",
		Help:      "Entries currently held in the reverse message index",
	})
	require.NotPanics(t, func() {
		m.AddCustomMetric(gauge)
	})
	gauge.Set(42)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "relay_route_index_entries 42")
}
