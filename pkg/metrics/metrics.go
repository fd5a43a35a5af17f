// Package metrics provides Prometheus metrics collection for HTTP requests
// and message relay operations.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/lewisedginton/support_relay/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	subsystem = "relay"
)

// Relay metric counter indices.
const (
	RelayInboundTelegram = iota
	RelayInboundWeCom
	RelayAdminReplies
	RelayTranslations
	RelayTranslationFallbacks
	RelayDeliveryFailures
)

// Metrics provides Prometheus metrics collection.
type Metrics struct {
	reg *prometheus.Registry

	TotalHTTPRequestsCounter prometheus.Counter
	HTTPRequestsCounters     map[int]prometheus.Counter
	HTTPDurationHistogram    prometheus.Histogram

	RelayCounters map[int]prometheus.Counter

	customMetrics []prometheus.Collector

	log logger.Logger
}

// NewMetrics creates a new Metrics instance with the specified collectors enabled.
func NewMetrics(httpCounters, relayCounters bool, l logger.Logger) Metrics {
	m := Metrics{
		reg: prometheus.NewRegistry(),
		log: l,
	}
	if httpCounters {
		m.TotalHTTPRequestsCounter = prometheus.NewCounter(prometheus.CounterOpts{
			Subsystem: subsystem,
			Name:      "total_http_requests",
			Help:      "Total HTTP requests",
		})
		m.reg.MustRegister(m.TotalHTTPRequestsCounter)
		m.HTTPRequestsCounters = make(map[int]prometheus.Counter)

		m.HTTPDurationHistogram = prometheus.NewHistogram(prometheus.HistogramOpts{
			Subsystem: subsystem,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.1, 0.3, 0.5, 0.7, 1.0, 3.0, 5.0, 7.0, 10.0},
		})
		m.reg.MustRegister(m.HTTPDurationHistogram)
	}
	if relayCounters {
		m.RelayCounters = getRelayCounters()
		for k := range m.RelayCounters {
			m.reg.MustRegister(m.RelayCounters[k])
		}
	}
	return m
}

func getRelayCounters() map[int]prometheus.Counter {
	m := make(map[int]prometheus.Counter)
	m[RelayInboundTelegram] = prometheus.NewCounter(prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      "inbound_telegram_messages",
		Help:      "Inbound Telegram user messages relayed to the administrator",
	})
	m[RelayInboundWeCom] = prometheus.NewCounter(prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      "inbound_wecom_messages",
		Help:      "Inbound WeCom member messages relayed to the administrator",
	})
	m[RelayAdminReplies] = prometheus.NewCounter(prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      "admin_replies_dispatched",
		Help:      "Administrator replies dispatched to remote parties",
	})
	m[RelayTranslations] = prometheus.NewCounter(prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      "translations_posted",
		Help:      "Translation follow-ups posted",
	})
	m[RelayTranslationFallbacks] = prometheus.NewCounter(prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      "translation_fallbacks",
		Help:      "Times the primary translator failed and a fallback was tried",
	})
	m[RelayDeliveryFailures] = prometheus.NewCounter(prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      "delivery_failures",
		Help:      "Outbound deliveries that failed and were reported to the administrator",
	})
	return m
}

// IncrementRelayCounter increments a relay counter by index; unknown indices are ignored.
func (m *Metrics) IncrementRelayCounter(idx int) {
	if c, ok := m.RelayCounters[idx]; ok {
		c.Inc()
	}
}

// IncrementHTTPResponseCounter increments the counter for the given HTTP status code.
func (m *Metrics) IncrementHTTPResponseCounter(code int) {
	_, ok := m.HTTPRequestsCounters[code]
	if !ok {
		m.HTTPRequestsCounters[code] = prometheus.NewCounter(prometheus.CounterOpts{
			Subsystem: subsystem,
			Name:      fmt.Sprintf("total_http_%d_responses", code),
			Help:      fmt.Sprintf("Total HTTP %d responses", code),
		})
		m.reg.MustRegister(m.HTTPRequestsCounters[code])
	}
	m.HTTPRequestsCounters[code].Inc()
}

// AddCustomMetric registers a custom Prometheus collector.
func (m *Metrics) AddCustomMetric(c prometheus.Collector) {
	m.customMetrics = append(m.customMetrics, c)
	m.reg.MustRegister(c)
}

// Handler returns an http.Handler exposing the registry, for mounting on a router.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// Listen starts a dedicated metrics HTTP server on the specified port and
// blocks until the context is cancelled.
func (m *Metrics) Listen(ctx context.Context, port int) error {
	m.log.Info("Starting metrics listener", logger.IntField("port", port))
	mux := http.NewServeMux()
	mux.Handle("/", http.NotFoundHandler())
	mux.Handle("/metrics", m.Handler())
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		m.log.Info("Stopping metrics listener")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}

// HTTPMiddleware returns middleware recording request totals, status codes and durations.
func (m *Metrics) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		m.TotalHTTPRequestsCounter.Inc()

		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		m.HTTPDurationHistogram.Observe(time.Since(start).Seconds())
		m.IncrementHTTPResponseCounter(wrapped.status)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
