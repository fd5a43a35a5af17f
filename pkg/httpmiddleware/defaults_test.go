package httpmiddleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/lewisedginton/support_relay/pkg/logger"
	"github.com/stretchr/testify/assert"
)

func TestApplyToRouterDefaults(t *testing.T) {
	router := chi.NewRouter()
	ApplyToRouter(router, DefaultConfig())
	router.Get("/ok", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHeartbeat(t *testing.T) {
	router := chi.NewRouter()
	ApplyToRouter(router, DefaultConfig())
	router.Get("/", func(w http.ResponseWriter, r *http.Request) {})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRecoveryFromPanic(t *testing.T) {
	router := chi.NewRouter()
	ApplyToRouter(router, DefaultConfig())
	router.Get("/panic", func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	assert.NotPanics(t, func() {
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCorrelationIDIsGenerated(t *testing.T) {
	var seen string
	router := chi.NewRouter()
	WithLogger(router, logger.NewLogger(logger.Config{Level: logger.ErrorLevel, Format: "json"}))
	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("X-Correlation-ID")
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Correlation-ID", "client-supplied")
	router.ServeHTTP(httptest.NewRecorder(), req)

	assert.NotEmpty(t, seen)
	assert.NotEqual(t, "client-supplied", seen)
}
