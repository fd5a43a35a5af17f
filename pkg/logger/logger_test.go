package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name   string
		config Config
	}{
		{name: "json format", config: Config{Level: InfoLevel, Format: "json"}},
		{name: "text format", config: Config{Level: DebugLevel, Format: "text"}},
		{name: "with service", config: Config{Level: InfoLevel, Format: "json", Service: "relay"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLogger(tt.config)
			assert.NotNil(t, l)
		})
	}
}

func TestLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(Config{Level: InfoLevel, Format: "json", Service: "relay", Output: &buf})

	l.WithFields(StringField("ticket", "42")).Info("relayed")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "relayed", entry["msg"])
	assert.Equal(t, "42", entry["ticket"])
	assert.Equal(t, "relay", entry["service"])
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(Config{Level: WarnLevel, Format: "json", Output: &buf})

	l.Debug("dropped")
	l.Info("dropped too")
	assert.Empty(t, buf.String())

	l.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestFieldHelpers(t *testing.T) {
	assert.Equal(t, LogField{Key: "k", Value: "v"}, StringField("k", "v"))
	assert.Equal(t, "7", IntField("n", 7).Value)
	assert.Equal(t, "true", BoolField("b", true).Value)
	assert.Equal(t, "<nil>", ErrorField(nil).Value)
	assert.Equal(t, "42", Field("any", int64(42)).Value)
}

func TestCorrelationIDContext(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetCorrelationIDFromContext(ctx))

	ctx = WithCorrelationIDContext(ctx, "abc")
	assert.Equal(t, "abc", GetCorrelationIDFromContext(ctx))
}

func TestEnsureHTTPCorrelationID(t *testing.T) {
	t.Run("generates when missing", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r, id := EnsureHTTPCorrelationID(r)
		assert.NotEmpty(t, id)
		assert.Equal(t, id, r.Header.Get("X-Correlation-ID"))
	})

	t.Run("replaces invalid", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-Correlation-ID", "not-a-uuid")
		_, id := EnsureHTTPCorrelationID(r)
		assert.NotEqual(t, "not-a-uuid", id)
	})
}

func TestHTTPMiddleware(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(Config{Level: InfoLevel, Format: "json", Output: &buf})

	handler := l.HTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/wecom/callback", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Contains(t, buf.String(), "HTTP request received")
	assert.Contains(t, buf.String(), "418")
}
