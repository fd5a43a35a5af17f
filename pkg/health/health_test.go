package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoChecksIsHealthy(t *testing.T) {
	h := New()

	status, err := h.CheckLiveness(context.Background())
	require.NoError(t, err)
	assert.True(t, status.Healthy)
	assert.Empty(t, status.Checks)
}

func TestPassingCheck(t *testing.T) {
	h := New()
	h.AddReadinessCheck(NewCheckFunc("store", func(ctx context.Context) error { return nil }))

	status, err := h.CheckReadiness(context.Background())
	require.NoError(t, err)
	assert.True(t, status.Healthy)
	require.Len(t, status.Checks, 1)
	assert.Equal(t, "store", status.Checks[0].Name)
}

func TestFailureThreshold(t *testing.T) {
	h := New(WithFailureThreshold(3))
	h.AddReadinessCheck(NewCheckFunc("wecom", func(ctx context.Context) error {
		return errors.New("token endpoint unreachable")
	}))

	// Below threshold: still reported healthy
	for i := 0; i < 2; i++ {
		status, err := h.CheckReadiness(context.Background())
		require.NoError(t, err)
		assert.True(t, status.Healthy)
	}

	// Third consecutive failure crosses the threshold
	status, err := h.CheckReadiness(context.Background())
	require.Error(t, err)
	assert.False(t, status.Healthy)
	assert.Contains(t, status.Checks[0].Error, "token endpoint unreachable")
}

func TestFailureCountResetsOnSuccess(t *testing.T) {
	fail := true
	h := New(WithFailureThreshold(2))
	h.AddLivenessCheck(NewCheckFunc("flaky", func(ctx context.Context) error {
		if fail {
			return errors.New("transient")
		}
		return nil
	}))

	_, err := h.CheckLiveness(context.Background())
	require.NoError(t, err)

	fail = false
	_, err = h.CheckLiveness(context.Background())
	require.NoError(t, err)

	fail = true
	status, err := h.CheckLiveness(context.Background())
	require.NoError(t, err)
	assert.True(t, status.Healthy)
}

func TestCheckTimeout(t *testing.T) {
	h := New(WithTimeout(10*time.Millisecond), WithFailureThreshold(1))
	h.AddReadinessCheck(NewCheckFunc("slow", func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
			return nil
		}
	}))

	status, err := h.CheckReadiness(context.Background())
	require.Error(t, err)
	assert.False(t, status.Healthy)
}

func TestHTTPHandlers(t *testing.T) {
	h := New(WithFailureThreshold(1))
	h.AddReadinessCheck(NewCheckFunc("bad", func(ctx context.Context) error {
		return errors.New("down")
	}))

	rec := httptest.NewRecorder()
	h.LivenessHandler()(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ReadinessHandler()(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "unhealthy")
}
