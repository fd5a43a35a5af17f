package translate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lewisedginton/support_relay/pkg/logger"
)

type stubTranslator struct {
	name   string
	out    string
	err    error
	called int
}

func (s *stubTranslator) Name() string { return s.name }

func (s *stubTranslator) Translate(ctx context.Context, text, targetLang string) (string, error) {
	s.called++
	return s.out, s.err
}

func testLogger() logger.Logger {
	return logger.NewLogger(logger.Config{Level: logger.ErrorLevel})
}

func TestGatewayFirstSuccessWins(t *testing.T) {
	primary := &stubTranslator{name: "primary", out: "你好"}
	secondary := &stubTranslator{name: "secondary", out: "unused"}
	g := NewGateway(testLogger(), primary, secondary)

	out, err := g.Translate(context.Background(), "hello", "zh")
	require.NoError(t, err)
	assert.Equal(t, "你好", out)
	assert.Equal(t, 1, primary.called)
	assert.Equal(t, 0, secondary.called, "secondary should not run when primary succeeds")
}

func TestGatewayFallsBackOnError(t *testing.T) {
	primary := &stubTranslator{name: "primary", err: errors.New("rate limited")}
	secondary := &stubTranslator{name: "secondary", out: "你好"}
	g := NewGateway(testLogger(), primary, secondary)

	out, err := g.Translate(context.Background(), "hello", "zh")
	require.NoError(t, err)
	assert.Equal(t, "你好", out)
	assert.Equal(t, 1, primary.called)
	assert.Equal(t, 1, secondary.called)
}

func TestGatewayExhaustedChainReturnsUnavailable(t *testing.T) {
	primary := &stubTranslator{name: "primary", err: errors.New("down")}
	secondary := &stubTranslator{name: "secondary", err: errors.New("also down")}
	g := NewGateway(testLogger(), primary, secondary)

	_, err := g.Translate(context.Background(), "hello", "zh")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestGatewayEmptyChainAndEmptyText(t *testing.T) {
	g := NewGateway(testLogger())
	assert.False(t, g.Available())

	_, err := g.Translate(context.Background(), "hello", "zh")
	assert.ErrorIs(t, err, ErrUnavailable)

	g = NewGateway(testLogger(), &stubTranslator{name: "p", out: "x"})
	_, err = g.Translate(context.Background(), "   ", "zh")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestGatewaySkipsBlankResults(t *testing.T) {
	primary := &stubTranslator{name: "primary", out: "  "}
	secondary := &stubTranslator{name: "secondary", out: "translated"}
	g := NewGateway(testLogger(), primary, secondary)

	out, err := g.Translate(context.Background(), "hello", "zh")
	require.NoError(t, err)
	assert.Equal(t, "translated", out)
}
