// Package translate provides best-effort text translation through an
// ordered chain of model backends. No error from an individual backend
// crosses the component boundary; callers either get a translation or
// ErrUnavailable.
package translate

import (
	"context"
	"errors"
	"strings"

	"github.com/lewisedginton/support_relay/pkg/logger"
)

// ErrUnavailable is returned when every backend in the chain failed or no
// backend is configured.
var ErrUnavailable = errors.New("translation unavailable")

// Translator translates text into the target language (a short tag such as
// "zh" or "en").
type Translator interface {
	Name() string
	Translate(ctx context.Context, text, targetLang string) (string, error)
}

// Gateway tries each translator in order and returns the first success.
type Gateway struct {
	chain []Translator
	log   logger.Logger
}

// NewGateway builds a gateway over the given ordered chain.
func NewGateway(log logger.Logger, chain ...Translator) *Gateway {
	return &Gateway{chain: chain, log: log}
}

// Available reports whether at least one backend is configured.
func (g *Gateway) Available() bool {
	return len(g.chain) > 0
}

// Translate runs the fallback chain. Backend failures are logged and
// swallowed; only ErrUnavailable escapes.
func (g *Gateway) Translate(ctx context.Context, text, targetLang string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrUnavailable
	}
	for _, t := range g.chain {
		out, err := t.Translate(ctx, text, targetLang)
		if err != nil {
			g.log.Warn("Translation backend failed, trying next",
				logger.StringField("backend", t.Name()),
				logger.ErrorField(err),
			)
			continue
		}
		out = strings.TrimSpace(out)
		if out == "" {
			continue
		}
		return out, nil
	}
	return "", ErrUnavailable
}

const systemPrompt = "You are a translation engine. Translate the user's message into the language identified by the given IETF tag. Reply with the translation only, no explanations, no quotes."

func userPrompt(text, targetLang string) string {
	return "Target language: " + targetLang + "\n\n" + text
}
