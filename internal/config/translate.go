package config

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
)

// TranslateConfig holds translation gateway configuration.
// Backends are tried in the order listed; the first success wins.
type TranslateConfig struct {
	Backends []string `env:"TRANSLATE_BACKENDS" yaml:"backends" default:"openai,anthropic"`

	OpenAIAPIKey string `env:"OPENAI_API_KEY" yaml:"openai_api_key"`
	OpenAIModel  string `env:"OPENAI_TRANSLATE_MODEL" yaml:"openai_model" default:"gpt-4o-mini"`

	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY" yaml:"anthropic_api_key"`
	AnthropicModel  string `env:"ANTHROPIC_TRANSLATE_MODEL" yaml:"anthropic_model" default:"claude-3-5-haiku-latest"`

	// AdminLanguage is the language the administrator reads and writes.
	AdminLanguage string `env:"ADMIN_LANGUAGE" yaml:"admin_language" default:"zh"`

	Timeout time.Duration `env:"TRANSLATE_TIMEOUT" yaml:"timeout" default:"15s"`
}

// Enabled returns true if at least one translation backend has credentials
func (c *TranslateConfig) Enabled() bool {
	return c.OpenAIAPIKey != "" || c.AnthropicAPIKey != ""
}

// Validate checks the backend list and timeout
func (c *TranslateConfig) Validate() error {
	var result error
	for _, b := range c.Backends {
		if b != "openai" && b != "anthropic" {
			result = multierror.Append(result, fmt.Errorf("unknown translate backend %q (must be 'openai' or 'anthropic')", b))
		}
	}
	if c.Timeout <= 0 {
		result = multierror.Append(result, fmt.Errorf("translate timeout must be greater than 0"))
	}
	return result
}
