package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Name     string        `env:"TEST_NAME" yaml:"name" default:"relay"`
	Port     int           `env:"TEST_PORT" yaml:"port" default:"8080"`
	Debug    bool          `env:"TEST_DEBUG" yaml:"debug"`
	Timeout  time.Duration `env:"TEST_TIMEOUT" yaml:"timeout" default:"30s"`
	Secret   string        `env:"TEST_SECRET" yaml:"secret" required:"true"`
	Backends []string      `env:"TEST_BACKENDS" yaml:"backends" default:"openai,anthropic"`
	Nested   nestedConfig  `yaml:"nested"`
}

type nestedConfig struct {
	Interval time.Duration `env:"TEST_NESTED_INTERVAL" yaml:"interval" default:"1m"`
}

func TestGetConfigFromEnvVars(t *testing.T) {
	t.Setenv("TEST_SECRET", "token")

	var cfg testConfig
	require.NoError(t, GetConfigFromEnvVars(&cfg))

	assert.Equal(t, "relay", cfg.Name)
	assert.Equal(t, 8080, cfg.Port)
	assert.False(t, cfg.Debug)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, []string{"openai", "anthropic"}, cfg.Backends)
	assert.Equal(t, time.Minute, cfg.Nested.Interval)
}

func TestEnvOverridesDefaults(t *testing.T) {
	t.Setenv("TEST_SECRET", "token")
	t.Setenv("TEST_NAME", "other")
	t.Setenv("TEST_PORT", "9000")
	t.Setenv("TEST_DEBUG", "true")
	t.Setenv("TEST_TIMEOUT", "5s")
	t.Setenv("TEST_NESTED_INTERVAL", "90s")

	var cfg testConfig
	require.NoError(t, GetConfigFromEnvVars(&cfg))

	assert.Equal(t, "other", cfg.Name)
	assert.Equal(t, 9000, cfg.Port)
	assert.True(t, cfg.Debug)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, 90*time.Second, cfg.Nested.Interval)
}

func TestRequiredFieldMissing(t *testing.T) {
	os.Unsetenv("TEST_SECRET")

	var cfg testConfig
	err := GetConfigFromEnvVars(&cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TEST_SECRET")
}

func TestBadEnvValue(t *testing.T) {
	t.Setenv("TEST_SECRET", "token")
	t.Setenv("TEST_PORT", "not-a-number")

	var cfg testConfig
	assert.Error(t, GetConfigFromEnvVars(&cfg))
}

func TestGetConfigFromYAMLFile(t *testing.T) {
	t.Setenv("TEST_SECRET", "token")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: from-file\nport: 7070\n"), 0o600))

	var cfg testConfig
	require.NoError(t, GetConfig(&cfg, path, false))

	assert.Equal(t, "from-file", cfg.Name)
	assert.Equal(t, 7070, cfg.Port)
}

func TestGetConfigMissingFileFallsBack(t *testing.T) {
	t.Setenv("TEST_SECRET", "token")

	var cfg testConfig
	require.NoError(t, GetConfig(&cfg, "/does/not/exist.yaml", true))
	assert.Equal(t, "relay", cfg.Name)

	var cfg2 testConfig
	assert.Error(t, GetConfig(&cfg2, "/does/not/exist.yaml", false))
}

type validatedConfig struct {
	Port int `env:"VALIDATED_PORT" default:"99999"`
}

func (c validatedConfig) Validate() error {
	if c.Port > 65535 {
		return assert.AnError
	}
	return nil
}

func TestValidatorIsInvoked(t *testing.T) {
	var cfg validatedConfig
	err := GetConfigFromEnvVars(&cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}
