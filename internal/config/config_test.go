package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig(t *testing.T) *AppConfig {
	t.Helper()
	t.Setenv("TELEGRAM_BOT_TOKEN", "123456:test-token")
	t.Setenv("TELEGRAM_ADMIN_CHAT_ID", "987654321")
	t.Setenv("TELEGRAM_WEBHOOK_SECRET", "hook-secret")
	cfg, err := Load("")
	require.NoError(t, err)
	return cfg
}

func TestLoadDefaults(t *testing.T) {
	cfg := validConfig(t)

	assert.Equal(t, "support-relay", cfg.ServiceName)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "local", cfg.Storage.Backend)
	assert.Equal(t, 8000, cfg.Relay.RouteIndexCapacity)
	assert.Equal(t, "zh", cfg.Translate.AdminLanguage)
	assert.Equal(t, []string{"openai", "anthropic"}, cfg.Translate.Backends)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr string
	}{
		{
			name:   "valid config",
			mutate: func(c *AppConfig) {},
		},
		{
			name:    "bad log level",
			mutate:  func(c *AppConfig) { c.Logging.Level = "verbose" },
			wantErr: "log_level",
		},
		{
			name:    "bad log format",
			mutate:  func(c *AppConfig) { c.Logging.Format = "xml" },
			wantErr: "log_format",
		},
		{
			name:    "bad storage backend",
			mutate:  func(c *AppConfig) { c.Storage.Backend = "ftp" },
			wantErr: "storage backend",
		},
		{
			name:    "missing admin chat",
			mutate:  func(c *AppConfig) { c.Telegram.AdminChatID = 0 },
			wantErr: "telegram_admin_chat_id",
		},
		{
			name:    "short aes key",
			mutate:  func(c *AppConfig) { c.WeCom.EncodingAESKey = "tooshort" },
			wantErr: "wecom_encoding_aes_key",
		},
		{
			name:    "unknown translate backend",
			mutate:  func(c *AppConfig) { c.Translate.Backends = []string{"deepl"} },
			wantErr: "translate backend",
		},
		{
			name:    "zero index capacity",
			mutate:  func(c *AppConfig) { c.Relay.RouteIndexCapacity = 0 },
			wantErr: "route_index_capacity",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestWeComEnabled(t *testing.T) {
	cfg := validConfig(t)
	assert.False(t, cfg.WeCom.Enabled())
	assert.False(t, cfg.WeCom.CallbackConfigured())

	cfg.WeCom.CorpID = "ww1234"
	cfg.WeCom.CorpSecret = "secret"
	assert.True(t, cfg.WeCom.Enabled())

	cfg.WeCom.CallbackToken = "token"
	cfg.WeCom.EncodingAESKey = "0123456789012345678901234567890123456789012"
	assert.True(t, cfg.WeCom.CallbackConfigured())
}
