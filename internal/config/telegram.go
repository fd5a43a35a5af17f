package config

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// TelegramConfig holds Telegram-specific configuration
type TelegramConfig struct {
	BotToken string `env:"TELEGRAM_BOT_TOKEN" yaml:"bot_token"`

	// AdminChatID is the private chat of the single human administrator.
	// All inbound traffic is relayed there and replies are read from there.
	AdminChatID int64 `env:"TELEGRAM_ADMIN_CHAT_ID" yaml:"admin_chat_id"`

	// WebhookBaseURL is the public https base the webhook is registered under.
	WebhookBaseURL string `env:"TELEGRAM_WEBHOOK_BASE_URL" yaml:"webhook_base_url"`

	// WebhookSecret is the secret path segment for the webhook endpoint.
	WebhookSecret string `env:"TELEGRAM_WEBHOOK_SECRET" yaml:"webhook_secret"`

	Debug bool `env:"TELEGRAM_DEBUG" yaml:"debug"`
}

// Enabled returns true if Telegram is configured with a bot token
func (c *TelegramConfig) Enabled() bool {
	return c.BotToken != ""
}

// Validate checks that the admin routing fields are present when the bot is enabled
func (c *TelegramConfig) Validate() error {
	var result error
	if !c.Enabled() {
		return nil
	}
	if c.AdminChatID == 0 {
		result = multierror.Append(result, fmt.Errorf("telegram_admin_chat_id is required when telegram is enabled"))
	}
	if c.WebhookSecret == "" {
		result = multierror.Append(result, fmt.Errorf("telegram_webhook_secret is required when telegram is enabled"))
	}
	return result
}
