package config

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// WeComConfig holds WeCom (WeChat Work) application configuration.
// CallbackToken and EncodingAESKey protect the encrypted callback channel;
// CorpID doubles as the receiver identifier checked after decryption.
type WeComConfig struct {
	CorpID         string `env:"WECOM_CORP_ID" yaml:"corp_id"`
	AgentID        int    `env:"WECOM_AGENT_ID" yaml:"agent_id"`
	CorpSecret     string `env:"WECOM_CORP_SECRET" yaml:"corp_secret"`
	CallbackToken  string `env:"WECOM_CALLBACK_TOKEN" yaml:"callback_token"`
	EncodingAESKey string `env:"WECOM_ENCODING_AES_KEY" yaml:"encoding_aes_key"`
}

// Enabled returns true if the WeCom side of the relay is configured
func (c *WeComConfig) Enabled() bool {
	return c.CorpID != "" && c.CorpSecret != ""
}

// CallbackConfigured returns true if the encrypted callback channel can be served
func (c *WeComConfig) CallbackConfigured() bool {
	return c.CallbackToken != "" && c.EncodingAESKey != "" && c.CorpID != ""
}

// Validate checks key material shape; WeCom encoding AES keys are always
// 43 characters of unpadded base64 (32 bytes of key).
func (c *WeComConfig) Validate() error {
	var result error
	if c.EncodingAESKey != "" && len(c.EncodingAESKey) != 43 {
		result = multierror.Append(result, fmt.Errorf("wecom_encoding_aes_key must be 43 characters, got %d", len(c.EncodingAESKey)))
	}
	return result
}
