package config

import "time"

// RelayConfig holds routing engine behaviour settings
type RelayConfig struct {
	// RouteIndexCapacity bounds the reverse message index; oldest entries are
	// evicted first once the ceiling is exceeded.
	RouteIndexCapacity int `env:"RELAY_ROUTE_INDEX_CAPACITY" yaml:"route_index_capacity" default:"8000"`

	// AckInterval is the minimum time between automatic acknowledgments to the
	// same remote user.
	AckInterval time.Duration `env:"RELAY_ACK_INTERVAL" yaml:"ack_interval" default:"30m"`

	// AckText is the automatic acknowledgment sent to remote users.
	AckText string `env:"RELAY_ACK_TEXT" yaml:"ack_text" default:"Thanks for your message! Our support team has been notified and will reply soon."`
}
