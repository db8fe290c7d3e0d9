package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`

	DatabasePath string `mapstructure:"database_path" yaml:"database_path"`
	LogLevel     string `mapstructure:"log_level" yaml:"log_level"`

	JWTSecret   string        `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTIssuer   string        `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	JWTAudience string        `mapstructure:"jwt_audience" yaml:"jwt_audience"`
	TokenTTL    time.Duration `mapstructure:"token_ttl" yaml:"token_ttl"`

	// SendQueueSize bounds the per-connection outbound event buffer.
	SendQueueSize int `mapstructure:"send_queue_size" yaml:"send_queue_size"`
	// TypingTTL auto-expires typing indicators; zero disables the timer.
	TypingTTL time.Duration `mapstructure:"typing_ttl" yaml:"typing_ttl"`
	// WSMessageRateLimit caps inbound WebSocket events per connection per
	// minute; zero disables the cap.
	WSMessageRateLimit int `mapstructure:"ws_message_rate_limit" yaml:"ws_message_rate_limit"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,

		DatabasePath: "chatlink.db",
		LogLevel:     "info",

		JWTSecret:   "dev-secret-change-me",
		JWTIssuer:   "chatlink",
		JWTAudience: "chatlink-clients",
		TokenTTL:    24 * time.Hour,

		SendQueueSize:      32,
		TypingTTL:          10 * time.Second,
		WSMessageRateLimit: 0,
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.DatabasePath != "" {
		c.DatabasePath = other.DatabasePath
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.JWTSecret != "" {
		c.JWTSecret = other.JWTSecret
	}
	if other.JWTIssuer != "" {
		c.JWTIssuer = other.JWTIssuer
	}
	if other.JWTAudience != "" {
		c.JWTAudience = other.JWTAudience
	}
	if other.TokenTTL != 0 {
		c.TokenTTL = other.TokenTTL
	}
	if other.SendQueueSize != 0 {
		c.SendQueueSize = other.SendQueueSize
	}
	if other.TypingTTL != 0 {
		c.TypingTTL = other.TypingTTL
	}
	if other.WSMessageRateLimit != 0 {
		c.WSMessageRateLimit = other.WSMessageRateLimit
	}
}
