package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`

	DatabasePath string `mapstructure:"database_path" yaml:"database_path"`

	JWTSecret   string        `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTIssuer   string        `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	JWTAudience string        `mapstructure:"jwt_audience" yaml:"jwt_audience"`
	JWTTTL      time.Duration `mapstructure:"jwt_ttl" yaml:"jwt_ttl"`

	MaxMessageBytes  int64    `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
	MaxContentLength int      `mapstructure:"max_content_length" yaml:"max_content_length"`
	WSRateLimit      int      `mapstructure:"ws_rate_limit" yaml:"ws_rate_limit"`
	OriginPatterns   []string `mapstructure:"origin_patterns" yaml:"origin_patterns"`

	// Redis backs the REST send rate limiter. Empty address disables it.
	RedisAddr       string        `mapstructure:"redis_addr" yaml:"redis_addr"`
	RedisRateLimit  int           `mapstructure:"redis_rate_limit" yaml:"redis_rate_limit"`
	RedisRateWindow time.Duration `mapstructure:"redis_rate_window" yaml:"redis_rate_window"`

	// NATS receives presence transitions. Empty URL disables publishing.
	NATSURL           string `mapstructure:"nats_url" yaml:"nats_url"`
	NATSSubjectPrefix string `mapstructure:"nats_subject_prefix" yaml:"nats_subject_prefix"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		DatabasePath:      "wirechat.db",
		JWTSecret:         "change-me",
		JWTIssuer:         "wirechat",
		JWTAudience:       "wirechat",
		JWTTTL:            30 * time.Minute,
		MaxMessageBytes:   1 << 16,
		MaxContentLength:  1000,
		WSRateLimit:       120,
		OriginPatterns:    []string{"*"},
		RedisRateLimit:    60,
		RedisRateWindow:   time.Minute,
		NATSSubjectPrefix: "wirechat",
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
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.DatabasePath != "" {
		c.DatabasePath = other.DatabasePath
	}
	if other.JWTSecret != "" {
		c.JWTSecret = other.JWTSecret
	}
	if other.JWTTTL != 0 {
		c.JWTTTL = other.JWTTTL
	}
	if other.RedisAddr != "" {
		c.RedisAddr = other.RedisAddr
	}
	if other.NATSURL != "" {
		c.NATSURL = other.NATSURL
	}
}
