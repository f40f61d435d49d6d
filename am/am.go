// Package am loads patql configuration from TOML files and PATQL_* environment
// variables.
package am

import (
	"github.com/teranos/patql/query"
)

// Config represents the complete patql configuration
type Config struct {
	Parser ParserConfig `mapstructure:"parser" toml:"parser" json:"parser" yaml:"parser"`
	Server ServerConfig `mapstructure:"server" toml:"server" json:"server" yaml:"server"`
	Log    LogConfig    `mapstructure:"log" toml:"log" json:"log" yaml:"log"`
}

// ParserConfig bounds the work a single parse may do.
// Zero selects the built-in default, a negative value disables the check.
type ParserConfig struct {
	MaxInputBytes int `mapstructure:"max_input_bytes" toml:"max_input_bytes" json:"max_input_bytes" yaml:"max_input_bytes"`
	MaxDepth      int `mapstructure:"max_depth" toml:"max_depth" json:"max_depth" yaml:"max_depth"`
}

// ServerConfig configures the HTTP front end
type ServerConfig struct {
	Addr           string          `mapstructure:"addr" toml:"addr" json:"addr" yaml:"addr"`
	AllowedOrigins []string        `mapstructure:"allowed_origins" toml:"allowed_origins" json:"allowed_origins" yaml:"allowed_origins"`
	Gzip           bool            `mapstructure:"gzip" toml:"gzip" json:"gzip" yaml:"gzip"`
	RateLimit      RateLimitConfig `mapstructure:"rate_limit" toml:"rate_limit" json:"rate_limit" yaml:"rate_limit"`
}

// RateLimitConfig is a per-client token bucket. RequestsPerSecond <= 0 disables limiting.
type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second" toml:"requests_per_second" json:"requests_per_second" yaml:"requests_per_second"`
	Burst             int     `mapstructure:"burst" toml:"burst" json:"burst" yaml:"burst"`
}

// LogConfig configures logger.Initialize
type LogConfig struct {
	JSON      bool   `mapstructure:"json" toml:"json" json:"json" yaml:"json"`
	Theme     string `mapstructure:"theme" toml:"theme" json:"theme" yaml:"theme"` // everforest, gruvbox
	Verbosity int    `mapstructure:"verbosity" toml:"verbosity" json:"verbosity" yaml:"verbosity"`
}

const (
	DefaultServerAddr = "127.0.0.1:8817"

	DefaultRequestsPerSecond = 20.0
	DefaultBurst             = 40

	// DefaultDirPermissions is used when creating ~/.patql
	DefaultDirPermissions = 0750
	// DefaultFilePermissions is used for written config files and backups
	DefaultFilePermissions = 0644

	ConfigFileName = "patql.toml"
)

// Limits converts the parser section into query options.
func (c *Config) Limits() query.Limits {
	return query.Limits{
		MaxInputBytes: c.Parser.MaxInputBytes,
		MaxDepth:      c.Parser.MaxDepth,
	}
}
