package am

import (
	"github.com/spf13/viper"

	"github.com/teranos/patql/query"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	v.SetDefault("parser.max_input_bytes", query.DefaultMaxInputBytes)
	v.SetDefault("parser.max_depth", query.DefaultMaxDepth)

	v.SetDefault("server.addr", DefaultServerAddr)
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("server.gzip", true)
	v.SetDefault("server.rate_limit.requests_per_second", DefaultRequestsPerSecond)
	v.SetDefault("server.rate_limit.burst", DefaultBurst)

	v.SetDefault("log.json", false)
	v.SetDefault("log.theme", "everforest")
	v.SetDefault("log.verbosity", 0)
}

// Default returns the configuration produced by SetDefaults alone.
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	cfg, err := LoadWithViper(v)
	if err != nil {
		// Defaults always decode; reaching this is a programming error.
		panic(err)
	}
	return cfg
}
