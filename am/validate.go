package am

import (
	"net"

	"github.com/teranos/patql/errors"
)

var validThemes = map[string]bool{"": true, "everforest": true, "gruvbox": true}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr cannot be empty")
	}
	if _, _, err := net.SplitHostPort(c.Server.Addr); err != nil {
		return errors.WithHint(
			errors.Wrapf(err, "server.addr %q is not host:port", c.Server.Addr),
			"use a value like 127.0.0.1:8817 or :8817")
	}

	if c.Server.RateLimit.RequestsPerSecond > 0 && c.Server.RateLimit.Burst < 1 {
		return errors.Newf("server.rate_limit.burst must be >= 1 when limiting is enabled, got %d",
			c.Server.RateLimit.Burst)
	}

	if !validThemes[c.Log.Theme] {
		return errors.WithHint(
			errors.Newf("log.theme %q is not a known theme", c.Log.Theme),
			"valid themes: everforest, gruvbox")
	}
	if c.Log.Verbosity < 0 {
		return errors.Newf("log.verbosity must be >= 0, got %d", c.Log.Verbosity)
	}

	return nil
}
