package config

import (
	"fmt"
	"net"
	"strings"
)

var (
	MaxCallDepthLimit = 64
	validLogLevels    = map[string]struct{}{"debug": {}, "info": {}, "warn": {}, "error": {}}
)

// Validate rejects configurations the daemon cannot start with.
func (c *Config) Validate() error {
	if _, _, err := net.SplitHostPort(c.ListenAddress); err != nil {
		return fmt.Errorf("config: ListenAddress %q: %w", c.ListenAddress, err)
	}
	if strings.ContainsAny(c.ChainID, " \t\n") {
		return fmt.Errorf("config: ChainID %q must not contain whitespace", c.ChainID)
	}
	if _, ok := validLogLevels[strings.ToLower(strings.TrimSpace(c.LogLevel))]; !ok {
		return fmt.Errorf("config: LogLevel %q: want one of debug, info, warn, error", c.LogLevel)
	}
	if c.RateLimitPerSecond < 0 {
		return fmt.Errorf("config: RateLimitPerSecond must not be negative")
	}
	if c.RateLimitBurst < 0 {
		return fmt.Errorf("config: RateLimitBurst must not be negative")
	}
	if c.MaxCallDepth < 0 || c.MaxCallDepth > MaxCallDepthLimit {
		return fmt.Errorf("config: MaxCallDepth must be between 1 and %d", MaxCallDepthLimit)
	}
	return nil
}
