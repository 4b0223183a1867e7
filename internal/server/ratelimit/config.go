package ratelimit

import (
	"time"
)

// EndpointConfig limits one method/path pattern.
type EndpointConfig struct {
	Path   string        // exact path, or a prefix when it ends with "/"
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // requests per window; <= 0 means unlimited
	Window time.Duration // refill window
	Burst  int           // burst capacity (defaults to Limit if 0)
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	IdleTTL         time.Duration
	Whitelist       map[string]bool
	EndpointConfigs []EndpointConfig
}

// DefaultConfig limits pipeline runs to a handful per hour per client and
// reads to DefaultLimit per minute.
func DefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		DefaultLimit:    600,
		DefaultWindow:   time.Minute,
		CleanupInterval: 5 * time.Minute,
		IdleTTL:         time.Hour,
		Whitelist:       make(map[string]bool),
		EndpointConfigs: DefaultEndpointConfigs(10, time.Hour),
	}
}

// DefaultEndpointConfigs returns the run endpoints limited to runLimit per
// runWindow with a burst of two.
func DefaultEndpointConfigs(runLimit int, runWindow time.Duration) []EndpointConfig {
	return []EndpointConfig{
		// Pipeline runs read and rewrite every dataset.
		{Path: "/run", Method: "POST", Limit: runLimit, Window: runWindow, Burst: 2},
		{Path: "/run/stream", Method: "POST", Limit: runLimit, Window: runWindow, Burst: 2},

		{Path: "/runs/", Method: "DELETE", Limit: 100, Window: time.Minute, Burst: 10},
	}
}

// WhitelistFrom turns a list of client addresses into a lookup set.
func WhitelistFrom(ips []string) map[string]bool {
	out := make(map[string]bool, len(ips))
	for _, ip := range ips {
		if ip != "" {
			out[ip] = true
		}
	}
	return out
}
