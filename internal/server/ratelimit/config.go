package ratelimit

import "time"

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Endpoint path pattern (supports prefix matching)
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	// IdleTTL is how long an unused client bucket is kept
	IdleTTL         time.Duration
	Whitelist       map[string]bool
	EndpointConfigs []EndpointConfig
}

// NewConfig limits compression runs to perMinute per client with the given
// burst. Estimates and run lookups are cheap and get ten times the allowance.
func NewConfig(perMinute, burst int) *Config {
	return &Config{
		Enabled:         true,
		DefaultLimit:    perMinute * 10,
		DefaultWindow:   time.Minute,
		CleanupInterval: 5 * time.Minute,
		IdleTTL:         time.Hour,
		Whitelist:       make(map[string]bool),
		EndpointConfigs: DefaultEndpointConfigs(perMinute, burst),
	}
}

// DefaultEndpointConfigs returns the endpoint-specific configurations.
func DefaultEndpointConfigs(perMinute, burst int) []EndpointConfig {
	return []EndpointConfig{
		// Expensive: each request compiles LaTeX and may call the model
		{Path: "/compress", Method: "POST", Limit: perMinute, Window: time.Minute, Burst: burst},
		{Path: "/compress/stream", Method: "POST", Limit: perMinute, Window: time.Minute, Burst: burst},

		// Cheap: pure computation or a single row lookup
		{Path: "/estimate", Method: "POST", Limit: perMinute * 10, Window: time.Minute, Burst: burst * 10},
		{Path: "/runs/", Method: "GET", Limit: perMinute * 10, Window: time.Minute, Burst: burst * 10},
	}
}
