// Package llm provides the model client used for bullet rewriting, resume
// review and free-text extraction, together with the circuit breaker and rate
// limiter that guard every call.
package llm

import (
	"fmt"
	"strings"
	"time"
)

// ModelTier represents the complexity/capability level of a model
type ModelTier string

const (
	// TierLite is for extraction and other mechanical tasks
	TierLite ModelTier = "lite"
	// TierStandard is for review
	TierStandard ModelTier = "standard"
	// TierAdvanced is for rewriting
	TierAdvanced ModelTier = "advanced"
)

// BreakerConfig configures the circuit breaker around model calls
type BreakerConfig struct {
	// MaxRequests is the number of trial calls allowed while half-open
	MaxRequests uint32
	// Interval is the closed-state window after which counts reset
	Interval time.Duration
	// Timeout is how long the breaker stays open
	Timeout time.Duration
	// MinRequests and FailureRatio decide when the breaker trips
	MinRequests  uint32
	FailureRatio float64
}

// Config holds the model configuration
type Config struct {
	Models map[ModelTier]string
	// Temperature applies to every call; low values keep JSON output stable
	Temperature       float32
	RequestsPerSecond float64
	Burst             int
	Timeout           time.Duration
	Breaker           BreakerConfig
}

// DefaultConfig returns the default Gemini configuration
func DefaultConfig() *Config {
	return &Config{
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
			TierAdvanced: "gemini-2.5-pro",
		},
		Temperature:       0.1,
		RequestsPerSecond: 1,
		Burst:             2,
		Timeout:           90 * time.Second,
		Breaker: BreakerConfig{
			MaxRequests:  1,
			Interval:     time.Minute,
			Timeout:      30 * time.Second,
			MinRequests:  3,
			FailureRatio: 0.6,
		},
	}
}

// GetModel returns the model name for a tier, falling back to standard then lite
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	if model, ok := c.Models[TierStandard]; ok {
		return model
	}
	if model, ok := c.Models[TierLite]; ok {
		return model
	}
	return ""
}

// Validate reports a tier without a model or a breaker that could never trip
func (c *Config) Validate() error {
	var missing []string
	for _, tier := range []ModelTier{TierLite, TierStandard, TierAdvanced} {
		if c.Models[tier] == "" {
			missing = append(missing, string(tier))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("no model configured for tiers: %s", strings.Join(missing, ", "))
	}
	if c.Breaker.FailureRatio <= 0 || c.Breaker.FailureRatio > 1 {
		return fmt.Errorf("breaker failure ratio %.2f outside (0, 1]", c.Breaker.FailureRatio)
	}
	return nil
}
