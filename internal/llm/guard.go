package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrUnavailable is returned while the circuit breaker rejects calls
var ErrUnavailable = errors.New("model temporarily unavailable")

// Guard wraps a Client with request pacing, a per-call timeout and a circuit
// breaker. Callers see ErrUnavailable while the breaker is open so they can
// fall back without waiting.
type Guard struct {
	next    Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[string]
	config  *Config
	logger  *zap.Logger
}

// NewGuard wraps next
func NewGuard(next Client, config *Config, logger *zap.Logger) *Guard {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	limit := rate.Inf
	if config.RequestsPerSecond > 0 {
		limit = rate.Limit(config.RequestsPerSecond)
	}
	burst := config.Burst
	if burst < 1 {
		burst = 1
	}

	bc := config.Breaker
	settings := gobreaker.Settings{
		Name:        "llm",
		MaxRequests: bc.MaxRequests,
		Interval:    bc.Interval,
		Timeout:     bc.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests == 0 || counts.Requests < bc.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= bc.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
		// cancellations are the caller's doing and refusals are about the
		// prompt; neither says the model is down
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, ErrBlocked)
		},
	}

	return &Guard{
		next:    next,
		limiter: rate.NewLimiter(limit, burst),
		breaker: gobreaker.NewCircuitBreaker[string](settings),
		config:  config,
		logger:  logger,
	}
}

// GenerateContent implements Client
func (g *Guard) GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	return g.call(ctx, func(ctx context.Context) (string, error) {
		return g.next.GenerateContent(ctx, prompt, tier)
	})
}

// GenerateJSON implements Client
func (g *Guard) GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	return g.call(ctx, func(ctx context.Context) (string, error) {
		return g.next.GenerateJSON(ctx, prompt, tier)
	})
}

// Close implements Client
func (g *Guard) Close() error {
	return g.next.Close()
}

// State reports the breaker state ("closed", "half-open" or "open")
func (g *Guard) State() string {
	return g.breaker.State().String()
}

func (g *Guard) call(ctx context.Context, fn func(context.Context) (string, error)) (string, error) {
	if g.breaker.State() == gobreaker.StateOpen {
		return "", ErrUnavailable
	}
	if err := g.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter error: %w", err)
	}

	out, err := g.breaker.Execute(func() (string, error) {
		callCtx := ctx
		if g.config.Timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, g.config.Timeout)
			defer cancel()
		}
		return fn(callCtx)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return out, err
}
