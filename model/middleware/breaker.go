package middleware

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/routemesh/logging"
	"github.com/hupe1980/routemesh/model"
	"github.com/sony/gobreaker/v2"
)

// Default circuit breaker settings.
const (
	defaultBreakerMaxFailures uint32        = 5
	defaultBreakerTimeout     time.Duration = 30 * time.Second
	defaultBreakerInterval    time.Duration = 60 * time.Second
)

// BreakerConfig configures CircuitBreaker. Zero fields use the defaults.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failures before the circuit opens.
	MaxFailures uint32
	// Timeout is how long the circuit stays open before a half-open probe.
	Timeout time.Duration
	// Interval clears failure counts periodically while closed.
	Interval time.Duration
}

// ErrCircuitOpen is returned while the breaker rejects calls.
var ErrCircuitOpen = errors.New("circuit open")

// CircuitBreaker fails fast once the wrapped model keeps failing. It never
// retries; errors from the inner model pass through unchanged.
func CircuitBreaker(cfg BreakerConfig, logger logging.Logger) model.Middleware {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}

	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = defaultBreakerMaxFailures
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultBreakerTimeout
	}
	interval := cfg.Interval
	if interval == 0 {
		interval = defaultBreakerInterval
	}

	return func(next model.Model) model.Model {
		info := next.Info()
		cb := gobreaker.NewCircuitBreaker[*model.Response](gobreaker.Settings{
			Name:        "model:" + info.Provider + "/" + info.Name,
			MaxRequests: 1,
			Interval:    interval,
			Timeout:     timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= maxFailures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("model.breaker.state_change", "breaker", name, "from", from.String(), "to", to.String())
			},
			IsExcluded: func(err error) bool {
				return errors.Is(err, context.Canceled)
			},
		})

		return model.Wrap(next, func(ctx context.Context, req model.Request) (*model.Response, error) {
			resp, err := cb.Execute(func() (*model.Response, error) {
				return next.Generate(ctx, req)
			})
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return nil, fmt.Errorf("model %q: %w: %w", info.Name, ErrCircuitOpen, err)
			}
			return resp, err
		})
	}
}
