package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/routemesh/core"
	"github.com/hupe1980/routemesh/model"
	"golang.org/x/time/rate"
)

// RateLimit delays each Generate call until the token bucket admits it.
// rpm is requests per minute; burst defaults to 1. A cancelled context while
// waiting returns core.ErrRateLimited wrapping the context error.
func RateLimit(rpm, burst int, recorder Recorder) model.Middleware {
	if burst <= 0 {
		burst = 1
	}
	if recorder == nil {
		recorder = Nop()
	}

	limiter := rate.NewLimiter(rate.Limit(rpm)/60.0, burst)

	return func(next model.Model) model.Model {
		return model.Wrap(next, func(ctx context.Context, req model.Request) (*model.Response, error) {
			start := time.Now()
			if err := limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("%w: %w", core.ErrRateLimited, err)
			}
			recorder.ObserveQueueWait(next.Info().Name, time.Since(start))

			return next.Generate(ctx, req)
		})
	}
}
