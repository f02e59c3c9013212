// Package middleware provides model.Middleware implementations for
// logging, metrics, tracing, rate limiting and circuit breaking.
//
// Middlewares compose with model.Chain; earlier middlewares are outermost.
// None of them retry: an inner error is returned to the caller unchanged.
package middleware

import (
	"context"
	"time"

	"github.com/hupe1980/routemesh/logging"
	"github.com/hupe1980/routemesh/model"
)

// Logging logs one line per Generate call with latency and token usage.
func Logging(logger logging.Logger) model.Middleware {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}

	return func(next model.Model) model.Model {
		return model.Wrap(next, func(ctx context.Context, req model.Request) (*model.Response, error) {
			start := time.Now()
			resp, err := next.Generate(ctx, req)
			dur := time.Since(start)

			info := next.Info()
			tokens := 0
			if resp != nil && resp.Usage != nil {
				tokens = resp.Usage.TotalTokens
			}

			if err != nil {
				logger.Error("model.generate.failed",
					"model", info.Name, "provider", info.Provider,
					"duration", dur, "success", false, "error", err.Error())
				return nil, err
			}

			logger.Info("model.generate.complete",
				"model", info.Name, "provider", info.Provider,
				"token_count", tokens, "duration", dur, "success", true,
				"stop_reason", resp.StopReason)

			return resp, nil
		})
	}
}
