package middleware

import (
	"context"

	"github.com/hupe1980/routemesh/internal/tracer"
	"github.com/hupe1980/routemesh/model"
	"go.opentelemetry.io/otel/trace"
)

// Tracing wraps each Generate call in a "model.generate" span on the global
// TracerProvider.
func Tracing() model.Middleware {
	return func(next model.Model) model.Model {
		return model.Wrap(next, func(ctx context.Context, req model.Request) (*model.Response, error) {
			info := next.Info()
			ctx, span := tracer.StartSpan(ctx, "model.generate",
				trace.WithAttributes(
					tracer.StringAttr("llm.provider", info.Provider),
					tracer.StringAttr("llm.model", info.Name),
					tracer.IntAttr("llm.max_tokens", int(req.MaxTokens)),
				),
			)
			defer span.End()

			resp, err := next.Generate(ctx, req)
			if err != nil {
				tracer.RecordError(span, err)
				return nil, err
			}

			if resp.Usage != nil {
				span.SetAttributes(
					tracer.IntAttr("llm.prompt_tokens", resp.Usage.PromptTokens),
					tracer.IntAttr("llm.completion_tokens", resp.Usage.CompletionTokens),
				)
			}
			tracer.SetOK(span)

			return resp, nil
		})
	}
}
