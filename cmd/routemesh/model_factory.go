package main

import (
	"context"
	"fmt"

	"github.com/hupe1980/routemesh/config"
	"github.com/hupe1980/routemesh/model"
	"github.com/hupe1980/routemesh/model/anthropic"
	"github.com/hupe1980/routemesh/model/bedrock"
	"github.com/hupe1980/routemesh/model/gemini"
	"github.com/hupe1980/routemesh/model/middleware"
	"github.com/hupe1980/routemesh/model/ollama"
	"github.com/hupe1980/routemesh/model/openai"
)

// newProviderModel creates the bare adapter selected by cfg.Provider.Name.
// Credentials come from cfg; adapters never read the environment.
func newProviderModel(ctx context.Context, cfg *config.Config) (model.Model, error) {
	p := cfg.Provider

	switch p.Name {
	case "anthropic":
		return asModel(anthropic.NewModel(func(o *anthropic.Options) {
			o.APIKey = cfg.APIKey()
			o.BaseURL = p.BaseURL
			if p.Model != "" {
				o.Model = anthropic.Model(p.Model)
			}
			if p.MaxTokens > 0 {
				o.MaxTokens = p.MaxTokens
			}
		}))
	case "openai":
		return asModel(openai.NewModel(func(o *openai.Options) {
			o.APIKey = cfg.APIKey()
			o.BaseURL = p.BaseURL
			if p.Model != "" {
				o.Model = p.Model
			}
			if p.MaxTokens > 0 {
				o.MaxCompletionTokens = p.MaxTokens
			}
		}))
	case "bedrock":
		return asModel(bedrock.NewModel(ctx, func(o *bedrock.Options) {
			if p.Region != "" {
				o.Region = p.Region
			}
			if p.Model != "" {
				o.Model = p.Model
			}
			if p.MaxTokens > 0 {
				o.MaxTokens = int32(p.MaxTokens)
			}
		}))
	case "gemini":
		return asModel(gemini.NewModel(ctx, func(o *gemini.Options) {
			o.APIKey = cfg.APIKey()
			if p.Model != "" {
				o.Model = p.Model
			}
			if p.MaxTokens > 0 {
				o.MaxTokens = int32(p.MaxTokens)
			}
		}))
	case "ollama":
		return asModel(ollama.NewModel(func(o *ollama.Options) {
			if p.BaseURL != "" {
				o.Host = p.BaseURL
			}
			if p.Model != "" {
				o.Model = p.Model
			}
			if p.MaxTokens > 0 {
				o.MaxTokens = int(p.MaxTokens)
			}
		}))
	case "mock":
		return newOfflineModel(), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", p.Name)
	}
}

// asModel keeps a failed constructor from leaking a typed nil pointer.
func asModel[M model.Model](m M, err error) (model.Model, error) {
	if err != nil {
		return nil, err
	}
	return m, nil
}

// buildModel wraps the provider in the middleware chain. The breaker sits
// outside the limiter so an open circuit fails without waiting for a token.
func (a *app) buildModel(ctx context.Context) (model.Model, error) {
	base, err := a.newModel(ctx, a.cfg)
	if err != nil {
		return nil, err
	}

	mws := []model.Middleware{
		middleware.Logging(a.logger),
		middleware.Tracing(),
		middleware.Metrics(a.recorder, nil),
	}

	if a.cfg.Breaker.Enabled {
		mws = append(mws, middleware.CircuitBreaker(middleware.BreakerConfig{
			MaxFailures: a.cfg.Breaker.MaxFailures,
			Timeout:     a.cfg.Breaker.Timeout,
		}, a.logger))
	}

	if a.cfg.RateLimit.RPM > 0 {
		mws = append(mws, middleware.RateLimit(a.cfg.RateLimit.RPM, a.cfg.RateLimit.Burst, a.recorder))
	}

	return model.Chain(base, mws...), nil
}
