package model

import "context"

// Middleware represents a function that wraps a Model with additional behavior.
// Middleware functions are composed using Chain() to create a processing pipeline.
type Middleware func(next Model) Model

// GenerateFunc is the signature of Model.Generate.
type GenerateFunc func(ctx context.Context, req Request) (*Response, error)

// modelFunc is an adapter that allows a plain function to implement Model
// while reporting the Info of the model it wraps.
type modelFunc struct {
	generate GenerateFunc
	info     func() Info
}

func (f modelFunc) Generate(ctx context.Context, req Request) (*Response, error) {
	return f.generate(ctx, req)
}

func (f modelFunc) Info() Info { return f.info() }

// Wrap creates a Model that runs generate and reports next's Info.
// It is a helper for middleware implementations.
func Wrap(next Model, generate GenerateFunc) Model {
	return modelFunc{generate: generate, info: next.Info}
}

// Chain composes multiple middlewares around a base Model.
// Middlewares are applied in order, with earlier middlewares being outermost.
//
// For example: Chain(m, mw1, mw2, mw3) creates the call stack:
//
//	mw1 -> mw2 -> mw3 -> m
func Chain(base Model, middlewares ...Middleware) Model {
	m := base
	for i := len(middlewares) - 1; i >= 0; i-- {
		if middlewares[i] == nil {
			continue
		}
		m = middlewares[i](m)
	}
	return m
}
