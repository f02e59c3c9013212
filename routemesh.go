// Package routemesh provides a high-level façade over the orchestrator,
// wiring one model handle into both the classifier and the personas.
// Most applications interact with this package by:
//  1. Creating a RouteMesh via New() with a model.Model
//  2. Registering personas with NewAgent (or AddAgent / AddRoster)
//  3. Routing queries with Route, passing their own transcript each turn
//
// The façade delegates routing to orchestrator.Orchestrator while keeping
// setup concise. A separate, cheaper classifier model may be configured.
package routemesh

import (
	"context"

	"github.com/hupe1980/routemesh/agent"
	"github.com/hupe1980/routemesh/core"
	"github.com/hupe1980/routemesh/logging"
	"github.com/hupe1980/routemesh/model"
	"github.com/hupe1980/routemesh/orchestrator"
)

// Options configures the RouteMesh instance.
type Options struct {
	// ClassifierModel answers classification calls. Defaults to the persona model.
	ClassifierModel model.Model
	// ClassifierModelID overrides the model id for classification calls only.
	ClassifierModelID string
	// ClassifyMaxTokens caps the classifier reply (default 50).
	ClassifyMaxTokens int64
	// MissPolicy decides what happens when the classifier names nobody.
	MissPolicy orchestrator.MissPolicy
	// Observer receives per-route notifications (metrics).
	Observer orchestrator.Observer
	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// RouteMesh is the high-level façade aggregating a model and an orchestrator.
type RouteMesh struct {
	llm    model.Model
	logger logging.Logger
	orch   *orchestrator.Orchestrator
}

// New creates a RouteMesh whose personas and classifier use llm unless
// Options.ClassifierModel says otherwise.
func New(llm model.Model, optFns ...func(o *Options)) *RouteMesh {
	opts := Options{
		ClassifyMaxTokens: orchestrator.DefaultClassifyMaxTokens,
		MissPolicy:        orchestrator.MissFallback,
		Logger:            logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	classifierModel := opts.ClassifierModel
	if classifierModel == nil {
		classifierModel = llm
	}

	classifier := orchestrator.NewLLMClassifier(classifierModel, func(o *orchestrator.LLMClassifierOptions) {
		o.MaxTokens = opts.ClassifyMaxTokens
		o.Model = opts.ClassifierModelID
	})

	orch := orchestrator.New(classifier, func(o *orchestrator.Options) {
		o.MissPolicy = opts.MissPolicy
		o.Observer = opts.Observer
		o.Logger = opts.Logger
	})

	return &RouteMesh{llm: llm, logger: opts.Logger, orch: orch}
}

// NewAgent builds a persona on the mesh's model and registers it.
func (m *RouteMesh) NewAgent(name, description, instructions string, optFns ...func(o *agent.Options)) (*agent.Agent, error) {
	fns := append([]func(o *agent.Options){func(o *agent.Options) { o.Logger = m.logger }}, optFns...)

	a, err := agent.New(name, description, instructions, m.llm, fns...)
	if err != nil {
		return nil, err
	}

	m.orch.AddAgent(a)
	return a, nil
}

// AddAgent registers an already built agent.
func (m *RouteMesh) AddAgent(a *agent.Agent) { m.orch.AddAgent(a) }

// AddRoster builds and registers every persona of spec in order.
func (m *RouteMesh) AddRoster(spec agent.RosterSpec) error {
	agents, err := spec.Build(m.llm, m.logger)
	if err != nil {
		return err
	}
	for _, a := range agents {
		m.orch.AddAgent(a)
	}
	return nil
}

// Route classifies query and returns the chosen persona's answer. history is
// the caller's transcript; it is read, never modified.
func (m *RouteMesh) Route(ctx context.Context, query string, history core.Conversation) (*orchestrator.Result, error) {
	return m.orch.RouteRequest(ctx, query, history)
}

// Orchestrator exposes the underlying orchestrator.
func (m *RouteMesh) Orchestrator() *orchestrator.Orchestrator { return m.orch }
