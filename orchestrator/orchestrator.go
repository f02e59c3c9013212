package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/hupe1980/routemesh/agent"
	"github.com/hupe1980/routemesh/core"
	"github.com/hupe1980/routemesh/logging"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Observer receives one notification per routed query. The Prometheus
// recorder in model/middleware implements it.
type Observer interface {
	ObserveRoute(agent string, fallback bool)
}

type noopObserver struct{}

func (noopObserver) ObserveRoute(string, bool) {}

// Options configures an Orchestrator.
type Options struct {
	MissPolicy MissPolicy
	Logger     logging.Logger
	Observer   Observer
}

// Decision is the outcome of classification.
type Decision struct {
	// Agent is the registered name that will handle the query.
	Agent string `json:"agent"`
	// Raw is the classifier reply as received.
	Raw string `json:"raw"`
	// Fallback is true when Raw named no registered agent and the first
	// registered agent was chosen instead.
	Fallback bool `json:"fallback"`
}

// Result is the outcome of a routed query.
type Result struct {
	RequestID uuid.UUID `json:"request_id"`
	Agent     string    `json:"agent"`
	Response  string    `json:"response"`
	Fallback  bool      `json:"fallback"`
}

// Orchestrator holds an insertion ordered registry of agents and routes each
// query to exactly one of them. Registration and routing may be called from
// several goroutines; a single RouteRequest is strictly sequential.
type Orchestrator struct {
	mu         sync.RWMutex
	agents     *orderedmap.OrderedMap[string, *agent.Agent]
	classifier Classifier
	policy     MissPolicy
	observer   Observer
	logger     core.LoggerAdapter
}

// New creates an empty orchestrator that classifies with classifier.
func New(classifier Classifier, optFns ...func(o *Options)) *Orchestrator {
	opts := Options{MissPolicy: MissFallback}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Observer == nil {
		opts.Observer = noopObserver{}
	}

	return &Orchestrator{
		agents:     orderedmap.New[string, *agent.Agent](),
		classifier: classifier,
		policy:     opts.MissPolicy,
		observer:   opts.Observer,
		logger:     core.NewLoggerAdapter(opts.Logger),
	}
}

// AddAgent registers a under its name. Re-registering a name replaces the
// agent but keeps its original position.
func (o *Orchestrator) AddAgent(a *agent.Agent) {
	o.mu.Lock()
	_, replaced := o.agents.Set(a.Name(), a)
	o.mu.Unlock()

	o.logger.LogInfo("orchestrator.agent.registered", "agent", a.Name(), "replaced", replaced)
}

// Agents returns the registered agents in registration order.
func (o *Orchestrator) Agents() []*agent.Agent {
	o.mu.RLock()
	defer o.mu.RUnlock()

	out := make([]*agent.Agent, 0, o.agents.Len())
	for pair := o.agents.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}

// Agent looks up a registered agent by exact name.
func (o *Orchestrator) Agent(name string) (*agent.Agent, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.agents.Get(name)
}

// Len returns the number of registered agents.
func (o *Orchestrator) Len() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.agents.Len()
}

// ClassifyIntent asks the classifier which agent should handle query and
// resolves the reply against the registry. It never invokes an agent.
func (o *Orchestrator) ClassifyIntent(ctx context.Context, query string) (Decision, error) {
	candidates := o.candidates()
	if len(candidates) == 0 {
		return Decision{}, core.ErrNoAgents
	}
	if o.classifier == nil {
		return Decision{}, errors.New("orchestrator has no classifier")
	}

	raw, err := o.classifier.Classify(ctx, query, candidates)
	if err != nil {
		return Decision{}, err
	}

	names := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = c.Name
	}

	if name, ok := Resolve(raw, names); ok {
		o.logger.LogDebug("orchestrator.classify.match", "agent", name, "raw", raw)
		return Decision{Agent: name, Raw: raw}, nil
	}

	if o.policy == MissError {
		o.logger.LogWarn("orchestrator.classify.miss", "raw", raw, "policy", o.policy.String())
		return Decision{Raw: raw}, fmt.Errorf("%w: %q", core.ErrNoMatch, raw)
	}

	o.logger.LogWarn("orchestrator.classify.fallback", "raw", raw, "agent", names[0])
	return Decision{Agent: names[0], Raw: raw, Fallback: true}, nil
}

// RouteRequest classifies query and lets the chosen agent answer it with the
// caller's history. Exactly one agent handles the query; the history is not
// modified.
func (o *Orchestrator) RouteRequest(ctx context.Context, query string, history core.Conversation) (*Result, error) {
	id := uuid.New()
	o.logger.LogInfo("orchestrator.route.start", "request_id", id.String())

	decision, err := o.ClassifyIntent(ctx, query)
	if err != nil {
		o.logger.LogError("orchestrator.route.failed", "request_id", id.String(), "stage", "classify", "error", err.Error())
		return nil, err
	}

	a, ok := o.Agent(decision.Agent)
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrUnknownAgent, decision.Agent)
	}

	response, err := a.Process(ctx, query, history)
	if err != nil {
		o.logger.LogError("orchestrator.route.failed", "request_id", id.String(), "stage", "process", "agent", a.Name(), "error", err.Error())
		return nil, err
	}

	o.observer.ObserveRoute(a.Name(), decision.Fallback)
	o.logger.LogInfo("orchestrator.route.complete", "request_id", id.String(), "agent", a.Name(), "fallback", decision.Fallback)

	return &Result{
		RequestID: id,
		Agent:     a.Name(),
		Response:  response,
		Fallback:  decision.Fallback,
	}, nil
}

func (o *Orchestrator) candidates() []core.Candidate {
	o.mu.RLock()
	defer o.mu.RUnlock()

	out := make([]core.Candidate, 0, o.agents.Len())
	for pair := o.agents.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value.Descriptor())
	}
	return out
}
