package agent

import (
	"context"
	"fmt"

	"github.com/hupe1980/routemesh/core"
	"github.com/hupe1980/routemesh/logging"
	"github.com/hupe1980/routemesh/model"
)

// DefaultMaxTokens is the output cap for persona replies.
const DefaultMaxTokens int64 = 2000

// Options configures an Agent instance.
//
// Use functional options with New to override defaults.
type Options struct {
	// Instruction replaces the static instructions with a dynamic Provider.
	// The zero value keeps the static text passed to New.
	Instruction Instruction
	// MaxTokens caps the reply length. Defaults to DefaultMaxTokens.
	MaxTokens int64
	// Model overrides the adapter's model id for this persona.
	Model  string
	Logger logging.Logger
}

// Agent is a named persona bound to a model handle. It is immutable after
// construction and safe for concurrent use as long as the model is.
type Agent struct {
	name        string      // Unique registry key
	description string      // Shown to the classifier and in the system prompt
	instruction Instruction // Behaviour text embedded in the system prompt
	llm         model.Model // Remote model used to answer
	maxTokens   int64
	modelID     string
	logger      core.LoggerAdapter
}

// New creates a persona. The name must be non-empty and llm must be set;
// otherwise core.ErrInvalidAgent is returned.
func New(name, description, instructions string, llm model.Model, optFns ...func(o *Options)) (*Agent, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", core.ErrInvalidAgent)
	}
	if llm == nil {
		return nil, fmt.Errorf("%w: agent %q has no model", core.ErrInvalidAgent, name)
	}

	opts := Options{
		Instruction: NewInstructionFromText(instructions),
		MaxTokens:   DefaultMaxTokens,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}

	return &Agent{
		name:        name,
		description: description,
		instruction: opts.Instruction,
		llm:         llm,
		maxTokens:   opts.MaxTokens,
		modelID:     opts.Model,
		logger:      core.NewLoggerAdapter(opts.Logger),
	}, nil
}

// Name returns the unique persona name.
func (a *Agent) Name() string { return a.name }

// Description returns the persona description.
func (a *Agent) Description() string { return a.description }

// Instructions returns the static instruction text. Provider backed
// instructions return an empty string here and resolve during Process.
func (a *Agent) Instructions() string { return a.instruction.Text() }

// MaxTokens returns the reply cap sent with every request.
func (a *Agent) MaxTokens() int64 { return a.maxTokens }

// Descriptor returns the classifier view of this agent.
func (a *Agent) Descriptor() core.Candidate {
	return core.Candidate{Name: a.name, Description: a.description}
}

// Process answers query in persona. The history is read but never modified;
// the request carries a copy with the query appended as the newest user turn.
// It makes exactly one model call and returns the first text segment of the reply.
func (a *Agent) Process(ctx context.Context, query string, history core.Conversation) (string, error) {
	instructions, err := a.instruction.Resolve(ctx)
	if err != nil {
		return "", fmt.Errorf("agent %q: resolve instructions: %w", a.name, err)
	}

	system, err := SystemPrompt(a.name, a.description, instructions)
	if err != nil {
		return "", fmt.Errorf("agent %q: %w", a.name, err)
	}

	req := model.Request{
		Model:     a.modelID,
		System:    system,
		Messages:  history.With(core.NewUserText(query)),
		MaxTokens: a.maxTokens,
	}

	a.logger.LogDebug("agent.process.start", "agent", a.name, "history_len", len(history))

	resp, err := a.llm.Generate(ctx, req)
	if err != nil {
		a.logger.LogError("agent.process.failed", "agent", a.name, "error", err.Error())
		return "", fmt.Errorf("agent %q: %w", a.name, err)
	}

	text, err := resp.Text()
	if err != nil {
		return "", fmt.Errorf("agent %q: %w", a.name, err)
	}

	a.logger.LogDebug("agent.process.complete", "agent", a.name, "stop_reason", resp.StopReason)

	return text, nil
}
