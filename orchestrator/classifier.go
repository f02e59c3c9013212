package orchestrator

import (
	"context"
	"fmt"

	"github.com/hupe1980/routemesh/core"
	"github.com/hupe1980/routemesh/internal/util"
	"github.com/hupe1980/routemesh/model"
)

// DefaultClassifyMaxTokens caps the classifier reply. A name is all it should say.
const DefaultClassifyMaxTokens int64 = 50

// Classifier picks which candidate should answer a query. It returns the raw
// reply; mapping the reply onto a registered name is Resolve's job.
type Classifier interface {
	Classify(ctx context.Context, query string, candidates []core.Candidate) (string, error)
}

// ClassifierFunc adapts an ordinary function to Classifier.
type ClassifierFunc func(ctx context.Context, query string, candidates []core.Candidate) (string, error)

// Classify implements Classifier.
func (f ClassifierFunc) Classify(ctx context.Context, query string, candidates []core.Candidate) (string, error) {
	return f(ctx, query, candidates)
}

var classificationTemplate = util.MustParse("classification", `Given this user query, which agent should handle it?

Available agents:
{{range $i, $c := .Candidates}}{{if $i}}
{{end}}- {{$c.Name}}: {{$c.Description}}{{end}}

User query: "{{.Query}}"

Respond with ONLY the agent name, nothing else.`)

// ClassificationPrompt renders the single user message sent to the classifier
// model. Candidates are listed in the given order.
func ClassificationPrompt(query string, candidates []core.Candidate) (string, error) {
	return util.Execute(classificationTemplate, struct {
		Query      string
		Candidates []core.Candidate
	}{Query: query, Candidates: candidates})
}

// LLMClassifierOptions configures an LLMClassifier.
type LLMClassifierOptions struct {
	// MaxTokens caps the reply. Defaults to DefaultClassifyMaxTokens.
	MaxTokens int64
	// Model overrides the adapter's model id for classification calls.
	Model string
}

// LLMClassifier asks a model to name the best candidate. It sends one user
// message and no system prompt.
type LLMClassifier struct {
	llm  model.Model
	opts LLMClassifierOptions
}

// NewLLMClassifier creates a classifier backed by llm.
func NewLLMClassifier(llm model.Model, optFns ...func(o *LLMClassifierOptions)) *LLMClassifier {
	opts := LLMClassifierOptions{MaxTokens: DefaultClassifyMaxTokens}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultClassifyMaxTokens
	}
	return &LLMClassifier{llm: llm, opts: opts}
}

// Classify implements Classifier.
func (c *LLMClassifier) Classify(ctx context.Context, query string, candidates []core.Candidate) (string, error) {
	prompt, err := ClassificationPrompt(query, candidates)
	if err != nil {
		return "", err
	}

	resp, err := c.llm.Generate(ctx, model.Request{
		Model:     c.opts.Model,
		Messages:  []core.Message{core.NewUserText(prompt)},
		MaxTokens: c.opts.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("classify: %w", err)
	}

	text, err := resp.Text()
	if err != nil {
		return "", fmt.Errorf("classify: %w", err)
	}

	return text, nil
}
