// Package ollama provides a model wrapper for a local Ollama server.
package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/hupe1980/routemesh/core"
	"github.com/hupe1980/routemesh/model"
	"github.com/ollama/ollama/api"
)

// DefaultHost is the Ollama server used when Options.Host is empty.
const DefaultHost = "http://localhost:11434"

// DefaultModel is the local model used when none is configured.
const DefaultModel = "llama3.1"

// DefaultMaxTokens caps output when neither the request nor the options set a limit.
const DefaultMaxTokens = 2000

// chatAPI abstracts api.Client for testability.
type chatAPI interface {
	Chat(ctx context.Context, req *api.ChatRequest, fn api.ChatResponseFunc) error
}

// Options configures the Ollama adapter. No credential is needed.
type Options struct {
	Model       string
	Host        string
	Temperature float64 // 0 leaves the server default
	MaxTokens   int
	HTTPClient  *http.Client
}

// Model wraps the Ollama chat endpoint behind the generic model.Model interface.
type Model struct {
	client chatAPI
	opts   Options
}

func defaultOptions() Options {
	return Options{
		Model:     DefaultModel,
		Host:      DefaultHost,
		MaxTokens: DefaultMaxTokens,
	}
}

// NewModel creates an Ollama model talking to opts.Host.
func NewModel(optFns ...func(o *Options)) (*Model, error) {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	base, err := url.Parse(opts.Host)
	if err != nil {
		return nil, fmt.Errorf("parse ollama host %q: %w", opts.Host, err)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Model{client: api.NewClient(base, httpClient), opts: opts}, nil
}

func newModelWithAPI(client chatAPI, optFns ...func(o *Options)) *Model {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{client: client, opts: opts}
}

// Generate implements model.Model with a single non-streaming chat call.
func (m *Model) Generate(ctx context.Context, req model.Request) (*model.Response, error) {
	var final api.ChatResponse
	err := m.client.Chat(ctx, m.buildRequest(req), func(resp api.ChatResponse) error {
		final = resp
		return nil
	})
	if err != nil {
		return nil, classifyError(err)
	}

	resp := &model.Response{
		Content:    core.Message{Role: core.RoleAssistant},
		StopReason: stopReason(&final),
	}
	if text := final.Message.Content; text != "" {
		resp.Content.Parts = []core.Part{core.TextPart{Text: text}}
	}

	in, out := final.PromptEvalCount, final.EvalCount
	resp.Usage = &model.TokenUsage{PromptTokens: in, CompletionTokens: out, TotalTokens: in + out}

	return resp, nil
}

func (m *Model) buildRequest(req model.Request) *api.ChatRequest {
	modelID := m.opts.Model
	if req.Model != "" {
		modelID = req.Model
	}

	maxTokens := m.opts.MaxTokens
	if req.MaxTokens > 0 {
		maxTokens = int(req.MaxTokens)
	}

	options := map[string]any{"num_predict": maxTokens}
	if m.opts.Temperature > 0 {
		options["temperature"] = m.opts.Temperature
	}

	stream := false
	chat := &api.ChatRequest{
		Model:   modelID,
		Stream:  &stream,
		Options: options,
	}

	if req.System != "" {
		chat.Messages = append(chat.Messages, api.Message{Role: string(core.RoleSystem), Content: req.System})
	}

	for _, msg := range req.Messages {
		text := msg.Text()
		if text == "" {
			continue
		}
		role := msg.Role
		if role != core.RoleSystem && role != core.RoleAssistant {
			role = core.RoleUser
		}
		chat.Messages = append(chat.Messages, api.Message{Role: string(role), Content: text})
	}

	return chat
}

// Info returns metadata describing this Ollama model implementation.
func (m *Model) Info() model.Info {
	return model.Info{Name: m.opts.Model, Provider: "ollama"}
}

func stopReason(resp *api.ChatResponse) string {
	if !resp.Done {
		return "incomplete"
	}
	switch resp.DoneReason {
	case "stop", "":
		return "end_turn"
	case "length":
		return "max_tokens"
	default:
		return resp.DoneReason
	}
}

func classifyError(err error) error {
	if strings.Contains(err.Error(), "connection refused") {
		return fmt.Errorf("ollama server not reachable: %w", err)
	}
	return fmt.Errorf("ollama api error: %w", err)
}
