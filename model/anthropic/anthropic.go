// Package anthropic provides a model wrapper for the Anthropic Claude API.
package anthropic

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/hupe1980/routemesh/core"
	"github.com/hupe1980/routemesh/model"
)

// DefaultModel is the model id used when none is configured.
const DefaultModel = anthropic.ModelClaudeSonnet4_20250514

// DefaultMaxTokens caps output when neither the request nor the options set a limit.
const DefaultMaxTokens = 2000

// messagesAPI abstracts the SDK's Messages service for testability.
type messagesAPI interface {
	New(ctx context.Context, body anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// Options configures the Anthropic model adapter (model id, max tokens,
// temperature, API key). Extend via functional options to preserve stability.
type Options struct {
	Model       anthropic.Model
	Temperature float64 // 0 leaves the provider default
	MaxTokens   int64
	APIKey      string
	BaseURL     string
}

// Model wraps the Anthropic Messages API behind the generic model.Model interface.
type Model struct {
	messages messagesAPI
	opts     Options
}

func defaultOptions() Options {
	return Options{
		Model:     DefaultModel,
		MaxTokens: DefaultMaxTokens,
	}
}

// NewModel creates a new Anthropic model using the official client. The API
// key must be supplied through Options; a missing key fails construction with
// core.ErrMissingCredential.
func NewModel(optFns ...func(o *Options)) (*Model, error) {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.APIKey == "" {
		return nil, fmt.Errorf("anthropic: %w: api key not configured", core.ErrMissingCredential)
	}

	clientOpts := []option.RequestOption{option.WithAPIKey(opts.APIKey)}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(opts.BaseURL))
	}

	client := anthropic.NewClient(clientOpts...)

	return &Model{messages: &client.Messages, opts: opts}, nil
}

// NewModelFromClient creates a new Anthropic model from an existing client.
func NewModelFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Model {
	return newModelWithAPI(&client.Messages, optFns...)
}

func newModelWithAPI(api messagesAPI, optFns ...func(o *Options)) *Model {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{messages: api, opts: opts}
}

// Generate implements model.Model with a single non-streaming Messages call.
func (m *Model) Generate(ctx context.Context, req model.Request) (*model.Response, error) {
	resp, err := m.messages.New(ctx, m.buildParams(req))
	if err != nil {
		return nil, fmt.Errorf("anthropic api error: %w", err)
	}

	var parts []core.Part
	for _, block := range resp.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok && text.Text != "" {
			parts = append(parts, core.TextPart{Text: text.Text})
		}
	}

	in, out := int(resp.Usage.InputTokens), int(resp.Usage.OutputTokens)

	return &model.Response{
		ID:         resp.ID,
		Content:    core.Message{Role: core.RoleAssistant, Parts: parts},
		StopReason: string(resp.StopReason),
		Usage:      &model.TokenUsage{PromptTokens: in, CompletionTokens: out, TotalTokens: in + out},
	}, nil
}

// buildParams converts a normalized request into Messages API parameters.
// System role messages inside the conversation are lifted into the system
// blocks after the request's own system prompt.
func (m *Model) buildParams(req model.Request) anthropic.MessageNewParams {
	params := anthropic.MessageNewParams{
		Model:     m.opts.Model,
		MaxTokens: m.opts.MaxTokens,
	}
	if req.Model != "" {
		params.Model = anthropic.Model(req.Model)
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = req.MaxTokens
	}
	if m.opts.Temperature > 0 {
		params.Temperature = anthropic.Float(m.opts.Temperature)
	}

	var system []anthropic.TextBlockParam
	if req.System != "" {
		system = append(system, anthropic.TextBlockParam{Text: req.System})
	}

	for _, msg := range req.Messages {
		text := msg.Text()
		if text == "" {
			continue
		}
		switch msg.Role {
		case core.RoleSystem:
			system = append(system, anthropic.TextBlockParam{Text: text})
		case core.RoleAssistant:
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(text)))
		default:
			// Treat unknown roles as user
			params.Messages = append(params.Messages, anthropic.NewUserMessage(anthropic.NewTextBlock(text)))
		}
	}

	if len(system) > 0 {
		params.System = system
	}

	return params
}

// Info returns metadata describing this Anthropic model implementation.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:     string(m.opts.Model),
		Provider: "anthropic",
	}
}
