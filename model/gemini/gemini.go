// Package gemini provides a model wrapper for the Google Gemini API.
package gemini

import (
	"context"
	"fmt"

	"github.com/hupe1980/routemesh/core"
	"github.com/hupe1980/routemesh/model"
	"google.golang.org/genai"
)

// DefaultModel is the Gemini model id used when none is configured.
const DefaultModel = "gemini-2.5-flash"

// DefaultMaxTokens caps output when neither the request nor the options set a limit.
const DefaultMaxTokens = 2000

// generateAPI abstracts genai.Models for testability.
type generateAPI interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Options configures the Gemini adapter.
type Options struct {
	Model       string
	Temperature float32 // 0 leaves the provider default
	MaxTokens   int32
	APIKey      string
}

// Model wraps Gemini GenerateContent behind the generic model.Model interface.
type Model struct {
	models generateAPI
	opts   Options
}

func defaultOptions() Options {
	return Options{
		Model:     DefaultModel,
		MaxTokens: DefaultMaxTokens,
	}
}

// NewModel creates a Gemini model against the Gemini API backend. A missing
// key fails construction with core.ErrMissingCredential.
func NewModel(ctx context.Context, optFns ...func(o *Options)) (*Model, error) {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.APIKey == "" {
		return nil, fmt.Errorf("gemini: %w: api key not configured", core.ErrMissingCredential)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &Model{models: client.Models, opts: opts}, nil
}

func newModelWithAPI(api generateAPI, optFns ...func(o *Options)) *Model {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{models: api, opts: opts}
}

// Generate implements model.Model with a single GenerateContent call.
func (m *Model) Generate(ctx context.Context, req model.Request) (*model.Response, error) {
	modelID := m.opts.Model
	if req.Model != "" {
		modelID = req.Model
	}

	contents, config := m.buildContents(req)

	result, err := m.models.GenerateContent(ctx, modelID, contents, config)
	if err != nil {
		return nil, fmt.Errorf("gemini api error: %w", err)
	}
	if result == nil {
		return nil, core.ErrEmptyResponse
	}

	resp := &model.Response{
		ID:         result.ResponseID,
		Content:    core.Message{Role: core.RoleAssistant},
		StopReason: stopReason(result),
	}
	if text := result.Text(); text != "" {
		resp.Content.Parts = []core.Part{core.TextPart{Text: text}}
	}
	if u := result.UsageMetadata; u != nil {
		in, out := int(u.PromptTokenCount), int(u.CandidatesTokenCount)
		resp.Usage = &model.TokenUsage{PromptTokens: in, CompletionTokens: out, TotalTokens: in + out}
	}

	return resp, nil
}

func (m *Model) buildContents(req model.Request) ([]*genai.Content, *genai.GenerateContentConfig) {
	maxTokens := m.opts.MaxTokens
	if req.MaxTokens > 0 {
		maxTokens = int32(req.MaxTokens)
	}

	config := &genai.GenerateContentConfig{MaxOutputTokens: maxTokens}
	if m.opts.Temperature > 0 {
		config.Temperature = genai.Ptr(m.opts.Temperature)
	}

	system := req.System
	var contents []*genai.Content
	for _, msg := range req.Messages {
		text := msg.Text()
		if text == "" {
			continue
		}
		switch msg.Role {
		case core.RoleSystem:
			if system != "" {
				system += "\n\n"
			}
			system += text
		case core.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(text, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(text, genai.RoleUser))
		}
	}

	if system != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}

	return contents, config
}

// Info returns metadata describing this Gemini model implementation.
func (m *Model) Info() model.Info {
	return model.Info{Name: m.opts.Model, Provider: "gemini"}
}

func stopReason(result *genai.GenerateContentResponse) string {
	if len(result.Candidates) == 0 || result.Candidates[0] == nil {
		return "end_turn"
	}
	switch result.Candidates[0].FinishReason {
	case genai.FinishReasonMaxTokens:
		return "max_tokens"
	case genai.FinishReasonStop, genai.FinishReasonUnspecified, "":
		return "end_turn"
	default:
		return string(result.Candidates[0].FinishReason)
	}
}
