package model

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/hupe1980/routemesh/core"
	"github.com/hupe1980/routemesh/internal/tokens"
)

// Request captures the normalized model input produced by agents and classifiers.
type Request struct {
	Model     string         `json:"model,omitempty"`      // Overrides the adapter's default model id when set
	System    string         `json:"system,omitempty"`     // System prompt; empty means none is sent
	Messages  []core.Message `json:"messages"`             // Ordered conversation, newest last
	MaxTokens int64          `json:"max_tokens,omitempty"` // Output cap; 0 uses the adapter default
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the complete reply to a Request.
type Response struct {
	ID         string       `json:"id,omitempty"`
	Content    core.Message `json:"content"`
	StopReason string       `json:"stop_reason,omitempty"` // "end_turn", "stop", "max_tokens", ...
	Usage      *TokenUsage  `json:"usage,omitempty"`
}

// Text returns the first text segment of the reply, or core.ErrEmptyResponse
// when the reply has none.
func (r *Response) Text() (string, error) {
	if r == nil {
		return "", core.ErrEmptyResponse
	}
	text, ok := core.FirstText(r.Content.Parts)
	if !ok {
		return "", core.ErrEmptyResponse
	}
	return text, nil
}

// Info contains metadata about a model implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "anthropic", "openai", "bedrock", "gemini", "ollama", "mock"
}

// Model is the minimal interface required by agents & classifiers to drive generation.
type Model interface {
	// Generate performs one blocking round trip to the provider.
	Generate(ctx context.Context, req Request) (*Response, error)

	// Info returns information about the model implementation.
	Info() Info
}

// NewTextResponse builds an assistant Response holding a single text part.
func NewTextResponse(text string) *Response {
	return &Response{
		Content:    core.NewAssistantText(text),
		StopReason: "end_turn",
	}
}

// HandlerFunc computes a MockModel reply for a request.
type HandlerFunc func(req Request) (string, error)

// MockModel is a lightweight in‑memory Model useful for tests & examples.
// It records every request it receives so tests can inspect what would have
// been sent upstream.
type MockModel struct {
	mu        sync.Mutex
	info      Info
	responses map[string]string
	handler   HandlerFunc
	err       error
	requests  []Request
}

// NewMockModel constructs a MockModel.
func NewMockModel(name, provider string) *MockModel {
	return &MockModel{
		info:      Info{Name: name, Provider: provider},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for an input prompt
// (the text of the newest message).
func (m *MockModel) AddResponse(prompt, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prompt] = response
}

// SetHandler installs a function consulted when no canned response matches.
func (m *MockModel) SetHandler(h HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handler = h
}

// Reply makes every unmatched request return text.
func (m *MockModel) Reply(text string) {
	m.SetHandler(func(Request) (string, error) { return text, nil })
}

// FailWith makes every subsequent call return err.
func (m *MockModel) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Requests returns a copy of all requests received so far.
func (m *MockModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// LastRequest returns the most recent request and whether one exists.
func (m *MockModel) LastRequest() (Request, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return Request{}, false
	}
	return m.requests[len(m.requests)-1], true
}

// Generate implements Model.
func (m *MockModel) Generate(ctx context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	err, handler := m.err, m.handler
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	if len(req.Messages) == 0 {
		return nil, fmt.Errorf("no messages provided")
	}

	input := req.Messages[len(req.Messages)-1].Text()

	m.mu.Lock()
	full, ok := m.responses[input]
	m.mu.Unlock()

	if !ok && handler != nil {
		full, err = handler(req)
		if err != nil {
			return nil, err
		}
	} else if !ok {
		full = fmt.Sprintf("Mock response to: %s", input)
	}

	resp := NewTextResponse(full)
	prompt := req.System
	for _, msg := range req.Messages {
		prompt += msg.Text()
	}
	p, c := tokens.Count(prompt), tokens.Count(full)
	resp.Usage = &TokenUsage{PromptTokens: p, CompletionTokens: c, TotalTokens: p + c}

	if req.MaxTokens > 0 && int64(c) > req.MaxTokens {
		resp.StopReason = "max_tokens"
	}
	resp.ID = "mock-" + strings.ToLower(m.info.Name)

	return resp, nil
}

// Info implements Model interface.
func (m *MockModel) Info() Info { return m.info }
