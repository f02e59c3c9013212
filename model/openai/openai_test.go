package openai

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hupe1980/routemesh/core"
	"github.com/hupe1980/routemesh/model"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompletions struct {
	got  openai.ChatCompletionNewParams
	resp *openai.ChatCompletion
	err  error
}

func (f *fakeCompletions) New(_ context.Context, body openai.ChatCompletionNewParams, _ ...option.RequestOption) (*openai.ChatCompletion, error) {
	f.got = body
	return f.resp, f.err
}

func completion(t *testing.T, raw string) *openai.ChatCompletion {
	t.Helper()
	var c openai.ChatCompletion
	require.NoError(t, json.Unmarshal([]byte(raw), &c))
	return &c
}

func TestNewModel_RequiresAPIKey(t *testing.T) {
	_, err := NewModel()
	assert.ErrorIs(t, err, core.ErrMissingCredential)
}

func TestGenerate(t *testing.T) {
	fake := &fakeCompletions{resp: completion(t, `{
		"id": "chatcmpl-1",
		"object": "chat.completion",
		"model": "gpt-4o-mini",
		"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "Cybersecurity-Consultant"}}],
		"usage": {"prompt_tokens": 30, "completion_tokens": 3, "total_tokens": 33}
	}`)}
	m := newModelWithAPI(fake)

	resp, err := m.Generate(context.Background(), model.Request{
		System:    "sys",
		Messages:  []core.Message{core.NewUserText("classify this")},
		MaxTokens: 50,
	})
	require.NoError(t, err)

	text, err := resp.Text()
	require.NoError(t, err)
	assert.Equal(t, "Cybersecurity-Consultant", text)
	assert.Equal(t, "stop", resp.StopReason)
	assert.Equal(t, 33, resp.Usage.TotalTokens)

	require.Len(t, fake.got.Messages, 2)
	assert.NotNil(t, fake.got.Messages[0].OfSystem)
	assert.NotNil(t, fake.got.Messages[1].OfUser)
	assert.Equal(t, int64(50), fake.got.MaxCompletionTokens.Value)
}

func TestGenerate_NoChoices(t *testing.T) {
	fake := &fakeCompletions{resp: completion(t, `{"id":"x","choices":[]}`)}
	_, err := newModelWithAPI(fake).Generate(context.Background(), model.Request{Messages: []core.Message{core.NewUserText("q")}})
	assert.ErrorIs(t, err, core.ErrEmptyResponse)
}

func TestGenerate_Error(t *testing.T) {
	boom := errors.New("unauthorized")
	_, err := newModelWithAPI(&fakeCompletions{err: boom}).Generate(context.Background(), model.Request{Messages: []core.Message{core.NewUserText("q")}})
	assert.ErrorIs(t, err, boom)
}
