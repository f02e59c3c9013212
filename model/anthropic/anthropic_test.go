package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/hupe1980/routemesh/core"
	"github.com/hupe1980/routemesh/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMessages struct {
	got  anthropic.MessageNewParams
	resp *anthropic.Message
	err  error
}

func (f *fakeMessages) New(_ context.Context, body anthropic.MessageNewParams, _ ...option.RequestOption) (*anthropic.Message, error) {
	f.got = body
	return f.resp, f.err
}

func decodeMessage(t *testing.T, raw string) *anthropic.Message {
	t.Helper()
	var msg anthropic.Message
	require.NoError(t, json.Unmarshal([]byte(raw), &msg))
	return &msg
}

func TestNewModel_RequiresAPIKey(t *testing.T) {
	_, err := NewModel()
	assert.ErrorIs(t, err, core.ErrMissingCredential)

	m, err := NewModel(func(o *Options) { o.APIKey = "sk-test" })
	require.NoError(t, err)
	assert.Equal(t, model.Info{Name: string(DefaultModel), Provider: "anthropic"}, m.Info())
}

func TestGenerate_BuildsParamsAndParsesReply(t *testing.T) {
	fake := &fakeMessages{resp: decodeMessage(t, `{
		"id": "msg_1",
		"type": "message",
		"role": "assistant",
		"model": "claude-sonnet-4-20250514",
		"stop_reason": "end_turn",
		"content": [{"type": "text", "text": "Hello from Claude"}],
		"usage": {"input_tokens": 12, "output_tokens": 4}
	}`)}
	m := newModelWithAPI(fake)

	resp, err := m.Generate(context.Background(), model.Request{
		System: "You are ELAINE.",
		Messages: []core.Message{
			core.NewUserText("earlier"),
			core.NewAssistantText("reply"),
			core.NewUserText("now"),
		},
		MaxTokens: 50,
	})
	require.NoError(t, err)

	text, err := resp.Text()
	require.NoError(t, err)
	assert.Equal(t, "Hello from Claude", text)
	assert.Equal(t, "msg_1", resp.ID)
	assert.Equal(t, "end_turn", resp.StopReason)
	assert.Equal(t, 16, resp.Usage.TotalTokens)

	assert.Equal(t, DefaultModel, fake.got.Model)
	assert.Equal(t, int64(50), fake.got.MaxTokens)
	require.Len(t, fake.got.System, 1)
	assert.Equal(t, "You are ELAINE.", fake.got.System[0].Text)
	require.Len(t, fake.got.Messages, 3)
	assert.Equal(t, anthropic.MessageParamRoleAssistant, fake.got.Messages[1].Role)
}

func TestGenerate_DefaultsAndOverrides(t *testing.T) {
	fake := &fakeMessages{resp: decodeMessage(t, `{"id":"m","type":"message","role":"assistant","content":[{"type":"text","text":"ok"}],"usage":{}}`)}
	m := newModelWithAPI(fake, func(o *Options) { o.Temperature = 0.2 })

	_, err := m.Generate(context.Background(), model.Request{
		Model:    "claude-custom",
		Messages: []core.Message{{Role: core.RoleSystem, Parts: []core.Part{core.TextPart{Text: "lifted"}}}, core.NewUserText("q")},
	})
	require.NoError(t, err)

	assert.Equal(t, anthropic.Model("claude-custom"), fake.got.Model)
	assert.Equal(t, int64(DefaultMaxTokens), fake.got.MaxTokens)
	require.Len(t, fake.got.System, 1)
	assert.Equal(t, "lifted", fake.got.System[0].Text)
	assert.Len(t, fake.got.Messages, 1)
	assert.True(t, fake.got.Temperature.Valid())
}

func TestGenerate_PropagatesErrors(t *testing.T) {
	boom := errors.New("rate limited")
	m := newModelWithAPI(&fakeMessages{err: boom})

	_, err := m.Generate(context.Background(), model.Request{Messages: []core.Message{core.NewUserText("q")}})
	assert.ErrorIs(t, err, boom)
}

func TestGenerate_EmptyContent(t *testing.T) {
	fake := &fakeMessages{resp: decodeMessage(t, `{"id":"m","type":"message","role":"assistant","content":[],"usage":{}}`)}
	resp, err := newModelWithAPI(fake).Generate(context.Background(), model.Request{Messages: []core.Message{core.NewUserText("q")}})
	require.NoError(t, err)

	_, err = resp.Text()
	assert.ErrorIs(t, err, core.ErrEmptyResponse)
}
