package model

import (
	"context"
	"errors"
	"testing"

	"github.com/hupe1980/routemesh/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userReq(text string) Request {
	return Request{Messages: []core.Message{core.NewUserText(text)}}
}

func TestMockModel_CannedAndDefault(t *testing.T) {
	m := NewMockModel("test", "mock")
	m.AddResponse("ping", "pong")

	resp, err := m.Generate(context.Background(), userReq("ping"))
	require.NoError(t, err)
	text, err := resp.Text()
	require.NoError(t, err)
	assert.Equal(t, "pong", text)
	require.NotNil(t, resp.Usage)
	assert.Equal(t, resp.Usage.PromptTokens+resp.Usage.CompletionTokens, resp.Usage.TotalTokens)

	resp, err = m.Generate(context.Background(), userReq("other"))
	require.NoError(t, err)
	text, _ = resp.Text()
	assert.Equal(t, "Mock response to: other", text)
}

func TestMockModel_HandlerAndCapture(t *testing.T) {
	m := NewMockModel("test", "mock")
	m.SetHandler(func(req Request) (string, error) { return "sys=" + req.System, nil })

	_, err := m.Generate(context.Background(), Request{System: "be brief", Messages: []core.Message{core.NewUserText("q")}, MaxTokens: 10})
	require.NoError(t, err)

	last, ok := m.LastRequest()
	require.True(t, ok)
	assert.Equal(t, "be brief", last.System)
	assert.Equal(t, int64(10), last.MaxTokens)
	assert.Len(t, m.Requests(), 1)
}

func TestMockModel_Errors(t *testing.T) {
	m := NewMockModel("test", "mock")
	boom := errors.New("boom")
	m.FailWith(boom)

	_, err := m.Generate(context.Background(), userReq("x"))
	assert.ErrorIs(t, err, boom)

	m.FailWith(nil)
	_, err = m.Generate(context.Background(), Request{})
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = m.Generate(ctx, userReq("x"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResponse_TextEmpty(t *testing.T) {
	_, err := (&Response{Content: core.Message{Role: core.RoleAssistant}}).Text()
	assert.ErrorIs(t, err, core.ErrEmptyResponse)

	var nilResp *Response
	_, err = nilResp.Text()
	assert.ErrorIs(t, err, core.ErrEmptyResponse)
}

func TestChain_Order(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(next Model) Model {
			return Wrap(next, func(ctx context.Context, req Request) (*Response, error) {
				order = append(order, name)
				return next.Generate(ctx, req)
			})
		}
	}

	base := NewMockModel("base", "mock")
	m := Chain(base, mw("outer"), nil, mw("inner"))

	_, err := m.Generate(context.Background(), userReq("x"))
	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "inner"}, order)
	assert.Equal(t, base.Info(), m.Info())
}
