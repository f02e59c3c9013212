package testutil

import (
	"context"
	"testing"

	"github.com/hupe1980/routemesh/core"
	"github.com/hupe1980/routemesh/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversationBuilder(t *testing.T) {
	b := NewConversationBuilder().User("hi").Assistant("hello")
	first := b.Build()
	second := b.User("again").Build()

	require.Len(t, first, 2)
	require.Len(t, second, 3)
	assert.Equal(t, core.RoleAssistant, first[1].Role)
	assert.Equal(t, "again", second[2].Text())
}

func TestPersonaName(t *testing.T) {
	assert.Equal(t, "ELAINE", PersonaName("You are ELAINE.\n\nYour role: ..."))
	assert.Equal(t, "B", PersonaName("You are B."))
}

func TestRouterModel(t *testing.T) {
	m := RouterModel(Always("B"), map[string]string{"B": "security answer"})

	resp, err := m.Generate(context.Background(), model.Request{
		Messages: []core.Message{core.NewUserText(ClassificationMarker + "\n\n...")},
	})
	require.NoError(t, err)
	text, _ := resp.Text()
	assert.Equal(t, "B", text)

	resp, err = m.Generate(context.Background(), model.Request{
		System:   "You are B.\n\nbe careful",
		Messages: []core.Message{core.NewUserText("q")},
	})
	require.NoError(t, err)
	text, _ = resp.Text()
	assert.Equal(t, "security answer", text)

	resp, err = m.Generate(context.Background(), model.Request{
		System:   "You are A.",
		Messages: []core.Message{core.NewUserText("q")},
	})
	require.NoError(t, err)
	text, _ = resp.Text()
	assert.Equal(t, "reply from A", text)
}
