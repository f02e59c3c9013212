package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversation_WithDoesNotMutateReceiver(t *testing.T) {
	base := make(Conversation, 1, 4) // spare capacity would expose aliasing
	base[0] = NewUserText("hi")

	next := base.With(NewAssistantText("hello"), NewUserText("again"))

	require.Len(t, next, 3)
	assert.Len(t, base, 1)
	assert.Equal(t, "hi", base[0].Text())

	extended := base[:cap(base)]
	assert.Empty(t, extended[1].Parts, "With must not write into the receiver's backing array")
}

func TestMessage_Text(t *testing.T) {
	m := Message{Role: RoleAssistant, Parts: []Part{TextPart{Text: "a"}, TextPart{Text: "b"}}}
	assert.Equal(t, "ab", m.Text())
	assert.Equal(t, RoleUser, NewUserText("q").Role)
}

func TestFirstText(t *testing.T) {
	text, ok := FirstText([]Part{TextPart{}, TextPart{Text: "first"}, TextPart{Text: "second"}})
	assert.True(t, ok)
	assert.Equal(t, "first", text)

	_, ok = FirstText(nil)
	assert.False(t, ok)
}

func TestLoggerAdapter_NilSafe(t *testing.T) {
	var zero LoggerAdapter
	assert.NotPanics(t, func() { zero.LogInfo("x", "k", "v") })
	assert.NotNil(t, NewLoggerAdapter(nil).Logger())
}
