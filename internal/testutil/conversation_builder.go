package testutil

import "github.com/hupe1980/routemesh/core"

// ConversationBuilder helps construct transcripts with fluent chaining for tests.
// Example:
//
//	hist := NewConversationBuilder().User("hi").Assistant("hello").Build()
type ConversationBuilder struct {
	msgs core.Conversation
}

// NewConversationBuilder creates an empty builder.
func NewConversationBuilder() *ConversationBuilder {
	return &ConversationBuilder{}
}

// User appends a user turn (chainable).
func (b *ConversationBuilder) User(text string) *ConversationBuilder {
	b.msgs = append(b.msgs, core.NewUserText(text))
	return b
}

// Assistant appends an assistant turn (chainable).
func (b *ConversationBuilder) Assistant(text string) *ConversationBuilder {
	b.msgs = append(b.msgs, core.NewAssistantText(text))
	return b
}

// Build returns an independent copy of the accumulated conversation.
func (b *ConversationBuilder) Build() core.Conversation {
	return b.msgs.With()
}
