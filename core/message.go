package core

import "strings"

// Role tags a message with its conversational author.
type Role string

const (
	// RoleUser marks messages written by the end user.
	RoleUser Role = "user"
	// RoleAssistant marks messages produced by a model.
	RoleAssistant Role = "assistant"
	// RoleSystem marks system level instructions. Adapters lift these out of
	// the message list into the provider's dedicated system field.
	RoleSystem Role = "system"
)

// Message holds role + ordered parts.
type Message struct {
	Role  Role   `json:"role"`
	Parts []Part `json:"parts"`
}

// NewUserText builds a single-part user message.
func NewUserText(text string) Message {
	return Message{Role: RoleUser, Parts: []Part{TextPart{Text: text}}}
}

// NewAssistantText builds a single-part assistant message.
func NewAssistantText(text string) Message {
	return Message{Role: RoleAssistant, Parts: []Part{TextPart{Text: text}}}
}

// Text concatenates all text parts of the message.
func (m Message) Text() string {
	var sb strings.Builder
	for _, p := range m.Parts {
		if tp, ok := p.(TextPart); ok {
			sb.WriteString(tp.Text)
		}
	}
	return sb.String()
}

// Conversation is an ordered transcript of prior turns. It is owned by the
// caller; agents and the orchestrator read it but never retain or mutate it.
type Conversation []Message

// With returns a copy of the conversation with msgs appended. The receiver's
// backing array is never written to.
func (c Conversation) With(msgs ...Message) Conversation {
	out := make(Conversation, 0, len(c)+len(msgs))
	out = append(out, c...)
	return append(out, msgs...)
}

// Candidate is the minimal view of an agent a classifier chooses from.
type Candidate struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}
