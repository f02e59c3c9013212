package core

// Part represents a polymorphic segment of role-based content. Concrete part
// types implement the unexported isPart marker enabling a closed set.
type Part interface{ isPart() }

// TextPart is a plain text content segment.
type TextPart struct {
	Text     string         // Plain UTF-8 text
	Metadata map[string]any // Optional producer-provided metadata
}

// isPart implements the Part interface for TextPart.
func (TextPart) isPart() {}

// FirstText returns the text of the first non-empty TextPart in parts.
// The second return value reports whether one was found.
func FirstText(parts []Part) (string, bool) {
	for _, p := range parts {
		if tp, ok := p.(TextPart); ok && tp.Text != "" {
			return tp.Text, true
		}
	}
	return "", false
}
