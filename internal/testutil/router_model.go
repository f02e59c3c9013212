package testutil

import (
	"fmt"
	"strings"

	"github.com/hupe1980/routemesh/model"
)

// ClassificationMarker is the opening line of every classification prompt.
const ClassificationMarker = "Given this user query, which agent should handle it?"

// IsClassification reports whether req is a classification call rather than
// a persona reply.
func IsClassification(req model.Request) bool {
	if req.System != "" || len(req.Messages) == 0 {
		return false
	}
	return strings.HasPrefix(req.Messages[len(req.Messages)-1].Text(), ClassificationMarker)
}

// PersonaName extracts NAME from a system prompt starting with "You are NAME.".
func PersonaName(system string) string {
	first, _, _ := strings.Cut(system, "\n")
	return strings.TrimSuffix(strings.TrimPrefix(first, "You are "), ".")
}

// RouterModel builds a MockModel that plays both roles of a routing round
// trip. Classification calls get classify(query prompt); persona calls get
// replies[name], or "reply from NAME" when no reply is scripted.
func RouterModel(classify func(prompt string) string, replies map[string]string) *model.MockModel {
	m := model.NewMockModel("router-mock", "mock")
	m.SetHandler(func(req model.Request) (string, error) {
		if IsClassification(req) {
			return classify(req.Messages[len(req.Messages)-1].Text()), nil
		}

		name := PersonaName(req.System)
		if reply, ok := replies[name]; ok {
			return reply, nil
		}
		return fmt.Sprintf("reply from %s", name), nil
	})
	return m
}

// Always returns a classify function that ignores the prompt.
func Always(reply string) func(string) string {
	return func(string) string { return reply }
}
