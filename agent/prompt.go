package agent

import "github.com/hupe1980/routemesh/internal/util"

var systemPromptTemplate = util.MustParse("system", `You are {{.Name}}.

{{.Instructions}}

Your personality and expertise:
{{.Description}}

Respond naturally and helpfully based on your role.`)

type promptData struct {
	Name         string
	Description  string
	Instructions string
}

// SystemPrompt renders the persona system prompt sent with every Process call.
func SystemPrompt(name, description, instructions string) (string, error) {
	return util.Execute(systemPromptTemplate, promptData{
		Name:         name,
		Description:  description,
		Instructions: instructions,
	})
}
