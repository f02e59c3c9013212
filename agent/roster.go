package agent

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/hupe1980/routemesh/core"
	"github.com/hupe1980/routemesh/logging"
	"github.com/hupe1980/routemesh/model"
	"gopkg.in/yaml.v3"
)

//go:embed default_roster.yaml
var defaultRosterYAML []byte

// AgentSpec declares one persona in a roster file.
type AgentSpec struct {
	Name         string `yaml:"name"`
	Description  string `yaml:"description"`
	Instructions string `yaml:"instructions"`
	MaxTokens    int64  `yaml:"max_tokens,omitempty"`
	Model        string `yaml:"model,omitempty"`
}

// RosterSpec is an ordered list of personas. Order is registration order,
// which decides both classifier listing and the fallback agent.
type RosterSpec struct {
	Agents []AgentSpec `yaml:"agents"`
}

// DefaultRoster returns the built-in Almost Magic Tech Lab personas:
// ELAINE, AI-Strategy-Consultant, Cybersecurity-Consultant and
// Data-Management-Consultant.
func DefaultRoster() RosterSpec {
	spec, err := ParseRoster(defaultRosterYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded default roster: %v", err))
	}
	return spec
}

// LoadRoster reads a YAML roster from path.
func LoadRoster(path string) (RosterSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RosterSpec{}, fmt.Errorf("read roster %s: %w", path, err)
	}

	spec, err := ParseRoster(data)
	if err != nil {
		return RosterSpec{}, fmt.Errorf("roster %s: %w", path, err)
	}

	return spec, nil
}

// ParseRoster decodes a YAML roster and validates it.
func ParseRoster(data []byte) (RosterSpec, error) {
	var spec RosterSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return RosterSpec{}, fmt.Errorf("parse roster: %w", err)
	}

	if err := spec.Validate(); err != nil {
		return RosterSpec{}, err
	}

	return spec, nil
}

// Validate rejects empty rosters, unnamed agents and negative limits.
// Duplicate names are allowed; later entries overwrite earlier ones on registration.
func (r RosterSpec) Validate() error {
	if len(r.Agents) == 0 {
		return errors.New("roster has no agents")
	}

	for i, a := range r.Agents {
		if a.Name == "" {
			return fmt.Errorf("%w: roster entry %d has no name", core.ErrInvalidAgent, i)
		}
		if a.MaxTokens < 0 {
			return fmt.Errorf("%w: agent %q has negative max_tokens", core.ErrInvalidAgent, a.Name)
		}
	}

	return nil
}

// Build constructs one Agent per entry, in roster order, all sharing llm.
func (r RosterSpec) Build(llm model.Model, logger logging.Logger) ([]*Agent, error) {
	agents := make([]*Agent, 0, len(r.Agents))

	for _, spec := range r.Agents {
		a, err := New(spec.Name, spec.Description, spec.Instructions, llm, func(o *Options) {
			o.MaxTokens = spec.MaxTokens
			o.Model = spec.Model
			o.Logger = logger
		})
		if err != nil {
			return nil, err
		}
		agents = append(agents, a)
	}

	return agents, nil
}

// Names returns the agent names in roster order.
func (r RosterSpec) Names() []string {
	names := make([]string, len(r.Agents))
	for i, a := range r.Agents {
		names[i] = a.Name
	}
	return names
}
