// Package evaluation measures classification accuracy against labelled queries.
package evaluation

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/hupe1980/routemesh/orchestrator"
	"gopkg.in/yaml.v3"
)

// Case is one labelled query.
type Case struct {
	Query    string `yaml:"query" json:"query"`
	Expected string `yaml:"expected" json:"expected"`
}

// CaseResult is the outcome of one case.
type CaseResult struct {
	Case     Case   `json:"case"`
	Got      string `json:"got"`
	Raw      string `json:"raw"`
	Fallback bool   `json:"fallback"`
	Correct  bool   `json:"correct"`
	Err      string `json:"error,omitempty"`
}

// Report aggregates an evaluation run.
type Report struct {
	Total     int          `json:"total"`
	Correct   int          `json:"correct"`
	Fallbacks int          `json:"fallbacks"`
	Errors    int          `json:"errors"`
	Results   []CaseResult `json:"results"`
}

// Accuracy returns Correct/Total, or 0 for an empty report.
func (r *Report) Accuracy() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Correct) / float64(r.Total)
}

// Classifier is the part of the orchestrator an evaluation needs.
type Classifier interface {
	ClassifyIntent(ctx context.Context, query string) (orchestrator.Decision, error)
}

type caseFile struct {
	Cases []Case `yaml:"cases"`
}

// LoadCases reads a YAML file with a top level "cases" list.
func LoadCases(path string) ([]Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cases %s: %w", path, err)
	}

	var f caseFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse cases %s: %w", path, err)
	}

	for i, c := range f.Cases {
		if strings.TrimSpace(c.Query) == "" || c.Expected == "" {
			return nil, fmt.Errorf("cases %s: entry %d needs query and expected", path, i)
		}
	}

	return f.Cases, nil
}

// Evaluate classifies each case in order. A failing case is recorded and the
// run continues; only context cancellation stops it early.
func Evaluate(ctx context.Context, classifier Classifier, cases []Case) (*Report, error) {
	report := &Report{Results: make([]CaseResult, 0, len(cases))}

	for _, c := range cases {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		report.Total++
		res := CaseResult{Case: c}

		decision, err := classifier.ClassifyIntent(ctx, c.Query)
		if err != nil {
			res.Err = err.Error()
			res.Raw = decision.Raw
			report.Errors++
			report.Results = append(report.Results, res)
			continue
		}

		res.Got = decision.Agent
		res.Raw = decision.Raw
		res.Fallback = decision.Fallback
		res.Correct = strings.EqualFold(decision.Agent, c.Expected)

		if res.Fallback {
			report.Fallbacks++
		}
		if res.Correct {
			report.Correct++
		}

		report.Results = append(report.Results, res)
	}

	return report, nil
}
