package main

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/hupe1980/routemesh/model"
)

// newOfflineModel backs --provider mock. Classification calls pick the
// candidate whose description shares the most words with the query; persona
// calls echo which persona would have answered.
func newOfflineModel() *model.MockModel {
	m := model.NewMockModel("offline", "mock")
	m.SetHandler(func(req model.Request) (string, error) {
		if len(req.Messages) == 0 {
			return "", fmt.Errorf("offline model: empty request")
		}
		last := req.Messages[len(req.Messages)-1].Text()

		if req.System == "" {
			return offlineClassify(last), nil
		}

		first, _, _ := strings.Cut(req.System, "\n")
		return fmt.Sprintf("[offline] %s received: %s", strings.TrimSuffix(first, "."), last), nil
	})
	return m
}

// offlineClassify parses the "- NAME: description" lines of a classification
// prompt and scores them against the quoted user query.
func offlineClassify(prompt string) string {
	query := prompt
	if _, rest, ok := strings.Cut(prompt, `User query: "`); ok {
		query, _, _ = strings.Cut(rest, "\"\n")
	}
	queryWords := words(query)

	best, bestScore := "", 0
	for _, line := range strings.Split(prompt, "\n") {
		entry, ok := strings.CutPrefix(line, "- ")
		if !ok {
			continue
		}
		name, desc, ok := strings.Cut(entry, ": ")
		if !ok {
			continue
		}

		score := 0
		for w := range words(desc + " " + strings.ReplaceAll(name, "-", " ")) {
			if queryWords[w] {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = name, score
		}
	}

	if best == "" {
		return "unsure"
	}
	return best
}

func words(s string) map[string]bool {
	set := map[string]bool{}
	for _, w := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if len(w) > 3 {
			set[w] = true
		}
	}
	return set
}
