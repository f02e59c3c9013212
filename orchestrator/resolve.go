package orchestrator

import (
	"fmt"
	"strings"
)

// MissPolicy decides what happens when the classifier reply names no
// registered agent.
type MissPolicy int

const (
	// MissFallback routes to the first registered agent and flags the
	// decision as a fallback.
	MissFallback MissPolicy = iota
	// MissError fails classification with core.ErrNoMatch.
	MissError
)

// String returns the config spelling of the policy.
func (p MissPolicy) String() string {
	switch p {
	case MissFallback:
		return "fallback"
	case MissError:
		return "error"
	default:
		return fmt.Sprintf("MissPolicy(%d)", int(p))
	}
}

// ParseMissPolicy parses "fallback" (or empty) and "error".
func ParseMissPolicy(s string) (MissPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fallback":
		return MissFallback, nil
	case "error", "strict":
		return MissError, nil
	default:
		return MissFallback, fmt.Errorf("unknown miss policy %q (want fallback or error)", s)
	}
}

// Resolve maps a raw classifier reply onto a registered name. The reply is
// trimmed and each name is tested, in registration order, as a
// case-insensitive substring of it. The first name found wins, even when a
// later name is a longer or exact match. ok is false when nothing matches.
func Resolve(reply string, names []string) (name string, ok bool) {
	haystack := strings.ToLower(strings.TrimSpace(reply))
	if haystack == "" {
		return "", false
	}

	for _, n := range names {
		if n == "" {
			continue
		}
		if strings.Contains(haystack, strings.ToLower(n)) {
			return n, true
		}
	}

	return "", false
}
