package core

import "errors"

var (
	// ErrInvalidAgent is returned when an agent is constructed without a name or model.
	ErrInvalidAgent = errors.New("invalid agent")
	// ErrNoAgents is returned when routing is attempted against an empty registry.
	ErrNoAgents = errors.New("no agents registered")
	// ErrUnknownAgent is returned when a resolved agent name is not in the registry.
	ErrUnknownAgent = errors.New("unknown agent")
	// ErrNoMatch is returned by the strict miss policy when the classifier reply
	// names no registered agent.
	ErrNoMatch = errors.New("classifier reply matched no registered agent")
	// ErrEmptyResponse is returned when a model reply carries no text segment.
	ErrEmptyResponse = errors.New("model returned no text")
	// ErrMissingCredential is returned when a provider requiring an API key has none configured.
	ErrMissingCredential = errors.New("missing credential")
	// ErrRateLimited is returned when a provider or the local limiter rejects a call for rate reasons.
	ErrRateLimited = errors.New("rate limited")
	// ErrUnauthorized is returned when a provider rejects the configured credential.
	ErrUnauthorized = errors.New("unauthorized")
)
