// Package logging provides a minimal logging interface and adapters for routemesh.
//
// Logger is the interface every routemesh component accepts. This package
// includes:
//
//   - SlogAdapter wrapping Go's structured logging
//   - NoOpLogger for silent operation (the default in every component)
//   - New / NewSlogLogger for text or JSON handlers
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "text", false)
//	orch := orchestrator.New(classifier, func(o *orchestrator.Options) { o.Logger = logger })
package logging
