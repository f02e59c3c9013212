// Package model defines the provider‑agnostic abstractions and concrete
// helpers for interacting with hosted language models inside routemesh.
//
// Core goals:
//   - A single synchronous request/response call (Generate) per model turn
//   - Keep request/response shapes minimal and transport independent
//   - Compose cross-cutting behavior (logging, metrics, tracing, rate limits,
//     circuit breaking) as Middleware around any provider
//   - Facilitate lightweight mocking for tests (MockModel)
//
// Providers (Anthropic, OpenAI, Bedrock, Gemini, Ollama) live in sub-packages
// and implement the Model interface so agents and the orchestrator remain
// decoupled from vendor SDKs.
package model
