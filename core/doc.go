// Package core provides the foundational domain types shared by the
// routemesh packages:
//
//   - Messages and Parts (role-tagged conversation entries)
//   - Conversation (the ordered, caller-owned transcript)
//   - Candidate (the name/description pair a classifier chooses from)
//   - Sentinel errors used across agent, orchestrator and model adapters
//
// The package keeps implementation concerns (model transports, routing
// policy, configuration) out of scope so that every other package can depend
// on it without pulling in a provider SDK.
package core
