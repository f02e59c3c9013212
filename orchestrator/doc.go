// Package orchestrator routes a query to exactly one registered agent.
//
// Routing is two sequential model calls. The classifier sees every agent's
// name and description and replies with a name; Resolve maps that reply onto
// the registry; the chosen agent answers with the caller's history.
//
// When the reply names no agent, the MissPolicy decides: MissFallback (the
// default) hands the query to the first registered agent and marks the
// Result with Fallback, MissError fails with core.ErrNoMatch.
package orchestrator
