// Package agent contains the persona type routed to by the orchestrator and
// the roster format used to declare personas in YAML.
//
// An Agent is a name, a description, instructions and a model handle. The
// description is what the classifier sees; the name, instructions and
// description together form the system prompt of every reply:
//
//	You are {name}.
//
//	{instructions}
//
//	Your personality and expertise:
//	{description}
//
//	Respond naturally and helpfully based on your role.
//
// Agents hold no conversation state. Callers own the transcript and pass it
// to Process on each turn.
package agent
