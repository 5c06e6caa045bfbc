// Package agents implements the LLM collaborators: term classification,
// refinement suggestion and result synthesis over a chat service, plus the
// keyword classifier used when no LLM is available.
//
// Every agent is advisory. Chat failures and unparsable replies degrade to
// rule-based behaviour instead of failing the lookup.
package agents
