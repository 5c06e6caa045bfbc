// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - CodeSearcher: Searches terminology datasets for candidate codes
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - ChatService: Raw LLM conversation. Without it, the rule-based collaborators take over.
//   - TermClassifier: Classifies clinical terms. Falls back to searching all datasets.
//   - TermSuggester: Proposes refined search terms. Falls back to rule-based rewriting.
//   - Synthesiser: Summarises result sets. Falls back to a statistical summary.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
