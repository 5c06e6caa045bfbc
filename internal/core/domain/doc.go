// Package domain defines the core business entities for medcode.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - TermClassification: The classified type of a clinical term
//   - CandidateCode: A medical code returned by a terminology dataset
//   - ScoredResult: A candidate code with a relevance score and tier
//   - IterationRecord: One pass of the refinement loop
//   - LookupResponse: The assembled answer for a query
//   - Config: The full configuration tree with validation
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
