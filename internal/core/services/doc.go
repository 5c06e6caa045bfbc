// Package services implements the driving port interfaces.
// Services contain the core business logic: relevance scoring, quality
// evaluation, refinement planning, session memory and the iterative
// lookup pipeline that orchestrates calls to driven ports (adapters).
//
// Services are pure Go with no CGO. They reach infrastructure only
// through the driven ports, never by importing adapters.
package services
