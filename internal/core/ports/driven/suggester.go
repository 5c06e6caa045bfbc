package driven

import (
	"context"

	"github.com/medatlas-labs/medcode-cli/internal/core/domain"
)

// RefinementRequest carries everything the suggester needs to propose a new
// search pass.
type RefinementRequest struct {
	// Query is the original clinical query.
	Query string

	// TermType is the classified type of the query.
	TermType domain.TermType

	// Strategy is the refinement direction chosen by the planner.
	Strategy domain.RefinementStrategy

	// TriedTerms is every term searched so far in this lookup, in first-use
	// order. Suggesters must not propose any of these again.
	TriedTerms []string

	// ResultCount is the merged result count after the last pass.
	ResultCount int

	// MeanRelevance is the average relevance after the last pass.
	MeanRelevance float64

	// Iteration is the 1-based index of the pass that just finished.
	Iteration int

	// MaxSuggestions caps how many new terms to return.
	MaxSuggestions int
}

// RefinementSuggestion is the suggester's proposal for the next pass.
type RefinementSuggestion struct {
	// Strategy is the strategy the suggester actually applied. It may
	// differ from the requested one when the suggester sees a better fit.
	Strategy domain.RefinementStrategy

	// Terms are the new search terms, best first.
	Terms []string

	// Reasoning is a short explanation of the proposal.
	Reasoning string

	// Confidence is the suggester's confidence in [0, 1].
	Confidence float64
}

// TermSuggester proposes refined search terms for the next loop pass.
//
// Like classification, suggestion is advisory: an unavailable suggester must
// never fail the lookup. Callers fall back to rule-based term rewriting.
type TermSuggester interface {
	// Suggest proposes new search terms following the requested strategy.
	Suggest(ctx context.Context, req RefinementRequest) (RefinementSuggestion, error)
}
