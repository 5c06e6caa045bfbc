package domain

// Decision is the quality evaluator's verdict after one loop pass.
type Decision string

// Possible decisions.
const (
	// DecisionSufficient stops the loop and proceeds to synthesis:
	// result quality met the acceptance (or excellent) threshold.
	DecisionSufficient Decision = "sufficient"

	// DecisionRefine continues the loop with refined search terms.
	DecisionRefine Decision = "refine"

	// DecisionComplete stops the loop because the iteration budget is
	// exhausted (or no novel refinement remains). Results are returned
	// best-effort; sub-acceptable quality is marked low confidence, not
	// treated as an error.
	DecisionComplete Decision = "complete"
)

// IsValid returns true if the decision is recognised.
func (d Decision) IsValid() bool {
	switch d {
	case DecisionSufficient, DecisionRefine, DecisionComplete:
		return true
	default:
		return false
	}
}

// Terminal returns true if the decision ends the refinement loop.
func (d Decision) Terminal() bool {
	return d == DecisionSufficient || d == DecisionComplete
}

// String returns the string representation.
func (d Decision) String() string {
	return string(d)
}

// RefinementStrategy names how the planner adjusts the next search pass.
type RefinementStrategy string

// Available strategies.
const (
	// StrategyBroaden loosens the search: synonyms, parent categories,
	// abbreviations, and a wider dataset selection.
	StrategyBroaden RefinementStrategy = "broaden"

	// StrategyNarrow tightens the search with qualifiers and subtypes.
	StrategyNarrow RefinementStrategy = "narrow"

	// StrategyAlternative takes a different angle entirely, used to
	// escape plateaus after repeated unproductive passes.
	StrategyAlternative RefinementStrategy = "alternative"

	// StrategySufficient records that the planner saw no need to refine.
	StrategySufficient RefinementStrategy = "sufficient"
)

// IsValid returns true if the strategy is recognised.
func (s RefinementStrategy) IsValid() bool {
	switch s {
	case StrategyBroaden, StrategyNarrow, StrategyAlternative, StrategySufficient:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (s RefinementStrategy) String() string {
	return string(s)
}

// IterationRecord captures one pass of the refinement loop. Records are
// append-only: the ordered sequence is the audit trail the planner uses to
// avoid repeating strategies, and its length never exceeds the configured
// maximum iteration count.
type IterationRecord struct {
	// Index is the 1-based iteration number.
	Index int `json:"iteration"`

	// SearchTerms is the term set searched in this pass.
	SearchTerms []string `json:"search_terms"`

	// ResultCount is the merged candidate count after this pass.
	ResultCount int `json:"result_count"`

	// MeanRelevance is the average relevance of all scored results.
	MeanRelevance float64 `json:"mean_relevance"`

	// QualityScore is the evaluator's combined quality score.
	QualityScore float64 `json:"quality_score"`

	// Decision is the evaluator's verdict for this pass.
	Decision Decision `json:"decision"`

	// Strategy is the refinement applied after this pass. Empty on
	// terminal passes.
	Strategy RefinementStrategy `json:"strategy,omitempty"`
}
