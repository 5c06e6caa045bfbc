package driven

import (
	"context"

	"github.com/medatlas-labs/medcode-cli/internal/core/domain"
)

// SynthesisRequest carries the finished result set to summarise.
type SynthesisRequest struct {
	// Query is the original clinical query.
	Query string

	// TermType is the classified type of the query.
	TermType domain.TermType

	// Results holds the scored results grouped by dataset, best first.
	Results map[domain.DatasetID][]domain.ScoredResult

	// Quality carries the evaluation metrics for the result set.
	Quality domain.QualityMetrics

	// MaxRecommendations is the minimum number of recommendations to
	// request from the synthesiser.
	MaxRecommendations int
}

// Synthesiser produces the human-readable reading of a result set: an
// executive summary, patterns, ranked recommendations and follow-up steps.
//
// Synthesis is advisory and never affects scoring or loop termination. An
// unavailable synthesiser must never fail the lookup; callers fall back to
// a statistical summary built from the quality metrics.
type Synthesiser interface {
	// Synthesise summarises a completed result set.
	Synthesise(ctx context.Context, req SynthesisRequest) (domain.Synthesis, error)
}
