package driven

import (
	"context"

	"github.com/medatlas-labs/medcode-cli/internal/core/domain"
)

// TermClassifier decides what kind of clinical term a query is and which
// terminology datasets are worth searching for it.
//
// Classification is an optimisation: a failed or unavailable classifier must
// never fail the lookup. Callers fall back to domain.FallbackClassification,
// which searches every dataset.
type TermClassifier interface {
	// Classify analyses a clinical query and returns the term type,
	// dataset selection and initial search terms.
	Classify(ctx context.Context, query string) (domain.TermClassification, error)
}
