package driven

import (
	"context"

	"github.com/medatlas-labs/medcode-cli/internal/core/domain"
)

// CodeSearcher searches one terminology dataset for candidate codes.
//
// This is the only required driven port: without it there is nothing to
// look up. Implementations are expected to rate-limit, retry and cache on
// their side; callers treat a returned error as "this dataset failed for
// this pass" and carry on with the others.
type CodeSearcher interface {
	// Search queries a dataset for codes matching a term, returning at
	// most maxResults candidates. Search is idempotent and safe to call
	// repeatedly across iterations with different terms.
	Search(ctx context.Context, dataset domain.DatasetID, term string, maxResults int) ([]domain.CandidateCode, error)
}
