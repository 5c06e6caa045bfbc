package driving

import (
	"context"

	"github.com/medatlas-labs/medcode-cli/internal/core/domain"
)

// LookupService provides clinical code lookup to external actors.
type LookupService interface {
	// Lookup resolves a clinical term to ranked medical codes, consulting
	// the result cache first and running the refinement loop on a miss.
	Lookup(ctx context.Context, query string) (*domain.LookupResponse, error)

	// NextPage returns the next page of the most recent query's results.
	// It never re-runs the lookup. Returns domain.ErrNoActiveQuery when
	// nothing has been looked up yet and domain.ErrNoMoreResults once
	// every dataset is exhausted.
	NextPage(ctx context.Context) (*domain.PageView, error)

	// ClearCache empties the result cache. The pagination cursor for the
	// active query survives, so "more" keeps working after a clear.
	ClearCache(ctx context.Context) error

	// CacheStats reports the result cache and pagination state.
	CacheStats(ctx context.Context) (domain.CacheStats, error)

	// Datasets lists the terminology datasets this service can search.
	Datasets(ctx context.Context) []domain.DatasetInfo
}
