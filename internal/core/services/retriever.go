package services

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/medatlas-labs/medcode-cli/internal/core/domain"
	"github.com/medatlas-labs/medcode-cli/internal/core/ports/driven"
	"github.com/medatlas-labs/medcode-cli/internal/logger"
)

// RetrievalOutcome is the merged result of one retrieval pass.
type RetrievalOutcome struct {
	// Candidates are the deduplicated codes in first-seen order: term
	// order first, then dataset order within a term.
	Candidates []domain.CandidateCode

	// Errors holds a message per dataset that failed for every term.
	// A dataset that answered at least one term is not failed.
	Errors map[domain.DatasetID]string
}

// RetrievalCoordinator fans one pass's searches out across every
// term/dataset pair concurrently and merges what comes back. Failures are
// isolated: a dataset that errors or times out is excluded from this
// pass's results and annotated, never allowed to fail the pass.
type RetrievalCoordinator struct {
	searcher      driven.CodeSearcher
	timeout       time.Duration
	maxPerDataset int
}

// NewRetrievalCoordinator creates a new retrieval coordinator.
func NewRetrievalCoordinator(searcher driven.CodeSearcher, cfg domain.APIConfig) *RetrievalCoordinator {
	return &RetrievalCoordinator{
		searcher:      searcher,
		timeout:       cfg.PerCallTimeout,
		maxPerDataset: cfg.MaxResultsPerDataset,
	}
}

// Retrieve searches every dataset with every term concurrently and merges
// the results, deduplicated by dataset and code. Each call gets its own
// timeout so one slow dataset cannot stall the rest.
func (r *RetrievalCoordinator) Retrieve(ctx context.Context, terms []string, datasets []domain.DatasetID) RetrievalOutcome {
	outcome := RetrievalOutcome{Errors: make(map[domain.DatasetID]string)}
	if len(terms) == 0 || len(datasets) == 0 {
		return outcome
	}

	logger.Debug("Searching %d datasets with %d terms (%d calls)",
		len(datasets), len(terms), len(datasets)*len(terms))

	type call struct {
		candidates []domain.CandidateCode
		err        error
	}
	grid := make([][]call, len(terms))
	for i := range grid {
		grid[i] = make([]call, len(datasets))
	}

	g, gctx := errgroup.WithContext(ctx)
	for ti, term := range terms {
		for di, dataset := range datasets {
			g.Go(func() error {
				callCtx, cancel := context.WithTimeout(gctx, r.timeout)
				defer cancel()

				candidates, err := r.searcher.Search(callCtx, dataset, term, r.maxPerDataset)
				grid[ti][di] = call{candidates: candidates, err: err}
				if err != nil {
					logger.Debug("Search failed for %s %q: %v", dataset, term, err)
				}
				// Failures stay in the grid so one dataset cannot
				// cancel the others.
				return nil
			})
		}
	}
	_ = g.Wait()

	seen := make(map[string]bool)
	for ti := range terms {
		for di := range datasets {
			for _, c := range grid[ti][di].candidates {
				if key := c.Key(); !seen[key] {
					seen[key] = true
					outcome.Candidates = append(outcome.Candidates, c)
				}
			}
		}
	}

	for di, dataset := range datasets {
		var firstErr error
		failed := true
		for ti := range terms {
			if grid[ti][di].err == nil {
				failed = false
				break
			}
			if firstErr == nil {
				firstErr = grid[ti][di].err
			}
		}
		if failed && firstErr != nil {
			outcome.Errors[dataset] = firstErr.Error()
		}
	}

	logger.Debug("Merged %d unique candidates, %d datasets unavailable",
		len(outcome.Candidates), len(outcome.Errors))
	return outcome
}
