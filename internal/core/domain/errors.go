package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidConfig indicates the configuration violates an invariant.
	// Raised at startup; the process must not run with a bad configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrNoActiveQuery indicates pagination was requested but no query
	// has been looked up in this session.
	ErrNoActiveQuery = errors.New("no active query to paginate")

	// ErrNoMoreResults indicates every dataset of the active query is
	// exhausted.
	ErrNoMoreResults = errors.New("no more results")

	// ErrUnknownDataset indicates a dataset identifier is not in the
	// catalogue.
	ErrUnknownDataset = errors.New("unknown dataset")

	// ErrDatasetUnavailable indicates a terminology dataset could not be
	// searched. Per-dataset failures are isolated and surface as markers
	// on the response, never as a hard error for the whole query.
	ErrDatasetUnavailable = errors.New("dataset unavailable")

	// ErrLLMUnavailable indicates the LLM service is not configured or
	// not reachable. Classification, refinement and synthesis degrade to
	// rule-based fallbacks.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrMalformedResponse indicates an LLM reply could not be parsed
	// into the expected structure.
	ErrMalformedResponse = errors.New("malformed LLM response")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)
