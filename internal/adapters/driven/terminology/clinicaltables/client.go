// Package clinicaltables provides code search against the NLM Clinical
// Tables API (https://clinicaltables.nlm.nih.gov).
package clinicaltables

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	cache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/medatlas-labs/medcode-cli/internal/core/domain"
	"github.com/medatlas-labs/medcode-cli/internal/core/ports/driven"
	"github.com/medatlas-labs/medcode-cli/internal/logger"
)

// Ensure Client implements the interface.
var _ driven.CodeSearcher = (*Client)(nil)

// Default configuration values.
const (
	DefaultBaseURL            = "https://clinicaltables.nlm.nih.gov/api"
	DefaultTimeout            = 10 * time.Second
	DefaultMaxRetries         = 3
	DefaultRetryBackoff       = time.Second
	DefaultRateLimitPerMinute = 100
	DefaultCacheTTL           = 24 * time.Hour

	// rateBurst is the token bucket depth. One classification can fan a
	// term out to every dataset at once, so the bucket holds a full
	// catalogue's worth of requests.
	rateBurst = 20

	// cacheSweepInterval is how often expired responses are purged.
	cacheSweepInterval = 10 * time.Minute
)

// Config holds configuration for the Clinical Tables client.
type Config struct {
	// BaseURL is the API root (default: https://clinicaltables.nlm.nih.gov/api).
	BaseURL string

	// Timeout is the per-request timeout (default: 10s).
	Timeout time.Duration

	// MaxRetries is how many times a transient failure is retried
	// (default: 3).
	MaxRetries int

	// RetryBackoff is the initial delay between retries; it doubles on
	// each attempt (default: 1s).
	RetryBackoff time.Duration

	// RateLimitPerMinute caps outgoing requests (default: 100).
	RateLimitPerMinute int

	// CacheTTL is how long search responses are reused. Medical codes
	// are stable, so the default is generous (24h).
	CacheTTL time.Duration
}

// ConfigFromAPI maps the application API settings onto client configuration.
func ConfigFromAPI(cfg domain.APIConfig) Config {
	return Config{
		BaseURL:            cfg.BaseURL,
		Timeout:            cfg.PerCallTimeout,
		MaxRetries:         cfg.MaxRetries,
		RetryBackoff:       cfg.RetryBackoff,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		CacheTTL:           cfg.ResponseCacheTTL,
	}
}

// Client searches Clinical Tables datasets. It rate-limits, retries and
// caches on its side so callers can treat each search as a single
// idempotent call.
type Client struct {
	client       *http.Client
	baseURL      string
	limiter      *rate.Limiter
	responses    *cache.Cache
	maxRetries   int
	retryBackoff time.Duration
}

// NewClient creates a new Clinical Tables client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.RetryBackoff == 0 {
		cfg.RetryBackoff = DefaultRetryBackoff
	}
	if cfg.RateLimitPerMinute == 0 {
		cfg.RateLimitPerMinute = DefaultRateLimitPerMinute
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}

	perSecond := float64(cfg.RateLimitPerMinute) / 60.0

	return &Client{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:      cfg.BaseURL,
		limiter:      rate.NewLimiter(rate.Limit(perSecond), rateBurst),
		responses:    cache.New(cfg.CacheTTL, cacheSweepInterval),
		maxRetries:   cfg.MaxRetries,
		retryBackoff: cfg.RetryBackoff,
	}
}

// Search queries a dataset for codes matching a term. Responses are cached
// by dataset, term and limit; repeat searches across refinement iterations
// never hit the network twice.
func (c *Client) Search(ctx context.Context, dataset domain.DatasetID, term string, maxResults int) ([]domain.CandidateCode, error) {
	info, ok := domain.DatasetByID(dataset)
	if !ok {
		return nil, fmt.Errorf("clinicaltables: %w: %s", domain.ErrUnknownDataset, dataset)
	}

	key := fmt.Sprintf("%s:%s:%d", dataset, term, maxResults)
	if hit, ok := c.responses.Get(key); ok {
		cached := hit.([]domain.CandidateCode)
		logger.Debug("Response cache hit for %s: %q", dataset, term)
		return append([]domain.CandidateCode(nil), cached...), nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("clinicaltables: rate limit wait: %w", err)
	}

	body, err := c.get(ctx, info, term, maxResults)
	if err != nil {
		return nil, err
	}

	total, candidates, err := parseSearchResponse(dataset, body, maxResults)
	if err != nil {
		return nil, fmt.Errorf("clinicaltables: %s: %w", dataset, err)
	}

	logger.Debug("Searched %s for %q: %d of %d matches", dataset, term, len(candidates), total)

	c.responses.Set(key, candidates, cache.DefaultExpiration)
	return append([]domain.CandidateCode(nil), candidates...), nil
}

// get performs the search request, retrying transient failures with a
// doubling backoff.
func (c *Client) get(ctx context.Context, info domain.DatasetInfo, term string, maxResults int) ([]byte, error) {
	u := c.searchURL(info, term, maxResults)

	delay := c.retryBackoff
	for attempt := 0; ; attempt++ {
		body, retryable, err := c.doRequest(ctx, u)
		if err == nil {
			return body, nil
		}
		if !retryable || attempt >= c.maxRetries {
			return nil, err
		}

		logger.Warn("Request to %s failed (attempt %d/%d): %v", info.ID, attempt+1, c.maxRetries, err)
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("clinicaltables: %w", ctx.Err())
		case <-time.After(delay):
		}
		delay *= 2
	}
}

// doRequest performs one HTTP round trip. The second return value reports
// whether the failure is worth retrying: network errors, 429 and 5xx are,
// anything else is not.
func (c *Client) doRequest(ctx context.Context, u string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, false, fmt.Errorf("clinicaltables: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("clinicaltables: send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("clinicaltables: read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, false, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, true, fmt.Errorf("clinicaltables: %w", domain.ErrRateLimited)
	case resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("clinicaltables: server error (status %d)", resp.StatusCode)
	default:
		return nil, false, fmt.Errorf("clinicaltables: unexpected status %d: %s", resp.StatusCode, string(body))
	}
}

// searchURL builds the endpoint URL for one dataset search.
func (c *Client) searchURL(info domain.DatasetInfo, term string, maxResults int) string {
	params := url.Values{}
	params.Set("terms", term)
	params.Set("maxList", fmt.Sprintf("%d", maxResults))
	if info.SearchFields != "" {
		params.Set("sf", info.SearchFields)
	}
	return fmt.Sprintf("%s/%s?%s", c.baseURL, info.Path, params.Encode())
}

// parseSearchResponse decodes the Clinical Tables wire format:
//
//	[total, [codes], null, [display rows]]
//
// Each display row is either a column array or a bare string. The
// description is the second column when present, else the first; further
// columns are kept as extra display fields.
func parseSearchResponse(dataset domain.DatasetID, body []byte, maxResults int) (int, []domain.CandidateCode, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return 0, nil, fmt.Errorf("decode response: %w", err)
	}
	if len(raw) < 2 {
		return 0, nil, nil
	}

	var total int
	if err := json.Unmarshal(raw[0], &total); err != nil {
		return 0, nil, fmt.Errorf("decode result count: %w", err)
	}

	var codes []string
	if err := json.Unmarshal(raw[1], &codes); err != nil {
		return 0, nil, fmt.Errorf("decode codes: %w", err)
	}

	var rows []json.RawMessage
	if len(raw) >= 4 {
		if err := json.Unmarshal(raw[3], &rows); err != nil {
			rows = nil
		}
	}

	candidates := make([]domain.CandidateCode, 0, len(codes))
	for i, code := range codes {
		if maxResults > 0 && len(candidates) >= maxResults {
			break
		}
		candidate := domain.CandidateCode{Dataset: dataset, Code: code}
		if i < len(rows) {
			candidate.Description, candidate.Extra = parseDisplayRow(rows[i])
		}
		candidates = append(candidates, candidate)
	}
	return total, candidates, nil
}

// parseDisplayRow extracts the description and extra columns from one
// display row.
func parseDisplayRow(row json.RawMessage) (string, []string) {
	var columns []string
	if err := json.Unmarshal(row, &columns); err == nil {
		switch {
		case len(columns) > 2:
			return columns[1], columns[2:]
		case len(columns) == 2:
			return columns[1], nil
		case len(columns) == 1:
			return columns[0], nil
		default:
			return "", nil
		}
	}

	var single string
	if err := json.Unmarshal(row, &single); err == nil {
		return single, nil
	}
	return "", nil
}
