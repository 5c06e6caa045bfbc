package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// weightTolerance is how far a weight group may drift from summing to 1.0
// before the configuration is rejected.
const weightTolerance = 0.01

// PipelineConfig controls the refinement loop.
type PipelineConfig struct {
	// MaxIterations caps the number of loop passes per query.
	MaxIterations int

	// EarlyStopping stops the loop as soon as quality is excellent
	// instead of waiting for the acceptance check.
	EarlyStopping bool

	// QueryTimeout bounds one whole lookup. When it expires, in-flight
	// external calls are abandoned and the accumulated results are
	// returned best-effort.
	QueryTimeout time.Duration
}

// QualityConfig controls the quality evaluation.
type QualityConfig struct {
	// RelevanceWeight scales the mean-relevance component.
	RelevanceWeight float64

	// CountWeight scales the result-count sufficiency component.
	CountWeight float64

	// AcceptanceThreshold is the quality at which results are good
	// enough to stop refining.
	AcceptanceThreshold float64

	// ExcellentThreshold is the quality at which the loop stops early.
	ExcellentThreshold float64

	// MinResults is the minimum result count an answer needs to be
	// worth caching. Responses below it are recomputed on the next
	// identical query.
	MinResults int
}

// ScoringConfig controls the relevance scorer. The five factor weights must
// sum to 1.0 and the tier thresholds must be monotonic.
type ScoringConfig struct {
	// TextSimilarityWeight scales query/description similarity.
	TextSimilarityWeight float64

	// DatasetMatchWeight scales dataset appropriateness for the
	// classified term type.
	DatasetMatchWeight float64

	// SpecificityWeight scales code granularity within its family.
	SpecificityWeight float64

	// DescriptionWeight scales description quality.
	DescriptionWeight float64

	// TermPresenceWeight scales literal query-term presence in the
	// description.
	TermPresenceWeight float64

	// HighTier is the minimum relevance for the high tier.
	HighTier float64

	// MediumTier is the minimum relevance for the medium tier.
	MediumTier float64

	// LowTier is the minimum relevance for the low tier. Anything below
	// is very low.
	LowTier float64
}

// TierFor buckets a relevance score using the configured thresholds.
func (c ScoringConfig) TierFor(score float64) RelevanceTier {
	return TierForScore(score, c.HighTier, c.MediumTier, c.LowTier)
}

// RefinementConfig controls the refinement planner.
type RefinementConfig struct {
	// TooFewResults triggers the broaden strategy below this count.
	TooFewResults int

	// TooManyResults triggers the narrow strategy above this count when
	// mean relevance is low.
	TooManyResults int

	// AlternativeAfter switches to the alternative strategy after this
	// many iterations regardless of counts.
	AlternativeAfter int

	// MaxSuggestions caps the number of new terms per refinement.
	MaxSuggestions int
}

// CacheConfig controls the query result cache.
type CacheConfig struct {
	// Enabled switches the result cache on. Pagination works either way.
	Enabled bool

	// TTL is how long a cached result stays valid. Expiry is lazy:
	// checked on read.
	TTL time.Duration

	// MaxEntries is the cache capacity. Exceeding it after an insert
	// triggers a bulk eviction of the oldest entries.
	MaxEntries int

	// RetentionTarget is the size eviction trims back to. Trimming in
	// bulk amortises the eviction cost over many inserts.
	RetentionTarget int
}

// APIConfig controls the Clinical Tables client.
type APIConfig struct {
	// BaseURL is the API root.
	BaseURL string

	// PerCallTimeout bounds one dataset search. A dataset that exceeds
	// it is marked failed for the iteration without stalling the rest.
	PerCallTimeout time.Duration

	// MaxRetries is how many times a failed request is retried.
	MaxRetries int

	// RetryBackoff is the initial delay between retries; it doubles on
	// each attempt.
	RetryBackoff time.Duration

	// RateLimitPerMinute caps outgoing requests.
	RateLimitPerMinute int

	// ResponseCacheTTL is how long per-dataset search responses are
	// reused. Medical codes are stable, so this can be generous.
	ResponseCacheTTL time.Duration

	// MaxResultsPerDataset is the maxList parameter sent per search.
	MaxResultsPerDataset int
}

// LLMConfig controls the optional LLM collaborators.
type LLMConfig struct {
	// Provider selects the LLM backend. AIProviderNone disables LLM use
	// and falls back to rule-based classification and synthesis.
	Provider AIProvider

	// Model is the model name. Empty picks the provider default.
	Model string

	// APIKey authenticates cloud providers.
	APIKey string

	// BaseURL is the API endpoint for local providers.
	BaseURL string

	// RequestTimeout bounds one LLM call.
	RequestTimeout time.Duration
}

// IsConfigured returns true if an LLM provider is usable.
func (c LLMConfig) IsConfigured() bool {
	if c.Provider == AIProviderNone || !c.Provider.IsValid() {
		return false
	}
	if c.Provider.RequiresAPIKey() && c.APIKey == "" {
		return false
	}
	return true
}

// ResolvedModel returns the configured model or the provider default.
func (c LLMConfig) ResolvedModel() string {
	if c.Model != "" {
		return c.Model
	}
	return DefaultLLMModels()[c.Provider]
}

// DisplayConfig controls presentation.
type DisplayConfig struct {
	// MaxCodesPerSystem is the per-dataset page size.
	MaxCodesPerSystem int

	// MaxRecommendations is the minimum number of synthesis
	// recommendations to request.
	MaxRecommendations int

	// ShowScores includes relevance scores in output.
	ShowScores bool

	// ShowIterations includes the iteration history in output.
	ShowIterations bool

	// ShowSynthesis includes the synthesis block in output.
	ShowSynthesis bool

	// Color enables styled terminal output.
	Color bool
}

// Config is the full configuration tree.
type Config struct {
	// Pipeline holds refinement loop settings.
	Pipeline PipelineConfig

	// Quality holds quality evaluation settings.
	Quality QualityConfig

	// Scoring holds relevance scorer settings.
	Scoring ScoringConfig

	// Refinement holds refinement planner settings.
	Refinement RefinementConfig

	// Cache holds result cache settings.
	Cache CacheConfig

	// API holds Clinical Tables client settings.
	API APIConfig

	// LLM holds LLM provider settings.
	LLM LLMConfig

	// Display holds presentation settings.
	Display DisplayConfig
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		Pipeline: PipelineConfig{
			MaxIterations: 3,
			EarlyStopping: true,
			QueryTimeout:  2 * time.Minute,
		},
		Quality: QualityConfig{
			RelevanceWeight:     0.7,
			CountWeight:         0.3,
			AcceptanceThreshold: 0.6,
			ExcellentThreshold:  0.8,
			MinResults:          3,
		},
		Scoring: ScoringConfig{
			TextSimilarityWeight: 0.30,
			DatasetMatchWeight:   0.20,
			SpecificityWeight:    0.15,
			DescriptionWeight:    0.10,
			TermPresenceWeight:   0.25,
			HighTier:             0.8,
			MediumTier:           0.6,
			LowTier:              0.4,
		},
		Refinement: RefinementConfig{
			TooFewResults:    3,
			TooManyResults:   50,
			AlternativeAfter: 2,
			MaxSuggestions:   5,
		},
		Cache: CacheConfig{
			Enabled:         true,
			TTL:             time.Hour,
			MaxEntries:      100,
			RetentionTarget: 50,
		},
		API: APIConfig{
			BaseURL:              "https://clinicaltables.nlm.nih.gov/api",
			PerCallTimeout:       10 * time.Second,
			MaxRetries:           3,
			RetryBackoff:         time.Second,
			RateLimitPerMinute:   100,
			ResponseCacheTTL:     24 * time.Hour,
			MaxResultsPerDataset: 10,
		},
		LLM: LLMConfig{
			Provider:       AIProviderNone,
			RequestTimeout: 30 * time.Second,
		},
		Display: DisplayConfig{
			MaxCodesPerSystem:  5,
			MaxRecommendations: 3,
			ShowScores:         true,
			ShowIterations:     true,
			ShowSynthesis:      true,
			Color:              true,
		},
	}
}

// Validate checks every configuration invariant. Violations are fatal at
// startup: the pipeline must never run with weights that do not sum to one
// or thresholds that are not monotonic.
func (c Config) Validate() error {
	var issues []string

	scoringSum := c.Scoring.TextSimilarityWeight +
		c.Scoring.DatasetMatchWeight +
		c.Scoring.SpecificityWeight +
		c.Scoring.DescriptionWeight +
		c.Scoring.TermPresenceWeight
	if math.Abs(scoringSum-1.0) > weightTolerance {
		issues = append(issues, fmt.Sprintf("scoring weights sum to %.2f, want 1.0", scoringSum))
	}

	qualitySum := c.Quality.RelevanceWeight + c.Quality.CountWeight
	if math.Abs(qualitySum-1.0) > weightTolerance {
		issues = append(issues, fmt.Sprintf("quality weights sum to %.2f, want 1.0", qualitySum))
	}

	for name, v := range map[string]float64{
		"quality.acceptance_threshold": c.Quality.AcceptanceThreshold,
		"quality.excellent_threshold":  c.Quality.ExcellentThreshold,
		"scoring.high_tier":            c.Scoring.HighTier,
		"scoring.medium_tier":          c.Scoring.MediumTier,
		"scoring.low_tier":             c.Scoring.LowTier,
	} {
		if v < 0 || v > 1 {
			issues = append(issues, fmt.Sprintf("%s must be between 0 and 1, got %.2f", name, v))
		}
	}

	if c.Scoring.HighTier < c.Scoring.MediumTier || c.Scoring.MediumTier < c.Scoring.LowTier {
		issues = append(issues, "tier thresholds must satisfy high >= medium >= low")
	}

	if c.Pipeline.MaxIterations < 1 {
		issues = append(issues, "pipeline.max_iterations must be at least 1")
	}
	if c.Pipeline.QueryTimeout <= 0 {
		issues = append(issues, "pipeline.query_timeout must be positive")
	}
	if c.Quality.MinResults < 1 {
		issues = append(issues, "quality.min_results must be at least 1")
	}

	if c.Refinement.TooManyResults <= c.Refinement.TooFewResults {
		issues = append(issues, "refinement.too_many_results must exceed too_few_results")
	}
	if c.Refinement.MaxSuggestions < 1 {
		issues = append(issues, "refinement.max_suggestions must be at least 1")
	}

	if c.Cache.TTL <= 0 {
		issues = append(issues, "cache.ttl must be positive")
	}
	if c.Cache.RetentionTarget < 1 {
		issues = append(issues, "cache.retention_target must be at least 1")
	}
	if c.Cache.MaxEntries < c.Cache.RetentionTarget {
		issues = append(issues, "cache.max_entries must be at least the retention target")
	}

	if c.API.BaseURL == "" {
		issues = append(issues, "api.base_url must be set")
	}
	if c.API.PerCallTimeout <= 0 {
		issues = append(issues, "api.per_call_timeout must be positive")
	}
	if c.API.RateLimitPerMinute < 1 {
		issues = append(issues, "api.rate_limit_per_minute must be at least 1")
	}
	if c.API.MaxResultsPerDataset < 1 {
		issues = append(issues, "api.max_results_per_dataset must be at least 1")
	}

	if c.LLM.Provider != AIProviderNone && !c.LLM.Provider.IsValid() {
		issues = append(issues, fmt.Sprintf("llm.provider %q is not recognised", c.LLM.Provider))
	}

	if c.Display.MaxCodesPerSystem < 1 {
		issues = append(issues, "display.max_codes_per_system must be at least 1")
	}

	if len(issues) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(issues, "; "))
	}
	return nil
}
