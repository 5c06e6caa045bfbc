package file

import (
	"time"

	"github.com/medatlas-labs/medcode-cli/internal/core/domain"
)

// duration is a time.Duration that reads from TOML as a string like "90s"
// or "24h".
type duration time.Duration

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = duration(v)
	return nil
}

// fileConfig is the TOML schema of the config file.
type fileConfig struct {
	Pipeline   pipelineSection   `toml:"pipeline"`
	Quality    qualitySection    `toml:"quality"`
	Scoring    scoringSection    `toml:"scoring"`
	Refinement refinementSection `toml:"refinement"`
	Cache      cacheSection      `toml:"cache"`
	API        apiSection        `toml:"api"`
	LLM        llmSection        `toml:"llm"`
	Display    displaySection    `toml:"display"`
}

type pipelineSection struct {
	MaxIterations int      `toml:"max_iterations"`
	EarlyStopping bool     `toml:"early_stopping"`
	QueryTimeout  duration `toml:"query_timeout"`
}

type qualitySection struct {
	RelevanceWeight     float64 `toml:"relevance_weight"`
	CountWeight         float64 `toml:"count_weight"`
	AcceptanceThreshold float64 `toml:"acceptance_threshold"`
	ExcellentThreshold  float64 `toml:"excellent_threshold"`
	MinResults          int     `toml:"min_results_threshold"`
}

type scoringSection struct {
	TextSimilarityWeight float64 `toml:"text_similarity_weight"`
	DatasetMatchWeight   float64 `toml:"dataset_match_weight"`
	SpecificityWeight    float64 `toml:"specificity_weight"`
	DescriptionWeight    float64 `toml:"description_weight"`
	TermPresenceWeight   float64 `toml:"term_presence_weight"`
	HighTier             float64 `toml:"high_tier"`
	MediumTier           float64 `toml:"medium_tier"`
	LowTier              float64 `toml:"low_tier"`
}

type refinementSection struct {
	TooFewResults    int `toml:"too_few_threshold"`
	TooManyResults   int `toml:"too_many_threshold"`
	AlternativeAfter int `toml:"alternative_after"`
	MaxSuggestions   int `toml:"max_suggestions"`
}

type cacheSection struct {
	Enabled         bool     `toml:"enabled"`
	TTL             duration `toml:"ttl"`
	MaxEntries      int      `toml:"max_entries"`
	RetentionTarget int      `toml:"retention_target"`
}

type apiSection struct {
	BaseURL              string   `toml:"base_url"`
	PerCallTimeout       duration `toml:"per_call_timeout"`
	MaxRetries           int      `toml:"max_retries"`
	RetryBackoff         duration `toml:"retry_backoff"`
	RateLimitPerMinute   int      `toml:"rate_limit_per_minute"`
	ResponseCacheTTL     duration `toml:"response_cache_ttl"`
	MaxResultsPerDataset int      `toml:"max_results_per_dataset"`
}

type llmSection struct {
	Provider       string   `toml:"provider"`
	Model          string   `toml:"model"`
	APIKey         string   `toml:"api_key"`
	BaseURL        string   `toml:"base_url"`
	RequestTimeout duration `toml:"request_timeout"`
}

type displaySection struct {
	MaxCodesPerSystem  int  `toml:"max_codes_per_system"`
	MaxRecommendations int  `toml:"max_recommendations"`
	ShowScores         bool `toml:"show_scores"`
	ShowIterations     bool `toml:"show_iterations"`
	ShowSynthesis      bool `toml:"show_synthesis"`
	Color              bool `toml:"color"`
}

// fromDomain seeds the schema from a configuration tree.
func fromDomain(cfg domain.Config) fileConfig {
	return fileConfig{
		Pipeline: pipelineSection{
			MaxIterations: cfg.Pipeline.MaxIterations,
			EarlyStopping: cfg.Pipeline.EarlyStopping,
			QueryTimeout:  duration(cfg.Pipeline.QueryTimeout),
		},
		Quality: qualitySection{
			RelevanceWeight:     cfg.Quality.RelevanceWeight,
			CountWeight:         cfg.Quality.CountWeight,
			AcceptanceThreshold: cfg.Quality.AcceptanceThreshold,
			ExcellentThreshold:  cfg.Quality.ExcellentThreshold,
			MinResults:          cfg.Quality.MinResults,
		},
		Scoring: scoringSection{
			TextSimilarityWeight: cfg.Scoring.TextSimilarityWeight,
			DatasetMatchWeight:   cfg.Scoring.DatasetMatchWeight,
			SpecificityWeight:    cfg.Scoring.SpecificityWeight,
			DescriptionWeight:    cfg.Scoring.DescriptionWeight,
			TermPresenceWeight:   cfg.Scoring.TermPresenceWeight,
			HighTier:             cfg.Scoring.HighTier,
			MediumTier:           cfg.Scoring.MediumTier,
			LowTier:              cfg.Scoring.LowTier,
		},
		Refinement: refinementSection{
			TooFewResults:    cfg.Refinement.TooFewResults,
			TooManyResults:   cfg.Refinement.TooManyResults,
			AlternativeAfter: cfg.Refinement.AlternativeAfter,
			MaxSuggestions:   cfg.Refinement.MaxSuggestions,
		},
		Cache: cacheSection{
			Enabled:         cfg.Cache.Enabled,
			TTL:             duration(cfg.Cache.TTL),
			MaxEntries:      cfg.Cache.MaxEntries,
			RetentionTarget: cfg.Cache.RetentionTarget,
		},
		API: apiSection{
			BaseURL:              cfg.API.BaseURL,
			PerCallTimeout:       duration(cfg.API.PerCallTimeout),
			MaxRetries:           cfg.API.MaxRetries,
			RetryBackoff:         duration(cfg.API.RetryBackoff),
			RateLimitPerMinute:   cfg.API.RateLimitPerMinute,
			ResponseCacheTTL:     duration(cfg.API.ResponseCacheTTL),
			MaxResultsPerDataset: cfg.API.MaxResultsPerDataset,
		},
		LLM: llmSection{
			Provider:       string(cfg.LLM.Provider),
			Model:          cfg.LLM.Model,
			APIKey:         cfg.LLM.APIKey,
			BaseURL:        cfg.LLM.BaseURL,
			RequestTimeout: duration(cfg.LLM.RequestTimeout),
		},
		Display: displaySection{
			MaxCodesPerSystem:  cfg.Display.MaxCodesPerSystem,
			MaxRecommendations: cfg.Display.MaxRecommendations,
			ShowScores:         cfg.Display.ShowScores,
			ShowIterations:     cfg.Display.ShowIterations,
			ShowSynthesis:      cfg.Display.ShowSynthesis,
			Color:              cfg.Display.Color,
		},
	}
}

// toDomain converts the schema back into a configuration tree.
func (f fileConfig) toDomain() domain.Config {
	return domain.Config{
		Pipeline: domain.PipelineConfig{
			MaxIterations: f.Pipeline.MaxIterations,
			EarlyStopping: f.Pipeline.EarlyStopping,
			QueryTimeout:  time.Duration(f.Pipeline.QueryTimeout),
		},
		Quality: domain.QualityConfig{
			RelevanceWeight:     f.Quality.RelevanceWeight,
			CountWeight:         f.Quality.CountWeight,
			AcceptanceThreshold: f.Quality.AcceptanceThreshold,
			ExcellentThreshold:  f.Quality.ExcellentThreshold,
			MinResults:          f.Quality.MinResults,
		},
		Scoring: domain.ScoringConfig{
			TextSimilarityWeight: f.Scoring.TextSimilarityWeight,
			DatasetMatchWeight:   f.Scoring.DatasetMatchWeight,
			SpecificityWeight:    f.Scoring.SpecificityWeight,
			DescriptionWeight:    f.Scoring.DescriptionWeight,
			TermPresenceWeight:   f.Scoring.TermPresenceWeight,
			HighTier:             f.Scoring.HighTier,
			MediumTier:           f.Scoring.MediumTier,
			LowTier:              f.Scoring.LowTier,
		},
		Refinement: domain.RefinementConfig{
			TooFewResults:    f.Refinement.TooFewResults,
			TooManyResults:   f.Refinement.TooManyResults,
			AlternativeAfter: f.Refinement.AlternativeAfter,
			MaxSuggestions:   f.Refinement.MaxSuggestions,
		},
		Cache: domain.CacheConfig{
			Enabled:         f.Cache.Enabled,
			TTL:             time.Duration(f.Cache.TTL),
			MaxEntries:      f.Cache.MaxEntries,
			RetentionTarget: f.Cache.RetentionTarget,
		},
		API: domain.APIConfig{
			BaseURL:              f.API.BaseURL,
			PerCallTimeout:       time.Duration(f.API.PerCallTimeout),
			MaxRetries:           f.API.MaxRetries,
			RetryBackoff:         time.Duration(f.API.RetryBackoff),
			RateLimitPerMinute:   f.API.RateLimitPerMinute,
			ResponseCacheTTL:     time.Duration(f.API.ResponseCacheTTL),
			MaxResultsPerDataset: f.API.MaxResultsPerDataset,
		},
		LLM: domain.LLMConfig{
			Provider:       domain.AIProvider(f.LLM.Provider),
			Model:          f.LLM.Model,
			APIKey:         f.LLM.APIKey,
			BaseURL:        f.LLM.BaseURL,
			RequestTimeout: time.Duration(f.LLM.RequestTimeout),
		},
		Display: domain.DisplayConfig{
			MaxCodesPerSystem:  f.Display.MaxCodesPerSystem,
			MaxRecommendations: f.Display.MaxRecommendations,
			ShowScores:         f.Display.ShowScores,
			ShowIterations:     f.Display.ShowIterations,
			ShowSynthesis:      f.Display.ShowSynthesis,
			Color:              f.Display.Color,
		},
	}
}
