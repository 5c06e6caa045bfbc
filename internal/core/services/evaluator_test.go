package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/medatlas-labs/medcode-cli/internal/core/domain"
)

// --- Test helpers ---

func scoredWithRelevance(relevances ...float64) []domain.ScoredResult {
	results := make([]domain.ScoredResult, len(relevances))
	for i, r := range relevances {
		results[i] = domain.ScoredResult{Relevance: r}
	}
	return results
}

func defaultEvaluator() *QualityEvaluator {
	cfg := domain.DefaultConfig()
	return NewQualityEvaluator(cfg.Pipeline, cfg.Quality)
}

// --- Tests ---

func TestQualityEvaluator_Measure_Empty(t *testing.T) {
	m := defaultEvaluator().Measure(nil)

	assert.Zero(t, m.Score)
	assert.Zero(t, m.MeanRelevance)
	assert.Zero(t, m.MaxRelevance)
	assert.Zero(t, m.MinRelevance)
	assert.Zero(t, m.ResultCount)
	assert.Zero(t, m.HighQualityCount)
}

func TestQualityEvaluator_Measure(t *testing.T) {
	m := defaultEvaluator().Measure(scoredWithRelevance(0.8, 0.6, 0.4))

	assert.Equal(t, 3, m.ResultCount)
	assert.InDelta(t, 0.6, m.MeanRelevance, 1e-9)
	assert.InDelta(t, 0.8, m.MaxRelevance, 1e-9)
	assert.InDelta(t, 0.4, m.MinRelevance, 1e-9)
	assert.Equal(t, 1, m.HighQualityCount)

	// Three of the ten-result sufficiency target:
	// 0.7*0.6 + 0.3*(3/10)
	assert.InDelta(t, 0.51, m.Score, 1e-9)
}

func TestQualityEvaluator_Measure_SparseResults(t *testing.T) {
	m := defaultEvaluator().Measure(scoredWithRelevance(0.9))

	// A single result earns little count credit: 0.7*0.9 + 0.3*(1/10)
	assert.InDelta(t, 0.66, m.Score, 1e-9)
	assert.Equal(t, 1, m.ResultCount)
}

func TestQualityEvaluator_Measure_CountSaturates(t *testing.T) {
	// Twenty results earn no more count credit than ten.
	relevances := make([]float64, 20)
	for i := range relevances {
		relevances[i] = 0.5
	}
	m := defaultEvaluator().Measure(scoredWithRelevance(relevances...))

	assert.InDelta(t, 0.7*0.5+0.3, m.Score, 1e-9)
}

func TestQualityEvaluator_Decide(t *testing.T) {
	tests := []struct {
		name      string
		quality   float64
		iterIndex int
		want      domain.Decision
	}{
		{"excellent stops early", 0.85, 0, domain.DecisionSufficient},
		{"acceptable stops", 0.65, 0, domain.DecisionSufficient},
		{"exactly at acceptance", 0.6, 0, domain.DecisionSufficient},
		{"poor refines", 0.3, 0, domain.DecisionRefine},
		{"poor refines mid-budget", 0.3, 1, domain.DecisionRefine},
		{"budget exhausted completes", 0.3, 2, domain.DecisionComplete},
		{"past budget completes", 0.0, 5, domain.DecisionComplete},
	}

	e := defaultEvaluator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Decide(tt.quality, tt.iterIndex))
		})
	}
}

func TestQualityEvaluator_Decide_EarlyStoppingDisabled(t *testing.T) {
	cfg := domain.DefaultConfig()
	cfg.Pipeline.EarlyStopping = false
	e := NewQualityEvaluator(cfg.Pipeline, cfg.Quality)

	// An excellent score still stops, through the acceptance rule.
	assert.Equal(t, domain.DecisionSufficient, e.Decide(0.9, 0))
}

func TestQualityEvaluator_Decide_SingleIterationBudget(t *testing.T) {
	cfg := domain.DefaultConfig()
	cfg.Pipeline.MaxIterations = 1
	e := NewQualityEvaluator(cfg.Pipeline, cfg.Quality)

	// With a budget of one, the first pass can never refine.
	assert.Equal(t, domain.DecisionComplete, e.Decide(0.1, 0))
	assert.Equal(t, domain.DecisionSufficient, e.Decide(0.9, 0))
}
