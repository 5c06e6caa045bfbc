package services

import (
	"math"

	"github.com/medatlas-labs/medcode-cli/internal/core/domain"
	"github.com/medatlas-labs/medcode-cli/internal/logger"
)

// QualityEvaluator measures how good a pass's results are and decides
// whether the refinement loop continues. Quality combines mean relevance
// with result-count sufficiency; the decision applies a fixed policy over
// the combined score and the iteration budget.
type QualityEvaluator struct {
	pipeline domain.PipelineConfig
	quality  domain.QualityConfig
}

// sufficiencyTarget is the result count at which the count component of the
// quality score saturates at 1.0.
const sufficiencyTarget = 10.0

// NewQualityEvaluator creates a new quality evaluator.
func NewQualityEvaluator(pipeline domain.PipelineConfig, quality domain.QualityConfig) *QualityEvaluator {
	return &QualityEvaluator{pipeline: pipeline, quality: quality}
}

// Measure computes quality metrics over scored results. An empty result
// set measures zero across the board. IterationCount and LowConfidence are
// filled in by the caller, which owns the loop state.
func (e *QualityEvaluator) Measure(results []domain.ScoredResult) domain.QualityMetrics {
	m := domain.QualityMetrics{ResultCount: len(results)}
	if len(results) == 0 {
		return m
	}

	sum := 0.0
	m.MinRelevance = results[0].Relevance
	m.MaxRelevance = results[0].Relevance
	for _, r := range results {
		sum += r.Relevance
		if r.Relevance > m.MaxRelevance {
			m.MaxRelevance = r.Relevance
		}
		if r.Relevance < m.MinRelevance {
			m.MinRelevance = r.Relevance
		}
	}
	m.MeanRelevance = sum / float64(len(results))
	m.HighQualityCount = countHighQuality(results)

	sufficiency := math.Min(1.0, float64(len(results))/sufficiencyTarget)
	m.Score = e.quality.RelevanceWeight*m.MeanRelevance + e.quality.CountWeight*sufficiency
	return m
}

// Decide applies the continuation policy for the pass at iterationIndex
// (0-based). Order matters: an excellent score stops early when early
// stopping is on, an acceptable score stops normally, an exhausted budget
// completes best-effort, anything else refines.
func (e *QualityEvaluator) Decide(quality float64, iterationIndex int) domain.Decision {
	switch {
	case e.pipeline.EarlyStopping && quality >= e.quality.ExcellentThreshold:
		logger.Debug("Excellent quality (%.2f), early stopping", quality)
		return domain.DecisionSufficient
	case quality >= e.quality.AcceptanceThreshold:
		logger.Debug("Quality threshold met (%.2f), proceeding to synthesis", quality)
		return domain.DecisionSufficient
	case iterationIndex >= e.pipeline.MaxIterations-1:
		logger.Debug("Max iterations reached, proceeding to synthesis")
		return domain.DecisionComplete
	default:
		logger.Debug("Quality insufficient (%.2f), will refine search", quality)
		return domain.DecisionRefine
	}
}
