package agents

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medatlas-labs/medcode-cli/internal/core/domain"
	"github.com/medatlas-labs/medcode-cli/internal/core/ports/driven"
)

// --- Test helpers ---

func scored(dataset domain.DatasetID, code, desc string, relevance float64, tier domain.RelevanceTier) domain.ScoredResult {
	return domain.ScoredResult{
		CandidateCode: domain.CandidateCode{Dataset: dataset, Code: code, Description: desc},
		Relevance:     relevance,
		Tier:          tier,
	}
}

func synthesisRequest() driven.SynthesisRequest {
	return driven.SynthesisRequest{
		Query:    "diabetes",
		TermType: domain.TermTypeDiagnosis,
		Results: map[domain.DatasetID][]domain.ScoredResult{
			domain.DatasetICD10CM: {
				scored(domain.DatasetICD10CM, "E11.9", "Type 2 diabetes mellitus without complications", 0.72, domain.TierHigh),
			},
			domain.DatasetConditions: {
				scored(domain.DatasetConditions, "240", "Diabetes", 0.90, domain.TierHigh),
			},
		},
		Quality: domain.QualityMetrics{
			Score:            0.8,
			MeanRelevance:    0.81,
			HighQualityCount: 2,
			ResultCount:      2,
			IterationCount:   1,
		},
		MaxRecommendations: 3,
	}
}

// --- Tests ---

func TestSynthesiser_Synthesise_ParsesReply(t *testing.T) {
	chat := &mockChat{reply: "```json\n" + `{
  "executive_summary": "Use [[ICD10CM]] E11.9 as the primary unspecified code.",
  "key_patterns": ["Most results are type 2 variants"],
  "top_recommendations": [
    {"code": "E11.9", "system": "[[ICD10CM]]", "use_case": "Unspecified type 2 diabetes", "confidence": "high"}
  ],
  "clinical_context": "Confirm complication status before coding.",
  "search_quality": "excellent",
  "search_quality_explanation": "High relevance across official systems",
  "next_steps": ["Review E11 subcategories"]
}` + "\n```"}
	s := NewSynthesiser(chat)

	synthesis, err := s.Synthesise(context.Background(), synthesisRequest())

	require.NoError(t, err)
	assert.Equal(t, "Use [ICD10CM] E11.9 as the primary unspecified code.", synthesis.ExecutiveSummary)
	assert.Equal(t, []string{"Most results are type 2 variants"}, synthesis.KeyPatterns)
	require.Len(t, synthesis.Recommendations, 1)
	assert.Equal(t, "E11.9", synthesis.Recommendations[0].Code)
	assert.Equal(t, "ICD10CM", synthesis.Recommendations[0].System)
	assert.Equal(t, "high", synthesis.Recommendations[0].Confidence)
	assert.Equal(t, "excellent", synthesis.SearchQuality)
	assert.Equal(t, []string{"Review E11 subcategories"}, synthesis.NextSteps)
	assert.False(t, synthesis.Fallback)
}

func TestSynthesiser_Synthesise_PromptContents(t *testing.T) {
	chat := &mockChat{reply: `{"search_quality": "good"}`}
	s := NewSynthesiser(chat)

	_, err := s.Synthesise(context.Background(), synthesisRequest())

	require.NoError(t, err)
	require.Len(t, chat.calls, 1)
	assert.Contains(t, chat.calls[0].messages[0].Content, "SINGLE brackets")
	assert.InDelta(t, 0.2, chat.calls[0].opts.Temperature, 1e-9)

	prompt := chat.calls[0].messages[1].Content
	assert.Contains(t, prompt, `**User Query:** "diabetes"`)
	assert.Contains(t, prompt, "**Term Type:** diagnosis")
	assert.Contains(t, prompt, "**Total Codes Found:** 2")
	assert.Contains(t, prompt, "**High Quality Results:** 2")

	// Official systems lead the prompt even when a supplementary result
	// scored higher.
	assert.Contains(t, prompt, "1. [ICD10CM] E11.9: Type 2 diabetes mellitus without complications")
	assert.Contains(t, prompt, "Relevance: 0.72 (high)")
	assert.Contains(t, prompt, "2. [CONDITIONS] 240: Diabetes")
}

func TestSynthesiser_Synthesise_MissingFieldsDefaulted(t *testing.T) {
	chat := &mockChat{reply: `{"top_recommendations": []}`}
	s := NewSynthesiser(chat)

	synthesis, err := s.Synthesise(context.Background(), synthesisRequest())

	require.NoError(t, err)
	assert.Equal(t, "Analysis complete. Results retrieved from medical coding databases.", synthesis.ExecutiveSummary)
	assert.Equal(t, "Review results with clinical context in mind.", synthesis.ClinicalContext)
	assert.Equal(t, "unknown", synthesis.SearchQuality)
}

func TestSynthesiser_Synthesise_BudgetWidensToHighQuality(t *testing.T) {
	chat := &mockChat{reply: `{"search_quality": "good"}`}
	s := NewSynthesiser(chat)

	req := synthesisRequest()
	var results []domain.ScoredResult
	for i := 0; i < 12; i++ {
		results = append(results, scored(domain.DatasetICD10CM, fmt.Sprintf("E11.%d", i), "Type 2 diabetes", 0.9-float64(i)*0.01, domain.TierHigh))
	}
	req.Results = map[domain.DatasetID][]domain.ScoredResult{domain.DatasetICD10CM: results}
	req.Quality.HighQualityCount = 7

	_, err := s.Synthesise(context.Background(), req)

	require.NoError(t, err)
	prompt := chat.calls[0].messages[1].Content
	assert.Equal(t, 7, strings.Count(prompt, "   Relevance:"))
}

func TestSynthesiser_Synthesise_BudgetCeiling(t *testing.T) {
	chat := &mockChat{reply: `{"search_quality": "good"}`}
	s := NewSynthesiser(chat)

	req := synthesisRequest()
	var results []domain.ScoredResult
	for i := 0; i < 12; i++ {
		results = append(results, scored(domain.DatasetICD10CM, fmt.Sprintf("E11.%d", i), "Type 2 diabetes", 0.9-float64(i)*0.01, domain.TierHigh))
	}
	req.Results = map[domain.DatasetID][]domain.ScoredResult{domain.DatasetICD10CM: results}
	req.Quality.HighQualityCount = 23

	_, err := s.Synthesise(context.Background(), req)

	require.NoError(t, err)
	prompt := chat.calls[0].messages[1].Content
	assert.Equal(t, 10, strings.Count(prompt, "   Relevance:"))
}

func TestSynthesiser_Synthesise_NoResults(t *testing.T) {
	chat := &mockChat{reply: `{"search_quality": "poor"}`}
	s := NewSynthesiser(chat)

	req := synthesisRequest()
	req.Results = nil
	req.Quality = domain.QualityMetrics{}

	_, err := s.Synthesise(context.Background(), req)

	require.NoError(t, err)
	assert.Contains(t, chat.calls[0].messages[1].Content, "No results to display")
}

func TestSynthesiser_Synthesise_ChatError(t *testing.T) {
	chat := &mockChat{err: errors.New("model overloaded")}
	s := NewSynthesiser(chat)

	_, err := s.Synthesise(context.Background(), synthesisRequest())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "synthesise results")
}

func TestSynthesiser_Synthesise_MalformedReply(t *testing.T) {
	chat := &mockChat{reply: "here is my analysis of the results"}
	s := NewSynthesiser(chat)

	_, err := s.Synthesise(context.Background(), synthesisRequest())

	assert.ErrorIs(t, err, domain.ErrMalformedResponse)
}
