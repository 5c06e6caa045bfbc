package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/medatlas-labs/medcode-cli/internal/core/domain"
	"github.com/medatlas-labs/medcode-cli/internal/core/ports/driven"
	"github.com/medatlas-labs/medcode-cli/internal/logger"
)

// Ensure Synthesiser implements the interface.
var _ driven.Synthesiser = (*Synthesiser)(nil)

// synthesiserTemperature keeps summaries factual with minimal drift.
const synthesiserTemperature = 0.2

// recommendationCeiling caps how many results are offered for
// recommendation regardless of how many scored highly.
const recommendationCeiling = 10

// synthesiserSystemPrompt instructs the model to turn scored codes into
// clinical insights. The bracket rules matter: downstream rendering relies
// on single-bracket dataset tags.
const synthesiserSystemPrompt = `You are a medical informatics expert who synthesises clinical coding results into actionable insights.

Your job is to analyse medical code search results and provide:
1. Executive summary (2-3 sentences)
2. Key patterns and findings
3. Most appropriate codes for common scenarios
4. Clinical context, warnings, or considerations
5. Recommended next steps

CRITICAL FORMATTING RULES:
1. Use SINGLE brackets [DATASETNAME] for all code references - NEVER use double brackets [[]]
2. Use the EXACT dataset name as shown in the input (case-sensitive)
3. For ICD-10-CM codes, prefer ".9" unspecified codes as primary recommendations (e.g., J44.9 for COPD, E11.9 for diabetes)
4. Prioritise official coding systems (ICD-10-CM, LOINC, RxTerms) over general databases (CONDITIONS)

Dataset Reference Guide:
- [ICD10CM] = Official ICD-10-CM diagnosis codes (e.g., J44.9, E11.9, R27.0)
- [ICD11] = ICD-11 codes
- [ICD9CM_DX] = ICD-9-CM diagnosis codes
- [LOINC] = Laboratory test codes (e.g., 2345-7)
- [RXTERMS] = Medication codes
- [DRUGS] = Prescribable drug ingredients
- [CONDITIONS] = General medical conditions database (supplementary, not for official coding)
- [HPO] = Human Phenotype Ontology for genetic/phenotypic features (e.g., HP:0001251)
- [GENES], [SNPS], [CLINVAR] = Genomic datasets

Example correct formatting:
- [ICD10CM] J44.9
- [LOINC] 2345-7
- [HPO] HP:0001251
X [[ICD10CM]] J44.9  (WRONG - double brackets)
X [ICD-10] J44.9     (WRONG - use ICD10CM)
X [CONDITIONS] 364   (Avoid in top recommendations - use ICD codes instead)

Be concise, accurate, and clinically relevant.
Respond in JSON format with structured insights.`

const synthesisPrompt = `Analyse these medical coding search results and provide clinical insights.

**User Query:** "%s"
**Term Type:** %s
**Total Codes Found:** %d
**Average Relevance:** %.2f
**High Quality Results:** %d
**Iterations Performed:** %d

**Top Results:**
%s

Provide a comprehensive analysis in JSON format with:

{
    "executive_summary": "2-3 sentence overview of findings",
    "key_patterns": [
        "Notable pattern 1",
        "Notable pattern 2"
    ],
    "top_recommendations": [
        {
            "code": "just the code value (e.g., 'J44.9' or 'metFORMIN (Oral Pill)') - do NOT include the dataset name",
            "system": "just the dataset name WITHOUT brackets (e.g., 'ICD10CM' or 'RXTERMS')",
            "use_case": "when to use this code",
            "confidence": "high|medium|low"
        }
    ],
    "clinical_context": "Important clinical considerations, warnings, or context",
    "search_quality": "excellent|good|fair|poor",
    "search_quality_explanation": "why this quality rating",
    "next_steps": [
        "Suggested action 1",
        "Suggested action 2"
    ]
}

IMPORTANT: Include ALL codes with relevance score >= 0.7 in top_recommendations (there are %d high-quality results).
Be specific, accurate, and clinically useful.`

// Synthesiser summarises finished result sets with an LLM. Errors surface
// to the caller, which degrades to a statistical summary.
type Synthesiser struct {
	chat driven.ChatService
}

// NewSynthesiser creates an LLM-backed result synthesiser.
func NewSynthesiser(chat driven.ChatService) *Synthesiser {
	return &Synthesiser{chat: chat}
}

// Synthesise summarises a completed result set.
func (s *Synthesiser) Synthesise(ctx context.Context, req driven.SynthesisRequest) (domain.Synthesis, error) {
	logger.Info("Synthesising findings for %q", req.Query)

	messages := []driven.ChatMessage{
		{Role: "system", Content: synthesiserSystemPrompt},
		{Role: "user", Content: synthesisUserPrompt(req)},
	}

	reply, err := s.chat.Chat(ctx, messages, driven.ChatOptions{
		MaxTokens:   1500,
		Temperature: synthesiserTemperature,
	})
	if err != nil {
		return domain.Synthesis{}, fmt.Errorf("synthesise results: %w", err)
	}

	synthesis, err := parseSynthesis(reply)
	if err != nil {
		return domain.Synthesis{}, err
	}

	logger.Info("Synthesis complete")
	return synthesis, nil
}

// synthesisUserPrompt builds the analysis instruction for a result set. The
// recommendation budget is at least the configured display count, widened
// to cover every high-quality result up to the ceiling.
func synthesisUserPrompt(req driven.SynthesisRequest) string {
	limit := req.MaxRecommendations
	if n := req.Quality.HighQualityCount; n > limit {
		limit = n
	}
	if limit > recommendationCeiling {
		limit = recommendationCeiling
	}

	var flat []domain.ScoredResult
	for _, results := range req.Results {
		flat = append(flat, results...)
	}
	top := domain.TopRecommendations(flat, limit)

	return fmt.Sprintf(synthesisPrompt,
		req.Query,
		req.TermType,
		req.Quality.ResultCount,
		req.Quality.MeanRelevance,
		req.Quality.HighQualityCount,
		req.Quality.IterationCount,
		formatResults(top),
		req.Quality.HighQualityCount,
	)
}

// formatResults renders scored results as numbered prompt lines.
func formatResults(results []domain.ScoredResult) string {
	if len(results) == 0 {
		return "No results to display"
	}
	lines := make([]string, 0, len(results))
	for i, r := range results {
		lines = append(lines, fmt.Sprintf("%d. [%s] %s: %s\n   Relevance: %.2f (%s)",
			i+1, strings.ToUpper(string(r.Dataset)), r.Code, r.Description, r.Relevance, r.Tier))
	}
	return strings.Join(lines, "\n\n")
}

// parseSynthesis decodes a synthesis reply, repairing the bracket mistakes
// models make despite the prompt rules.
func parseSynthesis(reply string) (domain.Synthesis, error) {
	content := extractJSON(reply)
	content = strings.ReplaceAll(content, "[[", "[")
	content = strings.ReplaceAll(content, "]]", "]")

	var synthesis domain.Synthesis
	if err := json.Unmarshal([]byte(content), &synthesis); err != nil {
		return domain.Synthesis{}, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}

	if synthesis.ExecutiveSummary == "" {
		synthesis.ExecutiveSummary = "Analysis complete. Results retrieved from medical coding databases."
	}
	if synthesis.ClinicalContext == "" {
		synthesis.ClinicalContext = "Review results with clinical context in mind."
	}
	if synthesis.SearchQuality == "" {
		synthesis.SearchQuality = "unknown"
	}

	cleaner := strings.NewReplacer("[", "", "]", "")
	for i, rec := range synthesis.Recommendations {
		synthesis.Recommendations[i].System = strings.TrimSpace(cleaner.Replace(rec.System))
	}

	return synthesis, nil
}
