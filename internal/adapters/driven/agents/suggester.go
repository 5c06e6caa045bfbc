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

// Ensure Suggester implements the interface.
var _ driven.TermSuggester = (*Suggester)(nil)

// suggesterTemperature allows a little creativity when rewording queries.
const suggesterTemperature = 0.3

// suggesterSystemPrompt instructs the model to propose refined search terms.
const suggesterSystemPrompt = `You are a medical search strategy expert. Your job is to analyse search results and suggest refinements to improve result quality.

When results are insufficient, suggest:
- Broader terms (synonyms, parent categories, common abbreviations)
- Alternative medical terminology
- Different clinical perspectives

When results are too numerous, suggest:
- More specific terms
- Additional qualifiers (type, severity, location)
- Focused subsets

Respond in JSON format with:
{
    "strategy": "broaden|narrow|alternative|sufficient",
    "new_search_terms": ["term1", "term2", "term3"],
    "reasoning": "explanation of the refinement",
    "confidence": 0.0-1.0
}`

const broadenPrompt = `No results found for the medical term: "%s"
Term type: %s
Already tried: %s

Suggest 3-5 BROADER medical search terms that might retrieve results.

Strategies:
- Use medical synonyms (e.g., "MI" for "myocardial infarction")
- Try common abbreviations (e.g., "HTN" for "hypertension")
- Use parent categories (e.g., "diabetes" for "type 2 diabetes")
- Try simpler lay terms (e.g., "heart attack" for "acute coronary syndrome")
- Consider related conditions or tests

IMPORTANT: Avoid terms already in the search history.
Respond ONLY with valid JSON, no additional text.`

const narrowPrompt = `Too many results (%d) found for: "%s"
Term type: %s
Already tried: %s

Suggest 3-5 MORE SPECIFIC medical search terms to narrow the results.

Strategies:
- Add qualifiers (acute vs chronic, primary vs secondary)
- Specify type or subtype (Type 1 vs Type 2 diabetes)
- Add anatomical location (left, right, upper, lower)
- Specify severity (mild, moderate, severe)
- Add temporal aspects (new onset, recurrent, chronic)

IMPORTANT: Avoid terms already in the search history.
Respond ONLY with valid JSON, no additional text.`

const alternativePrompt = `After %d attempts, still not finding optimal results for: "%s"
Term type: %s
Previously tried: %s

Suggest %d ALTERNATIVE medical search approaches that take a completely different angle.

Strategies:
- Try related symptoms or presentations
- Use procedure or treatment names instead of conditions
- Search by etiology or cause
- Use clinical presentation terms
- Try patient-friendly terminology
- Consider differential diagnoses

Be creative and think outside the box!
Respond ONLY with valid JSON, no additional text.`

// suggestionReply is the JSON shape the suggester prompt asks for.
type suggestionReply struct {
	Strategy       string   `json:"strategy"`
	NewSearchTerms []string `json:"new_search_terms"`
	Reasoning      string   `json:"reasoning"`
	Confidence     float64  `json:"confidence"`
}

// Suggester proposes refined search terms with an LLM. Errors surface to
// the caller, which degrades to rule-based term rewriting.
type Suggester struct {
	chat driven.ChatService
}

// NewSuggester creates an LLM-backed term suggester.
func NewSuggester(chat driven.ChatService) *Suggester {
	return &Suggester{chat: chat}
}

// Suggest proposes new search terms following the requested strategy.
func (s *Suggester) Suggest(ctx context.Context, req driven.RefinementRequest) (driven.RefinementSuggestion, error) {
	messages := []driven.ChatMessage{
		{Role: "system", Content: suggesterSystemPrompt},
		{Role: "user", Content: userPrompt(req)},
	}

	reply, err := s.chat.Chat(ctx, messages, driven.ChatOptions{
		MaxTokens:   500,
		Temperature: suggesterTemperature,
	})
	if err != nil {
		return driven.RefinementSuggestion{}, fmt.Errorf("suggest refinement: %w", err)
	}

	var parsed suggestionReply
	if err := json.Unmarshal([]byte(extractJSON(reply)), &parsed); err != nil {
		return driven.RefinementSuggestion{}, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}

	if parsed.Reasoning == "" {
		parsed.Reasoning = "Generated via LLM"
	}
	if parsed.Confidence == 0 {
		parsed.Confidence = 0.7
	}

	logger.Info("Refined %q via %s: %v", req.Query, req.Strategy, parsed.NewSearchTerms)

	// The planner owns strategy selection; whatever the model claims to
	// have applied is reported back as the requested strategy.
	return driven.RefinementSuggestion{
		Strategy:   req.Strategy,
		Terms:      parsed.NewSearchTerms,
		Reasoning:  parsed.Reasoning,
		Confidence: clamp01(parsed.Confidence),
	}, nil
}

// userPrompt builds the strategy-specific instruction for a refinement pass.
func userPrompt(req driven.RefinementRequest) string {
	switch req.Strategy {
	case domain.StrategyNarrow:
		return fmt.Sprintf(narrowPrompt, req.ResultCount, req.Query, req.TermType, triedList(req.TriedTerms))
	case domain.StrategyAlternative:
		return fmt.Sprintf(alternativePrompt, len(req.TriedTerms), req.Query, req.TermType, triedList(req.TriedTerms), req.MaxSuggestions)
	default:
		return fmt.Sprintf(broadenPrompt, req.Query, req.TermType, triedList(req.TriedTerms))
	}
}

// triedList renders the search history for a prompt.
func triedList(terms []string) string {
	if len(terms) == 0 {
		return "None"
	}
	return strings.Join(terms, ", ")
}
