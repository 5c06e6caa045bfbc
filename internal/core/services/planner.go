package services

import (
	"context"
	"strings"

	"github.com/medatlas-labs/medcode-cli/internal/core/domain"
	"github.com/medatlas-labs/medcode-cli/internal/core/ports/driven"
	"github.com/medatlas-labs/medcode-cli/internal/logger"
)

// fallbackTermCap limits how many terms a rule-based fallback proposes.
const fallbackTermCap = 3

// broadenQualifiers are removed from a query to widen its scope.
var broadenQualifiers = []string{"acute", "chronic", "primary", "secondary", "severe", "mild"}

// narrowQualifiers are prefixed to a query to tighten its scope.
var narrowQualifiers = []string{"acute", "chronic", "primary"}

// RefinementPlan is the planner's proposal for the next loop pass. An empty
// Terms slice means no novel refinement remains and the loop should stop.
type RefinementPlan struct {
	// Strategy is the refinement direction applied.
	Strategy domain.RefinementStrategy

	// Terms are the new search terms, best first. Never contains a term
	// already tried in this lookup.
	Terms []string

	// Reasoning is a short explanation of the proposal.
	Reasoning string

	// Confidence is the planner's confidence in [0, 1].
	Confidence float64
}

// RefinementPlanner decides how to adjust an unsatisfactory search pass.
// Strategy selection is rule-based; term generation prefers the optional
// suggester and degrades to rule-based rewriting when it is absent or
// fails. Planning never returns an error: a pass that cannot be refined
// yields an empty plan instead.
type RefinementPlanner struct {
	cfg        domain.RefinementConfig
	acceptance float64
	suggester  driven.TermSuggester
}

// NewRefinementPlanner creates a new refinement planner.
// The suggester is optional (can be nil).
func NewRefinementPlanner(cfg domain.RefinementConfig, quality domain.QualityConfig, suggester driven.TermSuggester) *RefinementPlanner {
	return &RefinementPlanner{
		cfg:        cfg,
		acceptance: quality.AcceptanceThreshold,
		suggester:  suggester,
	}
}

// ChooseStrategy picks the refinement direction for a finished pass.
// Too few results broaden, too many poorly-matching results narrow, and a
// pass that is neither after enough iterations switches angle entirely.
// The iteration argument is the 1-based number of the pass that finished.
func (p *RefinementPlanner) ChooseStrategy(resultCount int, meanRelevance float64, iteration int) domain.RefinementStrategy {
	switch {
	case resultCount < p.cfg.TooFewResults:
		return domain.StrategyBroaden
	case resultCount > p.cfg.TooManyResults && meanRelevance < p.acceptance:
		return domain.StrategyNarrow
	case iteration >= p.cfg.AlternativeAfter:
		return domain.StrategyAlternative
	default:
		return domain.StrategySufficient
	}
}

// Plan proposes the next pass for a query whose results were not good
// enough. The tried slice holds every term searched so far; proposed terms
// that duplicate it are dropped, so an exhausted query planning no novel
// terms signals the caller to stop.
func (p *RefinementPlanner) Plan(ctx context.Context, query string, termType domain.TermType, tried []string, metrics domain.QualityMetrics, iteration int) RefinementPlan {
	strategy := p.ChooseStrategy(metrics.ResultCount, metrics.MeanRelevance, iteration)
	logger.Debug("Refinement strategy %q: %d results, mean relevance %.2f, iteration %d",
		strategy, metrics.ResultCount, metrics.MeanRelevance, iteration)

	if strategy == domain.StrategySufficient {
		return RefinementPlan{
			Strategy:   strategy,
			Reasoning:  "Result quality is acceptable",
			Confidence: 0.9,
		}
	}

	if p.suggester != nil {
		req := driven.RefinementRequest{
			Query:          query,
			TermType:       termType,
			Strategy:       strategy,
			TriedTerms:     tried,
			ResultCount:    metrics.ResultCount,
			MeanRelevance:  metrics.MeanRelevance,
			Iteration:      iteration,
			MaxSuggestions: p.cfg.MaxSuggestions,
		}
		suggestion, err := p.suggester.Suggest(ctx, req)
		if err != nil {
			logger.Warn("Term suggester failed: %v", err)
		} else if terms := p.novelTerms(suggestion.Terms, tried); len(terms) > 0 {
			logger.Debug("Suggester proposed terms: %v", terms)
			return RefinementPlan{
				Strategy:   strategy,
				Terms:      terms,
				Reasoning:  suggestion.Reasoning,
				Confidence: suggestion.Confidence,
			}
		} else {
			logger.Debug("Suggester proposed no novel terms, using rule fallback")
		}
	}

	return p.fallback(strategy, query, tried)
}

// fallback produces a rule-based plan when no suggester output is usable.
// There is no rule-based rendition of the alternative strategy, so it
// degrades to a low-confidence sufficient plan and the loop stops.
func (p *RefinementPlanner) fallback(strategy domain.RefinementStrategy, query string, tried []string) RefinementPlan {
	switch strategy {
	case domain.StrategyBroaden:
		return fallbackBroaden(query, tried)
	case domain.StrategyNarrow:
		return fallbackNarrow(query, tried)
	default:
		return RefinementPlan{
			Strategy:   domain.StrategySufficient,
			Reasoning:  "No alternative approaches available",
			Confidence: 0.3,
		}
	}
}

// fallbackBroaden widens a query by stripping severity and chronicity
// qualifiers, plus a variant without the word "test" for lab-style queries.
func fallbackBroaden(query string, tried []string) RefinementPlan {
	var terms []string

	stripped := removeWords(query, broadenQualifiers)
	if stripped != "" && !strings.EqualFold(stripped, query) && !containsFold(tried, stripped) {
		terms = append(terms, stripped)
	}

	if strings.Contains(strings.ToLower(query), "test") && !anyContainsFold(tried, "test") {
		variant := removeWords(query, []string{"test"})
		if variant != "" && !strings.EqualFold(variant, query) && !containsFold(tried, variant) && !containsFold(terms, variant) {
			terms = append(terms, variant)
		}
	}

	if len(terms) > fallbackTermCap {
		terms = terms[:fallbackTermCap]
	}
	return RefinementPlan{
		Strategy:   domain.StrategyBroaden,
		Terms:      terms,
		Reasoning:  "Removed qualifiers to broaden the search",
		Confidence: 0.5,
	}
}

// fallbackNarrow tightens a query by prefixing common clinical qualifiers.
func fallbackNarrow(query string, tried []string) RefinementPlan {
	var terms []string
	for _, qualifier := range narrowQualifiers {
		term := qualifier + " " + query
		if !containsFold(tried, term) {
			terms = append(terms, term)
		}
	}

	if len(terms) > fallbackTermCap {
		terms = terms[:fallbackTermCap]
	}
	return RefinementPlan{
		Strategy:   domain.StrategyNarrow,
		Terms:      terms,
		Reasoning:  "Added qualifiers to narrow the search",
		Confidence: 0.5,
	}
}

// novelTerms filters blank, duplicate and already-tried terms out of a
// proposal, capped at the configured maximum.
func (p *RefinementPlanner) novelTerms(proposed, tried []string) []string {
	var out []string
	for _, t := range proposed {
		t = strings.TrimSpace(t)
		if t == "" || containsFold(tried, t) || containsFold(out, t) {
			continue
		}
		out = append(out, t)
		if len(out) == p.cfg.MaxSuggestions {
			break
		}
	}
	return out
}

// removeWords drops every word of s whose lowercase form appears in words,
// collapsing whitespace.
func removeWords(s string, words []string) string {
	drop := make(map[string]bool, len(words))
	for _, w := range words {
		drop[w] = true
	}
	var kept []string
	for _, field := range strings.Fields(s) {
		if !drop[strings.ToLower(field)] {
			kept = append(kept, field)
		}
	}
	return strings.Join(kept, " ")
}

// containsFold reports whether list contains s, case-insensitively.
func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

// anyContainsFold reports whether any list entry contains the substring,
// case-insensitively.
func anyContainsFold(list []string, substring string) bool {
	substring = strings.ToLower(substring)
	for _, v := range list {
		if strings.Contains(strings.ToLower(v), substring) {
			return true
		}
	}
	return false
}
