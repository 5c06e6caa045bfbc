package domain

import (
	"fmt"
	"sort"
)

// CandidateCode is one medical code returned by a terminology dataset.
// Candidates are immutable once scored.
type CandidateCode struct {
	// Dataset identifies the coding system the code came from.
	Dataset DatasetID `json:"dataset"`

	// Code is the code value, e.g. "E11.9" or "HP:0001251".
	Code string `json:"code"`

	// Description is the human-readable meaning of the code.
	Description string `json:"description"`

	// Extra holds any additional display fields the dataset returned.
	Extra []string `json:"extra,omitempty"`
}

// Key returns the deduplication identity of a candidate. Two candidates with
// the same key are the same code regardless of which search term found them.
func (c CandidateCode) Key() string {
	return fmt.Sprintf("%s:%s", c.Dataset, c.Code)
}

// RelevanceTier is the qualitative bucket for a relevance score.
type RelevanceTier string

// Relevance tiers from best to worst.
const (
	TierHigh    RelevanceTier = "high"
	TierMedium  RelevanceTier = "medium"
	TierLow     RelevanceTier = "low"
	TierVeryLow RelevanceTier = "very_low"
)

// IsValid returns true if the tier is recognised.
func (t RelevanceTier) IsValid() bool {
	switch t {
	case TierHigh, TierMedium, TierLow, TierVeryLow:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (t RelevanceTier) String() string {
	return string(t)
}

// Label returns the display label for the tier.
func (t RelevanceTier) Label() string {
	switch t {
	case TierHigh:
		return "HIGH"
	case TierMedium:
		return "MEDIUM"
	case TierLow:
		return "LOW"
	case TierVeryLow:
		return "VERY LOW"
	default:
		return unknownDescription
	}
}

// TierForScore buckets a relevance score using the supplied thresholds.
// Thresholds must be monotonic (high >= medium >= low); Config.Validate
// enforces this at startup.
func TierForScore(score, high, medium, low float64) RelevanceTier {
	switch {
	case score >= high:
		return TierHigh
	case score >= medium:
		return TierMedium
	case score >= low:
		return TierLow
	default:
		return TierVeryLow
	}
}

// ScoredResult is a candidate code with its relevance to the query.
type ScoredResult struct {
	CandidateCode

	// Relevance is the weighted relevance score in [0, 1].
	Relevance float64 `json:"relevance"`

	// Tier is the qualitative bucket derived from Relevance.
	Tier RelevanceTier `json:"tier"`
}

// TopRecommendations returns the best results for recommendation display.
// Official coding systems rank ahead of supplementary name lists even when
// a supplementary result has a slightly higher raw score, so an ICD code
// is never pushed out of the recommendations by a generic condition name.
func TopRecommendations(results []ScoredResult, limit int) []ScoredResult {
	var official, supplementary []ScoredResult
	for _, r := range results {
		if info, ok := DatasetByID(r.Dataset); ok && info.Official {
			official = append(official, r)
		} else {
			supplementary = append(supplementary, r)
		}
	}

	byRelevance := func(s []ScoredResult) func(i, j int) bool {
		return func(i, j int) bool { return s[i].Relevance > s[j].Relevance }
	}
	sort.SliceStable(official, byRelevance(official))
	sort.SliceStable(supplementary, byRelevance(supplementary))

	combined := append(official, supplementary...)
	if limit >= 0 && len(combined) > limit {
		combined = combined[:limit]
	}
	return combined
}
