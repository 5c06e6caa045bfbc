package domain

import (
	"sort"
	"time"
)

// QualityMetrics summarises how good an answer is and how it was reached.
// Every response carries these so a degraded answer is distinguishable from
// a high-confidence one.
type QualityMetrics struct {
	// Score is the combined quality score in [0, 1]: weighted mean
	// relevance plus result-count sufficiency.
	Score float64 `json:"score"`

	// MeanRelevance is the average relevance of all scored results.
	MeanRelevance float64 `json:"mean_relevance"`

	// MaxRelevance is the best relevance seen.
	MaxRelevance float64 `json:"max_relevance"`

	// MinRelevance is the worst relevance seen.
	MinRelevance float64 `json:"min_relevance"`

	// HighQualityCount is the number of results with relevance >= 0.7.
	HighQualityCount int `json:"high_quality_count"`

	// ResultCount is the total number of merged results.
	ResultCount int `json:"result_count"`

	// IterationCount is how many loop passes produced this answer.
	IterationCount int `json:"iteration_count"`

	// LowConfidence marks answers that exhausted the iteration budget
	// without reaching the acceptance threshold.
	LowConfidence bool `json:"low_confidence"`
}

// Recommendation is one synthesised code suggestion.
type Recommendation struct {
	// Code is the bare code value.
	Code string `json:"code"`

	// System is the coding system the code belongs to.
	System string `json:"system"`

	// UseCase describes when to use this code.
	UseCase string `json:"use_case"`

	// Confidence is high, medium or low.
	Confidence string `json:"confidence"`
}

// Synthesis is the summarised reading of a result set. Synthesis is
// advisory: it is attached to the response but never affects scoring or
// loop termination.
type Synthesis struct {
	// ExecutiveSummary is a two-to-three sentence overview.
	ExecutiveSummary string `json:"executive_summary"`

	// KeyPatterns lists notable patterns in the results.
	KeyPatterns []string `json:"key_patterns"`

	// Recommendations are the top code suggestions.
	Recommendations []Recommendation `json:"top_recommendations"`

	// ClinicalContext holds considerations, warnings or context.
	ClinicalContext string `json:"clinical_context"`

	// SearchQuality is excellent, good, fair, poor or unknown.
	SearchQuality string `json:"search_quality"`

	// SearchQualityExplanation says why that quality rating.
	SearchQualityExplanation string `json:"search_quality_explanation"`

	// NextSteps are suggested follow-up actions.
	NextSteps []string `json:"next_steps"`

	// Fallback is true when the synthesis was generated without the LLM.
	Fallback bool `json:"fallback,omitempty"`
}

// PageInfo is the 1-indexed display range for one dataset's page.
type PageInfo struct {
	// Start is the first shown position.
	Start int `json:"start"`

	// End is the last shown position.
	End int `json:"end"`

	// Total is the number of results available in the dataset.
	Total int `json:"total"`
}

// PageView is one page of a previous answer, produced by pagination
// without re-running the lookup.
type PageView struct {
	// Query is the query being paginated.
	Query string `json:"query"`

	// Page is the 1-based page number.
	Page int `json:"page"`

	// Results holds this page's slice per dataset.
	Results map[DatasetID][]ScoredResult `json:"results"`

	// Pages holds the display range per dataset.
	Pages map[DatasetID]PageInfo `json:"pages"`

	// HasMore is true when another page exists in at least one dataset.
	HasMore bool `json:"has_more"`

	// TotalShown is the number of results on this page.
	TotalShown int `json:"total_shown"`

	// TotalAvailable is the number of results across all datasets.
	TotalAvailable int `json:"total_available"`
}

// LookupResponse is the assembled answer for a query.
type LookupResponse struct {
	// RequestID identifies this lookup in logs.
	RequestID string `json:"request_id"`

	// Query is the raw query as entered.
	Query string `json:"query"`

	// NormalisedQuery is the canonical form used as cache identity.
	NormalisedQuery string `json:"normalised_query"`

	// Classification is the term classification that drove the search.
	Classification TermClassification `json:"classification"`

	// Results holds the scored results grouped by dataset, best first
	// within each dataset.
	Results map[DatasetID][]ScoredResult `json:"results"`

	// DatasetErrors marks datasets that could not be searched. A failed
	// dataset never fails the query; it is annotated here instead.
	DatasetErrors map[DatasetID]string `json:"dataset_errors,omitempty"`

	// Quality carries the confidence basis for this answer.
	Quality QualityMetrics `json:"quality"`

	// Iterations is the refinement history, oldest first.
	Iterations []IterationRecord `json:"iterations"`

	// Synthesis is the summarised reading of the results, if any.
	Synthesis *Synthesis `json:"synthesis,omitempty"`

	// CacheSource is true when this answer came from the result cache.
	CacheSource bool `json:"cache_source"`

	// CacheAge is how old the cached answer is. Zero for fresh answers.
	CacheAge time.Duration `json:"cache_age,omitempty"`

	// Pages holds the first-page display range per dataset.
	Pages map[DatasetID]PageInfo `json:"pages,omitempty"`

	// HasMore is true when more results are available via pagination.
	HasMore bool `json:"has_more"`
}

// TotalResults returns the merged result count across all datasets.
func (r *LookupResponse) TotalResults() int {
	total := 0
	for _, results := range r.Results {
		total += len(results)
	}
	return total
}

// DatasetOrder returns the datasets of this response in display order:
// the classification's primary dataset first, then by top relevance, with
// the dataset identifier as a stable tie-break.
func (r *LookupResponse) DatasetOrder() []DatasetID {
	ids := make([]DatasetID, 0, len(r.Results))
	for id := range r.Results {
		ids = append(ids, id)
	}

	primary, _ := r.Classification.PrimaryDataset()
	top := func(id DatasetID) float64 {
		if rs := r.Results[id]; len(rs) > 0 {
			return rs[0].Relevance
		}
		return 0
	}

	sort.Slice(ids, func(i, j int) bool {
		a, b := ids[i], ids[j]
		if (a == primary) != (b == primary) {
			return a == primary
		}
		if top(a) != top(b) {
			return top(a) > top(b)
		}
		return a < b
	})
	return ids
}
