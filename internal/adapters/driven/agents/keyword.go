package agents

import (
	"context"
	"strings"

	"github.com/medatlas-labs/medcode-cli/internal/core/domain"
	"github.com/medatlas-labs/medcode-cli/internal/core/ports/driven"
)

// Ensure KeywordClassifier implements the interface.
var _ driven.TermClassifier = (*KeywordClassifier)(nil)

// keywordRules map indicative substrings to a term type, checked in order.
// A query matching none of them is treated as a diagnosis, the most common
// kind of clinical lookup.
var keywordRules = []struct {
	termType domain.TermType
	keywords []string
}{
	{domain.TermTypeLabTest, []string{"test", "panel", "assay", "glucose", "hemoglobin", "blood"}},
	{domain.TermTypeMedication, []string{"mg", "tablet", "capsule", "drug", "medication"}},
	{domain.TermTypeMedicalEquipment, []string{"wheelchair", "walker", "crutch", "prosthetic", "orthotic", "cpap", "oxygen", "nebulizer", "hospital bed", "mobility device", "assistive device", "dme"}},
	{domain.TermTypeProcedure, []string{"surgery", "procedure", "operation", "therapy"}},
	{domain.TermTypeGeneticVariant, []string{"gene", "dna", "variant", "mutation"}},
}

// KeywordClassifier classifies terms by keyword matching alone. It is the
// degraded-mode classifier used when no LLM is configured, and the fallback
// behind the LLM classifier. It never fails.
type KeywordClassifier struct{}

// NewKeywordClassifier creates a keyword-based classifier.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{}
}

// Classify detects the term type from indicative keywords.
func (c *KeywordClassifier) Classify(_ context.Context, query string) (domain.TermClassification, error) {
	lower := strings.ToLower(query)

	termType := domain.TermTypeDiagnosis
	for _, rule := range keywordRules {
		if containsAny(lower, rule.keywords) {
			termType = rule.termType
			break
		}
	}

	return domain.TermClassification{
		TermType:    termType,
		Datasets:    domain.DatasetsForTermType(termType),
		Confidence:  0.5,
		Rationale:   "keyword-based detection",
		SearchTerms: []string{query},
	}, nil
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
