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

// Ensure Classifier implements the interface.
var _ driven.TermClassifier = (*Classifier)(nil)

// classifierTemperature keeps classification near-deterministic.
const classifierTemperature = 0.1

// classifierSystemPrompt instructs the model to type a clinical term and
// pick coding systems. Dataset selection in the reply is advisory only; the
// catalogue mapping for the term type always wins.
const classifierSystemPrompt = `You are a medical terminology expert. Your job is to analyse clinical terms and identify:
1. The type of medical term (diagnosis, procedure, lab test, medication, unit, phenotype, genetic variant, gene, provider, etc.)
2. Which medical coding systems would be most relevant

Available term types:
- diagnosis: For diseases, conditions, symptoms (ICD-10-CM, ICD-11, ICD-9-CM) - use for general clinical diagnoses
- procedure: For medical procedures, surgeries, treatments (HCPCS, ICD-9-CM procedures)
- lab_test: For laboratory tests and panels (LOINC)
- medication: For drugs and medications (RxTerms)
- medical_equipment: For durable medical equipment (DME), prosthetics, orthotics, mobility aids, assistive devices (HCPCS).
  Use this for terms like: wheelchair, walker, crutches, prosthetic limb, oxygen equipment, hospital bed, nebulizer, etc.
  HCPCS codes are used for billing and reimbursement of medical equipment.
- unit: For units of measure (UCUM) - e.g., mg, mL, mmol/L
- phenotype: For observable characteristics, clinical features, or traits used in genetic/genomic contexts (HPO).
  Use this for terms like: ataxia, seizures, intellectual disability, dysmorphic features, developmental delay, etc.
  HPO is especially important for hereditary conditions, congenital abnormalities, and genetic syndromes.
- genetic_variant: For genetic variants (ClinVar, SNPs)
- gene: For gene names (HGNC/NCBI Genes)
- genetic_disease: For hereditary/genetic diseases
- pharmacogenomics: For drug-gene interactions (PharmVar)
- provider: For healthcare providers (NPI)

IMPORTANT DECISION CRITERIA:
- If a term describes a clinical feature that could be part of a genetic syndrome or hereditary condition, classify it as "phenotype"
- If a term is commonly used in genetics or has a known HPO code, classify it as "phenotype"
- If a term refers to equipment, devices, or assistive aids (not medications), classify it as "medical_equipment"
- Examples of phenotype terms: ataxia, seizures, hypotonia, intellectual disability, dysmorphic facies, polydactyly
- Examples of medical equipment: wheelchair, walker, crutches, CPAP machine, prosthetic, oxygen concentrator

Respond in JSON format with:
{
    "term_type": "diagnosis|procedure|lab_test|medication|phenotype|...",
    "confidence": 0.0-1.0,
    "reasoning": "brief explanation",
    "search_terms": ["alternative search terms"]
}`

// classificationReply is the JSON shape the classifier prompt asks for.
type classificationReply struct {
	TermType    string   `json:"term_type"`
	Confidence  float64  `json:"confidence"`
	Reasoning   string   `json:"reasoning"`
	SearchTerms []string `json:"search_terms"`
}

// Classifier types clinical terms with an LLM. Chat failures and
// unparsable replies degrade to the keyword classifier, so Classify only
// fails when the fallback itself would (it never does).
type Classifier struct {
	chat     driven.ChatService
	fallback *KeywordClassifier
}

// NewClassifier creates an LLM-backed term classifier.
func NewClassifier(chat driven.ChatService) *Classifier {
	return &Classifier{
		chat:     chat,
		fallback: NewKeywordClassifier(),
	}
}

// Classify analyses a clinical query and returns the term type, dataset
// selection and initial search terms.
func (c *Classifier) Classify(ctx context.Context, query string) (domain.TermClassification, error) {
	messages := []driven.ChatMessage{
		{Role: "system", Content: classifierSystemPrompt},
		{Role: "user", Content: fmt.Sprintf("Analyse this medical term: '%s'", query)},
	}

	reply, err := c.chat.Chat(ctx, messages, driven.ChatOptions{
		MaxTokens:   500,
		Temperature: classifierTemperature,
	})
	if err != nil {
		logger.Warn("Classification failed: %v, using keyword fallback", err)
		return c.fallback.Classify(ctx, query)
	}

	class, err := parseClassification(query, reply)
	if err != nil {
		logger.Warn("Unparsable classification reply: %v, using keyword fallback", err)
		return c.fallback.Classify(ctx, query)
	}

	logger.Info("Classified %q as %s (confidence %.2f)", query, class.TermType, class.Confidence)
	return class, nil
}

// parseClassification decodes a classification reply and normalises it.
// The dataset selection always comes from the catalogue mapping for the
// term type, never from the model.
func parseClassification(query, reply string) (domain.TermClassification, error) {
	var parsed classificationReply
	if err := json.Unmarshal([]byte(extractJSON(reply)), &parsed); err != nil {
		return domain.TermClassification{}, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}

	termType := domain.TermType(parsed.TermType)
	if parsed.TermType == "" {
		termType = domain.TermTypeDiagnosis
	} else if !termType.IsValid() {
		termType = domain.TermTypeUnknown
	}

	terms := make([]string, 0, len(parsed.SearchTerms)+1)
	hasQuery := false
	for _, t := range parsed.SearchTerms {
		if t == "" {
			continue
		}
		if strings.EqualFold(t, query) {
			hasQuery = true
		}
		terms = append(terms, t)
	}
	if !hasQuery {
		terms = append([]string{query}, terms...)
	}

	return domain.TermClassification{
		TermType:    termType,
		Datasets:    domain.DatasetsForTermType(termType),
		Confidence:  clamp01(parsed.Confidence),
		Rationale:   parsed.Reasoning,
		SearchTerms: terms,
	}, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
