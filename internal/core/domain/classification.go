package domain

// TermClassification is the classifier's reading of a query: what kind of
// clinical term it is and which datasets are worth searching. Produced once
// per fresh query and immutable afterward.
type TermClassification struct {
	// TermType is the classified type of the term.
	TermType TermType `json:"term_type"`

	// Datasets is the ordered dataset selection, most relevant first.
	Datasets []DatasetID `json:"datasets"`

	// Confidence is the classifier's confidence in [0, 1].
	Confidence float64 `json:"confidence"`

	// Rationale is a short explanation of the classification.
	Rationale string `json:"rationale"`

	// SearchTerms are the terms to search with, best first. Always
	// contains at least the query itself.
	SearchTerms []string `json:"search_terms"`
}

// PrimaryDataset returns the most relevant dataset of the selection.
func (c TermClassification) PrimaryDataset() (DatasetID, bool) {
	if len(c.Datasets) == 0 {
		return "", false
	}
	return c.Datasets[0], true
}

// HasDataset reports whether the selection includes a dataset.
func (c TermClassification) HasDataset(id DatasetID) bool {
	for _, d := range c.Datasets {
		if d == id {
			return true
		}
	}
	return false
}

// FallbackClassification is used when the classifier is unreachable or
// returns unparsable output. Classification is an optimisation, not a
// correctness requirement: the fallback searches every dataset so no code
// is missed, at the cost of extra API calls.
func FallbackClassification(query string) TermClassification {
	return TermClassification{
		TermType:    TermTypeUnknown,
		Datasets:    AllDatasetIDs(),
		Confidence:  0,
		Rationale:   "classifier unavailable; searching all datasets",
		SearchTerms: []string{query},
	}
}
