package services

import (
	"math"
	"sort"
	"strings"

	"github.com/medatlas-labs/medcode-cli/internal/core/domain"
	"github.com/medatlas-labs/medcode-cli/internal/logger"
)

// highQualityFloor is the relevance at which a result counts as high
// quality in the response metrics.
const highQualityFloor = 0.7

// descriptionPlaceholders are dataset filler values that carry no meaning.
var descriptionPlaceholders = map[string]bool{
	"N/A":                      true,
	"No description":           true,
	"No description available": true,
}

// clinicalMarkers are terms whose presence suggests a real clinical
// description rather than an administrative label.
var clinicalMarkers = []string{
	"blood", "test", "diabetes", "chronic", "acute", "syndrome",
	"disease", "disorder", "condition", "procedure", "treatment",
}

// presenceStopwords are excluded from query-term presence checks.
var presenceStopwords = map[string]bool{
	"a": true, "an": true, "the": true, "is": true, "are": true,
	"was": true, "were": true, "of": true, "for": true, "in": true,
	"on": true, "at": true,
}

// RelevanceScorer ranks candidate codes against the original query. Scoring
// is deterministic and stateless: a weighted sum of five factors, each in
// [0, 1], with weights summing to 1.0 (validated at startup).
type RelevanceScorer struct {
	cfg domain.ScoringConfig
}

// NewRelevanceScorer creates a new relevance scorer.
func NewRelevanceScorer(cfg domain.ScoringConfig) *RelevanceScorer {
	return &RelevanceScorer{cfg: cfg}
}

// Score computes the relevance of one candidate to the query in [0, 1].
func (s *RelevanceScorer) Score(query string, c domain.CandidateCode, class domain.TermClassification) float64 {
	score := textSimilarity(query, c.Description) * s.cfg.TextSimilarityWeight
	score += datasetMatch(c.Dataset, class) * s.cfg.DatasetMatchWeight
	score += codeSpecificity(c.Code, c.Dataset) * s.cfg.SpecificityWeight
	score += descriptionQuality(c.Description) * s.cfg.DescriptionWeight
	score += termPresence(query, c.Description) * s.cfg.TermPresenceWeight
	return math.Min(1.0, math.Max(0.0, score))
}

// ScoreAll scores every candidate and returns them ranked best first.
// The sort is stable so equal scores keep retrieval order.
func (s *RelevanceScorer) ScoreAll(query string, candidates []domain.CandidateCode, class domain.TermClassification) []domain.ScoredResult {
	logger.Debug("Scoring %d candidates against query %q", len(candidates), query)

	results := make([]domain.ScoredResult, 0, len(candidates))
	for _, c := range candidates {
		rel := s.Score(query, c, class)
		results = append(results, domain.ScoredResult{
			CandidateCode: c,
			Relevance:     rel,
			Tier:          s.cfg.TierFor(rel),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Relevance > results[j].Relevance
	})
	return results
}

// textSimilarity measures string similarity as a Sorensen-Dice coefficient
// over rune bigrams, case-insensitive. Identical strings score 1.0; strings
// too short to form a bigram score 0.0 unless identical.
func textSimilarity(a, b string) float64 {
	a = strings.ToLower(a)
	b = strings.ToLower(b)
	if a == b {
		if a == "" {
			return 0
		}
		return 1
	}

	ba, na := bigrams(a)
	bb, nb := bigrams(b)
	if na == 0 || nb == 0 {
		return 0
	}

	overlap := 0
	for gram, count := range ba {
		if other, ok := bb[gram]; ok {
			if other < count {
				count = other
			}
			overlap += count
		}
	}
	return 2 * float64(overlap) / float64(na+nb)
}

// bigrams returns the multiset of rune bigrams in s and its total count.
func bigrams(s string) (map[string]int, int) {
	runes := []rune(s)
	if len(runes) < 2 {
		return nil, 0
	}
	grams := make(map[string]int, len(runes)-1)
	for i := 0; i+1 < len(runes); i++ {
		grams[string(runes[i:i+2])]++
	}
	return grams, len(runes) - 1
}

// datasetMatch rates how appropriate the candidate's dataset is for the
// classified term type: full credit for the primary dataset, partial for
// any other recommended dataset, minimal otherwise.
func datasetMatch(d domain.DatasetID, class domain.TermClassification) float64 {
	if primary, ok := class.PrimaryDataset(); ok && d == primary {
		return 1.0
	}
	if class.HasDataset(d) {
		return 0.75
	}
	return 0.25
}

// codeSpecificity estimates how granular a code is within its family.
// ICD codes gain specificity per decimal digit (E11.9 vs E11.3211), LOINC
// codes by length, drug codes by combination markers.
func codeSpecificity(code string, dataset domain.DatasetID) float64 {
	if code == "" || code == "N/A" {
		return 0.3
	}

	switch dataset {
	case domain.DatasetICD10CM, domain.DatasetICD11, domain.DatasetICD9CMDiag, domain.DatasetICD9CMProc:
		parts := strings.Split(code, ".")
		if len(parts) < 2 {
			return 0.5
		}
		return math.Min(1.0, 0.5+0.15*float64(len(parts[1])))
	case domain.DatasetLOINC:
		return math.Min(1.0, 0.4+0.02*float64(len(code)))
	case domain.DatasetRxTerms, domain.DatasetDrugs:
		if strings.ContainsAny(code, "/+") {
			return 0.8
		}
		return 0.6
	default:
		return 0.6
	}
}

// descriptionQuality rates a description by length and clinical content.
// Placeholders score zero so thin results sink in the ranking.
func descriptionQuality(desc string) float64 {
	if desc == "" || descriptionPlaceholders[desc] {
		return 0
	}
	if len(desc) < 10 {
		return 0.3
	}

	quality := 0.5
	if len(desc) >= 20 && len(desc) <= 200 {
		quality = 0.7
	}

	lower := strings.ToLower(desc)
	for _, marker := range clinicalMarkers {
		if strings.Contains(lower, marker) {
			quality += 0.2
			break
		}
	}
	return math.Min(1.0, quality)
}

// termPresence measures how many meaningful query words appear in the
// description. Prefix matches count half, so "diabetes" still gets credit
// against "diabetic". Queries with no meaningful words score neutral.
func termPresence(query, desc string) float64 {
	descLower := strings.ToLower(desc)

	var words []string
	for _, w := range strings.Fields(strings.ToLower(query)) {
		if len(w) > 2 && !presenceStopwords[w] {
			words = append(words, w)
		}
	}
	if len(words) == 0 {
		return 0.5
	}

	descWords := strings.Fields(descLower)
	matches := 0
	partials := 0
	for _, w := range words {
		if strings.Contains(descLower, w) {
			matches++
		}
		prefix := w
		if runes := []rune(w); len(runes) > 4 {
			prefix = string(runes[:4])
		}
		for _, dw := range descWords {
			if strings.Contains(dw, prefix) {
				partials++
				break
			}
		}
	}

	score := (float64(matches) + 0.5*float64(partials)) / float64(len(words))
	return math.Min(1.0, score)
}

// countHighQuality returns how many results meet the high quality floor.
func countHighQuality(results []domain.ScoredResult) int {
	count := 0
	for _, r := range results {
		if r.Relevance >= highQualityFloor {
			count++
		}
	}
	return count
}
