package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medatlas-labs/medcode-cli/internal/core/domain"
	"github.com/medatlas-labs/medcode-cli/internal/core/ports/driven"
	"github.com/medatlas-labs/medcode-cli/internal/core/ports/driving"
	"github.com/medatlas-labs/medcode-cli/internal/logger"
)

// Ensure LookupService implements the interface.
var _ driving.LookupService = (*LookupService)(nil)

// lookupState names one stage of the lookup pipeline.
type lookupState string

const (
	stateCheckCache lookupState = "check_cache"
	stateClassify   lookupState = "classify"
	stateRetrieve   lookupState = "retrieve"
	stateScore      lookupState = "score"
	stateEvaluate   lookupState = "evaluate"
	stateRefine     lookupState = "refine"
	stateSynthesise lookupState = "synthesise"
	stateStoreCache lookupState = "store_cache"
	stateDone       lookupState = "done"
)

// lookupRun carries one query through the pipeline. Every state transition
// reads and writes these fields, so each stage stays independently testable.
type lookupRun struct {
	state      lookupState
	requestID  string
	query      string
	normalised string

	class    domain.TermClassification
	datasets []domain.DatasetID

	// terms is the active search term set. Refinements merge into it,
	// never replace it, so it doubles as the tried-term history.
	terms []string

	// merged accumulates unique candidates across every pass. A later
	// pass can only add candidates, never lose them.
	merged []domain.CandidateCode
	seen   map[string]bool

	scored        []domain.ScoredResult
	grouped       map[domain.DatasetID][]domain.ScoredResult
	metrics       domain.QualityMetrics
	datasetErrors map[domain.DatasetID]string
	iterations    []domain.IterationRecord
	decision      domain.Decision
	synthesis     *domain.Synthesis
	response      *domain.LookupResponse
}

// LookupService runs the iterative lookup pipeline: an explicit state
// machine that classifies the query, fans retrieval out across datasets,
// scores and evaluates what came back, and either refines the search or
// synthesises an answer. The classifier, suggester and synthesiser are
// optional collaborators; every one of them degrades to a rule-based
// fallback rather than failing the query.
type LookupService struct {
	cfg         *domain.Config
	classifier  driven.TermClassifier
	retriever   *RetrievalCoordinator
	scorer      *RelevanceScorer
	evaluator   *QualityEvaluator
	planner     *RefinementPlanner
	synthesiser driven.Synthesiser
	memory      *SessionMemory

	// newID and now are swappable for tests.
	newID func() string
	now   func() time.Time
}

// NewLookupService creates a new lookup service.
// The classifier and synthesiser parameters are optional (can be nil).
func NewLookupService(
	cfg *domain.Config,
	classifier driven.TermClassifier,
	retriever *RetrievalCoordinator,
	scorer *RelevanceScorer,
	evaluator *QualityEvaluator,
	planner *RefinementPlanner,
	synthesiser driven.Synthesiser,
	memory *SessionMemory,
) *LookupService {
	return &LookupService{
		cfg:         cfg,
		classifier:  classifier,
		retriever:   retriever,
		scorer:      scorer,
		evaluator:   evaluator,
		planner:     planner,
		synthesiser: synthesiser,
		memory:      memory,
		newID:       uuid.NewString,
		now:         time.Now,
	}
}

// Lookup resolves a clinical term to ranked medical codes. The overall
// query timeout aborts in-flight external calls and falls through to
// whatever results have accumulated; it never fails the query outright.
func (s *LookupService) Lookup(ctx context.Context, query string) (*domain.LookupResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Pipeline.QueryTimeout)
	defer cancel()

	run := &lookupRun{
		state:      stateCheckCache,
		requestID:  s.newID(),
		query:      query,
		normalised: domain.NormaliseQuery(query),
		seen:       make(map[string]bool),
	}

	logger.Section("Code Lookup")
	logger.Debug("Request %s: %q", run.requestID, query)

	for run.state != stateDone {
		if err := s.step(ctx, run); err != nil {
			return nil, err
		}
	}
	return run.response, nil
}

// step advances the pipeline by one state transition.
func (s *LookupService) step(ctx context.Context, run *lookupRun) error {
	switch run.state {
	case stateCheckCache:
		s.checkCache(run)
	case stateClassify:
		s.classify(ctx, run)
	case stateRetrieve:
		s.retrieve(ctx, run)
	case stateScore:
		s.score(run)
	case stateEvaluate:
		s.evaluate(ctx, run)
	case stateRefine:
		s.refine(ctx, run)
	case stateSynthesise:
		s.synthesise(ctx, run)
	case stateStoreCache:
		s.storeCache(run)
	default:
		return fmt.Errorf("lookup reached unknown state %q", run.state)
	}
	return nil
}

// checkCache serves an identical previous answer when one is still valid.
// A hit re-arms pagination at page one and skips the whole loop.
func (s *LookupService) checkCache(run *lookupRun) {
	rec, ok := s.memory.Get(run.normalised)
	if !ok {
		run.state = stateClassify
		return
	}

	age := rec.Age(s.now())
	logger.Debug("Cache hit for %q (age %s)", run.normalised, age.Round(time.Second))

	served := *rec.Payload
	served.RequestID = run.requestID
	served.CacheSource = true
	served.CacheAge = age

	s.memory.Activate(&served)
	run.response = &served
	run.state = stateDone
}

// classify determines the term type and dataset selection. Classifier
// failure falls back to searching every dataset.
func (s *LookupService) classify(ctx context.Context, run *lookupRun) {
	logger.Section("Term Classification")

	class := domain.FallbackClassification(run.query)
	if s.classifier != nil {
		c, err := s.classifier.Classify(ctx, run.query)
		if err != nil {
			logger.Warn("Classifier unavailable: %v, searching all datasets", err)
		} else {
			class = c
		}
	}

	run.class = class
	run.datasets = class.Datasets
	if len(run.datasets) == 0 {
		run.datasets = domain.AllDatasetIDs()
	}
	run.terms = append([]string{}, class.SearchTerms...)
	if len(run.terms) == 0 {
		run.terms = []string{run.query}
	}

	logger.Debug("Classified as %q (confidence %.2f), searching %d datasets",
		class.TermType, class.Confidence, len(run.datasets))
	run.state = stateRetrieve
}

// retrieve fans this pass's searches out and merges new candidates into
// the accumulated set.
func (s *LookupService) retrieve(ctx context.Context, run *lookupRun) {
	logger.Section(fmt.Sprintf("Iteration %d", len(run.iterations)+1))

	outcome := s.retriever.Retrieve(ctx, run.terms, run.datasets)
	for _, c := range outcome.Candidates {
		if key := c.Key(); !run.seen[key] {
			run.seen[key] = true
			run.merged = append(run.merged, c)
		}
	}
	run.datasetErrors = outcome.Errors
	run.state = stateScore
}

// score ranks the accumulated candidates against the original query.
func (s *LookupService) score(run *lookupRun) {
	run.scored = s.scorer.ScoreAll(run.query, run.merged, run.class)
	run.state = stateEvaluate
}

// evaluate measures result quality and decides whether the loop continues.
// An exhausted query budget forces completion with whatever accumulated.
func (s *LookupService) evaluate(ctx context.Context, run *lookupRun) {
	run.metrics = s.evaluator.Measure(run.scored)

	iterIndex := len(run.iterations)
	decision := s.evaluator.Decide(run.metrics.Score, iterIndex)
	if decision == domain.DecisionRefine && ctx.Err() != nil {
		logger.Warn("Query budget exhausted, completing with accumulated results")
		decision = domain.DecisionComplete
	}

	run.iterations = append(run.iterations, domain.IterationRecord{
		Index:         iterIndex + 1,
		SearchTerms:   append([]string{}, run.terms...),
		ResultCount:   run.metrics.ResultCount,
		MeanRelevance: run.metrics.MeanRelevance,
		QualityScore:  run.metrics.Score,
		Decision:      decision,
	})
	run.decision = decision

	logger.Info("Quality evaluation (iteration %d): score=%.2f, matches=%d, mean relevance=%.2f",
		iterIndex+1, run.metrics.Score, run.metrics.ResultCount, run.metrics.MeanRelevance)

	if decision == domain.DecisionRefine {
		run.state = stateRefine
	} else {
		run.state = stateSynthesise
	}
}

// refine plans the next pass. Novel terms merge into the active set; a
// plan with no novel terms means the query is exhausted and the loop
// completes instead of repeating itself.
func (s *LookupService) refine(ctx context.Context, run *lookupRun) {
	logger.Section("Search Refinement")

	plan := s.planner.Plan(ctx, run.query, run.class.TermType, run.terms, run.metrics, len(run.iterations))
	run.iterations[len(run.iterations)-1].Strategy = plan.Strategy

	if len(plan.Terms) == 0 {
		logger.Info("No novel refinement available, completing with current results")
		run.decision = domain.DecisionComplete
		run.state = stateSynthesise
		return
	}

	run.terms = append(run.terms, plan.Terms...)
	if plan.Strategy == domain.StrategyBroaden {
		run.datasets = domain.AllDatasetIDs()
	}

	logger.Info("Refining search (%s): %s", plan.Strategy, strings.Join(plan.Terms, ", "))
	run.state = stateRetrieve
}

// synthesise produces the summarised reading of the final result set,
// falling back to a statistical summary when the LLM is absent or fails.
func (s *LookupService) synthesise(ctx context.Context, run *lookupRun) {
	logger.Section("Result Synthesis")

	run.grouped = groupByDataset(run.scored)

	if s.synthesiser != nil && len(run.scored) > 0 {
		syn, err := s.synthesiser.Synthesise(ctx, driven.SynthesisRequest{
			Query:              run.query,
			TermType:           run.class.TermType,
			Results:            run.grouped,
			Quality:            run.metrics,
			MaxRecommendations: s.cfg.Display.MaxRecommendations,
		})
		if err != nil {
			logger.Warn("Synthesis failed: %v, using fallback summary", err)
		} else {
			run.synthesis = &syn
			run.state = stateStoreCache
			return
		}
	}

	fallback := s.fallbackSynthesis(run)
	run.synthesis = &fallback
	run.state = stateStoreCache
}

// storeCache assembles the response, arms pagination and caches the
// answer when it is worth keeping. Degraded answers below the minimum
// result count are never cached, so a future identical lookup gets a
// fresh chance instead of a known-bad replay.
func (s *LookupService) storeCache(run *lookupRun) {
	resp := s.assembleResponse(run)
	run.response = resp
	s.memory.Activate(resp)

	if resp.TotalResults() >= s.cfg.Quality.MinResults {
		s.memory.Put(run.normalised, resp)
	} else {
		logger.Debug("Skipping cache store: only %d results", resp.TotalResults())
	}
	run.state = stateDone
}

// assembleResponse builds the final response from the finished run.
func (s *LookupService) assembleResponse(run *lookupRun) *domain.LookupResponse {
	metrics := run.metrics
	metrics.IterationCount = len(run.iterations)
	metrics.LowConfidence = run.decision == domain.DecisionComplete &&
		metrics.Score < s.cfg.Quality.AcceptanceThreshold

	pageSize := s.cfg.Display.MaxCodesPerSystem
	pages := make(map[domain.DatasetID]domain.PageInfo, len(run.grouped))
	hasMore := false
	for id, results := range run.grouped {
		shown := len(results)
		if shown > pageSize {
			shown = pageSize
			hasMore = true
		}
		pages[id] = domain.PageInfo{Start: 1, End: shown, Total: len(results)}
	}

	var datasetErrors map[domain.DatasetID]string
	if len(run.datasetErrors) > 0 {
		datasetErrors = run.datasetErrors
	}

	return &domain.LookupResponse{
		RequestID:       run.requestID,
		Query:           run.query,
		NormalisedQuery: run.normalised,
		Classification:  run.class,
		Results:         run.grouped,
		DatasetErrors:   datasetErrors,
		Quality:         metrics,
		Iterations:      run.iterations,
		Synthesis:       run.synthesis,
		Pages:           pages,
		HasMore:         hasMore,
	}
}

// fallbackSynthesis builds a statistical summary when no LLM synthesis is
// available. The quality rating derives from result count and mean
// relevance alone.
func (s *LookupService) fallbackSynthesis(run *lookupRun) domain.Synthesis {
	total := len(run.scored)
	mean := run.metrics.MeanRelevance

	var quality, explanation string
	switch {
	case total == 0:
		quality = "poor"
		explanation = "No results found"
	case mean >= 0.7:
		quality = "excellent"
		explanation = fmt.Sprintf("Found %d highly relevant results", total)
	case mean >= 0.5:
		quality = "good"
		explanation = fmt.Sprintf("Found %d relevant results", total)
	default:
		quality = "fair"
		explanation = fmt.Sprintf("Found %d results with moderate relevance", total)
	}

	top := domain.TopRecommendations(run.scored, s.cfg.Display.MaxRecommendations)
	recommendations := make([]domain.Recommendation, 0, len(top))
	for _, r := range top {
		system := string(r.Dataset)
		if info, ok := domain.DatasetByID(r.Dataset); ok {
			system = info.DisplayName
		}
		recommendations = append(recommendations, domain.Recommendation{
			Code:       r.Code,
			System:     system,
			UseCase:    "High relevance match for the query",
			Confidence: confidenceForTier(r.Tier),
		})
	}

	return domain.Synthesis{
		ExecutiveSummary: fmt.Sprintf(
			"Search for %q (identified as %s) returned %d results across %d coding systems with average relevance of %.2f.",
			run.query, run.class.TermType, total, len(run.grouped), mean),
		KeyPatterns: []string{
			fmt.Sprintf("Total matches: %d", total),
			fmt.Sprintf("Coding systems with results: %d", len(run.grouped)),
			fmt.Sprintf("Average relevance: %.2f", mean),
		},
		Recommendations: recommendations,
		ClinicalContext: "These are automated search results. Always verify code accuracy and appropriateness for your specific clinical use case.",
		SearchQuality:            quality,
		SearchQualityExplanation: explanation,
		NextSteps: []string{
			"Review top-scored results",
			"Verify codes against official coding guidelines",
			"Consult with a coding specialist if needed",
		},
		Fallback: true,
	}
}

// NextPage returns the next page of the most recent answer.
func (s *LookupService) NextPage(ctx context.Context) (*domain.PageView, error) {
	return s.memory.NextPage()
}

// ClearCache empties the result cache, leaving pagination intact.
func (s *LookupService) ClearCache(ctx context.Context) error {
	removed := s.memory.Clear()
	logger.Info("Cleared query cache (%d entries removed)", removed)
	return nil
}

// CacheStats reports the session memory state.
func (s *LookupService) CacheStats(ctx context.Context) (domain.CacheStats, error) {
	return s.memory.Stats(), nil
}

// Datasets lists the terminology datasets this service can search.
func (s *LookupService) Datasets(ctx context.Context) []domain.DatasetInfo {
	return domain.Datasets()
}

// groupByDataset splits globally ranked results into per-dataset groups,
// preserving rank order within each group.
func groupByDataset(scored []domain.ScoredResult) map[domain.DatasetID][]domain.ScoredResult {
	grouped := make(map[domain.DatasetID][]domain.ScoredResult)
	for _, r := range scored {
		grouped[r.Dataset] = append(grouped[r.Dataset], r)
	}
	return grouped
}

// confidenceForTier maps a relevance tier to a recommendation confidence.
func confidenceForTier(t domain.RelevanceTier) string {
	switch t {
	case domain.TierHigh:
		return "high"
	case domain.TierMedium:
		return "medium"
	default:
		return "low"
	}
}
