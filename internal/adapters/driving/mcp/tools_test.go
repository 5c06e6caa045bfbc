package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medatlas-labs/medcode-cli/internal/core/domain"
)

func newTestServer(t *testing.T, mock *mockLookupService) *Server {
	t.Helper()
	server, err := NewServer(&Ports{Lookup: mock})
	require.NoError(t, err)
	return server
}

func TestServer_handleLookup(t *testing.T) {
	ctx := context.Background()

	t.Run("returns ranked codes", func(t *testing.T) {
		mock := &mockLookupService{
			resp: &domain.LookupResponse{
				Query: "diabetes",
				Classification: domain.TermClassification{
					TermType:   domain.TermTypeDiagnosis,
					Confidence: 0.9,
				},
				Results: map[domain.DatasetID][]domain.ScoredResult{
					domain.DatasetICD10CM: {
						{
							CandidateCode: domain.CandidateCode{
								Dataset:     domain.DatasetICD10CM,
								Code:        "E11.9",
								Description: "Type 2 diabetes mellitus without complications",
							},
							Relevance: 0.95,
							Tier:      domain.TierHigh,
						},
					},
				},
				Pages: map[domain.DatasetID]domain.PageInfo{
					domain.DatasetICD10CM: {Start: 1, End: 1, Total: 1},
				},
				Quality: domain.QualityMetrics{
					Score:          0.82,
					IterationCount: 1,
				},
				Synthesis: &domain.Synthesis{ExecutiveSummary: "Strong ICD-10 matches."},
			},
		}
		server := newTestServer(t, mock)

		_, output, err := server.handleLookup(ctx, nil, LookupInput{Term: "diabetes"})

		require.NoError(t, err)
		assert.Equal(t, "diabetes", output.Query)
		assert.Equal(t, "diagnosis", output.TermType)
		assert.Equal(t, 0.9, output.Confidence)
		assert.Equal(t, 0.82, output.QualityScore)
		assert.Equal(t, 1, output.Count)
		require.Len(t, output.Results, 1)
		assert.Equal(t, "icd10cm", output.Results[0].System)
		assert.Equal(t, "ICD-10-CM", output.Results[0].SystemName)
		assert.Equal(t, "E11.9", output.Results[0].Code)
		assert.Equal(t, 0.95, output.Results[0].Relevance)
		assert.Equal(t, "HIGH", output.Results[0].Tier)
		assert.Equal(t, "Strong ICD-10 matches.", output.Summary)
	})

	t.Run("caps results at the page window", func(t *testing.T) {
		results := make([]domain.ScoredResult, 5)
		for i := range results {
			results[i] = domain.ScoredResult{
				CandidateCode: domain.CandidateCode{Dataset: domain.DatasetLOINC, Code: "LP-1"},
				Relevance:     0.5,
				Tier:          domain.TierMedium,
			}
		}
		mock := &mockLookupService{
			resp: &domain.LookupResponse{
				Query:   "glucose",
				Results: map[domain.DatasetID][]domain.ScoredResult{domain.DatasetLOINC: results},
				Pages: map[domain.DatasetID]domain.PageInfo{
					domain.DatasetLOINC: {Start: 1, End: 3, Total: 5},
				},
				HasMore: true,
			},
		}
		server := newTestServer(t, mock)

		_, output, err := server.handleLookup(ctx, nil, LookupInput{Term: "glucose"})

		require.NoError(t, err)
		assert.Equal(t, 3, output.Count)
		assert.True(t, output.HasMore)
	})

	t.Run("returns error on lookup failure", func(t *testing.T) {
		mock := &mockLookupService{err: errors.New("lookup failed")}
		server := newTestServer(t, mock)

		_, _, err := server.handleLookup(ctx, nil, LookupInput{Term: "x"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "lookup failed")
	})
}

func TestServer_handleNextPage(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the page contents", func(t *testing.T) {
		mock := &mockLookupService{
			page: &domain.PageView{
				Query: "diabetes",
				Page:  2,
				Results: map[domain.DatasetID][]domain.ScoredResult{
					domain.DatasetICD10CM: {
						{
							CandidateCode: domain.CandidateCode{Dataset: domain.DatasetICD10CM, Code: "E11.65"},
							Relevance:     0.7,
							Tier:          domain.TierMedium,
						},
					},
				},
				HasMore:    false,
				TotalShown: 1,
			},
		}
		server := newTestServer(t, mock)

		_, output, err := server.handleNextPage(ctx, nil, NextPageInput{})

		require.NoError(t, err)
		assert.Equal(t, 2, output.Page)
		assert.Equal(t, 1, output.Count)
		assert.False(t, output.HasMore)
		require.Len(t, output.Results, 1)
		assert.Equal(t, "E11.65", output.Results[0].Code)
	})

	t.Run("propagates pagination errors", func(t *testing.T) {
		mock := &mockLookupService{err: domain.ErrNoMoreResults}
		server := newTestServer(t, mock)

		_, _, err := server.handleNextPage(ctx, nil, NextPageInput{})

		assert.ErrorIs(t, err, domain.ErrNoMoreResults)
	})
}

func TestServer_handleClearCache(t *testing.T) {
	ctx := context.Background()

	t.Run("reports entries removed", func(t *testing.T) {
		mock := &mockLookupService{stats: domain.CacheStats{Size: 4}}
		server := newTestServer(t, mock)

		_, output, err := server.handleClearCache(ctx, nil, ClearCacheInput{})

		require.NoError(t, err)
		assert.Equal(t, 4, output.EntriesRemoved)
		assert.Equal(t, 1, mock.clearCalls)
	})

	t.Run("returns error on clear failure", func(t *testing.T) {
		mock := &mockLookupService{clearErr: errors.New("clear failed")}
		server := newTestServer(t, mock)

		_, _, err := server.handleClearCache(ctx, nil, ClearCacheInput{})

		require.Error(t, err)
	})
}

func TestServer_handleCacheStatus(t *testing.T) {
	ctx := context.Background()

	mock := &mockLookupService{
		stats: domain.CacheStats{
			Size:        2,
			TTL:         time.Hour,
			Enabled:     true,
			ActiveQuery: "diabetes",
			Page:        1,
		},
	}
	server := newTestServer(t, mock)

	_, output, err := server.handleCacheStatus(ctx, nil, CacheStatusInput{})

	require.NoError(t, err)
	assert.Equal(t, 2, output.Size)
	assert.True(t, output.Enabled)
	assert.Equal(t, "1h0m0s", output.TTL)
	assert.Equal(t, "diabetes", output.ActiveQuery)
	assert.Equal(t, 1, output.Page)
}

func TestServer_handleListDatasets(t *testing.T) {
	ctx := context.Background()

	mock := &mockLookupService{datasets: domain.Datasets()}
	server := newTestServer(t, mock)

	_, output, err := server.handleListDatasets(ctx, nil, ListDatasetsInput{})

	require.NoError(t, err)
	assert.Equal(t, len(domain.Datasets()), output.Count)
	assert.Equal(t, "icd10cm", output.Datasets[0].ID)
	assert.Equal(t, "ICD-10-CM", output.Datasets[0].Name)
	assert.True(t, output.Datasets[0].Official)
}
