package mcp

import (
	"context"

	"github.com/medatlas-labs/medcode-cli/internal/core/domain"
)

// mockLookupService is a mock implementation of driving.LookupService.
type mockLookupService struct {
	resp     *domain.LookupResponse
	page     *domain.PageView
	stats    domain.CacheStats
	datasets []domain.DatasetInfo

	err      error
	statsErr error
	clearErr error

	clearCalls int
}

func (m *mockLookupService) Lookup(_ context.Context, _ string) (*domain.LookupResponse, error) {
	return m.resp, m.err
}

func (m *mockLookupService) NextPage(_ context.Context) (*domain.PageView, error) {
	return m.page, m.err
}

func (m *mockLookupService) ClearCache(_ context.Context) error {
	m.clearCalls++
	return m.clearErr
}

func (m *mockLookupService) CacheStats(_ context.Context) (domain.CacheStats, error) {
	return m.stats, m.statsErr
}

func (m *mockLookupService) Datasets(_ context.Context) []domain.DatasetInfo {
	return m.datasets
}
