package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/medatlas-labs/medcode-cli/internal/core/domain"
)

// --- Mock implementations ---

type mockLookupService struct {
	resp  *domain.LookupResponse
	page  *domain.PageView
	stats domain.CacheStats

	lookupErr error
	pageErr   error
	clearErr  error
	statsErr  error

	gotQuery   string
	clearCalls int
}

func (m *mockLookupService) Lookup(_ context.Context, query string) (*domain.LookupResponse, error) {
	m.gotQuery = query
	return m.resp, m.lookupErr
}

func (m *mockLookupService) NextPage(_ context.Context) (*domain.PageView, error) {
	return m.page, m.pageErr
}

func (m *mockLookupService) ClearCache(_ context.Context) error {
	m.clearCalls++
	return m.clearErr
}

func (m *mockLookupService) CacheStats(_ context.Context) (domain.CacheStats, error) {
	return m.stats, m.statsErr
}

func (m *mockLookupService) Datasets(_ context.Context) []domain.DatasetInfo {
	return domain.Datasets()
}

type mockSettingsService struct {
	cfg     domain.Config
	getErr  error
	setErr  error
	pingErr error

	gotProvider string
	gotModel    string
	gotKey      string
}

func (m *mockSettingsService) Get() (domain.Config, error) {
	return m.cfg, m.getErr
}

func (m *mockSettingsService) SetProvider(provider string) error {
	m.gotProvider = provider
	if m.setErr != nil {
		return m.setErr
	}
	if provider == "none" {
		provider = ""
	}
	m.cfg.LLM.Provider = domain.AIProvider(provider)
	return nil
}

func (m *mockSettingsService) SetModel(model string) error {
	m.gotModel = model
	if m.setErr != nil {
		return m.setErr
	}
	m.cfg.LLM.Model = model
	return nil
}

func (m *mockSettingsService) SetAPIKey(key string) error {
	m.gotKey = key
	if m.setErr != nil {
		return m.setErr
	}
	m.cfg.LLM.APIKey = key
	return nil
}

func (m *mockSettingsService) ValidateLLMConfig() error {
	return m.pingErr
}

func (m *mockSettingsService) ConfigPath() string {
	return "/tmp/medcode/config.toml"
}

// sampleResponse builds a realistic two-system answer for display tests.
func sampleResponse() *domain.LookupResponse {
	return &domain.LookupResponse{
		RequestID:       "req-1",
		Query:           "type 2 diabetes",
		NormalisedQuery: "type 2 diabetes",
		Classification: domain.TermClassification{
			TermType:   domain.TermTypeDiagnosis,
			Datasets:   []domain.DatasetID{domain.DatasetICD10CM, domain.DatasetConditions},
			Confidence: 0.9,
			Rationale:  "matched diagnosis keywords",
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
				{
					CandidateCode: domain.CandidateCode{
						Dataset:     domain.DatasetICD10CM,
						Code:        "E11.65",
						Description: "Type 2 diabetes mellitus with hyperglycemia",
					},
					Relevance: 0.71,
					Tier:      domain.TierMedium,
				},
			},
			domain.DatasetConditions: {
				{
					CandidateCode: domain.CandidateCode{
						Dataset:     domain.DatasetConditions,
						Code:        "1234",
						Description: "Diabetes mellitus type 2",
					},
					Relevance: 0.62,
					Tier:      domain.TierMedium,
				},
			},
		},
		Quality: domain.QualityMetrics{
			Score:            0.81,
			MeanRelevance:    0.76,
			MaxRelevance:     0.95,
			MinRelevance:     0.62,
			HighQualityCount: 1,
			ResultCount:      3,
			IterationCount:   1,
		},
		Iterations: []domain.IterationRecord{
			{Index: 1, SearchTerms: []string{"type 2 diabetes"}, ResultCount: 3, MeanRelevance: 0.76, QualityScore: 0.81},
		},
		Pages: map[domain.DatasetID]domain.PageInfo{
			domain.DatasetICD10CM:    {Start: 1, End: 2, Total: 2},
			domain.DatasetConditions: {Start: 1, End: 1, Total: 1},
		},
	}
}

// setupTestServices installs mock services and returns a cleanup function.
func setupTestServices() func() {
	oldLookup := lookupService
	oldSettings := settingsService
	oldDisplay := displayCfg
	oldWarnings := startupWarnings

	lookupService = &mockLookupService{
		resp:  sampleResponse(),
		stats: domain.CacheStats{Size: 2, Enabled: true, ActiveQuery: "type 2 diabetes", Page: 1, PageSize: 10},
	}
	settingsService = &mockSettingsService{cfg: domain.DefaultConfig()}
	displayCfg = domain.DefaultConfig().Display
	startupWarnings = nil

	return func() {
		lookupService = oldLookup
		settingsService = oldSettings
		displayCfg = oldDisplay
		startupWarnings = oldWarnings
	}
}

// --- Tests ---

func TestRootCmd_Use(t *testing.T) {
	assert.Equal(t, "medcode", rootCmd.Use)
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	commands := rootCmd.Commands()
	commandNames := make([]string, 0, len(commands))
	for _, cmd := range commands {
		commandNames = append(commandNames, cmd.Name())
	}

	assert.Contains(t, commandNames, "lookup")
	assert.Contains(t, commandNames, "shell")
	assert.Contains(t, commandNames, "cache")
	assert.Contains(t, commandNames, "datasets")
	assert.Contains(t, commandNames, "settings")
	assert.Contains(t, commandNames, "version")
	assert.Contains(t, commandNames, "mcp")
}

func TestRootCmd_HasPersistentFlags(t *testing.T) {
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("verbose"))
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("no-color"))
}

func TestEnvBool(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  bool
	}{
		{"one is true", "1", true},
		{"true is true", "true", true},
		{"mixed case yes", "YES", true},
		{"zero is false", "0", false},
		{"empty is false", "", false},
		{"garbage is false", "maybe", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("MEDCODE_TEST_FLAG", tt.value)
			assert.Equal(t, tt.want, envBool("MEDCODE_TEST_FLAG"))
		})
	}
}
