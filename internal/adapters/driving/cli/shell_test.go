package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medatlas-labs/medcode-cli/internal/core/domain"
)

// runShellWithInput executes the shell command feeding it the given lines.
func runShellWithInput(t *testing.T, input string) string {
	t.Helper()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(input))
	rootCmd.SetArgs([]string{"shell"})
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}()

	err := rootCmd.Execute()
	require.NoError(t, err)
	return buf.String()
}

func TestShellCmd_Use(t *testing.T) {
	assert.Equal(t, "shell", shellCmd.Use)
}

func TestShellCmd_LookupAndQuit(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out := runShellWithInput(t, "diabetes\nquit\n")

	assert.Contains(t, out, "Medical Code Lookup")
	assert.Contains(t, out, "IMPORTANT DISCLAIMER")
	assert.Contains(t, out, "Enter clinical term: ")
	assert.Contains(t, out, "Searching medical codes for 'diabetes'...")
	assert.Contains(t, out, "Query: type 2 diabetes")
	assert.Contains(t, out, "Goodbye!")
}

func TestShellCmd_EmptyInput(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out := runShellWithInput(t, "\nquit\n")

	assert.Contains(t, out, "Please enter a term.")
}

func TestShellCmd_EOFSaysGoodbye(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out := runShellWithInput(t, "")

	assert.Contains(t, out, "Goodbye!")
}

func TestShellCmd_Help(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out := runShellWithInput(t, "help\nquit\n")

	assert.Contains(t, out, "Shell commands")
	assert.Contains(t, out, "clear cache")
}

func TestShellCmd_ContinuationShowsNextPage(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	lookupService.(*mockLookupService).page = &domain.PageView{
		Query: "type 2 diabetes",
		Page:  2,
		Results: map[domain.DatasetID][]domain.ScoredResult{
			domain.DatasetICD10CM: {
				{
					CandidateCode: domain.CandidateCode{
						Dataset:     domain.DatasetICD10CM,
						Code:        "E11.22",
						Description: "Type 2 diabetes mellitus with diabetic chronic kidney disease",
					},
					Relevance: 0.55,
					Tier:      domain.TierMedium,
				},
			},
		},
		Pages: map[domain.DatasetID]domain.PageInfo{
			domain.DatasetICD10CM: {Start: 11, End: 11, Total: 11},
		},
		TotalShown: 1,
	}

	out := runShellWithInput(t, "more\nquit\n")

	assert.Contains(t, out, "(CONTINUED - Page 2)")
	assert.Contains(t, out, "E11.22")
	assert.Contains(t, out, "showing 11-11 of 11 results")
}

func TestShellCmd_ContinuationWithoutLookup(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	lookupService.(*mockLookupService).pageErr = domain.ErrNoActiveQuery

	out := runShellWithInput(t, "more\nquit\n")

	assert.Contains(t, out, "No previous query to continue. Enter a clinical term first.")
}

func TestShellCmd_ContinuationExhausted(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	lookupService.(*mockLookupService).pageErr = domain.ErrNoMoreResults

	out := runShellWithInput(t, "more\nquit\n")

	assert.Contains(t, out, "No more results available.")
	assert.Contains(t, out, "All codes for 'type 2 diabetes' have been displayed.")
}

func TestShellCmd_ClearCache(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out := runShellWithInput(t, "clear cache\nquit\n")

	assert.Contains(t, out, "Cleared query cache (2 entries removed)")
	assert.Contains(t, out, "All future queries will be processed fresh.")
	assert.Equal(t, 1, lookupService.(*mockLookupService).clearCalls)
}

func TestShellCmd_CacheStatus(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out := runShellWithInput(t, "cache status\nquit\n")

	assert.Contains(t, out, "Cache Status:")
	assert.Contains(t, out, "Cached queries: 2")
	assert.Contains(t, out, "Last query:     type 2 diabetes")
}

func TestShellCmd_Datasets(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out := runShellWithInput(t, "datasets\nquit\n")

	assert.Contains(t, out, "Supported coding systems")
	assert.Contains(t, out, "ICD-10-CM")
}

func TestShellCmd_LookupErrorKeepsSessionAlive(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	lookupService.(*mockLookupService).lookupErr = domain.ErrDatasetUnavailable

	out := runShellWithInput(t, "gibberish\nquit\n")

	assert.Contains(t, out, "Error:")
	assert.Contains(t, out, "Goodbye!")
}
