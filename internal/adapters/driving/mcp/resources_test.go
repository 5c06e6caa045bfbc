package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medatlas-labs/medcode-cli/internal/core/domain"
)

func readResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{URI: uri},
	}
}

func TestServer_handleDatasetsResource(t *testing.T) {
	ctx := context.Background()

	mock := &mockLookupService{datasets: domain.Datasets()}
	server := newTestServer(t, mock)

	result, err := server.handleDatasetsResource(ctx, readResourceRequest(uriScheme+"datasets"))

	require.NoError(t, err)
	require.Len(t, result.Contents, 1)
	assert.Equal(t, "application/json", result.Contents[0].MIMEType)
	assert.Equal(t, uriScheme+"datasets", result.Contents[0].URI)

	var details []datasetDetail
	require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &details))
	assert.Len(t, details, len(domain.Datasets()))
	assert.Equal(t, "icd10cm", details[0].ID)
	assert.Equal(t, "ICD-10-CM", details[0].Name)
	assert.True(t, details[0].Official)
}

func TestServer_handleDatasetResource(t *testing.T) {
	ctx := context.Background()
	server := newTestServer(t, &mockLookupService{})

	t.Run("returns dataset details", func(t *testing.T) {
		result, err := server.handleDatasetResource(ctx, readResourceRequest(uriScheme+"datasets/loinc"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)

		var detail datasetDetail
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &detail))
		assert.Equal(t, "loinc", detail.ID)
		assert.Equal(t, "LOINC", detail.Name)
		assert.Equal(t, "loinc_items/v3/search", detail.Path)
	})

	t.Run("unknown dataset is not found", func(t *testing.T) {
		_, err := server.handleDatasetResource(ctx, readResourceRequest(uriScheme+"datasets/nope"))
		require.Error(t, err)
	})

	t.Run("malformed URI is not found", func(t *testing.T) {
		_, err := server.handleDatasetResource(ctx, readResourceRequest("bogus://datasets/loinc"))
		require.Error(t, err)
	})
}

func TestExtractDatasetID(t *testing.T) {
	tests := []struct {
		name string
		uri  string
		want string
	}{
		{"valid URI", uriScheme + "datasets/icd10cm", "icd10cm"},
		{"wrong scheme", "other://datasets/icd10cm", ""},
		{"missing ID", uriScheme + "datasets/", ""},
		{"list URI", uriScheme + "datasets", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractDatasetID(tt.uri))
		})
	}
}
