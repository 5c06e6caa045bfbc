package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/medatlas-labs/medcode-cli/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for medcode resources.
	uriScheme = "medcode://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for listing the supported coding systems.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "datasets",
		Name:        "datasets",
		Description: "List of all supported terminology datasets",
		MIMEType:    "application/json",
	}, s.handleDatasetsResource)

	// Template for a single dataset's details.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "datasets/{datasetId}",
		Name:        "dataset-details",
		Description: "Details of a specific terminology dataset",
		MIMEType:    "application/json",
	}, s.handleDatasetResource)
}

// datasetDetail is the JSON shape served for dataset resources.
type datasetDetail struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Path         string `json:"path"`
	SearchFields string `json:"search_fields,omitempty"`
	Official     bool   `json:"official"`
}

// handleDatasetsResource returns the full dataset catalogue.
func (s *Server) handleDatasetsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	infos := s.ports.Lookup.Datasets(ctx)

	details := make([]datasetDetail, len(infos))
	for i, info := range infos {
		details[i] = toDatasetDetail(info)
	}

	data, err := json.MarshalIndent(details, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling datasets: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handleDatasetResource returns the details of a single dataset.
func (s *Server) handleDatasetResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	// Extract datasetId from URI: medcode://datasets/{datasetId}
	id := extractDatasetID(req.Params.URI)
	if id == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	info, ok := domain.DatasetByID(domain.DatasetID(id))
	if !ok {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	data, err := json.MarshalIndent(toDatasetDetail(info), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling dataset: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

func toDatasetDetail(info domain.DatasetInfo) datasetDetail {
	return datasetDetail{
		ID:           string(info.ID),
		Name:         info.DisplayName,
		Path:         info.Path,
		SearchFields: info.SearchFields,
		Official:     info.Official,
	}
}

// extractDatasetID extracts the dataset ID from a URI like medcode://datasets/{datasetId}.
func extractDatasetID(uri string) string {
	const prefix = uriScheme + "datasets/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	return strings.TrimPrefix(uri, prefix)
}
