package mcp

import (
	"context"
	"sort"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/medatlas-labs/medcode-cli/internal/core/domain"
)

// LookupInput is the input schema for the lookup_code tool.
type LookupInput struct {
	Term string `json:"term" jsonschema:"the clinical term to resolve, e.g. a diagnosis, medication or lab test"`
}

// NextPageInput is the input schema for the next_page tool.
type NextPageInput struct{}

// ClearCacheInput is the input schema for the clear_cache tool.
type ClearCacheInput struct{}

// CacheStatusInput is the input schema for the cache_status tool.
type CacheStatusInput struct{}

// ListDatasetsInput is the input schema for the list_datasets tool.
type ListDatasetsInput struct{}

// CodeOutput represents a single ranked medical code.
type CodeOutput struct {
	System      string  `json:"system"`
	SystemName  string  `json:"system_name"`
	Code        string  `json:"code"`
	Description string  `json:"description"`
	Relevance   float64 `json:"relevance"`
	Tier        string  `json:"tier"`
}

// LookupOutput is the output schema for the lookup_code tool.
type LookupOutput struct {
	Query        string       `json:"query"`
	TermType     string       `json:"term_type"`
	Confidence   float64      `json:"confidence"`
	QualityScore float64      `json:"quality_score"`
	Iterations   int          `json:"iterations"`
	Results      []CodeOutput `json:"results"`
	Count        int          `json:"count"`
	HasMore      bool         `json:"has_more"`
	Summary      string       `json:"summary,omitempty"`
	Cached       bool         `json:"cached"`
}

// NextPageOutput is the output schema for the next_page tool.
type NextPageOutput struct {
	Query   string       `json:"query"`
	Page    int          `json:"page"`
	Results []CodeOutput `json:"results"`
	Count   int          `json:"count"`
	HasMore bool         `json:"has_more"`
}

// ClearCacheOutput is the output schema for the clear_cache tool.
type ClearCacheOutput struct {
	EntriesRemoved int `json:"entries_removed"`
}

// CacheStatusOutput is the output schema for the cache_status tool.
type CacheStatusOutput struct {
	Size        int    `json:"size"`
	Enabled     bool   `json:"enabled"`
	TTL         string `json:"ttl"`
	ActiveQuery string `json:"active_query,omitempty"`
	Page        int    `json:"page,omitempty"`
}

// DatasetOutput represents one supported coding system.
type DatasetOutput struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Official bool   `json:"official"`
}

// ListDatasetsOutput is the output schema for the list_datasets tool.
type ListDatasetsOutput struct {
	Datasets []DatasetOutput `json:"datasets"`
	Count    int             `json:"count"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "lookup_code",
		Description: "Resolve a clinical term to ranked medical codes across ICD-10-CM, LOINC, RxTerms and other coding systems",
	}, s.handleLookup)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "next_page",
		Description: "Return the next page of results for the most recent lookup",
	}, s.handleNextPage)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "clear_cache",
		Description: "Clear all cached lookup results",
	}, s.handleClearCache)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "cache_status",
		Description: "Report the result cache and pagination state",
	}, s.handleCacheStatus)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_datasets",
		Description: "List the supported terminology datasets",
	}, s.handleListDatasets)
}

// handleLookup handles the lookup_code tool invocation. Only the first page
// of each dataset's results is returned; next_page serves the rest.
func (s *Server) handleLookup(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input LookupInput,
) (*mcp.CallToolResult, LookupOutput, error) {
	resp, err := s.ports.Lookup.Lookup(ctx, input.Term)
	if err != nil {
		return nil, LookupOutput{}, err
	}

	var codes []CodeOutput
	for _, id := range resp.DatasetOrder() {
		results := resp.Results[id]
		if window, ok := resp.Pages[id]; ok {
			limit := window.End - window.Start + 1
			if limit < len(results) {
				results = results[:limit]
			}
		}
		codes = append(codes, toCodeOutputs(id, results)...)
	}

	output := LookupOutput{
		Query:        resp.Query,
		TermType:     resp.Classification.TermType.String(),
		Confidence:   resp.Classification.Confidence,
		QualityScore: resp.Quality.Score,
		Iterations:   resp.Quality.IterationCount,
		Results:      codes,
		Count:        len(codes),
		HasMore:      resp.HasMore,
		Cached:       resp.CacheSource,
	}
	if resp.Synthesis != nil {
		output.Summary = resp.Synthesis.ExecutiveSummary
	}

	return nil, output, nil
}

// handleNextPage handles the next_page tool invocation.
func (s *Server) handleNextPage(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ NextPageInput,
) (*mcp.CallToolResult, NextPageOutput, error) {
	page, err := s.ports.Lookup.NextPage(ctx)
	if err != nil {
		return nil, NextPageOutput{}, err
	}

	ids := make([]domain.DatasetID, 0, len(page.Results))
	for id := range page.Results {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var codes []CodeOutput
	for _, id := range ids {
		codes = append(codes, toCodeOutputs(id, page.Results[id])...)
	}

	return nil, NextPageOutput{
		Query:   page.Query,
		Page:    page.Page,
		Results: codes,
		Count:   len(codes),
		HasMore: page.HasMore,
	}, nil
}

// handleClearCache handles the clear_cache tool invocation.
func (s *Server) handleClearCache(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ClearCacheInput,
) (*mcp.CallToolResult, ClearCacheOutput, error) {
	stats, err := s.ports.Lookup.CacheStats(ctx)
	if err != nil {
		return nil, ClearCacheOutput{}, err
	}
	if err := s.ports.Lookup.ClearCache(ctx); err != nil {
		return nil, ClearCacheOutput{}, err
	}
	return nil, ClearCacheOutput{EntriesRemoved: stats.Size}, nil
}

// handleCacheStatus handles the cache_status tool invocation.
func (s *Server) handleCacheStatus(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ CacheStatusInput,
) (*mcp.CallToolResult, CacheStatusOutput, error) {
	stats, err := s.ports.Lookup.CacheStats(ctx)
	if err != nil {
		return nil, CacheStatusOutput{}, err
	}
	return nil, CacheStatusOutput{
		Size:        stats.Size,
		Enabled:     stats.Enabled,
		TTL:         stats.TTL.String(),
		ActiveQuery: stats.ActiveQuery,
		Page:        stats.Page,
	}, nil
}

// handleListDatasets handles the list_datasets tool invocation.
func (s *Server) handleListDatasets(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListDatasetsInput,
) (*mcp.CallToolResult, ListDatasetsOutput, error) {
	infos := s.ports.Lookup.Datasets(ctx)

	output := ListDatasetsOutput{
		Datasets: make([]DatasetOutput, len(infos)),
		Count:    len(infos),
	}
	for i, info := range infos {
		output.Datasets[i] = DatasetOutput{
			ID:       string(info.ID),
			Name:     info.DisplayName,
			Official: info.Official,
		}
	}
	return nil, output, nil
}

func toCodeOutputs(id domain.DatasetID, results []domain.ScoredResult) []CodeOutput {
	name := string(id)
	if info, ok := domain.DatasetByID(id); ok {
		name = info.DisplayName
	}

	out := make([]CodeOutput, len(results))
	for i, r := range results {
		out[i] = CodeOutput{
			System:      string(id),
			SystemName:  name,
			Code:        r.Code,
			Description: r.Description,
			Relevance:   r.Relevance,
			Tier:        r.Tier.Label(),
		}
	}
	return out
}
