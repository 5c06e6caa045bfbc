// Package mcp provides an MCP (Model Context Protocol) server adapter for
// medcode. It enables AI assistants like Claude to look up medical codes for
// clinical terms.
package mcp

import "errors"

// ErrMissingLookupService is returned when the lookup service is not provided.
var ErrMissingLookupService = errors.New("mcp: lookup service is required")
