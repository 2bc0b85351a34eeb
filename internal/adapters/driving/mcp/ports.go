package mcp

import (
	"github.com/custodia-labs/frontdesk/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Retriever answers context retrieval requests.
	Retriever driving.Retriever

	// Indexer drives document ingestion.
	Indexer driving.Indexer

	// Documents exposes read access to stored documents.
	Documents driving.DocumentReader
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Retriever == nil {
		return ErrMissingRetriever
	}
	// Indexer and Documents are optional: without them the server is
	// retrieval-only.
	return nil
}
