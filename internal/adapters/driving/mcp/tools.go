package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/frontdesk/internal/core/domain"
)

// RetrieveInput is the input schema for the retrieve_context tool.
type RetrieveInput struct {
	Query         string  `json:"query" jsonschema:"the customer query to retrieve grounding context for"`
	BusinessID    string  `json:"business_id" jsonschema:"the business whose knowledge to search"`
	Service       string  `json:"service,omitempty" jsonschema:"restrict retrieval to a named service"`
	Type          string  `json:"type,omitempty" jsonschema:"restrict retrieval to one document type"`
	Limit         int     `json:"limit,omitempty" jsonschema:"maximum number of chunks to retrieve (default 5)"`
	MinSimilarity float64 `json:"min_similarity,omitempty" jsonschema:"similarity cutoff for vector search"`
}

// RetrieveOutput is the output schema for the retrieve_context tool.
type RetrieveOutput struct {
	Context         string `json:"context"`
	DetectedService string `json:"detected_service,omitempty"`
	VectorHits      int    `json:"vector_hits"`
	KeywordHits     int    `json:"keyword_hits"`
	KeywordFallback bool   `json:"keyword_fallback"`
}

// IndexInput is the input schema for the index_document tool.
type IndexInput struct {
	BusinessID string `json:"business_id" jsonschema:"the business the document belongs to"`
	Title      string `json:"title" jsonschema:"the document title"`
	Type       string `json:"type,omitempty" jsonschema:"document type (note, policy, faq, guide, general; default note)"`
	Content    string `json:"content" jsonschema:"the text content to index"`
	ServiceID  string `json:"service_id,omitempty" jsonschema:"service ID to scope the document to"`
}

// IndexOutput is the output schema for the index_document tool.
type IndexOutput struct {
	DocumentID    string `json:"document_id"`
	IndexedChunks int    `json:"indexed_chunks"`
	Success       bool   `json:"success"`
	Message       string `json:"message,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "retrieve_context",
		Description: "Retrieve grounding context from a business's indexed knowledge",
	}, s.handleRetrieve)

	if s.ports.Indexer != nil {
		mcp.AddTool(s.mcp, &mcp.Tool{
			Name:        "index_document",
			Description: "Create and index a knowledge document for a business",
		}, s.handleIndex)
	}
}

// handleRetrieve handles the retrieve_context tool invocation.
func (s *Server) handleRetrieve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	opts := domain.RetrievalOptions{
		ServiceFilter: input.Service,
		DocumentType:  domain.DocumentType(input.Type),
		Limit:         input.Limit,
		MinSimilarity: input.MinSimilarity,
	}

	result, debug := s.ports.Retriever.RetrieveContextDebug(ctx, input.Query, input.BusinessID, opts)

	output := RetrieveOutput{Context: result}
	if debug != nil {
		output.DetectedService = debug.DetectedService
		output.VectorHits = debug.VectorHits
		output.KeywordHits = debug.KeywordHits
		output.KeywordFallback = debug.UsedKeywordFallback
	}

	return nil, output, nil
}

// handleIndex handles the index_document tool invocation.
func (s *Server) handleIndex(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IndexInput,
) (*mcp.CallToolResult, IndexOutput, error) {
	docType := domain.DocumentType(input.Type)
	if docType == "" {
		docType = domain.DocumentTypeNote
	}

	req := domain.IngestRequest{
		BusinessID: input.BusinessID,
		Title:      input.Title,
		Type:       docType,
		Content:    input.Content,
		ServiceID:  input.ServiceID,
	}

	result, err := s.ports.Indexer.CreateAndIndex(ctx, req)
	if err != nil {
		return nil, IndexOutput{}, err
	}

	return nil, IndexOutput{
		DocumentID:    result.DocumentID,
		IndexedChunks: result.IndexedChunks,
		Success:       result.Success,
		Message:       result.Message,
	}, nil
}
