// Package mcp provides an MCP (Model Context Protocol) server adapter
// for frontdesk. It exposes context retrieval and document ingestion as
// tools an LLM orchestration host can call directly.
package mcp

import "errors"

// ErrMissingRetriever is returned when the retriever port is not provided.
var ErrMissingRetriever = errors.New("mcp: retriever service is required")
