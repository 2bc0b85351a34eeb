// Package driving provides interfaces for external actors
// (primary/inbound ports).
//
// The CLI and MCP adapters depend on these interfaces to drive the
// core services. The conversational platform consumes the engine
// through exactly two of them: Indexer for ingestion and Retriever
// for context retrieval.
package driving
