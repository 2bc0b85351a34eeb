package driving

import (
	"context"

	"github.com/custodia-labs/frontdesk/internal/core/domain"
)

// IndexResult reports the outcome of a single-document operation.
type IndexResult struct {
	// Success reports whether the operation completed.
	Success bool

	// Message is a human-readable summary.
	Message string

	// DocumentID is the document the result refers to. For version
	// operations this is the new active version.
	DocumentID string

	// IndexedChunks is the number of chunks persisted with embeddings.
	IndexedChunks int
}

// BulkIndexResult aggregates a multi-business indexing run.
type BulkIndexResult struct {
	// Businesses is the number of businesses visited.
	Businesses int

	// Succeeded is the number indexed without error.
	Succeeded int

	// Failed is the number that reported at least one error.
	Failed int

	// Errors holds one message per failed business.
	Errors []string
}

// FieldUpdateResult reports an incremental structured-field update.
type FieldUpdateResult struct {
	// DeletedDocuments is the number of superseded synthesized documents.
	DeletedDocuments int

	// IndexedDocuments is the number of regenerated documents.
	IndexedDocuments int

	// IndexedChunks is the total number of chunks persisted.
	IndexedChunks int
}

// Indexer drives the document ingestion lifecycle.
type Indexer interface {
	// CreateAndIndex creates a document from a raw ingestion request
	// and immediately drives it through the indexing state machine.
	CreateAndIndex(ctx context.Context, req domain.IngestRequest) (*IndexResult, error)

	// IndexDocument runs an indexing pass for an existing document.
	// fileData carries raw file bytes for pdf documents.
	IndexDocument(ctx context.Context, documentID string, fileData []byte) (*IndexResult, error)

	// ReindexDocument deletes the document's existing chunks and runs
	// a fresh indexing pass.
	ReindexDocument(ctx context.Context, documentID string) (*IndexResult, error)

	// UpdateDocumentVersion creates a new version with the given
	// content, deactivating the current one, and indexes it.
	UpdateDocumentVersion(ctx context.Context, documentID, newContent string) (*IndexResult, error)

	// RevertDocumentVersion restores the previous version of a document.
	RevertDocumentVersion(ctx context.Context, documentID string) (*IndexResult, error)

	// IndexAllBusinesses iterates active businesses in batches of
	// batchSize, regenerating and indexing each one's knowledge.
	// One business's failure never aborts the run.
	IndexAllBusinesses(ctx context.Context, batchSize int) (*BulkIndexResult, error)

	// UpdateBusinessKnowledge regenerates and reindexes only the
	// synthesized documents sourced from the changed structured fields.
	UpdateBusinessKnowledge(ctx context.Context, businessID string, changedFields []string) (*FieldUpdateResult, error)
}
