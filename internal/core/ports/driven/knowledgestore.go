package driven

import (
	"context"

	"github.com/custodia-labs/frontdesk/internal/core/domain"
)

// ChunkFilter scopes a chunk search.
type ChunkFilter struct {
	// ServiceID restricts results to chunks whose document is either
	// unrelated to any service or related to this service. Empty means
	// no service scoping.
	ServiceID string

	// DocumentType restricts results to documents of one type.
	// Empty means all types.
	DocumentType domain.DocumentType

	// Limit is the maximum number of results.
	Limit int

	// MinSimilarity is the similarity cutoff for vector search.
	// Ignored by keyword search.
	MinSimilarity float64
}

// KnowledgeStore is the versioned persistence layer for documents and
// their chunks. Backed by SQLite or Postgres.
//
// Readers only ever see chunks belonging to active documents with
// indexing status complete; both search methods enforce that scoping.
type KnowledgeStore interface {
	// SaveDocument stores or updates a document.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// GetDocument retrieves a document by ID.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// ListDocuments returns all documents for a business.
	ListDocuments(ctx context.Context, businessID string) ([]domain.Document, error)

	// ListDocumentsByField returns active documents synthesized from
	// the named structured fields.
	ListDocumentsByField(ctx context.Context, businessID string, fields []string) ([]domain.Document, error)

	// SaveChunks stores chunks for a document in one transaction.
	SaveChunks(ctx context.Context, chunks []domain.DocumentChunk) error

	// GetChunks retrieves all chunks for a document, ordered by position.
	GetChunks(ctx context.Context, documentID string) ([]domain.DocumentChunk, error)

	// DeleteChunks removes all chunks for a document.
	DeleteChunks(ctx context.Context, documentID string) error

	// DeleteDocument removes a document and its chunks.
	DeleteDocument(ctx context.Context, id string) error

	// CreateVersion deactivates the document and its chunks, creates a
	// new pending document linked back through PreviousVersionID, and
	// returns the new version. The deactivation and insert happen in a
	// single transaction. Fails with domain.ErrVersionInactive when the
	// target is not the active head of its chain.
	CreateVersion(ctx context.Context, documentID, newContent string) (*domain.Document, error)

	// Revert deactivates the current version and reactivates the
	// previous one together with its chunks, in a single transaction.
	// Fails with domain.ErrNoPreviousVersion when the document has no
	// previous version.
	Revert(ctx context.Context, documentID string) (*domain.Document, error)

	// VectorSearch returns chunks of active, fully indexed documents of
	// the business ranked by cosine similarity against the query
	// embedding, scoped by the filter.
	VectorSearch(ctx context.Context, businessID string, embedding []float32, filter ChunkFilter) ([]domain.RetrievedChunk, error)

	// KeywordSearch returns chunks of active, fully indexed documents
	// whose content contains any of the keywords, case-insensitively,
	// scoped by the filter.
	KeywordSearch(ctx context.Context, businessID string, keywords []string, filter ChunkFilter) ([]domain.RetrievedChunk, error)
}
