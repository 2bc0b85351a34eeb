package driving

import (
	"context"

	"github.com/custodia-labs/frontdesk/internal/core/domain"
)

// DocumentReader exposes read access to stored documents for the CLI
// and MCP surfaces.
type DocumentReader interface {
	// GetDocument retrieves a document by ID.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// ListDocuments returns all documents for a business.
	ListDocuments(ctx context.Context, businessID string) ([]domain.Document, error)

	// CountChunks returns the number of stored chunks for a document.
	CountChunks(ctx context.Context, documentID string) (int, error)
}
