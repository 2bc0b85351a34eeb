package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/frontdesk/internal/core/domain"
	"github.com/custodia-labs/frontdesk/internal/core/ports/driven"
	"github.com/custodia-labs/frontdesk/internal/core/ports/driving"
)

// Ensure DocumentService implements the driving port.
var _ driving.DocumentReader = (*DocumentService)(nil)

// DocumentService provides read access to stored documents.
type DocumentService struct {
	store driven.KnowledgeStore
}

// NewDocumentService creates a new document read service.
func NewDocumentService(store driven.KnowledgeStore) *DocumentService {
	return &DocumentService{store: store}
}

// GetDocument retrieves a document by ID.
func (s *DocumentService) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	doc, err := s.store.GetDocument(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

// ListDocuments returns all documents for a business.
func (s *DocumentService) ListDocuments(ctx context.Context, businessID string) ([]domain.Document, error) {
	docs, err := s.store.ListDocuments(ctx, businessID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// CountChunks returns the number of stored chunks for a document.
func (s *DocumentService) CountChunks(ctx context.Context, documentID string) (int, error) {
	chunks, err := s.store.GetChunks(ctx, documentID)
	if err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return len(chunks), nil
}
