package mcp

import (
	"context"

	"github.com/custodia-labs/frontdesk/internal/core/domain"
	"github.com/custodia-labs/frontdesk/internal/core/ports/driving"
)

// mockRetriever is a mock implementation of driving.Retriever.
type mockRetriever struct {
	context string
	debug   *domain.RetrievalDebug
}

func (m *mockRetriever) RetrieveContext(
	_ context.Context, _, _ string, _ domain.RetrievalOptions,
) string {
	return m.context
}

func (m *mockRetriever) RetrieveContextDebug(
	_ context.Context, _, _ string, _ domain.RetrievalOptions,
) (string, *domain.RetrievalDebug) {
	return m.context, m.debug
}

// mockIndexer is a mock implementation of driving.Indexer.
type mockIndexer struct {
	result     *driving.IndexResult
	lastIngest domain.IngestRequest
	err        error
}

func (m *mockIndexer) CreateAndIndex(_ context.Context, req domain.IngestRequest) (*driving.IndexResult, error) {
	m.lastIngest = req
	return m.result, m.err
}

func (m *mockIndexer) IndexDocument(_ context.Context, _ string, _ []byte) (*driving.IndexResult, error) {
	return m.result, m.err
}

func (m *mockIndexer) ReindexDocument(_ context.Context, _ string) (*driving.IndexResult, error) {
	return m.result, m.err
}

func (m *mockIndexer) UpdateDocumentVersion(_ context.Context, _, _ string) (*driving.IndexResult, error) {
	return m.result, m.err
}

func (m *mockIndexer) RevertDocumentVersion(_ context.Context, _ string) (*driving.IndexResult, error) {
	return m.result, m.err
}

func (m *mockIndexer) IndexAllBusinesses(_ context.Context, _ int) (*driving.BulkIndexResult, error) {
	return nil, m.err
}

func (m *mockIndexer) UpdateBusinessKnowledge(_ context.Context, _ string, _ []string) (*driving.FieldUpdateResult, error) {
	return nil, m.err
}

// mockDocuments is a mock implementation of driving.DocumentReader.
type mockDocuments struct {
	documents []domain.Document
	document  *domain.Document
	chunks    int
	err       error
}

func (m *mockDocuments) GetDocument(_ context.Context, _ string) (*domain.Document, error) {
	return m.document, m.err
}

func (m *mockDocuments) ListDocuments(_ context.Context, _ string) ([]domain.Document, error) {
	return m.documents, m.err
}

func (m *mockDocuments) CountChunks(_ context.Context, _ string) (int, error) {
	return m.chunks, m.err
}
