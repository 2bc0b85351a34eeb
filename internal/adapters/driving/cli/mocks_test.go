package cli

import (
	"context"

	"github.com/custodia-labs/frontdesk/internal/core/domain"
	"github.com/custodia-labs/frontdesk/internal/core/ports/driving"
)

// mockIndexer is a mock implementation of driving.Indexer.
type mockIndexer struct {
	result     *driving.IndexResult
	bulkResult *driving.BulkIndexResult
	fieldsRes  *driving.FieldUpdateResult
	err        error

	lastIngest  domain.IngestRequest
	lastDocID   string
	lastFields  []string
	lastContent string
}

func (m *mockIndexer) CreateAndIndex(_ context.Context, req domain.IngestRequest) (*driving.IndexResult, error) {
	m.lastIngest = req
	return m.result, m.err
}

func (m *mockIndexer) IndexDocument(_ context.Context, documentID string, _ []byte) (*driving.IndexResult, error) {
	m.lastDocID = documentID
	return m.result, m.err
}

func (m *mockIndexer) ReindexDocument(_ context.Context, documentID string) (*driving.IndexResult, error) {
	m.lastDocID = documentID
	return m.result, m.err
}

func (m *mockIndexer) UpdateDocumentVersion(_ context.Context, documentID, newContent string) (*driving.IndexResult, error) {
	m.lastDocID = documentID
	m.lastContent = newContent
	return m.result, m.err
}

func (m *mockIndexer) RevertDocumentVersion(_ context.Context, documentID string) (*driving.IndexResult, error) {
	m.lastDocID = documentID
	return m.result, m.err
}

func (m *mockIndexer) IndexAllBusinesses(_ context.Context, _ int) (*driving.BulkIndexResult, error) {
	return m.bulkResult, m.err
}

func (m *mockIndexer) UpdateBusinessKnowledge(_ context.Context, businessID string, changedFields []string) (*driving.FieldUpdateResult, error) {
	m.lastDocID = businessID
	m.lastFields = changedFields
	return m.fieldsRes, m.err
}

// mockRetriever is a mock implementation of driving.Retriever.
type mockRetriever struct {
	context string
	debug   *domain.RetrievalDebug

	lastQuery    string
	lastBusiness string
	lastOpts     domain.RetrievalOptions
}

func (m *mockRetriever) RetrieveContext(
	ctx context.Context, query, businessID string, opts domain.RetrievalOptions,
) string {
	result, _ := m.RetrieveContextDebug(ctx, query, businessID, opts)
	return result
}

func (m *mockRetriever) RetrieveContextDebug(
	_ context.Context, query, businessID string, opts domain.RetrievalOptions,
) (string, *domain.RetrievalDebug) {
	m.lastQuery = query
	m.lastBusiness = businessID
	m.lastOpts = opts
	return m.context, m.debug
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

// setupTestServices installs default mocks and returns a cleanup that
// restores the previous services.
func setupTestServices() func() {
	oldIndexer := indexerService
	oldRetriever := retrieverService
	oldDocuments := documentService

	indexerService = &mockIndexer{
		result:     &driving.IndexResult{Success: true, DocumentID: "doc-1", IndexedChunks: 2},
		bulkResult: &driving.BulkIndexResult{Businesses: 1, Succeeded: 1},
		fieldsRes:  &driving.FieldUpdateResult{IndexedDocuments: 1, IndexedChunks: 2},
	}
	retrieverService = &mockRetriever{
		context: "Relevant information:\n\nSource: Hours (note)\nOpen 9-5 weekdays.\n",
		debug:   &domain.RetrievalDebug{VectorHits: 1},
	}
	documentService = &mockDocuments{}

	return func() {
		indexerService = oldIndexer
		retrieverService = oldRetriever
		documentService = oldDocuments
	}
}
