package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/frontdesk/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/frontdesk/internal/chunker"
	"github.com/custodia-labs/frontdesk/internal/core/domain"
)

type indexerFixture struct {
	orchestrator  *IndexingOrchestrator
	store         *memory.KnowledgeStore
	businessStore *memory.BusinessStore
	embedder      *mockEmbeddingService
	extractor     *mockExtractor
}

func newIndexerFixture(t *testing.T) *indexerFixture {
	t.Helper()
	f := &indexerFixture{
		store:         memory.NewKnowledgeStore(),
		businessStore: memory.NewBusinessStore(),
		embedder:      &mockEmbeddingService{},
		extractor:     &mockExtractor{},
	}
	f.orchestrator = NewIndexingOrchestrator(
		f.store, f.businessStore, f.embedder, f.extractor, chunker.New(),
	)
	return f
}

func TestCreateAndIndex_Note(t *testing.T) {
	f := newIndexerFixture(t)
	ctx := context.Background()

	result, err := f.orchestrator.CreateAndIndex(ctx, domain.IngestRequest{
		BusinessID: "biz-1",
		Title:      "Hours",
		Type:       domain.DocumentTypeNote,
		Content:    "We are open Monday to Friday, 9am to 5pm.",
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.IndexedChunks)

	doc, err := f.store.GetDocument(ctx, result.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, domain.IndexingComplete, doc.IndexingStatus)
	assert.NotNil(t, doc.IndexedAt)
	assert.Empty(t, doc.IndexingError)

	chunks, err := f.store.GetChunks(ctx, result.DocumentID)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.NotEmpty(t, chunks[0].Embedding)
	assert.True(t, chunks[0].Active)
}

func TestCreateAndIndex_InvalidRequest(t *testing.T) {
	f := newIndexerFixture(t)

	_, err := f.orchestrator.CreateAndIndex(context.Background(), domain.IngestRequest{
		Title: "No business",
		Type:  domain.DocumentTypeNote,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestIndexDocument_EmptyContentEndsFailed(t *testing.T) {
	f := newIndexerFixture(t)
	ctx := context.Background()

	result, err := f.orchestrator.CreateAndIndex(ctx, domain.IngestRequest{
		BusinessID: "biz-1",
		Title:      "Blank",
		Type:       domain.DocumentTypeNote,
		Content:    "   \n\t",
	})
	// Ingestion failures are reported in the result, not raised.
	require.NoError(t, err)
	assert.False(t, result.Success)

	doc, err := f.store.GetDocument(ctx, result.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, domain.IndexingFailed, doc.IndexingStatus)
	assert.NotEmpty(t, doc.IndexingError)
}

func TestIndexDocument_AllEmbeddingsFailEndsFailed(t *testing.T) {
	f := newIndexerFixture(t)
	f.embedder.embedErr = errors.New("connection refused")
	ctx := context.Background()

	result, err := f.orchestrator.CreateAndIndex(ctx, domain.IngestRequest{
		BusinessID: "biz-1",
		Title:      "Hours",
		Type:       domain.DocumentTypeNote,
		Content:    "We are open Monday to Friday.",
	})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Zero(t, result.IndexedChunks)

	doc, err := f.store.GetDocument(ctx, result.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, domain.IndexingFailed, doc.IndexingStatus)
	assert.Contains(t, doc.IndexingError, "embeddings failed")
}

func TestIndexDocument_PDFUsesPageAwareChunking(t *testing.T) {
	f := newIndexerFixture(t)
	f.extractor.extracted = &domain.ExtractedText{
		Pages: []domain.PageText{
			{Number: 1, Text: "Aftercare instructions for new clients."},
			{Number: 2, Text: "Keep the area dry for two days."},
		},
		PageCount: 2,
	}
	ctx := context.Background()

	result, err := f.orchestrator.CreateAndIndex(ctx, domain.IngestRequest{
		BusinessID: "biz-1",
		Title:      "Aftercare",
		Type:       domain.DocumentTypePDF,
		FileName:   "aftercare.pdf",
		FileData:   []byte("%PDF-1.4 payload"),
	})
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Equal(t, 2, result.IndexedChunks)

	doc, err := f.store.GetDocument(ctx, result.DocumentID)
	require.NoError(t, err)
	// Extracted text is persisted so reindexing works without the file.
	assert.Contains(t, doc.Content, "Aftercare instructions")

	chunks, err := f.store.GetChunks(ctx, result.DocumentID)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, 1, chunks[0].Page())
	assert.Equal(t, 2, chunks[1].Page())
}

func TestReindexDocument_ReplacesChunks(t *testing.T) {
	f := newIndexerFixture(t)
	ctx := context.Background()

	created, err := f.orchestrator.CreateAndIndex(ctx, domain.IngestRequest{
		BusinessID: "biz-1",
		Title:      "Hours",
		Type:       domain.DocumentTypeNote,
		Content:    "We are open weekdays.",
	})
	require.NoError(t, err)
	require.True(t, created.Success)

	result, err := f.orchestrator.ReindexDocument(ctx, created.DocumentID)
	require.NoError(t, err)
	assert.True(t, result.Success)

	chunks, err := f.store.GetChunks(ctx, created.DocumentID)
	require.NoError(t, err)
	assert.Len(t, chunks, 1)
}

func TestReindexDocument_PDFUsesPersistedText(t *testing.T) {
	f := newIndexerFixture(t)
	f.extractor.extracted = &domain.ExtractedText{
		Pages: []domain.PageText{
			{Number: 1, Text: "Pricing list for all standard services."},
		},
		PageCount: 1,
	}
	ctx := context.Background()

	created, err := f.orchestrator.CreateAndIndex(ctx, domain.IngestRequest{
		BusinessID: "biz-1",
		Title:      "Pricing",
		Type:       domain.DocumentTypePDF,
		FileName:   "pricing.pdf",
		FileData:   []byte("%PDF-1.4 payload"),
	})
	require.NoError(t, err)
	require.True(t, created.Success)

	// The original bytes are gone; reindexing runs off the text
	// persisted during the first pass.
	result, err := f.orchestrator.ReindexDocument(ctx, created.DocumentID)
	require.NoError(t, err)
	assert.True(t, result.Success)

	doc, err := f.store.GetDocument(ctx, created.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, domain.IndexingComplete, doc.IndexingStatus)

	chunks, err := f.store.GetChunks(ctx, created.DocumentID)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0].Content, "Pricing list")
}

func TestUpdateDocumentVersion_PDF(t *testing.T) {
	f := newIndexerFixture(t)
	f.extractor.extracted = &domain.ExtractedText{
		Pages: []domain.PageText{
			{Number: 1, Text: "Old brochure text."},
		},
		PageCount: 1,
	}
	ctx := context.Background()

	created, err := f.orchestrator.CreateAndIndex(ctx, domain.IngestRequest{
		BusinessID: "biz-1",
		Title:      "Brochure",
		Type:       domain.DocumentTypePDF,
		FileName:   "brochure.pdf",
		FileData:   []byte("%PDF-1.4 payload"),
	})
	require.NoError(t, err)
	require.True(t, created.Success)

	updated, err := f.orchestrator.UpdateDocumentVersion(ctx, created.DocumentID,
		"New brochure text.")
	require.NoError(t, err)
	require.True(t, updated.Success)

	doc, err := f.store.GetDocument(ctx, updated.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, domain.IndexingComplete, doc.IndexingStatus)
	assert.Equal(t, "New brochure text.", doc.Content)

	chunks, err := f.store.GetChunks(ctx, updated.DocumentID)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "New brochure text.", chunks[0].Content)
}

func TestUpdateDocumentVersionAndRevert(t *testing.T) {
	f := newIndexerFixture(t)
	ctx := context.Background()

	created, err := f.orchestrator.CreateAndIndex(ctx, domain.IngestRequest{
		BusinessID: "biz-1",
		Title:      "Cancellation policy",
		Type:       domain.DocumentTypePolicy,
		Content:    "Cancellations require 24 hours notice.",
	})
	require.NoError(t, err)
	require.True(t, created.Success)

	updated, err := f.orchestrator.UpdateDocumentVersion(ctx, created.DocumentID,
		"Cancellations require 48 hours notice.")
	require.NoError(t, err)
	require.True(t, updated.Success)
	assert.NotEqual(t, created.DocumentID, updated.DocumentID)

	// The original version and its chunks are deactivated.
	original, err := f.store.GetDocument(ctx, created.DocumentID)
	require.NoError(t, err)
	assert.False(t, original.Active)

	originalChunks, err := f.store.GetChunks(ctx, created.DocumentID)
	require.NoError(t, err)
	require.NotEmpty(t, originalChunks)
	assert.False(t, originalChunks[0].Active)

	// Revert restores the original content and reactivates its chunks
	// without re-embedding.
	reverted, err := f.orchestrator.RevertDocumentVersion(ctx, updated.DocumentID)
	require.NoError(t, err)
	assert.True(t, reverted.Success)
	assert.Equal(t, created.DocumentID, reverted.DocumentID)

	restored, err := f.store.GetDocument(ctx, created.DocumentID)
	require.NoError(t, err)
	assert.True(t, restored.Active)
	assert.Equal(t, "Cancellations require 24 hours notice.", restored.Content)

	restoredChunks, err := f.store.GetChunks(ctx, created.DocumentID)
	require.NoError(t, err)
	require.NotEmpty(t, restoredChunks)
	assert.True(t, restoredChunks[0].Active)
}

func TestUpdateDocumentVersion_EmptyContent(t *testing.T) {
	f := newIndexerFixture(t)

	_, err := f.orchestrator.UpdateDocumentVersion(context.Background(), "doc-1", "   ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRevertDocumentVersion_NoPreviousVersion(t *testing.T) {
	f := newIndexerFixture(t)
	ctx := context.Background()

	created, err := f.orchestrator.CreateAndIndex(ctx, domain.IngestRequest{
		BusinessID: "biz-1",
		Title:      "Hours",
		Type:       domain.DocumentTypeNote,
		Content:    "Open weekdays.",
	})
	require.NoError(t, err)

	_, err = f.orchestrator.RevertDocumentVersion(ctx, created.DocumentID)
	assert.ErrorIs(t, err, domain.ErrNoPreviousVersion)
}

func TestIndexDocument_InFlightGuard(t *testing.T) {
	f := newIndexerFixture(t)
	ctx := context.Background()

	created, err := f.orchestrator.CreateAndIndex(ctx, domain.IngestRequest{
		BusinessID: "biz-1",
		Title:      "Hours",
		Type:       domain.DocumentTypeNote,
		Content:    "Open weekdays.",
	})
	require.NoError(t, err)

	require.NoError(t, f.orchestrator.acquire(created.DocumentID))
	_, err = f.orchestrator.IndexDocument(ctx, created.DocumentID, nil)
	assert.ErrorIs(t, err, domain.ErrIndexingInProgress)
	f.orchestrator.release(created.DocumentID)

	_, err = f.orchestrator.ReindexDocument(ctx, created.DocumentID)
	assert.NoError(t, err)
}

func TestUpdateBusinessKnowledge(t *testing.T) {
	f := newIndexerFixture(t)
	ctx := context.Background()

	require.NoError(t, f.businessStore.SaveBusiness(ctx, &domain.Business{
		ID: "biz-1", Name: "Main Street Barbers", Active: true,
		QuickResponses: map[string]string{
			"Is there parking?": "Yes, behind the building.",
		},
	}))
	require.NoError(t, f.businessStore.SaveService(ctx, &domain.Service{
		ID: "svc-1", BusinessID: "biz-1", Name: "Haircut",
		PriceCents: 3000, DurationMinutes: 30, Active: true,
	}))

	result, err := f.orchestrator.UpdateBusinessKnowledge(ctx, "biz-1",
		[]string{domain.FieldServiceCatalog, domain.FieldQuickResponses})
	require.NoError(t, err)
	assert.Zero(t, result.DeletedDocuments)
	assert.Equal(t, 2, result.IndexedDocuments)
	assert.Equal(t, 3, result.IndexedChunks)

	docs, err := f.store.ListDocuments(ctx, "biz-1")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	for _, doc := range docs {
		assert.Equal(t, domain.DocumentTypeFAQ, doc.Type)
		assert.Equal(t, domain.IndexingComplete, doc.IndexingStatus)
		assert.NotEmpty(t, doc.SourceField)

		chunks, err := f.store.GetChunks(ctx, doc.ID)
		require.NoError(t, err)
		for _, chunk := range chunks {
			assert.NotEmpty(t, chunk.Answer(), "synthesized chunks carry their answer")
		}
	}

	// A second pass for one field replaces only that field's document.
	again, err := f.orchestrator.UpdateBusinessKnowledge(ctx, "biz-1",
		[]string{domain.FieldQuickResponses})
	require.NoError(t, err)
	assert.Equal(t, 1, again.DeletedDocuments)
	assert.Equal(t, 1, again.IndexedDocuments)

	docs, err = f.store.ListDocuments(ctx, "biz-1")
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestUpdateBusinessKnowledge_IndexedAtReflectsCompletion(t *testing.T) {
	f := newIndexerFixture(t)
	f.embedder.delay = 10 * time.Millisecond
	ctx := context.Background()

	require.NoError(t, f.businessStore.SaveBusiness(ctx, &domain.Business{
		ID: "biz-1", Name: "Main Street Barbers", Active: true,
		QuickResponses: map[string]string{
			"Is there parking?": "Yes, behind the building.",
		},
	}))

	_, err := f.orchestrator.UpdateBusinessKnowledge(ctx, "biz-1",
		[]string{domain.FieldQuickResponses})
	require.NoError(t, err)

	docs, err := f.store.ListDocuments(ctx, "biz-1")
	require.NoError(t, err)
	require.Len(t, docs, 1)

	// IndexedAt marks when embedding finished, not when the document
	// row was created.
	require.NotNil(t, docs[0].IndexedAt)
	assert.True(t, docs[0].IndexedAt.After(docs[0].CreatedAt))
}

func TestUpdateBusinessKnowledge_UnknownField(t *testing.T) {
	f := newIndexerFixture(t)

	_, err := f.orchestrator.UpdateBusinessKnowledge(context.Background(), "biz-1",
		[]string{"ratings"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestIndexAllBusinesses(t *testing.T) {
	f := newIndexerFixture(t)
	ctx := context.Background()

	require.NoError(t, f.businessStore.SaveBusiness(ctx, &domain.Business{
		ID: "biz-a", Active: true,
		QuickResponses: map[string]string{"Is there parking?": "Yes."},
	}))
	require.NoError(t, f.businessStore.SaveBusiness(ctx, &domain.Business{
		ID: "biz-b", Active: true,
		QuickResponses: map[string]string{"Do you take cards?": "Yes."},
	}))
	require.NoError(t, f.businessStore.SaveBusiness(ctx, &domain.Business{
		ID: "biz-inactive", Active: false,
	}))

	// biz-b's only question fails to embed, failing its document.
	f.embedder.errFor = map[string]error{
		"Do you take cards?": errors.New("connection refused"),
	}

	result, err := f.orchestrator.IndexAllBusinesses(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Businesses)
	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "biz-b")
}
