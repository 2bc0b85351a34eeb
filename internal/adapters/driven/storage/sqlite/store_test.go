package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/frontdesk/internal/core/domain"
	"github.com/custodia-labs/frontdesk/internal/core/ports/driven"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, store)

	t.Cleanup(func() {
		assert.NoError(t, store.Close())
	})

	return store
}

// createIndexedDocument saves a complete, active document with chunks.
func createIndexedDocument(
	t *testing.T, store *Store, doc domain.Document, chunks ...domain.DocumentChunk,
) {
	t.Helper()
	ctx := context.Background()
	doc.IndexingStatus = domain.IndexingComplete
	doc.Active = true
	require.NoError(t, store.KnowledgeStore().SaveDocument(ctx, &doc))
	for i := range chunks {
		chunks[i].DocumentID = doc.ID
		chunks[i].Active = true
	}
	require.NoError(t, store.KnowledgeStore().SaveChunks(ctx, chunks))
}

func TestNewStore_CreatesDatabase(t *testing.T) {
	dataDir := t.TempDir()

	store, err := NewStore(dataDir)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, filepath.Join(dataDir, "frontdesk.db"), store.Path())
	_, err = os.Stat(store.Path())
	assert.NoError(t, err)
}

func TestMigrate_Idempotent(t *testing.T) {
	dataDir := t.TempDir()

	store, err := NewStore(dataDir)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Reopening must not re-run applied migrations.
	store, err = NewStore(dataDir)
	require.NoError(t, err)
	assert.NoError(t, store.Close())
}

func TestKnowledgeStore_DocumentRoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	ks := store.KnowledgeStore()

	serviceID := "svc-1"
	doc := domain.Document{
		ID:             "doc-1",
		BusinessID:     "biz-1",
		Title:          "Aftercare",
		Type:           domain.DocumentTypePDF,
		Content:        "Keep the area dry.",
		FilePath:       "/data/uploads/aftercare.pdf",
		FileSize:       2048,
		IndexingStatus: domain.IndexingPending,
		ServiceID:      &serviceID,
		Active:         true,
	}
	require.NoError(t, ks.SaveDocument(ctx, &doc))

	got, err := ks.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "Aftercare", got.Title)
	assert.Equal(t, domain.DocumentTypePDF, got.Type)
	assert.Equal(t, domain.IndexingPending, got.IndexingStatus)
	require.NotNil(t, got.ServiceID)
	assert.Equal(t, "svc-1", *got.ServiceID)
	assert.Nil(t, got.PreviousVersionID)
	assert.Nil(t, got.IndexedAt)

	// Upsert updates in place.
	doc.IndexingStatus = domain.IndexingFailed
	doc.IndexingError = "no text recovered"
	require.NoError(t, ks.SaveDocument(ctx, &doc))

	got, err = ks.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, domain.IndexingFailed, got.IndexingStatus)
	assert.Equal(t, "no text recovered", got.IndexingError)

	_, err = ks.GetDocument(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestKnowledgeStore_ChunkRoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	ks := store.KnowledgeStore()

	createIndexedDocument(t, store,
		domain.Document{ID: "doc-1", BusinessID: "biz-1", Title: "Notes", Type: domain.DocumentTypeNote},
		domain.DocumentChunk{
			ID:        "c-2",
			Content:   "second",
			Embedding: []float32{0.5, -1.25, 3},
			Position:  1,
			Metadata:  map[string]any{"page": 2},
		},
		domain.DocumentChunk{ID: "c-1", Content: "first", Position: 0},
	)

	chunks, err := ks.GetChunks(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	// Ordered by position regardless of insert order.
	assert.Equal(t, "first", chunks[0].Content)
	assert.Equal(t, "second", chunks[1].Content)
	assert.Equal(t, []float32{0.5, -1.25, 3}, chunks[1].Embedding)
	assert.Equal(t, 2, chunks[1].Page())

	require.NoError(t, ks.DeleteChunks(ctx, "doc-1"))
	chunks, err = ks.GetChunks(ctx, "doc-1")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestKnowledgeStore_DeleteDocumentCascades(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	ks := store.KnowledgeStore()

	createIndexedDocument(t, store,
		domain.Document{ID: "doc-1", BusinessID: "biz-1", Title: "Notes", Type: domain.DocumentTypeNote},
		domain.DocumentChunk{ID: "c-1", Content: "text"},
	)

	require.NoError(t, ks.DeleteDocument(ctx, "doc-1"))

	_, err := ks.GetDocument(ctx, "doc-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	chunks, err := ks.GetChunks(ctx, "doc-1")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestKnowledgeStore_DeleteDocumentCascadesAcrossConnections(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	ks := store.KnowledgeStore()

	createIndexedDocument(t, store,
		domain.Document{ID: "doc-1", BusinessID: "biz-1", Title: "Notes", Type: domain.DocumentTypeNote},
		domain.DocumentChunk{ID: "c-1", Content: "text"},
	)

	// Hold the pool's first connection so the delete is forced onto a
	// fresh one. The cascade must hold on every connection, not just
	// the one that ran session setup.
	held, err := store.db.Conn(ctx)
	require.NoError(t, err)
	defer held.Close()

	require.NoError(t, ks.DeleteDocument(ctx, "doc-1"))

	chunks, err := ks.GetChunks(ctx, "doc-1")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestKnowledgeStore_ListDocumentsByField(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	ks := store.KnowledgeStore()

	createIndexedDocument(t, store, domain.Document{
		ID: "doc-services", BusinessID: "biz-1", Title: "Services",
		Type: domain.DocumentTypeFAQ, SourceField: "service_catalog",
	})
	createIndexedDocument(t, store, domain.Document{
		ID: "doc-policies", BusinessID: "biz-1", Title: "Policies",
		Type: domain.DocumentTypeFAQ, SourceField: "policies",
	})
	createIndexedDocument(t, store, domain.Document{
		ID: "doc-upload", BusinessID: "biz-1", Title: "Upload",
		Type: domain.DocumentTypeNote,
	})

	docs, err := ks.ListDocumentsByField(ctx, "biz-1", []string{"service_catalog"})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "doc-services", docs[0].ID)

	docs, err = ks.ListDocumentsByField(ctx, "biz-1", nil)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestKnowledgeStore_CreateVersionAndRevert(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	ks := store.KnowledgeStore()

	createIndexedDocument(t, store,
		domain.Document{ID: "doc-1", BusinessID: "biz-1", Title: "Policy",
			Type: domain.DocumentTypePolicy, Content: "old content"},
		domain.DocumentChunk{ID: "c-1", Content: "old content"},
	)

	newDoc, err := ks.CreateVersion(ctx, "doc-1", "new content")
	require.NoError(t, err)
	assert.Equal(t, "new content", newDoc.Content)
	assert.Equal(t, domain.IndexingPending, newDoc.IndexingStatus)
	require.NotNil(t, newDoc.PreviousVersionID)
	assert.Equal(t, "doc-1", *newDoc.PreviousVersionID)

	old, err := ks.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.False(t, old.Active)

	oldChunks, err := ks.GetChunks(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, oldChunks, 1)
	assert.False(t, oldChunks[0].Active)

	_, err = ks.CreateVersion(ctx, "doc-1", "again")
	assert.ErrorIs(t, err, domain.ErrVersionInactive)

	reverted, err := ks.Revert(ctx, newDoc.ID)
	require.NoError(t, err)
	assert.Equal(t, "doc-1", reverted.ID)
	assert.True(t, reverted.Active)
	assert.Equal(t, "old content", reverted.Content)

	restoredChunks, err := ks.GetChunks(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, restoredChunks, 1)
	assert.True(t, restoredChunks[0].Active)

	_, err = ks.Revert(ctx, "doc-1")
	assert.ErrorIs(t, err, domain.ErrNoPreviousVersion)
}

func TestKnowledgeStore_VectorSearch(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	ks := store.KnowledgeStore()

	createIndexedDocument(t, store,
		domain.Document{ID: "doc-1", BusinessID: "biz-1", Title: "FAQ", Type: domain.DocumentTypeFAQ},
		domain.DocumentChunk{ID: "c-close", Content: "close match", Embedding: []float32{1, 0}},
		domain.DocumentChunk{ID: "c-far", Content: "far match", Embedding: []float32{0, 1}, Position: 1},
	)

	// Pending documents are invisible to retrieval.
	pending := domain.Document{
		ID: "doc-pending", BusinessID: "biz-1", Title: "Pending",
		Type: domain.DocumentTypeNote, IndexingStatus: domain.IndexingPending, Active: true,
	}
	require.NoError(t, ks.SaveDocument(ctx, &pending))
	require.NoError(t, ks.SaveChunks(ctx, []domain.DocumentChunk{
		{ID: "c-pending", DocumentID: "doc-pending", Content: "hidden",
			Embedding: []float32{1, 0}, Active: true},
	}))

	hits, err := ks.VectorSearch(ctx, "biz-1", []float32{1, 0}, driven.ChunkFilter{Limit: 10})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "close match", hits[0].Content)
	assert.InDelta(t, 1.0, hits[0].Similarity, 1e-6)
	assert.Equal(t, domain.MatchVector, hits[0].Kind)
	assert.Equal(t, "FAQ", hits[0].DocumentTitle)

	// A similarity floor drops the orthogonal chunk.
	hits, err = ks.VectorSearch(ctx, "biz-1", []float32{1, 0}, driven.ChunkFilter{
		Limit: 10, MinSimilarity: 0.5,
	})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "close match", hits[0].Content)
}

func TestKnowledgeStore_VectorSearchServiceScoping(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	bs := store.BusinessStore()

	require.NoError(t, bs.SaveBusiness(ctx, &domain.Business{ID: "biz-1", Name: "Barbers", Active: true}))
	require.NoError(t, bs.SaveService(ctx, &domain.Service{
		ID: "svc-1", BusinessID: "biz-1", Name: "Haircut", Active: true,
	}))

	haircutID := "svc-1"
	otherID := "svc-other"
	createIndexedDocument(t, store,
		domain.Document{ID: "doc-generic", BusinessID: "biz-1", Title: "Generic",
			Type: domain.DocumentTypeNote},
		domain.DocumentChunk{ID: "c-1", Content: "generic", Embedding: []float32{1, 0}},
	)
	createIndexedDocument(t, store,
		domain.Document{ID: "doc-haircut", BusinessID: "biz-1", Title: "Haircut notes",
			Type: domain.DocumentTypeNote, ServiceID: &haircutID},
		domain.DocumentChunk{ID: "c-2", Content: "haircut scoped", Embedding: []float32{1, 0}},
	)
	createIndexedDocument(t, store,
		domain.Document{ID: "doc-other", BusinessID: "biz-1", Title: "Other notes",
			Type: domain.DocumentTypeNote, ServiceID: &otherID},
		domain.DocumentChunk{ID: "c-3", Content: "other scoped", Embedding: []float32{1, 0}},
	)

	hits, err := store.KnowledgeStore().VectorSearch(ctx, "biz-1", []float32{1, 0},
		driven.ChunkFilter{ServiceID: "svc-1", Limit: 10})
	require.NoError(t, err)
	require.Len(t, hits, 2)

	contents := []string{hits[0].Content, hits[1].Content}
	assert.Contains(t, contents, "generic")
	assert.Contains(t, contents, "haircut scoped")

	for _, hit := range hits {
		if hit.Content == "haircut scoped" {
			assert.Equal(t, "Haircut", hit.ServiceName)
		}
	}
}

func TestKnowledgeStore_KeywordSearch(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	ks := store.KnowledgeStore()

	createIndexedDocument(t, store,
		domain.Document{ID: "doc-1", BusinessID: "biz-1", Title: "Location", Type: domain.DocumentTypeNote},
		domain.DocumentChunk{ID: "c-1", Content: "Free Parking behind the building."},
		domain.DocumentChunk{ID: "c-2", Content: "We are next to the bakery.", Position: 1},
	)

	hits, err := ks.KeywordSearch(ctx, "biz-1", []string{"parking"}, driven.ChunkFilter{Limit: 5})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, domain.MatchKeyword, hits[0].Kind)
	assert.Contains(t, hits[0].Content, "Parking")

	hits, err = ks.KeywordSearch(ctx, "biz-1", []string{"parking", "bakery"}, driven.ChunkFilter{Limit: 5})
	require.NoError(t, err)
	assert.Len(t, hits, 2)

	hits, err = ks.KeywordSearch(ctx, "biz-1", nil, driven.ChunkFilter{Limit: 5})
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestBusinessStore_RoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	bs := store.BusinessStore()

	business := domain.Business{
		ID:   "biz-1",
		Name: "Main Street Barbers",
		QuickResponses: map[string]string{
			"Do you take walk-ins?": "Yes, before 3pm.",
		},
		Policies: map[string]string{
			"cancellation": "24 hours notice.",
		},
		Active: true,
	}
	require.NoError(t, bs.SaveBusiness(ctx, &business))

	got, err := bs.GetBusiness(ctx, "biz-1")
	require.NoError(t, err)
	assert.Equal(t, "Main Street Barbers", got.Name)
	assert.Equal(t, "Yes, before 3pm.", got.QuickResponses["Do you take walk-ins?"])
	assert.Equal(t, "24 hours notice.", got.Policies["cancellation"])

	_, err = bs.GetBusiness(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBusinessStore_ListActiveBusinesses(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	bs := store.BusinessStore()

	require.NoError(t, bs.SaveBusiness(ctx, &domain.Business{ID: "biz-b", Name: "B", Active: true}))
	require.NoError(t, bs.SaveBusiness(ctx, &domain.Business{ID: "biz-a", Name: "A", Active: true}))
	require.NoError(t, bs.SaveBusiness(ctx, &domain.Business{ID: "biz-c", Name: "C", Active: false}))

	page, err := bs.ListActiveBusinesses(ctx, 0, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "biz-a", page[0].ID)

	page, err = bs.ListActiveBusinesses(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "biz-b", page[0].ID)
}

func TestBusinessStore_Services(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	bs := store.BusinessStore()

	require.NoError(t, bs.SaveBusiness(ctx, &domain.Business{ID: "biz-1", Name: "Barbers", Active: true}))
	require.NoError(t, bs.SaveService(ctx, &domain.Service{
		ID: "svc-1", BusinessID: "biz-1", Name: "Haircut",
		PriceCents: 3000, DurationMinutes: 30, Active: true,
	}))
	require.NoError(t, bs.SaveService(ctx, &domain.Service{
		ID: "svc-2", BusinessID: "biz-1", Name: "Perm", Active: false,
	}))

	services, err := bs.ListServices(ctx, "biz-1")
	require.NoError(t, err)
	require.Len(t, services, 1)
	assert.Equal(t, "Haircut", services[0].Name)
	assert.Equal(t, 3000, services[0].PriceCents)
}

func TestFloat32BlobRoundTrip(t *testing.T) {
	original := []float32{0, 1.5, -2.25, 3.14159}

	blob := float32SliceToBytes(original)
	restored := bytesToFloat32Slice(blob)
	assert.Equal(t, original, restored)

	assert.Nil(t, float32SliceToBytes(nil))
	assert.Nil(t, bytesToFloat32Slice(nil))
}
