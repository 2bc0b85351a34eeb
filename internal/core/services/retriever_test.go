package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/frontdesk/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/frontdesk/internal/core/domain"
)

type retrieverFixture struct {
	retriever     *RetrievalService
	store         *memory.KnowledgeStore
	businessStore *memory.BusinessStore
	embedder      *mockEmbeddingService
}

func newRetrieverFixture(t *testing.T) *retrieverFixture {
	t.Helper()
	f := &retrieverFixture{
		store:         memory.NewKnowledgeStore(),
		businessStore: memory.NewBusinessStore(),
		embedder:      &mockEmbeddingService{vectors: map[string][]float32{}},
	}
	f.retriever = NewRetrievalService(f.store, f.businessStore, f.embedder)
	return f
}

func (f *retrieverFixture) seedHaircutService(t *testing.T) {
	t.Helper()
	require.NoError(t, f.businessStore.SaveService(context.Background(), &domain.Service{
		ID: "svc-1", BusinessID: "biz-1", Name: "Haircut",
		Description: "Classic cut", PriceCents: 3000, DurationMinutes: 30,
		Active: true,
	}))
}

func (f *retrieverFixture) seedIndexedDocument(
	t *testing.T, doc domain.Document, chunks ...domain.DocumentChunk,
) {
	t.Helper()
	ctx := context.Background()
	doc.BusinessID = "biz-1"
	doc.IndexingStatus = domain.IndexingComplete
	doc.Active = true
	require.NoError(t, f.store.SaveDocument(ctx, &doc))
	for i := range chunks {
		chunks[i].DocumentID = doc.ID
		chunks[i].Active = true
	}
	require.NoError(t, f.store.SaveChunks(ctx, chunks))
}

func TestRetrieveContext_ServiceHeaderWithoutChunks(t *testing.T) {
	f := newRetrieverFixture(t)
	f.seedHaircutService(t)

	// No knowledge is indexed at all. The structured service fields
	// still produce usable context on their own.
	result := f.retriever.RetrieveContext(context.Background(),
		"How much is a haircut?", "biz-1", domain.RetrievalOptions{})

	assert.Contains(t, result, contextPreamble)
	assert.Contains(t, result, "Service: Haircut\n")
	assert.Contains(t, result, "Description: Classic cut\n")
	assert.Contains(t, result, "Price: $30\n")
	assert.Contains(t, result, "Duration: 30 min\n")
	assert.Contains(t, result, contextPostamble)
}

func TestRetrieveContext_VectorHitWithProvenance(t *testing.T) {
	f := newRetrieverFixture(t)
	f.embedder.vectors["Is there parking nearby?"] = []float32{1, 0, 0}

	f.seedIndexedDocument(t,
		domain.Document{ID: "doc-1", Title: "Quick responses", Type: domain.DocumentTypeFAQ},
		domain.DocumentChunk{
			ID:        "c-1",
			Content:   "Is there parking?",
			Embedding: []float32{1, 0, 0},
			Metadata:  map[string]any{"answer": "Yes, behind the building."},
		},
	)

	result, debug := f.retriever.RetrieveContextDebug(context.Background(),
		"Is there parking nearby?", "biz-1", domain.RetrievalOptions{})

	assert.Equal(t, 1, debug.VectorHits)
	assert.False(t, debug.UsedKeywordFallback)
	assert.Contains(t, result, "Source: Quick responses (faq)\n")
	assert.Contains(t, result, "Relevance: 100%\n")
	assert.Contains(t, result, "Q: Is there parking?\nA: Yes, behind the building.\n")
}

func TestRetrieveContext_KeywordFallback(t *testing.T) {
	f := newRetrieverFixture(t)
	// The query embedding is orthogonal to the stored chunk, so vector
	// search comes back empty under the similarity floor.
	f.embedder.vectors["Do you have parking?"] = []float32{0, 1, 0}

	f.seedIndexedDocument(t,
		domain.Document{ID: "doc-1", Title: "Location notes", Type: domain.DocumentTypeNote},
		domain.DocumentChunk{
			ID:        "c-1",
			Content:   "Free parking is available behind the building.",
			Embedding: []float32{1, 0, 0},
		},
	)

	result, debug := f.retriever.RetrieveContextDebug(context.Background(),
		"Do you have parking?", "biz-1",
		domain.RetrievalOptions{MinSimilarity: 0.3})

	assert.Zero(t, debug.VectorHits)
	assert.True(t, debug.UsedKeywordFallback)
	assert.Equal(t, 1, debug.KeywordHits)
	assert.Contains(t, result, "Source: Location notes (note)\n")
	assert.Contains(t, result, "Relevance: keyword match\n")
	assert.Contains(t, result, "Free parking is available behind the building.")
}

func TestRetrieveContext_DefaultMinSimilarity(t *testing.T) {
	f := newRetrieverFixture(t)
	f.retriever = NewRetrievalService(f.store, f.businessStore, f.embedder,
		WithDefaultMinSimilarity(0.9))
	f.embedder.vectors["Do you have parking?"] = []float32{0, 1, 0}

	f.seedIndexedDocument(t,
		domain.Document{ID: "doc-1", Title: "Location notes", Type: domain.DocumentTypeNote},
		domain.DocumentChunk{
			ID:        "c-1",
			Content:   "Free parking is available behind the building.",
			Embedding: []float32{1, 0, 0},
		},
	)

	// Without a per-request cutoff the configured default applies, so
	// the orthogonal chunk is not a vector hit.
	_, debug := f.retriever.RetrieveContextDebug(context.Background(),
		"Do you have parking?", "biz-1", domain.RetrievalOptions{})

	assert.Zero(t, debug.VectorHits)
	assert.True(t, debug.UsedKeywordFallback)
}

func TestRetrieveContext_PageProvenance(t *testing.T) {
	f := newRetrieverFixture(t)
	f.embedder.vectors["aftercare"] = []float32{1, 0, 0}

	f.seedIndexedDocument(t,
		domain.Document{ID: "doc-1", Title: "Aftercare guide", Type: domain.DocumentTypePDF},
		domain.DocumentChunk{
			ID:        "c-1",
			Content:   "Keep the area dry for two days.",
			Embedding: []float32{1, 0, 0},
			Metadata:  map[string]any{"page": 2},
		},
	)

	result := f.retriever.RetrieveContext(context.Background(),
		"aftercare", "biz-1", domain.RetrievalOptions{})

	assert.Contains(t, result, "Page: 2\n")
}

func TestRetrieveContext_ServiceScopedSearch(t *testing.T) {
	f := newRetrieverFixture(t)
	f.seedHaircutService(t)
	f.store.RegisterServiceName("svc-1", "Haircut")
	f.embedder.vectors["How long does a haircut take?"] = []float32{1, 0, 0}

	otherID := "svc-other"
	f.seedIndexedDocument(t,
		domain.Document{ID: "doc-other", Title: "Massage notes", Type: domain.DocumentTypeNote, ServiceID: &otherID},
		domain.DocumentChunk{ID: "c-1", Content: "Massage prep.", Embedding: []float32{1, 0, 0}},
	)
	haircutID := "svc-1"
	f.seedIndexedDocument(t,
		domain.Document{ID: "doc-haircut", Title: "Haircut notes", Type: domain.DocumentTypeNote, ServiceID: &haircutID},
		domain.DocumentChunk{ID: "c-2", Content: "Bring a reference photo.", Embedding: []float32{1, 0, 0}},
	)

	result, debug := f.retriever.RetrieveContextDebug(context.Background(),
		"How long does a haircut take?", "biz-1", domain.RetrievalOptions{})

	assert.Equal(t, "Haircut", debug.DetectedService)
	assert.Contains(t, result, "Service: Haircut\n")
	assert.Contains(t, result, "Bring a reference photo.")
	assert.NotContains(t, result, "Massage prep.")
}

func TestRetrieveContext_NoMatchReturnsEmpty(t *testing.T) {
	f := newRetrieverFixture(t)

	result := f.retriever.RetrieveContext(context.Background(),
		"Do you sell gift cards?", "biz-1", domain.RetrievalOptions{})
	assert.Empty(t, result)
}

func TestRetrieveContext_EmptyQueryReturnsEmpty(t *testing.T) {
	f := newRetrieverFixture(t)

	assert.Empty(t, f.retriever.RetrieveContext(context.Background(),
		"   ", "biz-1", domain.RetrievalOptions{}))
	assert.Empty(t, f.retriever.RetrieveContext(context.Background(),
		"parking", "", domain.RetrievalOptions{}))
}

func TestRetrieveContext_EmbeddingFailureReturnsEmpty(t *testing.T) {
	f := newRetrieverFixture(t)
	f.embedder.embedErr = errors.New("connection refused")

	f.seedIndexedDocument(t,
		domain.Document{ID: "doc-1", Title: "Notes", Type: domain.DocumentTypeNote},
		domain.DocumentChunk{ID: "c-1", Content: "parking info", Embedding: []float32{1, 0, 0}},
	)

	// Failures degrade to empty context; the caller never sees an error.
	result, debug := f.retriever.RetrieveContextDebug(context.Background(),
		"Do you have parking?", "biz-1", domain.RetrievalOptions{})

	assert.Empty(t, result)
	assert.True(t, debug.Failed)
}

func TestDetectService_LongestMatchWins(t *testing.T) {
	f := newRetrieverFixture(t)
	services := []domain.Service{
		{ID: "svc-1", Name: "Haircut", Active: true},
		{ID: "svc-2", Name: "Haircut & Beard Trim", Active: true},
		{ID: "svc-3", Name: "Perm", Active: false},
	}

	matched := f.retriever.detectService("how much is a haircut & beard trim?", services, "")
	require.NotNil(t, matched)
	assert.Equal(t, "svc-2", matched.ID)

	matched = f.retriever.detectService("how much is a haircut?", services, "")
	require.NotNil(t, matched)
	assert.Equal(t, "svc-1", matched.ID)

	// Inactive services never match by intent.
	assert.Nil(t, f.retriever.detectService("do you do perms? perm", services, ""))

	// An explicit filter bypasses intent detection entirely.
	matched = f.retriever.detectService("anything", services, "haircut")
	require.NotNil(t, matched)
	assert.Equal(t, "svc-1", matched.ID)

	assert.Nil(t, f.retriever.detectService("anything", services, "facial"))
}

func TestExtractKeywords(t *testing.T) {
	keywords := extractKeywords("Hello, do you have parking at the shop?")
	assert.Equal(t, []string{"parking", "shop"}, keywords)

	assert.Empty(t, extractKeywords("can you do it"))
}
