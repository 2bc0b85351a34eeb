// Package memory provides in-memory store implementations for tests
// and ephemeral use.
package memory

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/frontdesk/internal/core/domain"
	"github.com/custodia-labs/frontdesk/internal/core/ports/driven"
)

// Ensure KnowledgeStore implements the interface.
var _ driven.KnowledgeStore = (*KnowledgeStore)(nil)

// KnowledgeStore is an in-memory implementation of driven.KnowledgeStore.
type KnowledgeStore struct {
	mu           sync.RWMutex
	documents    map[string]domain.Document
	chunks       map[string][]domain.DocumentChunk
	serviceNames map[string]string
}

// NewKnowledgeStore creates a new in-memory knowledge store.
func NewKnowledgeStore() *KnowledgeStore {
	return &KnowledgeStore{
		documents:    make(map[string]domain.Document),
		chunks:       make(map[string][]domain.DocumentChunk),
		serviceNames: make(map[string]string),
	}
}

// RegisterServiceName teaches the store a service display name so
// search hits can carry provenance. SQL stores resolve this by join.
func (s *KnowledgeStore) RegisterServiceName(serviceID, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.serviceNames[serviceID] = name
}

// SaveDocument stores or updates a document.
func (s *KnowledgeStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[doc.ID] = *doc
	return nil
}

// GetDocument retrieves a document by ID.
func (s *KnowledgeStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// ListDocuments returns all documents for a business.
func (s *KnowledgeStore) ListDocuments(_ context.Context, businessID string) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.Document
	for id := range s.documents {
		doc := s.documents[id]
		if doc.BusinessID == businessID {
			result = append(result, doc)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// ListDocumentsByField returns active documents synthesized from the
// named structured fields.
func (s *KnowledgeStore) ListDocumentsByField(
	_ context.Context, businessID string, fields []string,
) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[string]bool, len(fields))
	for _, f := range fields {
		wanted[f] = true
	}

	var result []domain.Document
	for id := range s.documents {
		doc := s.documents[id]
		if doc.BusinessID == businessID && doc.Active && wanted[doc.SourceField] {
			result = append(result, doc)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// SaveChunks stores chunks for a document.
func (s *KnowledgeStore) SaveChunks(_ context.Context, chunks []domain.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	docID := chunks[0].DocumentID
	s.chunks[docID] = append(s.chunks[docID], chunks...)
	return nil
}

// GetChunks retrieves all chunks for a document, ordered by position.
func (s *KnowledgeStore) GetChunks(_ context.Context, documentID string) ([]domain.DocumentChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chunks := append([]domain.DocumentChunk(nil), s.chunks[documentID]...)
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].Position < chunks[j].Position })
	return chunks, nil
}

// DeleteChunks removes all chunks for a document.
func (s *KnowledgeStore) DeleteChunks(_ context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.chunks, documentID)
	return nil
}

// DeleteDocument removes a document and its chunks.
func (s *KnowledgeStore) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.documents, id)
	delete(s.chunks, id)
	return nil
}

// CreateVersion deactivates the document and its chunks and creates a
// new pending document linked back through PreviousVersionID.
func (s *KnowledgeStore) CreateVersion(
	_ context.Context, documentID, newContent string,
) (*domain.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.documents[documentID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if !old.Active {
		return nil, domain.ErrVersionInactive
	}

	old.Active = false
	old.UpdatedAt = time.Now().UTC()
	s.documents[documentID] = old

	chunks := s.chunks[documentID]
	for i := range chunks {
		chunks[i].Active = false
	}
	s.chunks[documentID] = chunks

	now := time.Now().UTC()
	prevID := old.ID
	newDoc := domain.Document{
		ID:                uuid.New().String(),
		BusinessID:        old.BusinessID,
		Title:             old.Title,
		Type:              old.Type,
		Content:           newContent,
		FilePath:          old.FilePath,
		OriginalFilename:  old.OriginalFilename,
		FileSize:          old.FileSize,
		IndexingStatus:    domain.IndexingPending,
		ServiceID:         old.ServiceID,
		SourceField:       old.SourceField,
		PreviousVersionID: &prevID,
		Active:            true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	s.documents[newDoc.ID] = newDoc

	return &newDoc, nil
}

// Revert deactivates the current version and reactivates the previous
// one together with its chunks.
func (s *KnowledgeStore) Revert(_ context.Context, documentID string) (*domain.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.documents[documentID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if current.PreviousVersionID == nil {
		return nil, domain.ErrNoPreviousVersion
	}

	previous, ok := s.documents[*current.PreviousVersionID]
	if !ok {
		return nil, domain.ErrNotFound
	}

	now := time.Now().UTC()
	current.Active = false
	current.UpdatedAt = now
	s.documents[current.ID] = current

	currentChunks := s.chunks[current.ID]
	for i := range currentChunks {
		currentChunks[i].Active = false
	}
	s.chunks[current.ID] = currentChunks

	previous.Active = true
	previous.UpdatedAt = now
	s.documents[previous.ID] = previous

	previousChunks := s.chunks[previous.ID]
	for i := range previousChunks {
		previousChunks[i].Active = true
	}
	s.chunks[previous.ID] = previousChunks

	return &previous, nil
}

// VectorSearch ranks chunks of retrievable documents by cosine
// similarity against the query embedding.
func (s *KnowledgeStore) VectorSearch(
	_ context.Context, businessID string, embedding []float32, filter driven.ChunkFilter,
) ([]domain.RetrievedChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var hits []domain.RetrievedChunk
	s.scanRetrievable(businessID, filter, func(doc *domain.Document, chunk *domain.DocumentChunk) {
		similarity := cosineSimilarity(embedding, chunk.Embedding)
		if similarity < filter.MinSimilarity {
			return
		}
		hits = append(hits, s.retrievedChunk(doc, chunk, domain.MatchVector, similarity))
	})

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Similarity > hits[j].Similarity })
	if filter.Limit > 0 && len(hits) > filter.Limit {
		hits = hits[:filter.Limit]
	}
	return hits, nil
}

// KeywordSearch matches chunks whose content contains any keyword,
// case-insensitively.
func (s *KnowledgeStore) KeywordSearch(
	_ context.Context, businessID string, keywords []string, filter driven.ChunkFilter,
) ([]domain.RetrievedChunk, error) {
	if len(keywords) == 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var hits []domain.RetrievedChunk
	s.scanRetrievable(businessID, filter, func(doc *domain.Document, chunk *domain.DocumentChunk) {
		content := strings.ToLower(chunk.Content)
		for _, kw := range keywords {
			if strings.Contains(content, strings.ToLower(kw)) {
				hits = append(hits, s.retrievedChunk(doc, chunk, domain.MatchKeyword, 0))
				return
			}
		}
	})

	if filter.Limit > 0 && len(hits) > filter.Limit {
		hits = hits[:filter.Limit]
	}
	return hits, nil
}

// scanRetrievable visits active chunks of active, fully indexed
// documents matching the filter, in stable document-id order.
func (s *KnowledgeStore) scanRetrievable(
	businessID string, filter driven.ChunkFilter,
	visit func(*domain.Document, *domain.DocumentChunk),
) {
	ids := make([]string, 0, len(s.documents))
	for id := range s.documents {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		doc := s.documents[id]
		if doc.BusinessID != businessID || !doc.Active ||
			doc.IndexingStatus != domain.IndexingComplete {
			continue
		}
		if filter.DocumentType != "" && doc.Type != filter.DocumentType {
			continue
		}
		// Service scoping never excludes generic knowledge.
		if filter.ServiceID != "" && doc.ServiceID != nil && *doc.ServiceID != filter.ServiceID {
			continue
		}

		chunks := s.chunks[id]
		for i := range chunks {
			if chunks[i].Active {
				visit(&doc, &chunks[i])
			}
		}
	}
}

func (s *KnowledgeStore) retrievedChunk(
	doc *domain.Document, chunk *domain.DocumentChunk,
	kind domain.MatchKind, similarity float64,
) domain.RetrievedChunk {
	var serviceName string
	if doc.ServiceID != nil {
		serviceName = s.serviceNames[*doc.ServiceID]
	}
	return domain.RetrievedChunk{
		Content:       chunk.Content,
		DocumentTitle: doc.Title,
		DocumentType:  doc.Type,
		ServiceName:   serviceName,
		Kind:          kind,
		Similarity:    similarity,
		Metadata:      chunk.Metadata,
	}
}

// cosineSimilarity computes the cosine of the angle between two vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
