package services

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/frontdesk/internal/core/domain"
	"github.com/custodia-labs/frontdesk/internal/core/ports/driven"
	"github.com/custodia-labs/frontdesk/internal/core/ports/driving"
	"github.com/custodia-labs/frontdesk/internal/logger"
)

// Ensure IndexingOrchestrator implements the interface.
var _ driving.Indexer = (*IndexingOrchestrator)(nil)

// DefaultMaxConcurrentEmbeddings caps parallel embedding calls per
// indexing pass to respect external rate limits.
const DefaultMaxConcurrentEmbeddings = 3

// DefaultEmbeddingRate is the sustained embedding request rate.
const DefaultEmbeddingRate = rate.Limit(10)

// DefaultBulkBatchSize is the business batch size for bulk indexing.
const DefaultBulkBatchSize = 10

// IndexingOrchestrator drives the document ingestion lifecycle:
// extract -> chunk -> embed -> persist -> mark status.
//
// Concurrent indexing of different documents needs no coordination;
// passes over the same document are serialised through an in-flight
// guard keyed by document ID.
type IndexingOrchestrator struct {
	store            driven.KnowledgeStore
	businessStore    driven.BusinessStore
	embeddingService driven.EmbeddingService
	extractor        driven.TextExtractor
	chunker          driven.Chunker

	maxConcurrent int
	limiter       *rate.Limiter

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// IndexerOption configures the orchestrator.
type IndexerOption func(*IndexingOrchestrator)

// WithMaxConcurrentEmbeddings sets the embedding worker cap.
func WithMaxConcurrentEmbeddings(n int) IndexerOption {
	return func(o *IndexingOrchestrator) {
		if n > 0 {
			o.maxConcurrent = n
		}
	}
}

// WithEmbeddingRate sets the sustained embedding request rate.
func WithEmbeddingRate(r rate.Limit) IndexerOption {
	return func(o *IndexingOrchestrator) {
		if r > 0 {
			o.limiter = rate.NewLimiter(r, int(r))
		}
	}
}

// NewIndexingOrchestrator creates a new indexing orchestrator.
func NewIndexingOrchestrator(
	store driven.KnowledgeStore,
	businessStore driven.BusinessStore,
	embeddingService driven.EmbeddingService,
	extractor driven.TextExtractor,
	textChunker driven.Chunker,
	opts ...IndexerOption,
) *IndexingOrchestrator {
	o := &IndexingOrchestrator{
		store:            store,
		businessStore:    businessStore,
		embeddingService: embeddingService,
		extractor:        extractor,
		chunker:          textChunker,
		maxConcurrent:    DefaultMaxConcurrentEmbeddings,
		limiter:          rate.NewLimiter(DefaultEmbeddingRate, int(DefaultEmbeddingRate)),
		inFlight:         make(map[string]struct{}),
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// CreateAndIndex creates a document from a raw ingestion request and
// immediately drives it through the indexing state machine.
func (o *IndexingOrchestrator) CreateAndIndex(
	ctx context.Context, req domain.IngestRequest,
) (*driving.IndexResult, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validate ingest request: %w", err)
	}

	now := time.Now().UTC()
	doc := &domain.Document{
		ID:               uuid.New().String(),
		BusinessID:       req.BusinessID,
		Title:            req.Title,
		Type:             req.Type,
		Content:          req.Content,
		OriginalFilename: req.FileName,
		FileSize:         int64(len(req.FileData)),
		IndexingStatus:   domain.IndexingPending,
		Active:           true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if req.ServiceID != "" {
		serviceID := req.ServiceID
		doc.ServiceID = &serviceID
	}

	if err := o.store.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}

	logger.Info("Created document %s (%s) for business %s", doc.ID, doc.Type, doc.BusinessID)
	return o.IndexDocument(ctx, doc.ID, req.FileData)
}

// IndexDocument runs an indexing pass for an existing document.
// Ingestion failures are recorded on the document row and reported in
// the result, not raised: after this returns the document is always in
// a terminal status, never stuck in processing.
func (o *IndexingOrchestrator) IndexDocument(
	ctx context.Context, documentID string, fileData []byte,
) (*driving.IndexResult, error) {
	doc, err := o.store.GetDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}

	if err := o.acquire(documentID); err != nil {
		return nil, err
	}
	defer o.release(documentID)

	return o.runIndexingPass(ctx, doc, fileData)
}

// ReindexDocument deletes the document's existing chunks and runs a
// fresh indexing pass. Used when content is corrected without creating
// a new version.
func (o *IndexingOrchestrator) ReindexDocument(
	ctx context.Context, documentID string,
) (*driving.IndexResult, error) {
	doc, err := o.store.GetDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}

	if err := o.acquire(documentID); err != nil {
		return nil, err
	}
	defer o.release(documentID)

	if err := o.store.DeleteChunks(ctx, documentID); err != nil {
		return nil, fmt.Errorf("delete chunks: %w", err)
	}

	doc.IndexingStatus = domain.IndexingPending
	doc.IndexingError = ""
	if err := o.store.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("reset document status: %w", err)
	}

	return o.runIndexingPass(ctx, doc, nil)
}

// UpdateDocumentVersion creates a new version with the given content,
// deactivating the current one, and indexes the new version.
func (o *IndexingOrchestrator) UpdateDocumentVersion(
	ctx context.Context, documentID, newContent string,
) (*driving.IndexResult, error) {
	if strings.TrimSpace(newContent) == "" {
		return nil, fmt.Errorf("new content: %w", domain.ErrInvalidInput)
	}

	newDoc, err := o.store.CreateVersion(ctx, documentID, newContent)
	if err != nil {
		return nil, fmt.Errorf("create version: %w", err)
	}

	logger.Info("Created version %s superseding %s", newDoc.ID, documentID)
	return o.IndexDocument(ctx, newDoc.ID, nil)
}

// RevertDocumentVersion restores the previous version of a document.
// The previous version's chunks are reactivated as-is; no re-embedding
// is needed.
func (o *IndexingOrchestrator) RevertDocumentVersion(
	ctx context.Context, documentID string,
) (*driving.IndexResult, error) {
	reverted, err := o.store.Revert(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("revert version: %w", err)
	}

	chunks, err := o.store.GetChunks(ctx, reverted.ID)
	if err != nil {
		return nil, fmt.Errorf("get reverted chunks: %w", err)
	}

	logger.Info("Reverted document %s to version %s", documentID, reverted.ID)
	return &driving.IndexResult{
		Success:       true,
		Message:       fmt.Sprintf("reverted to version %s", reverted.ID),
		DocumentID:    reverted.ID,
		IndexedChunks: len(chunks),
	}, nil
}

// IndexAllBusinesses iterates active businesses in batches, regenerating
// each one's synthesized knowledge. One business's failure never aborts
// the run.
func (o *IndexingOrchestrator) IndexAllBusinesses(
	ctx context.Context, batchSize int,
) (*driving.BulkIndexResult, error) {
	if batchSize <= 0 {
		batchSize = DefaultBulkBatchSize
	}

	result := &driving.BulkIndexResult{}
	offset := 0

	for {
		businesses, err := o.businessStore.ListActiveBusinesses(ctx, offset, batchSize)
		if err != nil {
			return nil, fmt.Errorf("list businesses: %w", err)
		}
		if len(businesses) == 0 {
			break
		}

		// Sequential within a batch to bound resource usage.
		for i := range businesses {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}

			result.Businesses++
			_, err := o.UpdateBusinessKnowledge(ctx, businesses[i].ID, domain.KnowledgeFields())
			if err != nil {
				result.Failed++
				result.Errors = append(result.Errors,
					fmt.Sprintf("business %s: %v", businesses[i].ID, err))
				logger.Warn("Bulk indexing: business %s failed: %v", businesses[i].ID, err)
				continue
			}
			result.Succeeded++
		}

		if len(businesses) < batchSize {
			break
		}
		offset += batchSize
	}

	logger.Info("Bulk indexing: %d businesses, %d succeeded, %d failed",
		result.Businesses, result.Succeeded, result.Failed)
	return result, nil
}

// UpdateBusinessKnowledge regenerates and reindexes only the synthesized
// documents sourced from the changed structured fields, avoiding a full
// business reindex on small edits.
func (o *IndexingOrchestrator) UpdateBusinessKnowledge(
	ctx context.Context, businessID string, changedFields []string,
) (*driving.FieldUpdateResult, error) {
	if len(changedFields) == 0 {
		return nil, fmt.Errorf("changed fields: %w", domain.ErrInvalidInput)
	}
	known := make(map[string]bool)
	for _, f := range domain.KnowledgeFields() {
		known[f] = true
	}
	for _, f := range changedFields {
		if !known[f] {
			return nil, fmt.Errorf("unknown field %q: %w", f, domain.ErrInvalidInput)
		}
	}

	business, err := o.businessStore.GetBusiness(ctx, businessID)
	if err != nil {
		return nil, fmt.Errorf("get business: %w", err)
	}
	servicesList, err := o.businessStore.ListServices(ctx, businessID)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}

	result := &driving.FieldUpdateResult{}

	// Drop the superseded field documents and their chunks.
	existing, err := o.store.ListDocumentsByField(ctx, businessID, changedFields)
	if err != nil {
		return nil, fmt.Errorf("list field documents: %w", err)
	}
	for i := range existing {
		if err := o.store.DeleteDocument(ctx, existing[i].ID); err != nil {
			return nil, fmt.Errorf("delete field document %s: %w", existing[i].ID, err)
		}
		result.DeletedDocuments++
	}

	// Regenerate and index documents for exactly those fields.
	for _, synthetic := range synthesizeFieldDocuments(business, servicesList, changedFields) {
		indexed, err := o.indexSyntheticDocument(ctx, businessID, synthetic)
		if err != nil {
			return nil, fmt.Errorf("index %s document: %w", synthetic.Field, err)
		}
		result.IndexedDocuments++
		result.IndexedChunks += indexed
	}

	logger.Info("Incremental update for %s: fields=%v deleted=%d indexed=%d chunks=%d",
		businessID, changedFields, result.DeletedDocuments,
		result.IndexedDocuments, result.IndexedChunks)
	return result, nil
}

// runIndexingPass is the single-document state machine. Whatever
// happens inside, the document ends in a terminal status.
func (o *IndexingOrchestrator) runIndexingPass(
	ctx context.Context, doc *domain.Document, fileData []byte,
) (*driving.IndexResult, error) {
	logger.Stage("Indexing %s", doc.ID)

	doc.IndexingStatus = domain.IndexingProcessing
	doc.UpdatedAt = time.Now().UTC()
	if err := o.store.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("mark processing: %w", err)
	}

	segments, err := o.extractSegments(ctx, doc, fileData)
	if err != nil {
		return o.failDocument(ctx, doc, err), nil
	}

	logger.Debug("Document %s: %d segments to embed", doc.ID, len(segments))

	chunks, skipped := o.embedSegments(ctx, doc.ID, segments)
	if len(chunks) == 0 {
		return o.failDocument(ctx, doc,
			fmt.Errorf("%w: all %d chunk embeddings failed", domain.ErrEmbeddingFailed, len(segments))), nil
	}
	if skipped > 0 {
		logger.Warn("Document %s: skipped %d of %d chunks", doc.ID, skipped, len(segments))
	}

	if err := o.store.SaveChunks(ctx, chunks); err != nil {
		return o.failDocument(ctx, doc, fmt.Errorf("save chunks: %w", err)), nil
	}

	now := time.Now().UTC()
	doc.IndexingStatus = domain.IndexingComplete
	doc.IndexingError = ""
	doc.IndexedAt = &now
	doc.UpdatedAt = now
	if err := o.store.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("mark complete: %w", err)
	}

	logger.Info("Document %s indexed: %d chunks", doc.ID, len(chunks))
	return &driving.IndexResult{
		Success:       true,
		Message:       fmt.Sprintf("indexed %d chunks", len(chunks)),
		DocumentID:    doc.ID,
		IndexedChunks: len(chunks),
	}, nil
}

// extractSegments turns the document's source content into embeddable
// segments, running page-aware PDF extraction when needed.
func (o *IndexingOrchestrator) extractSegments(
	ctx context.Context, doc *domain.Document, fileData []byte,
) ([]domain.TextSegment, error) {
	if doc.Type == domain.DocumentTypePDF {
		if len(fileData) == 0 && doc.FilePath != "" {
			data, err := os.ReadFile(doc.FilePath)
			if err != nil {
				return nil, fmt.Errorf("read file: %w", err)
			}
			fileData = data
		}
		if len(fileData) == 0 {
			// No file bytes available: reindexing and version updates
			// run off the text persisted by the first pass. Page
			// provenance is gone at that point, so chunk it plain.
			if strings.TrimSpace(doc.Content) == "" {
				return nil, fmt.Errorf("pdf document: %w", domain.ErrEmptyContent)
			}
			segments := o.chunker.Chunk(doc.Content)
			if len(segments) == 0 {
				return nil, domain.ErrEmptyContent
			}
			return segments, nil
		}

		extracted, err := o.extractor.Extract(ctx, fileData)
		if err != nil {
			return nil, fmt.Errorf("extract text: %w", err)
		}

		// Persist the recovered text so reindexing does not need the
		// original file.
		doc.Content = extracted.Text()
		logger.Debug("Document %s: extracted %d pages", doc.ID, extracted.PageCount)

		segments := o.chunker.ChunkPages(extracted.Pages)
		if len(segments) == 0 {
			return nil, domain.ErrEmptyContent
		}
		return segments, nil
	}

	if strings.TrimSpace(doc.Content) == "" {
		return nil, domain.ErrEmptyContent
	}

	segments := o.chunker.Chunk(doc.Content)
	if len(segments) == 0 {
		return nil, domain.ErrEmptyContent
	}
	return segments, nil
}

// embedSegments generates embeddings for the segments under the worker
// cap and rate limit, building chunks in segment order. A single
// segment's failure is logged and skipped; the batch continues.
func (o *IndexingOrchestrator) embedSegments(
	ctx context.Context, documentID string, segments []domain.TextSegment,
) (chunks []domain.DocumentChunk, skipped int) {
	embedded := make([][]float32, len(segments))

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, o.maxConcurrent)

	for i := range segments {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(i int) {
			defer wg.Done()
			defer func() { <-semaphore }()

			if err := o.limiter.Wait(ctx); err != nil {
				logger.Warn("Chunk %d of %s: rate limiter: %v", i, documentID, err)
				return
			}

			embedding, err := o.embeddingService.Embed(ctx, segments[i].Content)
			if err != nil {
				logger.Warn("Chunk %d of %s: embedding failed: %v", i, documentID, err)
				return
			}
			embedded[i] = embedding
		}(i)
	}

	wg.Wait()

	now := time.Now().UTC()
	for i := range segments {
		if embedded[i] == nil {
			skipped++
			continue
		}

		metadata := make(map[string]any)
		if segments[i].Page > 0 {
			metadata["page"] = segments[i].Page
		}

		chunks = append(chunks, domain.DocumentChunk{
			ID:         uuid.New().String(),
			DocumentID: documentID,
			Content:    segments[i].Content,
			Embedding:  embedded[i],
			Position:   segments[i].Index,
			Metadata:   metadata,
			Active:     true,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}

	return chunks, skipped
}

// indexSyntheticDocument creates and indexes one synthesized field
// document. The questions get embedded; the answers ride along in
// chunk metadata.
func (o *IndexingOrchestrator) indexSyntheticDocument(
	ctx context.Context, businessID string, synthetic syntheticDocument,
) (int, error) {
	now := time.Now().UTC()
	doc := &domain.Document{
		ID:             uuid.New().String(),
		BusinessID:     businessID,
		Title:          synthetic.Title,
		Type:           domain.DocumentTypeFAQ,
		Content:        synthetic.content(),
		SourceField:    synthetic.Field,
		IndexingStatus: domain.IndexingPending,
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := o.store.SaveDocument(ctx, doc); err != nil {
		return 0, fmt.Errorf("save document: %w", err)
	}

	if err := o.acquire(doc.ID); err != nil {
		return 0, err
	}
	defer o.release(doc.ID)

	doc.IndexingStatus = domain.IndexingProcessing
	if err := o.store.SaveDocument(ctx, doc); err != nil {
		return 0, fmt.Errorf("mark processing: %w", err)
	}

	segments := make([]domain.TextSegment, len(synthetic.Entries))
	for i, entry := range synthetic.Entries {
		segments[i] = domain.TextSegment{Content: entry.Question, Index: i}
	}

	chunks, skipped := o.embedSegments(ctx, doc.ID, segments)
	if len(chunks) == 0 {
		cause := fmt.Errorf("%w: all %d question embeddings failed", domain.ErrEmbeddingFailed, len(segments))
		o.failDocument(ctx, doc, cause)
		return 0, cause
	}
	if skipped > 0 {
		logger.Warn("Synthetic document %s: skipped %d of %d questions",
			doc.ID, skipped, len(segments))
	}

	// Attach the answers the questions stand in for.
	for i := range chunks {
		entry := synthetic.Entries[chunks[i].Position]
		chunks[i].Metadata["answer"] = entry.Answer
		chunks[i].Metadata["field"] = synthetic.Field
	}

	if err := o.store.SaveChunks(ctx, chunks); err != nil {
		cause := fmt.Errorf("save chunks: %w", err)
		o.failDocument(ctx, doc, cause)
		return 0, cause
	}

	completed := time.Now().UTC()
	doc.IndexingStatus = domain.IndexingComplete
	doc.IndexingError = ""
	doc.IndexedAt = &completed
	doc.UpdatedAt = completed
	if err := o.store.SaveDocument(ctx, doc); err != nil {
		return 0, fmt.Errorf("mark complete: %w", err)
	}

	return len(chunks), nil
}

// failDocument records the failure on the document row for operator
// visibility and builds the corresponding result.
func (o *IndexingOrchestrator) failDocument(
	ctx context.Context, doc *domain.Document, cause error,
) *driving.IndexResult {
	logger.Warn("Document %s failed: %v", doc.ID, cause)

	doc.IndexingStatus = domain.IndexingFailed
	doc.IndexingError = cause.Error()
	doc.UpdatedAt = time.Now().UTC()
	if err := o.store.SaveDocument(ctx, doc); err != nil {
		logger.Warn("Document %s: recording failure: %v", doc.ID, err)
	}

	return &driving.IndexResult{
		Success:    false,
		Message:    cause.Error(),
		DocumentID: doc.ID,
	}
}

// acquire serialises indexing passes per document.
func (o *IndexingOrchestrator) acquire(documentID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, busy := o.inFlight[documentID]; busy {
		return fmt.Errorf("document %s: %w", documentID, domain.ErrIndexingInProgress)
	}
	o.inFlight[documentID] = struct{}{}
	return nil
}

func (o *IndexingOrchestrator) release(documentID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.inFlight, documentID)
}
