package domain

import "time"

// DocumentType classifies a unit of business knowledge.
type DocumentType string

// Supported document types.
const (
	DocumentTypePDF     DocumentType = "pdf"
	DocumentTypeNote    DocumentType = "note"
	DocumentTypePolicy  DocumentType = "policy"
	DocumentTypeFAQ     DocumentType = "faq"
	DocumentTypeGuide   DocumentType = "guide"
	DocumentTypeGeneral DocumentType = "general"
)

// Valid reports whether the document type is one of the supported values.
func (t DocumentType) Valid() bool {
	switch t {
	case DocumentTypePDF, DocumentTypeNote, DocumentTypePolicy,
		DocumentTypeFAQ, DocumentTypeGuide, DocumentTypeGeneral:
		return true
	}
	return false
}

// IndexingStatus tracks a document through the indexing state machine.
type IndexingStatus string

// Indexing lifecycle states.
const (
	IndexingPending    IndexingStatus = "pending"
	IndexingProcessing IndexingStatus = "processing"
	IndexingComplete   IndexingStatus = "complete"
	IndexingFailed     IndexingStatus = "failed"
)

// CanTransition reports whether moving to the given status is a legal
// state machine step. Reindexing re-enters at pending from any
// terminal state.
func (s IndexingStatus) CanTransition(to IndexingStatus) bool {
	switch s {
	case IndexingPending:
		return to == IndexingProcessing
	case IndexingProcessing:
		return to == IndexingComplete || to == IndexingFailed
	case IndexingComplete, IndexingFailed:
		return to == IndexingPending
	}
	return false
}

// Terminal reports whether the status is an end state of an indexing pass.
func (s IndexingStatus) Terminal() bool {
	return s == IndexingComplete || s == IndexingFailed
}

// Document is a unit of business knowledge: an uploaded PDF, a note,
// a policy, an FAQ set, or a synthesized record of a structured field.
//
// Documents are never edited in place. Content changes create a new
// document linked to the old one through PreviousVersionID, and the
// old one is deactivated. The chain is single-level: exactly one undo
// step is supported.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// BusinessID identifies the owning business.
	BusinessID string

	// Title is the human-readable title.
	Title string

	// Type classifies the document.
	Type DocumentType

	// Content is the full original text content before chunking.
	Content string

	// FilePath is where the uploaded file is stored, if any.
	FilePath string

	// OriginalFilename is the name of the uploaded file, if any.
	OriginalFilename string

	// FileSize is the uploaded file size in bytes, if any.
	FileSize int64

	// IndexingStatus tracks the document through the indexing pipeline.
	IndexingStatus IndexingStatus

	// IndexingError holds the failure message when IndexingStatus is failed.
	IndexingError string

	// IndexedAt is when the last successful indexing pass completed.
	IndexedAt *time.Time

	// ServiceID optionally links the document to a service for
	// service-scoped retrieval.
	ServiceID *string

	// SourceField names the structured business field this document was
	// synthesized from (e.g. "service_catalog"). Empty for uploaded content.
	SourceField string

	// PreviousVersionID links to the superseded version, if any.
	PreviousVersionID *string

	// Active marks the head of the version chain. Only chunks of active
	// documents are visible to retrieval.
	Active bool

	// CreatedAt is when the document was created.
	CreatedAt time.Time

	// UpdatedAt is when the document was last updated.
	UpdatedAt time.Time
}

// DocumentChunk is one embeddable unit of a document's content.
type DocumentChunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Content is the indexed text of this chunk. For synthesized
	// documents this is the question; the answer lives in Metadata.
	Content string

	// Embedding is the vector representation for similarity search.
	Embedding []float32

	// Position is the ordinal position within the document, starting at 0.
	Position int

	// Metadata contains chunk-specific key-value pairs, e.g. a source
	// "page" number or a structured "answer" for synthesized documents.
	Metadata map[string]any

	// Active mirrors the parent document's versioning state.
	Active bool

	// CreatedAt is when the chunk was created.
	CreatedAt time.Time

	// UpdatedAt is when the chunk was last updated.
	UpdatedAt time.Time
}

// Page returns the source page number carried in the chunk metadata,
// or 0 if the chunk is not page-tagged.
func (c *DocumentChunk) Page() int {
	if c.Metadata == nil {
		return 0
	}
	switch v := c.Metadata["page"].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

// Answer returns the surfaced answer for synthesized question chunks,
// or the empty string for regular content chunks.
func (c *DocumentChunk) Answer() string {
	if c.Metadata == nil {
		return ""
	}
	if a, ok := c.Metadata["answer"].(string); ok {
		return a
	}
	return ""
}

// ExtractedText is the result of text extraction over a paginated source.
type ExtractedText struct {
	// Pages holds the per-page text in source order.
	Pages []PageText

	// PageCount is the number of pages in the source.
	PageCount int
}

// Text returns the concatenated text of all pages.
func (e *ExtractedText) Text() string {
	var b []byte
	for i, p := range e.Pages {
		if i > 0 {
			b = append(b, '\n')
		}
		b = append(b, p.Text...)
	}
	return string(b)
}

// PageText is the extracted text of a single page of a paginated source.
type PageText struct {
	// Number is the 1-based page number.
	Number int

	// Text is the extracted plain text of the page.
	Text string
}

// TextSegment is a chunker output unit before embedding generation.
type TextSegment struct {
	// Content is the segment text.
	Content string

	// Index is the monotonically increasing position within the document.
	Index int

	// Page is the 1-based source page number, or 0 when the input had
	// no page structure.
	Page int
}

// IngestRequest is a raw document creation request from a collaborator.
type IngestRequest struct {
	// BusinessID identifies the owning business.
	BusinessID string

	// Title is the document title.
	Title string

	// Type classifies the document.
	Type DocumentType

	// Content is the raw text content. Ignored when FileData is set
	// for a pdf document.
	Content string

	// FileData holds the raw uploaded file bytes, if any.
	FileData []byte

	// FileName is the original name of the uploaded file, if any.
	FileName string

	// ServiceID optionally relates the document to a service.
	ServiceID string
}

// Validate checks the request for required fields.
func (r *IngestRequest) Validate() error {
	if r.BusinessID == "" || r.Title == "" {
		return ErrInvalidInput
	}
	if !r.Type.Valid() {
		return ErrInvalidInput
	}
	if r.Content == "" && len(r.FileData) == 0 {
		return ErrInvalidInput
	}
	return nil
}
