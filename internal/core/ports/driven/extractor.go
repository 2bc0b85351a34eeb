package driven

import (
	"context"

	"github.com/custodia-labs/frontdesk/internal/core/domain"
)

// TextExtractor recovers per-page plain text from a raw file payload.
type TextExtractor interface {
	// Extract parses the payload and returns per-page text plus the
	// page count. Fails with domain.ErrEmptyContent when no usable
	// text can be recovered.
	Extract(ctx context.Context, data []byte) (*domain.ExtractedText, error)
}

// Chunker splits text into embeddable segments.
type Chunker interface {
	// Chunk splits unstructured text into ordered segments.
	Chunk(text string) []domain.TextSegment

	// ChunkPages splits page-structured text, tagging each segment
	// with its source page number.
	ChunkPages(pages []domain.PageText) []domain.TextSegment
}
