// Package chunker splits document text into overlapping, boundary-aware
// segments suitable for embedding.
package chunker

import (
	"strings"

	"github.com/custodia-labs/frontdesk/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

// DefaultBoundaryLookback is how far back from the size budget the
// chunker searches for a sentence boundary before hard-cutting.
const DefaultBoundaryLookback = 200

// Chunker splits text into fixed-budget segments, preferring sentence
// boundaries near the budget edge.
type Chunker struct {
	chunkSize int
	overlap   int
	lookback  int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// WithBoundaryLookback sets the sentence boundary search window.
func WithBoundaryLookback(lookback int) Option {
	return func(c *Chunker) {
		if lookback > 0 {
			c.lookback = lookback
		}
	}
}

// New creates a new chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
		lookback:  DefaultBoundaryLookback,
	}

	for _, opt := range opts {
		opt(c)
	}

	// Overlap must stay below the chunk size or no forward progress
	// is possible.
	if c.overlap >= c.chunkSize {
		c.overlap = c.chunkSize / 4
	}
	if c.lookback >= c.chunkSize {
		c.lookback = c.chunkSize / 4
	}

	return c
}

// Chunk splits unstructured text into ordered segments. Empty or
// whitespace-only input yields no segments.
func (c *Chunker) Chunk(text string) []domain.TextSegment {
	return c.split(text, 0, 0)
}

// ChunkPages splits page-structured text. Each page under the size
// budget becomes a single page-tagged segment; oversized pages are
// split with the same boundary rule, each piece keeping its page
// number. Segment indexes increase monotonically across pages.
func (c *Chunker) ChunkPages(pages []domain.PageText) []domain.TextSegment {
	var segments []domain.TextSegment
	index := 0

	for _, page := range pages {
		pieces := c.split(page.Text, index, page.Number)
		segments = append(segments, pieces...)
		index += len(pieces)
	}

	return segments
}

// split chunks a single block of text, numbering segments from
// startIndex and tagging them with page (0 means untagged).
func (c *Chunker) split(text string, startIndex, page int) []domain.TextSegment {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	if len(text) <= c.chunkSize {
		return []domain.TextSegment{{Content: text, Index: startIndex, Page: page}}
	}

	estimated := len(text)/(c.chunkSize-c.overlap) + 1
	segments := make([]domain.TextSegment, 0, estimated)

	index := startIndex
	start := 0

	for start < len(text) {
		end := start + c.chunkSize
		if end >= len(text) {
			end = len(text)
		} else {
			end = c.boundaryCut(text, start, end)
		}

		piece := strings.TrimSpace(text[start:end])
		if piece != "" {
			segments = append(segments, domain.TextSegment{
				Content: piece,
				Index:   index,
				Page:    page,
			})
			index++
		}

		if end >= len(text) {
			break
		}

		next := end - c.overlap
		if next <= start {
			// Progress guarantee for pathological input.
			next = end
		}
		start = next
	}

	return segments
}

// boundaryCut looks back from the budget edge for a sentence terminator
// and cuts just after it. Falls back to a hard cut when the lookback
// window holds no terminator.
func (c *Chunker) boundaryCut(text string, start, end int) int {
	windowStart := end - c.lookback
	if windowStart <= start {
		windowStart = start + 1
	}

	for i := end - 1; i >= windowStart; i-- {
		if isSentenceBoundary(text[i]) {
			return i + 1
		}
	}

	return end
}

func isSentenceBoundary(b byte) bool {
	return b == '.' || b == '!' || b == '?' || b == '\n'
}
