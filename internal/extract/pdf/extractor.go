// Package pdf extracts per-page plain text from PDF byte payloads.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/frontdesk/internal/core/domain"
	"github.com/custodia-labs/frontdesk/internal/core/ports/driven"
	"github.com/custodia-labs/frontdesk/internal/logger"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

// Extractor recovers per-page text from raw PDF bytes.
type Extractor struct{}

// New creates a new PDF text extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extract parses the PDF and returns per-page text plus the page count.
// Pages that yield no text are kept (with empty text) so page numbers
// stay aligned with the source. Returns domain.ErrEmptyContent when no
// usable text is recovered from any page.
func (e *Extractor) Extract(_ context.Context, data []byte) (result *domain.ExtractedText, err error) {
	if len(data) == 0 {
		return nil, domain.ErrEmptyContent
	}

	// The underlying parser panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("parse pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	pageCount := reader.NumPage()
	pages := make([]domain.PageText, 0, pageCount)
	hasText := false

	for i := 1; i <= pageCount; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, domain.PageText{Number: i})
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			logger.Warn("PDF page %d: %v", i, err)
			pages = append(pages, domain.PageText{Number: i})
			continue
		}

		text = strings.TrimSpace(text)
		if text != "" {
			hasText = true
		}
		pages = append(pages, domain.PageText{Number: i, Text: text})
	}

	if !hasText {
		// Per-page extraction came up empty; try the whole document.
		if text := wholeDocumentText(reader); text != "" {
			return &domain.ExtractedText{
				Pages:     []domain.PageText{{Number: 1, Text: text}},
				PageCount: pageCount,
			}, nil
		}
		return nil, domain.ErrEmptyContent
	}

	return &domain.ExtractedText{Pages: pages, PageCount: pageCount}, nil
}

// wholeDocumentText is the fallback path for PDFs whose page tree does
// not expose text page by page.
func wholeDocumentText(reader *pdf.Reader) string {
	r, err := reader.GetPlainText()
	if err != nil {
		return ""
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}
