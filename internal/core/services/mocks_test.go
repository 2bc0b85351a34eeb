package services

import (
	"context"
	"time"

	"github.com/custodia-labs/frontdesk/internal/core/domain"
)

// --- Mock implementations ---

// mockEmbeddingService implements driven.EmbeddingService for testing.
// Texts listed in vectors get their mapped embedding; everything else
// gets fallback. errFor fails individual texts, embedErr fails all.
// delay makes each Embed call take measurable time.
type mockEmbeddingService struct {
	vectors  map[string][]float32
	fallback []float32
	errFor   map[string]error
	embedErr error
	delay    time.Duration
	dims     int
}

func (m *mockEmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	if err, ok := m.errFor[text]; ok {
		return nil, err
	}
	if v, ok := m.vectors[text]; ok {
		return v, nil
	}
	if m.fallback != nil {
		return m.fallback, nil
	}
	return []float32{1, 0, 0}, nil
}

func (m *mockEmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	result := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := m.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		result[i] = v
	}
	return result, nil
}

func (m *mockEmbeddingService) Dimensions() int {
	if m.dims > 0 {
		return m.dims
	}
	return 3
}

func (m *mockEmbeddingService) ModelName() string {
	return "mock-embed"
}

func (m *mockEmbeddingService) Ping(_ context.Context) error {
	return nil
}

func (m *mockEmbeddingService) Close() error {
	return nil
}

// mockExtractor implements driven.TextExtractor for testing.
type mockExtractor struct {
	extracted  *domain.ExtractedText
	extractErr error
}

func (m *mockExtractor) Extract(_ context.Context, _ []byte) (*domain.ExtractedText, error) {
	if m.extractErr != nil {
		return nil, m.extractErr
	}
	return m.extracted, nil
}
