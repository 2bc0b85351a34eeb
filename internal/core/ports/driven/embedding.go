package driven

import "context"

// EmbeddingService generates vector embeddings from text.
//
// Each call is a single external round-trip under a bounded timeout;
// callers must not assume batching. The service is stateless and safe
// for concurrent use - concurrency limits are enforced by the indexing
// orchestrator, not here.
//
// Implementations may include:
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Ollama (nomic-embed-text, all-minilm)
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	// Fails with domain.ErrInvalidInput on empty input and with
	// domain.ErrEmbeddingTimeout when the external call exceeds its
	// deadline.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g. 768, 1536).
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight
	// test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
