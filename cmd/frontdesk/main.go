// Command frontdesk is the knowledge indexing and retrieval engine for
// small-business answering services.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/frontdesk/internal/adapters/driven/config/file"
	"github.com/custodia-labs/frontdesk/internal/adapters/driven/embedding/ollama"
	"github.com/custodia-labs/frontdesk/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/frontdesk/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/frontdesk/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/frontdesk/internal/adapters/driving/cli"
	"github.com/custodia-labs/frontdesk/internal/chunker"
	"github.com/custodia-labs/frontdesk/internal/core/ports/driven"
	"github.com/custodia-labs/frontdesk/internal/core/services"
	"github.com/custodia-labs/frontdesk/internal/extract/pdf"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Optional .env file for local development.
	_ = godotenv.Load()

	cfg, err := file.NewConfigStore(os.Getenv("FRONTDESK_CONFIG_DIR"))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return err
	}

	knowledgeStore, businessStore, closeStore, err := newStores(cfg, embedder.Dimensions())
	if err != nil {
		return err
	}
	defer closeStore()

	indexer := services.NewIndexingOrchestrator(
		knowledgeStore,
		businessStore,
		embedder,
		pdf.New(),
		chunker.New(),
	)

	var retrieverOpts []services.RetrieverOption
	if min := cfg.GetFloat64("retrieval.min_similarity"); min > 0 {
		retrieverOpts = append(retrieverOpts, services.WithDefaultMinSimilarity(min))
	}
	retriever := services.NewRetrievalService(knowledgeStore, businessStore, embedder, retrieverOpts...)

	return cli.Execute(&cli.Deps{
		Indexer:   indexer,
		Retriever: retriever,
		Documents: services.NewDocumentService(knowledgeStore),
	})
}

// newEmbedder selects the embedding provider: OpenAI when an API key is
// configured, Ollama otherwise.
func newEmbedder(cfg driven.ConfigStore) (driven.EmbeddingService, error) {
	apiKey := cfg.GetString("embedding.openai_api_key")
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}

	provider := cfg.GetString("embedding.provider")
	if provider == "" {
		if apiKey != "" {
			provider = "openai"
		} else {
			provider = "ollama"
		}
	}

	switch provider {
	case "openai":
		svc, err := openai.NewEmbeddingService(openai.Config{
			APIKey:     apiKey,
			Model:      cfg.GetString("embedding.model"),
			Dimensions: cfg.GetInt("embedding.dimensions"),
		})
		if err != nil {
			return nil, fmt.Errorf("configuring openai embeddings: %w", err)
		}
		return svc, nil

	case "ollama":
		return ollama.NewEmbeddingService(ollama.Config{
			BaseURL:    cfg.GetString("embedding.base_url"),
			Model:      cfg.GetString("embedding.model"),
			Dimensions: cfg.GetInt("embedding.dimensions"),
		}), nil

	default:
		return nil, fmt.Errorf("unknown embedding provider %q", provider)
	}
}

// newStores selects the storage backend: SQLite by default, Postgres
// with pgvector when a DSN is configured.
func newStores(cfg driven.ConfigStore, dimensions int) (driven.KnowledgeStore, driven.BusinessStore, func() error, error) {
	backend := cfg.GetString("storage.backend")

	if backend == "postgres" {
		dsn := cfg.GetString("storage.postgres_dsn")
		if dsn == "" {
			dsn = os.Getenv("FRONTDESK_POSTGRES_DSN")
		}
		store, err := postgres.NewStore(dsn, dimensions)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("opening postgres store: %w", err)
		}
		return store.KnowledgeStore(), store.BusinessStore(), store.Close, nil
	}

	store, err := sqlite.NewStore(cfg.GetString("storage.data_dir"))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("opening sqlite store: %w", err)
	}
	return store.KnowledgeStore(), store.BusinessStore(), store.Close, nil
}
