// Package sqlite provides a unified SQLite-based implementation of driven port interfaces.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements multiple store interfaces
// through a single database connection:
//
//   - KnowledgeStore: versioned document and chunk persistence plus search
//   - BusinessStore: business and service persistence
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory.
//
// # Embeddings
//
// Chunk embeddings are stored as little-endian float32 BLOBs. Similarity
// ranking happens in Go after a scoped candidate scan; at the document
// volumes of a single business this stays well under retrieval latency
// budgets. Larger deployments use the postgres adapter with pgvector.
//
// # Data Location
//
// By default, the database is stored at ~/.frontdesk/data/frontdesk.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
