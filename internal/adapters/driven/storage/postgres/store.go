// Package postgres provides a PostgreSQL implementation of the driven
// store ports for multi-tenant deployments.
//
// Unlike the sqlite adapter, similarity ranking runs inside the
// database through the pgvector extension, so retrieval stays fast as
// the corpus grows past what a single-process scan can handle.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/pgvector/pgvector-go"

	"github.com/custodia-labs/frontdesk/internal/core/domain"
	"github.com/custodia-labs/frontdesk/internal/core/ports/driven"
)

// Store is a PostgreSQL-backed storage that provides access to the
// knowledge and business store interfaces through wrapper types.
type Store struct {
	db         *sql.DB
	dimensions int
}

// NewStore connects to PostgreSQL and ensures the schema exists.
// dimensions is the embedding vector size the schema is created with;
// it must match the configured embedding model.
func NewStore(dsn string, dimensions int) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres: DSN is required")
	}
	if dimensions <= 0 {
		return nil, fmt.Errorf("postgres: embedding dimensions must be positive")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{db: db, dimensions: dimensions}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensuring schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// KnowledgeStore returns a KnowledgeStore interface backed by this store.
func (s *Store) KnowledgeStore() driven.KnowledgeStore {
	return &knowledgeStore{store: s}
}

// BusinessStore returns a BusinessStore interface backed by this store.
func (s *Store) BusinessStore() driven.BusinessStore {
	return &businessStore{store: s}
}

// ensureSchema creates the pgvector extension and all tables.
func (s *Store) ensureSchema() error {
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS businesses (
			id              TEXT PRIMARY KEY,
			name            TEXT NOT NULL,
			quick_responses JSONB NOT NULL DEFAULT '{}',
			policies        JSONB NOT NULL DEFAULT '{}',
			active          BOOLEAN NOT NULL DEFAULT TRUE,
			created_at      TIMESTAMPTZ NOT NULL,
			updated_at      TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS services (
			id               TEXT PRIMARY KEY,
			business_id      TEXT NOT NULL REFERENCES businesses(id) ON DELETE CASCADE,
			name             TEXT NOT NULL,
			description      TEXT NOT NULL DEFAULT '',
			price_cents      INTEGER NOT NULL DEFAULT 0,
			duration_minutes INTEGER NOT NULL DEFAULT 0,
			active           BOOLEAN NOT NULL DEFAULT TRUE,
			created_at       TIMESTAMPTZ NOT NULL,
			updated_at       TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_services_business ON services(business_id)`,
		`CREATE TABLE IF NOT EXISTS documents (
			id                  TEXT PRIMARY KEY,
			business_id         TEXT NOT NULL,
			title               TEXT NOT NULL,
			type                TEXT NOT NULL,
			content             TEXT NOT NULL DEFAULT '',
			file_path           TEXT NOT NULL DEFAULT '',
			original_filename   TEXT NOT NULL DEFAULT '',
			file_size           BIGINT NOT NULL DEFAULT 0,
			indexing_status     TEXT NOT NULL DEFAULT 'pending',
			indexing_error      TEXT NOT NULL DEFAULT '',
			indexed_at          TIMESTAMPTZ,
			service_id          TEXT,
			source_field        TEXT NOT NULL DEFAULT '',
			previous_version_id TEXT,
			active              BOOLEAN NOT NULL DEFAULT TRUE,
			created_at          TIMESTAMPTZ NOT NULL,
			updated_at          TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_business_active ON documents(business_id, active)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_source_field ON documents(business_id, source_field)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS document_chunks (
			id          TEXT PRIMARY KEY,
			document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			content     TEXT NOT NULL,
			embedding   vector(%d),
			position    INTEGER NOT NULL DEFAULT 0,
			metadata    JSONB NOT NULL DEFAULT '{}',
			active      BOOLEAN NOT NULL DEFAULT TRUE,
			created_at  TIMESTAMPTZ NOT NULL,
			updated_at  TIMESTAMPTZ NOT NULL
		)`, s.dimensions),
		`CREATE INDEX IF NOT EXISTS idx_chunks_document ON document_chunks(document_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// ==================== Knowledge Store ====================

// knowledgeStore implements driven.KnowledgeStore.
type knowledgeStore struct {
	store *Store
}

var _ driven.KnowledgeStore = (*knowledgeStore)(nil)

const documentColumns = `id, business_id, title, type, content, file_path,
	original_filename, file_size, indexing_status, indexing_error, indexed_at,
	service_id, source_field, previous_version_id, active, created_at, updated_at`

// SaveDocument stores or updates a document.
func (s *knowledgeStore) SaveDocument(ctx context.Context, doc *domain.Document) error {
	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO documents (`+documentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT(id) DO UPDATE SET
			business_id = excluded.business_id,
			title = excluded.title,
			type = excluded.type,
			content = excluded.content,
			file_path = excluded.file_path,
			original_filename = excluded.original_filename,
			file_size = excluded.file_size,
			indexing_status = excluded.indexing_status,
			indexing_error = excluded.indexing_error,
			indexed_at = excluded.indexed_at,
			service_id = excluded.service_id,
			source_field = excluded.source_field,
			previous_version_id = excluded.previous_version_id,
			active = excluded.active,
			updated_at = excluded.updated_at
	`, doc.ID, doc.BusinessID, doc.Title, string(doc.Type), doc.Content,
		doc.FilePath, doc.OriginalFilename, doc.FileSize,
		string(doc.IndexingStatus), doc.IndexingError, doc.IndexedAt,
		doc.ServiceID, doc.SourceField, doc.PreviousVersionID,
		doc.Active, doc.CreatedAt, doc.UpdatedAt)

	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *knowledgeStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT `+documentColumns+` FROM documents WHERE id = $1
	`, id)

	doc, err := scanDocument(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}

// ListDocuments returns all documents for a business.
func (s *knowledgeStore) ListDocuments(ctx context.Context, businessID string) ([]domain.Document, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+documentColumns+` FROM documents
		WHERE business_id = $1
		ORDER BY created_at
	`, businessID)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	return collectDocuments(rows)
}

// ListDocumentsByField returns active documents synthesized from the
// named structured fields.
func (s *knowledgeStore) ListDocumentsByField(
	ctx context.Context, businessID string, fields []string,
) ([]domain.Document, error) {
	if len(fields) == 0 {
		return nil, nil
	}

	args := make([]any, 0, len(fields)+1)
	args = append(args, businessID)
	placeholders := make([]string, len(fields))
	for i, f := range fields {
		placeholders[i] = fmt.Sprintf("$%d", i+2)
		args = append(args, f)
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+documentColumns+` FROM documents
		WHERE business_id = $1 AND active AND source_field IN (`+strings.Join(placeholders, ",")+`)
		ORDER BY created_at
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying field documents: %w", err)
	}
	defer rows.Close()

	return collectDocuments(rows)
}

// SaveChunks stores chunks for a document in one transaction.
func (s *knowledgeStore) SaveChunks(ctx context.Context, chunks []domain.DocumentChunk) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO document_chunks (id, document_id, content, embedding, position, metadata, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT(id) DO UPDATE SET
			document_id = excluded.document_id,
			content = excluded.content,
			embedding = excluded.embedding,
			position = excluded.position,
			metadata = excluded.metadata,
			active = excluded.active,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, chunk := range chunks {
		metadataJSON, err := json.Marshal(chunk.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling chunk metadata: %w", err)
		}
		if chunk.CreatedAt.IsZero() {
			chunk.CreatedAt = now
		}

		var embedding any
		if len(chunk.Embedding) > 0 {
			embedding = pgvector.NewVector(chunk.Embedding)
		}

		if _, err := stmt.ExecContext(ctx, chunk.ID, chunk.DocumentID, chunk.Content,
			embedding, chunk.Position, string(metadataJSON),
			chunk.Active, chunk.CreatedAt, now); err != nil {
			return fmt.Errorf("saving chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetChunks retrieves all chunks for a document, ordered by position.
func (s *knowledgeStore) GetChunks(ctx context.Context, documentID string) ([]domain.DocumentChunk, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, document_id, content, embedding, position, metadata, active, created_at, updated_at
		FROM document_chunks WHERE document_id = $1
		ORDER BY position
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.DocumentChunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		var chunk domain.DocumentChunk
		var embedding pgvector.Vector
		var metadataJSON string
		if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Content,
			&embedding, &chunk.Position, &metadataJSON, &chunk.Active,
			&chunk.CreatedAt, &chunk.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		chunk.Embedding = embedding.Slice()
		if metadataJSON != "" {
			if err := json.Unmarshal([]byte(metadataJSON), &chunk.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshaling chunk metadata: %w", err)
			}
		}
		chunks = append(chunks, chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	return chunks, nil
}

// DeleteChunks removes all chunks for a document.
func (s *knowledgeStore) DeleteChunks(ctx context.Context, documentID string) error {
	_, err := s.store.db.ExecContext(ctx,
		"DELETE FROM document_chunks WHERE document_id = $1", documentID)
	if err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}
	return nil
}

// DeleteDocument removes a document; its chunks go with it via the
// foreign key cascade.
func (s *knowledgeStore) DeleteDocument(ctx context.Context, id string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM documents WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return nil
}

// CreateVersion deactivates the document and its chunks and inserts a
// new pending document linked back through previous_version_id, all in
// one transaction.
func (s *knowledgeStore) CreateVersion(
	ctx context.Context, documentID, newContent string,
) (*domain.Document, error) {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	row := tx.QueryRowContext(ctx, `
		SELECT `+documentColumns+` FROM documents WHERE id = $1 FOR UPDATE
	`, documentID)
	old, err := scanDocument(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if !old.Active {
		return nil, domain.ErrVersionInactive
	}

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		"UPDATE documents SET active = FALSE, updated_at = $1 WHERE id = $2",
		now, documentID); err != nil {
		return nil, fmt.Errorf("deactivating document: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE document_chunks SET active = FALSE, updated_at = $1 WHERE document_id = $2",
		now, documentID); err != nil {
		return nil, fmt.Errorf("deactivating chunks: %w", err)
	}

	prevID := old.ID
	newDoc := &domain.Document{
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

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO documents (`+documentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`, newDoc.ID, newDoc.BusinessID, newDoc.Title, string(newDoc.Type), newDoc.Content,
		newDoc.FilePath, newDoc.OriginalFilename, newDoc.FileSize,
		string(newDoc.IndexingStatus), newDoc.IndexingError, newDoc.IndexedAt,
		newDoc.ServiceID, newDoc.SourceField, newDoc.PreviousVersionID,
		newDoc.Active, newDoc.CreatedAt, newDoc.UpdatedAt); err != nil {
		return nil, fmt.Errorf("inserting new version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}
	return newDoc, nil
}

// Revert deactivates the current version and reactivates the previous
// one together with its chunks, in one transaction.
func (s *knowledgeStore) Revert(ctx context.Context, documentID string) (*domain.Document, error) {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	row := tx.QueryRowContext(ctx, `
		SELECT `+documentColumns+` FROM documents WHERE id = $1 FOR UPDATE
	`, documentID)
	current, err := scanDocument(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if current.PreviousVersionID == nil {
		return nil, domain.ErrNoPreviousVersion
	}

	row = tx.QueryRowContext(ctx, `
		SELECT `+documentColumns+` FROM documents WHERE id = $1 FOR UPDATE
	`, *current.PreviousVersionID)
	previous, err := scanDocument(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		"UPDATE documents SET active = FALSE, updated_at = $1 WHERE id = $2",
		now, current.ID); err != nil {
		return nil, fmt.Errorf("deactivating current version: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE document_chunks SET active = FALSE, updated_at = $1 WHERE document_id = $2",
		now, current.ID); err != nil {
		return nil, fmt.Errorf("deactivating current chunks: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE documents SET active = TRUE, updated_at = $1 WHERE id = $2",
		now, previous.ID); err != nil {
		return nil, fmt.Errorf("reactivating previous version: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE document_chunks SET active = TRUE, updated_at = $1 WHERE document_id = $2",
		now, previous.ID); err != nil {
		return nil, fmt.Errorf("reactivating previous chunks: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}

	previous.Active = true
	previous.UpdatedAt = now
	return previous, nil
}

// retrievableWhere is the scoping shared by both search methods.
const retrievableWhere = `
	  d.business_id = $1
	  AND d.active
	  AND c.active
	  AND d.indexing_status = 'complete'
	  AND ($2 = '' OR d.type = $2)
	  AND ($3 = '' OR d.service_id IS NULL OR d.service_id = $3)`

// VectorSearch ranks chunks by cosine similarity inside the database
// using the pgvector cosine distance operator.
func (s *knowledgeStore) VectorSearch(
	ctx context.Context, businessID string, embedding []float32, filter driven.ChunkFilter,
) ([]domain.RetrievedChunk, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT c.content, c.metadata, d.title, d.type, sv.name,
		       1 - (c.embedding <=> $4) AS similarity
		FROM document_chunks c
		JOIN documents d ON d.id = c.document_id
		LEFT JOIN services sv ON sv.id = d.service_id
		WHERE`+retrievableWhere+`
		  AND c.embedding IS NOT NULL
		  AND 1 - (c.embedding <=> $4) >= $5
		ORDER BY c.embedding <=> $4
		LIMIT $6
	`, businessID, string(filter.DocumentType), filter.ServiceID,
		pgvector.NewVector(embedding), filter.MinSimilarity, limit)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var hits []domain.RetrievedChunk
	for rows.Next() {
		var hit domain.RetrievedChunk
		var docType, metadataJSON string
		var serviceName sql.NullString
		if err := rows.Scan(&hit.Content, &metadataJSON, &hit.DocumentTitle,
			&docType, &serviceName, &hit.Similarity); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		hit.DocumentType = domain.DocumentType(docType)
		hit.ServiceName = serviceName.String
		hit.Kind = domain.MatchVector
		if metadataJSON != "" {
			if err := json.Unmarshal([]byte(metadataJSON), &hit.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshaling chunk metadata: %w", err)
			}
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	return hits, nil
}

// KeywordSearch matches retrievable chunks whose content contains any
// keyword, case-insensitively.
func (s *knowledgeStore) KeywordSearch(
	ctx context.Context, businessID string, keywords []string, filter driven.ChunkFilter,
) ([]domain.RetrievedChunk, error) {
	if len(keywords) == 0 {
		return nil, nil
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	args := []any{businessID, string(filter.DocumentType), filter.ServiceID}
	conditions := make([]string, 0, len(keywords))
	for _, keyword := range keywords {
		args = append(args, strings.ToLower(keyword))
		conditions = append(conditions, fmt.Sprintf("position($%d in lower(c.content)) > 0", len(args)))
	}
	args = append(args, limit)

	rows, err := s.store.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT c.content, c.metadata, d.title, d.type, sv.name
		FROM document_chunks c
		JOIN documents d ON d.id = c.document_id
		LEFT JOIN services sv ON sv.id = d.service_id
		WHERE%s
		  AND (%s)
		LIMIT $%d
	`, retrievableWhere, strings.Join(conditions, " OR "), len(args)), args...)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var hits []domain.RetrievedChunk
	for rows.Next() {
		var hit domain.RetrievedChunk
		var docType, metadataJSON string
		var serviceName sql.NullString
		if err := rows.Scan(&hit.Content, &metadataJSON, &hit.DocumentTitle,
			&docType, &serviceName); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		hit.DocumentType = domain.DocumentType(docType)
		hit.ServiceName = serviceName.String
		hit.Kind = domain.MatchKeyword
		if metadataJSON != "" {
			if err := json.Unmarshal([]byte(metadataJSON), &hit.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshaling chunk metadata: %w", err)
			}
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	return hits, nil
}

// ==================== Business Store ====================

// businessStore implements driven.BusinessStore.
type businessStore struct {
	store *Store
}

var _ driven.BusinessStore = (*businessStore)(nil)

// SaveBusiness stores or updates a business.
func (s *businessStore) SaveBusiness(ctx context.Context, business *domain.Business) error {
	quickResponsesJSON, err := json.Marshal(business.QuickResponses)
	if err != nil {
		return fmt.Errorf("marshalling quick responses: %w", err)
	}
	policiesJSON, err := json.Marshal(business.Policies)
	if err != nil {
		return fmt.Errorf("marshalling policies: %w", err)
	}

	now := time.Now().UTC()
	if business.CreatedAt.IsZero() {
		business.CreatedAt = now
	}
	business.UpdatedAt = now

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO businesses (id, name, quick_responses, policies, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			quick_responses = excluded.quick_responses,
			policies = excluded.policies,
			active = excluded.active,
			updated_at = excluded.updated_at
	`, business.ID, business.Name, string(quickResponsesJSON), string(policiesJSON),
		business.Active, business.CreatedAt, business.UpdatedAt)

	if err != nil {
		return fmt.Errorf("saving business: %w", err)
	}
	return nil
}

// GetBusiness retrieves a business by ID.
func (s *businessStore) GetBusiness(ctx context.Context, id string) (*domain.Business, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, name, quick_responses, policies, active, created_at, updated_at
		FROM businesses WHERE id = $1
	`, id)

	business, err := scanBusiness(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return business, nil
}

// ListActiveBusinesses returns a page of active businesses ordered by ID.
func (s *businessStore) ListActiveBusinesses(ctx context.Context, offset, limit int) ([]domain.Business, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, name, quick_responses, policies, active, created_at, updated_at
		FROM businesses WHERE active
		ORDER BY id
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("querying businesses: %w", err)
	}
	defer rows.Close()

	var businesses []domain.Business //nolint:prealloc // size unknown from query
	for rows.Next() {
		business, err := scanBusiness(rows.Scan)
		if err != nil {
			return nil, err
		}
		businesses = append(businesses, *business)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating businesses: %w", err)
	}

	return businesses, nil
}

// SaveService stores or updates a service.
func (s *businessStore) SaveService(ctx context.Context, service *domain.Service) error {
	now := time.Now().UTC()
	if service.CreatedAt.IsZero() {
		service.CreatedAt = now
	}
	service.UpdatedAt = now

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO services (id, business_id, name, description, price_cents, duration_minutes, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT(id) DO UPDATE SET
			business_id = excluded.business_id,
			name = excluded.name,
			description = excluded.description,
			price_cents = excluded.price_cents,
			duration_minutes = excluded.duration_minutes,
			active = excluded.active,
			updated_at = excluded.updated_at
	`, service.ID, service.BusinessID, service.Name, service.Description,
		service.PriceCents, service.DurationMinutes, service.Active,
		service.CreatedAt, service.UpdatedAt)

	if err != nil {
		return fmt.Errorf("saving service: %w", err)
	}
	return nil
}

// ListServices returns all active services for a business.
func (s *businessStore) ListServices(ctx context.Context, businessID string) ([]domain.Service, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, business_id, name, description, price_cents, duration_minutes, active, created_at, updated_at
		FROM services WHERE business_id = $1 AND active
		ORDER BY name
	`, businessID)
	if err != nil {
		return nil, fmt.Errorf("querying services: %w", err)
	}
	defer rows.Close()

	var services []domain.Service //nolint:prealloc // size unknown from query
	for rows.Next() {
		var service domain.Service
		if err := rows.Scan(&service.ID, &service.BusinessID, &service.Name,
			&service.Description, &service.PriceCents, &service.DurationMinutes,
			&service.Active, &service.CreatedAt, &service.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning service: %w", err)
		}
		services = append(services, service)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating services: %w", err)
	}

	return services, nil
}

// ==================== Helper Functions ====================

// scanDocument scans one document row via the given scan function.
func scanDocument(scan func(...any) error) (*domain.Document, error) {
	var doc domain.Document
	var docType, status string
	var indexedAt sql.NullTime
	var serviceID, previousVersionID sql.NullString

	if err := scan(&doc.ID, &doc.BusinessID, &doc.Title, &docType, &doc.Content,
		&doc.FilePath, &doc.OriginalFilename, &doc.FileSize, &status,
		&doc.IndexingError, &indexedAt, &serviceID, &doc.SourceField,
		&previousVersionID, &doc.Active, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	doc.Type = domain.DocumentType(docType)
	doc.IndexingStatus = domain.IndexingStatus(status)
	if indexedAt.Valid {
		doc.IndexedAt = &indexedAt.Time
	}
	if serviceID.Valid {
		doc.ServiceID = &serviceID.String
	}
	if previousVersionID.Valid {
		doc.PreviousVersionID = &previousVersionID.String
	}

	return &doc, nil
}

// collectDocuments drains a document query result.
func collectDocuments(rows *sql.Rows) ([]domain.Document, error) {
	var docs []domain.Document //nolint:prealloc // size unknown from query
	for rows.Next() {
		doc, err := scanDocument(rows.Scan)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}

	return docs, nil
}

// scanBusiness scans one business row via the given scan function.
func scanBusiness(scan func(...any) error) (*domain.Business, error) {
	var business domain.Business
	var quickResponsesJSON, policiesJSON string

	if err := scan(&business.ID, &business.Name, &quickResponsesJSON,
		&policiesJSON, &business.Active, &business.CreatedAt, &business.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning business: %w", err)
	}

	if err := json.Unmarshal([]byte(quickResponsesJSON), &business.QuickResponses); err != nil {
		return nil, fmt.Errorf("unmarshaling quick responses: %w", err)
	}
	if err := json.Unmarshal([]byte(policiesJSON), &business.Policies); err != nil {
		return nil, fmt.Errorf("unmarshaling policies: %w", err)
	}

	return &business, nil
}
