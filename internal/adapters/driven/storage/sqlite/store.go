package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/frontdesk/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/frontdesk/internal/core/domain"
	"github.com/custodia-labs/frontdesk/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides access to
// the knowledge and business store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.frontdesk/data/frontdesk.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".frontdesk", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "frontdesk.db")

	// Open database with WAL mode for better concurrency. Foreign keys
	// go through the DSN so every pooled connection enforces them, not
	// just the one a session-level PRAGMA happened to run on.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// KnowledgeStore returns a KnowledgeStore interface backed by this store.
func (s *Store) KnowledgeStore() driven.KnowledgeStore {
	return &knowledgeStore{store: s}
}

// BusinessStore returns a BusinessStore interface backed by this store.
func (s *Store) BusinessStore() driven.BusinessStore {
	return &businessStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		// Read and execute migration
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(
			"INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
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
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
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
		SELECT `+documentColumns+` FROM documents WHERE id = ?
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
		WHERE business_id = ?
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

	placeholders := strings.Repeat("?,", len(fields))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, 0, len(fields)+1)
	args = append(args, businessID)
	for _, f := range fields {
		args = append(args, f)
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+documentColumns+` FROM documents
		WHERE business_id = ? AND active = 1 AND source_field IN (`+placeholders+`)
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
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
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

		if _, err := stmt.ExecContext(ctx, chunk.ID, chunk.DocumentID, chunk.Content,
			float32SliceToBytes(chunk.Embedding), chunk.Position, string(metadataJSON),
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
		FROM document_chunks WHERE document_id = ?
		ORDER BY position
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.DocumentChunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, *chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	return chunks, nil
}

// DeleteChunks removes all chunks for a document.
func (s *knowledgeStore) DeleteChunks(ctx context.Context, documentID string) error {
	_, err := s.store.db.ExecContext(ctx,
		"DELETE FROM document_chunks WHERE document_id = ?", documentID)
	if err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}
	return nil
}

// DeleteDocument removes a document; its chunks go with it via the
// foreign key cascade.
func (s *knowledgeStore) DeleteDocument(ctx context.Context, id string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
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
		SELECT `+documentColumns+` FROM documents WHERE id = ?
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
		"UPDATE documents SET active = 0, updated_at = ? WHERE id = ?",
		now, documentID); err != nil {
		return nil, fmt.Errorf("deactivating document: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE document_chunks SET active = 0, updated_at = ? WHERE document_id = ?",
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
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
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
		SELECT `+documentColumns+` FROM documents WHERE id = ?
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
		SELECT `+documentColumns+` FROM documents WHERE id = ?
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
		"UPDATE documents SET active = 0, updated_at = ? WHERE id = ?",
		now, current.ID); err != nil {
		return nil, fmt.Errorf("deactivating current version: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE document_chunks SET active = 0, updated_at = ? WHERE document_id = ?",
		now, current.ID); err != nil {
		return nil, fmt.Errorf("deactivating current chunks: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE documents SET active = 1, updated_at = ? WHERE id = ?",
		now, previous.ID); err != nil {
		return nil, fmt.Errorf("reactivating previous version: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE document_chunks SET active = 1, updated_at = ? WHERE document_id = ?",
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

// retrievableQuery is the scoping shared by both search methods: only
// chunks of active, fully indexed documents of the business, optionally
// narrowed by document type, with service-scoped documents visible only
// when they match the filtered service. Generic documents always pass.
const retrievableQuery = `
	SELECT c.content, c.metadata, d.title, d.type, c.embedding, sv.name
	FROM document_chunks c
	JOIN documents d ON d.id = c.document_id
	LEFT JOIN services sv ON sv.id = d.service_id
	WHERE d.business_id = ?
	  AND d.active = 1
	  AND c.active = 1
	  AND d.indexing_status = 'complete'
	  AND (? = '' OR d.type = ?)
	  AND (? = '' OR d.service_id IS NULL OR d.service_id = ?)`

func retrievableArgs(businessID string, filter driven.ChunkFilter) []any {
	docType := string(filter.DocumentType)
	return []any{businessID, docType, docType, filter.ServiceID, filter.ServiceID}
}

// VectorSearch scans the retrievable chunks and ranks them by cosine
// similarity in Go. Embeddings never leave the process, so the scan is
// one query regardless of result count.
func (s *knowledgeStore) VectorSearch(
	ctx context.Context, businessID string, embedding []float32, filter driven.ChunkFilter,
) ([]domain.RetrievedChunk, error) {
	rows, err := s.store.db.QueryContext(ctx, retrievableQuery, retrievableArgs(businessID, filter)...)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var hits []domain.RetrievedChunk
	for rows.Next() {
		hit, chunkEmbedding, err := scanRetrievedChunk(rows)
		if err != nil {
			return nil, err
		}

		similarity := cosineSimilarity(embedding, chunkEmbedding)
		if similarity < filter.MinSimilarity {
			continue
		}

		hit.Kind = domain.MatchVector
		hit.Similarity = similarity
		hits = append(hits, *hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Similarity > hits[j].Similarity })
	if filter.Limit > 0 && len(hits) > filter.Limit {
		hits = hits[:filter.Limit]
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

	conditions := make([]string, 0, len(keywords))
	args := retrievableArgs(businessID, filter)
	for _, keyword := range keywords {
		conditions = append(conditions, "instr(lower(c.content), ?) > 0")
		args = append(args, strings.ToLower(keyword))
	}

	query := retrievableQuery + " AND (" + strings.Join(conditions, " OR ") + ")"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var hits []domain.RetrievedChunk
	for rows.Next() {
		hit, _, err := scanRetrievedChunk(rows)
		if err != nil {
			return nil, err
		}
		hit.Kind = domain.MatchKeyword
		hits = append(hits, *hit)
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
		VALUES (?, ?, ?, ?, ?, ?, ?)
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
		FROM businesses WHERE id = ?
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
		FROM businesses WHERE active = 1
		ORDER BY id
		LIMIT ? OFFSET ?
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
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
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
		FROM services WHERE business_id = ? AND active = 1
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

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

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

// scanChunk scans a chunk from *sql.Rows.
func scanChunk(rows *sql.Rows) (*domain.DocumentChunk, error) {
	var chunk domain.DocumentChunk
	var embeddingBlob []byte
	var metadataJSON string

	if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Content,
		&embeddingBlob, &chunk.Position, &metadataJSON, &chunk.Active,
		&chunk.CreatedAt, &chunk.UpdatedAt); err != nil {
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}

	chunk.Embedding = bytesToFloat32Slice(embeddingBlob)

	if metadataJSON != "" {
		if err := json.Unmarshal([]byte(metadataJSON), &chunk.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshaling chunk metadata: %w", err)
		}
	}

	return &chunk, nil
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

// scanRetrievedChunk scans one search candidate plus its raw embedding.
func scanRetrievedChunk(rows *sql.Rows) (*domain.RetrievedChunk, []float32, error) {
	var hit domain.RetrievedChunk
	var docType, metadataJSON string
	var embeddingBlob []byte
	var serviceName sql.NullString

	if err := rows.Scan(&hit.Content, &metadataJSON, &hit.DocumentTitle,
		&docType, &embeddingBlob, &serviceName); err != nil {
		return nil, nil, fmt.Errorf("scanning chunk: %w", err)
	}

	hit.DocumentType = domain.DocumentType(docType)
	hit.ServiceName = serviceName.String
	if metadataJSON != "" {
		if err := json.Unmarshal([]byte(metadataJSON), &hit.Metadata); err != nil {
			return nil, nil, fmt.Errorf("unmarshaling chunk metadata: %w", err)
		}
	}

	return &hit, bytesToFloat32Slice(embeddingBlob), nil
}

// cosineSimilarity computes the cosine similarity between two vectors.
// Mismatched or empty vectors score zero.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
