package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// Indexing Errors.

	// ErrEmptyContent indicates no usable text could be recovered from
	// the source content (e.g. an empty or image-only PDF).
	// Recorded on the document as a failed indexing pass.
	ErrEmptyContent = errors.New("no usable text content")

	// ErrEmbeddingFailed indicates the embedding service rejected a text.
	// Per-chunk failures are skipped; the batch continues.
	ErrEmbeddingFailed = errors.New("embedding failed")

	// ErrEmbeddingTimeout indicates the embedding call exceeded its deadline.
	ErrEmbeddingTimeout = errors.New("embedding timed out")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Both indexing and vector retrieval are disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrIndexingInProgress indicates an indexing pass for the same
	// document is already running. Reindexing a document is serialised
	// at the document-id level to keep its chunk set consistent.
	ErrIndexingInProgress = errors.New("indexing already in progress")

	// Versioning Errors.

	// ErrNoPreviousVersion indicates a revert was requested for a
	// document that has no previous version to restore.
	ErrNoPreviousVersion = errors.New("no previous version")

	// ErrVersionInactive indicates a version operation targeted a
	// superseded document instead of the active head of its chain.
	ErrVersionInactive = errors.New("document version is not active")
)
