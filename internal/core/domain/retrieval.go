package domain

import "time"

// MatchKind identifies how a chunk was retrieved.
type MatchKind string

// Retrieval match kinds.
const (
	// MatchVector means the chunk was found by embedding similarity.
	MatchVector MatchKind = "vector"

	// MatchKeyword means the chunk was found by the keyword fallback.
	MatchKeyword MatchKind = "keyword"
)

// RetrievalOptions configures a context retrieval.
type RetrievalOptions struct {
	// ServiceFilter restricts retrieval to a named service instead of
	// relying on intent detection.
	ServiceFilter string

	// DocumentType restricts retrieval to documents of one type.
	DocumentType DocumentType

	// Limit is the maximum number of chunks to retrieve. Defaults to 5.
	Limit int

	// MinSimilarity is the similarity cutoff for vector search.
	// Zero means no cutoff.
	MinSimilarity float64
}

// RetrievedChunk is a uniform retrieval hit. Vector and keyword results
// share this single shape so context assembly has one code path.
type RetrievedChunk struct {
	// Content is the chunk text.
	Content string

	// DocumentTitle is the source document title.
	DocumentTitle string

	// DocumentType is the source document type.
	DocumentType DocumentType

	// ServiceName is the related service name, if the source document
	// is service-scoped.
	ServiceName string

	// Kind identifies the match method.
	Kind MatchKind

	// Similarity is the cosine similarity score for vector matches.
	// Zero for keyword matches.
	Similarity float64

	// Metadata is the chunk metadata (page number, synthesized answer).
	Metadata map[string]any
}

// Page returns the source page number carried in the hit metadata, or 0.
func (r *RetrievedChunk) Page() int {
	if r.Metadata == nil {
		return 0
	}
	switch v := r.Metadata["page"].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

// Answer returns the synthesized answer carried in the hit metadata,
// or the empty string.
func (r *RetrievedChunk) Answer() string {
	if r.Metadata == nil {
		return ""
	}
	if a, ok := r.Metadata["answer"].(string); ok {
		return a
	}
	return ""
}

// RetrievalDebug carries diagnostics for a retrieval call.
type RetrievalDebug struct {
	// Query is the raw query string.
	Query string

	// DetectedService is the name of the matched service, if any.
	DetectedService string

	// VectorHits is the number of vector search results.
	VectorHits int

	// KeywordHits is the number of keyword fallback results.
	KeywordHits int

	// UsedKeywordFallback reports whether the fallback ran.
	UsedKeywordFallback bool

	// Failed reports whether retrieval degraded to empty context
	// because of an internal error.
	Failed bool

	// Elapsed is the total retrieval duration.
	Elapsed time.Duration
}
