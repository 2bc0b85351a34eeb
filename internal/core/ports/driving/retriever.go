package driving

import (
	"context"

	"github.com/custodia-labs/frontdesk/internal/core/domain"
)

// Retriever answers conversation-time context requests.
//
// Retrieval never raises: missing knowledge and internal failures both
// come back as an empty string, because availability of the
// conversation matters more than completeness of grounding.
type Retriever interface {
	// RetrieveContext returns formatted, provenance-tagged context for
	// the query, or the empty string when nothing relevant is indexed.
	RetrieveContext(ctx context.Context, query, businessID string, opts domain.RetrievalOptions) string

	// RetrieveContextDebug is RetrieveContext plus diagnostics.
	RetrieveContextDebug(ctx context.Context, query, businessID string, opts domain.RetrievalOptions) (string, *domain.RetrievalDebug)
}
