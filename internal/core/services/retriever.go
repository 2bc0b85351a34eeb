package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/custodia-labs/frontdesk/internal/core/domain"
	"github.com/custodia-labs/frontdesk/internal/core/ports/driven"
	"github.com/custodia-labs/frontdesk/internal/core/ports/driving"
	"github.com/custodia-labs/frontdesk/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.Retriever = (*RetrievalService)(nil)

// DefaultRetrievalLimit is the default maximum number of chunks per
// retrieval.
const DefaultRetrievalLimit = 5

// contextPreamble and contextPostamble wrap the assembled context to
// instruct the consuming LLM.
const (
	contextPreamble = "Use the following business information to answer the " +
		"customer's question. Be specific and cite the source of any fact you use.\n\n"
	contextPostamble = "\nOnly use the information above. If it does not answer " +
		"the question, say you will check and follow up."
)

// blockSeparator divides retrieved chunks in the assembled context.
const blockSeparator = "\n---\n"

// stopWords are dropped from queries before the keyword fallback.
var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "was": true,
	"were": true, "you": true, "your": true, "our": true, "can": true,
	"could": true, "will": true, "would": true, "should": true,
	"what": true, "when": true, "where": true, "how": true, "much": true,
	"many": true, "with": true, "about": true, "this": true, "that": true,
	"these": true, "those": true, "have": true, "has": true, "had": true,
	"does": true, "did": true, "please": true, "hello": true,
	"thanks": true, "there": true, "from": true, "into": true,
}

// RetrievalService is the conversation-time retrieval engine: service
// intent detection, vector similarity search, keyword fallback, and
// provenance-annotated context assembly.
type RetrievalService struct {
	store            driven.KnowledgeStore
	businessStore    driven.BusinessStore
	embeddingService driven.EmbeddingService

	defaultMinSimilarity float64
}

// RetrieverOption configures the retrieval service.
type RetrieverOption func(*RetrievalService)

// WithDefaultMinSimilarity sets the similarity cutoff used when a
// request does not carry one.
func WithDefaultMinSimilarity(v float64) RetrieverOption {
	return func(s *RetrievalService) {
		if v > 0 {
			s.defaultMinSimilarity = v
		}
	}
}

// NewRetrievalService creates a new retrieval service.
func NewRetrievalService(
	store driven.KnowledgeStore,
	businessStore driven.BusinessStore,
	embeddingService driven.EmbeddingService,
	opts ...RetrieverOption,
) *RetrievalService {
	s := &RetrievalService{
		store:            store,
		businessStore:    businessStore,
		embeddingService: embeddingService,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RetrieveContext returns formatted, provenance-tagged context for the
// query. It never raises: missing knowledge and internal failures both
// come back as the empty string so the conversation flow is never
// blocked on retrieval.
func (s *RetrievalService) RetrieveContext(
	ctx context.Context, query, businessID string, opts domain.RetrievalOptions,
) string {
	result, _ := s.RetrieveContextDebug(ctx, query, businessID, opts)
	return result
}

// RetrieveContextDebug is RetrieveContext plus diagnostics.
func (s *RetrievalService) RetrieveContextDebug(
	ctx context.Context, query, businessID string, opts domain.RetrievalOptions,
) (string, *domain.RetrievalDebug) {
	start := time.Now()
	debug := &domain.RetrievalDebug{Query: query}

	result, err := s.retrieve(ctx, query, businessID, opts, debug)
	debug.Elapsed = time.Since(start)

	if err != nil {
		// Retrieval failures degrade to empty context, never to an
		// error visible to the conversation.
		logger.Warn("Retrieval for business %s failed: %v", businessID, err)
		debug.Failed = true
		return "", debug
	}

	return result, debug
}

func (s *RetrievalService) retrieve(
	ctx context.Context, query, businessID string, opts domain.RetrievalOptions,
	debug *domain.RetrievalDebug,
) (string, error) {
	logger.Stage("Retrieval for %s", businessID)
	logger.Debug("Query: %q", query)

	query = strings.TrimSpace(query)
	if query == "" || businessID == "" {
		return "", nil
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultRetrievalLimit
	}

	minSimilarity := opts.MinSimilarity
	if minSimilarity == 0 {
		minSimilarity = s.defaultMinSimilarity
	}

	services, err := s.businessStore.ListServices(ctx, businessID)
	if err != nil {
		return "", fmt.Errorf("list services: %w", err)
	}

	matched := s.detectService(query, services, opts.ServiceFilter)
	if matched != nil {
		debug.DetectedService = matched.Name
		logger.Debug("Service intent: %q", matched.Name)
	}

	filter := driven.ChunkFilter{
		DocumentType:  opts.DocumentType,
		Limit:         limit,
		MinSimilarity: minSimilarity,
	}
	if matched != nil {
		filter.ServiceID = matched.ID
	}

	hits, err := s.vectorSearch(ctx, query, businessID, filter)
	if err != nil {
		return "", err
	}
	debug.VectorHits = len(hits)

	// Keyword fallback runs only when vector search yields nothing.
	if len(hits) == 0 {
		keywords := extractKeywords(query)
		logger.Debug("Keyword fallback: %v", keywords)
		if len(keywords) > 0 {
			debug.UsedKeywordFallback = true
			hits, err = s.store.KeywordSearch(ctx, businessID, keywords, filter)
			if err != nil {
				return "", fmt.Errorf("keyword search: %w", err)
			}
			debug.KeywordHits = len(hits)
		}
	}

	if matched == nil && len(hits) == 0 {
		logger.Debug("No relevant knowledge found")
		return "", nil
	}

	return assembleContext(matched, hits), nil
}

// detectService finds the service the query is about. An explicit
// filter name wins; otherwise the query is matched against active
// service names by lowercase substring, longest name winning so that
// "haircut & beard trim" is not shadowed by "haircut".
func (s *RetrievalService) detectService(
	query string, services []domain.Service, explicitName string,
) *domain.Service {
	if explicitName != "" {
		for i := range services {
			if strings.EqualFold(services[i].Name, explicitName) {
				return &services[i]
			}
		}
		return nil
	}

	queryLower := strings.ToLower(query)
	var best *domain.Service
	for i := range services {
		if !services[i].Active {
			continue
		}
		name := strings.ToLower(services[i].Name)
		if name == "" || !strings.Contains(queryLower, name) {
			continue
		}
		if best == nil || len(services[i].Name) > len(best.Name) {
			best = &services[i]
		}
	}
	return best
}

// vectorSearch embeds the raw query and runs the scoped similarity scan.
func (s *RetrievalService) vectorSearch(
	ctx context.Context, query, businessID string, filter driven.ChunkFilter,
) ([]domain.RetrievedChunk, error) {
	if s.embeddingService == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	embedding, err := s.embeddingService.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := s.store.VectorSearch(ctx, businessID, embedding, filter)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	return hits, nil
}

// extractKeywords tokenizes the query, dropping stop words and tokens
// of length <= 2.
func extractKeywords(query string) []string {
	tokens := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	var keywords []string
	for _, token := range tokens {
		if len(token) <= 2 || stopWords[token] {
			continue
		}
		keywords = append(keywords, token)
	}
	return keywords
}

// assembleContext renders the service header block and the retrieved
// chunks with provenance, wrapped in the fixed instructional framing.
func assembleContext(service *domain.Service, hits []domain.RetrievedChunk) string {
	var b strings.Builder
	b.WriteString(contextPreamble)

	if service != nil {
		b.WriteString(serviceHeader(service))
		if len(hits) > 0 {
			b.WriteString(blockSeparator)
		}
	}

	for i := range hits {
		if i > 0 {
			b.WriteString(blockSeparator)
		}
		b.WriteString(renderChunk(&hits[i]))
	}

	b.WriteString(contextPostamble)
	return b.String()
}

// serviceHeader renders the matched service's structured fields
// verbatim. It is always included regardless of chunk results.
func serviceHeader(service *domain.Service) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Service: %s\n", service.Name)
	if service.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", service.Description)
	}
	fmt.Fprintf(&b, "Price: %s\n", service.FormattedPrice())
	if d := service.FormattedDuration(); d != "" {
		fmt.Fprintf(&b, "Duration: %s\n", d)
	}
	return b.String()
}

// renderChunk renders one retrieved chunk with its provenance header.
func renderChunk(hit *domain.RetrievedChunk) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Source: %s (%s)\n", hit.DocumentTitle, hit.DocumentType)
	if hit.ServiceName != "" {
		fmt.Fprintf(&b, "Service: %s\n", hit.ServiceName)
	}
	if hit.Kind == domain.MatchKeyword {
		b.WriteString("Relevance: keyword match\n")
	} else {
		fmt.Fprintf(&b, "Relevance: %.0f%%\n", hit.Similarity*100)
	}
	if page := hit.Page(); page > 0 {
		fmt.Fprintf(&b, "Page: %d\n", page)
	}

	b.WriteString("\n")
	if answer := hit.Answer(); answer != "" {
		fmt.Fprintf(&b, "Q: %s\nA: %s\n", hit.Content, answer)
	} else {
		b.WriteString(hit.Content + "\n")
	}

	return b.String()
}
