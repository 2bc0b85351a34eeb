package domain

import (
	"fmt"
	"strings"
	"time"
)

// Structured business fields that produce synthesized knowledge documents.
// Incremental updates are keyed by these names.
const (
	FieldServiceCatalog = "service_catalog"
	FieldQuickResponses = "quick_responses"
	FieldPolicies       = "policies"
)

// KnowledgeFields lists every structured field that can be synthesized.
func KnowledgeFields() []string {
	return []string{FieldServiceCatalog, FieldQuickResponses, FieldPolicies}
}

// Business is a tenant whose knowledge is indexed and retrieved.
type Business struct {
	// ID is the unique identifier for the business.
	ID string

	// Name is the display name.
	Name string

	// QuickResponses maps common customer questions to canned answers.
	QuickResponses map[string]string

	// Policies maps policy names (e.g. "cancellation") to policy text.
	Policies map[string]string

	// Active marks the business as live. Inactive businesses are
	// skipped by bulk indexing.
	Active bool

	// CreatedAt is when the business was created.
	CreatedAt time.Time

	// UpdatedAt is when the business was last updated.
	UpdatedAt time.Time
}

// Service is a structured business offering. It serves both as a direct
// answer source and as a scoping key for chunk retrieval.
type Service struct {
	// ID is the unique identifier for the service.
	ID string

	// BusinessID identifies the owning business.
	BusinessID string

	// Name is the customer-facing service name.
	Name string

	// Description is the free-text description.
	Description string

	// PriceCents is the price in cents.
	PriceCents int

	// DurationMinutes is the appointment duration in minutes.
	DurationMinutes int

	// Active marks the service as currently offered.
	Active bool

	// CreatedAt is when the service was created.
	CreatedAt time.Time

	// UpdatedAt is when the service was last updated.
	UpdatedAt time.Time
}

// FormattedPrice renders the price for customer-facing text, e.g. "$30"
// or "$49.50". Whole-dollar amounts drop the cents.
func (s *Service) FormattedPrice() string {
	if s.PriceCents%100 == 0 {
		return fmt.Sprintf("$%d", s.PriceCents/100)
	}
	return fmt.Sprintf("$%.2f", float64(s.PriceCents)/100)
}

// FormattedDuration renders the duration for customer-facing text,
// e.g. "30 min" or "1 hr 30 min".
func (s *Service) FormattedDuration() string {
	if s.DurationMinutes <= 0 {
		return ""
	}
	hours := s.DurationMinutes / 60
	mins := s.DurationMinutes % 60

	var parts []string
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%d hr", hours))
	}
	if mins > 0 {
		parts = append(parts, fmt.Sprintf("%d min", mins))
	}
	return strings.Join(parts, " ")
}
