package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/frontdesk/internal/core/domain"
)

// syntheticEntry is one question/answer pair of a synthesized document.
// The question is what gets indexed; the answer is what gets surfaced.
type syntheticEntry struct {
	Question string
	Answer   string
}

// syntheticDocument is a knowledge document generated from a structured
// business field.
type syntheticDocument struct {
	Title   string
	Field   string
	Entries []syntheticEntry
}

// content renders the entries as readable Q/A text for the document row.
func (d *syntheticDocument) content() string {
	var b strings.Builder
	for i, e := range d.Entries {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "Q: %s\nA: %s", e.Question, e.Answer)
	}
	return b.String()
}

// synthesizeFieldDocuments generates the knowledge documents for the
// named structured fields. Generation is deterministic: fixed templates,
// map keys sorted, services in store order.
func synthesizeFieldDocuments(
	business *domain.Business,
	services []domain.Service,
	fields []string,
) []syntheticDocument {
	var docs []syntheticDocument

	for _, field := range fields {
		switch field {
		case domain.FieldServiceCatalog:
			if doc := synthesizeServiceCatalog(services); doc != nil {
				docs = append(docs, *doc)
			}
		case domain.FieldQuickResponses:
			if doc := synthesizeQuickResponses(business); doc != nil {
				docs = append(docs, *doc)
			}
		case domain.FieldPolicies:
			if doc := synthesizePolicies(business); doc != nil {
				docs = append(docs, *doc)
			}
		}
	}

	return docs
}

func synthesizeServiceCatalog(services []domain.Service) *syntheticDocument {
	if len(services) == 0 {
		return nil
	}

	doc := &syntheticDocument{
		Title: "Services",
		Field: domain.FieldServiceCatalog,
	}

	for i := range services {
		svc := &services[i]
		if !svc.Active {
			continue
		}

		doc.Entries = append(doc.Entries, syntheticEntry{
			Question: fmt.Sprintf("Do you offer %s?", svc.Name),
			Answer:   serviceSummary(svc),
		})
		doc.Entries = append(doc.Entries, syntheticEntry{
			Question: fmt.Sprintf("How much does %s cost?", svc.Name),
			Answer:   servicePricing(svc),
		})
	}

	if len(doc.Entries) == 0 {
		return nil
	}
	return doc
}

func synthesizeQuickResponses(business *domain.Business) *syntheticDocument {
	if len(business.QuickResponses) == 0 {
		return nil
	}

	doc := &syntheticDocument{
		Title: "Quick responses",
		Field: domain.FieldQuickResponses,
	}

	for _, question := range sortedKeys(business.QuickResponses) {
		doc.Entries = append(doc.Entries, syntheticEntry{
			Question: question,
			Answer:   business.QuickResponses[question],
		})
	}

	return doc
}

func synthesizePolicies(business *domain.Business) *syntheticDocument {
	if len(business.Policies) == 0 {
		return nil
	}

	doc := &syntheticDocument{
		Title: "Policies",
		Field: domain.FieldPolicies,
	}

	for _, name := range sortedKeys(business.Policies) {
		doc.Entries = append(doc.Entries, syntheticEntry{
			Question: fmt.Sprintf("What is your %s policy?", name),
			Answer:   business.Policies[name],
		})
	}

	return doc
}

// serviceSummary renders the full customer-facing answer for a service.
func serviceSummary(svc *domain.Service) string {
	var b strings.Builder
	b.WriteString("Yes, we offer " + svc.Name + ".")
	if svc.Description != "" {
		b.WriteString(" " + strings.TrimRight(svc.Description, ".") + ".")
	}
	fmt.Fprintf(&b, " Price: %s.", svc.FormattedPrice())
	if d := svc.FormattedDuration(); d != "" {
		fmt.Fprintf(&b, " Duration: %s.", d)
	}
	return b.String()
}

// servicePricing renders the price-focused answer for a service.
func servicePricing(svc *domain.Service) string {
	answer := fmt.Sprintf("%s costs %s.", svc.Name, svc.FormattedPrice())
	if d := svc.FormattedDuration(); d != "" {
		answer += fmt.Sprintf(" It takes %s.", d)
	}
	return answer
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
