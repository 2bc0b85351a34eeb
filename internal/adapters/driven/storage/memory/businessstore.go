package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/frontdesk/internal/core/domain"
	"github.com/custodia-labs/frontdesk/internal/core/ports/driven"
)

// Ensure BusinessStore implements the interface.
var _ driven.BusinessStore = (*BusinessStore)(nil)

// BusinessStore is an in-memory implementation of driven.BusinessStore.
type BusinessStore struct {
	mu         sync.RWMutex
	businesses map[string]domain.Business
	services   map[string][]domain.Service
}

// NewBusinessStore creates a new in-memory business store.
func NewBusinessStore() *BusinessStore {
	return &BusinessStore{
		businesses: make(map[string]domain.Business),
		services:   make(map[string][]domain.Service),
	}
}

// SaveBusiness stores or updates a business.
func (s *BusinessStore) SaveBusiness(_ context.Context, business *domain.Business) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.businesses[business.ID] = *business
	return nil
}

// GetBusiness retrieves a business by ID.
func (s *BusinessStore) GetBusiness(_ context.Context, id string) (*domain.Business, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	business, ok := s.businesses[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &business, nil
}

// ListActiveBusinesses returns a page of active businesses ordered by ID.
func (s *BusinessStore) ListActiveBusinesses(
	_ context.Context, offset, limit int,
) ([]domain.Business, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var active []domain.Business
	for id := range s.businesses {
		if s.businesses[id].Active {
			active = append(active, s.businesses[id])
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].ID < active[j].ID })

	if offset >= len(active) {
		return nil, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(active) {
		end = len(active)
	}
	return active[offset:end], nil
}

// SaveService stores or updates a service.
func (s *BusinessStore) SaveService(_ context.Context, service *domain.Service) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.services[service.BusinessID]
	for i := range existing {
		if existing[i].ID == service.ID {
			existing[i] = *service
			return nil
		}
	}
	s.services[service.BusinessID] = append(existing, *service)
	return nil
}

// ListServices returns all active services for a business.
func (s *BusinessStore) ListServices(_ context.Context, businessID string) ([]domain.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.Service
	for _, svc := range s.services[businessID] {
		if svc.Active {
			result = append(result, svc)
		}
	}
	return result, nil
}
