package driven

import (
	"context"

	"github.com/custodia-labs/frontdesk/internal/core/domain"
)

// BusinessStore persists businesses and their structured services.
type BusinessStore interface {
	// SaveBusiness stores or updates a business.
	SaveBusiness(ctx context.Context, business *domain.Business) error

	// GetBusiness retrieves a business by ID.
	GetBusiness(ctx context.Context, id string) (*domain.Business, error)

	// ListActiveBusinesses returns a page of active businesses for
	// batched bulk indexing.
	ListActiveBusinesses(ctx context.Context, offset, limit int) ([]domain.Business, error)

	// SaveService stores or updates a service.
	SaveService(ctx context.Context, service *domain.Service) error

	// ListServices returns all active services for a business.
	ListServices(ctx context.Context, businessID string) ([]domain.Service, error)
}
