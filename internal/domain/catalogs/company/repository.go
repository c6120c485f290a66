package company

import (
	"context"

	"bookkeeper/internal/core/id"
)

// Repository defines storage operations for the Company catalog.
type Repository interface {
	Create(ctx context.Context, comp *Company) error
	Update(ctx context.Context, comp *Company) error

	GetByID(ctx context.Context, companyID id.ID) (*Company, error)
	List(ctx context.Context) ([]*Company, error)
}
