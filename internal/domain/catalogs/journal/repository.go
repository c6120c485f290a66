package journal

import (
	"context"

	"bookkeeper/internal/core/id"
)

// Repository defines storage operations for the Journal catalog.
type Repository interface {
	Create(ctx context.Context, j *Journal) error
	Update(ctx context.Context, j *Journal) error

	GetByID(ctx context.Context, journalID id.ID) (*Journal, error)
	FindByCode(ctx context.Context, code string) (*Journal, error)
	List(ctx context.Context, activeOnly bool) ([]*Journal, error)
}
