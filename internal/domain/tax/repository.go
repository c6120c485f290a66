package tax

import (
	"context"

	"bookkeeper/internal/core/id"
)

// Repository defines storage operations for the Tax catalog.
type Repository interface {
	Create(ctx context.Context, t *Tax) error
	Update(ctx context.Context, t *Tax) error
	Delete(ctx context.Context, taxID id.ID) error

	// GetByID returns the tax with its child tree loaded, children ordered
	// by (sequence, id).
	GetByID(ctx context.Context, taxID id.ID) (*Tax, error)
	GetByIDs(ctx context.Context, taxIDs []id.ID) ([]*Tax, error)

	// SortIDs returns the given tax ids ordered by (sequence, id).
	SortIDs(ctx context.Context, taxIDs []id.ID) ([]id.ID, error)
}
