package currency

import (
	"context"

	"bookkeeper/internal/core/id"
)

// Repository defines storage operations for the Currency catalog.
type Repository interface {
	Create(ctx context.Context, curr *Currency) error
	Update(ctx context.Context, curr *Currency) error
	Delete(ctx context.Context, currencyID id.ID) error

	GetByID(ctx context.Context, currencyID id.ID) (*Currency, error)
	FindByISOCode(ctx context.Context, isoCode string) (*Currency, error)
	List(ctx context.Context, activeOnly bool) ([]*Currency, error)

	// AddRate appends a rate quotation to the currency history.
	AddRate(ctx context.Context, currencyID id.ID, rate Rate) error
}
