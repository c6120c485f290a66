package taxcode

import (
	"context"

	"bookkeeper/internal/core/id"
	"bookkeeper/internal/core/types"
	"bookkeeper/internal/domain/scope"
)

// Repository defines storage operations for the TaxCode catalog.
type Repository interface {
	Create(ctx context.Context, code *TaxCode) error
	Update(ctx context.Context, code *TaxCode) error
	// Delete removes the code and its whole subtree.
	Delete(ctx context.Context, codeID id.ID) error

	GetByID(ctx context.Context, codeID id.ID) (*TaxCode, error)
	GetByIDs(ctx context.Context, codeIDs []id.ID) ([]*TaxCode, error)

	// Subtree returns the recursive descendant closure of the given codes,
	// the roots included.
	Subtree(ctx context.Context, codeIDs []id.ID) ([]*TaxCode, error)

	// SumTaxLines returns the sum of tax-line amounts per active code over
	// move lines visible in the resolved scope.
	SumTaxLines(ctx context.Context, rs scope.Resolved, codeIDs []id.ID) (map[id.ID]types.Money, error)
}
