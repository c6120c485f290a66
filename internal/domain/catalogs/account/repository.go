package account

import (
	"context"

	"bookkeeper/internal/core/id"
	"bookkeeper/internal/core/types"
	"bookkeeper/internal/domain/scope"
)

// Repository defines storage operations for the chart of accounts.
type Repository interface {
	Create(ctx context.Context, acc *Account) error
	Update(ctx context.Context, acc *Account) error
	Delete(ctx context.Context, accountID id.ID) error

	GetByID(ctx context.Context, accountID id.ID) (*Account, error)
	GetByIDs(ctx context.Context, accountIDs []id.ID) ([]*Account, error)
	FindByCode(ctx context.Context, companyID id.ID, code string) (*Account, error)

	// Subtree returns every account in the nested-set subtrees rooted at the
	// given accounts, the roots included.
	Subtree(ctx context.Context, accountIDs []id.ID) ([]*Account, error)

	// RebuildTree recomputes nested-set bounds for the company forest.
	// Called after any structural change.
	RebuildTree(ctx context.Context, companyID id.ID) error

	// HasLines reports whether any move line references the account.
	HasLines(ctx context.Context, accountID id.ID) (bool, error)

	// SumBalances returns debit-credit per account over lines visible in the
	// resolved scope. Only non-view active accounts appear in the result.
	SumBalances(ctx context.Context, rs scope.Resolved, accountIDs []id.ID) (map[id.ID]types.Money, error)

	// SumCreditDebit returns per-account credit and debit sums over lines
	// visible in the resolved scope.
	SumCreditDebit(ctx context.Context, rs scope.Resolved, accountIDs []id.ID) (map[id.ID]CreditDebit, error)

	// ListDeferralAccounts returns active accounts of the company flagged for
	// deferral.
	ListDeferralAccounts(ctx context.Context, companyID id.ID) ([]*Account, error)

	CreateType(ctx context.Context, t *Type) error
	GetType(ctx context.Context, typeID id.ID) (*Type, error)

	CreateDeferral(ctx context.Context, d *Deferral) error
	DeleteDeferrals(ctx context.Context, fiscalYearID id.ID) error
	// GetDeferrals returns the snapshots of the given accounts for one fiscal
	// year, keyed by account.
	GetDeferrals(ctx context.Context, fiscalYearID id.ID, accountIDs []id.ID) (map[id.ID]*Deferral, error)
}
