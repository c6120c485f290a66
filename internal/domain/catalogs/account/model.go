// Package account provides the chart of accounts: a per-company forest of
// accounts with nested-set bounds for subtree aggregation, classification
// types, and per-fiscal-year deferral snapshots.
package account

import (
	"context"

	"bookkeeper/internal/core/apperror"
	"bookkeeper/internal/core/entity"
	"bookkeeper/internal/core/id"
	"bookkeeper/internal/core/types"
)

// Kind determines how an account participates in bookkeeping.
// View accounts structure the tree and never carry lines directly.
type Kind string

const (
	KindOther      Kind = "other"
	KindPayable    Kind = "payable"
	KindRevenue    Kind = "revenue"
	KindReceivable Kind = "receivable"
	KindExpense    Kind = "expense"
	KindView       Kind = "view"
)

// Account is one node of the chart of accounts.
type Account struct {
	entity.Catalog

	Kind      Kind  `db:"kind" json:"kind"`
	CompanyID id.ID `db:"company_id" json:"companyId"`

	// TypeID references the classification type; required for non-view accounts
	TypeID *id.ID `db:"type_id" json:"typeId,omitempty"`

	// Reconcile allows lines of this account to be reconciled
	Reconcile bool `db:"reconcile" json:"reconcile"`

	// Deferral carries the account balance across fiscal year closes
	Deferral bool `db:"deferral" json:"deferral"`

	Active bool `db:"active" json:"active"`

	// Left and Right are the nested-set bounds maintained by the repository.
	// A descendant b of a satisfies b.Left >= a.Left && b.Right <= a.Right.
	Left  int `db:"lft" json:"left"`
	Right int `db:"rgt" json:"right"`
}

// NewAccount creates an active account.
func NewAccount(code, name string, kind Kind, companyID id.ID) *Account {
	return &Account{
		Catalog:   entity.NewCatalog(code, name),
		Kind:      kind,
		CompanyID: companyID,
		Active:    true,
	}
}

// Validate implements entity.Validatable interface.
func (a *Account) Validate(ctx context.Context) error {
	if err := a.Catalog.Validate(ctx); err != nil {
		return err
	}
	switch a.Kind {
	case KindOther, KindPayable, KindRevenue, KindReceivable, KindExpense, KindView:
	default:
		return apperror.NewValidation("unknown account kind").
			WithDetail("kind", string(a.Kind))
	}
	if id.IsNil(a.CompanyID) {
		return apperror.NewValidation("company is required").
			WithDetail("field", "companyId")
	}
	if a.Kind != KindView && a.TypeID == nil {
		return apperror.NewValidation("non-view account requires a type").
			WithDetail("field", "typeId")
	}
	return nil
}

// IsView reports whether the account is a structural node.
func (a *Account) IsView() bool {
	return a.Kind == KindView
}

// Covers reports whether other lies in the subtree rooted at a,
// including a itself.
func (a *Account) Covers(other *Account) bool {
	return other.Left >= a.Left && other.Right <= a.Right
}

// DisplayBalance selects how a type balance is presented.
type DisplayBalance string

const (
	DisplayBalanceNormal      DisplayBalance = "balance"
	DisplayBalanceCreditDebit DisplayBalance = "credit-debit"
)

// Type is one node of the account classification tree (balance sheet and
// income statement headings).
type Type struct {
	entity.Catalog

	Sequence        int            `db:"sequence" json:"sequence"`
	CompanyID       id.ID          `db:"company_id" json:"companyId"`
	BalanceSheet    bool           `db:"balance_sheet" json:"balanceSheet"`
	IncomeStatement bool           `db:"income_statement" json:"incomeStatement"`
	DisplayBalance  DisplayBalance `db:"display_balance" json:"displayBalance"`
}

// NewType creates a classification type.
func NewType(code, name string, companyID id.ID) *Type {
	return &Type{
		Catalog:        entity.NewCatalog(code, name),
		CompanyID:      companyID,
		DisplayBalance: DisplayBalanceNormal,
	}
}

// Deferral is the immutable balance snapshot of an account for a closed
// fiscal year. Snapshots are created on close and only ever deleted when the
// year is reopened.
type Deferral struct {
	ID           id.ID       `db:"id" json:"id"`
	AccountID    id.ID       `db:"account_id" json:"accountId"`
	FiscalYearID id.ID       `db:"fiscalyear_id" json:"fiscalyearId"`
	Debit        types.Money `db:"debit" json:"debit"`
	Credit       types.Money `db:"credit" json:"credit"`
}

// Balance returns debit minus credit.
func (d *Deferral) Balance() types.Money {
	return d.Debit.Sub(d.Credit)
}

// CreditDebit is a per-account pair of sums.
type CreditDebit struct {
	Credit types.Money `json:"credit"`
	Debit  types.Money `json:"debit"`
}
