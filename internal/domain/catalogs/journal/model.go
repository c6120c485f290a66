// Package journal provides the Journal catalog.
// Journals classify moves and carry the posting behavior flags: centralised
// counterpart accounting and whether posted moves may be restored to draft.
package journal

import (
	"context"

	"bookkeeper/internal/core/apperror"
	"bookkeeper/internal/core/entity"
	"bookkeeper/internal/core/id"
	"bookkeeper/internal/core/sequence"
)

// Type classifies the journal.
type Type string

const (
	TypeGeneral   Type = "general"
	TypeRevenue   Type = "revenue"
	TypeExpense   Type = "expense"
	TypeCash      Type = "cash"
	TypeSituation Type = "situation"
)

// Journal represents a book of moves.
type Journal struct {
	entity.Catalog

	Type   Type `db:"type" json:"type"`
	Active bool `db:"active" json:"active"`

	// Centralised journals keep a single open move per period with a
	// maintained counterpart line.
	Centralised bool `db:"centralised" json:"centralised"`

	// UpdatePosted allows restoring posted moves to draft.
	UpdatePosted bool `db:"update_posted" json:"updatePosted"`

	// DebitAccountID receives the counterpart when the imbalance is negative.
	DebitAccountID *id.ID `db:"debit_account_id" json:"debitAccountId,omitempty"`

	// CreditAccountID receives the counterpart when the imbalance is positive.
	CreditAccountID *id.ID `db:"credit_account_id" json:"creditAccountId,omitempty"`

	// Sequence numbers moves of this journal
	Sequence sequence.Config `db:"-" json:"sequence"`
}

// NewJournal creates an active journal.
func NewJournal(code, name string, typ Type) *Journal {
	return &Journal{
		Catalog:  entity.NewCatalog(code, name),
		Type:     typ,
		Active:   true,
		Sequence: sequence.DefaultConfig(code),
	}
}

// Validate implements entity.Validatable interface.
func (j *Journal) Validate(ctx context.Context) error {
	if err := j.Catalog.Validate(ctx); err != nil {
		return err
	}
	switch j.Type {
	case TypeGeneral, TypeRevenue, TypeExpense, TypeCash, TypeSituation:
	default:
		return apperror.NewValidation("unknown journal type").
			WithDetail("type", string(j.Type))
	}
	if j.Centralised {
		if j.DebitAccountID == nil || j.CreditAccountID == nil {
			return apperror.NewValidation("centralised journal requires debit and credit accounts")
		}
	}
	return nil
}

// CounterpartAccount picks the account receiving the counterpart line for the
// given imbalance sign: positive imbalance (debits exceed credits) books to
// the credit account.
func (j *Journal) CounterpartAccount(positive bool) (id.ID, error) {
	if positive {
		if j.CreditAccountID == nil {
			return id.Nil(), apperror.NewValidation("journal has no credit account").
				WithDetail("journal", j.Code)
		}
		return *j.CreditAccountID, nil
	}
	if j.DebitAccountID == nil {
		return id.Nil(), apperror.NewValidation("journal has no debit account").
			WithDetail("journal", j.Code)
	}
	return *j.DebitAccountID, nil
}
