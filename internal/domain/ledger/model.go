// Package ledger provides the double-entry posting engine: moves and their
// lines, journal-period bindings, and reconciliations.
//
// A move groups lines booked together in one journal and period. Lines carry
// debit or credit (never both); a move is balanced when its lines sum to zero
// in the company currency. Posting freezes the move and assigns its strict
// posting reference.
package ledger

import (
	"context"
	"time"

	"bookkeeper/internal/core/apperror"
	"bookkeeper/internal/core/entity"
	"bookkeeper/internal/core/id"
	"bookkeeper/internal/core/types"
)

// MoveState is the lifecycle state of a move.
type MoveState string

const (
	MoveStateDraft  MoveState = "draft"
	MoveStatePosted MoveState = "posted"
)

// LineState tracks whether a line belongs to a balanced move.
type LineState string

const (
	LineStateDraft LineState = "draft"
	LineStateValid LineState = "valid"
)

// Move is one journal entry.
type Move struct {
	entity.BaseDocument

	// Name is assigned from the journal sequence at creation
	Name string `db:"name" json:"name"`

	// Reference is assigned from the posting sequence at post time
	Reference *string `db:"reference" json:"reference,omitempty"`

	PeriodID  id.ID     `db:"period_id" json:"periodId"`
	JournalID id.ID     `db:"journal_id" json:"journalId"`
	CompanyID id.ID     `db:"company_id" json:"companyId"`
	Date      time.Time `db:"date" json:"date"`

	State    MoveState  `db:"state" json:"state"`
	PostDate *time.Time `db:"post_date" json:"postDate,omitempty"`

	// CentralisedLineID references the maintained counterpart line of a
	// centralised journal's move.
	CentralisedLineID *id.ID `db:"centralised_line_id" json:"centralisedLineId,omitempty"`

	Lines []*Line `db:"-" json:"lines,omitempty"`
}

// IsPosted reports whether the move is frozen.
func (m *Move) IsPosted() bool {
	return m.State == MoveStatePosted
}

// Balance returns the sum of debit minus credit over all lines.
func (m *Move) Balance() types.Money {
	total := types.Zero()
	for _, line := range m.Lines {
		total = total.Add(line.Debit).Sub(line.Credit)
	}
	return total
}

// CentralisedLine returns the counterpart line, if the move has one.
func (m *Move) CentralisedLine() *Line {
	if m.CentralisedLineID == nil {
		return nil
	}
	for _, line := range m.Lines {
		if line.ID == *m.CentralisedLineID {
			return line
		}
	}
	return nil
}

// Line is one debit or credit booked against an account.
type Line struct {
	entity.BaseEntity

	MoveID    id.ID  `db:"move_id" json:"moveId"`
	Name      string `db:"name" json:"name"`
	Reference string `db:"reference" json:"reference,omitempty"`

	Debit  types.Money `db:"debit" json:"debit"`
	Credit types.Money `db:"credit" json:"credit"`

	AccountID id.ID `db:"account_id" json:"accountId"`

	State  LineState `db:"state" json:"state"`
	Active bool      `db:"active" json:"active"`

	// PartyID ties receivable/payable lines to a counterparty
	PartyID      *id.ID     `db:"party_id" json:"partyId,omitempty"`
	MaturityDate *time.Time `db:"maturity_date" json:"maturityDate,omitempty"`

	// Blocked excludes the line from automatic payment processing
	Blocked bool `db:"blocked" json:"blocked"`

	ReconciliationID *id.ID `db:"reconciliation_id" json:"reconciliationId,omitempty"`

	TaxLines []*TaxLine `db:"-" json:"taxLines,omitempty"`
}

// NewLine creates a draft line.
func NewLine(accountID id.ID, debit, credit types.Money) *Line {
	return &Line{
		BaseEntity: entity.NewBaseEntity(),
		AccountID:  accountID,
		Debit:      debit,
		Credit:     credit,
		State:      LineStateDraft,
		Active:     true,
	}
}

// Validate checks line invariants: amounts are non-negative and at most one
// side is set.
func (l *Line) Validate(ctx context.Context) error {
	if l.Debit.IsNegative() || l.Credit.IsNegative() {
		return apperror.NewValidation("debit and credit must be non-negative").
			WithDetail("debit", l.Debit.String()).
			WithDetail("credit", l.Credit.String())
	}
	if !l.Debit.IsZero() && !l.Credit.IsZero() {
		return apperror.NewValidation("a line cannot carry both debit and credit").
			WithDetail("debit", l.Debit.String()).
			WithDetail("credit", l.Credit.String())
	}
	if id.IsNil(l.AccountID) {
		return apperror.NewValidation("account is required").
			WithDetail("field", "accountId")
	}
	return nil
}

// Amount returns debit minus credit.
func (l *Line) Amount() types.Money {
	return l.Debit.Sub(l.Credit)
}

// IsReconciled reports whether the line belongs to a reconciliation.
func (l *Line) IsReconciled() bool {
	return l.ReconciliationID != nil
}

// TaxLine binds a declaration bucket contribution to a move line.
type TaxLine struct {
	ID     id.ID       `db:"id" json:"id"`
	LineID id.ID       `db:"line_id" json:"lineId"`
	CodeID id.ID       `db:"code_id" json:"codeId"`
	Amount types.Money `db:"amount" json:"amount"`
}

// JournalPeriodState is the open/close state of a journal-period binding.
type JournalPeriodState string

const (
	JournalPeriodOpen  JournalPeriodState = "open"
	JournalPeriodClose JournalPeriodState = "close"
)

// JournalPeriod is the per-(journal, period) gate for line bookings.
// Bindings are created on demand when the first line of the pair is written.
type JournalPeriod struct {
	entity.BaseEntity

	Name      string             `db:"name" json:"name"`
	JournalID id.ID              `db:"journal_id" json:"journalId"`
	PeriodID  id.ID              `db:"period_id" json:"periodId"`
	State     JournalPeriodState `db:"state" json:"state"`
}

// IsOpen reports whether the binding accepts line changes.
func (jp *JournalPeriod) IsOpen() bool {
	return jp.State == JournalPeriodOpen
}

// Reconciliation groups settled lines of one account. It is immutable:
// the only way to undo it is deletion.
type Reconciliation struct {
	ID   id.ID  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`

	Lines []*Line `db:"-" json:"lines,omitempty"`
}
