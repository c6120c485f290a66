package dto

import (
	"time"

	"bookkeeper/internal/core/id"
	"bookkeeper/internal/core/types"
	"bookkeeper/internal/domain/ledger"
)

// CreateMoveRequest is the request body for creating a move.
type CreateMoveRequest struct {
	JournalID id.ID     `json:"journalId" binding:"required"`
	PeriodID  id.ID     `json:"periodId" binding:"required"`
	Date      time.Time `json:"date"`
}

// ToInput converts DTO to service input.
func (r *CreateMoveRequest) ToInput() ledger.CreateMoveInput {
	return ledger.CreateMoveInput{
		JournalID: r.JournalID,
		PeriodID:  r.PeriodID,
		Date:      r.Date,
	}
}

// TaxLineRequest is one declaration bucket contribution of a line.
type TaxLineRequest struct {
	CodeID id.ID       `json:"codeId" binding:"required"`
	Amount types.Money `json:"amount"`
}

// CreateLineRequest is the request body for creating a move line.
// Either moveId or journalId+periodId must be given; without a move the
// line is appended to the journal's open move or a fresh one.
type CreateLineRequest struct {
	MoveID    *id.ID    `json:"moveId"`
	JournalID id.ID     `json:"journalId"`
	PeriodID  id.ID     `json:"periodId"`
	Date      time.Time `json:"date"`

	Name      string      `json:"name" binding:"required"`
	Reference string      `json:"reference"`
	AccountID id.ID       `json:"accountId" binding:"required"`
	Debit     types.Money `json:"debit"`
	Credit    types.Money `json:"credit"`

	PartyID      *id.ID     `json:"partyId"`
	MaturityDate *time.Time `json:"maturityDate"`

	TaxLines []TaxLineRequest `json:"taxLines"`
}

// ToInput converts DTO to service input.
func (r *CreateLineRequest) ToInput() ledger.CreateLineInput {
	taxLines := make([]*ledger.TaxLine, 0, len(r.TaxLines))
	for _, tl := range r.TaxLines {
		taxLines = append(taxLines, &ledger.TaxLine{
			CodeID: tl.CodeID,
			Amount: tl.Amount,
		})
	}
	return ledger.CreateLineInput{
		MoveID:       r.MoveID,
		JournalID:    r.JournalID,
		PeriodID:     r.PeriodID,
		Date:         r.Date,
		Name:         r.Name,
		Reference:    r.Reference,
		AccountID:    r.AccountID,
		Debit:        r.Debit,
		Credit:       r.Credit,
		PartyID:      r.PartyID,
		MaturityDate: r.MaturityDate,
		TaxLines:     taxLines,
	}
}

// UpdateLineRequest is the request body for editing a draft line.
type UpdateLineRequest struct {
	Name         *string      `json:"name"`
	Reference    *string      `json:"reference"`
	AccountID    *id.ID       `json:"accountId"`
	Debit        *types.Money `json:"debit"`
	Credit       *types.Money `json:"credit"`
	PartyID      *id.ID       `json:"partyId"`
	MaturityDate *time.Time   `json:"maturityDate"`
	Blocked      *bool        `json:"blocked"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateLineRequest) ApplyTo(line *ledger.Line) {
	if r.Name != nil {
		line.Name = *r.Name
	}
	if r.Reference != nil {
		line.Reference = *r.Reference
	}
	if r.AccountID != nil {
		line.AccountID = *r.AccountID
	}
	if r.Debit != nil {
		line.Debit = *r.Debit
	}
	if r.Credit != nil {
		line.Credit = *r.Credit
	}
	if r.PartyID != nil {
		line.PartyID = r.PartyID
	}
	if r.MaturityDate != nil {
		line.MaturityDate = r.MaturityDate
	}
	if r.Blocked != nil {
		line.Blocked = *r.Blocked
	}
}

// MoveIDsRequest is the request body for batch post/draft.
type MoveIDsRequest struct {
	MoveIDs []id.ID `json:"moveIds" binding:"required,min=1"`
}

// SetMoveDateRequest is the request body for changing a move date.
type SetMoveDateRequest struct {
	Date time.Time `json:"date" binding:"required"`
}

// SetMovePeriodRequest is the request body for moving a move between periods.
type SetMovePeriodRequest struct {
	PeriodID id.ID `json:"periodId" binding:"required"`
}

// SetMoveJournalRequest is the request body for changing a move's journal.
type SetMoveJournalRequest struct {
	JournalID id.ID `json:"journalId" binding:"required"`
}

// WriteOffRequest describes the residual booking of a partial reconciliation.
type WriteOffRequest struct {
	JournalID id.ID     `json:"journalId" binding:"required"`
	AccountID id.ID     `json:"accountId" binding:"required"`
	Date      time.Time `json:"date"`
}

// ReconcileRequest is the request body for reconciling lines.
type ReconcileRequest struct {
	LineIDs  []id.ID          `json:"lineIds" binding:"required,min=2"`
	WriteOff *WriteOffRequest `json:"writeOff"`
}

// ToWriteOff converts the optional write-off part to the service type.
func (r *ReconcileRequest) ToWriteOff() *ledger.WriteOff {
	if r.WriteOff == nil {
		return nil
	}
	return &ledger.WriteOff{
		JournalID: r.WriteOff.JournalID,
		AccountID: r.WriteOff.AccountID,
		Date:      r.WriteOff.Date,
	}
}

// LineIDsRequest is the request body for unreconcile and line deletion.
type LineIDsRequest struct {
	LineIDs []id.ID `json:"lineIds" binding:"required,min=1"`
}

// JournalPeriodRequest addresses a journal/period pair.
type JournalPeriodRequest struct {
	JournalID id.ID `json:"journalId" binding:"required"`
	PeriodID  id.ID `json:"periodId" binding:"required"`
}
