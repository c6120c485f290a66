// Package tax provides the Tax catalog and the forward/inverse tax
// computation engine.
//
// Taxes form sequence-ordered trees. Group headers use the none type and
// contribute nothing themselves; children always compute against the same
// unit price as their parent.
package tax

import (
	"context"

	"bookkeeper/internal/core/apperror"
	"bookkeeper/internal/core/entity"
	"bookkeeper/internal/core/id"
	"bookkeeper/internal/core/types"
)

// Type selects the computation method.
type Type string

const (
	TypePercentage Type = "percentage"
	TypeFixed      Type = "fixed"
	TypeNone       Type = "none"
)

// Tax is one node of a tax tree.
type Tax struct {
	entity.Catalog

	CompanyID id.ID  `db:"company_id" json:"companyId"`
	Group     string `db:"tax_group" json:"group,omitempty"`

	// Sequence orders siblings; ties break on ID.
	Sequence int `db:"sequence" json:"sequence"`

	Type Type `db:"type" json:"type"`

	// Amount is the constant for fixed taxes
	Amount types.Money `db:"amount" json:"amount"`

	// Percentage is the rate for percentage taxes
	Percentage types.Money `db:"percentage" json:"percentage"`

	Active bool `db:"active" json:"active"`

	// Posting targets for invoices and credit notes
	InvoiceAccountID    *id.ID `db:"invoice_account_id" json:"invoiceAccountId,omitempty"`
	CreditNoteAccountID *id.ID `db:"credit_note_account_id" json:"creditNoteAccountId,omitempty"`

	// Declaration bucket bindings; the signs flip contributions between
	// invoice and credit-note reporting.
	InvoiceBaseCodeID    *id.ID      `db:"invoice_base_code_id" json:"invoiceBaseCodeId,omitempty"`
	InvoiceBaseSign      types.Money `db:"invoice_base_sign" json:"invoiceBaseSign"`
	InvoiceTaxCodeID     *id.ID      `db:"invoice_tax_code_id" json:"invoiceTaxCodeId,omitempty"`
	InvoiceTaxSign       types.Money `db:"invoice_tax_sign" json:"invoiceTaxSign"`
	CreditNoteBaseCodeID *id.ID      `db:"credit_note_base_code_id" json:"creditNoteBaseCodeId,omitempty"`
	CreditNoteBaseSign   types.Money `db:"credit_note_base_sign" json:"creditNoteBaseSign"`
	CreditNoteTaxCodeID  *id.ID      `db:"credit_note_tax_code_id" json:"creditNoteTaxCodeId,omitempty"`
	CreditNoteTaxSign    types.Money `db:"credit_note_tax_sign" json:"creditNoteTaxSign"`

	// Childs is the ordered child list, loaded by the repository.
	Childs []*Tax `db:"-" json:"childs,omitempty"`
}

// NewTax creates an active tax.
func NewTax(code, name string, typ Type, companyID id.ID) *Tax {
	one := types.NewMoney(1)
	return &Tax{
		Catalog:            entity.NewCatalog(code, name),
		CompanyID:          companyID,
		Type:               typ,
		Active:             true,
		InvoiceBaseSign:    one,
		InvoiceTaxSign:     one,
		CreditNoteBaseSign: one,
		CreditNoteTaxSign:  one,
	}
}

// Validate implements entity.Validatable interface.
func (t *Tax) Validate(ctx context.Context) error {
	if err := t.Catalog.Validate(ctx); err != nil {
		return err
	}
	switch t.Type {
	case TypePercentage, TypeFixed, TypeNone:
	default:
		return apperror.NewValidation("unknown tax type").
			WithDetail("type", string(t.Type))
	}
	if id.IsNil(t.CompanyID) {
		return apperror.NewValidation("company is required").
			WithDetail("field", "companyId")
	}
	return nil
}

// ComputedTax is one line of a tax computation result.
type ComputedTax struct {
	Base   types.Money `json:"base"`
	Amount types.Money `json:"amount"`
	Tax    *Tax        `json:"tax"`
}
