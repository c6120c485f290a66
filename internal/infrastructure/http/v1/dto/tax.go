package dto

import (
	"bookkeeper/internal/core/id"
	"bookkeeper/internal/core/types"
	"bookkeeper/internal/domain/tax"
)

// CreateTaxRequest is the request body for creating a tax.
type CreateTaxRequest struct {
	Code      string `json:"code" binding:"required"`
	Name      string `json:"name" binding:"required"`
	Type      string `json:"type" binding:"required"`
	CompanyID id.ID  `json:"companyId" binding:"required"`
	ParentID  *id.ID `json:"parentId"`
	Group     string `json:"group"`
	Sequence  int    `json:"sequence"`

	Amount     types.Money `json:"amount"`
	Percentage types.Money `json:"percentage"`

	InvoiceAccountID    *id.ID `json:"invoiceAccountId"`
	CreditNoteAccountID *id.ID `json:"creditNoteAccountId"`

	InvoiceBaseCodeID    *id.ID       `json:"invoiceBaseCodeId"`
	InvoiceBaseSign      *types.Money `json:"invoiceBaseSign"`
	InvoiceTaxCodeID     *id.ID       `json:"invoiceTaxCodeId"`
	InvoiceTaxSign       *types.Money `json:"invoiceTaxSign"`
	CreditNoteBaseCodeID *id.ID       `json:"creditNoteBaseCodeId"`
	CreditNoteBaseSign   *types.Money `json:"creditNoteBaseSign"`
	CreditNoteTaxCodeID  *id.ID       `json:"creditNoteTaxCodeId"`
	CreditNoteTaxSign    *types.Money `json:"creditNoteTaxSign"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateTaxRequest) ToEntity() *tax.Tax {
	t := tax.NewTax(r.Code, r.Name, tax.Type(r.Type), r.CompanyID)
	t.ParentID = r.ParentID
	t.Group = r.Group
	t.Sequence = r.Sequence
	t.Amount = r.Amount
	t.Percentage = r.Percentage
	t.InvoiceAccountID = r.InvoiceAccountID
	t.CreditNoteAccountID = r.CreditNoteAccountID
	t.InvoiceBaseCodeID = r.InvoiceBaseCodeID
	t.InvoiceTaxCodeID = r.InvoiceTaxCodeID
	t.CreditNoteBaseCodeID = r.CreditNoteBaseCodeID
	t.CreditNoteTaxCodeID = r.CreditNoteTaxCodeID
	if r.InvoiceBaseSign != nil {
		t.InvoiceBaseSign = *r.InvoiceBaseSign
	}
	if r.InvoiceTaxSign != nil {
		t.InvoiceTaxSign = *r.InvoiceTaxSign
	}
	if r.CreditNoteBaseSign != nil {
		t.CreditNoteBaseSign = *r.CreditNoteBaseSign
	}
	if r.CreditNoteTaxSign != nil {
		t.CreditNoteTaxSign = *r.CreditNoteTaxSign
	}
	return t
}

// UpdateTaxRequest is the request body for updating a tax.
type UpdateTaxRequest struct {
	Name       *string      `json:"name"`
	Sequence   *int         `json:"sequence"`
	Amount     *types.Money `json:"amount"`
	Percentage *types.Money `json:"percentage"`
	Active     *bool        `json:"active"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateTaxRequest) ApplyTo(t *tax.Tax) {
	if r.Name != nil {
		t.Name = *r.Name
	}
	if r.Sequence != nil {
		t.Sequence = *r.Sequence
	}
	if r.Amount != nil {
		t.Amount = *r.Amount
	}
	if r.Percentage != nil {
		t.Percentage = *r.Percentage
	}
	if r.Active != nil {
		t.Active = *r.Active
	}
}

// ComputeTaxRequest is the request body for tax computation.
type ComputeTaxRequest struct {
	TaxIDs    []id.ID     `json:"taxIds" binding:"required,min=1"`
	UnitPrice types.Money `json:"unitPrice"`
	Quantity  types.Money `json:"quantity"`
}
