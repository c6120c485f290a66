// Package taxcode provides the TaxCode catalog: the hierarchical buckets tax
// declarations are built from. Tax lines on move lines point into this tree
// and GetSum aggregates them over whole subtrees.
package taxcode

import (
	"context"

	"bookkeeper/internal/core/apperror"
	"bookkeeper/internal/core/entity"
	"bookkeeper/internal/core/id"
)

// TaxCode is one node of the declaration tree.
type TaxCode struct {
	entity.Catalog

	CompanyID id.ID `db:"company_id" json:"companyId"`
	Active    bool  `db:"active" json:"active"`
}

// NewTaxCode creates an active tax code.
func NewTaxCode(code, name string, companyID id.ID) *TaxCode {
	return &TaxCode{
		Catalog:   entity.NewCatalog(code, name),
		CompanyID: companyID,
		Active:    true,
	}
}

// Validate implements entity.Validatable interface.
func (c *TaxCode) Validate(ctx context.Context) error {
	if err := c.Catalog.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(c.CompanyID) {
		return apperror.NewValidation("company is required").
			WithDetail("field", "companyId")
	}
	return nil
}
