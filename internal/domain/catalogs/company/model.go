// Package company provides the Company catalog.
// Every account forest, fiscal year and journal entry belongs to a company,
// and the company currency is the unit all its ledger amounts round to.
package company

import (
	"context"

	"bookkeeper/internal/core/apperror"
	"bookkeeper/internal/core/entity"
	"bookkeeper/internal/core/id"
)

// Company represents a legal entity keeping its own ledger.
type Company struct {
	entity.Catalog

	// CurrencyID is the accounting currency of the company
	CurrencyID id.ID `db:"currency_id" json:"currencyId"`
}

// NewCompany creates a new Company.
func NewCompany(code, name string, currencyID id.ID) *Company {
	return &Company{
		Catalog:    entity.NewCatalog(code, name),
		CurrencyID: currencyID,
	}
}

// Validate implements entity.Validatable interface.
func (c *Company) Validate(ctx context.Context) error {
	if err := c.Catalog.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(c.CurrencyID) {
		return apperror.NewValidation("currency is required").
			WithDetail("field", "currencyId")
	}
	return nil
}
