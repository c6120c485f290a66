package entity

import (
	"context"

	"bookkeeper/internal/core/apperror"
	"bookkeeper/internal/core/id"
)

// Catalog is the base type for reference data.
// Examples: Accounts, Journals, Tax Codes, Currencies.
type Catalog struct {
	BaseCatalog

	// Code is a human-readable identifier (unique within database)
	Code string `db:"code" json:"code"`

	// Name is the display name
	Name string `db:"name" json:"name"`

	// ParentID for hierarchical catalogs (nullable)
	ParentID *id.ID `db:"parent_id" json:"parentId,omitempty"`
}

// NewCatalog creates a new Catalog with generated ID.
func NewCatalog(code, name string) Catalog {
	return Catalog{
		BaseCatalog: NewBaseCatalog(),
		Code:        code,
		Name:        name,
	}
}

// Validate implements Validatable interface.
func (c *Catalog) Validate(ctx context.Context) error {
	if c.Name == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}

	// Code can be auto-generated, so it's optional at creation
	// but required at save time

	return nil
}

// SetParent sets the parent reference.
func (c *Catalog) SetParent(parentID id.ID) {
	if id.IsNil(parentID) {
		c.ParentID = nil
	} else {
		c.ParentID = &parentID
	}
}

// IsRoot returns true if catalog has no parent.
func (c *Catalog) IsRoot() bool {
	return c.ParentID == nil || id.IsNil(*c.ParentID)
}
