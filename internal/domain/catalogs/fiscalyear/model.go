// Package fiscalyear provides the FiscalYear and Period catalogs.
// Periods partition a fiscal year; moves are always booked into a period and
// aggregation scopes resolve to period sets.
package fiscalyear

import (
	"context"
	"time"

	"bookkeeper/internal/core/apperror"
	"bookkeeper/internal/core/entity"
	"bookkeeper/internal/core/id"
	"bookkeeper/internal/core/sequence"
)

// State of a fiscal year or period.
type State string

const (
	StateOpen  State = "open"
	StateClose State = "close"
)

// FiscalYear represents one accounting year of a company.
type FiscalYear struct {
	entity.Catalog

	StartDate time.Time `db:"start_date" json:"startDate"`
	EndDate   time.Time `db:"end_date" json:"endDate"`
	State     State     `db:"state" json:"state"`
	CompanyID id.ID     `db:"company_id" json:"companyId"`

	// MoveSequence numbers moves created within this year
	MoveSequence sequence.Config `db:"-" json:"moveSequence"`

	// PostMoveSequence numbers posting references; strict, no gaps
	PostMoveSequence sequence.Config `db:"-" json:"postMoveSequence"`

	Periods []*Period `db:"-" json:"periods,omitempty"`
}

// Period is a slice of a fiscal year.
type Period struct {
	entity.BaseCatalog

	Code         string    `db:"code" json:"code"`
	Name         string    `db:"name" json:"name"`
	StartDate    time.Time `db:"start_date" json:"startDate"`
	EndDate      time.Time `db:"end_date" json:"endDate"`
	FiscalYearID id.ID     `db:"fiscalyear_id" json:"fiscalyearId"`
	State        State     `db:"state" json:"state"`
}

// NewFiscalYear creates an open fiscal year spanning [start, end].
func NewFiscalYear(code, name string, companyID id.ID, start, end time.Time) *FiscalYear {
	return &FiscalYear{
		Catalog:          entity.NewCatalog(code, name),
		StartDate:        start,
		EndDate:          end,
		State:            StateOpen,
		CompanyID:        companyID,
		MoveSequence:     sequence.DefaultConfig("MOVE"),
		PostMoveSequence: sequence.StrictConfig("PST"),
	}
}

// Validate implements entity.Validatable interface.
func (f *FiscalYear) Validate(ctx context.Context) error {
	if err := f.Catalog.Validate(ctx); err != nil {
		return err
	}
	if !f.StartDate.Before(f.EndDate) {
		return apperror.NewValidation("fiscal year start date must precede end date").
			WithDetail("startDate", f.StartDate).
			WithDetail("endDate", f.EndDate)
	}
	if id.IsNil(f.CompanyID) {
		return apperror.NewValidation("company is required").
			WithDetail("field", "companyId")
	}
	return nil
}

// Contains reports whether date falls inside the fiscal year.
func (f *FiscalYear) Contains(date time.Time) bool {
	return !date.Before(f.StartDate) && !date.After(f.EndDate)
}

// IsOpen reports whether the fiscal year accepts new moves.
func (f *FiscalYear) IsOpen() bool {
	return f.State == StateOpen
}

// NewPeriod creates an open period within a fiscal year.
func NewPeriod(code, name string, fiscalYearID id.ID, start, end time.Time) *Period {
	return &Period{
		BaseCatalog:  entity.NewBaseCatalog(),
		Code:         code,
		Name:         name,
		StartDate:    start,
		EndDate:      end,
		FiscalYearID: fiscalYearID,
		State:        StateOpen,
	}
}

// Validate checks period invariants.
func (p *Period) Validate(ctx context.Context) error {
	if p.Name == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}
	if !p.StartDate.Before(p.EndDate) && !p.StartDate.Equal(p.EndDate) {
		return apperror.NewValidation("period start date must not follow end date").
			WithDetail("startDate", p.StartDate).
			WithDetail("endDate", p.EndDate)
	}
	if id.IsNil(p.FiscalYearID) {
		return apperror.NewValidation("fiscal year is required").
			WithDetail("field", "fiscalyearId")
	}
	return nil
}

// Contains reports whether date falls inside the period.
func (p *Period) Contains(date time.Time) bool {
	return !date.Before(p.StartDate) && !date.After(p.EndDate)
}

// IsOpen reports whether the period accepts new moves.
func (p *Period) IsOpen() bool {
	return p.State == StateOpen
}
