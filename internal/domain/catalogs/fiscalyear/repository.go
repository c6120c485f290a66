package fiscalyear

import (
	"context"
	"time"

	"bookkeeper/internal/core/id"
)

// Repository defines storage operations for fiscal years and periods.
type Repository interface {
	Create(ctx context.Context, fy *FiscalYear) error
	Update(ctx context.Context, fy *FiscalYear) error

	GetByID(ctx context.Context, fiscalYearID id.ID) (*FiscalYear, error)
	// FindByDate returns the fiscal year of the company containing date.
	FindByDate(ctx context.Context, companyID id.ID, date time.Time) (*FiscalYear, error)
	// FindPrevious returns the most recent fiscal year of the company ending
	// on or before the given date, if any.
	FindPrevious(ctx context.Context, companyID id.ID, before time.Time) (*FiscalYear, error)
	// ListOpen returns all open fiscal years of the company.
	ListOpen(ctx context.Context, companyID id.ID) ([]*FiscalYear, error)
	// Overlapping returns fiscal years of the company intersecting [start, end].
	Overlapping(ctx context.Context, companyID id.ID, start, end time.Time) ([]*FiscalYear, error)

	CreatePeriod(ctx context.Context, p *Period) error
	UpdatePeriod(ctx context.Context, p *Period) error

	GetPeriod(ctx context.Context, periodID id.ID) (*Period, error)
	// FindPeriod returns the open period of the company containing date.
	FindPeriod(ctx context.Context, companyID id.ID, date time.Time) (*Period, error)
	ListPeriods(ctx context.Context, fiscalYearID id.ID) ([]*Period, error)
}
