package fiscalyear

import (
	"context"
	"fmt"
	"time"

	"bookkeeper/internal/core/apperror"
	"bookkeeper/internal/core/id"
	"bookkeeper/internal/core/tx"
	"bookkeeper/internal/domain/scope"
	"bookkeeper/pkg/logger"
)

// Service provides business logic for fiscal years and periods.
type Service struct {
	repo Repository
	txm  tx.Manager
}

// NewService creates a new fiscal year service.
func NewService(repo Repository, txm tx.Manager) *Service {
	return &Service{repo: repo, txm: txm}
}

// Create validates and stores a fiscal year, rejecting date overlaps within
// the company.
func (s *Service) Create(ctx context.Context, fy *FiscalYear) error {
	if err := fy.Validate(ctx); err != nil {
		return err
	}
	overlapping, err := s.repo.Overlapping(ctx, fy.CompanyID, fy.StartDate, fy.EndDate)
	if err != nil {
		return err
	}
	for _, other := range overlapping {
		if other.ID != fy.ID {
			return apperror.NewConflict("fiscal year overlaps an existing one").
				WithDetail("other", other.Code)
		}
	}
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, fy); err != nil {
			return err
		}
		logger.Info(ctx, "fiscal year created", "fiscalyear_id", fy.ID, "code", fy.Code)
		return nil
	})
}

// CreateMonthlyPeriods splits the fiscal year into calendar-month periods.
func (s *Service) CreateMonthlyPeriods(ctx context.Context, fiscalYearID id.ID) ([]*Period, error) {
	fy, err := s.repo.GetByID(ctx, fiscalYearID)
	if err != nil {
		return nil, err
	}

	var periods []*Period
	start := fy.StartDate
	for !start.After(fy.EndDate) {
		end := start.AddDate(0, 1, 0).AddDate(0, 0, -start.Day())
		if end.After(fy.EndDate) {
			end = fy.EndDate
		}
		code := fmt.Sprintf("%s-%02d", fy.Code, len(periods)+1)
		periods = append(periods, NewPeriod(code, start.Format("2006-01"), fy.ID, start, end))
		start = end.AddDate(0, 0, 1)
	}

	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		for _, p := range periods {
			if err := s.repo.CreatePeriod(ctx, p); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return periods, nil
}

// GetByID retrieves a fiscal year.
func (s *Service) GetByID(ctx context.Context, fiscalYearID id.ID) (*FiscalYear, error) {
	return s.repo.GetByID(ctx, fiscalYearID)
}

// FindPeriod returns the open period containing date, or PERIOD_CLOSED /
// not-found errors when no open period covers it.
func (s *Service) FindPeriod(ctx context.Context, companyID id.ID, date time.Time) (*Period, error) {
	p, err := s.repo.FindPeriod(ctx, companyID, date)
	if err != nil {
		return nil, err
	}
	if !p.IsOpen() {
		return nil, apperror.NewPeriodClosed(p.Code)
	}
	return p, nil
}

// GetPeriod retrieves a period.
func (s *Service) GetPeriod(ctx context.Context, periodID id.ID) (*Period, error) {
	return s.repo.GetPeriod(ctx, periodID)
}

// ClosePeriod moves a period to the close state.
func (s *Service) ClosePeriod(ctx context.Context, periodID id.ID) error {
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		p, err := s.repo.GetPeriod(ctx, periodID)
		if err != nil {
			return err
		}
		if !p.IsOpen() {
			return apperror.NewPeriodClosed(p.Code)
		}
		p.State = StateClose
		if err := s.repo.UpdatePeriod(ctx, p); err != nil {
			return err
		}
		logger.Info(ctx, "period closed", "period_id", p.ID, "code", p.Code)
		return nil
	})
}

// ReopenPeriod moves a period back to the open state. The fiscal year must
// still be open.
func (s *Service) ReopenPeriod(ctx context.Context, periodID id.ID) error {
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		p, err := s.repo.GetPeriod(ctx, periodID)
		if err != nil {
			return err
		}
		fy, err := s.repo.GetByID(ctx, p.FiscalYearID)
		if err != nil {
			return err
		}
		if !fy.IsOpen() {
			return apperror.NewPeriodClosed(fy.Code)
		}
		p.State = StateOpen
		return s.repo.UpdatePeriod(ctx, p)
	})
}

// ResolveScope translates a reporting scope into the resolved form used by
// repositories, returning the fiscal years it spans. An explicit period list
// spans no fiscal years, which disables deferral chaining.
func (s *Service) ResolveScope(ctx context.Context, companyID id.ID, sc scope.Scope) (scope.Resolved, []*FiscalYear, error) {
	rs := scope.Resolved{Posted: sc.Posted}

	switch {
	case sc.HasDate():
		fy, err := s.repo.FindByDate(ctx, companyID, *sc.Date)
		if err != nil {
			if apperror.IsNotFound(err) {
				return rs, nil, nil
			}
			return rs, nil, err
		}
		rs.FiscalYearIDs = []id.ID{fy.ID}
		rs.Date = sc.Date
		return rs, []*FiscalYear{fy}, nil

	case len(sc.PeriodIDs) > 0:
		rs.PeriodIDs = sc.PeriodIDs
		return rs, nil, nil

	case sc.HasFiscalYear():
		fy, err := s.repo.GetByID(ctx, sc.FiscalYearID)
		if err != nil {
			return rs, nil, err
		}
		rs.FiscalYearIDs = []id.ID{fy.ID}
		return rs, []*FiscalYear{fy}, nil

	default:
		open, err := s.repo.ListOpen(ctx, companyID)
		if err != nil {
			return rs, nil, err
		}
		for _, fy := range open {
			rs.FiscalYearIDs = append(rs.FiscalYearIDs, fy.ID)
		}
		return rs, open, nil
	}
}

// FindPrevious returns the most recent fiscal year of the company ending on
// or before the given date, or nil when there is none.
func (s *Service) FindPrevious(ctx context.Context, companyID id.ID, before time.Time) (*FiscalYear, error) {
	fy, err := s.repo.FindPrevious(ctx, companyID, before)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return fy, nil
}

// Close moves a fiscal year to the close state. All its periods must already
// be closed; deferral snapshots are created by the account service before
// this call.
func (s *Service) Close(ctx context.Context, fiscalYearID id.ID) error {
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		fy, err := s.repo.GetByID(ctx, fiscalYearID)
		if err != nil {
			return err
		}
		if !fy.IsOpen() {
			return apperror.NewPeriodClosed(fy.Code)
		}
		periods, err := s.repo.ListPeriods(ctx, fy.ID)
		if err != nil {
			return err
		}
		for _, p := range periods {
			if p.IsOpen() {
				return apperror.NewBusinessRule(apperror.CodeBusinessRule,
					"all periods must be closed before closing the fiscal year").
					WithDetail("period", p.Code)
			}
		}
		fy.State = StateClose
		if err := s.repo.Update(ctx, fy); err != nil {
			return err
		}
		logger.Info(ctx, "fiscal year closed", "fiscalyear_id", fy.ID, "code", fy.Code)
		return nil
	})
}
