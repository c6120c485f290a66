package catalog_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"bookkeeper/internal/core/apperror"
	"bookkeeper/internal/core/id"
	"bookkeeper/internal/core/sequence"
	"bookkeeper/internal/domain/catalogs/fiscalyear"
	"bookkeeper/internal/infrastructure/storage/postgres"
)

const (
	fiscalYearTable = "cat_fiscalyears"
	periodTable     = "cat_periods"
)

// FiscalYearRepo implements fiscalyear.Repository.
type FiscalYearRepo struct {
	*BaseCatalogRepo[fiscalyear.FiscalYear]
	periodCols []string
}

// NewFiscalYearRepo creates a new fiscal year repository.
func NewFiscalYearRepo(txm *postgres.TxManager) *FiscalYearRepo {
	return &FiscalYearRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[fiscalyear.FiscalYear](
			txm,
			fiscalYearTable,
			postgres.ExtractDBColumns[fiscalyear.FiscalYear](),
		),
		periodCols: postgres.ExtractDBColumns[fiscalyear.Period](),
	}
}

// withSequences fills the derived sequence configs after scanning.
func withSequences(fy *fiscalyear.FiscalYear) *fiscalyear.FiscalYear {
	fy.MoveSequence = sequence.DefaultConfig("MOVE")
	fy.PostMoveSequence = sequence.StrictConfig("PST")
	return fy
}

// GetByID retrieves a fiscal year.
func (r *FiscalYearRepo) GetByID(ctx context.Context, fiscalYearID id.ID) (*fiscalyear.FiscalYear, error) {
	fy, err := r.BaseCatalogRepo.GetByID(ctx, fiscalYearID)
	if err != nil {
		return nil, err
	}
	return withSequences(fy), nil
}

// FindByDate returns the fiscal year of the company containing date.
func (r *FiscalYearRepo) FindByDate(ctx context.Context, companyID id.ID, date time.Time) (*fiscalyear.FiscalYear, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"company_id": companyID}).
		Where(squirrel.LtOrEq{"start_date": date}).
		Where(squirrel.GtOrEq{"end_date": date}).
		Limit(1)

	fy, err := r.FindOne(ctx, q)
	if err != nil {
		return nil, err
	}
	return withSequences(fy), nil
}

// FindPrevious returns the most recent fiscal year of the company ending
// before the given date.
func (r *FiscalYearRepo) FindPrevious(ctx context.Context, companyID id.ID, before time.Time) (*fiscalyear.FiscalYear, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"company_id": companyID}).
		Where(squirrel.Lt{"end_date": before}).
		OrderBy("end_date DESC").
		Limit(1)

	fy, err := r.FindOne(ctx, q)
	if err != nil {
		return nil, err
	}
	return withSequences(fy), nil
}

// ListOpen returns all open fiscal years of the company.
func (r *FiscalYearRepo) ListOpen(ctx context.Context, companyID id.ID) ([]*fiscalyear.FiscalYear, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"company_id": companyID}).
		Where(squirrel.Eq{"state": fiscalyear.StateOpen}).
		OrderBy("start_date")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*fiscalyear.FiscalYear
	if err := pgxscan.Select(ctx, r.querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list open fiscal years: %w", err)
	}
	for _, fy := range items {
		withSequences(fy)
	}
	return items, nil
}

// Overlapping returns fiscal years of the company intersecting [start, end].
func (r *FiscalYearRepo) Overlapping(ctx context.Context, companyID id.ID, start, end time.Time) ([]*fiscalyear.FiscalYear, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"company_id": companyID}).
		Where(squirrel.LtOrEq{"start_date": end}).
		Where(squirrel.GtOrEq{"end_date": start})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*fiscalyear.FiscalYear
	if err := pgxscan.Select(ctx, r.querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list overlapping fiscal years: %w", err)
	}
	for _, fy := range items {
		withSequences(fy)
	}
	return items, nil
}

// CreatePeriod inserts a period.
func (r *FiscalYearRepo) CreatePeriod(ctx context.Context, p *fiscalyear.Period) error {
	data := postgres.StructToMap(p)
	filtered := make(map[string]any, len(r.periodCols))
	for _, col := range r.periodCols {
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}

	q := r.Builder().Insert(periodTable).SetMap(filtered)
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert period: %w", err)
	}
	return nil
}

// UpdatePeriod stores period changes with optimistic locking.
func (r *FiscalYearRepo) UpdatePeriod(ctx context.Context, p *fiscalyear.Period) error {
	data := postgres.StructToMap(p)
	filtered := make(map[string]any, len(r.periodCols))
	for _, col := range r.periodCols {
		if col == "id" || col == "version" {
			continue
		}
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}

	q := r.Builder().
		Update(periodTable).
		SetMap(filtered).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": p.ID}).
		Where(squirrel.Eq{"version": p.Version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update period: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(periodTable, p.ID)
	}
	return nil
}

// GetPeriod retrieves a period.
func (r *FiscalYearRepo) GetPeriod(ctx context.Context, periodID id.ID) (*fiscalyear.Period, error) {
	q := r.Builder().
		Select(r.periodCols...).
		From(periodTable).
		Where(squirrel.Eq{"id": periodID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var p fiscalyear.Period
	if err := pgxscan.Get(ctx, r.querier(ctx), &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(periodTable, periodID.String())
		}
		return nil, fmt.Errorf("get period: %w", err)
	}
	return &p, nil
}

// FindPeriod returns the period of the company containing date.
func (r *FiscalYearRepo) FindPeriod(ctx context.Context, companyID id.ID, date time.Time) (*fiscalyear.Period, error) {
	q := r.Builder().
		Select(prefixColumns("p", r.periodCols)...).
		From(periodTable + " p").
		Join(fiscalYearTable + " fy ON fy.id = p.fiscalyear_id").
		Where(squirrel.Eq{"fy.company_id": companyID}).
		Where(squirrel.LtOrEq{"p.start_date": date}).
		Where(squirrel.GtOrEq{"p.end_date": date}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var p fiscalyear.Period
	if err := pgxscan.Get(ctx, r.querier(ctx), &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(periodTable, date.Format("2006-01-02"))
		}
		return nil, fmt.Errorf("find period: %w", err)
	}
	return &p, nil
}

// ListPeriods returns all periods of a fiscal year ordered by start date.
func (r *FiscalYearRepo) ListPeriods(ctx context.Context, fiscalYearID id.ID) ([]*fiscalyear.Period, error) {
	q := r.Builder().
		Select(r.periodCols...).
		From(periodTable).
		Where(squirrel.Eq{"fiscalyear_id": fiscalYearID}).
		OrderBy("start_date")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*fiscalyear.Period
	if err := pgxscan.Select(ctx, r.querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list periods: %w", err)
	}
	return items, nil
}

// prefixColumns qualifies column names with a table alias.
func prefixColumns(alias string, cols []string) []string {
	res := make([]string, len(cols))
	for i, col := range cols {
		res[i] = alias + "." + col
	}
	return res
}
