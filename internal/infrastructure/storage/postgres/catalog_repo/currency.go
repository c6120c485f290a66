package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"bookkeeper/internal/core/apperror"
	"bookkeeper/internal/core/id"
	"bookkeeper/internal/domain/catalogs/currency"
	"bookkeeper/internal/infrastructure/storage/postgres"
)

const (
	currencyTable     = "cat_currencies"
	currencyRateTable = "cat_currency_rates"
)

// CurrencyRepo implements currency.Repository.
type CurrencyRepo struct {
	*BaseCatalogRepo[currency.Currency]
}

// NewCurrencyRepo creates a new currency repository.
func NewCurrencyRepo(txm *postgres.TxManager) *CurrencyRepo {
	return &CurrencyRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[currency.Currency](
			txm,
			currencyTable,
			postgres.ExtractDBColumns[currency.Currency](),
		),
	}
}

// GetByID retrieves a currency with its rate history.
func (r *CurrencyRepo) GetByID(ctx context.Context, currencyID id.ID) (*currency.Currency, error) {
	c, err := r.BaseCatalogRepo.GetByID(ctx, currencyID)
	if err != nil {
		return nil, err
	}
	if err := r.loadRates(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// FindByISOCode retrieves a currency by ISO code.
func (r *CurrencyRepo) FindByISOCode(ctx context.Context, isoCode string) (*currency.Currency, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"iso_code": isoCode}).
		Where(squirrel.Eq{"deletion_mark": false}).
		Limit(1)

	c, err := r.FindOne(ctx, q)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("currency", isoCode)
		}
		return nil, err
	}
	if err := r.loadRates(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// List retrieves currencies, optionally restricted to active ones.
func (r *CurrencyRepo) List(ctx context.Context, activeOnly bool) ([]*currency.Currency, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"deletion_mark": false}).
		OrderBy("iso_code")
	if activeOnly {
		q = q.Where(squirrel.Eq{"active": true})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*currency.Currency
	if err := pgxscan.Select(ctx, r.querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list currencies: %w", err)
	}
	return items, nil
}

// AddRate appends a rate quotation to the currency history.
func (r *CurrencyRepo) AddRate(ctx context.Context, currencyID id.ID, rate currency.Rate) error {
	q := r.Builder().
		Insert(currencyRateTable).
		Columns("id", "currency_id", "date", "rate").
		Values(rate.ID, currencyID, rate.Date, rate.Rate)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert currency rate: %w", err)
	}
	return nil
}

func (r *CurrencyRepo) loadRates(ctx context.Context, c *currency.Currency) error {
	q := r.Builder().
		Select("id", "date", "rate").
		From(currencyRateTable).
		Where(squirrel.Eq{"currency_id": c.ID}).
		OrderBy("date DESC")

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Select(ctx, r.querier(ctx), &c.Rates, sql, args...); err != nil {
		return fmt.Errorf("load currency rates: %w", err)
	}
	return nil
}
