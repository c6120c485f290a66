package currency

import (
	"context"
	"time"

	"bookkeeper/internal/core/apperror"
	"bookkeeper/internal/core/id"
	"bookkeeper/internal/core/tx"
	"bookkeeper/internal/core/types"
	"bookkeeper/pkg/logger"
)

// Service provides business logic for the Currency catalog and the currency
// arithmetic used by the ledger: rounding, zero tests and conversion.
type Service struct {
	repo Repository
	txm  tx.Manager
}

// NewService creates a new Currency service.
func NewService(repo Repository, txm tx.Manager) *Service {
	return &Service{repo: repo, txm: txm}
}

// Create validates and stores a new currency.
func (s *Service) Create(ctx context.Context, curr *Currency) error {
	if err := curr.Validate(ctx); err != nil {
		return err
	}
	if existing, err := s.repo.FindByISOCode(ctx, curr.ISOCode); err == nil && existing.ID != curr.ID {
		return apperror.NewDuplicate("currency", "isoCode", curr.ISOCode)
	}
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, curr); err != nil {
			return err
		}
		logger.Info(ctx, "currency created", "currency_id", curr.ID, "iso_code", curr.ISOCode)
		return nil
	})
}

// Update validates and stores currency changes.
func (s *Service) Update(ctx context.Context, curr *Currency) error {
	if err := curr.Validate(ctx); err != nil {
		return err
	}
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, curr)
	})
}

// GetByID retrieves a currency.
func (s *Service) GetByID(ctx context.Context, currencyID id.ID) (*Currency, error) {
	return s.repo.GetByID(ctx, currencyID)
}

// FindByISOCode retrieves a currency by ISO code.
func (s *Service) FindByISOCode(ctx context.Context, isoCode string) (*Currency, error) {
	return s.repo.FindByISOCode(ctx, isoCode)
}

// AddRate appends a rate quotation.
func (s *Service) AddRate(ctx context.Context, currencyID id.ID, date time.Time, rate types.Money) error {
	if rate.IsZero() || rate.IsNegative() {
		return apperror.NewValidation("rate must be positive").
			WithDetail("rate", rate.String())
	}
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.AddRate(ctx, currencyID, Rate{ID: id.New(), Date: date, Rate: rate})
	})
}

// Round rounds an amount to the precision of the given currency.
func (s *Service) Round(ctx context.Context, currencyID id.ID, amount types.Money) (types.Money, error) {
	curr, err := s.repo.GetByID(ctx, currencyID)
	if err != nil {
		return types.Zero(), err
	}
	return curr.Round(amount), nil
}

// IsZero reports whether the amount rounds to zero in the given currency.
func (s *Service) IsZero(ctx context.Context, currencyID id.ID, amount types.Money) (bool, error) {
	curr, err := s.repo.GetByID(ctx, currencyID)
	if err != nil {
		return false, err
	}
	return curr.IsZero(amount), nil
}

// Convert converts an amount between currencies using the rates in effect at
// date. Same-currency conversion is the identity (modulo rounding).
func (s *Service) Convert(ctx context.Context, fromID, toID id.ID, amount types.Money, date time.Time, round bool) (types.Money, error) {
	if fromID == toID {
		if !round {
			return amount, nil
		}
		return s.Round(ctx, toID, amount)
	}

	from, err := s.repo.GetByID(ctx, fromID)
	if err != nil {
		return types.Zero(), err
	}
	to, err := s.repo.GetByID(ctx, toID)
	if err != nil {
		return types.Zero(), err
	}

	fromRate, ok := from.RateAt(date)
	if !ok {
		return types.Zero(), apperror.NewValidation("no exchange rate for currency").
			WithDetail("currency", from.ISOCode).
			WithDetail("date", date.Format("2006-01-02"))
	}
	toRate, ok := to.RateAt(date)
	if !ok {
		return types.Zero(), apperror.NewValidation("no exchange rate for currency").
			WithDetail("currency", to.ISOCode).
			WithDetail("date", date.Format("2006-01-02"))
	}

	converted := amount.Mul(toRate).Div(fromRate)
	if round {
		converted = to.Round(converted)
	}
	return converted, nil
}
