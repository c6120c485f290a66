package company

import (
	"context"

	"bookkeeper/internal/core/id"
	"bookkeeper/internal/core/tx"
	"bookkeeper/pkg/logger"
)

// Service provides business logic for the Company catalog.
type Service struct {
	repo Repository
	txm  tx.Manager
}

// NewService creates a new company service.
func NewService(repo Repository, txm tx.Manager) *Service {
	return &Service{repo: repo, txm: txm}
}

// Create validates and stores a new company.
func (s *Service) Create(ctx context.Context, comp *Company) error {
	if err := comp.Validate(ctx); err != nil {
		return err
	}
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, comp); err != nil {
			return err
		}
		logger.Info(ctx, "company created", "company_id", comp.ID, "code", comp.Code)
		return nil
	})
}

// Update validates and stores company changes.
func (s *Service) Update(ctx context.Context, comp *Company) error {
	if err := comp.Validate(ctx); err != nil {
		return err
	}
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, comp)
	})
}

// GetByID retrieves a company.
func (s *Service) GetByID(ctx context.Context, companyID id.ID) (*Company, error) {
	return s.repo.GetByID(ctx, companyID)
}

// List retrieves all companies.
func (s *Service) List(ctx context.Context) ([]*Company, error) {
	return s.repo.List(ctx)
}

// CurrencyOf resolves the accounting currency of a company.
func (s *Service) CurrencyOf(ctx context.Context, companyID id.ID) (id.ID, error) {
	comp, err := s.repo.GetByID(ctx, companyID)
	if err != nil {
		return id.Nil(), err
	}
	return comp.CurrencyID, nil
}
