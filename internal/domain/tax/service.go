package tax

import (
	"context"

	"bookkeeper/internal/core/id"
	"bookkeeper/internal/core/tx"
	"bookkeeper/internal/core/types"
	"bookkeeper/pkg/logger"
)

// Service provides business logic for the Tax catalog. Every catalog change
// invalidates the engine's sort cache.
type Service struct {
	repo   Repository
	txm    tx.Manager
	engine *Engine
}

// NewService creates a new tax service.
func NewService(repo Repository, txm tx.Manager, engine *Engine) *Service {
	return &Service{repo: repo, txm: txm, engine: engine}
}

// Create validates and stores a new tax.
func (s *Service) Create(ctx context.Context, t *Tax) error {
	if err := t.Validate(ctx); err != nil {
		return err
	}
	s.engine.Invalidate()
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, t); err != nil {
			return err
		}
		logger.Info(ctx, "tax created", "tax_id", t.ID, "code", t.Code)
		return nil
	})
}

// Update validates and stores tax changes.
func (s *Service) Update(ctx context.Context, t *Tax) error {
	if err := t.Validate(ctx); err != nil {
		return err
	}
	s.engine.Invalidate()
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, t)
	})
}

// Delete removes a tax.
func (s *Service) Delete(ctx context.Context, taxID id.ID) error {
	s.engine.Invalidate()
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Delete(ctx, taxID)
	})
}

// GetByID retrieves a tax with its child tree.
func (s *Service) GetByID(ctx context.Context, taxID id.ID) (*Tax, error) {
	return s.repo.GetByID(ctx, taxID)
}

// Compute delegates to the engine.
func (s *Service) Compute(ctx context.Context, taxIDs []id.ID, unitPrice, quantity types.Money) ([]ComputedTax, error) {
	return s.engine.Compute(ctx, taxIDs, unitPrice, quantity)
}

// ComputeInverse delegates to the engine.
func (s *Service) ComputeInverse(ctx context.Context, taxIDs []id.ID, unitPrice, quantity types.Money) ([]ComputedTax, error) {
	return s.engine.ComputeInverse(ctx, taxIDs, unitPrice, quantity)
}
