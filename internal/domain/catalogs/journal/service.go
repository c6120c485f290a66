package journal

import (
	"context"

	"bookkeeper/internal/core/id"
	"bookkeeper/internal/core/tx"
	"bookkeeper/pkg/logger"
)

// Service provides business logic for the Journal catalog.
type Service struct {
	repo Repository
	txm  tx.Manager
}

// NewService creates a new journal service.
func NewService(repo Repository, txm tx.Manager) *Service {
	return &Service{repo: repo, txm: txm}
}

// Create validates and stores a new journal.
func (s *Service) Create(ctx context.Context, j *Journal) error {
	if err := j.Validate(ctx); err != nil {
		return err
	}
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, j); err != nil {
			return err
		}
		logger.Info(ctx, "journal created", "journal_id", j.ID, "code", j.Code)
		return nil
	})
}

// Update validates and stores journal changes.
func (s *Service) Update(ctx context.Context, j *Journal) error {
	if err := j.Validate(ctx); err != nil {
		return err
	}
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, j)
	})
}

// GetByID retrieves a journal.
func (s *Service) GetByID(ctx context.Context, journalID id.ID) (*Journal, error) {
	return s.repo.GetByID(ctx, journalID)
}

// FindByCode retrieves a journal by code.
func (s *Service) FindByCode(ctx context.Context, code string) (*Journal, error) {
	return s.repo.FindByCode(ctx, code)
}

// List retrieves journals.
func (s *Service) List(ctx context.Context, activeOnly bool) ([]*Journal, error) {
	return s.repo.List(ctx, activeOnly)
}
