package taxcode

import (
	"context"

	"bookkeeper/internal/core/apperror"
	"bookkeeper/internal/core/id"
	"bookkeeper/internal/core/tx"
	"bookkeeper/internal/core/types"
	"bookkeeper/internal/domain/catalogs/company"
	"bookkeeper/internal/domain/catalogs/fiscalyear"
	"bookkeeper/internal/domain/scope"
	"bookkeeper/pkg/logger"
)

// CurrencyService is the currency arithmetic the tax code service needs.
type CurrencyService interface {
	Round(ctx context.Context, currencyID id.ID, amount types.Money) (types.Money, error)
}

// CompanyService resolves companies and their currencies.
type CompanyService interface {
	GetByID(ctx context.Context, companyID id.ID) (*company.Company, error)
}

// ScopeResolver translates reporting scopes; only the resolved form is used
// here, the fiscal year list is ignored.
type ScopeResolver interface {
	ResolveScope(ctx context.Context, companyID id.ID, sc scope.Scope) (scope.Resolved, []*fiscalyear.FiscalYear, error)
}

// Service provides business logic for the tax code tree.
type Service struct {
	repo       Repository
	txm        tx.Manager
	currencies CurrencyService
	companies  CompanyService
	resolver   ScopeResolver
}

// NewService creates a new tax code service.
func NewService(repo Repository, txm tx.Manager, currencies CurrencyService, companies CompanyService, res ScopeResolver) *Service {
	return &Service{
		repo:       repo,
		txm:        txm,
		currencies: currencies,
		companies:  companies,
		resolver:   res,
	}
}

// Create validates and stores a new tax code.
func (s *Service) Create(ctx context.Context, code *TaxCode) error {
	if err := code.Validate(ctx); err != nil {
		return err
	}
	if code.ParentID != nil {
		parent, err := s.repo.GetByID(ctx, *code.ParentID)
		if err != nil {
			return err
		}
		if parent.CompanyID != code.CompanyID {
			return apperror.NewValidation("parent tax code belongs to another company").
				WithDetail("parent", parent.Code)
		}
	}
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, code); err != nil {
			return err
		}
		logger.Info(ctx, "tax code created", "taxcode_id", code.ID, "code", code.Code)
		return nil
	})
}

// Update validates and stores tax code changes, rejecting parent cycles.
func (s *Service) Update(ctx context.Context, code *TaxCode) error {
	if err := code.Validate(ctx); err != nil {
		return err
	}
	if code.ParentID != nil {
		subtree, err := s.repo.Subtree(ctx, []id.ID{code.ID})
		if err != nil {
			return err
		}
		for _, node := range subtree {
			if node.ID == *code.ParentID {
				return apperror.NewValidation("tax code cannot be moved under its own subtree").
					WithDetail("code", code.Code)
			}
		}
	}
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, code)
	})
}

// Delete removes a tax code and its subtree.
func (s *Service) Delete(ctx context.Context, codeID id.ID) error {
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Delete(ctx, codeID)
	})
}

// GetByID retrieves a tax code.
func (s *Service) GetByID(ctx context.Context, codeID id.ID) (*TaxCode, error) {
	return s.repo.GetByID(ctx, codeID)
}

// GetSum aggregates tax-line amounts per requested code over its whole
// descendant closure, each child contribution rounded in the company
// currency before summing.
func (s *Service) GetSum(ctx context.Context, sc scope.Scope, codeIDs []id.ID) (map[id.ID]types.Money, error) {
	res := make(map[id.ID]types.Money, len(codeIDs))
	codes, err := s.repo.GetByIDs(ctx, codeIDs)
	if err != nil {
		return nil, err
	}

	closure, err := s.repo.Subtree(ctx, codeIDs)
	if err != nil {
		return nil, err
	}
	closureIDs := make([]id.ID, 0, len(closure))
	for _, c := range closure {
		closureIDs = append(closureIDs, c.ID)
	}

	// Sums are fetched once per distinct company scope.
	sumsByCompany := make(map[id.ID]map[id.ID]types.Money)
	for _, code := range codes {
		if _, ok := sumsByCompany[code.CompanyID]; ok {
			continue
		}
		rs, _, err := s.resolver.ResolveScope(ctx, code.CompanyID, sc)
		if err != nil {
			return nil, err
		}
		sums, err := s.repo.SumTaxLines(ctx, rs, closureIDs)
		if err != nil {
			return nil, err
		}
		sumsByCompany[code.CompanyID] = sums
	}

	for _, code := range codes {
		comp, err := s.companies.GetByID(ctx, code.CompanyID)
		if err != nil {
			return nil, err
		}
		children, err := s.repo.Subtree(ctx, []id.ID{code.ID})
		if err != nil {
			return nil, err
		}
		sums := sumsByCompany[code.CompanyID]
		total := types.Zero()
		for _, child := range children {
			amount, ok := sums[child.ID]
			if !ok {
				continue
			}
			rounded, err := s.currencies.Round(ctx, comp.CurrencyID, amount)
			if err != nil {
				return nil, err
			}
			total = total.Add(rounded)
		}
		rounded, err := s.currencies.Round(ctx, comp.CurrencyID, total)
		if err != nil {
			return nil, err
		}
		res[code.ID] = rounded
	}
	return res, nil
}
