package account

import (
	"context"
	"time"

	"bookkeeper/internal/core/apperror"
	"bookkeeper/internal/core/id"
	"bookkeeper/internal/core/tx"
	"bookkeeper/internal/core/types"
	"bookkeeper/internal/domain/catalogs/company"
	"bookkeeper/internal/domain/catalogs/fiscalyear"
	"bookkeeper/internal/domain/scope"
	"bookkeeper/pkg/logger"
)

// CurrencyService is the currency arithmetic the account service needs.
type CurrencyService interface {
	Round(ctx context.Context, currencyID id.ID, amount types.Money) (types.Money, error)
	Convert(ctx context.Context, fromID, toID id.ID, amount types.Money, date time.Time, round bool) (types.Money, error)
}

// CompanyService resolves companies and their currencies.
type CompanyService interface {
	GetByID(ctx context.Context, companyID id.ID) (*company.Company, error)
}

// FiscalYearService resolves reporting scopes and the fiscal year chain.
type FiscalYearService interface {
	GetByID(ctx context.Context, fiscalYearID id.ID) (*fiscalyear.FiscalYear, error)
	ResolveScope(ctx context.Context, companyID id.ID, sc scope.Scope) (scope.Resolved, []*fiscalyear.FiscalYear, error)
	FindPrevious(ctx context.Context, companyID id.ID, before time.Time) (*fiscalyear.FiscalYear, error)
}

// Service provides business logic for the chart of accounts, including the
// subtree balance aggregator and the fiscal-year deferral chain.
type Service struct {
	repo        Repository
	txm         tx.Manager
	currencies  CurrencyService
	companies   CompanyService
	fiscalYears FiscalYearService
}

// NewService creates a new account service.
func NewService(repo Repository, txm tx.Manager, currencies CurrencyService, companies CompanyService, fiscalYears FiscalYearService) *Service {
	return &Service{
		repo:        repo,
		txm:         txm,
		currencies:  currencies,
		companies:   companies,
		fiscalYears: fiscalYears,
	}
}

// Create validates and stores a new account, then rebuilds the nested-set
// bounds of the company forest.
func (s *Service) Create(ctx context.Context, acc *Account) error {
	if err := acc.Validate(ctx); err != nil {
		return err
	}
	if acc.ParentID != nil {
		parent, err := s.repo.GetByID(ctx, *acc.ParentID)
		if err != nil {
			return err
		}
		if parent.CompanyID != acc.CompanyID {
			return apperror.NewValidation("parent account belongs to another company").
				WithDetail("parent", parent.Code)
		}
	}
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, acc); err != nil {
			return err
		}
		if err := s.repo.RebuildTree(ctx, acc.CompanyID); err != nil {
			return err
		}
		logger.Info(ctx, "account created", "account_id", acc.ID, "code", acc.Code)
		return nil
	})
}

// Update validates and stores account changes, rejecting parent cycles.
func (s *Service) Update(ctx context.Context, acc *Account) error {
	if err := acc.Validate(ctx); err != nil {
		return err
	}
	if acc.ParentID != nil {
		subtree, err := s.repo.Subtree(ctx, []id.ID{acc.ID})
		if err != nil {
			return err
		}
		for _, node := range subtree {
			if node.ID == *acc.ParentID {
				return apperror.NewValidation("account cannot be moved under its own subtree").
					WithDetail("account", acc.Code)
			}
		}
	}
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, acc); err != nil {
			return err
		}
		return s.repo.RebuildTree(ctx, acc.CompanyID)
	})
}

// Delete removes an account that carries no move lines.
func (s *Service) Delete(ctx context.Context, accountID id.ID) error {
	acc, err := s.repo.GetByID(ctx, accountID)
	if err != nil {
		return err
	}
	hasLines, err := s.repo.HasLines(ctx, accountID)
	if err != nil {
		return err
	}
	if hasLines {
		return apperror.NewBusinessRule(apperror.CodeBusinessRule,
			"account with move lines cannot be deleted").
			WithDetail("account", acc.Code)
	}
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Delete(ctx, accountID); err != nil {
			return err
		}
		return s.repo.RebuildTree(ctx, acc.CompanyID)
	})
}

// GetByID retrieves an account.
func (s *Service) GetByID(ctx context.Context, accountID id.ID) (*Account, error) {
	return s.repo.GetByID(ctx, accountID)
}

// GetBalance computes debit minus credit per requested account over its whole
// nested-set subtree, in the currency of the account's company.
//
// When the scope spans fiscal years, the balance of the most recent prior
// fiscal year is chained in: a closed year contributes its deferral snapshot,
// an open year contributes recursively.
func (s *Service) GetBalance(ctx context.Context, sc scope.Scope, accountIDs []id.ID) (map[id.ID]types.Money, error) {
	res := make(map[id.ID]types.Money, len(accountIDs))
	accounts, err := s.repo.GetByIDs(ctx, accountIDs)
	if err != nil {
		return nil, err
	}
	children, err := s.repo.Subtree(ctx, accountIDs)
	if err != nil {
		return nil, err
	}

	for companyID, roots := range groupByCompany(accounts) {
		rs, years, err := s.fiscalYears.ResolveScope(ctx, companyID, sc)
		if err != nil {
			return nil, err
		}

		childIDs := make([]id.ID, 0, len(children))
		for _, c := range children {
			childIDs = append(childIDs, c.ID)
		}
		sums, err := s.repo.SumBalances(ctx, rs, childIDs)
		if err != nil {
			return nil, err
		}

		convDate := time.Now().UTC()
		if sc.HasDate() {
			convDate = *sc.Date
		}

		for _, root := range roots {
			toCompany, err := s.company(ctx, root.CompanyID)
			if err != nil {
				return nil, err
			}
			total := types.Zero()
			for _, child := range children {
				if !root.Covers(child) {
					continue
				}
				sum, ok := sums[child.ID]
				if !ok {
					continue
				}
				fromCompany, err := s.company(ctx, child.CompanyID)
				if err != nil {
					return nil, err
				}
				conv, err := s.currencies.Convert(ctx, fromCompany.CurrencyID, toCompany.CurrencyID, sum, convDate, true)
				if err != nil {
					return nil, err
				}
				total = total.Add(conv)
			}
			res[root.ID] = total
		}

		deferred, err := s.chainPriorYear(ctx, sc, years, companyID, idsOf(roots), s.GetBalance)
		if err != nil {
			return nil, err
		}
		for accID, amount := range deferred {
			res[accID] = res[accID].Add(amount)
		}

		for _, root := range roots {
			toCompany, err := s.company(ctx, root.CompanyID)
			if err != nil {
				return nil, err
			}
			rounded, err := s.currencies.Round(ctx, toCompany.CurrencyID, res[root.ID])
			if err != nil {
				return nil, err
			}
			res[root.ID] = rounded
		}
	}
	return res, nil
}

// GetCreditDebit computes per-account credit and debit sums without subtree
// aggregation, with the same fiscal-year chaining as GetBalance.
func (s *Service) GetCreditDebit(ctx context.Context, sc scope.Scope, accountIDs []id.ID) (map[id.ID]CreditDebit, error) {
	res := make(map[id.ID]CreditDebit, len(accountIDs))
	accounts, err := s.repo.GetByIDs(ctx, accountIDs)
	if err != nil {
		return nil, err
	}

	for companyID, accs := range groupByCompany(accounts) {
		rs, years, err := s.fiscalYears.ResolveScope(ctx, companyID, sc)
		if err != nil {
			return nil, err
		}
		sums, err := s.repo.SumCreditDebit(ctx, rs, idsOf(accs))
		if err != nil {
			return nil, err
		}
		for _, acc := range accs {
			res[acc.ID] = sums[acc.ID]
		}

		if prior := s.priorYear(ctx, years, companyID); prior != nil {
			if prior.IsOpen() {
				sub, err := s.GetCreditDebit(ctx, priorScope(sc, prior.ID), idsOf(accs))
				if err != nil {
					return nil, err
				}
				for accID, cd := range sub {
					cur := res[accID]
					cur.Credit = cur.Credit.Add(cd.Credit)
					cur.Debit = cur.Debit.Add(cd.Debit)
					res[accID] = cur
				}
			} else {
				defs, err := s.repo.GetDeferrals(ctx, prior.ID, idsOf(accs))
				if err != nil {
					return nil, err
				}
				for accID, d := range defs {
					cur := res[accID]
					cur.Credit = cur.Credit.Add(d.Credit)
					cur.Debit = cur.Debit.Add(d.Debit)
					res[accID] = cur
				}
			}
		}

		for _, acc := range accs {
			comp, err := s.company(ctx, acc.CompanyID)
			if err != nil {
				return nil, err
			}
			cur := res[acc.ID]
			if cur.Credit, err = s.currencies.Round(ctx, comp.CurrencyID, cur.Credit); err != nil {
				return nil, err
			}
			if cur.Debit, err = s.currencies.Round(ctx, comp.CurrencyID, cur.Debit); err != nil {
				return nil, err
			}
			res[acc.ID] = cur
		}
	}
	return res, nil
}

// CreateDeferrals snapshots the credit/debit of every deferral-flagged account
// of the fiscal year's company. Called as part of closing the year.
func (s *Service) CreateDeferrals(ctx context.Context, fiscalYearID id.ID) error {
	fy, err := s.fiscalYears.GetByID(ctx, fiscalYearID)
	if err != nil {
		return err
	}
	accounts, err := s.repo.ListDeferralAccounts(ctx, fy.CompanyID)
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		return nil
	}
	sums, err := s.GetCreditDebit(ctx, scope.ForFiscalYear(fy.ID), idsOf(accounts))
	if err != nil {
		return err
	}
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.repo.GetDeferrals(ctx, fy.ID, idsOf(accounts))
		if err != nil {
			return err
		}
		for _, acc := range accounts {
			if _, ok := existing[acc.ID]; ok {
				return apperror.NewDeferralImmutable(acc.ID, fy.ID)
			}
			cd := sums[acc.ID]
			d := &Deferral{
				ID:           id.New(),
				AccountID:    acc.ID,
				FiscalYearID: fy.ID,
				Debit:        cd.Debit,
				Credit:       cd.Credit,
			}
			if err := s.repo.CreateDeferral(ctx, d); err != nil {
				return err
			}
		}
		logger.Info(ctx, "deferral snapshots created",
			"fiscalyear_id", fy.ID, "accounts", len(accounts))
		return nil
	})
}

// DeleteDeferrals drops the snapshots of a fiscal year when it is reopened.
func (s *Service) DeleteDeferrals(ctx context.Context, fiscalYearID id.ID) error {
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.DeleteDeferrals(ctx, fiscalYearID)
	})
}

// UpdateDeferral always fails: snapshots are immutable once created.
func (s *Service) UpdateDeferral(ctx context.Context, d *Deferral) error {
	return apperror.NewDeferralImmutable(d.AccountID, d.FiscalYearID)
}

// --- helpers ---

// priorYear finds the fiscal year preceding the oldest year of the scope.
func (s *Service) priorYear(ctx context.Context, years []*fiscalyear.FiscalYear, companyID id.ID) *fiscalyear.FiscalYear {
	var youngest *fiscalyear.FiscalYear
	for _, fy := range years {
		if youngest == nil || fy.StartDate.Before(youngest.StartDate) {
			youngest = fy
		}
	}
	if youngest == nil {
		return nil
	}
	prior, err := s.fiscalYears.FindPrevious(ctx, companyID, youngest.StartDate)
	if err != nil {
		return nil
	}
	return prior
}

// chainPriorYear adds the prior-year contribution: the deferral snapshot of a
// closed year, or a recursive computation over an open one.
func (s *Service) chainPriorYear(
	ctx context.Context,
	sc scope.Scope,
	years []*fiscalyear.FiscalYear,
	companyID id.ID,
	accountIDs []id.ID,
	recurse func(context.Context, scope.Scope, []id.ID) (map[id.ID]types.Money, error),
) (map[id.ID]types.Money, error) {
	prior := s.priorYear(ctx, years, companyID)
	if prior == nil {
		return nil, nil
	}
	if prior.IsOpen() {
		return recurse(ctx, priorScope(sc, prior.ID), accountIDs)
	}
	defs, err := s.repo.GetDeferrals(ctx, prior.ID, accountIDs)
	if err != nil {
		return nil, err
	}
	res := make(map[id.ID]types.Money, len(defs))
	for accID, d := range defs {
		res[accID] = d.Balance()
	}
	return res, nil
}

// priorScope moves the scope to the prior fiscal year, dropping any date
// bound but keeping the posted restriction.
func priorScope(sc scope.Scope, fiscalYearID id.ID) scope.Scope {
	return scope.Scope{FiscalYearID: fiscalYearID, Posted: sc.Posted}
}

func (s *Service) company(ctx context.Context, companyID id.ID) (*company.Company, error) {
	return s.companies.GetByID(ctx, companyID)
}

func groupByCompany(accounts []*Account) map[id.ID][]*Account {
	res := make(map[id.ID][]*Account)
	for _, acc := range accounts {
		res[acc.CompanyID] = append(res[acc.CompanyID], acc)
	}
	return res
}

func idsOf(accounts []*Account) []id.ID {
	res := make([]id.ID, 0, len(accounts))
	for _, acc := range accounts {
		res = append(res, acc.ID)
	}
	return res
}
