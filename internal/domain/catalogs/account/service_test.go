package account

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookkeeper/internal/core/apperror"
	"bookkeeper/internal/core/id"
	"bookkeeper/internal/core/types"
	"bookkeeper/internal/domain/catalogs/company"
	"bookkeeper/internal/domain/catalogs/fiscalyear"
	"bookkeeper/internal/domain/scope"
)

type passthroughTxm struct{}

func (passthroughTxm) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// fakeRepo keeps accounts in memory and serves line sums from canned
// per-fiscal-year tables.
type fakeRepo struct {
	accounts map[id.ID]*Account
	hasLines map[id.ID]bool

	// balances[fiscalYearID][accountID] = debit - credit
	balances map[id.ID]map[id.ID]types.Money
	// creditDebits[fiscalYearID][accountID]
	creditDebits map[id.ID]map[id.ID]CreditDebit
	// deferrals[fiscalYearID][accountID]
	deferrals map[id.ID]map[id.ID]*Deferral

	rebuilds int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		accounts:     make(map[id.ID]*Account),
		hasLines:     make(map[id.ID]bool),
		balances:     make(map[id.ID]map[id.ID]types.Money),
		creditDebits: make(map[id.ID]map[id.ID]CreditDebit),
		deferrals:    make(map[id.ID]map[id.ID]*Deferral),
	}
}

func (r *fakeRepo) Create(ctx context.Context, acc *Account) error {
	r.accounts[acc.ID] = acc
	return nil
}

func (r *fakeRepo) Update(ctx context.Context, acc *Account) error {
	r.accounts[acc.ID] = acc
	return nil
}

func (r *fakeRepo) Delete(ctx context.Context, accountID id.ID) error {
	delete(r.accounts, accountID)
	return nil
}

func (r *fakeRepo) GetByID(ctx context.Context, accountID id.ID) (*Account, error) {
	acc, ok := r.accounts[accountID]
	if !ok {
		return nil, apperror.NewNotFound("account", accountID)
	}
	return acc, nil
}

func (r *fakeRepo) GetByIDs(ctx context.Context, accountIDs []id.ID) ([]*Account, error) {
	res := make([]*Account, 0, len(accountIDs))
	for _, accountID := range accountIDs {
		acc, err := r.GetByID(ctx, accountID)
		if err != nil {
			return nil, err
		}
		res = append(res, acc)
	}
	return res, nil
}

func (r *fakeRepo) FindByCode(ctx context.Context, companyID id.ID, code string) (*Account, error) {
	for _, acc := range r.accounts {
		if acc.CompanyID == companyID && acc.Code == code {
			return acc, nil
		}
	}
	return nil, apperror.NewNotFound("account", code)
}

func (r *fakeRepo) Subtree(ctx context.Context, accountIDs []id.ID) ([]*Account, error) {
	roots, err := r.GetByIDs(ctx, accountIDs)
	if err != nil {
		return nil, err
	}
	var res []*Account
	seen := make(map[id.ID]bool)
	for _, root := range roots {
		for _, acc := range r.accounts {
			if root.Covers(acc) && !seen[acc.ID] {
				seen[acc.ID] = true
				res = append(res, acc)
			}
		}
	}
	return res, nil
}

func (r *fakeRepo) RebuildTree(ctx context.Context, companyID id.ID) error {
	r.rebuilds++
	return nil
}

func (r *fakeRepo) HasLines(ctx context.Context, accountID id.ID) (bool, error) {
	return r.hasLines[accountID], nil
}

func (r *fakeRepo) SumBalances(ctx context.Context, rs scope.Resolved, accountIDs []id.ID) (map[id.ID]types.Money, error) {
	res := make(map[id.ID]types.Money)
	for _, fyID := range rs.FiscalYearIDs {
		for _, accountID := range accountIDs {
			acc := r.accounts[accountID]
			if acc == nil || acc.IsView() || !acc.Active {
				continue
			}
			if sum, ok := r.balances[fyID][accountID]; ok {
				res[accountID] = res[accountID].Add(sum)
			}
		}
	}
	return res, nil
}

func (r *fakeRepo) SumCreditDebit(ctx context.Context, rs scope.Resolved, accountIDs []id.ID) (map[id.ID]CreditDebit, error) {
	res := make(map[id.ID]CreditDebit)
	for _, fyID := range rs.FiscalYearIDs {
		for _, accountID := range accountIDs {
			if cd, ok := r.creditDebits[fyID][accountID]; ok {
				cur := res[accountID]
				cur.Credit = cur.Credit.Add(cd.Credit)
				cur.Debit = cur.Debit.Add(cd.Debit)
				res[accountID] = cur
			}
		}
	}
	return res, nil
}

func (r *fakeRepo) ListDeferralAccounts(ctx context.Context, companyID id.ID) ([]*Account, error) {
	var res []*Account
	for _, acc := range r.accounts {
		if acc.CompanyID == companyID && acc.Deferral && acc.Active {
			res = append(res, acc)
		}
	}
	return res, nil
}

func (r *fakeRepo) CreateType(ctx context.Context, t *Type) error { return nil }

func (r *fakeRepo) GetType(ctx context.Context, typeID id.ID) (*Type, error) {
	return nil, apperror.NewNotFound("account type", typeID)
}

func (r *fakeRepo) CreateDeferral(ctx context.Context, d *Deferral) error {
	if r.deferrals[d.FiscalYearID] == nil {
		r.deferrals[d.FiscalYearID] = make(map[id.ID]*Deferral)
	}
	r.deferrals[d.FiscalYearID][d.AccountID] = d
	return nil
}

func (r *fakeRepo) DeleteDeferrals(ctx context.Context, fiscalYearID id.ID) error {
	delete(r.deferrals, fiscalYearID)
	return nil
}

func (r *fakeRepo) GetDeferrals(ctx context.Context, fiscalYearID id.ID, accountIDs []id.ID) (map[id.ID]*Deferral, error) {
	res := make(map[id.ID]*Deferral)
	for _, accountID := range accountIDs {
		if d, ok := r.deferrals[fiscalYearID][accountID]; ok {
			res[accountID] = d
		}
	}
	return res, nil
}

// fakeCurrencies converts one-to-one and rounds to two decimal places.
type fakeCurrencies struct{}

func (fakeCurrencies) Round(ctx context.Context, currencyID id.ID, amount types.Money) (types.Money, error) {
	return amount.Round(2), nil
}

func (fakeCurrencies) Convert(ctx context.Context, fromID, toID id.ID, amount types.Money, date time.Time, round bool) (types.Money, error) {
	return amount, nil
}

type fakeCompanies struct {
	companies map[id.ID]*company.Company
}

func (f *fakeCompanies) GetByID(ctx context.Context, companyID id.ID) (*company.Company, error) {
	c, ok := f.companies[companyID]
	if !ok {
		return nil, apperror.NewNotFound("company", companyID)
	}
	return c, nil
}

// fakeFiscalYears resolves scopes against an in-memory year list.
type fakeFiscalYears struct {
	years map[id.ID]*fiscalyear.FiscalYear
}

func (f *fakeFiscalYears) GetByID(ctx context.Context, fiscalYearID id.ID) (*fiscalyear.FiscalYear, error) {
	fy, ok := f.years[fiscalYearID]
	if !ok {
		return nil, apperror.NewNotFound("fiscal year", fiscalYearID)
	}
	return fy, nil
}

func (f *fakeFiscalYears) ResolveScope(ctx context.Context, companyID id.ID, sc scope.Scope) (scope.Resolved, []*fiscalyear.FiscalYear, error) {
	rs := scope.Resolved{Posted: sc.Posted}
	if sc.HasFiscalYear() {
		fy, err := f.GetByID(ctx, sc.FiscalYearID)
		if err != nil {
			return rs, nil, err
		}
		rs.FiscalYearIDs = []id.ID{fy.ID}
		return rs, []*fiscalyear.FiscalYear{fy}, nil
	}
	var open []*fiscalyear.FiscalYear
	for _, fy := range f.years {
		if fy.CompanyID == companyID && fy.IsOpen() {
			open = append(open, fy)
			rs.FiscalYearIDs = append(rs.FiscalYearIDs, fy.ID)
		}
	}
	return rs, open, nil
}

func (f *fakeFiscalYears) FindPrevious(ctx context.Context, companyID id.ID, before time.Time) (*fiscalyear.FiscalYear, error) {
	var prior *fiscalyear.FiscalYear
	for _, fy := range f.years {
		if fy.CompanyID != companyID || !fy.EndDate.Before(before) {
			continue
		}
		if prior == nil || fy.EndDate.After(prior.EndDate) {
			prior = fy
		}
	}
	return prior, nil
}

// --- Fixture ---

type accountFixture struct {
	svc  *Service
	repo *fakeRepo
	fys  *fakeFiscalYears

	companyID id.ID
	typeID    id.ID
}

func newAccountFixture() *accountFixture {
	companyID := id.New()
	currencyID := id.New()
	repo := newFakeRepo()
	fys := &fakeFiscalYears{years: make(map[id.ID]*fiscalyear.FiscalYear)}
	companies := &fakeCompanies{companies: map[id.ID]*company.Company{
		companyID: {CurrencyID: currencyID},
	}}
	return &accountFixture{
		svc:       NewService(repo, passthroughTxm{}, fakeCurrencies{}, companies, fys),
		repo:      repo,
		fys:       fys,
		companyID: companyID,
		typeID:    id.New(),
	}
}

func (f *accountFixture) addYear(code string, y int, state fiscalyear.State) *fiscalyear.FiscalYear {
	fy := fiscalyear.NewFiscalYear(code, code, f.companyID,
		time.Date(y, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(y, 12, 31, 0, 0, 0, 0, time.UTC))
	fy.State = state
	f.fys.years[fy.ID] = fy
	return fy
}

func (f *accountFixture) addAccount(code string, kind Kind, left, right int) *Account {
	acc := NewAccount(code, code, kind, f.companyID)
	if kind != KindView {
		acc.TypeID = &f.typeID
	}
	acc.Left, acc.Right = left, right
	f.repo.accounts[acc.ID] = acc
	return acc
}

func (f *accountFixture) setBalance(fy *fiscalyear.FiscalYear, acc *Account, sum string) {
	if f.repo.balances[fy.ID] == nil {
		f.repo.balances[fy.ID] = make(map[id.ID]types.Money)
	}
	f.repo.balances[fy.ID][acc.ID] = types.MustMoney(sum)
}

func TestGetBalanceAggregatesSubtree(t *testing.T) {
	f := newAccountFixture()
	fy := f.addYear("FY2026", 2026, fiscalyear.StateOpen)

	root := f.addAccount("1", KindView, 1, 6)
	leafA := f.addAccount("1.1", KindOther, 2, 3)
	leafB := f.addAccount("1.2", KindOther, 4, 5)
	f.setBalance(fy, leafA, "100.5")
	f.setBalance(fy, leafB, "49.5")

	res, err := f.svc.GetBalance(context.Background(), scope.ForFiscalYear(fy.ID), []id.ID{root.ID})
	require.NoError(t, err)
	assert.True(t, res[root.ID].Equal(types.MustMoney("150")), "balance %s", res[root.ID])
}

func TestGetBalanceSkipsInactiveChildren(t *testing.T) {
	f := newAccountFixture()
	fy := f.addYear("FY2026", 2026, fiscalyear.StateOpen)

	root := f.addAccount("1", KindView, 1, 4)
	leaf := f.addAccount("1.1", KindOther, 2, 3)
	leaf.Active = false
	f.setBalance(fy, leaf, "100")

	res, err := f.svc.GetBalance(context.Background(), scope.ForFiscalYear(fy.ID), []id.ID{root.ID})
	require.NoError(t, err)
	assert.True(t, res[root.ID].IsZero(), "balance %s", res[root.ID])
}

func TestGetBalanceAddsClosedPriorYearDeferral(t *testing.T) {
	f := newAccountFixture()
	prior := f.addYear("FY2025", 2025, fiscalyear.StateClose)
	current := f.addYear("FY2026", 2026, fiscalyear.StateOpen)

	leaf := f.addAccount("1.1", KindOther, 1, 2)
	leaf.Deferral = true
	f.setBalance(current, leaf, "100")
	require.NoError(t, f.repo.CreateDeferral(context.Background(), &Deferral{
		ID:           id.New(),
		AccountID:    leaf.ID,
		FiscalYearID: prior.ID,
		Debit:        types.MustMoney("40"),
		Credit:       types.MustMoney("10"),
	}))

	res, err := f.svc.GetBalance(context.Background(), scope.ForFiscalYear(current.ID), []id.ID{leaf.ID})
	require.NoError(t, err)
	assert.True(t, res[leaf.ID].Equal(types.MustMoney("130")), "balance %s", res[leaf.ID])
}

func TestGetBalanceRecursesOpenPriorYear(t *testing.T) {
	f := newAccountFixture()
	older := f.addYear("FY2024", 2024, fiscalyear.StateOpen)
	prior := f.addYear("FY2025", 2025, fiscalyear.StateOpen)

	leaf := f.addAccount("1.1", KindOther, 1, 2)
	f.setBalance(older, leaf, "20")
	f.setBalance(prior, leaf, "50")

	res, err := f.svc.GetBalance(context.Background(), scope.ForFiscalYear(prior.ID), []id.ID{leaf.ID})
	require.NoError(t, err)
	assert.True(t, res[leaf.ID].Equal(types.MustMoney("70")), "balance %s", res[leaf.ID])
}

func TestGetCreditDebitSeparatesSides(t *testing.T) {
	f := newAccountFixture()
	prior := f.addYear("FY2025", 2025, fiscalyear.StateClose)
	current := f.addYear("FY2026", 2026, fiscalyear.StateOpen)

	leaf := f.addAccount("1.1", KindOther, 1, 2)
	f.repo.creditDebits[current.ID] = map[id.ID]CreditDebit{
		leaf.ID: {Credit: types.MustMoney("30"), Debit: types.MustMoney("80")},
	}
	require.NoError(t, f.repo.CreateDeferral(context.Background(), &Deferral{
		ID:           id.New(),
		AccountID:    leaf.ID,
		FiscalYearID: prior.ID,
		Debit:        types.MustMoney("5"),
		Credit:       types.MustMoney("15"),
	}))

	res, err := f.svc.GetCreditDebit(context.Background(), scope.ForFiscalYear(current.ID), []id.ID{leaf.ID})
	require.NoError(t, err)
	cd := res[leaf.ID]
	assert.True(t, cd.Debit.Equal(types.MustMoney("85")), "debit %s", cd.Debit)
	assert.True(t, cd.Credit.Equal(types.MustMoney("45")), "credit %s", cd.Credit)
}

func TestCreateDeferralsSnapshotsOnce(t *testing.T) {
	f := newAccountFixture()
	fy := f.addYear("FY2026", 2026, fiscalyear.StateOpen)

	leaf := f.addAccount("1.1", KindOther, 1, 2)
	leaf.Deferral = true
	f.repo.creditDebits[fy.ID] = map[id.ID]CreditDebit{
		leaf.ID: {Credit: types.MustMoney("10"), Debit: types.MustMoney("60")},
	}

	ctx := context.Background()
	require.NoError(t, f.svc.CreateDeferrals(ctx, fy.ID))

	d := f.repo.deferrals[fy.ID][leaf.ID]
	require.NotNil(t, d)
	assert.True(t, d.Balance().Equal(types.MustMoney("50")), "balance %s", d.Balance())

	err := f.svc.CreateDeferrals(ctx, fy.ID)
	assert.True(t, apperror.IsCode(err, apperror.CodeDeferralImmutable), "got %v", err)
}

func TestUpdateDeferralAlwaysFails(t *testing.T) {
	f := newAccountFixture()
	err := f.svc.UpdateDeferral(context.Background(), &Deferral{
		AccountID:    id.New(),
		FiscalYearID: id.New(),
	})
	assert.True(t, apperror.IsCode(err, apperror.CodeDeferralImmutable), "got %v", err)
}

func TestUpdateRejectsParentCycle(t *testing.T) {
	f := newAccountFixture()

	root := f.addAccount("1", KindView, 1, 4)
	child := f.addAccount("1.1", KindOther, 2, 3)
	child.SetParent(root.ID)

	root.SetParent(child.ID)
	err := f.svc.Update(context.Background(), root)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation), "got %v", err)
}

func TestDeleteRejectsAccountWithLines(t *testing.T) {
	f := newAccountFixture()

	leaf := f.addAccount("1.1", KindOther, 1, 2)
	f.repo.hasLines[leaf.ID] = true

	err := f.svc.Delete(context.Background(), leaf.ID)
	assert.True(t, apperror.IsCode(err, apperror.CodeBusinessRule), "got %v", err)

	f.repo.hasLines[leaf.ID] = false
	require.NoError(t, f.svc.Delete(context.Background(), leaf.ID))
	assert.NotContains(t, f.repo.accounts, leaf.ID)
}

func TestCreateRebuildsTree(t *testing.T) {
	f := newAccountFixture()

	acc := NewAccount("1000", "Cash", KindOther, f.companyID)
	acc.TypeID = &f.typeID
	require.NoError(t, f.svc.Create(context.Background(), acc))
	assert.Equal(t, 1, f.repo.rebuilds)
}
