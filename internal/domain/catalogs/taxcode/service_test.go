package taxcode

import (
	"context"
	"testing"

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

// fakeRepo keeps the code tree in memory and serves sums from a canned table.
type fakeRepo struct {
	codes map[id.ID]*TaxCode
	sums  map[id.ID]types.Money
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		codes: make(map[id.ID]*TaxCode),
		sums:  make(map[id.ID]types.Money),
	}
}

func (r *fakeRepo) Create(ctx context.Context, code *TaxCode) error {
	r.codes[code.ID] = code
	return nil
}

func (r *fakeRepo) Update(ctx context.Context, code *TaxCode) error {
	r.codes[code.ID] = code
	return nil
}

func (r *fakeRepo) Delete(ctx context.Context, codeID id.ID) error {
	delete(r.codes, codeID)
	return nil
}

func (r *fakeRepo) GetByID(ctx context.Context, codeID id.ID) (*TaxCode, error) {
	c, ok := r.codes[codeID]
	if !ok {
		return nil, apperror.NewNotFound("tax code", codeID)
	}
	return c, nil
}

func (r *fakeRepo) GetByIDs(ctx context.Context, codeIDs []id.ID) ([]*TaxCode, error) {
	res := make([]*TaxCode, 0, len(codeIDs))
	for _, codeID := range codeIDs {
		c, err := r.GetByID(ctx, codeID)
		if err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, nil
}

func (r *fakeRepo) Subtree(ctx context.Context, codeIDs []id.ID) ([]*TaxCode, error) {
	seen := make(map[id.ID]bool)
	var res []*TaxCode
	var walk func(codeID id.ID)
	walk = func(codeID id.ID) {
		if seen[codeID] {
			return
		}
		seen[codeID] = true
		if c, ok := r.codes[codeID]; ok {
			res = append(res, c)
		}
		for _, c := range r.codes {
			if c.ParentID != nil && *c.ParentID == codeID {
				walk(c.ID)
			}
		}
	}
	for _, codeID := range codeIDs {
		walk(codeID)
	}
	return res, nil
}

func (r *fakeRepo) SumTaxLines(ctx context.Context, rs scope.Resolved, codeIDs []id.ID) (map[id.ID]types.Money, error) {
	res := make(map[id.ID]types.Money)
	for _, codeID := range codeIDs {
		if c, ok := r.codes[codeID]; !ok || !c.Active {
			continue
		}
		if sum, ok := r.sums[codeID]; ok {
			res[codeID] = sum
		}
	}
	return res, nil
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

type fakeCurrencies struct{}

func (fakeCurrencies) Round(ctx context.Context, currencyID id.ID, amount types.Money) (types.Money, error) {
	return amount.Round(2), nil
}

type fakeResolver struct{}

func (fakeResolver) ResolveScope(ctx context.Context, companyID id.ID, sc scope.Scope) (scope.Resolved, []*fiscalyear.FiscalYear, error) {
	rs := scope.Resolved{Posted: sc.Posted}
	if sc.HasFiscalYear() {
		rs.FiscalYearIDs = []id.ID{sc.FiscalYearID}
	}
	rs.PeriodIDs = sc.PeriodIDs
	return rs, nil, nil
}

type codeFixture struct {
	svc       *Service
	repo      *fakeRepo
	companyID id.ID
}

func newCodeFixture() *codeFixture {
	companyID := id.New()
	repo := newFakeRepo()
	companies := &fakeCompanies{companies: map[id.ID]*company.Company{
		companyID: {CurrencyID: id.New()},
	}}
	return &codeFixture{
		svc:       NewService(repo, passthroughTxm{}, fakeCurrencies{}, companies, fakeResolver{}),
		repo:      repo,
		companyID: companyID,
	}
}

func (f *codeFixture) addCode(code string, parent *TaxCode, sum string) *TaxCode {
	c := NewTaxCode(code, code, f.companyID)
	if parent != nil {
		c.SetParent(parent.ID)
	}
	f.repo.codes[c.ID] = c
	if sum != "" {
		f.repo.sums[c.ID] = types.MustMoney(sum)
	}
	return c
}

func TestGetSumAggregatesDescendants(t *testing.T) {
	f := newCodeFixture()

	root := f.addCode("OUT", nil, "")
	base := f.addCode("OUT.BASE", root, "1000.004")
	f.addCode("OUT.TAX", root, "200.004")

	res, err := f.svc.GetSum(context.Background(), scope.Scope{}, []id.ID{root.ID, base.ID})
	require.NoError(t, err)

	// Children round before the total does: 1000.00 + 200.00, not 1200.01.
	assert.True(t, res[root.ID].Equal(types.MustMoney("1200")), "root %s", res[root.ID])
	assert.True(t, res[base.ID].Equal(types.MustMoney("1000")), "base %s", res[base.ID])
}

func TestGetSumSkipsInactiveCodes(t *testing.T) {
	f := newCodeFixture()

	root := f.addCode("OUT", nil, "")
	live := f.addCode("OUT.A", root, "100")
	dead := f.addCode("OUT.B", root, "50")
	dead.Active = false
	_ = live

	res, err := f.svc.GetSum(context.Background(), scope.Scope{}, []id.ID{root.ID})
	require.NoError(t, err)
	assert.True(t, res[root.ID].Equal(types.MustMoney("100")), "root %s", res[root.ID])
}

func TestGetSumZeroForEmptySubtree(t *testing.T) {
	f := newCodeFixture()
	root := f.addCode("OUT", nil, "")

	res, err := f.svc.GetSum(context.Background(), scope.Scope{}, []id.ID{root.ID})
	require.NoError(t, err)
	assert.True(t, res[root.ID].IsZero())
}

func TestCreateRejectsCrossCompanyParent(t *testing.T) {
	f := newCodeFixture()
	parent := f.addCode("OUT", nil, "")

	child := NewTaxCode("OTHER", "Other", id.New())
	child.SetParent(parent.ID)
	err := f.svc.Create(context.Background(), child)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation), "got %v", err)
}

func TestUpdateRejectsParentCycle(t *testing.T) {
	f := newCodeFixture()
	root := f.addCode("OUT", nil, "")
	child := f.addCode("OUT.A", root, "")

	root.SetParent(child.ID)
	err := f.svc.Update(context.Background(), root)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation), "got %v", err)
}
