package fiscalyear

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookkeeper/internal/core/apperror"
	"bookkeeper/internal/core/id"
	"bookkeeper/internal/domain/scope"
)

type passthroughTxm struct{}

func (passthroughTxm) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeRepo struct {
	years   map[id.ID]*FiscalYear
	periods map[id.ID]*Period
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		years:   make(map[id.ID]*FiscalYear),
		periods: make(map[id.ID]*Period),
	}
}

func (r *fakeRepo) Create(ctx context.Context, fy *FiscalYear) error {
	r.years[fy.ID] = fy
	return nil
}

func (r *fakeRepo) Update(ctx context.Context, fy *FiscalYear) error {
	r.years[fy.ID] = fy
	return nil
}

func (r *fakeRepo) GetByID(ctx context.Context, fiscalYearID id.ID) (*FiscalYear, error) {
	fy, ok := r.years[fiscalYearID]
	if !ok {
		return nil, apperror.NewNotFound("fiscal year", fiscalYearID)
	}
	return fy, nil
}

func (r *fakeRepo) FindByDate(ctx context.Context, companyID id.ID, date time.Time) (*FiscalYear, error) {
	for _, fy := range r.years {
		if fy.CompanyID == companyID && fy.Contains(date) {
			return fy, nil
		}
	}
	return nil, apperror.NewNotFound("fiscal year", date)
}

func (r *fakeRepo) FindPrevious(ctx context.Context, companyID id.ID, before time.Time) (*FiscalYear, error) {
	var prior *FiscalYear
	for _, fy := range r.years {
		if fy.CompanyID != companyID || !fy.EndDate.Before(before) {
			continue
		}
		if prior == nil || fy.EndDate.After(prior.EndDate) {
			prior = fy
		}
	}
	if prior == nil {
		return nil, apperror.NewNotFound("fiscal year", before)
	}
	return prior, nil
}

func (r *fakeRepo) ListOpen(ctx context.Context, companyID id.ID) ([]*FiscalYear, error) {
	var res []*FiscalYear
	for _, fy := range r.years {
		if fy.CompanyID == companyID && fy.IsOpen() {
			res = append(res, fy)
		}
	}
	return res, nil
}

func (r *fakeRepo) Overlapping(ctx context.Context, companyID id.ID, start, end time.Time) ([]*FiscalYear, error) {
	var res []*FiscalYear
	for _, fy := range r.years {
		if fy.CompanyID != companyID {
			continue
		}
		if !fy.EndDate.Before(start) && !fy.StartDate.After(end) {
			res = append(res, fy)
		}
	}
	return res, nil
}

func (r *fakeRepo) CreatePeriod(ctx context.Context, p *Period) error {
	r.periods[p.ID] = p
	return nil
}

func (r *fakeRepo) UpdatePeriod(ctx context.Context, p *Period) error {
	r.periods[p.ID] = p
	return nil
}

func (r *fakeRepo) GetPeriod(ctx context.Context, periodID id.ID) (*Period, error) {
	p, ok := r.periods[periodID]
	if !ok {
		return nil, apperror.NewNotFound("period", periodID)
	}
	return p, nil
}

func (r *fakeRepo) FindPeriod(ctx context.Context, companyID id.ID, date time.Time) (*Period, error) {
	for _, p := range r.periods {
		fy := r.years[p.FiscalYearID]
		if fy != nil && fy.CompanyID == companyID && p.Contains(date) {
			return p, nil
		}
	}
	return nil, apperror.NewNotFound("period", date)
}

func (r *fakeRepo) ListPeriods(ctx context.Context, fiscalYearID id.ID) ([]*Period, error) {
	var res []*Period
	for _, p := range r.periods {
		if p.FiscalYearID == fiscalYearID {
			res = append(res, p)
		}
	}
	return res, nil
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newYearFixture() (*Service, *fakeRepo, id.ID) {
	repo := newFakeRepo()
	return NewService(repo, passthroughTxm{}), repo, id.New()
}

func TestCreateRejectsOverlap(t *testing.T) {
	svc, _, companyID := newYearFixture()
	ctx := context.Background()

	first := NewFiscalYear("FY2026", "2026", companyID, day(2026, 1, 1), day(2026, 12, 31))
	require.NoError(t, svc.Create(ctx, first))

	// Shifted year intersecting the first.
	second := NewFiscalYear("FY2026B", "2026b", companyID, day(2026, 7, 1), day(2027, 6, 30))
	err := svc.Create(ctx, second)
	assert.True(t, apperror.IsCode(err, apperror.CodeConflict), "got %v", err)

	next := NewFiscalYear("FY2027", "2027", companyID, day(2027, 1, 1), day(2027, 12, 31))
	require.NoError(t, svc.Create(ctx, next))
}

func TestCreateMonthlyPeriods(t *testing.T) {
	svc, _, companyID := newYearFixture()
	ctx := context.Background()

	fy := NewFiscalYear("FY2026", "2026", companyID, day(2026, 1, 1), day(2026, 12, 31))
	require.NoError(t, svc.Create(ctx, fy))

	periods, err := svc.CreateMonthlyPeriods(ctx, fy.ID)
	require.NoError(t, err)
	require.Len(t, periods, 12)

	assert.Equal(t, "FY2026-01", periods[0].Code)
	assert.Equal(t, day(2026, 1, 1), periods[0].StartDate)
	assert.Equal(t, day(2026, 1, 31), periods[0].EndDate)
	assert.Equal(t, day(2026, 2, 1), periods[1].StartDate)
	assert.Equal(t, day(2026, 2, 28), periods[1].EndDate)
	assert.Equal(t, day(2026, 12, 31), periods[11].EndDate)
	for _, p := range periods {
		assert.True(t, p.IsOpen())
	}
}

func TestResolveScopeByDate(t *testing.T) {
	svc, repo, companyID := newYearFixture()
	ctx := context.Background()

	fy := NewFiscalYear("FY2026", "2026", companyID, day(2026, 1, 1), day(2026, 12, 31))
	repo.years[fy.ID] = fy

	at := day(2026, 5, 10)
	rs, years, err := svc.ResolveScope(ctx, companyID, scope.AtDate(at))
	require.NoError(t, err)
	require.Len(t, years, 1)
	assert.Equal(t, []id.ID{fy.ID}, rs.FiscalYearIDs)
	require.NotNil(t, rs.Date)
	assert.True(t, rs.Date.Equal(at))

	// A date outside any fiscal year resolves to an empty scope.
	rs, years, err = svc.ResolveScope(ctx, companyID, scope.AtDate(day(2020, 1, 1)))
	require.NoError(t, err)
	assert.Empty(t, years)
	assert.Empty(t, rs.FiscalYearIDs)
}

func TestResolveScopeByPeriodsSpansNoYears(t *testing.T) {
	svc, _, companyID := newYearFixture()

	p1, p2 := id.New(), id.New()
	rs, years, err := svc.ResolveScope(context.Background(), companyID, scope.ForPeriods(p1, p2))
	require.NoError(t, err)
	assert.Empty(t, years, "explicit periods must not enable year chaining")
	assert.Equal(t, []id.ID{p1, p2}, rs.PeriodIDs)
	assert.Empty(t, rs.FiscalYearIDs)
}

func TestResolveScopeDefaultsToOpenYears(t *testing.T) {
	svc, repo, companyID := newYearFixture()

	open := NewFiscalYear("FY2026", "2026", companyID, day(2026, 1, 1), day(2026, 12, 31))
	closed := NewFiscalYear("FY2025", "2025", companyID, day(2025, 1, 1), day(2025, 12, 31))
	closed.State = StateClose
	repo.years[open.ID] = open
	repo.years[closed.ID] = closed

	rs, years, err := svc.ResolveScope(context.Background(), companyID, scope.Scope{})
	require.NoError(t, err)
	require.Len(t, years, 1)
	assert.Equal(t, open.ID, years[0].ID)
	assert.Equal(t, []id.ID{open.ID}, rs.FiscalYearIDs)
}

func TestFindPeriodRejectsClosed(t *testing.T) {
	svc, repo, companyID := newYearFixture()
	ctx := context.Background()

	fy := NewFiscalYear("FY2026", "2026", companyID, day(2026, 1, 1), day(2026, 12, 31))
	repo.years[fy.ID] = fy
	p := NewPeriod("FY2026-01", "2026-01", fy.ID, day(2026, 1, 1), day(2026, 1, 31))
	p.State = StateClose
	repo.periods[p.ID] = p

	_, err := svc.FindPeriod(ctx, companyID, day(2026, 1, 15))
	assert.True(t, apperror.IsCode(err, apperror.CodePeriodClosed), "got %v", err)
}

func TestCloseRequiresAllPeriodsClosed(t *testing.T) {
	svc, repo, companyID := newYearFixture()
	ctx := context.Background()

	fy := NewFiscalYear("FY2026", "2026", companyID, day(2026, 1, 1), day(2026, 12, 31))
	repo.years[fy.ID] = fy
	p := NewPeriod("FY2026-01", "2026-01", fy.ID, day(2026, 1, 1), day(2026, 1, 31))
	repo.periods[p.ID] = p

	err := svc.Close(ctx, fy.ID)
	assert.True(t, apperror.IsCode(err, apperror.CodeBusinessRule), "got %v", err)

	require.NoError(t, svc.ClosePeriod(ctx, p.ID))
	require.NoError(t, svc.Close(ctx, fy.ID))
	assert.False(t, fy.IsOpen())

	// Reopening a period of a closed year is rejected.
	err = svc.ReopenPeriod(ctx, p.ID)
	assert.True(t, apperror.IsCode(err, apperror.CodePeriodClosed), "got %v", err)
}
