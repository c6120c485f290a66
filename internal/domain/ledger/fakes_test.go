package ledger

import (
	"context"
	"time"

	"bookkeeper/internal/core/apperror"
	"bookkeeper/internal/core/id"
	"bookkeeper/internal/core/sequence"
	"bookkeeper/internal/core/types"
	"bookkeeper/internal/domain/catalogs/account"
	"bookkeeper/internal/domain/catalogs/fiscalyear"
	"bookkeeper/internal/domain/catalogs/journal"
)

// In-memory fakes standing in for the postgres repositories and the catalog
// services.

type fakeTxm struct{}

func (fakeTxm) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type store struct {
	moves     map[id.ID]*Move
	lines     map[id.ID]*Line
	lineOrder []id.ID
	recs      map[id.ID]*Reconciliation
	jps       map[[2]id.ID]*JournalPeriod
}

func newStore() *store {
	return &store{
		moves: make(map[id.ID]*Move),
		lines: make(map[id.ID]*Line),
		recs:  make(map[id.ID]*Reconciliation),
		jps:   make(map[[2]id.ID]*JournalPeriod),
	}
}

// --- MoveRepository ---

func (s *store) Create(ctx context.Context, m *Move) error {
	s.moves[m.ID] = m
	return nil
}

func (s *store) Update(ctx context.Context, m *Move) error {
	s.moves[m.ID] = m
	return nil
}

func (s *store) Delete(ctx context.Context, moveID id.ID) error {
	delete(s.moves, moveID)
	return nil
}

func (s *store) GetByID(ctx context.Context, moveID id.ID) (*Move, error) {
	m, ok := s.moves[moveID]
	if !ok {
		return nil, apperror.NewNotFound("move", moveID)
	}
	copied := *m
	copied.Lines = nil
	for _, lineID := range s.lineOrder {
		if line, ok := s.lines[lineID]; ok && line.MoveID == moveID {
			copied.Lines = append(copied.Lines, line)
		}
	}
	return &copied, nil
}

func (s *store) GetByIDs(ctx context.Context, moveIDs []id.ID) ([]*Move, error) {
	res := make([]*Move, 0, len(moveIDs))
	for _, moveID := range moveIDs {
		m, err := s.GetByID(ctx, moveID)
		if err != nil {
			return nil, err
		}
		res = append(res, m)
	}
	return res, nil
}

func (s *store) FindOpenCentralised(ctx context.Context, journalID, periodID id.ID) (*Move, error) {
	for _, m := range s.moves {
		if m.JournalID == journalID && m.PeriodID == periodID && !m.IsPosted() {
			return s.GetByID(ctx, m.ID)
		}
	}
	return nil, apperror.NewNotFound("move", journalID)
}

// --- LineRepository ---

type lineStore struct{ *store }

func (s lineStore) Create(ctx context.Context, l *Line) error {
	s.lines[l.ID] = l
	s.store.lineOrder = append(s.store.lineOrder, l.ID)
	return nil
}

func (s lineStore) Update(ctx context.Context, l *Line) error {
	s.lines[l.ID] = l
	return nil
}

func (s lineStore) Delete(ctx context.Context, lineID id.ID) error {
	delete(s.lines, lineID)
	return nil
}

func (s lineStore) GetByID(ctx context.Context, lineID id.ID) (*Line, error) {
	l, ok := s.lines[lineID]
	if !ok {
		return nil, apperror.NewNotFound("line", lineID)
	}
	return l, nil
}

func (s lineStore) GetByIDs(ctx context.Context, lineIDs []id.ID) ([]*Line, error) {
	res := make([]*Line, 0, len(lineIDs))
	for _, lineID := range lineIDs {
		l, err := s.GetByID(ctx, lineID)
		if err != nil {
			return nil, err
		}
		res = append(res, l)
	}
	return res, nil
}

func (s lineStore) UpdateState(ctx context.Context, lineIDs []id.ID, state LineState) error {
	for _, lineID := range lineIDs {
		if l, ok := s.lines[lineID]; ok {
			l.State = state
		}
	}
	return nil
}

func (s lineStore) SetReconciliation(ctx context.Context, lineIDs []id.ID, reconciliationID *id.ID) error {
	for _, lineID := range lineIDs {
		if l, ok := s.lines[lineID]; ok {
			l.ReconciliationID = reconciliationID
		}
	}
	return nil
}

func (s lineStore) SumUnreconciled(ctx context.Context, partyID, accountID id.ID) (types.Money, error) {
	total := types.Zero()
	for _, l := range s.lines {
		if l.PartyID != nil && *l.PartyID == partyID && l.AccountID == accountID &&
			l.State == LineStateValid && !l.IsReconciled() {
			total = total.Add(l.Amount())
		}
	}
	return total, nil
}

// --- ReconciliationRepository ---

type recStore struct{ *store }

func (s recStore) Create(ctx context.Context, r *Reconciliation) error {
	s.recs[r.ID] = r
	return nil
}

func (s recStore) Delete(ctx context.Context, reconciliationID id.ID) error {
	delete(s.recs, reconciliationID)
	return nil
}

func (s recStore) GetByID(ctx context.Context, reconciliationID id.ID) (*Reconciliation, error) {
	r, ok := s.recs[reconciliationID]
	if !ok {
		return nil, apperror.NewNotFound("reconciliation", reconciliationID)
	}
	return r, nil
}

// --- JournalPeriodRepository ---

type jpStore struct{ *store }

func (s jpStore) Create(ctx context.Context, jp *JournalPeriod) error {
	s.jps[[2]id.ID{jp.JournalID, jp.PeriodID}] = jp
	return nil
}

func (s jpStore) Update(ctx context.Context, jp *JournalPeriod) error {
	s.jps[[2]id.ID{jp.JournalID, jp.PeriodID}] = jp
	return nil
}

func (s jpStore) Find(ctx context.Context, journalID, periodID id.ID) (*JournalPeriod, error) {
	jp, ok := s.jps[[2]id.ID{journalID, periodID}]
	if !ok {
		return nil, apperror.NewNotFound("journal period", journalID)
	}
	return jp, nil
}

// --- Catalog fakes ---

type fakeJournals struct {
	journals map[id.ID]*journal.Journal
}

func (f *fakeJournals) GetByID(ctx context.Context, journalID id.ID) (*journal.Journal, error) {
	j, ok := f.journals[journalID]
	if !ok {
		return nil, apperror.NewNotFound("journal", journalID)
	}
	return j, nil
}

type fakePeriods struct {
	periods map[id.ID]*fiscalyear.Period
	years   map[id.ID]*fiscalyear.FiscalYear
}

func (f *fakePeriods) GetPeriod(ctx context.Context, periodID id.ID) (*fiscalyear.Period, error) {
	p, ok := f.periods[periodID]
	if !ok {
		return nil, apperror.NewNotFound("period", periodID)
	}
	return p, nil
}

func (f *fakePeriods) FindPeriod(ctx context.Context, companyID id.ID, date time.Time) (*fiscalyear.Period, error) {
	for _, p := range f.periods {
		fy := f.years[p.FiscalYearID]
		if fy != nil && fy.CompanyID == companyID && p.Contains(date) && p.IsOpen() {
			return p, nil
		}
	}
	return nil, apperror.NewNotFound("period", date)
}

func (f *fakePeriods) GetByID(ctx context.Context, fiscalYearID id.ID) (*fiscalyear.FiscalYear, error) {
	fy, ok := f.years[fiscalYearID]
	if !ok {
		return nil, apperror.NewNotFound("fiscal year", fiscalYearID)
	}
	return fy, nil
}

type fakeAccounts struct {
	accounts map[id.ID]*account.Account
}

func (f *fakeAccounts) GetByID(ctx context.Context, accountID id.ID) (*account.Account, error) {
	a, ok := f.accounts[accountID]
	if !ok {
		return nil, apperror.NewNotFound("account", accountID)
	}
	return a, nil
}

// fakeCurrencies rounds everything to two decimal places.
type fakeCurrencies struct{}

func (fakeCurrencies) Round(ctx context.Context, currencyID id.ID, amount types.Money) (types.Money, error) {
	return amount.Round(2), nil
}

func (fakeCurrencies) IsZero(ctx context.Context, currencyID id.ID, amount types.Money) (bool, error) {
	return amount.Round(2).IsZero(), nil
}

type fakeCompanies struct {
	currencyID id.ID
}

func (f *fakeCompanies) CurrencyOf(ctx context.Context, companyID id.ID) (id.ID, error) {
	return f.currencyID, nil
}

// --- Fixture ---

type fixture struct {
	svc   *Service
	store *store

	companyID id.ID
	periodID  id.ID
	period    *fiscalyear.Period

	miscJournal    *journal.Journal
	centralJournal *journal.Journal

	cash       *account.Account
	revenue    *account.Account
	receivable *account.Account
	writeOff   *account.Account
	jrnDebit   *account.Account
	jrnCredit  *account.Account
}

func newFixture() *fixture {
	st := newStore()
	companyID := id.New()
	currencyID := id.New()
	typeID := id.New()

	fy := fiscalyear.NewFiscalYear("FY2026", "2026", companyID,
		date(2026, 1, 1), date(2026, 12, 31))
	period := fiscalyear.NewPeriod("FY2026-01", "2026-01", fy.ID,
		date(2026, 1, 1), date(2026, 1, 31))

	newAcc := func(code string, kind account.Kind) *account.Account {
		a := account.NewAccount(code, code, kind, companyID)
		a.TypeID = &typeID
		return a
	}
	cash := newAcc("1000", account.KindOther)
	revenue := newAcc("7000", account.KindRevenue)
	receivable := newAcc("4000", account.KindReceivable)
	receivable.Reconcile = true
	writeOff := newAcc("6500", account.KindExpense)
	jrnDebit := newAcc("5800", account.KindOther)
	jrnCredit := newAcc("5810", account.KindOther)

	misc := journal.NewJournal("MISC", "Miscellaneous", journal.TypeGeneral)
	central := journal.NewJournal("CEN", "Centralised", journal.TypeCash)
	central.Centralised = true
	central.DebitAccountID = &jrnDebit.ID
	central.CreditAccountID = &jrnCredit.ID

	f := &fixture{
		store:          st,
		companyID:      companyID,
		periodID:       period.ID,
		period:         period,
		miscJournal:    misc,
		centralJournal: central,
		cash:           cash,
		revenue:        revenue,
		receivable:     receivable,
		writeOff:       writeOff,
		jrnDebit:       jrnDebit,
		jrnCredit:      jrnCredit,
	}

	f.svc = NewService(
		st,
		lineStore{st},
		recStore{st},
		jpStore{st},
		fakeTxm{},
		&sequence.MockGenerator{},
		&fakeJournals{journals: map[id.ID]*journal.Journal{
			misc.ID:    misc,
			central.ID: central,
		}},
		&fakePeriods{
			periods: map[id.ID]*fiscalyear.Period{period.ID: period},
			years:   map[id.ID]*fiscalyear.FiscalYear{fy.ID: fy},
		},
		&fakeAccounts{accounts: map[id.ID]*account.Account{
			cash.ID:       cash,
			revenue.ID:    revenue,
			receivable.ID: receivable,
			writeOff.ID:   writeOff,
			jrnDebit.ID:   jrnDebit,
			jrnCredit.ID:  jrnCredit,
		}},
		fakeCurrencies{},
		&fakeCompanies{currencyID: currencyID},
	)
	return f
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func money(s string) types.Money {
	return types.MustMoney(s)
}
