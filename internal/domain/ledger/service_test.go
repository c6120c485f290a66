package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookkeeper/internal/core/apperror"
	"bookkeeper/internal/core/id"
	"bookkeeper/internal/core/types"
	"bookkeeper/internal/domain/catalogs/fiscalyear"
)

// addLine books a line through the service, failing the test on error.
func (f *fixture) addLine(t *testing.T, moveID *id.ID, journalID id.ID, accountID id.ID, debit, credit string) *Line {
	t.Helper()
	line, err := f.svc.CreateLine(context.Background(), CreateLineInput{
		MoveID:    moveID,
		JournalID: journalID,
		PeriodID:  f.periodID,
		Date:      date(2026, 1, 15),
		AccountID: accountID,
		Debit:     money(debit),
		Credit:    money(credit),
	})
	require.NoError(t, err)
	return line
}

func TestCreateMoveAssignsJournalSequenceName(t *testing.T) {
	f := newFixture()

	move, err := f.svc.CreateMove(context.Background(), CreateMoveInput{
		JournalID: f.miscJournal.ID,
		PeriodID:  f.periodID,
		Date:      date(2026, 1, 15),
	})
	require.NoError(t, err)

	assert.Equal(t, "MISC-00001", move.Name)
	assert.Equal(t, MoveStateDraft, move.State)
	assert.Equal(t, f.companyID, move.CompanyID)
	assert.Nil(t, move.Reference)
}

func TestCreateMoveRejectsClosedPeriod(t *testing.T) {
	f := newFixture()
	f.period.State = fiscalyear.StateClose

	_, err := f.svc.CreateMove(context.Background(), CreateMoveInput{
		JournalID: f.miscJournal.ID,
		PeriodID:  f.periodID,
		Date:      date(2026, 1, 15),
	})
	assert.True(t, apperror.IsCode(err, apperror.CodePeriodClosed), "got %v", err)
}

func TestCreateMoveRejectsDateOutsidePeriod(t *testing.T) {
	f := newFixture()

	_, err := f.svc.CreateMove(context.Background(), CreateMoveInput{
		JournalID: f.miscJournal.ID,
		PeriodID:  f.periodID,
		Date:      date(2026, 2, 3),
	})
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation), "got %v", err)
}

func TestBalancedMovePromotesLinesToValid(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	first := f.addLine(t, nil, f.miscJournal.ID, f.cash.ID, "100", "0")
	assert.Equal(t, LineStateDraft, f.store.lines[first.ID].State,
		"a one-sided move must stay draft")

	f.addLine(t, &first.MoveID, f.miscJournal.ID, f.revenue.ID, "0", "100")

	move, err := f.svc.GetMove(ctx, first.MoveID)
	require.NoError(t, err)
	require.Len(t, move.Lines, 2)
	for _, line := range move.Lines {
		assert.Equal(t, LineStateValid, line.State)
	}
}

func TestUnbalancingDemotesValidLines(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	first := f.addLine(t, nil, f.miscJournal.ID, f.cash.ID, "100", "0")
	f.addLine(t, &first.MoveID, f.miscJournal.ID, f.revenue.ID, "0", "100")
	f.addLine(t, &first.MoveID, f.miscJournal.ID, f.cash.ID, "30", "0")

	move, err := f.svc.GetMove(ctx, first.MoveID)
	require.NoError(t, err)
	require.Len(t, move.Lines, 3)
	for _, line := range move.Lines {
		assert.Equal(t, LineStateDraft, line.State)
	}
}

func TestCentralisedCounterpartSelfBalances(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	line := f.addLine(t, nil, f.centralJournal.ID, f.cash.ID, "100", "0")

	move, err := f.svc.GetMove(ctx, line.MoveID)
	require.NoError(t, err)
	require.NotNil(t, move.CentralisedLineID)

	counter := move.CentralisedLine()
	require.NotNil(t, counter)
	assert.True(t, counter.Credit.Equal(money("100")), "credit %s", counter.Credit)
	assert.True(t, counter.Debit.IsZero())
	assert.Equal(t, f.jrnCredit.ID, counter.AccountID)
	assert.True(t, move.Balance().IsZero())

	// A credit overshooting the debits flips the counterpart to the debit side.
	f.addLine(t, nil, f.centralJournal.ID, f.revenue.ID, "0", "250")

	move, err = f.svc.GetMove(ctx, line.MoveID)
	require.NoError(t, err)
	counter = move.CentralisedLine()
	require.NotNil(t, counter)
	assert.True(t, counter.Debit.Equal(money("150")), "debit %s", counter.Debit)
	assert.True(t, counter.Credit.IsZero())
	assert.Equal(t, f.jrnDebit.ID, counter.AccountID)
	assert.True(t, move.Balance().IsZero())
}

func TestCentralisedJournalReusesOpenMove(t *testing.T) {
	f := newFixture()

	f.addLine(t, nil, f.centralJournal.ID, f.cash.ID, "10", "0")
	f.addLine(t, nil, f.centralJournal.ID, f.cash.ID, "20", "0")

	assert.Len(t, f.store.moves, 1, "both lines must land on the same open move")
}

func TestCentralisedJournalSingleOpenMovePerPeriod(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.CreateMove(ctx, CreateMoveInput{
		JournalID: f.centralJournal.ID,
		PeriodID:  f.periodID,
		Date:      date(2026, 1, 15),
	})
	require.NoError(t, err)

	_, err = f.svc.CreateMove(ctx, CreateMoveInput{
		JournalID: f.centralJournal.ID,
		PeriodID:  f.periodID,
		Date:      date(2026, 1, 16),
	})
	assert.True(t, apperror.IsCode(err, apperror.CodeConflict), "got %v", err)
}

func TestPostAssignsReference(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	line := f.addLine(t, nil, f.miscJournal.ID, f.cash.ID, "100", "0")
	f.addLine(t, &line.MoveID, f.miscJournal.ID, f.revenue.ID, "0", "100")

	require.NoError(t, f.svc.Post(ctx, []id.ID{line.MoveID}))

	move, err := f.svc.GetMove(ctx, line.MoveID)
	require.NoError(t, err)
	assert.Equal(t, MoveStatePosted, move.State)
	require.NotNil(t, move.Reference)
	assert.Equal(t, "PST-00001", *move.Reference)
	assert.NotNil(t, move.PostDate)
}

func TestPostRejectsEmptyMove(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	move, err := f.svc.CreateMove(ctx, CreateMoveInput{
		JournalID: f.miscJournal.ID,
		PeriodID:  f.periodID,
		Date:      date(2026, 1, 15),
	})
	require.NoError(t, err)

	err = f.svc.Post(ctx, []id.ID{move.ID})
	assert.True(t, apperror.IsCode(err, apperror.CodeEmptyMove), "got %v", err)
}

func TestPostAllOrNothing(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	balanced := f.addLine(t, nil, f.miscJournal.ID, f.cash.ID, "100", "0")
	f.addLine(t, &balanced.MoveID, f.miscJournal.ID, f.revenue.ID, "0", "100")
	lame := f.addLine(t, nil, f.miscJournal.ID, f.cash.ID, "7", "0")

	err := f.svc.Post(ctx, []id.ID{balanced.MoveID, lame.MoveID})
	assert.True(t, apperror.IsCode(err, apperror.CodeUnbalancedMove), "got %v", err)

	// The balanced move must not have been touched.
	move, err := f.svc.GetMove(ctx, balanced.MoveID)
	require.NoError(t, err)
	assert.Equal(t, MoveStateDraft, move.State)
	assert.Nil(t, move.Reference)
}

func TestPostedMoveIsImmutable(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	line := f.addLine(t, nil, f.miscJournal.ID, f.cash.ID, "100", "0")
	f.addLine(t, &line.MoveID, f.miscJournal.ID, f.revenue.ID, "0", "100")
	require.NoError(t, f.svc.Post(ctx, []id.ID{line.MoveID}))

	_, err := f.svc.CreateLine(ctx, CreateLineInput{
		MoveID:    &line.MoveID,
		AccountID: f.cash.ID,
		Debit:     money("1"),
		Credit:    types.Zero(),
	})
	assert.True(t, apperror.IsCode(err, apperror.CodeMovePosted), "create: %v", err)

	changed := *f.store.lines[line.ID]
	changed.Debit = money("50")
	err = f.svc.WriteLine(ctx, &changed)
	assert.True(t, apperror.IsCode(err, apperror.CodeMovePosted), "write: %v", err)

	err = f.svc.DeleteLines(ctx, []id.ID{line.ID})
	assert.True(t, apperror.IsCode(err, apperror.CodeMovePosted), "delete: %v", err)

	err = f.svc.DeleteMove(ctx, line.MoveID)
	assert.True(t, apperror.IsCode(err, apperror.CodeMovePosted), "delete move: %v", err)
}

func TestDraftRequiresUpdatePostedJournal(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	line := f.addLine(t, nil, f.miscJournal.ID, f.cash.ID, "100", "0")
	f.addLine(t, &line.MoveID, f.miscJournal.ID, f.revenue.ID, "0", "100")
	require.NoError(t, f.svc.Post(ctx, []id.ID{line.MoveID}))

	err := f.svc.Draft(ctx, []id.ID{line.MoveID})
	assert.True(t, apperror.IsCode(err, apperror.CodeMovePosted), "got %v", err)

	f.miscJournal.UpdatePosted = true
	require.NoError(t, f.svc.Draft(ctx, []id.ID{line.MoveID}))

	move, err := f.svc.GetMove(ctx, line.MoveID)
	require.NoError(t, err)
	assert.Equal(t, MoveStateDraft, move.State)
}

func TestJournalPeriodCreatedOnDemand(t *testing.T) {
	f := newFixture()

	f.addLine(t, nil, f.miscJournal.ID, f.cash.ID, "100", "0")

	jp, ok := f.store.jps[[2]id.ID{f.miscJournal.ID, f.periodID}]
	require.True(t, ok, "booking a line must create the journal-period binding")
	assert.Equal(t, "Miscellaneous - 2026-01", jp.Name)
	assert.Equal(t, JournalPeriodOpen, jp.State)
}

func TestClosedJournalPeriodRejectsLines(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	require.NoError(t, f.svc.CloseJournalPeriod(ctx, f.miscJournal.ID, f.periodID))

	_, err := f.svc.CreateLine(ctx, CreateLineInput{
		JournalID: f.miscJournal.ID,
		PeriodID:  f.periodID,
		Date:      date(2026, 1, 15),
		AccountID: f.cash.ID,
		Debit:     money("100"),
		Credit:    types.Zero(),
	})
	assert.True(t, apperror.IsCode(err, apperror.CodeJournalPeriodClosed), "got %v", err)

	require.NoError(t, f.svc.ReopenJournalPeriod(ctx, f.miscJournal.ID, f.periodID))
	f.addLine(t, nil, f.miscJournal.ID, f.cash.ID, "100", "0")
}

func TestInactiveAccountRejected(t *testing.T) {
	f := newFixture()
	f.cash.Active = false

	_, err := f.svc.CreateLine(context.Background(), CreateLineInput{
		JournalID: f.miscJournal.ID,
		PeriodID:  f.periodID,
		Date:      date(2026, 1, 15),
		AccountID: f.cash.ID,
		Debit:     money("100"),
		Credit:    types.Zero(),
	})
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation), "got %v", err)
}

func TestLineRejectsBothSides(t *testing.T) {
	f := newFixture()

	_, err := f.svc.CreateLine(context.Background(), CreateLineInput{
		JournalID: f.miscJournal.ID,
		PeriodID:  f.periodID,
		Date:      date(2026, 1, 15),
		AccountID: f.cash.ID,
		Debit:     money("100"),
		Credit:    money("100"),
	})
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation), "got %v", err)
}

func TestProposeCounterpart(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.miscJournal.DebitAccountID = &f.jrnDebit.ID
	f.miscJournal.CreditAccountID = &f.jrnCredit.ID

	line := f.addLine(t, nil, f.miscJournal.ID, f.cash.ID, "100", "0")

	proposal, err := f.svc.ProposeCounterpart(ctx, line.MoveID)
	require.NoError(t, err)
	assert.Equal(t, f.jrnCredit.ID, proposal.AccountID)
	assert.True(t, proposal.Credit.Equal(money("100")), "credit %s", proposal.Credit)
	assert.True(t, proposal.Debit.IsZero())

	f.addLine(t, &line.MoveID, f.miscJournal.ID, f.revenue.ID, "0", "130")

	proposal, err = f.svc.ProposeCounterpart(ctx, line.MoveID)
	require.NoError(t, err)
	assert.Equal(t, f.jrnDebit.ID, proposal.AccountID)
	assert.True(t, proposal.Debit.Equal(money("30")), "debit %s", proposal.Debit)
	assert.True(t, proposal.Credit.IsZero())
}

func TestSetMoveJournalRejectsCentralised(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	move, err := f.svc.CreateMove(ctx, CreateMoveInput{
		JournalID: f.miscJournal.ID,
		PeriodID:  f.periodID,
		Date:      date(2026, 1, 15),
	})
	require.NoError(t, err)

	err = f.svc.SetMoveJournal(ctx, move.ID, f.centralJournal.ID)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation), "got %v", err)
}

func TestDeleteMoveRemovesLines(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	line := f.addLine(t, nil, f.miscJournal.ID, f.cash.ID, "100", "0")
	f.addLine(t, &line.MoveID, f.miscJournal.ID, f.revenue.ID, "0", "100")

	require.NoError(t, f.svc.DeleteMove(ctx, line.MoveID))
	assert.Empty(t, f.store.moves)
	assert.Empty(t, f.store.lines)
}
