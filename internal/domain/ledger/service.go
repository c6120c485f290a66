package ledger

import (
	"context"
	"time"

	"bookkeeper/internal/core/apperror"
	"bookkeeper/internal/core/entity"
	"bookkeeper/internal/core/id"
	"bookkeeper/internal/core/sequence"
	"bookkeeper/internal/core/tx"
	"bookkeeper/internal/core/types"
	"bookkeeper/internal/domain/catalogs/account"
	"bookkeeper/internal/domain/catalogs/fiscalyear"
	"bookkeeper/internal/domain/catalogs/journal"
	"bookkeeper/pkg/logger"
)

// JournalService resolves journals.
type JournalService interface {
	GetByID(ctx context.Context, journalID id.ID) (*journal.Journal, error)
}

// PeriodService resolves periods and their fiscal years.
type PeriodService interface {
	GetPeriod(ctx context.Context, periodID id.ID) (*fiscalyear.Period, error)
	FindPeriod(ctx context.Context, companyID id.ID, date time.Time) (*fiscalyear.Period, error)
	GetByID(ctx context.Context, fiscalYearID id.ID) (*fiscalyear.FiscalYear, error)
}

// AccountService resolves accounts.
type AccountService interface {
	GetByID(ctx context.Context, accountID id.ID) (*account.Account, error)
}

// CurrencyService is the currency arithmetic the posting engine needs.
type CurrencyService interface {
	Round(ctx context.Context, currencyID id.ID, amount types.Money) (types.Money, error)
	IsZero(ctx context.Context, currencyID id.ID, amount types.Money) (bool, error)
}

// CompanyCurrency resolves the accounting currency of a company.
type CompanyCurrency interface {
	CurrencyOf(ctx context.Context, companyID id.ID) (id.ID, error)
}

// Service is the posting engine.
type Service struct {
	moves          MoveRepository
	lines          LineRepository
	reconciliation ReconciliationRepository
	journalPeriods JournalPeriodRepository

	txm        tx.Manager
	seq        sequence.Generator
	journals   JournalService
	periods    PeriodService
	accounts   AccountService
	currencies CurrencyService
	companies  CompanyCurrency
}

// NewService creates the posting engine.
func NewService(
	moves MoveRepository,
	lines LineRepository,
	reconciliation ReconciliationRepository,
	journalPeriods JournalPeriodRepository,
	txm tx.Manager,
	seq sequence.Generator,
	journals JournalService,
	periods PeriodService,
	accounts AccountService,
	currencies CurrencyService,
	companies CompanyCurrency,
) *Service {
	return &Service{
		moves:          moves,
		lines:          lines,
		reconciliation: reconciliation,
		journalPeriods: journalPeriods,
		txm:            txm,
		seq:            seq,
		journals:       journals,
		periods:        periods,
		accounts:       accounts,
		currencies:     currencies,
		companies:      companies,
	}
}

// CreateMoveInput describes a new move.
type CreateMoveInput struct {
	JournalID id.ID
	PeriodID  id.ID
	Date      time.Time // zero value defaults from the period
}

// CreateMove creates a draft move named from the journal sequence. A move in
// a centralised journal gets its maintained counterpart line immediately.
func (s *Service) CreateMove(ctx context.Context, input CreateMoveInput) (*Move, error) {
	var move *Move
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		move, err = s.createMove(ctx, input)
		return err
	})
	if err != nil {
		return nil, err
	}
	return move, nil
}

func (s *Service) createMove(ctx context.Context, input CreateMoveInput) (*Move, error) {
	jrn, err := s.journals.GetByID(ctx, input.JournalID)
	if err != nil {
		return nil, err
	}
	period, err := s.periods.GetPeriod(ctx, input.PeriodID)
	if err != nil {
		return nil, err
	}
	if !period.IsOpen() {
		return nil, apperror.NewPeriodClosed(period.Code)
	}
	fy, err := s.periods.GetByID(ctx, period.FiscalYearID)
	if err != nil {
		return nil, err
	}

	date := input.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}
	if !period.Contains(date) {
		return nil, apperror.NewValidation("move date outside period bounds").
			WithDetail("date", date.Format("2006-01-02")).
			WithDetail("period", period.Code)
	}

	if jrn.Centralised {
		// At most one open move per centralised (journal, period).
		if existing, err := s.moves.FindOpenCentralised(ctx, jrn.ID, period.ID); err == nil {
			return nil, apperror.NewConflict("centralised journal already has an open move in this period").
				WithDetail("move", existing.Name)
		} else if !apperror.IsNotFound(err) {
			return nil, err
		}
	}

	name, err := s.seq.Next(ctx, jrn.Sequence, date)
	if err != nil {
		return nil, err
	}

	move := &Move{
		BaseDocument: entity.NewBaseDocument(),
		Name:         name,
		PeriodID:     period.ID,
		JournalID:    jrn.ID,
		CompanyID:    fy.CompanyID,
		Date:         date,
		State:        MoveStateDraft,
	}
	if err := s.moves.Create(ctx, move); err != nil {
		return nil, err
	}

	if jrn.Centralised {
		counter := NewLine(*jrn.CreditAccountID, types.Zero(), types.Zero())
		counter.MoveID = move.ID
		counter.Name = "Centralised Counterpart"
		if err := s.lines.Create(ctx, counter); err != nil {
			return nil, err
		}
		move.CentralisedLineID = &counter.ID
		move.Lines = append(move.Lines, counter)
		if err := s.moves.Update(ctx, move); err != nil {
			return nil, err
		}
	}

	logger.Info(ctx, "move created", "move_id", move.ID, "name", move.Name,
		"journal", jrn.Code)
	return move, nil
}

// CreateLineInput describes a new line. When MoveID is nil the owning move is
// resolved from the journal and period: a centralised journal reuses its open
// move, otherwise a fresh move is created.
type CreateLineInput struct {
	MoveID    *id.ID
	JournalID id.ID
	PeriodID  id.ID
	Date      time.Time

	Name      string
	Reference string
	AccountID id.ID
	Debit     types.Money
	Credit    types.Money

	PartyID      *id.ID
	MaturityDate *time.Time

	TaxLines []*TaxLine
}

// CreateLine books a line, creating or reusing the owning move, and
// revalidates the move.
func (s *Service) CreateLine(ctx context.Context, input CreateLineInput) (*Line, error) {
	var line *Line
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		move, err := s.resolveMove(ctx, input)
		if err != nil {
			return err
		}
		if move.IsPosted() {
			return apperror.NewMovePosted(move.ID)
		}

		acc, err := s.accounts.GetByID(ctx, input.AccountID)
		if err != nil {
			return err
		}
		if err := s.checkAccount(ctx, acc, move); err != nil {
			return err
		}

		line = NewLine(acc.ID, input.Debit, input.Credit)
		line.MoveID = move.ID
		line.Name = input.Name
		line.Reference = input.Reference
		line.PartyID = input.PartyID
		line.MaturityDate = input.MaturityDate
		for _, tl := range input.TaxLines {
			tl.ID = id.New()
			tl.LineID = line.ID
			line.TaxLines = append(line.TaxLines, tl)
		}
		if err := line.Validate(ctx); err != nil {
			return err
		}

		if err := s.ensureJournalPeriod(ctx, move.JournalID, move.PeriodID); err != nil {
			return err
		}
		if err := s.lines.Create(ctx, line); err != nil {
			return err
		}
		return s.Validate(ctx, move.ID)
	})
	if err != nil {
		return nil, err
	}
	return line, nil
}

func (s *Service) resolveMove(ctx context.Context, input CreateLineInput) (*Move, error) {
	if input.MoveID != nil {
		return s.moves.GetByID(ctx, *input.MoveID)
	}
	if id.IsNil(input.JournalID) {
		return nil, apperror.NewValidation("a line needs a move or a journal").
			WithDetail("field", "journalId")
	}
	jrn, err := s.journals.GetByID(ctx, input.JournalID)
	if err != nil {
		return nil, err
	}
	if jrn.Centralised {
		move, err := s.moves.FindOpenCentralised(ctx, input.JournalID, input.PeriodID)
		if err == nil {
			return move, nil
		}
		if !apperror.IsNotFound(err) {
			return nil, err
		}
	}
	return s.createMove(ctx, CreateMoveInput{
		JournalID: input.JournalID,
		PeriodID:  input.PeriodID,
		Date:      input.Date,
	})
}

func (s *Service) checkAccount(ctx context.Context, acc *account.Account, move *Move) error {
	if acc.IsView() {
		return apperror.NewValidation("view accounts cannot carry lines").
			WithDetail("account", acc.Code)
	}
	if !acc.Active {
		return apperror.NewValidation("inactive accounts cannot carry lines").
			WithDetail("account", acc.Code)
	}
	if acc.CompanyID != move.CompanyID {
		return apperror.NewValidation("all lines of a move must belong to one company").
			WithDetail("account", acc.Code)
	}
	return nil
}

// ensureJournalPeriod loads or creates the (journal, period) binding and
// rejects closed ones.
func (s *Service) ensureJournalPeriod(ctx context.Context, journalID, periodID id.ID) error {
	jp, err := s.journalPeriods.Find(ctx, journalID, periodID)
	if err == nil {
		if !jp.IsOpen() {
			jrn, jerr := s.journals.GetByID(ctx, journalID)
			period, perr := s.periods.GetPeriod(ctx, periodID)
			if jerr != nil || perr != nil {
				return apperror.NewJournalPeriodClosed(journalID.String(), periodID.String())
			}
			return apperror.NewJournalPeriodClosed(jrn.Code, period.Code)
		}
		return nil
	}
	if !apperror.IsNotFound(err) {
		return err
	}

	jrn, err := s.journals.GetByID(ctx, journalID)
	if err != nil {
		return err
	}
	period, err := s.periods.GetPeriod(ctx, periodID)
	if err != nil {
		return err
	}
	jp = &JournalPeriod{
		BaseEntity: entity.NewBaseEntity(),
		Name:       jrn.Name + " - " + period.Name,
		JournalID:  journalID,
		PeriodID:   periodID,
		State:      JournalPeriodOpen,
	}
	return s.journalPeriods.Create(ctx, jp)
}

// checkModify rejects changes to lines of posted moves, reconciled lines and
// lines in closed journal-periods.
func (s *Service) checkModify(ctx context.Context, lines []*Line) error {
	seen := make(map[[2]id.ID]bool)
	for _, line := range lines {
		move, err := s.moves.GetByID(ctx, line.MoveID)
		if err != nil {
			return err
		}
		if move.IsPosted() {
			return apperror.NewMovePosted(move.ID)
		}
		if line.IsReconciled() {
			return apperror.NewLineReconciled(line.ID)
		}
		key := [2]id.ID{move.JournalID, move.PeriodID}
		if !seen[key] {
			if err := s.ensureJournalPeriod(ctx, move.JournalID, move.PeriodID); err != nil {
				return err
			}
			seen[key] = true
		}
	}
	return nil
}

// WriteLine applies changes to a line and revalidates the affected moves,
// the previous owner included when the line moved.
func (s *Service) WriteLine(ctx context.Context, line *Line) error {
	if err := line.Validate(ctx); err != nil {
		return err
	}
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		current, err := s.lines.GetByID(ctx, line.ID)
		if err != nil {
			return err
		}
		if err := s.checkModify(ctx, []*Line{current}); err != nil {
			return err
		}
		if err := s.lines.Update(ctx, line); err != nil {
			return err
		}
		moveIDs := []id.ID{current.MoveID}
		if line.MoveID != current.MoveID {
			moveIDs = append(moveIDs, line.MoveID)
		}
		for _, moveID := range moveIDs {
			if err := s.Validate(ctx, moveID); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetLine returns a line with its tax lines.
func (s *Service) GetLine(ctx context.Context, lineID id.ID) (*Line, error) {
	return s.lines.GetByID(ctx, lineID)
}

// DeleteLines removes lines and revalidates their moves.
func (s *Service) DeleteLines(ctx context.Context, lineIDs []id.ID) error {
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		lines, err := s.lines.GetByIDs(ctx, lineIDs)
		if err != nil {
			return err
		}
		if err := s.checkModify(ctx, lines); err != nil {
			return err
		}
		moveIDs := make([]id.ID, 0, len(lines))
		seen := make(map[id.ID]bool)
		for _, line := range lines {
			if !seen[line.MoveID] {
				moveIDs = append(moveIDs, line.MoveID)
				seen[line.MoveID] = true
			}
			if err := s.lines.Delete(ctx, line.ID); err != nil {
				return err
			}
		}
		for _, moveID := range moveIDs {
			if err := s.Validate(ctx, moveID); err != nil {
				return err
			}
		}
		return nil
	})
}

// Validate rebalances a move's line states.
//
// Unbalanced non-centralised moves have their valid lines demoted to draft.
// Unbalanced centralised moves get their counterpart line rewritten so the
// move self-balances, the target account chosen by imbalance sign. Balanced
// moves have their draft lines promoted to valid.
func (s *Service) Validate(ctx context.Context, moveID id.ID) error {
	move, err := s.moves.GetByID(ctx, moveID)
	if err != nil {
		return err
	}
	if len(move.Lines) == 0 {
		return nil
	}

	currencyID, err := s.companies.CurrencyOf(ctx, move.CompanyID)
	if err != nil {
		return err
	}
	amount := move.Balance()
	zero, err := s.currencies.IsZero(ctx, currencyID, amount)
	if err != nil {
		return err
	}

	if !zero {
		jrn, err := s.journals.GetByID(ctx, move.JournalID)
		if err != nil {
			return err
		}
		if !jrn.Centralised {
			var demote []id.ID
			for _, line := range move.Lines {
				if line.State != LineStateDraft {
					demote = append(demote, line.ID)
				}
			}
			if len(demote) > 0 {
				return s.lines.UpdateState(ctx, demote, LineStateDraft)
			}
			return nil
		}

		counter := move.CentralisedLine()
		if counter == nil {
			return apperror.NewValidation("centralised move has no counterpart line").
				WithDetail("move", move.Name)
		}
		counterAmount := counter.Debit.Sub(counter.Credit).Sub(amount)
		if counterAmount.IsNegative() {
			counter.Debit = types.Zero()
			counter.Credit = counterAmount.Neg()
			counter.AccountID = *jrn.CreditAccountID
		} else {
			counter.Debit = counterAmount
			counter.Credit = types.Zero()
			counter.AccountID = *jrn.DebitAccountID
		}
		return s.lines.Update(ctx, counter)
	}

	var promote []id.ID
	for _, line := range move.Lines {
		if line.State == LineStateDraft {
			promote = append(promote, line.ID)
		}
	}
	if len(promote) == 0 {
		return nil
	}
	return s.lines.UpdateState(ctx, promote, LineStateValid)
}

// Post posts moves all-or-nothing: every move must be non-empty and balanced
// before any of them is touched. Posted moves receive a gapless reference
// from the fiscal year's posting sequence.
func (s *Service) Post(ctx context.Context, moveIDs []id.ID) error {
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		moves, err := s.moves.GetByIDs(ctx, moveIDs)
		if err != nil {
			return err
		}

		for _, move := range moves {
			if len(move.Lines) == 0 {
				return apperror.NewEmptyMove(move.ID)
			}
			currencyID, err := s.companies.CurrencyOf(ctx, move.CompanyID)
			if err != nil {
				return err
			}
			zero, err := s.currencies.IsZero(ctx, currencyID, move.Balance())
			if err != nil {
				return err
			}
			if !zero {
				return apperror.NewUnbalancedMove(move.ID)
			}
		}

		now := time.Now().UTC()
		for _, move := range moves {
			period, err := s.periods.GetPeriod(ctx, move.PeriodID)
			if err != nil {
				return err
			}
			fy, err := s.periods.GetByID(ctx, period.FiscalYearID)
			if err != nil {
				return err
			}
			reference, err := s.seq.Next(ctx, fy.PostMoveSequence, move.Date)
			if err != nil {
				return err
			}
			move.Reference = &reference
			move.State = MoveStatePosted
			move.PostDate = &now
			if err := s.moves.Update(ctx, move); err != nil {
				return err
			}
			logger.Info(ctx, "move posted", "move_id", move.ID,
				"name", move.Name, "reference", reference)
		}
		return nil
	})
}

// Draft restores posted moves to draft. Only journals flagged update-posted
// allow it.
func (s *Service) Draft(ctx context.Context, moveIDs []id.ID) error {
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		moves, err := s.moves.GetByIDs(ctx, moveIDs)
		if err != nil {
			return err
		}
		for _, move := range moves {
			jrn, err := s.journals.GetByID(ctx, move.JournalID)
			if err != nil {
				return err
			}
			if !jrn.UpdatePosted {
				return apperror.NewMovePosted(move.ID)
			}
		}
		for _, move := range moves {
			move.State = MoveStateDraft
			if err := s.moves.Update(ctx, move); err != nil {
				return err
			}
			logger.Info(ctx, "move drafted", "move_id", move.ID, "name", move.Name)
		}
		return nil
	})
}

// DeleteMove removes a draft move and its lines.
func (s *Service) DeleteMove(ctx context.Context, moveID id.ID) error {
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		move, err := s.moves.GetByID(ctx, moveID)
		if err != nil {
			return err
		}
		if move.IsPosted() {
			return apperror.NewMovePosted(move.ID)
		}
		if len(move.Lines) > 0 {
			if err := s.checkModify(ctx, move.Lines); err != nil {
				return err
			}
			for _, line := range move.Lines {
				if err := s.lines.Delete(ctx, line.ID); err != nil {
					return err
				}
			}
		}
		return s.moves.Delete(ctx, move.ID)
	})
}

// GetMove retrieves a move with its lines.
func (s *Service) GetMove(ctx context.Context, moveID id.ID) (*Move, error) {
	return s.moves.GetByID(ctx, moveID)
}

// SetMoveDate changes the move date, kept within its period bounds.
func (s *Service) SetMoveDate(ctx context.Context, moveID id.ID, date time.Time) error {
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		move, err := s.moves.GetByID(ctx, moveID)
		if err != nil {
			return err
		}
		if move.IsPosted() {
			return apperror.NewMovePosted(move.ID)
		}
		period, err := s.periods.GetPeriod(ctx, move.PeriodID)
		if err != nil {
			return err
		}
		if !period.Contains(date) {
			return apperror.NewValidation("move date outside period bounds").
				WithDetail("date", date.Format("2006-01-02")).
				WithDetail("period", period.Code)
		}
		move.Date = date
		if err := s.moves.Update(ctx, move); err != nil {
			return err
		}
		return s.Validate(ctx, move.ID)
	})
}

// SetMovePeriod rebooks the move into another open period.
func (s *Service) SetMovePeriod(ctx context.Context, moveID, periodID id.ID) error {
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		move, err := s.moves.GetByID(ctx, moveID)
		if err != nil {
			return err
		}
		if move.IsPosted() {
			return apperror.NewMovePosted(move.ID)
		}
		period, err := s.periods.GetPeriod(ctx, periodID)
		if err != nil {
			return err
		}
		if !period.IsOpen() {
			return apperror.NewPeriodClosed(period.Code)
		}
		if !period.Contains(move.Date) {
			return apperror.NewValidation("move date outside period bounds").
				WithDetail("period", period.Code)
		}
		if err := s.ensureJournalPeriod(ctx, move.JournalID, periodID); err != nil {
			return err
		}
		move.PeriodID = periodID
		if err := s.moves.Update(ctx, move); err != nil {
			return err
		}
		return s.Validate(ctx, move.ID)
	})
}

// SetMoveJournal rebooks the move into another journal.
func (s *Service) SetMoveJournal(ctx context.Context, moveID, journalID id.ID) error {
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		move, err := s.moves.GetByID(ctx, moveID)
		if err != nil {
			return err
		}
		if move.IsPosted() {
			return apperror.NewMovePosted(move.ID)
		}
		jrn, err := s.journals.GetByID(ctx, journalID)
		if err != nil {
			return err
		}
		if jrn.Centralised {
			return apperror.NewValidation("moves cannot be rebooked into a centralised journal").
				WithDetail("journal", jrn.Code)
		}
		if err := s.ensureJournalPeriod(ctx, journalID, move.PeriodID); err != nil {
			return err
		}
		move.JournalID = journalID
		if err := s.moves.Update(ctx, move); err != nil {
			return err
		}
		return s.Validate(ctx, move.ID)
	})
}

// CounterpartProposal is the suggested balancing line for a move.
type CounterpartProposal struct {
	AccountID id.ID       `json:"accountId"`
	Debit     types.Money `json:"debit"`
	Credit    types.Money `json:"credit"`
}

// ProposeCounterpart suggests the line that would balance the move: the
// journal credit account when debits exceed credits, the debit account
// otherwise.
func (s *Service) ProposeCounterpart(ctx context.Context, moveID id.ID) (*CounterpartProposal, error) {
	move, err := s.moves.GetByID(ctx, moveID)
	if err != nil {
		return nil, err
	}
	jrn, err := s.journals.GetByID(ctx, move.JournalID)
	if err != nil {
		return nil, err
	}

	total := move.Balance()
	accountID, err := jrn.CounterpartAccount(!total.IsNegative())
	if err != nil {
		return nil, err
	}

	proposal := &CounterpartProposal{
		AccountID: accountID,
		Debit:     types.Zero(),
		Credit:    types.Zero(),
	}
	if total.IsNegative() {
		proposal.Debit = total.Neg()
	} else if total.IsPositive() {
		proposal.Credit = total
	}
	return proposal, nil
}

// CloseJournalPeriod closes the (journal, period) binding, creating it first
// if needed.
func (s *Service) CloseJournalPeriod(ctx context.Context, journalID, periodID id.ID) error {
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.ensureJournalPeriod(ctx, journalID, periodID); err != nil {
			return err
		}
		jp, err := s.journalPeriods.Find(ctx, journalID, periodID)
		if err != nil {
			return err
		}
		jp.State = JournalPeriodClose
		return s.journalPeriods.Update(ctx, jp)
	})
}

// ReopenJournalPeriod reopens a closed binding. The period itself must still
// be open.
func (s *Service) ReopenJournalPeriod(ctx context.Context, journalID, periodID id.ID) error {
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		period, err := s.periods.GetPeriod(ctx, periodID)
		if err != nil {
			return err
		}
		if !period.IsOpen() {
			return apperror.NewPeriodClosed(period.Code)
		}
		jp, err := s.journalPeriods.Find(ctx, journalID, periodID)
		if err != nil {
			return err
		}
		jp.State = JournalPeriodOpen
		return s.journalPeriods.Update(ctx, jp)
	})
}
