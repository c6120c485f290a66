package ledger

import (
	"context"
	"time"

	"bookkeeper/internal/core/apperror"
	"bookkeeper/internal/core/id"
	"bookkeeper/internal/core/sequence"
	"bookkeeper/internal/core/types"
	"bookkeeper/pkg/logger"
)

// reconciliationSequence numbers reconciliations.
var reconciliationSequence = sequence.DefaultConfig("REC")

// WriteOff describes the move synthesized for the residual of a partial
// reconciliation.
type WriteOff struct {
	JournalID id.ID
	AccountID id.ID
	Date      time.Time // zero value means today
}

// Reconcile groups the lines into a reconciliation. All lines must be valid,
// on one reconcilable account, and sum to zero after rounding.
//
// With a write-off, the residual is first booked as a two-line move between
// the common account and the write-off account, and the synthesized
// common-account line joins the reconciliation.
func (s *Service) Reconcile(ctx context.Context, lineIDs []id.ID, writeOff *WriteOff) (*Reconciliation, error) {
	var rec *Reconciliation
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		lines, err := s.lines.GetByIDs(ctx, lineIDs)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return apperror.NewInvalidReconciliation("no lines to reconcile")
		}

		if writeOff != nil {
			balancing, err := s.createWriteOff(ctx, lines, writeOff)
			if err != nil {
				return err
			}
			lines = append(lines, balancing)
		}

		if err := s.checkReconciliation(ctx, lines); err != nil {
			return err
		}

		name, err := s.seq.Next(ctx, reconciliationSequence, time.Now().UTC())
		if err != nil {
			return err
		}
		rec = &Reconciliation{ID: id.New(), Name: name, Lines: lines}
		if err := s.reconciliation.Create(ctx, rec); err != nil {
			return err
		}

		ids := make([]id.ID, len(lines))
		for i, line := range lines {
			ids[i] = line.ID
		}
		if err := s.lines.SetReconciliation(ctx, ids, &rec.ID); err != nil {
			return err
		}

		logger.Info(ctx, "lines reconciled", "reconciliation_id", rec.ID,
			"name", name, "lines", len(ids))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// createWriteOff books the residual of the lines as a two-line move and
// returns the synthesized line on the common account.
func (s *Service) createWriteOff(ctx context.Context, lines []*Line, wo *WriteOff) (*Line, error) {
	acc, err := s.accounts.GetByID(ctx, lines[0].AccountID)
	if err != nil {
		return nil, err
	}
	currencyID, err := s.companies.CurrencyOf(ctx, acc.CompanyID)
	if err != nil {
		return nil, err
	}

	amount := types.Zero()
	for _, line := range lines {
		amount = amount.Add(line.Amount())
	}
	amount, err = s.currencies.Round(ctx, currencyID, amount)
	if err != nil {
		return nil, err
	}

	date := wo.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}
	period, err := s.periods.FindPeriod(ctx, acc.CompanyID, date)
	if err != nil {
		return nil, err
	}

	move, err := s.createMove(ctx, CreateMoveInput{
		JournalID: wo.JournalID,
		PeriodID:  period.ID,
		Date:      date,
	})
	if err != nil {
		return nil, err
	}

	// The common-account line cancels the residual; the write-off account
	// absorbs it.
	balancing := NewLine(acc.ID, negPart(amount), posPart(amount))
	balancing.MoveID = move.ID
	balancing.Name = "Write-Off"
	absorbing := NewLine(wo.AccountID, posPart(amount), negPart(amount))
	absorbing.MoveID = move.ID
	absorbing.Name = "Write-Off"

	if err := s.ensureJournalPeriod(ctx, move.JournalID, move.PeriodID); err != nil {
		return nil, err
	}
	if err := s.lines.Create(ctx, balancing); err != nil {
		return nil, err
	}
	if err := s.lines.Create(ctx, absorbing); err != nil {
		return nil, err
	}
	if err := s.Validate(ctx, move.ID); err != nil {
		return nil, err
	}

	// Reload for the post-validation state.
	return s.lines.GetByID(ctx, balancing.ID)
}

// checkReconciliation enforces the creation-time invariants.
func (s *Service) checkReconciliation(ctx context.Context, lines []*Line) error {
	accountID := lines[0].AccountID
	amount := types.Zero()
	for _, line := range lines {
		if line.State != LineStateValid {
			return apperror.NewInvalidReconciliation("only valid lines can be reconciled").
				WithDetail("line_id", line.ID)
		}
		if line.IsReconciled() {
			return apperror.NewLineReconciled(line.ID)
		}
		if line.AccountID != accountID {
			return apperror.NewInvalidReconciliation("all lines must share one account")
		}
		amount = amount.Add(line.Amount())
	}

	acc, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return err
	}
	if !acc.Reconcile {
		return apperror.NewInvalidReconciliation("account does not allow reconciliation").
			WithDetail("account", acc.Code)
	}
	currencyID, err := s.companies.CurrencyOf(ctx, acc.CompanyID)
	if err != nil {
		return err
	}
	zero, err := s.currencies.IsZero(ctx, currencyID, amount)
	if err != nil {
		return err
	}
	if !zero {
		return apperror.NewInvalidReconciliation("reconciled lines must sum to zero").
			WithDetail("amount", amount.String())
	}
	return nil
}

// Unreconcile deletes the reconciliations the lines belong to, releasing
// every member line. Deletion is the only way to undo a reconciliation.
func (s *Service) Unreconcile(ctx context.Context, lineIDs []id.ID) error {
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		lines, err := s.lines.GetByIDs(ctx, lineIDs)
		if err != nil {
			return err
		}
		seen := make(map[id.ID]bool)
		for _, line := range lines {
			if line.ReconciliationID == nil || seen[*line.ReconciliationID] {
				continue
			}
			seen[*line.ReconciliationID] = true
			rec, err := s.reconciliation.GetByID(ctx, *line.ReconciliationID)
			if err != nil {
				return err
			}
			member := make([]id.ID, len(rec.Lines))
			for i, l := range rec.Lines {
				member[i] = l.ID
			}
			if err := s.lines.SetReconciliation(ctx, member, nil); err != nil {
				return err
			}
			if err := s.reconciliation.Delete(ctx, rec.ID); err != nil {
				return err
			}
			logger.Info(ctx, "reconciliation deleted",
				"reconciliation_id", rec.ID, "name", rec.Name)
		}
		return nil
	})
}

// PartyBalance returns the outstanding amount of a party on an account: the
// signed sum of its unreconciled valid lines.
func (s *Service) PartyBalance(ctx context.Context, partyID, accountID id.ID) (types.Money, error) {
	return s.lines.SumUnreconciled(ctx, partyID, accountID)
}

func posPart(amount types.Money) types.Money {
	if amount.IsPositive() {
		return amount
	}
	return types.Zero()
}

func negPart(amount types.Money) types.Money {
	if amount.IsNegative() {
		return amount.Neg()
	}
	return types.Zero()
}
