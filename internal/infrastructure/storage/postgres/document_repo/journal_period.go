package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"bookkeeper/internal/core/apperror"
	"bookkeeper/internal/core/id"
	"bookkeeper/internal/domain/ledger"
	"bookkeeper/internal/infrastructure/storage/postgres"
)

// JournalPeriodRepo implements ledger.JournalPeriodRepository.
type JournalPeriodRepo struct {
	txm  *postgres.TxManager
	cols []string
}

// NewJournalPeriodRepo creates a new journal-period repository.
func NewJournalPeriodRepo(txm *postgres.TxManager) *JournalPeriodRepo {
	return &JournalPeriodRepo{
		txm:  txm,
		cols: postgres.ExtractDBColumns[ledger.JournalPeriod](),
	}
}

func (r *JournalPeriodRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *JournalPeriodRepo) querier(ctx context.Context) postgres.Querier {
	return r.txm.GetQuerier(ctx)
}

// Create inserts a binding.
func (r *JournalPeriodRepo) Create(ctx context.Context, jp *ledger.JournalPeriod) error {
	data := postgres.StructToMap(jp)
	filtered := make(map[string]any, len(r.cols))
	for _, col := range r.cols {
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}

	q := r.builder().Insert(journalPeriodTable).SetMap(filtered)
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert journal period: %w", err)
	}
	return nil
}

// Update stores binding changes with optimistic locking.
func (r *JournalPeriodRepo) Update(ctx context.Context, jp *ledger.JournalPeriod) error {
	data := postgres.StructToMap(jp)
	filtered := make(map[string]any, len(r.cols))
	for _, col := range r.cols {
		if col == "id" || col == "version" {
			continue
		}
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}

	q := r.builder().
		Update(journalPeriodTable).
		SetMap(filtered).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": jp.ID}).
		Where(squirrel.Eq{"version": jp.Version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update journal period: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(journalPeriodTable, jp.ID)
	}
	jp.Version++
	return nil
}

// Find returns the binding of the (journal, period) pair.
func (r *JournalPeriodRepo) Find(ctx context.Context, journalID, periodID id.ID) (*ledger.JournalPeriod, error) {
	q := r.builder().
		Select(r.cols...).
		From(journalPeriodTable).
		Where(squirrel.Eq{"journal_id": journalID}).
		Where(squirrel.Eq{"period_id": periodID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var jp ledger.JournalPeriod
	if err := pgxscan.Get(ctx, r.querier(ctx), &jp, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(journalPeriodTable, journalID.String()+"/"+periodID.String())
		}
		return nil, fmt.Errorf("find journal period: %w", err)
	}
	return &jp, nil
}

// Ensure interface compliance.
var _ ledger.JournalPeriodRepository = (*JournalPeriodRepo)(nil)
