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

// ReconciliationRepo implements ledger.ReconciliationRepository.
type ReconciliationRepo struct {
	txm   *postgres.TxManager
	lines *LineRepo
}

// NewReconciliationRepo creates a new reconciliation repository.
func NewReconciliationRepo(txm *postgres.TxManager, lines *LineRepo) *ReconciliationRepo {
	return &ReconciliationRepo{txm: txm, lines: lines}
}

func (r *ReconciliationRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *ReconciliationRepo) querier(ctx context.Context) postgres.Querier {
	return r.txm.GetQuerier(ctx)
}

// Create inserts a reconciliation. Member lines are linked separately via the
// line repository.
func (r *ReconciliationRepo) Create(ctx context.Context, rec *ledger.Reconciliation) error {
	q := r.builder().
		Insert(reconciliationTbl).
		Columns("id", "name").
		Values(rec.ID, rec.Name)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert reconciliation: %w", err)
	}
	return nil
}

// Delete removes a reconciliation row.
func (r *ReconciliationRepo) Delete(ctx context.Context, reconciliationID id.ID) error {
	q := r.builder().
		Delete(reconciliationTbl).
		Where(squirrel.Eq{"id": reconciliationID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete reconciliation: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(reconciliationTbl, reconciliationID.String())
	}
	return nil
}

// GetByID retrieves a reconciliation with its member lines.
func (r *ReconciliationRepo) GetByID(ctx context.Context, reconciliationID id.ID) (*ledger.Reconciliation, error) {
	q := r.builder().
		Select("id", "name").
		From(reconciliationTbl).
		Where(squirrel.Eq{"id": reconciliationID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rec ledger.Reconciliation
	if err := pgxscan.Get(ctx, r.querier(ctx), &rec, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(reconciliationTbl, reconciliationID.String())
		}
		return nil, fmt.Errorf("get reconciliation: %w", err)
	}

	lines, err := r.lines.listByReconciliation(ctx, rec.ID)
	if err != nil {
		return nil, err
	}
	rec.Lines = lines
	return &rec, nil
}

// Ensure interface compliance.
var _ ledger.ReconciliationRepository = (*ReconciliationRepo)(nil)
