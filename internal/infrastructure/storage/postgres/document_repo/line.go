package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"bookkeeper/internal/core/apperror"
	"bookkeeper/internal/core/id"
	"bookkeeper/internal/core/types"
	"bookkeeper/internal/domain/ledger"
	"bookkeeper/internal/infrastructure/storage/postgres"
)

// LineRepo implements ledger.LineRepository.
type LineRepo struct {
	txm         *postgres.TxManager
	lineCols    []string
	taxLineCols []string
}

// NewLineRepo creates a new line repository.
func NewLineRepo(txm *postgres.TxManager) *LineRepo {
	return &LineRepo{
		txm:         txm,
		lineCols:    postgres.ExtractDBColumns[ledger.Line](),
		taxLineCols: postgres.ExtractDBColumns[ledger.TaxLine](),
	}
}

func (r *LineRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *LineRepo) querier(ctx context.Context) postgres.Querier {
	return r.txm.GetQuerier(ctx)
}

// Create inserts a line and its tax lines.
func (r *LineRepo) Create(ctx context.Context, l *ledger.Line) error {
	data := postgres.StructToMap(l)
	filtered := make(map[string]any, len(r.lineCols))
	for _, col := range r.lineCols {
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}

	q := r.builder().Insert(lineTable).SetMap(filtered)
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert line: %w", err)
	}

	if len(l.TaxLines) == 0 {
		return nil
	}
	tq := r.builder().Insert(taxLineTable).Columns("id", "line_id", "code_id", "amount")
	for _, tl := range l.TaxLines {
		tq = tq.Values(tl.ID, tl.LineID, tl.CodeID, tl.Amount)
	}
	sql, args, err = tq.ToSql()
	if err != nil {
		return fmt.Errorf("build tax line insert: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert tax lines: %w", err)
	}
	return nil
}

// Update stores line changes with optimistic locking. Tax lines are
// immutable once booked and are not touched.
func (r *LineRepo) Update(ctx context.Context, l *ledger.Line) error {
	data := postgres.StructToMap(l)
	filtered := make(map[string]any, len(r.lineCols))
	for _, col := range r.lineCols {
		if col == "id" || col == "version" {
			continue
		}
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}

	q := r.builder().
		Update(lineTable).
		SetMap(filtered).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": l.ID}).
		Where(squirrel.Eq{"version": l.Version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update line: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(lineTable, l.ID)
	}
	l.Version++
	return nil
}

// Delete removes a line and its tax lines.
func (r *LineRepo) Delete(ctx context.Context, lineID id.ID) error {
	dq := r.builder().Delete(taxLineTable).Where(squirrel.Eq{"line_id": lineID})
	sql, args, err := dq.ToSql()
	if err != nil {
		return fmt.Errorf("build tax line delete: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete tax lines: %w", err)
	}

	q := r.builder().Delete(lineTable).Where(squirrel.Eq{"id": lineID})
	sql, args, err = q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete line: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(lineTable, lineID.String())
	}
	return nil
}

// GetByID retrieves a line with its tax lines.
func (r *LineRepo) GetByID(ctx context.Context, lineID id.ID) (*ledger.Line, error) {
	q := r.builder().
		Select(r.lineCols...).
		From(lineTable).
		Where(squirrel.Eq{"id": lineID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var l ledger.Line
	if err := pgxscan.Get(ctx, r.querier(ctx), &l, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(lineTable, lineID.String())
		}
		return nil, fmt.Errorf("get line: %w", err)
	}
	if err := r.loadTaxLines(ctx, []*ledger.Line{&l}); err != nil {
		return nil, err
	}
	return &l, nil
}

// GetByIDs retrieves lines with their tax lines.
func (r *LineRepo) GetByIDs(ctx context.Context, lineIDs []id.ID) ([]*ledger.Line, error) {
	if len(lineIDs) == 0 {
		return nil, nil
	}

	q := r.builder().
		Select(r.lineCols...).
		From(lineTable).
		Where(squirrel.Eq{"id": lineIDs}).
		OrderBy("id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []*ledger.Line
	if err := pgxscan.Select(ctx, r.querier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	if err := r.loadTaxLines(ctx, lines); err != nil {
		return nil, err
	}
	return lines, nil
}

// UpdateState flips the state of the given lines.
func (r *LineRepo) UpdateState(ctx context.Context, lineIDs []id.ID, state ledger.LineState) error {
	if len(lineIDs) == 0 {
		return nil
	}

	q := r.builder().
		Update(lineTable).
		Set("state", state).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": lineIDs})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("update line state: %w", err)
	}
	return nil
}

// SetReconciliation points the lines at a reconciliation; nil clears it.
func (r *LineRepo) SetReconciliation(ctx context.Context, lineIDs []id.ID, reconciliationID *id.ID) error {
	if len(lineIDs) == 0 {
		return nil
	}

	q := r.builder().
		Update(lineTable).
		Set("reconciliation_id", reconciliationID).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": lineIDs})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("set reconciliation: %w", err)
	}
	return nil
}

// SumUnreconciled returns the signed outstanding amount of a party on an
// account over unreconciled valid lines.
func (r *LineRepo) SumUnreconciled(ctx context.Context, partyID, accountID id.ID) (types.Money, error) {
	q := r.builder().
		Select("COALESCE(SUM(debit - credit), 0)").
		From(lineTable).
		Where(squirrel.Eq{"party_id": partyID}).
		Where(squirrel.Eq{"account_id": accountID}).
		Where(squirrel.Eq{"state": ledger.LineStateValid}).
		Where(squirrel.Expr("reconciliation_id IS NULL"))

	sql, args, err := q.ToSql()
	if err != nil {
		return types.Zero(), fmt.Errorf("build query: %w", err)
	}

	var sum types.Money
	if err := r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&sum); err != nil {
		return types.Zero(), fmt.Errorf("sum unreconciled: %w", err)
	}
	return sum, nil
}

// listByMoves returns lines of the given moves ordered by id.
func (r *LineRepo) listByMoves(ctx context.Context, moveIDs []id.ID) ([]*ledger.Line, error) {
	q := r.builder().
		Select(r.lineCols...).
		From(lineTable).
		Where(squirrel.Eq{"move_id": moveIDs}).
		OrderBy("id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []*ledger.Line
	if err := pgxscan.Select(ctx, r.querier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("list lines: %w", err)
	}
	if err := r.loadTaxLines(ctx, lines); err != nil {
		return nil, err
	}
	return lines, nil
}

// listByReconciliation returns the member lines of a reconciliation.
func (r *LineRepo) listByReconciliation(ctx context.Context, reconciliationID id.ID) ([]*ledger.Line, error) {
	q := r.builder().
		Select(r.lineCols...).
		From(lineTable).
		Where(squirrel.Eq{"reconciliation_id": reconciliationID}).
		OrderBy("id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []*ledger.Line
	if err := pgxscan.Select(ctx, r.querier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("list reconciled lines: %w", err)
	}
	return lines, nil
}

func (r *LineRepo) loadTaxLines(ctx context.Context, lines []*ledger.Line) error {
	if len(lines) == 0 {
		return nil
	}
	lineIDs := make([]id.ID, len(lines))
	for i, l := range lines {
		lineIDs[i] = l.ID
	}

	q := r.builder().
		Select(r.taxLineCols...).
		From(taxLineTable).
		Where(squirrel.Eq{"line_id": lineIDs})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	var taxLines []*ledger.TaxLine
	if err := pgxscan.Select(ctx, r.querier(ctx), &taxLines, sql, args...); err != nil {
		return fmt.Errorf("load tax lines: %w", err)
	}
	if len(taxLines) == 0 {
		return nil
	}

	byLine := make(map[id.ID][]*ledger.TaxLine)
	for _, tl := range taxLines {
		byLine[tl.LineID] = append(byLine[tl.LineID], tl)
	}
	for _, l := range lines {
		l.TaxLines = byLine[l.ID]
	}
	return nil
}

// Ensure interface compliance.
var _ ledger.LineRepository = (*LineRepo)(nil)
