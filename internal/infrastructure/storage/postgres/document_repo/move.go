// Package document_repo provides PostgreSQL implementations for the posting
// engine repositories: moves, lines, reconciliations and journal-period
// bindings.
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

const (
	moveTable          = "doc_moves"
	lineTable          = "doc_move_lines"
	taxLineTable       = "doc_tax_lines"
	reconciliationTbl  = "doc_reconciliations"
	journalPeriodTable = "doc_journal_periods"
)

// MoveRepo implements ledger.MoveRepository.
type MoveRepo struct {
	txm      *postgres.TxManager
	moveCols []string
	lines    *LineRepo
}

// NewMoveRepo creates a new move repository.
func NewMoveRepo(txm *postgres.TxManager, lines *LineRepo) *MoveRepo {
	return &MoveRepo{
		txm:      txm,
		moveCols: postgres.ExtractDBColumns[ledger.Move](),
		lines:    lines,
	}
}

func (r *MoveRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *MoveRepo) querier(ctx context.Context) postgres.Querier {
	return r.txm.GetQuerier(ctx)
}

// Create inserts a move.
func (r *MoveRepo) Create(ctx context.Context, m *ledger.Move) error {
	data := postgres.StructToMap(m)
	filtered := make(map[string]any, len(r.moveCols))
	for _, col := range r.moveCols {
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}

	q := r.builder().Insert(moveTable).SetMap(filtered)
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert move: %w", err)
	}
	return nil
}

// Update stores move changes with optimistic locking.
func (r *MoveRepo) Update(ctx context.Context, m *ledger.Move) error {
	data := postgres.StructToMap(m)
	filtered := make(map[string]any, len(r.moveCols))
	for _, col := range r.moveCols {
		if col == "id" || col == "version" || col == "created_at" || col == "updated_at" {
			continue
		}
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}

	q := r.builder().
		Update(moveTable).
		SetMap(filtered).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": m.ID}).
		Where(squirrel.Eq{"version": m.Version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update move: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(moveTable, m.ID)
	}
	m.Version++
	return nil
}

// Delete removes a move row. Lines are deleted by the caller first.
func (r *MoveRepo) Delete(ctx context.Context, moveID id.ID) error {
	q := r.builder().
		Delete(moveTable).
		Where(squirrel.Eq{"id": moveID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete move: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(moveTable, moveID.String())
	}
	return nil
}

// GetByID retrieves a move with its lines loaded.
func (r *MoveRepo) GetByID(ctx context.Context, moveID id.ID) (*ledger.Move, error) {
	q := r.builder().
		Select(r.moveCols...).
		From(moveTable).
		Where(squirrel.Eq{"id": moveID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var m ledger.Move
	if err := pgxscan.Get(ctx, r.querier(ctx), &m, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(moveTable, moveID.String())
		}
		return nil, fmt.Errorf("get move: %w", err)
	}
	if err := r.loadLines(ctx, []*ledger.Move{&m}); err != nil {
		return nil, err
	}
	return &m, nil
}

// GetByIDs retrieves moves with their lines loaded.
func (r *MoveRepo) GetByIDs(ctx context.Context, moveIDs []id.ID) ([]*ledger.Move, error) {
	if len(moveIDs) == 0 {
		return nil, nil
	}

	q := r.builder().
		Select(r.moveCols...).
		From(moveTable).
		Where(squirrel.Eq{"id": moveIDs})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var moves []*ledger.Move
	if err := pgxscan.Select(ctx, r.querier(ctx), &moves, sql, args...); err != nil {
		return nil, fmt.Errorf("get moves: %w", err)
	}
	if err := r.loadLines(ctx, moves); err != nil {
		return nil, err
	}
	return moves, nil
}

// FindOpenCentralised returns the single draft move of the (journal, period)
// pair, locked for the duration of the transaction.
func (r *MoveRepo) FindOpenCentralised(ctx context.Context, journalID, periodID id.ID) (*ledger.Move, error) {
	q := r.builder().
		Select(r.moveCols...).
		From(moveTable).
		Where(squirrel.Eq{"journal_id": journalID}).
		Where(squirrel.Eq{"period_id": periodID}).
		Where(squirrel.Eq{"state": ledger.MoveStateDraft}).
		Where(squirrel.Expr("centralised_line_id IS NOT NULL")).
		Limit(1).
		Suffix("FOR UPDATE")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var m ledger.Move
	if err := pgxscan.Get(ctx, r.querier(ctx), &m, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(moveTable, journalID.String()+"/"+periodID.String())
		}
		return nil, fmt.Errorf("find open centralised move: %w", err)
	}
	if err := r.loadLines(ctx, []*ledger.Move{&m}); err != nil {
		return nil, err
	}
	return &m, nil
}

// loadLines attaches lines to their moves, ordered by id (UUIDv7, so
// effectively by creation time).
func (r *MoveRepo) loadLines(ctx context.Context, moves []*ledger.Move) error {
	if len(moves) == 0 {
		return nil
	}
	moveIDs := make([]id.ID, len(moves))
	for i, m := range moves {
		moveIDs[i] = m.ID
	}

	lines, err := r.lines.listByMoves(ctx, moveIDs)
	if err != nil {
		return err
	}

	byMove := make(map[id.ID][]*ledger.Line)
	for _, l := range lines {
		byMove[l.MoveID] = append(byMove[l.MoveID], l)
	}
	for _, m := range moves {
		m.Lines = byMove[m.ID]
	}
	return nil
}

// Ensure interface compliance.
var _ ledger.MoveRepository = (*MoveRepo)(nil)
