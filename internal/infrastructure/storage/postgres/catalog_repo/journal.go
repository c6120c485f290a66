package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"bookkeeper/internal/core/id"
	"bookkeeper/internal/core/sequence"
	"bookkeeper/internal/domain/catalogs/journal"
	"bookkeeper/internal/infrastructure/storage/postgres"
)

const journalTable = "cat_journals"

// JournalRepo implements journal.Repository.
type JournalRepo struct {
	*BaseCatalogRepo[journal.Journal]
}

// NewJournalRepo creates a new journal repository.
func NewJournalRepo(txm *postgres.TxManager) *JournalRepo {
	return &JournalRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[journal.Journal](
			txm,
			journalTable,
			postgres.ExtractDBColumns[journal.Journal](),
		),
	}
}

// GetByID retrieves a journal. The move sequence is derived from the code.
func (r *JournalRepo) GetByID(ctx context.Context, journalID id.ID) (*journal.Journal, error) {
	j, err := r.BaseCatalogRepo.GetByID(ctx, journalID)
	if err != nil {
		return nil, err
	}
	j.Sequence = sequence.DefaultConfig(j.Code)
	return j, nil
}

// FindByCode retrieves a journal by code.
func (r *JournalRepo) FindByCode(ctx context.Context, code string) (*journal.Journal, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"code": code}).
		Where(squirrel.Eq{"deletion_mark": false}).
		Limit(1)

	j, err := r.FindOne(ctx, q)
	if err != nil {
		return nil, err
	}
	j.Sequence = sequence.DefaultConfig(j.Code)
	return j, nil
}

// List retrieves journals, optionally restricted to active ones.
func (r *JournalRepo) List(ctx context.Context, activeOnly bool) ([]*journal.Journal, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"deletion_mark": false}).
		OrderBy("code")
	if activeOnly {
		q = q.Where(squirrel.Eq{"active": true})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*journal.Journal
	if err := pgxscan.Select(ctx, r.querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list journals: %w", err)
	}
	for _, j := range items {
		j.Sequence = sequence.DefaultConfig(j.Code)
	}
	return items, nil
}
