package catalog_repo

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"bookkeeper/internal/core/id"
	"bookkeeper/internal/domain/tax"
	"bookkeeper/internal/infrastructure/storage/postgres"
)

const taxTable = "cat_taxes"

// TaxRepo implements tax.Repository.
type TaxRepo struct {
	*BaseCatalogRepo[tax.Tax]
}

// NewTaxRepo creates a new tax repository.
func NewTaxRepo(txm *postgres.TxManager) *TaxRepo {
	return &TaxRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[tax.Tax](
			txm,
			taxTable,
			postgres.ExtractDBColumns[tax.Tax](),
		),
	}
}

// GetByID retrieves a tax with its child tree loaded, children ordered by
// (sequence, id).
func (r *TaxRepo) GetByID(ctx context.Context, taxID id.ID) (*tax.Tax, error) {
	t, err := r.BaseCatalogRepo.GetByID(ctx, taxID)
	if err != nil {
		return nil, err
	}
	if err := r.loadChildren(ctx, []*tax.Tax{t}); err != nil {
		return nil, err
	}
	return t, nil
}

// GetByIDs retrieves taxes with their child trees loaded.
func (r *TaxRepo) GetByIDs(ctx context.Context, taxIDs []id.ID) ([]*tax.Tax, error) {
	items, err := r.BaseCatalogRepo.GetByIDs(ctx, taxIDs)
	if err != nil {
		return nil, err
	}
	if err := r.loadChildren(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

// SortIDs returns the given tax ids ordered by (sequence, id).
func (r *TaxRepo) SortIDs(ctx context.Context, taxIDs []id.ID) ([]id.ID, error) {
	if len(taxIDs) == 0 {
		return nil, nil
	}

	q := r.Builder().
		Select("id").
		From(taxTable).
		Where(squirrel.Eq{"id": taxIDs}).
		OrderBy("sequence", "id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var sorted []id.ID
	if err := pgxscan.Select(ctx, r.querier(ctx), &sorted, sql, args...); err != nil {
		return nil, fmt.Errorf("sort tax ids: %w", err)
	}
	return sorted, nil
}

// loadChildren fetches the whole descendant closure of the given roots in one
// recursive query and hangs the subtrees off their parents.
func (r *TaxRepo) loadChildren(ctx context.Context, roots []*tax.Tax) error {
	if len(roots) == 0 {
		return nil
	}

	rootIDs := make([]id.ID, len(roots))
	for i, t := range roots {
		rootIDs[i] = t.ID
	}

	cols := strings.Join(r.selectCols, ", ")
	prefixed := strings.Join(prefixColumns("t", r.selectCols), ", ")
	query := fmt.Sprintf(`
		WITH RECURSIVE tree AS (
			SELECT %s FROM %s WHERE parent_id = ANY($1::uuid[])
			UNION ALL
			SELECT %s FROM %s t JOIN tree ON t.parent_id = tree.id
		)
		SELECT %s FROM tree
	`, cols, taxTable, prefixed, taxTable, cols)

	var descendants []*tax.Tax
	if err := pgxscan.Select(ctx, r.querier(ctx), &descendants, query, rootIDs); err != nil {
		return fmt.Errorf("select tax children: %w", err)
	}

	byParent := make(map[id.ID][]*tax.Tax)
	for _, d := range descendants {
		if d.ParentID == nil {
			continue
		}
		byParent[*d.ParentID] = append(byParent[*d.ParentID], d)
	}
	for _, children := range byParent {
		sortTaxes(children)
	}

	var attach func(t *tax.Tax)
	attach = func(t *tax.Tax) {
		t.Childs = byParent[t.ID]
		for _, c := range t.Childs {
			attach(c)
		}
	}
	for _, t := range roots {
		attach(t)
	}
	return nil
}

// sortTaxes orders siblings by (sequence, id).
func sortTaxes(ts []*tax.Tax) {
	sort.SliceStable(ts, func(i, j int) bool {
		if ts[i].Sequence != ts[j].Sequence {
			return ts[i].Sequence < ts[j].Sequence
		}
		return bytes.Compare(ts[i].ID[:], ts[j].ID[:]) < 0
	})
}

// Ensure interface compliance.
var _ tax.Repository = (*TaxRepo)(nil)
