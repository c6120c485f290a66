package catalog_repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"bookkeeper/internal/core/id"
	"bookkeeper/internal/core/types"
	"bookkeeper/internal/domain/catalogs/taxcode"
	"bookkeeper/internal/domain/scope"
	"bookkeeper/internal/infrastructure/storage/postgres"
)

const (
	taxCodeTable = "cat_tax_codes"
	taxLineTable = "doc_tax_lines"
)

// TaxCodeRepo implements taxcode.Repository.
type TaxCodeRepo struct {
	*BaseCatalogRepo[taxcode.TaxCode]
}

// NewTaxCodeRepo creates a new tax code repository.
func NewTaxCodeRepo(txm *postgres.TxManager) *TaxCodeRepo {
	return &TaxCodeRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[taxcode.TaxCode](
			txm,
			taxCodeTable,
			postgres.ExtractDBColumns[taxcode.TaxCode](),
		),
	}
}

// Delete removes the code and its whole subtree.
func (r *TaxCodeRepo) Delete(ctx context.Context, codeID id.ID) error {
	const query = `
		WITH RECURSIVE tree AS (
			SELECT id FROM cat_tax_codes WHERE id = $1
			UNION ALL
			SELECT c.id FROM cat_tax_codes c JOIN tree ON c.parent_id = tree.id
		)
		DELETE FROM cat_tax_codes WHERE id IN (SELECT id FROM tree)
	`
	if _, err := r.querier(ctx).Exec(ctx, query, codeID); err != nil {
		return fmt.Errorf("delete tax code subtree: %w", err)
	}
	return nil
}

// Subtree returns the recursive descendant closure of the given codes, the
// roots included.
func (r *TaxCodeRepo) Subtree(ctx context.Context, codeIDs []id.ID) ([]*taxcode.TaxCode, error) {
	if len(codeIDs) == 0 {
		return nil, nil
	}

	cols := strings.Join(r.selectCols, ", ")
	prefixed := strings.Join(prefixColumns("c", r.selectCols), ", ")
	query := fmt.Sprintf(`
		WITH RECURSIVE tree AS (
			SELECT %s FROM %s WHERE id = ANY($1::uuid[])
			UNION ALL
			SELECT %s FROM %s c JOIN tree ON c.parent_id = tree.id
		)
		SELECT DISTINCT %s FROM tree
	`, cols, taxCodeTable, prefixed, taxCodeTable, cols)

	var items []*taxcode.TaxCode
	if err := pgxscan.Select(ctx, r.querier(ctx), &items, query, codeIDs); err != nil {
		return nil, fmt.Errorf("select tax code subtree: %w", err)
	}
	return items, nil
}

// SumTaxLines returns the sum of tax-line amounts per active code over move
// lines visible in the resolved scope.
func (r *TaxCodeRepo) SumTaxLines(ctx context.Context, rs scope.Resolved, codeIDs []id.ID) (map[id.ID]types.Money, error) {
	if len(codeIDs) == 0 {
		return map[id.ID]types.Money{}, nil
	}

	q := r.Builder().
		Select("tl.code_id", "COALESCE(SUM(tl.amount), 0) AS amount").
		From(taxLineTable + " tl").
		Join(moveLineTable + " l ON l.id = tl.line_id").
		Join(moveTable + " m ON m.id = l.move_id").
		Join(periodTable + " p ON p.id = m.period_id").
		Join(taxCodeTable + " c ON c.id = tl.code_id").
		Where(squirrel.Eq{"tl.code_id": codeIDs}).
		Where(squirrel.Eq{"l.state": "valid"}).
		Where(squirrel.Eq{"c.active": true}).
		Where(postgres.ScopeConditions(rs)).
		GroupBy("tl.code_id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	type row struct {
		CodeID id.ID       `db:"code_id"`
		Amount types.Money `db:"amount"`
	}
	var rows []row
	if err := pgxscan.Select(ctx, r.querier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("sum tax lines: %w", err)
	}

	result := make(map[id.ID]types.Money, len(rows))
	for _, rw := range rows {
		result[rw.CodeID] = rw.Amount
	}
	return result, nil
}

// Ensure interface compliance.
var _ taxcode.Repository = (*TaxCodeRepo)(nil)
