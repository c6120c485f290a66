package catalog_repo

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"bookkeeper/internal/core/apperror"
	"bookkeeper/internal/core/id"
	"bookkeeper/internal/core/types"
	"bookkeeper/internal/domain/catalogs/account"
	"bookkeeper/internal/domain/scope"
	"bookkeeper/internal/infrastructure/storage/postgres"
)

const (
	accountTable     = "cat_accounts"
	accountTypeTable = "cat_account_types"
	deferralTable    = "cat_account_deferrals"

	moveTable     = "doc_moves"
	moveLineTable = "doc_move_lines"
)

// AccountRepo implements account.Repository.
type AccountRepo struct {
	*BaseCatalogRepo[account.Account]
	typeCols     []string
	deferralCols []string
}

// NewAccountRepo creates a new account repository.
func NewAccountRepo(txm *postgres.TxManager) *AccountRepo {
	return &AccountRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[account.Account](
			txm,
			accountTable,
			postgres.ExtractDBColumns[account.Account](),
		),
		typeCols:     postgres.ExtractDBColumns[account.Type](),
		deferralCols: postgres.ExtractDBColumns[account.Deferral](),
	}
}

// FindByCode retrieves an account of the company by code.
func (r *AccountRepo) FindByCode(ctx context.Context, companyID id.ID, code string) (*account.Account, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"company_id": companyID}).
		Where(squirrel.Eq{"code": code}).
		Where(squirrel.Eq{"deletion_mark": false}).
		Limit(1)
	return r.FindOne(ctx, q)
}

// Subtree returns every account covered by the nested-set bounds of the given
// roots, the roots included.
func (r *AccountRepo) Subtree(ctx context.Context, accountIDs []id.ID) ([]*account.Account, error) {
	if len(accountIDs) == 0 {
		return nil, nil
	}

	q := r.Builder().
		Select(prefixColumns("d", r.selectCols)...).
		Options("DISTINCT").
		From(accountTable + " d").
		Join(accountTable + " r ON r.company_id = d.company_id AND d.lft >= r.lft AND d.rgt <= r.rgt").
		Where(squirrel.Eq{"r.id": accountIDs}).
		OrderBy("d.lft")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*account.Account
	if err := pgxscan.Select(ctx, r.querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("select subtree: %w", err)
	}
	return items, nil
}

// RebuildTree recomputes nested-set bounds for the whole company forest.
// The forest is loaded, walked depth-first in code order, and the bounds are
// written back in one statement.
func (r *AccountRepo) RebuildTree(ctx context.Context, companyID id.ID) error {
	q := r.Builder().
		Select("id", "parent_id", "code").
		From(accountTable).
		Where(squirrel.Eq{"company_id": companyID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	type node struct {
		ID       id.ID  `db:"id"`
		ParentID *id.ID `db:"parent_id"`
		Code     string `db:"code"`
	}
	var nodes []node
	if err := pgxscan.Select(ctx, r.querier(ctx), &nodes, sql, args...); err != nil {
		return fmt.Errorf("select tree nodes: %w", err)
	}
	if len(nodes) == 0 {
		return nil
	}

	children := make(map[id.ID][]node)
	var roots []node
	for _, n := range nodes {
		if n.ParentID == nil {
			roots = append(roots, n)
			continue
		}
		children[*n.ParentID] = append(children[*n.ParentID], n)
	}
	byCode := func(ns []node) {
		sort.Slice(ns, func(i, j int) bool { return ns[i].Code < ns[j].Code })
	}
	byCode(roots)
	for _, ns := range children {
		byCode(ns)
	}

	ids := make([]id.ID, 0, len(nodes))
	lefts := make([]int, 0, len(nodes))
	rights := make([]int, 0, len(nodes))

	counter := 0
	var walk func(n node)
	walk = func(n node) {
		counter++
		left := counter
		for _, c := range children[n.ID] {
			walk(c)
		}
		counter++
		ids = append(ids, n.ID)
		lefts = append(lefts, left)
		rights = append(rights, counter)
	}
	for _, root := range roots {
		walk(root)
	}

	const updateSQL = `
		UPDATE cat_accounts a
		SET lft = v.lft, rgt = v.rgt
		FROM (SELECT unnest($1::uuid[]) AS id, unnest($2::int[]) AS lft, unnest($3::int[]) AS rgt) v
		WHERE a.id = v.id
	`
	if _, err := r.querier(ctx).Exec(ctx, updateSQL, ids, lefts, rights); err != nil {
		return fmt.Errorf("update tree bounds: %w", err)
	}
	return nil
}

// HasLines reports whether any move line references the account.
func (r *AccountRepo) HasLines(ctx context.Context, accountID id.ID) (bool, error) {
	q := r.Builder().
		Select("1").
		From(moveLineTable).
		Where(squirrel.Eq{"account_id": accountID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var one int
	err = r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("has lines: %w", err)
	}
	return true, nil
}

// SumBalances returns debit minus credit per account over valid lines visible
// in the resolved scope. View and inactive accounts are skipped.
func (r *AccountRepo) SumBalances(ctx context.Context, rs scope.Resolved, accountIDs []id.ID) (map[id.ID]types.Money, error) {
	if len(accountIDs) == 0 {
		return map[id.ID]types.Money{}, nil
	}

	q := r.Builder().
		Select("l.account_id", "COALESCE(SUM(l.debit - l.credit), 0) AS balance").
		From(moveLineTable + " l").
		Join(moveTable + " m ON m.id = l.move_id").
		Join(periodTable + " p ON p.id = m.period_id").
		Join(accountTable + " a ON a.id = l.account_id").
		Where(squirrel.Eq{"l.account_id": accountIDs}).
		Where(squirrel.Eq{"l.state": "valid"}).
		Where(squirrel.NotEq{"a.kind": "view"}).
		Where(squirrel.Eq{"a.active": true}).
		Where(postgres.ScopeConditions(rs)).
		GroupBy("l.account_id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	type row struct {
		AccountID id.ID       `db:"account_id"`
		Balance   types.Money `db:"balance"`
	}
	var rows []row
	if err := pgxscan.Select(ctx, r.querier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("sum balances: %w", err)
	}

	result := make(map[id.ID]types.Money, len(rows))
	for _, rw := range rows {
		result[rw.AccountID] = rw.Balance
	}
	return result, nil
}

// SumCreditDebit returns per-account credit and debit sums over valid lines
// visible in the resolved scope.
func (r *AccountRepo) SumCreditDebit(ctx context.Context, rs scope.Resolved, accountIDs []id.ID) (map[id.ID]account.CreditDebit, error) {
	if len(accountIDs) == 0 {
		return map[id.ID]account.CreditDebit{}, nil
	}

	q := r.Builder().
		Select(
			"l.account_id",
			"COALESCE(SUM(l.credit), 0) AS credit",
			"COALESCE(SUM(l.debit), 0) AS debit",
		).
		From(moveLineTable + " l").
		Join(moveTable + " m ON m.id = l.move_id").
		Join(periodTable + " p ON p.id = m.period_id").
		Join(accountTable + " a ON a.id = l.account_id").
		Where(squirrel.Eq{"l.account_id": accountIDs}).
		Where(squirrel.Eq{"l.state": "valid"}).
		Where(squirrel.NotEq{"a.kind": "view"}).
		Where(squirrel.Eq{"a.active": true}).
		Where(postgres.ScopeConditions(rs)).
		GroupBy("l.account_id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	type row struct {
		AccountID id.ID       `db:"account_id"`
		Credit    types.Money `db:"credit"`
		Debit     types.Money `db:"debit"`
	}
	var rows []row
	if err := pgxscan.Select(ctx, r.querier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("sum credit debit: %w", err)
	}

	result := make(map[id.ID]account.CreditDebit, len(rows))
	for _, rw := range rows {
		result[rw.AccountID] = account.CreditDebit{Credit: rw.Credit, Debit: rw.Debit}
	}
	return result, nil
}

// ListDeferralAccounts returns active non-view accounts of the company
// flagged for deferral.
func (r *AccountRepo) ListDeferralAccounts(ctx context.Context, companyID id.ID) ([]*account.Account, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"company_id": companyID}).
		Where(squirrel.Eq{"deferral": true}).
		Where(squirrel.Eq{"active": true}).
		Where(squirrel.NotEq{"kind": "view"}).
		Where(squirrel.Eq{"deletion_mark": false}).
		OrderBy("code")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*account.Account
	if err := pgxscan.Select(ctx, r.querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list deferral accounts: %w", err)
	}
	return items, nil
}

// CreateType inserts a classification type.
func (r *AccountRepo) CreateType(ctx context.Context, t *account.Type) error {
	data := postgres.StructToMap(t)
	filtered := make(map[string]any, len(r.typeCols))
	for _, col := range r.typeCols {
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}

	q := r.Builder().Insert(accountTypeTable).SetMap(filtered)
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert account type: %w", err)
	}
	return nil
}

// GetType retrieves a classification type.
func (r *AccountRepo) GetType(ctx context.Context, typeID id.ID) (*account.Type, error) {
	q := r.Builder().
		Select(r.typeCols...).
		From(accountTypeTable).
		Where(squirrel.Eq{"id": typeID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var t account.Type
	if err := pgxscan.Get(ctx, r.querier(ctx), &t, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(accountTypeTable, typeID.String())
		}
		return nil, fmt.Errorf("get account type: %w", err)
	}
	return &t, nil
}

// CreateDeferral inserts a balance snapshot.
func (r *AccountRepo) CreateDeferral(ctx context.Context, d *account.Deferral) error {
	data := postgres.StructToMap(d)
	filtered := make(map[string]any, len(r.deferralCols))
	for _, col := range r.deferralCols {
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}

	q := r.Builder().Insert(deferralTable).SetMap(filtered)
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert deferral: %w", err)
	}
	return nil
}

// DeleteDeferrals removes all snapshots of a fiscal year.
func (r *AccountRepo) DeleteDeferrals(ctx context.Context, fiscalYearID id.ID) error {
	q := r.Builder().
		Delete(deferralTable).
		Where(squirrel.Eq{"fiscalyear_id": fiscalYearID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete deferrals: %w", err)
	}
	return nil
}

// GetDeferrals returns the snapshots of the given accounts for one fiscal
// year, keyed by account.
func (r *AccountRepo) GetDeferrals(ctx context.Context, fiscalYearID id.ID, accountIDs []id.ID) (map[id.ID]*account.Deferral, error) {
	if len(accountIDs) == 0 {
		return map[id.ID]*account.Deferral{}, nil
	}

	q := r.Builder().
		Select(r.deferralCols...).
		From(deferralTable).
		Where(squirrel.Eq{"fiscalyear_id": fiscalYearID}).
		Where(squirrel.Eq{"account_id": accountIDs})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*account.Deferral
	if err := pgxscan.Select(ctx, r.querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("get deferrals: %w", err)
	}

	result := make(map[id.ID]*account.Deferral, len(items))
	for _, d := range items {
		result[d.AccountID] = d
	}
	return result, nil
}

// Ensure interface compliance.
var _ account.Repository = (*AccountRepo)(nil)
