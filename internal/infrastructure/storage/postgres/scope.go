package postgres

import (
	"github.com/Masterminds/squirrel"

	"bookkeeper/internal/domain/scope"
)

// ScopeConditions translates a resolved aggregation scope into SQL predicates
// over the move ("m") and period ("p") aliases. Queries using it must join
// doc_moves as m and cat_periods as p.
//
// Period ids win over fiscal year ids; an empty scope matches nothing.
func ScopeConditions(rs scope.Resolved) squirrel.And {
	var conds squirrel.And

	switch {
	case len(rs.PeriodIDs) > 0:
		conds = append(conds, squirrel.Eq{"m.period_id": rs.PeriodIDs})
	case len(rs.FiscalYearIDs) > 0:
		conds = append(conds, squirrel.Eq{"p.fiscalyear_id": rs.FiscalYearIDs})
	default:
		conds = append(conds, squirrel.Expr("FALSE"))
	}

	if rs.Posted {
		conds = append(conds, squirrel.Eq{"m.state": "posted"})
	}
	if rs.Date != nil {
		conds = append(conds, squirrel.LtOrEq{"m.date": *rs.Date})
	}
	return conds
}
