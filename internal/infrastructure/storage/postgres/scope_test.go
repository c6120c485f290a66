package postgres

import (
	"testing"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookkeeper/internal/core/id"
	"bookkeeper/internal/domain/scope"
)

func buildWhere(t *testing.T, rs scope.Resolved) (string, []any) {
	t.Helper()
	sql, args, err := squirrel.Select("1").
		From("doc_move_lines l").
		Join("doc_moves m ON m.id = l.move_id").
		Join("cat_periods p ON p.id = m.period_id").
		Where(ScopeConditions(rs)).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	require.NoError(t, err)
	return sql, args
}

func TestScopeConditions(t *testing.T) {
	periodID := id.New()
	fiscalYearID := id.New()

	t.Run("periods win over fiscal years", func(t *testing.T) {
		sql, args := buildWhere(t, scope.Resolved{
			PeriodIDs:     []id.ID{periodID},
			FiscalYearIDs: []id.ID{fiscalYearID},
		})
		assert.Contains(t, sql, "m.period_id IN")
		assert.NotContains(t, sql, "p.fiscalyear_id")
		assert.Equal(t, []any{periodID}, args)
	})

	t.Run("fiscal years alone", func(t *testing.T) {
		sql, args := buildWhere(t, scope.Resolved{
			FiscalYearIDs: []id.ID{fiscalYearID},
		})
		assert.Contains(t, sql, "p.fiscalyear_id IN")
		assert.Equal(t, []any{fiscalYearID}, args)
	})

	t.Run("empty scope matches nothing", func(t *testing.T) {
		sql, args := buildWhere(t, scope.Resolved{})
		assert.Contains(t, sql, "FALSE")
		assert.Empty(t, args)
	})

	t.Run("posted and date bounds", func(t *testing.T) {
		date := time.Date(2026, time.June, 30, 0, 0, 0, 0, time.UTC)
		sql, args := buildWhere(t, scope.Resolved{
			PeriodIDs: []id.ID{periodID},
			Posted:    true,
			Date:      &date,
		})
		assert.Contains(t, sql, "m.state =")
		assert.Contains(t, sql, "m.date <=")
		assert.Equal(t, []any{periodID, "posted", date}, args)
	})
}
