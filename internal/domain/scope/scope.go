// Package scope defines the reporting scope for ledger queries.
//
// Balance, credit/debit and tax-code aggregations are always computed against
// an explicit Scope value instead of ambient request state, so every call site
// states which fiscal years, periods and posting states it reads.
package scope

import (
	"time"

	"bookkeeper/internal/core/id"
)

// Scope selects the move lines visible to an aggregation query.
//
// Resolution order mirrors the ledger conventions:
//   - Date set: the fiscal year containing Date, moves dated on or before it.
//   - PeriodIDs set: exactly those periods.
//   - FiscalYearID set: all periods of that fiscal year.
//   - Otherwise: all open fiscal years.
//
// Draft lines are never visible; Posted additionally restricts to posted moves.
type Scope struct {
	FiscalYearID id.ID
	PeriodIDs    []id.ID
	Posted       bool
	Date         *time.Time
}

// ForFiscalYear returns a scope over a single fiscal year.
func ForFiscalYear(fiscalYearID id.ID) Scope {
	return Scope{FiscalYearID: fiscalYearID}
}

// ForPeriods returns a scope over an explicit period list.
func ForPeriods(periodIDs ...id.ID) Scope {
	return Scope{PeriodIDs: periodIDs}
}

// AtDate returns a scope bounded by a date.
func AtDate(date time.Time) Scope {
	return Scope{Date: &date}
}

// WithPosted restricts the scope to posted moves.
func (s Scope) WithPosted() Scope {
	s.Posted = true
	return s
}

// HasFiscalYear reports whether an explicit fiscal year is set.
func (s Scope) HasFiscalYear() bool {
	return !id.IsNil(s.FiscalYearID)
}

// HasDate reports whether a date bound is set.
func (s Scope) HasDate() bool {
	return s.Date != nil
}
