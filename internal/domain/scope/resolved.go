package scope

import (
	"time"

	"bookkeeper/internal/core/id"
)

// Resolved is a Scope with fiscal years looked up: the form repositories
// translate into SQL predicates over move lines.
//
// When PeriodIDs is set it wins over FiscalYearIDs; when Date is set the
// moves are additionally bounded by it.
type Resolved struct {
	FiscalYearIDs []id.ID
	PeriodIDs     []id.ID
	Posted        bool
	Date          *time.Time
}
