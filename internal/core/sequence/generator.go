// Package sequence provides domain contracts for ledger document numbering.
// Implementations live in infrastructure layer.
package sequence

import (
	"context"
	"time"
)

// Generator produces sequential names and references for ledger documents:
// move names, posting references, reconciliation names.
//
// Numbers are allocated strictly (UPDATE ... RETURNING) so that posted
// references have no gaps.
type Generator interface {
	// Next generates the next number.
	// Pattern: PREFIX-YEAR-XXXXX (e.g., MISC-2026-00001)
	Next(ctx context.Context, cfg Config, period time.Time) (string, error)

	// SetNext sets the next number value (for migration purposes).
	SetNext(ctx context.Context, cfg Config, period time.Time, value int64) error
}
