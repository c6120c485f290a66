package ledger

import (
	"context"

	"bookkeeper/internal/core/id"
	"bookkeeper/internal/core/types"
)

// MoveRepository defines storage operations for moves.
type MoveRepository interface {
	Create(ctx context.Context, m *Move) error
	Update(ctx context.Context, m *Move) error
	Delete(ctx context.Context, moveID id.ID) error

	// GetByID returns the move with its lines loaded.
	GetByID(ctx context.Context, moveID id.ID) (*Move, error)
	GetByIDs(ctx context.Context, moveIDs []id.ID) ([]*Move, error)

	// FindOpenCentralised returns the single non-posted move of the
	// (journal, period) pair, locked FOR UPDATE, or a not-found error.
	FindOpenCentralised(ctx context.Context, journalID, periodID id.ID) (*Move, error)
}

// LineRepository defines storage operations for move lines.
type LineRepository interface {
	Create(ctx context.Context, l *Line) error
	Update(ctx context.Context, l *Line) error
	Delete(ctx context.Context, lineID id.ID) error

	GetByID(ctx context.Context, lineID id.ID) (*Line, error)
	GetByIDs(ctx context.Context, lineIDs []id.ID) ([]*Line, error)

	// UpdateState flips the state of the given lines.
	UpdateState(ctx context.Context, lineIDs []id.ID, state LineState) error

	// SetReconciliation points the lines at a reconciliation; nil clears it.
	SetReconciliation(ctx context.Context, lineIDs []id.ID, reconciliationID *id.ID) error

	// SumUnreconciled returns the signed outstanding amount of a party on an
	// account: the sum of debit minus credit over unreconciled valid lines.
	SumUnreconciled(ctx context.Context, partyID, accountID id.ID) (types.Money, error)
}

// ReconciliationRepository defines storage operations for reconciliations.
type ReconciliationRepository interface {
	Create(ctx context.Context, r *Reconciliation) error
	Delete(ctx context.Context, reconciliationID id.ID) error

	GetByID(ctx context.Context, reconciliationID id.ID) (*Reconciliation, error)
}

// JournalPeriodRepository defines storage operations for journal-period
// bindings.
type JournalPeriodRepository interface {
	Create(ctx context.Context, jp *JournalPeriod) error
	Update(ctx context.Context, jp *JournalPeriod) error

	// Find returns the binding of the pair, or a not-found error.
	Find(ctx context.Context, journalID, periodID id.ID) (*JournalPeriod, error)
}
