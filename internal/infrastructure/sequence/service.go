// Package sequence provides the PostgreSQL implementation of document
// numbering. It implements core/sequence.Generator.
package sequence

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	coresequence "bookkeeper/internal/core/sequence"
	"bookkeeper/internal/infrastructure/storage/postgres"
)

// Querier is the minimal database surface the generator needs.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Service generates sequential document numbers backed by the sys_sequences
// table.
//
// Strict sequences draw inside the caller's transaction, so a rollback leaves
// no gap; non-strict ones draw on the pool directly and an aborted caller
// simply burns the number.
type Service struct {
	txm  *postgres.TxManager
	pool *pgxpool.Pool
}

// Ensure compile-time interface compliance.
var _ coresequence.Generator = (*Service)(nil)

// New creates a new sequence generator.
func New(txm *postgres.TxManager, pool *pgxpool.Pool) *Service {
	return &Service{txm: txm, pool: pool}
}

func (s *Service) querier(ctx context.Context, strict bool) Querier {
	if strict {
		return s.txm.GetQuerier(ctx)
	}
	return s.pool
}

// Next generates the next number.
// Pattern: PREFIX-YEAR-XXXXX (e.g., MISC-2026-00001)
func (s *Service) Next(ctx context.Context, cfg coresequence.Config, period time.Time) (string, error) {
	key := buildKey(cfg, period)

	var num int64
	err := s.querier(ctx, cfg.Strict).QueryRow(ctx, `
		INSERT INTO sys_sequences (key, current_val)
		VALUES ($1, 1)
		ON CONFLICT (key) DO UPDATE SET current_val = sys_sequences.current_val + 1
		RETURNING current_val
	`, key).Scan(&num)
	if err != nil {
		return "", fmt.Errorf("next number for %s: %w", key, err)
	}

	return formatNumber(cfg, period, num), nil
}

// SetNext sets the next number value (for migration purposes).
func (s *Service) SetNext(ctx context.Context, cfg coresequence.Config, period time.Time, value int64) error {
	key := buildKey(cfg, period)

	var result int64
	err := s.querier(ctx, cfg.Strict).QueryRow(ctx, `
		INSERT INTO sys_sequences (key, current_val)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET current_val = $2
		RETURNING current_val
	`, key, value).Scan(&result)
	if err != nil {
		return fmt.Errorf("set next for %s: %w", key, err)
	}
	return nil
}

// buildKey creates the sequence key based on config and period.
func buildKey(cfg coresequence.Config, period time.Time) string {
	switch cfg.ResetPeriod {
	case "month":
		return fmt.Sprintf("%s_%s", cfg.Prefix, period.Format("2006_01"))
	case "year":
		return fmt.Sprintf("%s_%s", cfg.Prefix, period.Format("2006"))
	default:
		return cfg.Prefix
	}
}

// formatNumber creates the final number string.
func formatNumber(cfg coresequence.Config, period time.Time, num int64) string {
	padWidth := cfg.PadWidth
	if padWidth == 0 {
		padWidth = 5
	}

	if cfg.IncludeYear {
		return fmt.Sprintf("%s-%s-%0*d", cfg.Prefix, period.Format("2006"), padWidth, num)
	}
	return fmt.Sprintf("%s-%0*d", cfg.Prefix, padWidth, num)
}
