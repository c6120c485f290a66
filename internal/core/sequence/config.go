// Package sequence provides domain contracts for ledger document numbering.
package sequence

// Config holds numbering configuration.
type Config struct {
	// Prefix added to all numbers (e.g., "MISC", "PST", "REC")
	Prefix string

	// IncludeYear adds the fiscal year to the number
	IncludeYear bool

	// PadWidth is the minimum number width (default 5)
	PadWidth int

	// ResetPeriod: "year", "month", "never"
	ResetPeriod string

	// Strict numbering draws values inside the caller's transaction so a
	// rollback leaves no gap. Used for posting references.
	Strict bool
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(prefix string) Config {
	return Config{
		Prefix:      prefix,
		IncludeYear: true,
		PadWidth:    5,
		ResetPeriod: "year",
	}
}

// StrictConfig returns a gapless numbering configuration.
func StrictConfig(prefix string) Config {
	cfg := DefaultConfig(prefix)
	cfg.Strict = true
	return cfg
}
