package sequence

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MockGenerator is a test implementation of Generator.
// Use in unit tests to avoid database dependencies.
type MockGenerator struct {
	NextFunc    func(ctx context.Context, cfg Config, period time.Time) (string, error)
	SetNextFunc func(ctx context.Context, cfg Config, period time.Time, value int64) error

	mu      sync.Mutex
	counter map[string]int64
}

// Next implements Generator.
// Without NextFunc it counts per prefix: PREFIX-00001, PREFIX-00002, ...
func (m *MockGenerator) Next(ctx context.Context, cfg Config, period time.Time) (string, error) {
	if m.NextFunc != nil {
		return m.NextFunc(ctx, cfg, period)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counter == nil {
		m.counter = make(map[string]int64)
	}
	m.counter[cfg.Prefix]++
	return fmt.Sprintf("%s-%05d", cfg.Prefix, m.counter[cfg.Prefix]), nil
}

// SetNext implements Generator.
func (m *MockGenerator) SetNext(ctx context.Context, cfg Config, period time.Time, value int64) error {
	if m.SetNextFunc != nil {
		return m.SetNextFunc(ctx, cfg, period, value)
	}
	return nil
}

// Ensure compile-time interface compliance.
var _ Generator = (*MockGenerator)(nil)
