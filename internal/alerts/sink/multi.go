package sink

import (
	"context"

	alerts "predictive-maintenance/internal/alerts/domain"
)

// Emitter matches the runner's sink contract without importing it.
type Emitter interface {
	Emit(ctx context.Context, record alerts.Record) error
}

// Multi fans a record out to every sink. All sinks are attempted; the first
// error is returned so the caller still sees partial failure.
type Multi struct {
	sinks []Emitter
}

// NewMulti builds a fan-out sink, dropping nil entries.
func NewMulti(sinks ...Emitter) *Multi {
	kept := make([]Emitter, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			kept = append(kept, s)
		}
	}
	return &Multi{sinks: kept}
}

// Emit implements the runner sink contract.
func (m *Multi) Emit(ctx context.Context, record alerts.Record) error {
	var firstErr error
	for _, s := range m.sinks {
		if err := s.Emit(ctx, record); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
