package sink

import (
	"context"
	"errors"
	"time"

	"predictive-maintenance/internal/alerts/application/events"
	alerts "predictive-maintenance/internal/alerts/domain"
	"predictive-maintenance/internal/eventing"
)

// Bus publishes an AlertRaised event for every record, decoupling live
// subscribers (SSE broker, webhook notifier) from the pipeline.
type Bus struct {
	bus eventing.Bus
}

// NewBus wraps an event bus as a sink.
func NewBus(bus eventing.Bus) (*Bus, error) {
	if bus == nil {
		return nil, errors.New("bus sink: nil bus")
	}
	return &Bus{bus: bus}, nil
}

// Emit implements the runner sink contract.
func (b *Bus) Emit(ctx context.Context, record alerts.Record) error {
	return b.bus.Publish(ctx, events.AlertRaised{
		EventID:    eventing.NewEventID(),
		Record:     record,
		OccurredAt: time.Now().UTC(),
	})
}
