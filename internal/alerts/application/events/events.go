package events

import (
	"time"

	alerts "predictive-maintenance/internal/alerts/domain"
)

// AlertRaised is published on the in-process bus for every record the engine
// emits, anomalous or not. Subscribers filter on severity themselves.
type AlertRaised struct {
	EventID    string        `json:"event_id"`
	Record     alerts.Record `json:"record"`
	OccurredAt time.Time     `json:"occurred_at"`
}
