package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	alerts "predictive-maintenance/internal/alerts/domain"
)

// NATS publishes every record as JSON on a fixed subject so downstream
// consumers (dashboards, pagers) can follow the alert stream.
type NATS struct {
	conn    *nats.Conn
	subject string
}

// NewNATS connects to the server and returns a publishing sink.
func NewNATS(url, subject string) (*NATS, error) {
	if url == "" {
		return nil, errors.New("nats sink: empty url")
	}
	if subject == "" {
		return nil, errors.New("nats sink: empty subject")
	}
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(10),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats sink: connect: %w", err)
	}
	return &NATS{conn: conn, subject: subject}, nil
}

// Emit implements the runner sink contract.
func (n *NATS) Emit(_ context.Context, record alerts.Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return n.conn.Publish(n.subject, data)
}

// Close drains and closes the connection.
func (n *NATS) Close() {
	if n.conn != nil {
		n.conn.Close()
	}
}
