package sink

import (
	"context"
	"errors"
	"sync"

	alerts "predictive-maintenance/internal/alerts/domain"
)

// Memory keeps the most recent records in a bounded ring for the API layer.
// It also tracks running counters for the statistics endpoint.
type Memory struct {
	mu       sync.RWMutex
	buf      []alerts.Record
	head     int
	size     int
	total    int
	critical int
	warning  int
	normal   int
	latest   map[int]alerts.Record
}

// NewMemory builds a ring holding up to capacity records.
func NewMemory(capacity int) (*Memory, error) {
	if capacity <= 0 {
		return nil, errors.New("memory sink: capacity must be positive")
	}
	return &Memory{
		buf:    make([]alerts.Record, capacity),
		latest: make(map[int]alerts.Record),
	}, nil
}

// Emit implements the runner sink contract.
func (m *Memory) Emit(_ context.Context, record alerts.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.buf[(m.head+m.size)%len(m.buf)] = record
	if m.size < len(m.buf) {
		m.size++
	} else {
		m.head = (m.head + 1) % len(m.buf)
	}
	m.total++
	switch record.Severity() {
	case alerts.SeverityCritical:
		m.critical++
	case alerts.SeverityWarning:
		m.warning++
	default:
		m.normal++
	}
	m.latest[record.MachineID] = record
	return nil
}

// Recent returns up to limit most recent records, newest first.
func (m *Memory) Recent(limit int) []alerts.Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if limit <= 0 || limit > m.size {
		limit = m.size
	}
	out := make([]alerts.Record, 0, limit)
	for i := 0; i < limit; i++ {
		idx := (m.head + m.size - 1 - i + len(m.buf)) % len(m.buf)
		out = append(out, m.buf[idx])
	}
	return out
}

// Latest returns the most recent record for a machine.
func (m *Memory) Latest(machineID int) (alerts.Record, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	record, ok := m.latest[machineID]
	return record, ok
}

// Counts returns (total, critical, warning, normal) running counters.
func (m *Memory) Counts() (int, int, int, int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.total, m.critical, m.warning, m.normal
}

// MachineCounts returns per-machine critical and warning counts over the
// retained ring.
func (m *Memory) MachineCounts(machineID int) (critical, warning int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := 0; i < m.size; i++ {
		record := m.buf[(m.head+i)%len(m.buf)]
		if record.MachineID != machineID {
			continue
		}
		switch record.Severity() {
		case alerts.SeverityCritical:
			critical++
		case alerts.SeverityWarning:
			warning++
		}
	}
	return critical, warning
}

// All returns the retained records oldest first.
func (m *Memory) All() []alerts.Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]alerts.Record, 0, m.size)
	for i := 0; i < m.size; i++ {
		out = append(out, m.buf[(m.head+i)%len(m.buf)])
	}
	return out
}
