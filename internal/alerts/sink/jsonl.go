package sink

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"

	alerts "predictive-maintenance/internal/alerts/domain"
)

// JSONLSink writes one JSON object per line, in emission order.
type JSONLSink struct {
	mu     sync.Mutex
	enc    *json.Encoder
	closer io.Closer
}

// NewJSONLSink wraps an open writer.
func NewJSONLSink(w io.Writer) (*JSONLSink, error) {
	if w == nil {
		return nil, errors.New("jsonl sink: nil writer")
	}
	return &JSONLSink{enc: json.NewEncoder(w)}, nil
}

// NewJSONLFileSink creates (or truncates) path and writes records to it.
func NewJSONLFileSink(path string) (*JSONLSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	s, err := NewJSONLSink(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	s.closer = f
	return s, nil
}

// Emit implements the runner sink contract.
func (s *JSONLSink) Emit(_ context.Context, record alerts.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.Encode(record)
}

// Close releases the underlying file, if any.
func (s *JSONLSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}
