package apihttp

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"predictive-maintenance/internal/alerts/application/events"
)

// clientBuffer bounds how many undelivered frames a subscriber may lag
// behind before the broker starts dropping frames for it.
const clientBuffer = 16

// SSEBroker fans out alert events to connected stream clients.
//
// Channels are owned by the broker and never closed: a subscriber leaves by
// calling Unsubscribe and returning from its handler, so a publish racing a
// disconnect at worst delivers into a channel nobody drains anymore.
type SSEBroker struct {
	mu      sync.Mutex
	clients map[chan []byte]struct{}
}

// NewSSEBroker constructs a broker with no subscribers.
func NewSSEBroker() *SSEBroker {
	return &SSEBroker{clients: make(map[chan []byte]struct{})}
}

// HandleAlertRaised publishes an alert event to every subscriber.
func (b *SSEBroker) HandleAlertRaised(_ context.Context, event events.AlertRaised) error {
	if b == nil {
		return nil
	}
	payload, err := json.Marshal(event.Record)
	if err != nil {
		return nil
	}
	b.publish(payload)
	return nil
}

// Subscribe registers a new client and returns its receive channel.
func (b *SSEBroker) Subscribe() chan []byte {
	if b == nil {
		return nil
	}
	ch := make(chan []byte, clientBuffer)
	b.mu.Lock()
	b.clients[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a client. The channel stays open; once removed it
// receives nothing further.
func (b *SSEBroker) Unsubscribe(ch chan []byte) {
	if b == nil || ch == nil {
		return
	}
	b.mu.Lock()
	delete(b.clients, ch)
	b.mu.Unlock()
}

// publish delivers the payload to every registered client without blocking.
// Sends happen under the lock so membership cannot change mid-delivery; a
// client with a full buffer misses this frame.
func (b *SSEBroker) publish(payload []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.clients {
		select {
		case ch <- payload:
		default:
		}
	}
}

// StreamHandler serves the SSE alert stream.
type StreamHandler struct {
	broker *SSEBroker
}

// NewStreamHandler constructs a stream handler.
func NewStreamHandler(broker *SSEBroker) *StreamHandler {
	return &StreamHandler{broker: broker}
}

func writeEvent(w http.ResponseWriter, flusher http.Flusher, name string, data []byte) {
	_, _ = w.Write([]byte("event: "))
	_, _ = w.Write([]byte(name))
	_, _ = w.Write([]byte("\ndata: "))
	_, _ = w.Write(data)
	_, _ = w.Write([]byte("\n\n"))
	flusher.Flush()
}

// ServeHTTP handles GET /api/v1/alerts/stream.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.broker == nil {
		http.Error(w, "stream not ready", http.StatusServiceUnavailable)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "stream unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := h.broker.Subscribe()
	if ch == nil {
		http.Error(w, "stream not ready", http.StatusServiceUnavailable)
		return
	}
	defer h.broker.Unsubscribe(ch)

	writeEvent(w, flusher, "ready", []byte("{}"))

	for {
		select {
		case payload := <-ch:
			writeEvent(w, flusher, "alert", payload)
		case <-r.Context().Done():
			return
		}
	}
}
