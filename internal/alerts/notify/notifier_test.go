package notify

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	alerts "predictive-maintenance/internal/alerts/domain"
	detection "predictive-maintenance/internal/detection/domain"
)

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) Advance(d time.Duration) { f.now = f.now.Add(d) }

type captureChannel struct {
	sent []string
}

func (c *captureChannel) Send(_ context.Context, content string) error {
	c.sent = append(c.sent, content)
	return nil
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func anomalousRecord(machineID int) alerts.Record {
	avgTemp := 300.0
	avgVib := 1500.0
	return alerts.Record{
		MachineID:            machineID,
		Timestamp:            5,
		Temperature:          325,
		Vibration:            1500,
		AvgTemperature:       &avgTemp,
		TemperatureDeviation: 25,
		AvgVibration:         &avgVib,
		Status:               detection.LabelHighTemperature,
	}
}

func TestNotifierSkipsNormalRecords(t *testing.T) {
	channel := &captureChannel{}
	n, err := NewNotifier(channel, "", WithLogger(quietLogger()))
	if err != nil {
		t.Fatal(err)
	}

	n.Notify(context.Background(), alerts.Record{MachineID: 1, Status: detection.StatusNormal})
	if len(channel.sent) != 0 {
		t.Fatalf("sent %d messages for a normal record, want 0", len(channel.sent))
	}
}

func TestNotifierRendersDefaultTemplate(t *testing.T) {
	channel := &captureChannel{}
	n, err := NewNotifier(channel, "", WithLogger(quietLogger()))
	if err != nil {
		t.Fatal(err)
	}

	n.Notify(context.Background(), anomalousRecord(7))
	if len(channel.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(channel.sent))
	}
	content := channel.sent[0]
	for _, want := range []string{"Machine: 7", detection.LabelHighTemperature, "325.00 K", "avg 300.00"} {
		if !strings.Contains(content, want) {
			t.Fatalf("message missing %q:\n%s", want, content)
		}
	}
}

func TestNotifierRendersAbsentAveragesAsNA(t *testing.T) {
	channel := &captureChannel{}
	n, err := NewNotifier(channel, "", WithLogger(quietLogger()))
	if err != nil {
		t.Fatal(err)
	}

	record := anomalousRecord(1)
	record.AvgTemperature = nil
	record.AvgVibration = nil
	n.Notify(context.Background(), record)
	if len(channel.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(channel.sent))
	}
	if !strings.Contains(channel.sent[0], "avg N/A") {
		t.Fatalf("message missing N/A average:\n%s", channel.sent[0])
	}
}

func TestNotifierCooldownPerMachine(t *testing.T) {
	channel := &captureChannel{}
	clock := &fakeClock{now: time.Unix(1000, 0)}
	n, err := NewNotifier(channel, "",
		WithLogger(quietLogger()),
		WithClock(clock),
		WithCooldown(time.Minute),
	)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	n.Notify(ctx, anomalousRecord(1))
	n.Notify(ctx, anomalousRecord(1)) // inside cooldown, suppressed
	n.Notify(ctx, anomalousRecord(2)) // different machine, sent
	if len(channel.sent) != 2 {
		t.Fatalf("sent %d messages, want 2", len(channel.sent))
	}

	clock.Advance(2 * time.Minute)
	n.Notify(ctx, anomalousRecord(1))
	if len(channel.sent) != 3 {
		t.Fatalf("sent %d messages after cooldown expiry, want 3", len(channel.sent))
	}
}

func TestWebhookChannelPayload(t *testing.T) {
	payloadCh := make(chan webhookPayload, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		var payload webhookPayload
		if err := json.Unmarshal(body, &payload); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		payloadCh <- payload
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	channel, err := NewWebhookChannel(server.URL, WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatal(err)
	}
	if err := channel.Send(context.Background(), "hello"); err != nil {
		t.Fatal(err)
	}

	select {
	case payload := <-payloadCh:
		if payload.MsgType != "text" || payload.Text.Content != "hello" {
			t.Fatalf("payload = %+v", payload)
		}
	case <-time.After(time.Second):
		t.Fatal("webhook not called")
	}
}

func TestWebhookChannelNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	channel, err := NewWebhookChannel(server.URL, WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatal(err)
	}
	if err := channel.Send(context.Background(), "hello"); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}
