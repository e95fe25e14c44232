package apihttp

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"predictive-maintenance/internal/alerts/application/events"
	alerts "predictive-maintenance/internal/alerts/domain"
	detection "predictive-maintenance/internal/detection/domain"
)

func TestBrokerBroadcastsToSubscribers(t *testing.T) {
	broker := NewSSEBroker()
	ch := broker.Subscribe()
	defer broker.Unsubscribe(ch)

	event := events.AlertRaised{
		EventID: "evt-1",
		Record: alerts.Record{
			MachineID: 3,
			Timestamp: 7,
			Status:    detection.LabelHighTemperature,
		},
		OccurredAt: time.Now().UTC(),
	}
	if err := broker.HandleAlertRaised(context.Background(), event); err != nil {
		t.Fatal(err)
	}

	select {
	case payload := <-ch:
		var record alerts.Record
		if err := json.Unmarshal(payload, &record); err != nil {
			t.Fatal(err)
		}
		if record.MachineID != 3 || record.Status != detection.LabelHighTemperature {
			t.Fatalf("record = %+v", record)
		}
	case <-time.After(time.Second):
		t.Fatal("no payload delivered")
	}
}

func TestBrokerDropsWhenClientIsSlow(t *testing.T) {
	broker := NewSSEBroker()
	ch := broker.Subscribe()
	defer broker.Unsubscribe(ch)

	// Fill the client buffer and keep publishing; the broker must not block.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			_ = broker.HandleAlertRaised(context.Background(), events.AlertRaised{
				Record: alerts.Record{MachineID: i},
			})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked on a slow client")
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	broker := NewSSEBroker()
	ch := broker.Subscribe()
	broker.Unsubscribe(ch)

	_ = broker.HandleAlertRaised(context.Background(), events.AlertRaised{
		Record: alerts.Record{MachineID: 9},
	})

	select {
	case payload := <-ch:
		t.Fatalf("unexpected delivery after unsubscribe: %s", payload)
	default:
	}
}

func TestConcurrentUnsubscribeDoesNotPanicPublisher(t *testing.T) {
	broker := NewSSEBroker()

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				ch := broker.Subscribe()
				broker.Unsubscribe(ch)
			}
		}()
	}

	// Publishing must survive clients joining and leaving mid-broadcast.
	for i := 0; i < 5000; i++ {
		if err := broker.HandleAlertRaised(context.Background(), events.AlertRaised{
			Record: alerts.Record{MachineID: i},
		}); err != nil {
			t.Fatal(err)
		}
	}
	close(stop)
	wg.Wait()
}
