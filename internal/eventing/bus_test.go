package eventing

import (
	"context"
	"errors"
	"testing"
)

type testEvent struct {
	Value int
}

type otherEvent struct{}

func TestPublishDispatchesToSubscribers(t *testing.T) {
	bus := NewInMemoryBus()
	var got []int
	SubscribeTo(bus, func(_ context.Context, event testEvent) error {
		got = append(got, event.Value)
		return nil
	})

	if err := bus.Publish(context.Background(), testEvent{Value: 42}); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != 42 {
		t.Fatalf("handler received %v, want [42]", got)
	}
}

func TestPublishIgnoresOtherEventTypes(t *testing.T) {
	bus := NewInMemoryBus()
	var called bool
	SubscribeTo(bus, func(_ context.Context, _ testEvent) error {
		called = true
		return nil
	})

	if err := bus.Publish(context.Background(), otherEvent{}); err != nil {
		t.Fatal(err)
	}
	if called {
		t.Fatal("handler for testEvent must not see otherEvent")
	}
}

func TestPublishRunsAllHandlersAndReturnsFirstError(t *testing.T) {
	bus := NewInMemoryBus()
	firstErr := errors.New("first")
	var order []string
	bus.Subscribe(EventTypeOf[testEvent](), func(context.Context, any) error {
		order = append(order, "a")
		return firstErr
	})
	bus.Subscribe(EventTypeOf[testEvent](), func(context.Context, any) error {
		order = append(order, "b")
		return errors.New("second")
	})

	err := bus.Publish(context.Background(), testEvent{})
	if !errors.Is(err, firstErr) {
		t.Fatalf("expected first handler error, got %v", err)
	}
	if len(order) != 2 {
		t.Fatalf("ran %d handlers, want 2", len(order))
	}
}

func TestPublishNilEvent(t *testing.T) {
	bus := NewInMemoryBus()
	if err := bus.Publish(context.Background(), nil); !errors.Is(err, ErrNilEvent) {
		t.Fatalf("expected ErrNilEvent, got %v", err)
	}
}

func TestEventTypeUnwrapsPointers(t *testing.T) {
	if EventType(&testEvent{}) != EventType(testEvent{}) {
		t.Fatal("pointer and value of the same event must share a type name")
	}
	if EventTypeOf[testEvent]() != EventType(testEvent{}) {
		t.Fatal("EventTypeOf must agree with EventType")
	}
}
