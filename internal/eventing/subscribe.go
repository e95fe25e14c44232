package eventing

import "context"

// SubscribeTo registers a typed handler for events of type T. Events of a
// different concrete type on the same name are ignored rather than panicking.
func SubscribeTo[T any](bus Bus, handler func(ctx context.Context, event T) error) {
	if bus == nil || handler == nil {
		return
	}
	bus.Subscribe(EventTypeOf[T](), func(ctx context.Context, event any) error {
		typed, ok := event.(T)
		if !ok {
			return nil
		}
		return handler(ctx, typed)
	})
}
