package shared

import "context"

// EventHandler consumes domain events.
type EventHandler interface {
	// Handle processes one event. Errors are reported to the bus but do
	// not stop delivery to other handlers.
	Handle(ctx context.Context, event DomainEvent) error
	// EventTypes lists the event types this handler wants. An empty
	// slice subscribes it to every event.
	EventTypes() []string
}

// EventPublisher is the side of the bus the application layer sees:
// services publish events after their transaction commits.
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventSubscriber registers and removes handlers.
type EventSubscriber interface {
	// Subscribe registers a handler for the given event types, falling
	// back to the handler's own EventTypes when none are given.
	Subscribe(handler EventHandler, eventTypes ...string)
	// Unsubscribe removes the handler from every subscription.
	Unsubscribe(handler EventHandler)
}

// EventBus is a publisher and subscriber with a lifecycle.
type EventBus interface {
	EventPublisher
	EventSubscriber
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
