package shared

import "context"

// EventHandler reacts to delivered events. An empty EventTypes subscribes
// to every type.
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	EventTypes() []string
}

// EventDispatcher hands events to subscribed handlers. A non-nil error means
// at least one handler failed and the delivery should be retried.
type EventDispatcher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventRecorder writes domain events into the outbox of the current
// transaction. Nothing is dispatched until the transaction commits.
type EventRecorder interface {
	Record(ctx context.Context, events ...DomainEvent) error
}
