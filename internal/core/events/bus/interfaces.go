package bus

import "time"

// Bus is an in-process pub/sub for world events.
//
// Delivery is synchronous in the publisher goroutine and follows subscription
// order, so a publisher on the tick goroutine sees its handlers run before
// Publish returns. Handler errors are joined and returned. All methods are
// safe for concurrent use; hosts subscribe from their own goroutines and must
// not block inside handlers.
type Bus interface {
	// Publish delivers event to the subscribers of event.Type() and to
	// wildcard subscribers.
	Publish(event Event) error
	// PublishBatch publishes events in order and aggregates their errors.
	PublishBatch(events ...Event) error

	// Subscribe registers handler for eventType. Wildcard receives every
	// event.
	Subscribe(eventType string, handler Handler) (Subscription, error)
	// Unsubscribe cancels sub. Nil is ignored.
	Unsubscribe(sub Subscription) error

	AddObserver(obs Observer)
	RemoveObserver(obs Observer)
	// Metrics returns delivery counters since the bus was created.
	Metrics() Metrics
}

// Event is an immutable message transported by the Bus.
type Event interface {
	Type() string
	Source() string
	Timestamp() time.Time
	Data() any
}

// Handler is invoked once per delivered event.
type Handler func(event Event) error

// Subscription is a registered handler bound to an event type.
type Subscription interface {
	ID() string
	EventType() string
	IsActive() bool
	// Cancel de-registers the handler. Multiple calls are safe.
	Cancel() error
}

// Observer is notified around every delivery. Observers should return quickly.
type Observer interface {
	OnPublish(eventType string, event Event)
	OnDelivered(eventType string, handlers int, err error, took time.Duration)
}

type Metrics struct {
	Published         uint64 `json:"published"`
	DeliveredHandlers uint64 `json:"delivered_handlers"`
	Errors            uint64 `json:"errors"`
	SubscribersActive uint64 `json:"subscribers_active"`
}
