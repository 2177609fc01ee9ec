// Package events is the in-process event bus connecting the ingestion
// pipeline to its listeners. It carries no business logic.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event is implemented by everything published on a Bus.
type Event interface {
	// EventName is the subscription key, e.g. "leads.alert.raised".
	EventName() string
	OccurredAt() time.Time
}

// BaseEvent carries the identity and timestamp shared by all events.
type BaseEvent struct {
	EventID   uuid.UUID `json:"eventId"`
	Timestamp time.Time `json:"timestamp"`
}

// OccurredAt returns when the event occurred.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// NewBaseEvent stamps an event with a fresh ID and the current time.
func NewBaseEvent() BaseEvent {
	return NewBaseEventAt(time.Now())
}

// NewBaseEventAt stamps an event with a fresh ID and t in UTC.
func NewBaseEventAt(t time.Time) BaseEvent {
	return BaseEvent{EventID: uuid.New(), Timestamp: t.UTC()}
}

// Handler processes one event.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, event Event) error

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus publishes events to the handlers subscribed to their name.
type Bus interface {
	// Publish dispatches asynchronously; handler errors are logged, not returned.
	Publish(ctx context.Context, event Event)
	// PublishSync runs the handlers in order and joins their errors.
	PublishSync(ctx context.Context, event Event) error
	Subscribe(eventName string, handler Handler)
}
