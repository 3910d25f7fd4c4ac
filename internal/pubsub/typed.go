package pubsub

import (
	"context"
	"encoding/json"
)

// Event[T] binds a topic name to its payload type.
type Event[T any] struct {
	topicName string
}

// NewEvent creates a typed event for topic name.
func NewEvent[T any](name string) Event[T] {
	return Event[T]{topicName: name}
}

// Name returns the topic name.
func (e Event[T]) Name() string {
	return e.topicName
}

// Publish sends a typed event. The compiler ensures 'payload' matches 'T'.
func Publish[T any](ctx context.Context, p Publisher, event Event[T], sessionID string, payload T) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return p.Publish(ctx, Message{
		Topic:     event.Name(),
		SessionID: sessionID,
		Payload:   data,
	})
}

// Decode unmarshals a message payload published for event.
func Decode[T any](event Event[T], msg Message) (T, error) {
	var out T
	err := json.Unmarshal(msg.Payload, &out)
	return out, err
}
