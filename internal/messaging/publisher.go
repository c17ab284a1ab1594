package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// MetadataTopic carries the topic name alongside the payload.
const MetadataTopic = "topic"

// ErrPublisherClosed is returned when publishing after the group shut down.
var ErrPublisherClosed = errors.New("publisher closed")

// Publish sends one typed event.
type Publish[T any] func(ctx context.Context, event *T) error

// Identified events reuse their own ID as the message UUID, so redeliveries stay deduplicable.
type Identified interface {
	MessageID() string
}

// NewPublishFunc returns a JSON publisher of T events on topic.
func NewPublishFunc[T any](publisher message.Publisher, topic string) Publish[T] {
	return func(ctx context.Context, event *T) error {
		payload, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("encode %s event: %w", topic, err)
		}

		id := watermill.NewUUID()
		if identified, ok := any(event).(Identified); ok && identified.MessageID() != "" {
			id = identified.MessageID()
		}

		msg := message.NewMessage(id, payload)
		msg.Metadata.Set(MetadataTopic, topic)
		msg.SetContext(ctx)

		return publisher.Publish(topic, msg)
	}
}

// PublisherGroup owns the stream publisher. It is itself a message.Publisher
// that rejects messages once shut down.
type PublisherGroup struct {
	mu        sync.RWMutex
	publisher message.Publisher
	closed    bool
}

var _ message.Publisher = (*PublisherGroup)(nil)

// NewPublisherGroup wraps publisher.
func NewPublisherGroup(publisher message.Publisher) *PublisherGroup {
	return &PublisherGroup{publisher: publisher}
}

func (g *PublisherGroup) Publish(topic string, msgs ...*message.Message) error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.closed {
		return ErrPublisherClosed
	}

	return g.publisher.Publish(topic, msgs...)
}

// Close is Shutdown, for message.Publisher.
func (g *PublisherGroup) Close() error {
	return g.Shutdown()
}

// Shutdown closes the underlying publisher once. Publishes in flight finish first.
func (g *PublisherGroup) Shutdown() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return nil
	}

	g.closed = true

	return g.publisher.Close()
}
