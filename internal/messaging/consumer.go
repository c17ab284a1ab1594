package messaging

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/zap"
)

// Handler processes a single decoded event.
type Handler[T any] func(ctx context.Context, event *T) error

// ConsumerOption configures a Consumer.
type ConsumerOption func(*consumerConfig)

type consumerConfig struct {
	timeout  time.Duration
	attempts int
	backoff  time.Duration
}

// WithHandlerTimeout bounds every handler call. Zero means no per-call deadline.
func WithHandlerTimeout(d time.Duration) ConsumerOption {
	return func(c *consumerConfig) {
		c.timeout = d
	}
}

// WithRetry retries a failing handler in process before the message is nacked.
// The wait doubles after each failed attempt, starting at backoff.
func WithRetry(attempts int, backoff time.Duration) ConsumerOption {
	return func(c *consumerConfig) {
		if attempts > 0 {
			c.attempts = attempts
		}

		c.backoff = backoff
	}
}

// Stats counts messages by outcome since the consumer was created.
type Stats struct {
	Processed int64
	Dropped   int64
	Failed    int64
}

// Consumer decodes JSON messages from one topic and hands them to a typed handler.
// Malformed payloads are acked and dropped; handler failures are nacked for redelivery.
type Consumer[T any] struct {
	subscriber message.Subscriber
	topic      string
	handler    Handler[T]
	cfg        consumerConfig
	logger     *zap.Logger

	processed atomic.Int64
	dropped   atomic.Int64
	failed    atomic.Int64

	cancel context.CancelFunc
	done   chan struct{}
}

// NewConsumer creates a consumer for events of type T on topic.
func NewConsumer[T any](
	subscriber message.Subscriber,
	topic string,
	handler Handler[T],
	logger *zap.Logger,
	opts ...ConsumerOption,
) *Consumer[T] {
	cfg := consumerConfig{attempts: 1}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Consumer[T]{
		subscriber: subscriber,
		topic:      topic,
		handler:    handler,
		cfg:        cfg,
		logger:     logger.With(zap.String("topic", topic)),
		done:       make(chan struct{}),
	}
}

// Topic returns the subscribed topic.
func (c *Consumer[T]) Topic() string {
	return c.topic
}

// Stats returns a snapshot of the outcome counters.
func (c *Consumer[T]) Stats() Stats {
	return Stats{
		Processed: c.processed.Load(),
		Dropped:   c.dropped.Load(),
		Failed:    c.failed.Load(),
	}
}

// Start subscribes and processes messages in the background until Shutdown.
func (c *Consumer[T]) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)

	msgs, err := c.subscriber.Subscribe(ctx, c.topic)
	if err != nil {
		cancel()

		return err
	}

	c.cancel = cancel

	go c.run(ctx, msgs)

	return nil
}

func (c *Consumer[T]) run(ctx context.Context, msgs <-chan *message.Message) {
	defer close(c.done)

	for {
		var (
			msg *message.Message
			ok  bool
		)

		select {
		case <-ctx.Done():
			return
		case msg, ok = <-msgs:
		}

		if !ok {
			return
		}

		c.dispatch(ctx, msg)
	}
}

func (c *Consumer[T]) dispatch(ctx context.Context, msg *message.Message) {
	log := c.logger.With(zap.String("message_id", msg.UUID))

	event := new(T)
	if err := json.Unmarshal(msg.Payload, event); err != nil {
		c.dropped.Add(1)
		log.Error("dropping malformed event", zap.Error(err))
		msg.Ack()

		return
	}

	if err := c.handle(ctx, event); err != nil {
		c.failed.Add(1)
		log.Error("event handling failed", zap.Int("attempts", c.cfg.attempts), zap.Error(err))
		msg.Nack()

		return
	}

	c.processed.Add(1)
	msg.Ack()
	log.Debug("event processed")
}

func (c *Consumer[T]) handle(ctx context.Context, event *T) error {
	wait := c.cfg.backoff

	var err error

	for attempt := 1; ; attempt++ {
		if err = c.call(ctx, event); err == nil || attempt >= c.cfg.attempts {
			return err
		}

		select {
		case <-ctx.Done():
			return err
		case <-time.After(wait):
		}

		wait *= 2
	}
}

func (c *Consumer[T]) call(ctx context.Context, event *T) error {
	if c.cfg.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, c.cfg.timeout)
		defer cancel()
	}

	return c.handler(ctx, event)
}

// Shutdown stops consuming and waits for the message in flight.
func (c *Consumer[T]) Shutdown() error {
	if c.cancel == nil {
		return nil
	}

	c.cancel()
	<-c.done

	return nil
}
