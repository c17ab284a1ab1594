package messaging

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/zap"
)

// Runnable is a background component with a start/stop lifecycle.
type Runnable interface {
	Start(ctx context.Context) error
	Shutdown() error
}

// ConsumerGroup runs stream consumers and periodic workers as one unit.
// Members start in registration order and stop in reverse.
type ConsumerGroup struct {
	members    []Runnable
	started    int
	subscriber message.Subscriber
	logger     *zap.Logger
}

// NewConsumerGroup creates a group. A non-nil subscriber is closed after every member has stopped.
func NewConsumerGroup(subscriber message.Subscriber, logger *zap.Logger) *ConsumerGroup {
	return &ConsumerGroup{
		subscriber: subscriber,
		logger:     logger,
	}
}

// Add registers a member. Members must be added before Start.
func (g *ConsumerGroup) Add(member Runnable) {
	g.members = append(g.members, member)
}

// Start starts every member. If one fails, the members already running are stopped.
func (g *ConsumerGroup) Start(ctx context.Context) error {
	for i, member := range g.members {
		if err := member.Start(ctx); err != nil {
			_ = g.stop()

			return fmt.Errorf("start group member %d: %w", i, err)
		}

		g.started = i + 1
	}

	g.logger.Info("consumer group started", zap.Int("members", len(g.members)))

	return nil
}

// Shutdown stops the members in reverse order, then closes the subscriber.
// Every member is asked to stop even if an earlier one fails.
func (g *ConsumerGroup) Shutdown() error {
	g.logger.Info("stopping consumer group", zap.Int("members", g.started))

	err := g.stop()

	if g.subscriber != nil {
		err = errors.Join(err, g.subscriber.Close())
	}

	return err
}

func (g *ConsumerGroup) stop() error {
	var errs []error

	for i := g.started - 1; i >= 0; i-- {
		if err := g.members[i].Shutdown(); err != nil {
			errs = append(errs, err)
		}
	}

	g.started = 0

	return errors.Join(errs...)
}
