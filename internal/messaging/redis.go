package messaging

import (
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewRedisPublisher creates a Redis Streams publisher.
func NewRedisPublisher(client redis.UniversalClient, logger *zap.Logger) (message.Publisher, error) {
	return redisstream.NewPublisher(
		redisstream.PublisherConfig{
			Client:     client,
			Marshaller: redisstream.DefaultMarshallerUnmarshaller{},
		},
		NewZapAdapter(logger),
	)
}

// NewRedisSubscriber creates a Redis Streams subscriber reading as consumerGroup.
// Messages that are not acked stay pending and are claimed again later.
func NewRedisSubscriber(client redis.UniversalClient, consumerGroup string, logger *zap.Logger) (message.Subscriber, error) {
	return redisstream.NewSubscriber(
		redisstream.SubscriberConfig{
			Client:        client,
			Unmarshaller:  redisstream.DefaultMarshallerUnmarshaller{},
			ConsumerGroup: consumerGroup,
		},
		NewZapAdapter(logger),
	)
}
