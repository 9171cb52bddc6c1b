package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisBroker bridges instances through a Redis pub/sub channel
type RedisBroker struct {
	client  *redis.Client
	channel string
	logger  zerolog.Logger

	mu     sync.Mutex
	pubsub *redis.PubSub
}

// NewRedisBroker connects to the Redis server named by rawURL
func NewRedisBroker(rawURL, channel string, logger zerolog.Logger) (*RedisBroker, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	return &RedisBroker{
		client:  redis.NewClient(opts),
		channel: channel,
		logger:  logger.With().Str("broker", "redis").Logger(),
	}, nil
}

// Publish sends env to every subscribed instance
func (b *RedisBroker) Publish(ctx context.Context, env Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	return b.client.Publish(ctx, b.channel, data).Err()
}

// Subscribe confirms the subscription and then delivers in a background goroutine
// until Close is called.
func (b *RedisBroker) Subscribe(ctx context.Context, deliver DeliverFunc) error {
	pubsub := b.client.Subscribe(ctx, b.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("subscribe to %s: %w", b.channel, err)
	}

	b.mu.Lock()
	b.pubsub = pubsub
	b.mu.Unlock()

	go func() {
		for msg := range pubsub.Channel() {
			var env Envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				b.logger.Warn().Err(err).Msg("Dropping malformed envelope")
				continue
			}
			deliver(env)
		}
	}()

	b.logger.Info().Str("channel", b.channel).Msg("Subscribed to realtime channel")
	return nil
}

// Close ends the subscription and the connection pool
func (b *RedisBroker) Close() error {
	b.mu.Lock()
	pubsub := b.pubsub
	b.pubsub = nil
	b.mu.Unlock()

	if pubsub != nil {
		_ = pubsub.Close()
	}
	return b.client.Close()
}
