package realtime

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// ErrBrokerClosed is returned after Close
var ErrBrokerClosed = errors.New("broker closed")

// DeliverFunc receives every envelope published by any instance
type DeliverFunc func(Envelope)

// Broker fans envelopes out to every instance. Delivery is at-most-once with no
// replay for instances that were not subscribed when an envelope was published.
type Broker interface {
	Publish(ctx context.Context, env Envelope) error
	Subscribe(ctx context.Context, deliver DeliverFunc) error
	Close() error
}

// NewBroker picks the implementation from the URL scheme: empty keeps everything
// in-process, redis:// and rediss:// use Redis pub/sub, nats:// and tls:// use NATS.
func NewBroker(rawURL, channel string, logger zerolog.Logger) (Broker, error) {
	if strings.TrimSpace(rawURL) == "" {
		return NewLocalBroker(), nil
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid broker url: %w", err)
	}

	switch u.Scheme {
	case "redis", "rediss":
		return NewRedisBroker(rawURL, channel, logger)
	case "nats", "tls":
		return NewNATSBroker(rawURL, channel, logger)
	default:
		return nil, fmt.Errorf("unsupported broker scheme %q", u.Scheme)
	}
}

// LocalBroker delivers synchronously to the subscribers of this process
type LocalBroker struct {
	mu          sync.RWMutex
	subscribers []DeliverFunc
	closed      bool
}

// NewLocalBroker creates an in-process broker
func NewLocalBroker() *LocalBroker {
	return &LocalBroker{}
}

// Publish hands env to every subscriber before returning
func (b *LocalBroker) Publish(_ context.Context, env Envelope) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrBrokerClosed
	}
	for _, deliver := range b.subscribers {
		deliver(env)
	}
	return nil
}

// Subscribe registers deliver for all future envelopes
func (b *LocalBroker) Subscribe(_ context.Context, deliver DeliverFunc) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrBrokerClosed
	}
	b.subscribers = append(b.subscribers, deliver)
	return nil
}

// Close drops all subscribers
func (b *LocalBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	b.subscribers = nil
	return nil
}
