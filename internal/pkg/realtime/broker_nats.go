package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// NATSBroker bridges instances through a NATS subject
type NATSBroker struct {
	conn    *nats.Conn
	subject string
	logger  zerolog.Logger
}

// NewNATSBroker connects to the NATS server named by rawURL
func NewNATSBroker(rawURL, subject string, logger zerolog.Logger) (*NATSBroker, error) {
	log := logger.With().Str("broker", "nats").Logger()

	conn, err := nats.Connect(rawURL,
		nats.Name("campuslink-realtime"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("Disconnected from NATS")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("Reconnected to NATS")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	return &NATSBroker{conn: conn, subject: subject, logger: log}, nil
}

// Publish sends env to every subscribed instance
func (b *NATSBroker) Publish(_ context.Context, env Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	return b.conn.Publish(b.subject, data)
}

// Subscribe registers deliver and flushes so the interest is known to the server
// before returning.
func (b *NATSBroker) Subscribe(_ context.Context, deliver DeliverFunc) error {
	_, err := b.conn.Subscribe(b.subject, func(msg *nats.Msg) {
		var env Envelope
		if err := json.Unmarshal(msg.Data, &env); err != nil {
			b.logger.Warn().Err(err).Msg("Dropping malformed envelope")
			return
		}
		deliver(env)
	})
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", b.subject, err)
	}

	if err := b.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("flush subscription: %w", err)
	}

	b.logger.Info().Str("subject", b.subject).Msg("Subscribed to realtime subject")
	return nil
}

// Close drains pending messages and closes the connection
func (b *NATSBroker) Close() error {
	return b.conn.Drain()
}
