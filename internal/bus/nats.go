package bus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"golang.org/x/exp/slog"
)

// NATSBus implements Bus over a core NATS connection. Core NATS gives the
// at-most-once delivery the visibility contract asks for; subscriptions
// receive messages for a subject in arrival order.
type NATSBus struct {
	nc   *nats.Conn
	mu   sync.Mutex
	subs []*nats.Subscription
}

// ConnectNATS dials the NATS server and returns a bus backed by it
func ConnectNATS(url, name string) (*NATSBus, error) {
	opts := []nats.Option{
		nats.Name(name),
		nats.MaxReconnects(10),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				slog.Error("NATS disconnected", "error", err)
			} else {
				slog.Warn("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("NATS reconnected")
		}),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	slog.Info("Connected to NATS", "url", url)
	return &NATSBus{nc: nc}, nil
}

// Publish sends the payload on the subject
func (b *NATSBus) Publish(ctx context.Context, topic string, payload []byte) error {
	if err := b.nc.Publish(topic, payload); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	return nil
}

// Subscribe registers a handler for the subject
func (b *NATSBus) Subscribe(topic string, handler Handler) error {
	sub, err := b.nc.Subscribe(topic, func(msg *nats.Msg) {
		handler(msg.Data)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}
	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()
	return nil
}

// Close drains the subscriptions and closes the connection
func (b *NATSBus) Close() {
	b.mu.Lock()
	subs := b.subs
	b.subs = nil
	b.mu.Unlock()
	for _, sub := range subs {
		if err := sub.Unsubscribe(); err != nil {
			slog.Warn("failed to unsubscribe", "subject", sub.Subject, "error", err)
		}
	}
	b.nc.Close()
}

var _ Bus = (*NATSBus)(nil)
