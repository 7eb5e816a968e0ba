package bus

import (
	"context"
	"sync"
)

// MemoryBus is an in-process Bus used by tests and single-node deployments
// that do not run NATS. Publish dispatches synchronously, so per-topic
// ordering follows publish order.
type MemoryBus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	closed   bool
}

// NewMemoryBus creates an in-process bus
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{
		handlers: make(map[string][]Handler),
	}
}

// Publish delivers the payload to every subscriber of the topic
func (b *MemoryBus) Publish(ctx context.Context, topic string, payload []byte) error {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[topic]...)
	closed := b.closed
	b.mu.RUnlock()
	if closed {
		return nil
	}
	for _, handler := range handlers {
		handler(payload)
	}
	return nil
}

// Subscribe registers a handler for a topic
func (b *MemoryBus) Subscribe(topic string, handler Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = append(b.handlers[topic], handler)
	return nil
}

// Close drops all subscriptions
func (b *MemoryBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.handlers = make(map[string][]Handler)
}

var _ Bus = (*MemoryBus)(nil)
