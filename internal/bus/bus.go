// Package bus abstracts the real-time broadcast channel used to push
// visibility changes to observers. Delivery is at-most-once, best-effort;
// the synchronizer's poll loop is the correctness backstop.
package bus

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Handler consumes a raw message payload. Handlers for a topic are invoked
// in arrival order.
type Handler func(payload []byte)

// Bus is the publish/subscribe contract shared by the NATS and in-process
// implementations.
type Bus interface {
	Publish(ctx context.Context, topic string, payload []byte) error
	Subscribe(topic string, handler Handler) error
	Close()
}

// VisibilityEvent is the payload broadcast when a raffle's open-for-entry
// flag changes. Observers apply it optimistically; reconciliation wins ties.
type VisibilityEvent struct {
	EventID   string    `json:"eventId"`
	RaffleID  string    `json:"raffleId"`
	IsVisible bool      `json:"isVisible"`
	Timestamp time.Time `json:"timestamp"`
}

// NewVisibilityEvent builds a VisibilityEvent with a fresh event id.
func NewVisibilityEvent(raffleID string, visible bool) VisibilityEvent {
	return VisibilityEvent{
		EventID:   uuid.New().String(),
		RaffleID:  raffleID,
		IsVisible: visible,
		Timestamp: time.Now(),
	}
}

// Encode serializes the event for publishing.
func (e VisibilityEvent) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// DecodeVisibilityEvent parses a visibility event payload.
func DecodeVisibilityEvent(payload []byte) (VisibilityEvent, error) {
	var event VisibilityEvent
	err := json.Unmarshal(payload, &event)
	return event, err
}
