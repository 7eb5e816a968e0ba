package bus

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBus(t *testing.T) {
	ctx := context.Background()

	t.Run("delivers to subscribers in publish order", func(t *testing.T) {
		b := NewMemoryBus()
		var got []string
		require.NoError(t, b.Subscribe("topic", func(payload []byte) {
			got = append(got, string(payload))
		}))

		require.NoError(t, b.Publish(ctx, "topic", []byte("first")))
		require.NoError(t, b.Publish(ctx, "topic", []byte("second")))
		assert.Equal(t, []string{"first", "second"}, got)
	})

	t.Run("topics are independent", func(t *testing.T) {
		b := NewMemoryBus()
		delivered := 0
		require.NoError(t, b.Subscribe("a", func([]byte) { delivered++ }))

		require.NoError(t, b.Publish(ctx, "b", []byte("x")))
		assert.Zero(t, delivered)
	})

	t.Run("close drops subscriptions", func(t *testing.T) {
		b := NewMemoryBus()
		delivered := 0
		require.NoError(t, b.Subscribe("topic", func([]byte) { delivered++ }))
		b.Close()

		require.NoError(t, b.Publish(ctx, "topic", []byte("x")))
		assert.Zero(t, delivered)
	})
}

func TestVisibilityEventRoundTrip(t *testing.T) {
	event := NewVisibilityEvent("64b000000000000000000000", true)
	assert.NotEmpty(t, event.EventID)

	payload, err := event.Encode()
	require.NoError(t, err)

	decoded, err := DecodeVisibilityEvent(payload)
	require.NoError(t, err)
	assert.Equal(t, event.RaffleID, decoded.RaffleID)
	assert.True(t, decoded.IsVisible)

	_, err = DecodeVisibilityEvent([]byte("{broken"))
	assert.Error(t, err)
}
