package broker_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relay/broker"
)

func TestPublish(t *testing.T) {
	t.Run("given subscriber when published then message is received in order", func(t *testing.T) {
		b := broker.New(4)
		sub := b.Subscribe(broker.ClientSocket, "conn-a")

		require.NoError(t, b.Publish(broker.ClientSocket, "conn-a", "first"))
		require.NoError(t, b.Publish(broker.ClientSocket, "conn-a", "second"))

		assert.Equal(t, "first", <-sub.Receive())
		assert.Equal(t, "second", <-sub.Receive())
	})

	t.Run("given no subscriber when published then nothing happens", func(t *testing.T) {
		b := broker.New(4)
		assert.NoError(t, b.Publish(broker.ClientSocket, "nobody", "hello"))
	})

	t.Run("given other detail when published then subscriber receives nothing", func(t *testing.T) {
		b := broker.New(4)
		sub := b.Subscribe(broker.ClientSocket, "conn-a")
		require.NoError(t, b.Publish(broker.ClientSocket, "conn-b", "hello"))

		select {
		case msg := <-sub.Receive():
			t.Fatalf("unexpected message %v", msg)
		default:
		}
	})

	t.Run("given full queue when published then return ErrQueueFull", func(t *testing.T) {
		b := broker.New(1)
		b.Subscribe(broker.ClientSocket, "conn-a")

		require.NoError(t, b.Publish(broker.ClientSocket, "conn-a", "first"))
		assert.ErrorIs(t, b.Publish(broker.ClientSocket, "conn-a", "second"), broker.ErrQueueFull)
	})
}

func TestUnsubscribe(t *testing.T) {
	t.Run("given subscription when unsubscribed then channel is closed and removed", func(t *testing.T) {
		b := broker.New(4)
		sub := b.Subscribe(broker.ClientSocket, "conn-a")
		assert.True(t, b.HasSubscriber(broker.ClientSocket, "conn-a"))

		require.NoError(t, b.Unsubscribe(broker.ClientSocket, "conn-a", sub))
		assert.False(t, b.HasSubscriber(broker.ClientSocket, "conn-a"))

		_, ok := <-sub.Receive()
		assert.False(t, ok)
		assert.NoError(t, b.Publish(broker.ClientSocket, "conn-a", "late"))
	})

	t.Run("given unknown subscription when unsubscribed then return error", func(t *testing.T) {
		b := broker.New(4)
		other := broker.New(4).Subscribe(broker.ClientSocket, "conn-a")
		assert.ErrorIs(t, b.Unsubscribe(broker.ClientSocket, "conn-a", other), broker.ErrSubscriptionNotFound)
	})

	t.Run("given two subscriptions when one unsubscribed then the other still receives", func(t *testing.T) {
		b := broker.New(4)
		first := b.Subscribe(broker.ClientSocket, "conn-a")
		second := b.Subscribe(broker.ClientSocket, "conn-a")

		require.NoError(t, b.Unsubscribe(broker.ClientSocket, "conn-a", first))
		require.NoError(t, b.Publish(broker.ClientSocket, "conn-a", "hello"))
		assert.Equal(t, "hello", <-second.Receive())
	})
}
