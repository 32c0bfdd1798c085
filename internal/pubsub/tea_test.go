package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestListenCmd_ReturnsEventAsMsg(t *testing.T) {
	broker := NewBroker[string]()
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := broker.Subscribe(ctx)
	broker.Publish(DeletedEvent, "42")

	msg := ListenCmd(ctx, ch)()
	event, ok := msg.(Event[string])
	require.True(t, ok, "msg should be Event[string]")
	require.Equal(t, "42", event.Payload)
	require.Equal(t, DeletedEvent, event.Type)
}

func TestListenCmd_NilAfterCancel(t *testing.T) {
	broker := NewBroker[string]()
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch := broker.Subscribe(ctx)
	cancel()

	require.Nil(t, ListenCmd(ctx, ch)())
}

func TestContinuousListener_KeepsReceiving(t *testing.T) {
	broker := NewBroker[int]()
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	listener := NewContinuousListener(ctx, broker)

	for i := 1; i <= 3; i++ {
		broker.Publish(UpdatedEvent, i)

		done := make(chan any, 1)
		go func() { done <- listener.Listen()() }()

		select {
		case msg := <-done:
			event, ok := msg.(Event[int])
			require.True(t, ok)
			require.Equal(t, i, event.Payload)
		case <-time.After(200 * time.Millisecond):
			require.FailNow(t, "listener did not deliver event", "iteration %d", i)
		}
	}
}

func TestContinuousListener_NilListenerIsSafe(t *testing.T) {
	var listener *ContinuousListener[string]
	require.Nil(t, listener.Listen())
}
