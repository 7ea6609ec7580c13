package mq

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyReceiver fails its first n receives, then serves from an in-memory receiver
type flakyReceiver struct {
	Receiver
	failures atomic.Int32
}

func (r *flakyReceiver) Receive(ctx context.Context) (*Message, error) {
	if r.failures.Add(-1) >= 0 {
		return nil, errors.New("connection reset")
	}
	return r.Receiver.Receive(ctx)
}

func TestSubscribe_DeliversMessagesInOrder(t *testing.T) {
	broker := NewInMemoryBroker(DefaultInMemoryBrokerConfig())
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sender, _ := broker.NewSender(ctx, "q")
	for _, body := range []string{"a", "b", "c"} {
		require.NoError(t, sender.Send(ctx, []byte(body)))
	}

	receiver, _ := broker.NewReceiver(ctx, "q")
	sub := Subscribe(ctx, "q", receiver)
	assert.Equal(t, "q", sub.Queue())

	for _, want := range []string{"a", "b", "c"} {
		select {
		case msg := <-sub.Messages():
			assert.Equal(t, want, string(msg.Body))
			require.NoError(t, sub.Complete(ctx, msg))
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for %q", want)
		}
	}

	assert.Equal(t, int64(3), broker.Stats().TotalCompleted)
}

func TestSubscribe_ErrorsSurfaceSeparately(t *testing.T) {
	broker := NewInMemoryBroker(DefaultInMemoryBrokerConfig())
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	inner, _ := broker.NewReceiver(ctx, "q")
	receiver := &flakyReceiver{Receiver: inner}
	receiver.failures.Store(1)

	sender, _ := broker.NewSender(ctx, "q")
	require.NoError(t, sender.Send(ctx, []byte("after error")))

	sub := Subscribe(ctx, "q", receiver)

	select {
	case err := <-sub.Errors():
		assert.EqualError(t, err, "connection reset")
	case <-time.After(time.Second):
		t.Fatal("expected receive error")
	}

	// The subscription keeps going after the error
	select {
	case msg := <-sub.Messages():
		assert.Equal(t, "after error", string(msg.Body))
	case <-time.After(3 * time.Second):
		t.Fatal("subscription stopped after an error")
	}
}

func TestSubscribe_StopsOnCancel(t *testing.T) {
	broker := NewInMemoryBroker(DefaultInMemoryBrokerConfig())
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	receiver, _ := broker.NewReceiver(ctx, "q")
	sub := Subscribe(ctx, "q", receiver)

	cancel()

	select {
	case <-sub.Done():
	case <-time.After(time.Second):
		t.Fatal("subscription did not stop")
	}

	_, ok := <-sub.Messages()
	assert.False(t, ok, "messages channel should be closed")
	_, ok = <-sub.Errors()
	assert.False(t, ok, "errors channel should be closed")
}

func TestSubscribe_StopsWhenBrokerCloses(t *testing.T) {
	broker := NewInMemoryBroker(DefaultInMemoryBrokerConfig())

	receiver, _ := broker.NewReceiver(context.Background(), "q")
	sub := Subscribe(context.Background(), "q", receiver)

	require.NoError(t, broker.Close())

	select {
	case <-sub.Done():
	case <-time.After(time.Second):
		t.Fatal("subscription did not stop after broker close")
	}
}

// cancellingReceiver returns one message and cancels the subscription's
// context in the same call, as a shutdown racing a delivery would
type cancellingReceiver struct {
	Receiver
	cancel context.CancelFunc
	served atomic.Bool
}

func (r *cancellingReceiver) Receive(ctx context.Context) (*Message, error) {
	if r.served.Swap(true) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	r.cancel()
	return NewMessage("high-priority-queue", []byte(`{"type":"high-priority"}`)), nil
}

func TestSubscribe_DeliversMessageReceivedDuringCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := Subscribe(ctx, "high-priority-queue", &cancellingReceiver{cancel: cancel})

	select {
	case msg, ok := <-sub.Messages():
		require.True(t, ok, "message taken off the queue must not be dropped")
		assert.Equal(t, `{"type":"high-priority"}`, string(msg.Body))
	case <-time.After(time.Second):
		t.Fatal("in-flight message was not delivered")
	}

	select {
	case <-sub.Done():
	case <-time.After(time.Second):
		t.Fatal("subscription did not stop after delivering")
	}
	_, ok := <-sub.Messages()
	assert.False(t, ok)
}
