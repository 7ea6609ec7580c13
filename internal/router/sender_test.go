package router

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/RyadPasha/event-hub-data-processor/internal/domain"
	"github.com/RyadPasha/event-hub-data-processor/internal/mq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// trackingBroker wraps the in-memory broker and counts sender opens and closes
type trackingBroker struct {
	*mq.InMemoryBroker
	opened  atomic.Int64
	closed  atomic.Int64
	sendErr error
	openErr error
}

func newTrackingBroker() *trackingBroker {
	return &trackingBroker{InMemoryBroker: mq.NewInMemoryBroker(mq.DefaultInMemoryBrokerConfig())}
}

func (b *trackingBroker) NewSender(ctx context.Context, queue string) (mq.Sender, error) {
	if b.openErr != nil {
		return nil, b.openErr
	}
	inner, err := b.InMemoryBroker.NewSender(ctx, queue)
	if err != nil {
		return nil, err
	}
	b.opened.Add(1)
	return &trackingSender{Sender: inner, broker: b}, nil
}

type trackingSender struct {
	mq.Sender
	broker *trackingBroker
}

func (s *trackingSender) Send(ctx context.Context, body []byte) error {
	if s.broker.sendErr != nil {
		return s.broker.sendErr
	}
	return s.Sender.Send(ctx, body)
}

func (s *trackingSender) Close(ctx context.Context) error {
	s.broker.closed.Add(1)
	return s.Sender.Close(ctx)
}

func TestQueueSender_SendTargetsQueueAddress(t *testing.T) {
	broker := newTrackingBroker()
	defer broker.Close()
	sender := NewQueueSender(broker, nil)
	ctx := context.Background()

	body := []byte(`{"type":"high-priority","data":"x"}`)
	require.NoError(t, sender.Send(ctx, domain.QueueHighPriority, body))

	depth, err := broker.Depth(ctx, "high-priority-queue")
	require.NoError(t, err)
	assert.Equal(t, int64(1), depth)

	receiver, err := broker.NewReceiver(ctx, "high-priority-queue")
	require.NoError(t, err)
	msg, err := receiver.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, body, msg.Body, "body must be forwarded byte-for-byte")
}

func TestQueueSender_OpensAndClosesSenderPerCall(t *testing.T) {
	broker := newTrackingBroker()
	defer broker.Close()
	sender := NewQueueSender(broker, nil)

	for i := 0; i < 3; i++ {
		require.NoError(t, sender.Send(context.Background(), domain.QueueDefault, []byte("x")))
	}

	assert.Equal(t, int64(3), broker.opened.Load())
	assert.Equal(t, int64(3), broker.closed.Load())
}

func TestQueueSender_ClosesSenderOnFailure(t *testing.T) {
	broker := newTrackingBroker()
	defer broker.Close()
	broker.sendErr = errors.New("broker unavailable")
	sender := NewQueueSender(broker, nil)

	err := sender.Send(context.Background(), domain.QueueLowPriority, []byte("x"))

	assert.ErrorIs(t, err, domain.ErrSendFailed)
	assert.ErrorIs(t, err, broker.sendErr)
	assert.Equal(t, int64(1), broker.closed.Load())
}

func TestQueueSender_OpenFailure(t *testing.T) {
	broker := newTrackingBroker()
	defer broker.Close()
	broker.openErr = errors.New("no route to host")
	sender := NewQueueSender(broker, nil)

	err := sender.Send(context.Background(), domain.QueueDefault, []byte("x"))

	assert.ErrorIs(t, err, domain.ErrSendFailed)
	assert.ErrorIs(t, err, broker.openErr)
	assert.Zero(t, broker.closed.Load())
}

func TestQueueSender_RejectsUnknownQueue(t *testing.T) {
	broker := newTrackingBroker()
	defer broker.Close()
	sender := NewQueueSender(broker, nil)

	err := sender.Send(context.Background(), domain.QueueName("urgent"), []byte("x"))

	assert.ErrorIs(t, err, domain.ErrSendFailed)
	assert.ErrorIs(t, err, domain.ErrInvalidQueue)
	assert.Zero(t, broker.opened.Load())
}
