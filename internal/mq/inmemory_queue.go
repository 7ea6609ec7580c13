package mq

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// InMemoryBroker implements Broker using Go channels, one buffered channel per queue.
// It is safe for concurrent use and is meant for local runs and tests.
type InMemoryBroker struct {
	queues   map[string]chan *Message
	queuesMu sync.Mutex

	bufferSize int

	done   chan struct{}
	closed atomic.Bool

	// Statistics (using atomic for thread-safety)
	totalPublished atomic.Int64
	totalDelivered atomic.Int64
	totalCompleted atomic.Int64
	totalErrors    atomic.Int64
	openReceivers  atomic.Int64
}

// InMemoryBrokerConfig holds configuration for the broker
type InMemoryBrokerConfig struct {
	BufferSize int // Capacity of each queue channel
}

// DefaultInMemoryBrokerConfig returns default configuration
func DefaultInMemoryBrokerConfig() InMemoryBrokerConfig {
	return InMemoryBrokerConfig{
		BufferSize: 1000,
	}
}

// NewInMemoryBroker creates a new in-memory broker
func NewInMemoryBroker(config InMemoryBrokerConfig) *InMemoryBroker {
	if config.BufferSize <= 0 {
		config.BufferSize = 1000
	}

	return &InMemoryBroker{
		queues:     make(map[string]chan *Message),
		bufferSize: config.BufferSize,
		done:       make(chan struct{}),
	}
}

// queue returns the channel backing name, creating it on first use
func (b *InMemoryBroker) queue(name string) chan *Message {
	b.queuesMu.Lock()
	defer b.queuesMu.Unlock()

	ch, ok := b.queues[name]
	if !ok {
		ch = make(chan *Message, b.bufferSize)
		b.queues[name] = ch
	}
	return ch
}

// NewSender opens a send path to queue
func (b *InMemoryBroker) NewSender(ctx context.Context, queue string) (Sender, error) {
	if b.closed.Load() {
		return nil, ErrBrokerClosed
	}
	return &memorySender{broker: b, queue: queue, ch: b.queue(queue)}, nil
}

// NewReceiver opens a receive path on queue
func (b *InMemoryBroker) NewReceiver(ctx context.Context, queue string) (Receiver, error) {
	if b.closed.Load() {
		return nil, ErrBrokerClosed
	}
	b.openReceivers.Add(1)
	return &memoryReceiver{broker: b, queue: queue, ch: b.queue(queue)}, nil
}

// Depth returns the number of buffered messages on queue
func (b *InMemoryBroker) Depth(ctx context.Context, queue string) (int64, error) {
	if b.closed.Load() {
		return 0, ErrBrokerClosed
	}
	return int64(len(b.queue(queue))), nil
}

// Stats returns current broker statistics
func (b *InMemoryBroker) Stats() QueueStats {
	return QueueStats{
		TotalPublished: b.totalPublished.Load(),
		TotalDelivered: b.totalDelivered.Load(),
		TotalCompleted: b.totalCompleted.Load(),
		TotalErrors:    b.totalErrors.Load(),
		OpenReceivers:  b.openReceivers.Load(),
	}
}

// Close stops the broker. Blocked receivers return ErrBrokerClosed;
// messages still buffered are dropped.
func (b *InMemoryBroker) Close() error {
	if b.closed.Swap(true) {
		return nil // Already closed
	}
	close(b.done)
	return nil
}

type memorySender struct {
	broker *InMemoryBroker
	queue  string
	ch     chan *Message
	closed atomic.Bool
}

func (s *memorySender) Send(ctx context.Context, body []byte) error {
	if s.closed.Load() {
		return fmt.Errorf("sender for %s is closed", s.queue)
	}
	if s.broker.closed.Load() {
		return ErrBrokerClosed
	}

	select {
	case s.ch <- NewMessage(s.queue, body):
		s.broker.totalPublished.Add(1)
		return nil
	case <-ctx.Done():
		s.broker.totalErrors.Add(1)
		return fmt.Errorf("send cancelled: %w", ctx.Err())
	case <-s.broker.done:
		return ErrBrokerClosed
	}
}

func (s *memorySender) Close(ctx context.Context) error {
	s.closed.Store(true)
	return nil
}

type memoryReceiver struct {
	broker *InMemoryBroker
	queue  string
	ch     chan *Message
	closed atomic.Bool
}

func (r *memoryReceiver) Receive(ctx context.Context) (*Message, error) {
	if r.closed.Load() {
		return nil, fmt.Errorf("receiver for %s is closed", r.queue)
	}

	select {
	case msg := <-r.ch:
		r.broker.totalDelivered.Add(1)
		return msg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-r.broker.done:
		return nil, ErrBrokerClosed
	}
}

func (r *memoryReceiver) Complete(ctx context.Context, msg *Message) error {
	r.broker.totalCompleted.Add(1)
	return nil
}

func (r *memoryReceiver) Close(ctx context.Context) error {
	if !r.closed.Swap(true) {
		r.broker.openReceivers.Add(-1)
	}
	return nil
}
