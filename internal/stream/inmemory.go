package stream

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// ErrSourceClosed is returned when publishing to or subscribing on a closed source
var ErrSourceClosed = errors.New("stream source is closed")

// memoryItem is either a batch or a stream error, kept in publish order
type memoryItem struct {
	batch Batch
	err   error
}

// InMemorySource is a Source backed by an in-process log.
// It supports a single live subscriber and is meant for local runs and tests.
type InMemorySource struct {
	mu       sync.Mutex
	log      []memoryItem
	notify   chan struct{}
	sequence atomic.Uint64
	closed   atomic.Bool
	done     chan struct{}
}

// NewInMemorySource creates an empty in-memory stream
func NewInMemorySource() *InMemorySource {
	return &InMemorySource{
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// PublishBatch appends one batch of bodies, assigning sequence numbers
func (s *InMemorySource) PublishBatch(bodies ...[]byte) error {
	if s.closed.Load() {
		return ErrSourceClosed
	}

	batch := make(Batch, 0, len(bodies))
	for _, body := range bodies {
		batch = append(batch, &Event{
			Body:        body,
			Sequence:    s.sequence.Add(1),
			Subject:     "events.memory",
			PublishedAt: time.Now(),
		})
	}

	s.append(memoryItem{batch: batch})
	return nil
}

// PublishError injects a stream-level error at the current log position
func (s *InMemorySource) PublishError(err error) error {
	if s.closed.Load() {
		return ErrSourceClosed
	}
	s.append(memoryItem{err: err})
	return nil
}

func (s *InMemorySource) append(item memoryItem) {
	s.mu.Lock()
	s.log = append(s.log, item)
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// Subscribe reads the log from start until ctx is cancelled or the source closes
func (s *InMemorySource) Subscribe(ctx context.Context, start StartPosition) (*Subscription, error) {
	if s.closed.Load() {
		return nil, ErrSourceClosed
	}

	s.mu.Lock()
	offset := 0
	if start == StartLatest {
		offset = len(s.log)
	}
	s.mu.Unlock()

	sub := newSubscription()
	go s.pump(ctx, sub, offset)

	return sub, nil
}

func (s *InMemorySource) pump(ctx context.Context, sub *Subscription, offset int) {
	defer sub.finish()

	for {
		s.mu.Lock()
		pending := s.log[offset:]
		s.mu.Unlock()

		for _, item := range pending {
			offset++
			if item.err != nil {
				if !sub.fail(ctx, item.err) {
					return
				}
				continue
			}
			if !sub.deliver(ctx, item.batch) {
				return
			}
		}

		select {
		case <-s.notify:
		case <-ctx.Done():
			return
		case <-s.done:
			return
		}
	}
}

// Close stops live subscriptions
func (s *InMemorySource) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	close(s.done)
	return nil
}
