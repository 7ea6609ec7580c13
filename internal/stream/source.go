// Package stream reads events from a replayable log.
//
// A Source hands out a Subscription that delivers batches of events on one
// channel and transport errors on another. Events are delivered in log order
// within a batch; callers process a batch fully before taking the next one.
package stream

import (
	"context"
	"time"
)

// StartPosition selects where a new subscription begins reading
type StartPosition int

const (
	// StartEarliest replays the log from its first retained event
	StartEarliest StartPosition = iota
	// StartLatest only delivers events published after subscribing
	StartLatest
)

func (p StartPosition) String() string {
	switch p {
	case StartEarliest:
		return "earliest"
	case StartLatest:
		return "latest"
	default:
		return "unknown"
	}
}

// Event is one item read from the stream.
// Sequence, Subject and PublishedAt are log metadata and play no part in routing.
type Event struct {
	Body        []byte
	Sequence    uint64
	Subject     string
	PublishedAt time.Time
}

// Batch is a group of events delivered together, in log order
type Batch []*Event

// Source is a stream the pipeline can subscribe to
type Source interface {
	// Subscribe starts reading at start; reading stops when ctx is cancelled
	Subscribe(ctx context.Context, start StartPosition) (*Subscription, error)

	// Close releases the connection
	Close() error
}

// Subscription is a live read of a Source
type Subscription struct {
	batches chan Batch
	errs    chan error
	done    chan struct{}
}

func newSubscription() *Subscription {
	return &Subscription{
		batches: make(chan Batch),
		errs:    make(chan error),
		done:    make(chan struct{}),
	}
}

// Batches returns the channel of delivered batches
func (s *Subscription) Batches() <-chan Batch {
	return s.batches
}

// Errors returns the channel of stream-level errors
func (s *Subscription) Errors() <-chan error {
	return s.errs
}

// Done is closed when the subscription has stopped reading
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// deliver hands b to the subscriber; false means ctx ended first
func (s *Subscription) deliver(ctx context.Context, b Batch) bool {
	select {
	case s.batches <- b:
		return true
	case <-ctx.Done():
		return false
	}
}

// fail reports err to the subscriber; false means ctx ended first
func (s *Subscription) fail(ctx context.Context, err error) bool {
	select {
	case s.errs <- err:
		return true
	case <-ctx.Done():
		return false
	}
}

func (s *Subscription) finish() {
	close(s.batches)
	close(s.errs)
	close(s.done)
}
