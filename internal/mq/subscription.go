package mq

import (
	"context"
	"errors"
	"time"
)

// errorBackoff is how long the pump waits after a receive error before trying again
const errorBackoff = time.Second

// Subscription turns a Receiver into a long-lived stream of messages.
// Messages and receive errors surface on separate channels; both are closed
// when the subscription ends.
type Subscription struct {
	queue    string
	receiver Receiver
	messages chan *Message
	errs     chan error
	done     chan struct{}
}

// Subscribe starts a pump goroutine that receives from r until ctx is cancelled.
// The message channel is unbuffered: the next message is only pulled once the
// previous one has been taken, so a subscriber sees messages one at a time.
// A message received before cancellation is always delivered, so subscribers
// must drain Messages until it is closed.
func Subscribe(ctx context.Context, queue string, r Receiver) *Subscription {
	sub := &Subscription{
		queue:    queue,
		receiver: r,
		messages: make(chan *Message),
		errs:     make(chan error),
		done:     make(chan struct{}),
	}

	go sub.pump(ctx)

	return sub
}

// Messages returns the channel of received messages
func (s *Subscription) Messages() <-chan *Message {
	return s.messages
}

// Errors returns the channel of receive errors
func (s *Subscription) Errors() <-chan error {
	return s.errs
}

// Done is closed once the pump has exited
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Queue returns the queue this subscription reads from
func (s *Subscription) Queue() string {
	return s.queue
}

// Complete acknowledges msg on the underlying receiver
func (s *Subscription) Complete(ctx context.Context, msg *Message) error {
	return s.receiver.Complete(ctx, msg)
}

func (s *Subscription) pump(ctx context.Context) {
	defer close(s.done)
	defer close(s.errs)
	defer close(s.messages)

	for {
		msg, err := s.receiver.Receive(ctx)
		if err == nil {
			// Already taken off the queue: hand it on even after cancellation so it can complete
			s.messages <- msg
			if ctx.Err() != nil {
				return
			}
			continue
		}
		if ctx.Err() != nil {
			return
		}

		if errors.Is(err, ErrBrokerClosed) {
			return
		}

		select {
		case s.errs <- err:
		case <-ctx.Done():
			return
		}

		select {
		case <-time.After(errorBackoff):
		case <-ctx.Done():
			return
		}
	}
}
