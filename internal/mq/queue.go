package mq

import (
	"context"
	"errors"
)

// ErrBrokerClosed is returned by every operation on a closed broker
var ErrBrokerClosed = errors.New("broker is closed")

// Sender pushes messages to a single named queue.
// A Sender is opened for one send and closed right after; senders are never shared.
type Sender interface {
	// Send performs one blocking send of body
	Send(ctx context.Context, body []byte) error

	// Close releases the send path. Safe to call more than once.
	Close(ctx context.Context) error
}

// Receiver pulls messages from a single named queue, one at a time
type Receiver interface {
	// Receive blocks until a message is available or ctx is done
	Receive(ctx context.Context) (*Message, error)

	// Complete acknowledges a received message so it is not delivered again
	Complete(ctx context.Context, msg *Message) error

	// Close releases the receiver
	Close(ctx context.Context) error
}

// Broker defines the queue system the pipeline talks to.
// This abstraction allows swapping implementations (in-memory, Redis, ...).
// A Broker is safe for concurrent use; Senders and Receivers it hands out are not shared.
type Broker interface {
	// NewSender opens a send path to queue
	NewSender(ctx context.Context, queue string) (Sender, error)

	// NewReceiver opens a receive path on queue
	NewReceiver(ctx context.Context, queue string) (Receiver, error)

	// Depth returns the number of messages waiting on queue
	Depth(ctx context.Context, queue string) (int64, error)

	// Stats returns broker statistics
	Stats() QueueStats

	// Close releases all resources
	Close() error
}

// QueueStats represents statistics about the broker
type QueueStats struct {
	// TotalPublished is the total number of messages sent
	TotalPublished int64 `json:"total_published"`

	// TotalDelivered is the total number of messages handed to receivers
	TotalDelivered int64 `json:"total_delivered"`

	// TotalCompleted is the total number of acknowledged messages
	TotalCompleted int64 `json:"total_completed"`

	// TotalErrors is the total number of transport errors
	TotalErrors int64 `json:"total_errors"`

	// OpenReceivers is the current number of open receivers
	OpenReceivers int64 `json:"open_receivers"`
}
