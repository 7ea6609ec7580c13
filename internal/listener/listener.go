// Package listener drains the priority queues into delivery records.
package listener

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/RyadPasha/event-hub-data-processor/internal/domain"
	"github.com/RyadPasha/event-hub-data-processor/internal/metrics"
	"github.com/RyadPasha/event-hub-data-processor/internal/mq"
)

// Persister stores a delivery record for one message payload
type Persister interface {
	Persist(ctx context.Context, payload []byte) (*domain.DeliveryRecord, error)
}

// Listener consumes a single queue for the lifetime of the process, handing
// each message body to the Persister one message at a time.
type Listener struct {
	queue     domain.QueueName
	broker    mq.Broker
	persister Persister
	logger    *slog.Logger

	// Statistics
	messagesReceived atomic.Int64
	recordsStored    atomic.Int64
	persistErrors    atomic.Int64
	receiveErrors    atomic.Int64
	panics           atomic.Int64
}

// NewListener creates a listener for queue
func NewListener(queue domain.QueueName, broker mq.Broker, persister Persister, logger *slog.Logger) *Listener {
	if logger == nil {
		logger = slog.Default()
	}

	return &Listener{
		queue:     queue,
		broker:    broker,
		persister: persister,
		logger:    logger.With("component", "listener", "queue", queue.Address()),
	}
}

// Queue returns the queue this listener consumes
func (l *Listener) Queue() domain.QueueName {
	return l.queue
}

// Run receives until ctx is cancelled. A message already taken off the queue
// when ctx is cancelled is still persisted and acknowledged.
func (l *Listener) Run(ctx context.Context) error {
	address := l.queue.Address()

	receiver, err := l.broker.NewReceiver(ctx, address)
	if err != nil {
		return fmt.Errorf("failed to open receiver on %s: %w", address, err)
	}
	defer func() {
		if err := receiver.Close(context.WithoutCancel(ctx)); err != nil {
			l.logger.Warn("Failed to close receiver", "error", err)
		}
	}()

	sub := mq.Subscribe(ctx, address, receiver)
	l.logger.Info("Listening on queue")

	messages := sub.Messages()
	errs := sub.Errors()

	for {
		select {
		case msg, ok := <-messages:
			if !ok {
				if ctx.Err() != nil {
					l.logger.Info("Listener shutting down",
						"messages_received", l.messagesReceived.Load(),
						"records_stored", l.recordsStored.Load(),
					)
					return nil
				}
				return fmt.Errorf("%w: %s", domain.ErrQueueClosed, address)
			}
			l.handle(context.WithoutCancel(ctx), sub, msg)

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			l.receiveErrors.Add(1)
			metrics.ReceiveErrors.WithLabelValues(address).Inc()
			l.logger.Error("Queue receive error", "error", err)
		}
	}
}

// handle persists one message and acknowledges it whether or not the write
// succeeded. Failed writes are logged and not retried.
func (l *Listener) handle(ctx context.Context, sub *mq.Subscription, msg *mq.Message) {
	defer func() {
		if err := sub.Complete(ctx, msg); err != nil {
			l.logger.Warn("Failed to acknowledge message",
				"message_id", msg.ID,
				"error", err,
			)
		}
	}()

	defer func() {
		if rec := recover(); rec != nil {
			l.panics.Add(1)
			l.persistErrors.Add(1)
			l.logger.Error("Recovered panic while handling message",
				"message_id", msg.ID,
				"message", string(msg.Body),
				"panic", rec,
			)
		}
	}()

	address := l.queue.Address()
	l.messagesReceived.Add(1)
	metrics.MessagesReceived.WithLabelValues(address).Inc()

	l.logger.Info("Received message",
		"message_id", msg.ID,
		"message", string(msg.Body),
	)

	record, err := l.persister.Persist(ctx, msg.Body)
	metrics.RecordsPersisted.WithLabelValues(address, metrics.StatusOf(err)).Inc()
	if err != nil {
		l.persistErrors.Add(1)
		l.logger.Error("Failed to persist message",
			"message_id", msg.ID,
			"message", string(msg.Body),
			"error", err,
		)
		return
	}

	l.recordsStored.Add(1)
	l.logger.Debug("Stored delivery record",
		"message_id", msg.ID,
		"record_id", record.ID,
	)
}

// Stats returns current listener statistics
func (l *Listener) Stats() Stats {
	return Stats{
		Queue:            l.queue.Address(),
		MessagesReceived: l.messagesReceived.Load(),
		RecordsStored:    l.recordsStored.Load(),
		PersistErrors:    l.persistErrors.Load(),
		ReceiveErrors:    l.receiveErrors.Load(),
		Panics:           l.panics.Load(),
	}
}

// Stats holds listener statistics
type Stats struct {
	Queue            string `json:"queue"`
	MessagesReceived int64  `json:"messages_received"`
	RecordsStored    int64  `json:"records_stored"`
	PersistErrors    int64  `json:"persist_errors"`
	ReceiveErrors    int64  `json:"receive_errors"`
	Panics           int64  `json:"panics"`
}
