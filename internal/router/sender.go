package router

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/RyadPasha/event-hub-data-processor/internal/domain"
	"github.com/RyadPasha/event-hub-data-processor/internal/metrics"
	"github.com/RyadPasha/event-hub-data-processor/internal/mq"
)

// Dispatcher delivers one event body to one queue
type Dispatcher interface {
	Send(ctx context.Context, queue domain.QueueName, body []byte) error
}

// QueueSender sends each body over a sender opened for that call alone.
// Senders are never cached or shared between calls.
type QueueSender struct {
	broker mq.Broker
	logger *slog.Logger
}

// NewQueueSender creates a sender over broker
func NewQueueSender(broker mq.Broker, logger *slog.Logger) *QueueSender {
	if logger == nil {
		logger = slog.Default()
	}

	return &QueueSender{
		broker: broker,
		logger: logger.With("component", "queue_sender"),
	}
}

// Send opens a sender on the queue's address, sends body once and closes the
// sender whatever the outcome. Failures are logged and returned wrapped in
// domain.ErrSendFailed; nothing is retried.
func (s *QueueSender) Send(ctx context.Context, queue domain.QueueName, body []byte) (err error) {
	address := queue.Address()
	start := time.Now()

	defer func() {
		metrics.SendDuration.WithLabelValues(address).Observe(time.Since(start).Seconds())
		metrics.EventsRouted.WithLabelValues(address, metrics.StatusOf(err)).Inc()

		if err != nil {
			s.logger.Error("Failed to send event to queue",
				"queue", address,
				"message", string(body),
				"error", err,
			)
		}
	}()

	if !queue.IsValid() {
		return fmt.Errorf("%w: %w: %q", domain.ErrSendFailed, domain.ErrInvalidQueue, string(queue))
	}

	sender, err := s.broker.NewSender(ctx, address)
	if err != nil {
		return fmt.Errorf("%w: open sender: %w", domain.ErrSendFailed, err)
	}
	defer func() {
		if closeErr := sender.Close(context.WithoutCancel(ctx)); closeErr != nil {
			s.logger.Warn("Failed to close queue sender", "queue", address, "error", closeErr)
		}
	}()

	if err := sender.Send(ctx, body); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrSendFailed, err)
	}

	s.logger.Debug("Sent event to queue", "queue", address)
	return nil
}
