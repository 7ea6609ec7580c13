package listener

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/RyadPasha/event-hub-data-processor/internal/domain"
	"github.com/RyadPasha/event-hub-data-processor/internal/metrics"
	"github.com/RyadPasha/event-hub-data-processor/internal/mq"
)

const statsInterval = 10 * time.Second

// Group runs one Listener per queue, each on its own goroutine.
// Listeners share nothing but the broker and the persister, so one slow or
// failing queue never holds up another.
type Group struct {
	listeners []*Listener
	broker    mq.Broker
	logger    *slog.Logger
}

// NewGroup creates a listener for every queue in domain.AllQueues
func NewGroup(broker mq.Broker, persister Persister, logger *slog.Logger) *Group {
	if logger == nil {
		logger = slog.Default()
	}

	queues := domain.AllQueues()
	listeners := make([]*Listener, 0, len(queues))
	for _, q := range queues {
		listeners = append(listeners, NewListener(q, broker, persister, logger))
	}

	return &Group{
		listeners: listeners,
		broker:    broker,
		logger:    logger.With("component", "listener_group"),
	}
}

// Listeners returns the group's listeners in queue order
func (g *Group) Listeners() []*Listener {
	return g.listeners
}

// Run starts every listener and waits for all of them to return.
// A listener that exits with an error does not stop the others.
func (g *Group) Run(ctx context.Context) error {
	g.logger.Info("Starting queue listeners", "count", len(g.listeners))

	go g.reportStats(ctx)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)

	for _, l := range g.listeners {
		wg.Add(1)
		go func(l *Listener) {
			defer wg.Done()
			if err := l.Run(ctx); err != nil {
				g.logger.Error("Listener stopped", "queue", l.Queue().Address(), "error", err)
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}(l)
	}

	wg.Wait()
	return errors.Join(errs...)
}

// Stats returns statistics for every listener in queue order
func (g *Group) Stats() []Stats {
	stats := make([]Stats, len(g.listeners))
	for i, l := range g.listeners {
		stats[i] = l.Stats()
	}
	return stats
}

// reportStats periodically logs statistics and refreshes queue depth gauges
func (g *Group) reportStats(ctx context.Context) {
	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, s := range g.Stats() {
				depth, err := g.broker.Depth(ctx, s.Queue)
				if err != nil {
					g.logger.Debug("Failed to read queue depth", "queue", s.Queue, "error", err)
				} else {
					metrics.QueueDepth.WithLabelValues(s.Queue).Set(float64(depth))
				}

				g.logger.Info("Listener statistics",
					"queue", s.Queue,
					"queue_depth", depth,
					"messages_received", s.MessagesReceived,
					"records_stored", s.RecordsStored,
					"persist_errors", s.PersistErrors,
					"receive_errors", s.ReceiveErrors,
				)
			}

			brokerStats := g.broker.Stats()
			g.logger.Info("Broker statistics",
				"published", brokerStats.TotalPublished,
				"delivered", brokerStats.TotalDelivered,
				"completed", brokerStats.TotalCompleted,
				"errors", brokerStats.TotalErrors,
				"open_receivers", brokerStats.OpenReceivers,
			)
		}
	}
}
