// Package router moves events from the stream onto the priority queues.
package router

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/RyadPasha/event-hub-data-processor/internal/domain"
	"github.com/RyadPasha/event-hub-data-processor/internal/metrics"
	"github.com/RyadPasha/event-hub-data-processor/internal/stream"
)

const (
	statsInterval       = 10 * time.Second
	leaseReleaseTimeout = 5 * time.Second
)

// State is the lifecycle position of a Router
type State int32

const (
	StateIdle State = iota
	StateSubscribed
	StateReceiving
	StateDispatching
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubscribed:
		return "subscribed"
	case StateReceiving:
		return "receiving"
	case StateDispatching:
		return "dispatching"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Router reads the stream from its earliest event and sends each event to the
// queue its type classifies to. Batches are handled one at a time, and the
// events of a batch are sent in the order they were read.
type Router struct {
	source     stream.Source
	dispatcher Dispatcher
	lease      *Lease
	logger     *slog.Logger

	state atomic.Int32

	eventsReceived  atomic.Int64
	batchesReceived atomic.Int64
	eventsRouted    atomic.Int64
	sendErrors      atomic.Int64
	streamErrors    atomic.Int64
}

// NewRouter creates a router. lease may be nil, in which case the router
// starts reading immediately.
func NewRouter(source stream.Source, dispatcher Dispatcher, lease *Lease, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}

	return &Router{
		source:     source,
		dispatcher: dispatcher,
		lease:      lease,
		logger:     logger.With("component", "router"),
	}
}

// Start routes events until ctx is cancelled. The batch in hand when ctx is
// cancelled is routed to completion before Start returns.
func (r *Router) Start(ctx context.Context) error {
	r.logger.Info("Starting router",
		"start_position", stream.StartEarliest,
		"lease", r.lease != nil,
	)
	defer r.setState(StateClosed)

	go r.reportStats(ctx)

	if r.lease == nil {
		return r.route(ctx)
	}

	for {
		if err := r.lease.Acquire(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		routeCtx, stop := context.WithCancel(ctx)
		go r.lease.Keep(routeCtx, stop)

		err := r.route(routeCtx)
		stop()

		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), leaseReleaseTimeout)
		if releaseErr := r.lease.Release(releaseCtx); releaseErr != nil {
			r.logger.Warn("Failed to release router lease", "error", releaseErr)
		}
		cancel()

		if err != nil || ctx.Err() != nil {
			return err
		}

		r.logger.Warn("Router lease lost, waiting to re-acquire")
		r.setState(StateIdle)
	}
}

// route holds one stream subscription open until ctx ends
func (r *Router) route(ctx context.Context) error {
	sub, err := r.source.Subscribe(ctx, stream.StartEarliest)
	if err != nil {
		return fmt.Errorf("failed to subscribe to stream: %w", err)
	}
	r.setState(StateSubscribed)
	r.logger.Info("Subscribed to stream", "start_position", stream.StartEarliest)

	batches := sub.Batches()
	errs := sub.Errors()

	for {
		r.setState(StateReceiving)

		select {
		case <-ctx.Done():
			return nil

		case batch, ok := <-batches:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return domain.ErrStreamClosed
			}
			r.setState(StateDispatching)
			r.dispatch(context.WithoutCancel(ctx), batch)

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			r.streamErrors.Add(1)
			metrics.StreamErrors.Inc()
			r.logger.Error("Stream error", "error", err)
		}
	}
}

// dispatch sends every event of batch in order. A failed send is counted and
// the next event is handled as usual.
func (r *Router) dispatch(ctx context.Context, batch stream.Batch) {
	r.batchesReceived.Add(1)
	r.eventsReceived.Add(int64(len(batch)))
	metrics.BatchesReceived.Inc()
	metrics.EventsReceived.Add(float64(len(batch)))

	r.logger.Debug("Received batch", "batch_size", len(batch))

	for _, event := range batch {
		queue := domain.Classify(domain.TypeTag(event.Body))

		if err := r.dispatcher.Send(ctx, queue, event.Body); err != nil {
			r.sendErrors.Add(1)
			continue
		}

		r.eventsRouted.Add(1)
		r.logger.Debug("Routed event",
			"sequence", event.Sequence,
			"queue", queue.Address(),
		)
	}
}

func (r *Router) setState(s State) {
	r.state.Store(int32(s))
}

// State returns the router's current lifecycle state
func (r *Router) State() State {
	return State(r.state.Load())
}

// reportStats periodically logs statistics
func (r *Router) reportStats(ctx context.Context) {
	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := r.Stats()
			r.logger.Info("Router statistics",
				"state", stats.State,
				"batches_received", stats.BatchesReceived,
				"events_received", stats.EventsReceived,
				"events_routed", stats.EventsRouted,
				"send_errors", stats.SendErrors,
				"stream_errors", stats.StreamErrors,
			)
		}
	}
}

// Stats returns current router statistics
func (r *Router) Stats() Stats {
	return Stats{
		State:           r.State().String(),
		BatchesReceived: r.batchesReceived.Load(),
		EventsReceived:  r.eventsReceived.Load(),
		EventsRouted:    r.eventsRouted.Load(),
		SendErrors:      r.sendErrors.Load(),
		StreamErrors:    r.streamErrors.Load(),
	}
}

// Stats holds router statistics
type Stats struct {
	State           string `json:"state"`
	BatchesReceived int64  `json:"batches_received"`
	EventsReceived  int64  `json:"events_received"`
	EventsRouted    int64  `json:"events_routed"`
	SendErrors      int64  `json:"send_errors"`
	StreamErrors    int64  `json:"stream_errors"`
}
