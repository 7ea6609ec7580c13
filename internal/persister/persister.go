// Package persister writes delivery records for messages taken off the queues.
package persister

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/RyadPasha/event-hub-data-processor/internal/domain"
	"github.com/RyadPasha/event-hub-data-processor/internal/metrics"
	"github.com/RyadPasha/event-hub-data-processor/internal/storage"
)

// Clock returns the receipt time stamped on each record
type Clock func() time.Time

// Persister turns a queue payload into a delivery record and stores it
type Persister struct {
	repo   storage.DeliveryRepository
	clock  Clock
	logger *slog.Logger
}

// NewPersister creates a persister writing through repo.
// A nil clock uses time.Now; a nil logger uses slog.Default.
func NewPersister(repo storage.DeliveryRepository, clock Clock, logger *slog.Logger) *Persister {
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Persister{
		repo:   repo,
		clock:  clock,
		logger: logger.With("component", "persister"),
	}
}

// Persist writes one record for payload. The payload is stored verbatim as the
// record content; there is no retry and any store failure is returned wrapped
// in domain.ErrPersistFailed.
func (p *Persister) Persist(ctx context.Context, payload []byte) (*domain.DeliveryRecord, error) {
	record := domain.NewDeliveryRecord(payload, p.clock())

	start := time.Now()
	err := p.repo.Store(ctx, record)
	metrics.PersistDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrPersistFailed, err)
	}

	p.logger.Debug("Delivery record stored",
		"id", record.ID,
		"timestamp", record.Timestamp)

	return record, nil
}
