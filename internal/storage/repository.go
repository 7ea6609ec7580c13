package storage

import (
	"context"

	"github.com/RyadPasha/event-hub-data-processor/internal/domain"
)

// DefaultRecentLimit caps Recent when callers pass a non-positive limit
const DefaultRecentLimit = 50

// DeliveryRepository defines the interface for delivery record storage
type DeliveryRepository interface {
	// Store persists a record. The store assigns record.ID and sets
	// record.Timestamp to the write time when it is zero.
	Store(ctx context.Context, record *domain.DeliveryRecord) error

	// Recent returns up to limit records, newest first
	Recent(ctx context.Context, limit int) ([]*domain.DeliveryRecord, error)

	// Count returns the total number of records stored
	Count(ctx context.Context) (int64, error)
}
