package inmemory

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/RyadPasha/event-hub-data-processor/internal/domain"
	"github.com/RyadPasha/event-hub-data-processor/internal/storage"
)

// DeliveryRepository is an in-memory implementation of delivery record storage.
// Uses a slice with mutex protection for thread-safety.
type DeliveryRepository struct {
	mu      sync.RWMutex
	records []*domain.DeliveryRecord
	nextID  int64
}

// NewDeliveryRepository creates a new in-memory delivery repository
func NewDeliveryRepository() *DeliveryRepository {
	return &DeliveryRepository{}
}

// Store persists a record, assigning a sequential ID
// Thread-safe for concurrent writes
func (r *DeliveryRepository) Store(ctx context.Context, record *domain.DeliveryRecord) error {
	if record == nil {
		return domain.ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	record.ID = strconv.FormatInt(r.nextID, 10)
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}

	stored := *record
	r.records = append(r.records, &stored)
	return nil
}

// Recent returns up to limit records, newest first
func (r *DeliveryRepository) Recent(ctx context.Context, limit int) ([]*domain.DeliveryRecord, error) {
	if limit <= 0 {
		limit = storage.DefaultRecentLimit
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if limit > len(r.records) {
		limit = len(r.records)
	}

	result := make([]*domain.DeliveryRecord, 0, limit)
	for i := len(r.records) - 1; i >= 0 && len(result) < limit; i-- {
		record := *r.records[i]
		result = append(result, &record)
	}
	return result, nil
}

// Count returns the total number of records stored
func (r *DeliveryRepository) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return int64(len(r.records)), nil
}

// All returns every record in insertion order
// Useful for testing
func (r *DeliveryRepository) All() []*domain.DeliveryRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.DeliveryRecord, len(r.records))
	for i, rec := range r.records {
		record := *rec
		result[i] = &record
	}
	return result
}
