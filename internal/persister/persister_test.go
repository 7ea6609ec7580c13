package persister

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/RyadPasha/event-hub-data-processor/internal/domain"
	"github.com/RyadPasha/event-hub-data-processor/internal/storage/inmemory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingRepository rejects every write
type failingRepository struct {
	err error
}

func (r *failingRepository) Store(ctx context.Context, record *domain.DeliveryRecord) error {
	return r.err
}

func (r *failingRepository) Recent(ctx context.Context, limit int) ([]*domain.DeliveryRecord, error) {
	return nil, r.err
}

func (r *failingRepository) Count(ctx context.Context) (int64, error) {
	return 0, r.err
}

func fixedClock(at time.Time) Clock {
	return func() time.Time { return at }
}

func TestPersist_StoresContentAndTimestamp(t *testing.T) {
	repo := inmemory.NewDeliveryRepository()
	at := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	p := NewPersister(repo, fixedClock(at), nil)

	record, err := p.Persist(context.Background(), []byte(`{"type":"high-priority","data":"alert"}`))
	require.NoError(t, err)

	assert.NotEmpty(t, record.ID)
	assert.Equal(t, at, record.Timestamp)
	assert.Equal(t, map[string]interface{}{"type": "high-priority", "data": "alert"}, record.Content)

	stored := repo.All()
	require.Len(t, stored, 1)
	assert.Equal(t, record.Content, stored[0].Content)
	assert.Equal(t, at, stored[0].Timestamp)
}

func TestPersist_NonJSONPayloadStoredAsString(t *testing.T) {
	repo := inmemory.NewDeliveryRepository()
	p := NewPersister(repo, nil, nil)

	record, err := p.Persist(context.Background(), []byte("plain text"))
	require.NoError(t, err)

	assert.Equal(t, "plain text", record.Content)
	assert.False(t, record.Timestamp.IsZero())
}

func TestPersist_StoreFailureIsWrapped(t *testing.T) {
	storeErr := errors.New("connection reset")
	p := NewPersister(&failingRepository{err: storeErr}, nil, nil)

	record, err := p.Persist(context.Background(), []byte(`{"type":"default"}`))

	assert.Nil(t, record)
	assert.ErrorIs(t, err, domain.ErrPersistFailed)
	assert.ErrorIs(t, err, storeErr)
}

func TestPersist_OneRecordPerCall(t *testing.T) {
	repo := inmemory.NewDeliveryRepository()
	p := NewPersister(repo, nil, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := p.Persist(ctx, []byte(`{"type":"low-priority"}`))
		require.NoError(t, err)
	}

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}
