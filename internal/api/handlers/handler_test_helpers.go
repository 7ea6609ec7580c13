package handlers

import (
	"context"
	"net/http/httptest"

	"github.com/RyadPasha/event-hub-data-processor/internal/domain"
	"github.com/RyadPasha/event-hub-data-processor/internal/listener"
	"github.com/RyadPasha/event-hub-data-processor/internal/mq"
	"github.com/RyadPasha/event-hub-data-processor/internal/router"
	"github.com/gin-gonic/gin"
)

// MockDeliveryRepository implements storage.DeliveryRepository for testing
type MockDeliveryRepository struct {
	StoreFunc  func(ctx context.Context, record *domain.DeliveryRecord) error
	RecentFunc func(ctx context.Context, limit int) ([]*domain.DeliveryRecord, error)
	CountFunc  func(ctx context.Context) (int64, error)
}

func (m *MockDeliveryRepository) Store(ctx context.Context, record *domain.DeliveryRecord) error {
	if m.StoreFunc != nil {
		return m.StoreFunc(ctx, record)
	}
	return nil
}

func (m *MockDeliveryRepository) Recent(ctx context.Context, limit int) ([]*domain.DeliveryRecord, error) {
	if m.RecentFunc != nil {
		return m.RecentFunc(ctx, limit)
	}
	return nil, nil
}

func (m *MockDeliveryRepository) Count(ctx context.Context) (int64, error) {
	if m.CountFunc != nil {
		return m.CountFunc(ctx)
	}
	return 0, nil
}

// Fixed stats providers
type staticRouterStats router.Stats

func (s staticRouterStats) Stats() router.Stats { return router.Stats(s) }

type staticListenerStats []listener.Stats

func (s staticListenerStats) Stats() []listener.Stats { return s }

type staticBrokerStats mq.QueueStats

func (s staticBrokerStats) Stats() mq.QueueStats { return mq.QueueStats(s) }

func setupGinTest() (*gin.Engine, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	w := httptest.NewRecorder()
	return router, w
}
