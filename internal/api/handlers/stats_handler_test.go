package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/RyadPasha/event-hub-data-processor/internal/api/dto"
	"github.com/RyadPasha/event-hub-data-processor/internal/listener"
	"github.com/RyadPasha/event-hub-data-processor/internal/mq"
	"github.com/RyadPasha/event-hub-data-processor/internal/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStatsHandler(repo *MockDeliveryRepository) *StatsHandler {
	return NewStatsHandler(
		staticRouterStats(router.Stats{State: "receiving", EventsReceived: 3, EventsRouted: 2, SendErrors: 1}),
		staticListenerStats([]listener.Stats{{Queue: "high-priority-queue", MessagesReceived: 2, RecordsStored: 2}}),
		staticBrokerStats(mq.QueueStats{TotalPublished: 2, TotalCompleted: 2}),
		repo,
	)
}

func TestGetStats_Success(t *testing.T) {
	repo := &MockDeliveryRepository{
		CountFunc: func(ctx context.Context) (int64, error) { return 2, nil },
	}

	router, w := setupGinTest()
	router.GET("/api/v1/stats", newTestStatsHandler(repo).GetStats)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.StatsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "receiving", resp.Router.State)
	assert.Equal(t, int64(1), resp.Router.SendErrors)
	require.Len(t, resp.Listeners, 1)
	assert.Equal(t, "high-priority-queue", resp.Listeners[0].Queue)
	assert.Equal(t, int64(2), resp.Broker.TotalPublished)
	assert.Equal(t, int64(2), resp.RecordCount)
	assert.False(t, resp.Timestamp.IsZero())
}

func TestGetStats_RepositoryError(t *testing.T) {
	repo := &MockDeliveryRepository{
		CountFunc: func(ctx context.Context) (int64, error) { return 0, errors.New("no primary") },
	}

	router, w := setupGinTest()
	router.GET("/api/v1/stats", newTestStatsHandler(repo).GetStats)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Failed to retrieve stats")
}
