package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/RyadPasha/event-hub-data-processor/internal/api/dto"
	"github.com/RyadPasha/event-hub-data-processor/internal/domain"
	"github.com/RyadPasha/event-hub-data-processor/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListRecords_Success(t *testing.T) {
	at := time.Date(2025, 1, 18, 12, 0, 0, 0, time.UTC)
	var gotLimit int
	repo := &MockDeliveryRepository{
		RecentFunc: func(ctx context.Context, limit int) ([]*domain.DeliveryRecord, error) {
			gotLimit = limit
			return []*domain.DeliveryRecord{
				{ID: "1", Content: map[string]interface{}{"type": "high-priority", "data": "x"}, Timestamp: at},
			}, nil
		},
		CountFunc: func(ctx context.Context) (int64, error) { return 12, nil },
	}

	router, w := setupGinTest()
	router.GET("/api/v1/records", NewRecordHandler(repo).ListRecords)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/records", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, storage.DefaultRecentLimit, gotLimit)

	var resp dto.RecordListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, int64(12), resp.Total)
	assert.Equal(t, "1", resp.Records[0].ID)
	assert.Equal(t, map[string]interface{}{"type": "high-priority", "data": "x"}, resp.Records[0].Content)
}

func TestListRecords_CustomLimit(t *testing.T) {
	var gotLimit int
	repo := &MockDeliveryRepository{
		RecentFunc: func(ctx context.Context, limit int) ([]*domain.DeliveryRecord, error) {
			gotLimit = limit
			return nil, nil
		},
	}

	router, w := setupGinTest()
	router.GET("/api/v1/records", NewRecordHandler(repo).ListRecords)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/records?limit=5", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, gotLimit)
	assert.Contains(t, w.Body.String(), `"records":[]`)
}

func TestListRecords_InvalidLimit(t *testing.T) {
	for _, limit := range []string{"0", "-3", "abc", "1001"} {
		t.Run(limit, func(t *testing.T) {
			router, w := setupGinTest()
			router.GET("/api/v1/records", NewRecordHandler(&MockDeliveryRepository{}).ListRecords)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/records?limit="+limit, nil)
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)

			var resp dto.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, "Invalid request", resp.Error)
		})
	}
}

func TestListRecords_RepositoryError(t *testing.T) {
	repo := &MockDeliveryRepository{
		RecentFunc: func(ctx context.Context, limit int) ([]*domain.DeliveryRecord, error) {
			return nil, errors.New("database down")
		},
	}

	router, w := setupGinTest()
	router.GET("/api/v1/records", NewRecordHandler(repo).ListRecords)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/records", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Failed to retrieve records")
	assert.NotContains(t, w.Body.String(), "database down")
}

func TestListRecords_CountError(t *testing.T) {
	repo := &MockDeliveryRepository{
		CountFunc: func(ctx context.Context) (int64, error) {
			return 0, errors.New("timeout")
		},
	}

	router, w := setupGinTest()
	router.GET("/api/v1/records", NewRecordHandler(repo).ListRecords)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/records", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Failed to count records")
}
