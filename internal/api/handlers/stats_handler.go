package handlers

import (
	"net/http"
	"time"

	"github.com/RyadPasha/event-hub-data-processor/internal/api/dto"
	"github.com/RyadPasha/event-hub-data-processor/internal/listener"
	"github.com/RyadPasha/event-hub-data-processor/internal/mq"
	"github.com/RyadPasha/event-hub-data-processor/internal/router"
	"github.com/RyadPasha/event-hub-data-processor/internal/storage"
	"github.com/gin-gonic/gin"
)

// RouterStatsProvider exposes router statistics
type RouterStatsProvider interface {
	Stats() router.Stats
}

// ListenerStatsProvider exposes per-queue listener statistics
type ListenerStatsProvider interface {
	Stats() []listener.Stats
}

// BrokerStatsProvider exposes queue broker statistics
type BrokerStatsProvider interface {
	Stats() mq.QueueStats
}

// StatsHandler serves pipeline statistics
type StatsHandler struct {
	router    RouterStatsProvider
	listeners ListenerStatsProvider
	broker    BrokerStatsProvider
	repo      storage.DeliveryRepository
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(router RouterStatsProvider, listeners ListenerStatsProvider, broker BrokerStatsProvider, repo storage.DeliveryRepository) *StatsHandler {
	return &StatsHandler{
		router:    router,
		listeners: listeners,
		broker:    broker,
		repo:      repo,
	}
}

// GetStats godoc
// @Summary Pipeline statistics
// @Description Router, listener and broker counters plus the stored record count
// @Tags stats
// @Produce json
// @Success 200 {object} dto.StatsResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/v1/stats [get]
func (h *StatsHandler) GetStats(c *gin.Context) {
	count, err := h.repo.Count(c.Request.Context())
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:     "Failed to retrieve stats",
			Message:   "Internal server error occurred while counting delivery records",
			Timestamp: time.Now(),
		})
		return
	}

	c.JSON(http.StatusOK, dto.StatsResponse{
		Router:      h.router.Stats(),
		Listeners:   h.listeners.Stats(),
		Broker:      h.broker.Stats(),
		RecordCount: count,
		Timestamp:   time.Now(),
	})
}
