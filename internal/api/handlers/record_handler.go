package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/RyadPasha/event-hub-data-processor/internal/api/dto"
	"github.com/RyadPasha/event-hub-data-processor/internal/storage"
	"github.com/gin-gonic/gin"
)

// MaxRecordLimit bounds the limit query parameter of ListRecords
const MaxRecordLimit = 1000

// RecordHandler handles delivery record API requests
type RecordHandler struct {
	repo storage.DeliveryRepository
}

// NewRecordHandler creates a new record handler
func NewRecordHandler(repo storage.DeliveryRepository) *RecordHandler {
	return &RecordHandler{
		repo: repo,
	}
}

// ListRecords godoc
// @Summary List recent delivery records
// @Description Get the most recently stored delivery records, newest first
// @Tags records
// @Produce json
// @Param limit query int false "Maximum number of records (1-1000)" default(50)
// @Success 200 {object} dto.RecordListResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/v1/records [get]
func (h *RecordHandler) ListRecords(c *gin.Context) {
	limit := storage.DefaultRecentLimit

	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > MaxRecordLimit {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Error:     "Invalid request",
				Message:   "limit must be between 1 and " + strconv.Itoa(MaxRecordLimit),
				Timestamp: time.Now(),
			})
			return
		}
		limit = parsed
	}

	ctx := c.Request.Context()

	records, err := h.repo.Recent(ctx, limit)
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:     "Failed to retrieve records",
			Message:   "Internal server error occurred while fetching delivery records",
			Timestamp: time.Now(),
		})
		return
	}

	total, err := h.repo.Count(ctx)
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:     "Failed to count records",
			Message:   "Internal server error occurred while counting delivery records",
			Timestamp: time.Now(),
		})
		return
	}

	c.JSON(http.StatusOK, dto.ToRecordListResponse(records, total))
}
