package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"motion-monitor/be/middleware"
	"motion-monitor/be/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type StatusHandler struct {
	publisher *services.StatusPublisher
	history   *services.HistoryService
	logger    *zap.Logger
}

// NewStatusHandler takes a nil history when history is disabled.
func NewStatusHandler(publisher *services.StatusPublisher, history *services.HistoryService, logger *zap.Logger) *StatusHandler {
	return &StatusHandler{
		publisher: publisher,
		history:   history,
		logger:    logger,
	}
}

func (h *StatusHandler) PostStatus(c *gin.Context) {
	var req services.StatusReport
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	published, err := h.publisher.Report(c.Request.Context(), *req.MotionDetected, *req.HumansPresent, "http")
	if err != nil {
		h.logger.Error("Failed to publish status",
			zap.String("client_id", c.GetString(middleware.ContextClientID)),
			zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to publish status"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"published": published})
}

func (h *StatusHandler) GetHistory(c *gin.Context) {
	limit := services.DefaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = v
	}

	events, err := h.history.Recent(c.Request.Context(), limit)
	if err != nil {
		if errors.Is(err, services.ErrHistoryDisabled) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch history"})
		return
	}

	c.JSON(http.StatusOK, events)
}
