package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ai-garden/internal/domain"
	"ai-garden/internal/service"
)

// TrackHandler recibe eventos de analitica emitidos por el frontend.
type TrackHandler struct {
	logger  *zap.Logger
	tracker *service.EventTracker
}

func NewTrackHandler(logger *zap.Logger, tracker *service.EventTracker) *TrackHandler {
	return &TrackHandler{
		logger:  logger,
		tracker: tracker,
	}
}

// Track maneja POST /api/track. La escritura es fire and forget; el endpoint
// responde en cuanto el evento queda encolado.
func (h *TrackHandler) Track(c *gin.Context) {
	var req struct {
		EventType string         `json:"event_type" binding:"required"`
		EventData map[string]any `json:"event_data"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid track request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing event_type"})
		return
	}

	claims, _ := GetAuthClaims(c)
	h.tracker.Track(domain.Event{
		UserID:    claims.UserID,
		EventType: req.EventType,
		EventData: req.EventData,
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})

	c.JSON(http.StatusOK, gin.H{"status": "tracked"})
}
