package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ai-garden/internal/llm"
	"ai-garden/internal/service"
)

// ChatHandler mantiene dependencias para el endpoint de chat en streaming.
type ChatHandler struct {
	logger   *zap.Logger
	chatServ *service.ChatService
}

// NewChatHandler crea una instancia de ChatHandler con dependencias necesarias.
func NewChatHandler(logger *zap.Logger, chatServ *service.ChatService) *ChatHandler {
	return &ChatHandler{
		logger:   logger,
		chatServ: chatServ,
	}
}

// Chat maneja POST /api/chat. Los errores previos al primer byte se devuelven
// como JSON; una vez abierto el stream solo queda cortarlo, porque los
// headers ya viajaron.
func (h *ChatHandler) Chat(c *gin.Context) {
	var req service.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid chat request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	claims, _ := GetAuthClaims(c)

	stream, err := h.chatServ.Chat(c.Request.Context(), claims.UserID, req)
	if err != nil {
		h.respondChatError(c, req.Model, err)
		return
	}
	defer stream.Close()

	c.Header("Content-Type", "text/event-stream; charset=utf-8")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	if err := writeDataStream(c.Writer, stream); err != nil {
		// Cierre no limpio: el consumidor lo interpreta como error.
		h.logger.Warn("chat stream aborted",
			zap.Error(err),
			zap.String("model", req.Model),
		)
	}
}

func (h *ChatHandler) respondChatError(c *gin.Context, model string, err error) {
	switch {
	case errors.Is(err, service.ErrMissingInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing messages or model"})
	case errors.Is(err, llm.ErrUnsupportedModel):
		c.JSON(http.StatusBadRequest, gin.H{"error": "model " + model + " not supported or accessible"})
	case errors.Is(err, llm.ErrPromptStructure):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, llm.ErrNotConfigured):
		// Detalle suprimido hacia el cliente; el log conserva el modelo.
		h.logger.Error("chat configuration error", zap.Error(err), zap.String("model", model))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "configuration error"})
	case errors.Is(err, llm.ErrModelNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "model not found upstream", "modelUsed": model})
	case errors.Is(err, llm.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "provider rate limited", "modelUsed": model})
	case errors.Is(err, llm.ErrAuthentication):
		h.logger.Error("provider auth failed", zap.Error(err), zap.String("model", model))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "provider authentication failed", "modelUsed": model})
	default:
		var provErr *llm.ProviderError
		if errors.As(err, &provErr) {
			h.logger.Error("provider error",
				zap.Int("upstream_status", provErr.Status),
				zap.String("model", model),
				zap.String("details", provErr.Message),
			)
			status := provErr.Status
			if status < 400 || status > 599 {
				status = http.StatusInternalServerError
			}
			c.JSON(status, gin.H{"error": "provider error", "details": provErr.Message, "modelUsed": model})
			return
		}
		h.logger.Error("chat request failed", zap.Error(err), zap.String("model", model))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "an unexpected error occurred"})
	}
}
