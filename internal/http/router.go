package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ai-garden/internal/service"
)

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(
	logger *zap.Logger,
	userH *UserHandler,
	chatH *ChatHandler,
	trackH *TrackHandler,
	jwtSvc *service.JWTService,
) *gin.Engine {
	r := gin.New()

	// Middlewares basicos: logging y recovery. El content-type lo fija cada
	// handler; /api/chat responde un stream, no JSON.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery())

	auth := r.Group("/auth")
	auth.POST("/signup", userH.Signup)
	auth.POST("/login", userH.Login)
	auth.POST("/refresh", userH.RefreshToken)
	auth.POST("/logout", userH.Logout)

	api := r.Group("/api", JWTAuthMiddleware(jwtSvc))
	api.POST("/chat", chatH.Chat)
	api.POST("/track", trackH.Track)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}
