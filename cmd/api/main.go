package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"ai-garden/internal/config"
	"ai-garden/internal/db"
	apihttp "ai-garden/internal/http"
	"ai-garden/internal/llm"
	"ai-garden/internal/repository"
	"ai-garden/internal/search"
	"ai-garden/internal/service"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	userRepo := repository.NewPgUserRepository(pool)
	eventRepo := repository.NewPgEventRepository(pool)
	tracker := service.NewEventTracker(logger, eventRepo)

	var (
		loginLimiter service.LoginRateLimiter
		tokenStore   service.RefreshTokenStore
	)
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			loginLimiter = service.NewRedisLoginRateLimiter(redisClient, 10*time.Minute, 10)
			tokenStore = service.NewRedisRefreshTokenStore(redisClient)
		}
		cancel()
	}

	jwtSvc := service.NewJWTServiceWithStore(
		cfg.JWTSecret,
		time.Duration(cfg.JWTAccessTTLMinutes)*time.Minute,
		time.Duration(cfg.JWTRefreshTTLMinutes)*time.Minute,
		tokenStore,
	)
	if cfg.JWTSecret == "" {
		logger.Warn("jwt secret not configured")
	}

	registry := llm.NewRegistry(logger, modelTable(cfg), map[string]llm.Streamer{
		llm.ProviderOpenAI: llm.NewOpenAIStreamer(cfg.OpenAIBaseURL, logger),
		llm.ProviderGrok:   llm.NewGrokStreamer(cfg.XAIBaseURL, logger),
		llm.ProviderGemini: llm.NewGeminiStreamer(cfg.GeminiBaseURL, logger),
	})

	searchClient := search.NewGoogleClient(cfg.SearchAPIKey, cfg.SearchEngineID, "", logger)
	augmenter := service.NewSearchAugmenter(logger, searchClient)

	userSvc := service.NewUserService(logger, userRepo, loginLimiter)
	chatSvc := service.NewChatService(logger, registry, augmenter, tracker)

	userHandler := apihttp.NewUserHandler(logger, userSvc, jwtSvc, tracker)
	chatHandler := apihttp.NewChatHandler(logger, chatSvc)
	trackHandler := apihttp.NewTrackHandler(logger, tracker)
	router := apihttp.NewRouter(logger, userHandler, chatHandler, trackHandler, jwtSvc)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}

// modelTable arma la tabla estatica de modelos soportados a partir de la
// configuracion. Una credencial por tier; su ausencia falla recien al pedir
// ese modelo.
func modelTable(cfg *config.Config) []llm.ModelConfig {
	return []llm.ModelConfig{
		{ID: "gpt-4.5-preview", Provider: llm.ProviderOpenAI, APIKey: cfg.OpenAIKey45},
		{ID: "gpt-4o", Provider: llm.ProviderOpenAI, APIKey: cfg.OpenAIKey4o},
		{ID: "grok-2", Provider: llm.ProviderGrok, APIKey: cfg.XAIKey},
		{ID: "grok-3", Provider: llm.ProviderGrok, APIKey: cfg.XAIKeyGrok3},
		{ID: "gemini-2.0-flash-exp-image-generation", Provider: llm.ProviderGemini, APIKey: cfg.GeminiFlashKey, MaxOutputTokens: 8192},
		{ID: "gemini-2.5-pro-preview-03-25", Provider: llm.ProviderGemini, APIKey: cfg.GeminiProKey, MaxOutputTokens: 65536},
	}
}
