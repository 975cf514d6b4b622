package main

// @title Kairos Map Service API
// @version 1.0.0
// @description Backend-for-frontend карты путешествий Kairos. Держит сессию браузера, токены Kairos API,
// @description маркеры активного путешествия и соседних путешествий, строит маршруты и сцену карты.
// @description
// @description Основные возможности:
// @description - Вход, выход и регистрация через Kairos API с единым refresh токенов
// @description - Путешествия: список, создание, активное путешествие, завершение
// @description - Сцена карты: линии маршрутов, стрелки направления, пины past/plan
// @description - Добавление, редактирование, перемещение и удаление маркеров через диалоги карты

// @contact.name API Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http https

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	_ "github.com/kairos-service/docs"
	"github.com/kairos-service/internal/config"
	httpDelivery "github.com/kairos-service/internal/delivery/http"
	"github.com/kairos-service/internal/delivery/http/handler"
	"github.com/kairos-service/internal/domain"
	"github.com/kairos-service/internal/domain/repository"
	"github.com/kairos-service/internal/infrastructure/kairos"
	"github.com/kairos-service/internal/pkg/logger"
	"github.com/kairos-service/internal/projection"
	"github.com/kairos-service/internal/repository/cache"
	"github.com/kairos-service/internal/usecase"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// 2. Initialize logger
	log, err := logger.New(cfg.Log.Level, cfg.Server.Env)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting Kairos Map Service")
	log.Info("Configuration loaded",
		zap.String("server_addr", cfg.GetServerAddr()),
		zap.String("kairos_api", cfg.Kairos.BaseURL),
		zap.String("session_store", cfg.Session.Store),
	)

	// 3. Session and cache storage
	var (
		tokenStore  repository.TokenStore
		cacheRepo   repository.CacheRepository
		redisClient *cache.Redis
	)

	switch cfg.Session.Store {
	case "redis":
		redisClient, err = cache.NewRedis(&cfg.Redis, log)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Health(ctx); err != nil {
			cancel()
			log.Fatal("Redis health check failed", zap.Error(err))
		}
		cancel()

		tokenStore = cache.NewRedisTokenStore(redisClient)
		cacheRepo = cache.NewCacheRepository(redisClient)
		log.Info("Redis connected")
	default:
		tokenStore = cache.NewMemoryTokenStore(cfg.Session.TTL)
		cacheRepo = cache.NewMemoryCacheRepository(cfg.Cache.ProfileCacheTTL)
		log.Warn("Using in-memory session store, sessions are lost on restart")
	}

	// 4. Kairos API client
	client := kairos.NewClient(&cfg.Kairos, &cfg.Breaker, log)
	factory := func(tokens domain.Tokens, onChange func(domain.Tokens)) usecase.KairosSession {
		return client.NewSession(tokens, onChange)
	}

	// 5. Workspaces
	registry := usecase.NewWorkspaceRegistry(client, tokenStore, cacheRepo, factory, usecase.WorkspaceConfig{
		SessionTTL:      cfg.Session.TTL,
		IdleTimeout:     cfg.Session.IdleTimeout,
		ProfileCacheTTL: cfg.Cache.ProfileCacheTTL,
		Map: usecase.MapOptions{
			Projection: projection.Options{
				ArrowSpacingKm:  cfg.Map.ArrowSpacingKm,
				ShowOrderBadges: cfg.Map.ShowOrderBadges,
			},
			Viewport: projection.ViewportOptions{
				MinZoom:         cfg.Map.MinZoom,
				MaxZoom:         cfg.Map.MaxZoom,
				SinglePointZoom: cfg.Map.SinglePointZoom,
			},
			DefaultViewport: projection.Viewport{
				Center: domain.NewCoordinates(cfg.Map.DefaultCenterLng, cfg.Map.DefaultCenterLat),
				Zoom:   cfg.Map.DefaultZoom,
			},
		},
	}, log)

	// 6. Initialize HTTP Handlers
	server := httpDelivery.NewServer(
		cfg,
		log,
		registry,
		handler.NewAuthHandler(log),
		handler.NewJourneyHandler(log),
		handler.NewMapHandler(log),
		handler.NewUserHandler(log),
	)

	log.Info("HTTP server initialized")

	// 7. Start server in goroutine
	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started successfully",
		zap.String("address", cfg.GetServerAddr()),
		zap.String("env", cfg.Server.Env),
	)

	// 8. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Server shutdown error", zap.Error(err))
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Error("Failed to close Redis", zap.Error(err))
		}
	}

	log.Info("Server stopped successfully")
}
