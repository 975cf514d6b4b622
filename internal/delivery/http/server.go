package http

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	fiberSwagger "github.com/swaggo/fiber-swagger"
	"go.uber.org/zap"

	"github.com/kairos-service/internal/config"
	"github.com/kairos-service/internal/delivery/http/handler"
	"github.com/kairos-service/internal/delivery/http/middleware"
	"github.com/kairos-service/internal/usecase"
)

// Server - HTTP сервер на основе Fiber
type Server struct {
	app      *fiber.App
	config   *config.Config
	logger   *zap.Logger
	registry *usecase.WorkspaceRegistry

	// Handlers
	authHandler    *handler.AuthHandler
	journeyHandler *handler.JourneyHandler
	mapHandler     *handler.MapHandler
	userHandler    *handler.UserHandler
}

// NewServer - создание нового HTTP сервера
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	registry *usecase.WorkspaceRegistry,
	authHandler *handler.AuthHandler,
	journeyHandler *handler.JourneyHandler,
	mapHandler *handler.MapHandler,
	userHandler *handler.UserHandler,
) *Server {
	app := fiber.New(fiber.Config{
		AppName:      "Kairos Map Service",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
		ErrorHandler: customErrorHandler(logger),
	})

	s := &Server{
		app:            app,
		config:         cfg,
		logger:         logger,
		registry:       registry,
		authHandler:    authHandler,
		journeyHandler: journeyHandler,
		mapHandler:     mapHandler,
		userHandler:    userHandler,
	}

	s.setupMiddlewares()
	s.setupRoutes()

	return s
}

// App - fiber приложение (для тестов)
func (s *Server) App() *fiber.App {
	return s.app
}

// setupMiddlewares - настройка middleware
func (s *Server) setupMiddlewares() {
	s.app.Use(middleware.Recovery(s.logger))
	s.app.Use(middleware.Logger(s.logger))
	s.app.Use(middleware.CORS(s.config.Server.AllowOrigins))
	s.app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
}

// setupRoutes - настройка маршрутов
func (s *Server) setupRoutes() {
	// Swagger documentation route
	s.app.Get("/swagger/*", fiberSwagger.WrapHandler)

	// Prometheus
	s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := s.app.Group("/api/v1")

	// Health check
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":   "healthy",
			"time":     time.Now(),
			"sessions": s.registry.Count(),
		})
	})

	api.Use(middleware.Session(s.registry, middleware.SessionConfig{
		CookieName: s.config.Session.CookieName,
		TTL:        s.config.Session.TTL,
		Secure:     !s.config.IsDevelopment(),
	}, s.logger))

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/login", s.authHandler.Login)
	auth.Post("/signup", s.authHandler.Signup)
	auth.Post("/logout", s.authHandler.Logout)
	auth.Post("/forgot-password", s.authHandler.ForgotPassword)
	auth.Post("/reset-password", s.authHandler.ResetPassword)
	auth.Post("/verify-email", s.authHandler.VerifyEmail)
	auth.Get("/me", middleware.RequireAuth(), s.authHandler.Me)

	// Journey routes
	journeys := api.Group("/journeys", middleware.RequireAuth())
	journeys.Get("/", s.journeyHandler.List)
	journeys.Get("/active", s.journeyHandler.Active)
	journeys.Post("/", s.journeyHandler.Create)
	journeys.Delete("/:id", s.journeyHandler.Delete)
	journeys.Put("/:id/active", s.journeyHandler.SetActive)
	journeys.Patch("/:id/completed", s.journeyHandler.SetCompleted)

	// Map routes
	mapGroup := api.Group("/map", middleware.RequireAuth())
	mapGroup.Get("/", s.mapHandler.Load)
	mapGroup.Post("/refresh", s.mapHandler.Refresh)
	mapGroup.Get("/routes", s.mapHandler.Routes)
	mapGroup.Post("/add-point", s.mapHandler.ToggleAddPoint)
	mapGroup.Post("/click", s.mapHandler.Click)
	mapGroup.Post("/markers/:id/click", s.mapHandler.ClickMarker)

	dialog := mapGroup.Group("/dialog")
	dialog.Post("/confirm-create", s.mapHandler.ConfirmCreate)
	dialog.Post("/update", s.mapHandler.BeginUpdate)
	dialog.Post("/reposition", s.mapHandler.BeginReposition)
	dialog.Post("/confirm-update", s.mapHandler.ConfirmUpdate)
	dialog.Post("/delete", s.mapHandler.Delete)
	dialog.Post("/cancel", s.mapHandler.Cancel)
	dialog.Post("/close", s.mapHandler.Close)

	// User routes
	users := api.Group("/users", middleware.RequireAuth())
	users.Put("/me", s.userHandler.UpdateAccount)
	users.Delete("/me", s.userHandler.DeleteAccount)
	users.Get("/:id", s.userHandler.Page)
	users.Get("/:id/profile", s.userHandler.Profile)
}

// Start - запуск HTTP сервера
func (s *Server) Start() error {
	addr := s.config.GetServerAddr()
	s.logger.Info("Starting HTTP server", zap.String("address", addr))
	return s.app.Listen(addr)
}

// Shutdown - graceful shutdown HTTP сервера
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.app.ShutdownWithContext(ctx)
}

// customErrorHandler - кастомный обработчик ошибок
func customErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		errCode := "INTERNAL_SERVER_ERROR"

		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
			if code == fiber.StatusNotFound {
				errCode = "NOT_FOUND"
			}
		}

		logger.Error("HTTP Error",
			zap.String("path", c.Path()),
			zap.Int("status", code),
			zap.Error(err),
		)

		return c.Status(code).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    errCode,
				"message": err.Error(),
			},
		})
	}
}
