// @title StudyHub Web API
// @version 1.0
// @description Backend-for-frontend of the StudyHub learning platform.
// @host localhost:8080
// @BasePath /api
// @schemes http https
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"studyhub/internal/adapter"
	"studyhub/internal/apiclient"
	"studyhub/internal/cache"
	"studyhub/internal/config"
	"studyhub/internal/domain"
	"studyhub/internal/handler"
	"studyhub/internal/logger"
	"studyhub/internal/middleware"
	"studyhub/internal/service"
	"studyhub/internal/validation"

	_ "studyhub/cmd/web/docs"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	if err := logger.Initialize(cfg.Logger); err != nil {
		panic(err)
	}
	appLogger := logger.Get()
	defer func() { _ = logger.Sync() }()

	// Session cache
	var sessionCache domain.Cache
	switch cfg.Cache.Driver {
	case "redis":
		redisClient, err := cache.NewRedisClient(cfg.Redis)
		if err != nil {
			appLogger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer func() { _ = redisClient.Close() }()
		appLogger.Info("Successfully connected to Redis", zap.String("address", cfg.Redis.Address))
		sessionCache = adapter.NewRedisCacheAdapter(redisClient)
	default:
		appLogger.Warn("Using in-memory session cache; sessions are lost on restart")
		sessionCache = adapter.NewMemoryCacheAdapter()
	}

	// Backend API client
	api := apiclient.New(cfg.Backend.BaseURL, &http.Client{Timeout: cfg.Backend.Timeout})
	appLogger.Info("Backend API client initialized", zap.String("base_url", cfg.Backend.BaseURL))

	// Initialize services
	submitter, err := service.NewSubmitter(cfg.Quiz.SubmitFormats)
	if err != nil {
		appLogger.Fatal("Invalid quiz.submit_formats", zap.Error(err))
	}
	appLogger.Info("Submission formats configured", zap.Strings("formats", submitter.Formats()))

	notifier := service.NewNotifier(sessionCache, cfg.Notifier.TTL)
	sessions := service.NewSessionService(sessionCache, api, cfg.Session.TTL)
	flows := service.NewQuizFlowService(sessions, sessionCache, cfg.Quiz.FlowTTL, submitter, notifier)
	history := service.NewHistoryService(sessions, sessionCache, cfg.Quiz.FlowTTL, notifier)
	views := service.NewViewService(sessions, notifier)

	// Initialize handlers
	handlers := handler.Handlers{
		Auth:  handler.NewAuthHandler(sessions, notifier, cfg.Session),
		Quiz:  handler.NewQuizHandler(flows, history),
		Views: handler.NewViewHandler(views),
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout,
		BodyLimit:    validation.MaxUploadSize + 1<<20,
		ErrorHandler: middleware.ErrorHandler(cfg.Session.CookieName),
	})

	app.Use(recover.New())
	app.Use(middleware.RequestLogger())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowOrigins,
		AllowMethods:     "GET,POST,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept",
		AllowCredentials: cfg.Server.AllowOrigins != "*",
		MaxAge:           300,
	}))

	app.Get("/swagger/*", swagger.HandlerDefault)
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.SendString("ok") })

	handler.RegisterRoutes(app.Group("/api"), handlers, sessions, cfg.Session.CookieName)

	go func() {
		appLogger.Info("Starting server", zap.Int("port", cfg.Server.Port), zap.String("env", cfg.Logger.Env))
		if err := app.Listen(":" + strconv.Itoa(cfg.Server.Port)); err != nil {
			appLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		appLogger.Error("Server forced to shutdown", zap.Error(err))
	}
	appLogger.Info("Server exited gracefully")
}
