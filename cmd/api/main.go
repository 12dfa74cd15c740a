package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/Srophos/Cloud-Native-Banking-API/config"
	"github.com/Srophos/Cloud-Native-Banking-API/internal/codec"
	apihandler "github.com/Srophos/Cloud-Native-Banking-API/internal/handler/api"
	"github.com/Srophos/Cloud-Native-Banking-API/internal/repository/postgres"
	redisrepo "github.com/Srophos/Cloud-Native-Banking-API/internal/repository/redis"
	"github.com/Srophos/Cloud-Native-Banking-API/internal/usecase"
	"github.com/Srophos/Cloud-Native-Banking-API/pkg/logger"
	"github.com/Srophos/Cloud-Native-Banking-API/pkg/observability"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	// Initialize logger
	logger.Init(cfg.App.Environment)
	defer logger.Close()

	// Print configuration in development mode
	if cfg.App.IsDevelopment() {
		cfg.Print()
	}

	// Initialize database connection
	db, err := sqlx.Connect("postgres", cfg.Database.GetDSN())
	if err != nil {
		logger.Fatal("Failed to connect to database", logger.ErrorField(err))
	}
	db.SetMaxIdleConns(cfg.Database.MaxIdle)
	db.SetMaxOpenConns(cfg.Database.MaxOpen)
	db.SetConnMaxLifetime(cfg.Database.MaxLife)
	defer db.Close()

	// Initialize Redis connection
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetRedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	// Test Redis connection
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		logger.Fatal("Failed to connect to Redis", logger.ErrorField(err))
	}
	defer rdb.Close()

	logger.Info("Database and Redis connections established")

	// Initialize repositories
	accountRepo := postgres.NewAccountRepository(db)
	queueRepo := redisrepo.NewQueueRepository(rdb, cfg.Queue.Name, cfg.Queue.MaxAttempts)

	// Initialize use cases
	transferCodec := codec.NewJSONCodec()
	accountUC := usecase.NewAccountUsecase(accountRepo)
	ingestionUC := usecase.NewIngestionUsecase(queueRepo, transferCodec)

	// Initialize handlers
	accountHandler := apihandler.NewAccountHandler(accountUC)
	transactionHandler := apihandler.NewTransactionHandler(ingestionUC)

	// Set Gin mode
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize metrics handler
	metricsHandler := observability.NewMetricsHandler(cfg.App.Name)

	// Create Gin router
	router := gin.New()

	// Add middleware
	router.Use(observability.Middleware())
	router.Use(gin.Recovery())

	// Setup metrics and health endpoints
	router.GET("/metrics", metricsHandler.MetricsEndpoint())
	router.GET("/health", metricsHandler.HealthEndpoint())
	router.GET("/ready", metricsHandler.ReadinessEndpoint())
	router.GET("/live", metricsHandler.LivenessEndpoint())

	// Setup API routes
	apihandler.SetupRoutes(router, accountHandler, transactionHandler, cfg.Auth.InternalSecret)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Starting server",
			logger.String("port", cfg.App.Port),
			logger.String("environment", cfg.App.Environment),
		)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", logger.ErrorField(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Create a deadline for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Attempt graceful shutdown
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", logger.ErrorField(err))
	}

	logger.Info("Server exited")
}
