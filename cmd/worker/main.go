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
	"github.com/Srophos/Cloud-Native-Banking-API/internal/domain"
	"github.com/Srophos/Cloud-Native-Banking-API/internal/events"
	eventskafka "github.com/Srophos/Cloud-Native-Banking-API/internal/events/kafka"
	"github.com/Srophos/Cloud-Native-Banking-API/internal/repository/postgres"
	redisrepo "github.com/Srophos/Cloud-Native-Banking-API/internal/repository/redis"
	"github.com/Srophos/Cloud-Native-Banking-API/internal/usecase"
	"github.com/Srophos/Cloud-Native-Banking-API/internal/worker"
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

	// Initialize settlement event publisher
	var publisher domain.EventPublisher = events.NoopPublisher{}
	if cfg.Events.Enabled() {
		kafkaPublisher := eventskafka.NewPublisher(cfg.Events.Brokers, cfg.Events.Topic)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
		logger.Info("Settlement event publishing enabled",
			logger.String("topic", cfg.Events.Topic),
		)
	}

	// Initialize repositories and use cases
	accountRepo := postgres.NewAccountRepository(db)
	queueRepo := redisrepo.NewQueueRepository(rdb, cfg.Queue.Name, cfg.Queue.MaxAttempts)
	settlementUC := usecase.NewSettlementUsecase(accountRepo, publisher)

	// Start settlement worker
	settlementWorker := worker.NewSettlementWorker(queueRepo, settlementUC, codec.NewJSONCodec(), worker.SettlementWorkerConfig{
		PollTimeout:  cfg.Queue.PollTimeout,
		ErrorBackoff: cfg.Worker.ErrorBackoff,
	})

	workerCtx, workerCancel := context.WithCancel(context.Background())
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		settlementWorker.Start(workerCtx)
	}()

	// Serve health and metrics endpoints alongside the worker
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	metricsHandler := observability.NewMetricsHandler("banking-worker")
	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/metrics", metricsHandler.MetricsEndpoint())
	router.GET("/health", metricsHandler.HealthEndpoint())
	router.GET("/ready", metricsHandler.ReadinessEndpoint())
	router.GET("/live", metricsHandler.LivenessEndpoint())

	server := &http.Server{
		Addr:    ":" + cfg.Worker.MetricsPort,
		Handler: router,
	}

	go func() {
		logger.Info("Starting worker metrics server",
			logger.String("port", cfg.Worker.MetricsPort),
		)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start metrics server", logger.ErrorField(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the worker
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down worker...")

	// Stop leasing new messages; the in-flight message finishes its
	// ack or abandon before the loop exits.
	workerCancel()
	select {
	case <-workerDone:
	case <-time.After(60 * time.Second):
		logger.Error("Worker did not stop within the shutdown window")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Metrics server forced to shutdown", logger.ErrorField(err))
	}

	logger.Info("Worker exited")
}
