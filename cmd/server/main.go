package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/segyhp/lending-core/internal/bootstrap"
	"github.com/segyhp/lending-core/internal/cache"
	"github.com/segyhp/lending-core/internal/config"
	"github.com/segyhp/lending-core/internal/handler"
	"github.com/segyhp/lending-core/internal/logger"
	"github.com/segyhp/lending-core/internal/service"
	"github.com/segyhp/lending-core/pkg/response"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	log := logger.New(cfg.Logging)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Initialize storage
	storage, err := bootstrap.OpenStorage(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize storage")
	}
	defer storage.Close()

	// Initialize Redis
	guard := service.NoopReferenceGuard()
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.WithError(err).Fatal("Failed to initialize redis")
		}
		defer redisClient.Close()
		guard = cache.NewReferenceGuard(redisClient, cfg.Redis.ReferenceTTL)
	}

	// Initialize audit publisher
	publisher, closer, err := bootstrap.OpenPublisher(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize audit publisher")
	}
	defer closer.Close()

	// Initialize services
	clock := service.SystemClock{}
	loanService := service.NewLoanService(storage.UnitOfWork, clock, publisher, log)
	paymentService := service.NewPaymentService(storage.UnitOfWork, clock, guard, publisher, log)
	reportService := service.NewReportService(storage.UnitOfWork, clock, log)

	router := handler.NewRouter(
		handler.NewLoanHandler(loanService, log),
		handler.NewPaymentHandler(paymentService, log),
		handler.NewReportHandler(reportService, log),
		handler.NewHealthHandler(storage.DB, redisClient, cfg.Health.Timeout),
		log,
	)

	// Start server
	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      response.CORSMiddleware(router),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.WithField("addr", server.Addr).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}

	log.Info("Server exited")
}
