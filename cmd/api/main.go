package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tradedesk/internal/cache"
	"tradedesk/internal/config"
	"tradedesk/internal/database"
	"tradedesk/internal/logger"
	"tradedesk/internal/scheduler"
	"tradedesk/internal/server"

	_ "tradedesk/internal/docs" // Import swagger docs
)

// @title           tradedesk API
// @version         1.0
// @description     Paper-trading portfolio service: accounts, market orders at the latest close, daily prices, valuation snapshots and a live price stream.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key

const shutdownTimeout = 10 * time.Second

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbManager, err := database.NewManager(database.NewConfig(appConfig))
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer func() {
		if err := dbManager.Close(); err != nil {
			log.Warnf("closing database: %v", err)
		}
	}()

	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	stockCache, err := cache.New(1<<20, appConfig.StockCacheTTL)
	if err != nil {
		return fmt.Errorf("failed to create stock cache: %w", err)
	}
	defer stockCache.Close()

	srv := server.New(appConfig, dbManager.DB(), stockCache)

	jobs := scheduler.New()
	if appConfig.SnapshotSchedule != "" {
		err := jobs.AddJob(appConfig.SnapshotSchedule, scheduler.JobFunc{
			JobName: "portfolio-snapshots",
			Fn: func(context.Context) error {
				n, err := srv.Snapshots.ComputeAndRecordSnapshots(time.Now())
				if err != nil {
					return err
				}
				log.Infof("Recorded %d portfolio snapshots", n)
				return nil
			},
		})
		if err != nil {
			return err
		}
	}
	jobs.Start()
	defer jobs.Stop()

	httpServer := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           srv.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting tradedesk server on port %s", appConfig.Port)
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
