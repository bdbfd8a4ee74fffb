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

	"framex/internal/config"
	"framex/internal/database"
	"framex/internal/logger"
	"framex/internal/middleware"
	"framex/internal/server"
	"framex/internal/services"
	"framex/internal/storage"
)

// @title           Framex API
// @version         1.0
// @description     Framex is a shared expense ledger for small teams: record payments and receipts against managed master data, review category and monthly totals, and export the ledger.
// @termsOfService  http://swagger.io/terms/

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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
			log.Warnf("failed to close database: %v", err)
		}
	}()

	if err := dbManager.Migrate(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Logo storage is optional; without a bucket the logo endpoints report
	// STORAGE_UNAVAILABLE.
	var logos services.LogoStore
	if appConfig.S3.Enabled() {
		store, err := storage.NewS3LogoStore(ctx, appConfig.S3)
		if err != nil {
			return fmt.Errorf("failed to initialize logo storage: %w", err)
		}
		logos = store
		log.Infof("Logo storage enabled (bucket %s)", appConfig.S3.Bucket)
	} else {
		log.Warn("S3_BUCKET not set, company logo uploads are disabled")
	}

	svc, err := server.NewServices(dbManager.DB(), logos, appConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	loginLimiter := middleware.NewRateLimiter(appConfig.LoginRatePerMinute, appConfig.LoginBurst)
	defer loginLimiter.Stop()

	router := server.NewRouter(svc, server.Options{
		Location:     appConfig.ReportLocation(),
		LoginLimiter: loginLimiter,
	})

	srv := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting Framex server on port %s", appConfig.Port)
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
