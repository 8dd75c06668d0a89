// File: /main.go
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"motocosmos-telemetry/config"
	"motocosmos-telemetry/database"
	"motocosmos-telemetry/jobs"
	"motocosmos-telemetry/repositories"
	"motocosmos-telemetry/routes"
	"motocosmos-telemetry/services"
)

func main() {
	// Load configuration
	cfg := config.Load()
	config.InitLogger(cfg)

	profiles, err := config.LoadThresholdProfiles(cfg.Telemetry.ThresholdsFile)
	if err != nil {
		slog.Error("Failed to load threshold profiles", "error", err, "path", cfg.Telemetry.ThresholdsFile)
		os.Exit(1)
	}

	// Initialize database
	db, err := database.Initialize(cfg.DatabaseDriver, cfg.DatabaseURL, cfg.DBLogLevel)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	// Users and motorcycles belong to other services; local sqlite runs create them too
	if err := database.Migrate(db, cfg.DatabaseDriver == "sqlite"); err != nil {
		slog.Error("Failed to migrate database", "error", err)
		os.Exit(1)
	}

	store := repositories.NewStore(db)
	opts := services.RideServiceOptions{
		Profiles:         profiles,
		MaxBatchSize:     cfg.Telemetry.MaxBatchSize,
		LateSamplePolicy: cfg.Telemetry.LateSamplePolicy,
	}
	motorcycles := repositories.NewMotorcycleRepository(db)
	if cfg.RideReportEmails {
		opts.Notifier = services.NewRideReportMailer(cfg, repositories.NewUserRepository(db), motorcycles)
	}
	rideService := services.NewRideService(store, motorcycles, opts)

	staleJob := jobs.NewStaleRideJob(rideService, cfg.Telemetry.StaleRideAfter, cfg.Telemetry.StaleRideSweepInterval)
	staleJob.Start()
	defer staleJob.Stop()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := routes.NewRouter(cfg, rideService)
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		slog.Info("Starting MotoCosmos telemetry server", "port", cfg.Port, "environment", cfg.Environment,
			"late_sample_policy", cfg.Telemetry.LateSamplePolicy)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}
}
