package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lmeng-dev/tusgate/internal/config"
	"github.com/lmeng-dev/tusgate/internal/handlers"
	"github.com/lmeng-dev/tusgate/internal/hooks"
	"github.com/lmeng-dev/tusgate/internal/middleware"
	"github.com/lmeng-dev/tusgate/internal/storage/s3"
)

func main() {
	// .env is optional; real deployments set environment variables directly
	_ = godotenv.Load()

	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("starting tusgate",
		"port", cfg.Port,
		"api_prefix", cfg.APIPrefix,
		"max_upload_size", cfg.MaxUploadSize,
		"s3_endpoint", cfg.S3Endpoint,
		"s3_bucket", cfg.S3Bucket,
	)

	// Initialize object storage
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	store, err := s3.New(ctx, s3.Config{
		Bucket:          cfg.S3Bucket,
		Region:          cfg.S3Region,
		Endpoint:        cfg.S3Endpoint,
		AccessKeyID:     cfg.S3AccessKey,
		SecretAccessKey: cfg.S3SecretKey,
		PathStyle:       cfg.S3PathStyle,
		UseSSL:          cfg.S3UseSSL,
	})
	cancel()
	if err != nil {
		slog.Error("failed to initialize object storage", "error", err)
		os.Exit(1)
	}

	slog.Info("object storage ready", "bucket", cfg.S3Bucket)

	dispatcher := hooks.NewDispatcher(cfg.MaxUploadSize)

	// Record start time for health checks
	startTime := time.Now()

	// Setup HTTP router
	mux := http.NewServeMux()
	mux.HandleFunc(cfg.APIPrefix+"/hooks", handlers.HookHandler(dispatcher))
	mux.HandleFunc("GET "+cfg.APIPrefix+"/files/{key}", handlers.FileInfoHandler(store, cfg))
	mux.HandleFunc("GET "+cfg.APIPrefix+"/files/{key}/download", handlers.DownloadHandler(store, cfg))
	mux.HandleFunc("GET "+cfg.APIPrefix+"/config", handlers.PublicConfigHandler(cfg))
	mux.HandleFunc("GET /health", handlers.HealthHandler(store, startTime))
	mux.Handle("GET /metrics", promhttp.Handler())

	// Apply middleware stack
	handler := middleware.RecoveryMiddleware(
		middleware.LoggingMiddleware(
			middleware.SecurityHeadersMiddleware(
				middleware.CORSMiddleware(mux),
			),
		),
	)

	// Setup HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start HTTP server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "address", server.Addr)
		serverErrors <- server.ListenAndServe()
	}()

	// Setup graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Wait for shutdown signal or server error
	select {
	case err := <-serverErrors:
		slog.Error("server error", "error", err)
		os.Exit(1)

	case sig := <-shutdown:
		slog.Info("shutdown signal received", "signal", sig)

		// Give outstanding requests 10 seconds to complete
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("graceful shutdown failed", "error", err)
			if err := server.Close(); err != nil {
				slog.Error("server close failed", "error", err)
			}
			os.Exit(1)
		}

		slog.Info("server shutdown complete")
	}
}
