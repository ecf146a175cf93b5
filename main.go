package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/nambasaf/Azure-a2a-demo/config"
	"github.com/nambasaf/Azure-a2a-demo/handler"
	"github.com/nambasaf/Azure-a2a-demo/middleware"
	"github.com/nambasaf/Azure-a2a-demo/pkg/logger"
	"github.com/nambasaf/Azure-a2a-demo/service"
)

func main() {
	// Load .env if present, then configuration
	_ = godotenv.Load()

	cfg, err := config.Load("config.yaml")
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	slog.Info("configuration loaded successfully",
		"blob_backend", cfg.Blob.Backend,
		"ledger_backend", cfg.Ledger.Backend,
	)

	ctx := context.Background()

	// Initialize stores
	artifacts, err := newArtifactStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to initialize artifact store", "error", err)
		os.Exit(1)
	}

	if err := artifacts.EnsureContainers(ctx,
		cfg.Blob.UploadsContainer,
		cfg.Blob.ProcessedContainer,
		cfg.Blob.OutputsContainer,
	); err != nil {
		slog.Error("failed to ensure artifact containers", "error", err)
		os.Exit(1)
	}

	ledger, err := newLedger(ctx, cfg)
	if err != nil {
		slog.Error("failed to initialize request ledger", "error", err)
		os.Exit(1)
	}

	// Initialize pipeline and handlers
	stageClient := service.NewStageClient(&cfg.Pipeline, cfg.Auth.APIKey)
	pipeline := service.NewPipeline(artifacts, ledger, stageClient, &cfg.Blob)
	pipelineHandler := handler.NewPipelineHandler(pipeline, ledger)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New() // Use New() instead of Default() to avoid default middleware

	// Add custom middleware
	router.Use(middleware.RequestID())                 // Request ID for tracing
	router.Use(middleware.Recovery())                  // Panic recovery
	router.Use(middleware.RequestLogger())             // Access logging
	router.Use(middleware.RateLimit(100, time.Minute)) // Rate limiting: 100 requests per minute

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	// Stage endpoints share one key; each stage triggers the next with it
	api := router.Group("/api")
	api.Use(middleware.AuthMiddleware(&cfg.Auth))
	{
		api.POST("/demo/ingest", pipelineHandler.Ingest)
		api.POST("/demo/transform", pipelineHandler.Transform)
		api.POST("/demo/review", pipelineHandler.Review)
		api.GET("/demo/requests/:id", pipelineHandler.GetRequest)
	}

	// Create server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server exited gracefully")
}

// newArtifactStore builds the configured artifact store backend
func newArtifactStore(ctx context.Context, cfg *config.Config) (service.ArtifactStore, error) {
	switch cfg.Blob.Backend {
	case "minio":
		return service.NewMinioStore(&cfg.Blob.Minio)
	case "gcs":
		return service.NewGCSStore(ctx)
	case "memory":
		return service.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown blob backend %q", cfg.Blob.Backend)
	}
}

// newLedger builds the configured request ledger backend
func newLedger(ctx context.Context, cfg *config.Config) (service.Ledger, error) {
	switch cfg.Ledger.Backend {
	case "firestore":
		return service.NewFirestoreLedger(ctx, &cfg.Ledger)
	case "sqlite":
		return service.NewSQLiteLedger(&cfg.Ledger)
	case "memory":
		return service.NewMemoryLedger(), nil
	default:
		return nil, fmt.Errorf("unknown ledger backend %q", cfg.Ledger.Backend)
	}
}
