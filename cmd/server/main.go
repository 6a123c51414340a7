// File: cmd/server/main.go
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iyunix/go-dreamer/internal/config"
	"github.com/iyunix/go-dreamer/internal/services"
)

func main() {
	cfg := config.Load()
	logger := services.NewLogger("go_dreamer")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	app, err := buildApplication(ctx, cfg, logger)
	cancel()
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize application: %v", err)
	}
	defer app.Close()

	// --- Server Configuration ---
	port := ":8080"
	if cfg.ServerPort != "" {
		port = ":" + cfg.ServerPort
	}
	srv := &http.Server{
		Addr:              port,
		Handler:           newRouter(app),
		ReadHeaderTimeout: 10 * time.Second,
		// video generation polls upstream for minutes
		WriteTimeout: cfg.VideoTimeout + 30*time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	logger.Info("Server starting",
		"port", port,
		"environment", cfg.Environment,
		"image_generation", cfg.FeatureImageGeneration,
		"video_generation", cfg.FeatureVideoGeneration,
		"redis", cfg.RedisAddr != "",
		"storage", cfg.StorageDriver,
	)

	// --- Start Server in Goroutine ---
	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// --- Graceful Shutdown ---
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-stop:
	case err := <-serverErr:
		logger.Error("Server startup failed", "error", err)
		return
	}

	logger.Info("Shutting down server gracefully...")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", "error", err)
		return
	}
	logger.Info("Server stopped gracefully")
}
