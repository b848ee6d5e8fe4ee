package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"product-dashboard/internal/client"
	"product-dashboard/internal/config"
	"product-dashboard/internal/logger"
	"product-dashboard/internal/server"
	"product-dashboard/internal/storage"

	"go.uber.org/zap"
)

func gracefulShutdown(apiServer *server.Server, logger *zap.Logger, done chan bool) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	logger.Info("Shutting down gracefully, press Ctrl+C again to force")
	stop() // Allow Ctrl+C to force shutdown

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	if err := apiServer.Close(); err != nil {
		logger.Error("Error closing server resources", zap.Error(err))
	}

	logger.Info("Server exiting")
	done <- true
}

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Server.Env)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting product dashboard API",
		zap.String("env", cfg.Server.Env),
		zap.String("port", cfg.Server.Port),
		zap.String("products_api", cfg.Products.BaseURL),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	kv, err := storage.Open(ctx, cfg, log)
	cancel()
	if err != nil {
		log.Fatal("Failed to open local store", zap.Error(err))
	}

	api := client.New(cfg.Products.BaseURL,
		client.WithTimeout(cfg.Products.Timeout),
		client.WithRateLimit(cfg.Products.Rate, cfg.Products.Burst),
		client.WithLogger(log),
	)

	srv := server.NewServer(cfg, log, kv, api)

	done := make(chan bool, 1)
	go gracefulShutdown(srv, log, done)

	log.Info("Server listening", zap.String("addr", srv.Addr))

	err = srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		log.Fatal("HTTP server error", zap.Error(err))
	}

	<-done
	log.Info("Graceful shutdown complete")
}
