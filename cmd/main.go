package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"banking-service/internal/config"
	"banking-service/internal/server"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// Load .env (optional)
	if err := godotenv.Load(); err != nil {
		log.Println("Banking: No .env file found, relying on system env vars")
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logger, err := config.NewLogger(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize server", zap.Error(err))
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("banking service shutting down gracefully", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			logger.Error("server stopped unexpectedly", zap.Error(err))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown completed with errors", zap.Error(err))
		return
	}
	logger.Info("banking service stopped")
}
