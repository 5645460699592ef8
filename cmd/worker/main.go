// Package main runs the standalone upload sync worker. It needs Redis: the queue and the
// event bridge are how it shares work and events with the API servers.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/aura-academy/backend/config"
	"github.com/aura-academy/backend/internal/app"
	"github.com/aura-academy/backend/internal/worker"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	if !cfg.Redis.Enabled() {
		logger.Fatal("REDIS_ADDR is required for the standalone worker; set RUN_WORKER on the server instead")
	}

	ctx := context.Background()
	backend, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("init backend", zap.Error(err))
	}
	defer backend.Close()

	processor := worker.NewUploadSyncProcessor(backend.Uploads, backend.Queue, logger)

	workerCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		processor.Run(workerCtx)
	}()
	logger.Info("worker started", zap.String("store", backend.Store.Driver), zap.Any("vendors", backend.Modes()))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		logger.Warn("worker did not stop in time")
	}
	logger.Info("worker stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
