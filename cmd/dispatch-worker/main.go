package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aescanero/goto-dispatcher/internal/action"
	"github.com/aescanero/goto-dispatcher/internal/config"
	"github.com/aescanero/goto-dispatcher/internal/manifest"
	"github.com/aescanero/goto-dispatcher/internal/session"
	"github.com/aescanero/goto-dispatcher/internal/worker"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Version is set at build time
	Version = "dev"
	// BuildTime is set at build time
	BuildTime = "unknown"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := initLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting dispatch worker",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("worker_id", cfg.WorkerID),
	)

	logger.Info("configuration loaded", zap.String("config", cfg.String()))

	// Load and check the route file
	routes, err := manifest.Load(cfg.RoutesFile)
	if err != nil {
		logger.Fatal("failed to load routes", zap.String("file", cfg.RoutesFile), zap.Error(err))
	}

	runner := action.NewRunner(logger)
	if err := routes.Check(runner); err != nil {
		logger.Fatal("invalid routes", zap.String("file", cfg.RoutesFile), zap.Error(err))
	}
	if missing := routes.UnresolvedRefs(); len(missing) > 0 {
		logger.Warn("routes reference unknown controllers, they will dispatch as no-ops",
			zap.Strings("refs", missing),
		)
	}
	logger.Info("routes loaded",
		zap.String("file", cfg.RoutesFile),
		zap.Int("routes", len(routes.Routes)),
	)

	registry := session.NewRegistry(routes, runner, cfg.DispatchOptions(), logger)

	// Initialize Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	logger.Info("connected to redis", zap.String("addr", cfg.RedisAddr))

	w := worker.NewWorker(cfg, redisClient, registry, logger)
	if err := w.Start(); err != nil {
		logger.Fatal("failed to start worker", zap.Error(err))
	}

	healthServer := worker.NewHealthServer(cfg.HealthPort, redisClient, registry, logger)
	if err := healthServer.Start(); err != nil {
		logger.Fatal("failed to start health server", zap.Error(err))
	}

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("dispatch worker running, press Ctrl+C to stop")
	<-sigChan

	logger.Info("shutdown signal received, stopping worker")

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)

		if err := healthServer.Stop(); err != nil {
			logger.Error("failed to stop health server", zap.Error(err))
		}

		if err := w.Stop(); err != nil {
			logger.Error("failed to stop worker", zap.Error(err))
		}

		if err := redisClient.Close(); err != nil {
			logger.Error("failed to close redis connection", zap.Error(err))
		}
	}()

	select {
	case <-stopped:
		logger.Info("worker stopped gracefully", zap.Int("open_sessions", registry.Len()))
	case <-time.After(10 * time.Second):
		logger.Warn("shutdown timeout exceeded, forcing exit")
	}
}

// initLogger initializes the logger
func initLogger(level string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	return config.Build()
}
