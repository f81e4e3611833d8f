package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"sheet-sync/internal/changelog"
	"sheet-sync/internal/consistency"
	"sheet-sync/internal/deltasync"
	"sheet-sync/internal/nats"
	"sheet-sync/internal/schema"
	"sheet-sync/internal/server"
	"sheet-sync/internal/store"
)

func main() {
	// Setup logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	logger.SetLevel(logrus.InfoLevel)

	// Local development secrets
	if err := godotenv.Load(); err == nil {
		logger.Debug("Loaded environment from .env")
	}

	// Load configuration
	configPath := "config.yaml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	// Set log level from config
	if level, err := logrus.ParseLevel(config.Logging.Level); err == nil {
		logger.SetLevel(level)
	}

	logger.Info("Starting sheet sync service...")

	registry, err := schema.DefaultRegistry()
	if err != nil {
		logger.Fatalf("Failed to build table registry: %v", err)
	}

	grid, err := store.OpenSQLGrid(config.Store.Driver, config.Store.DSN)
	if err != nil {
		logger.Fatalf("Failed to open store: %v", err)
	}
	defer grid.Close()

	// Missing tables are not fatal: setupSheets creates them on demand
	if err := store.Preflight(grid, registry, logger); err != nil {
		logger.Warnf("Preflight: %v", err)
	}

	var publisher *nats.Publisher
	if config.NATS.URL != "" {
		publisher, err = nats.NewPublisher(
			config.NATS.URL,
			config.NATS.Subject,
			config.NATS.MaxReconnect,
			config.NATS.ReconnectWait,
			logger,
		)
		if err != nil {
			logger.Fatalf("Failed to create NATS publisher: %v", err)
		}
		defer publisher.Close()
	} else {
		logger.Info("NATS URL not set, change notifications disabled")
	}

	log := changelog.New(grid, registry, logger)
	engine := deltasync.New(grid, registry, log, logger)
	checker := consistency.New(grid, registry, log, logger)

	srv := server.New(server.Config{
		Addr:         config.Server.Addr,
		Secret:       config.Server.Secret,
		DefaultLimit: config.Sync.DefaultLimit,
		ReadTimeout:  config.Server.ReadTimeout,
		WriteTimeout: config.Server.WriteTimeout,
	}, grid, registry, log, engine, checker, publisher, logger)

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case sig := <-sigChan:
		logger.Infof("Received signal: %v, shutting down...", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Errorf("Shutdown error: %v", err)
		}
	case err := <-errChan:
		if err != nil {
			logger.Errorf("Server error: %v", err)
		}
	}

	logger.Info("Sheet sync service stopped")
}
