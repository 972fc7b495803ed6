// Package main is the entry point for the tombstone API server.
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

	"tombstone/internal/bootstrap"
	"tombstone/internal/config"
	v1 "tombstone/internal/infrastructure/http/v1"
	"tombstone/pkg/logger"
)

const version = "0.1.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.Development(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx := logger.WithLogger(context.Background(), log)
	log.Infow("starting tombstone server", "config", cfg.String())

	// --- Storage ---
	storage, err := bootstrap.OpenStorage(ctx, cfg)
	if err != nil {
		log.Fatalw("failed to open storage", "driver", cfg.StorageDriver, "error", err)
	}
	defer storage.Close()

	// --- Models ---
	specs, err := bootstrap.LoadModels(cfg.ModelsFile)
	if err != nil {
		log.Fatalw("failed to load models", "file", cfg.ModelsFile, "error", err)
	}
	models, err := bootstrap.BuildModels(specs, storage.Store)
	if err != nil {
		log.Fatalw("failed to build models", "error", err)
	}
	log.Infow("models registered",
		"models", models.Registry.Names(),
		"soft_delete", len(models.SoftDeleters),
	)

	if cfg.AutoMigrate && storage.Migrate != nil {
		if err := storage.Migrate(ctx, models.Defs()...); err != nil {
			log.Fatalw("failed to migrate", "error", err)
		}
		log.Info("schema migrated")
	}

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Logger:       log,
		Models:       models.Registry,
		SoftDeleters: models.SoftDeleters,
		Ping:         storage.Ping,
		Driver:       storage.Driver,
		Version:      version,
		Debug:        cfg.Development(),
	})

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Infow("server starting", "addr", server.Addr, "storage", storage.Driver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}
