// Package main is the entry point for the featurizer service.
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

	"github.com/plately/featurizer/internal/config"
	"github.com/plately/featurizer/internal/embeddings"
	"github.com/plately/featurizer/internal/events"
	"github.com/plately/featurizer/internal/features"
	"github.com/plately/featurizer/internal/geo"
	"github.com/plately/featurizer/internal/server"
	"github.com/plately/featurizer/internal/store"
	"github.com/plately/featurizer/internal/worker"
)

func main() {
	// Logger
	logLevel := slog.LevelInfo
	if os.Getenv("FEATURIZER_LOG_LEVEL") == "debug" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	db, err := store.NewDB(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("connected to database")

	// Embedding provider: real OpenAI when a key is configured, always
	// wrapped so failures degrade to the deterministic fallback.
	var primary embeddings.Provider
	if cfg.OpenAIAPIKey != "" {
		primary = embeddings.NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	}
	embedder := embeddings.NewDegrading(primary, logger)
	logger.Info("embedding provider initialized", "provider", embedder.Name())

	// Geo resolver
	resolver := geo.NewResolver(cfg.GeocodingAPIKey, logger)

	// Stores and builder
	profileStore := store.NewProfileStore(db)
	featureStore := store.NewFeatureStore(db)
	queueStore := store.NewQueueStore(db)
	builder := features.NewBuilder(profileStore, embedder, resolver, logger)

	// NATS — optional, service works without it
	var (
		natsClient *events.Client
		publisher  *events.Publisher
	)
	if cfg.NatsURL != "" {
		natsClient, err = events.NewClient(cfg.NatsURL, logger)
		if err != nil {
			logger.Warn("failed to connect to NATS, running without event bus", "error", err)
			natsClient = nil
		} else {
			defer natsClient.Close()
			logger.Info("connected to NATS", "url", cfg.NatsURL)
			publisher = events.NewPublisher(natsClient, logger)
		}
	}

	// Worker
	workerCfg := worker.Config{
		BatchSize:        cfg.BatchSize,
		PollInterval:     cfg.PollInterval,
		RetryBackoffBase: cfg.RetryBackoffBase,
		Retention:        cfg.QueueRetention,
		CleanupInterval:  cfg.CleanupInterval,
		MaxRetries:       cfg.MaxRetries,
	}
	var resultPublisher worker.ResultPublisher
	if publisher != nil {
		resultPublisher = publisher
	}
	wrk := worker.New(queueStore, featureStore, builder, resultPublisher, workerCfg, logger)
	wrk.Start(ctx)

	// Trigger subscriber
	if natsClient != nil {
		subscriber := events.NewSubscriber(natsClient, wrk, logger)
		if err := subscriber.Start(ctx); err != nil {
			logger.Warn("failed to start trigger subscriber", "error", err)
		} else {
			defer subscriber.Stop()
		}
	}

	// Server
	srv := server.New(cfg, db, natsClient, wrk, logger)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      srv.Router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		logger.Info("shutting down gracefully...")
		wrk.Stop()
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", "error", err)
		}
	}()

	logger.Info("featurizer starting", "port", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	logger.Info("featurizer stopped")
}
