package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/RyadPasha/event-hub-data-processor/internal/api"
	"github.com/RyadPasha/event-hub-data-processor/internal/config"
	"github.com/RyadPasha/event-hub-data-processor/internal/listener"
	"github.com/RyadPasha/event-hub-data-processor/internal/mq"
	"github.com/RyadPasha/event-hub-data-processor/internal/persister"
	"github.com/RyadPasha/event-hub-data-processor/internal/router"
	"github.com/RyadPasha/event-hub-data-processor/internal/storage/mongodb"
	"github.com/RyadPasha/event-hub-data-processor/internal/stream"
)

const closeTimeout = 10 * time.Second

// @title Event Hub Data Processor Admin API
// @version 1.0
// @description Internal admin API exposing routing statistics and stored delivery records

// @BasePath /
// @schemes http
func main() {
	// Load configuration (environment, overridden by flags)
	cfg, err := config.LoadWithFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	// Setup structured logging
	level, _ := config.ParseLogLevel(cfg.LogLevel)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	logger.Info("Loaded configuration",
		"instance_id", cfg.Router.InstanceID,
		"stream_url", cfg.Stream.URL,
		"stream_name", cfg.Stream.Name,
		"queue_backend", cfg.Queue.Backend,
		"mongo_database", cfg.Storage.Database,
		"mongo_collection", cfg.Storage.Collection,
		"lease_enabled", cfg.Router.LeaseEnabled,
		"admin_addr", cfg.Admin.Addr,
	)

	// Durable store
	repo, err := mongodb.NewDeliveryRepository(cfg.Storage.MongoURI, cfg.Storage.Database, cfg.Storage.Collection)
	if err != nil {
		logger.Error("Failed to initialize MongoDB repository", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to MongoDB",
		"database", cfg.Storage.Database,
		"collection", cfg.Storage.Collection,
	)

	// Queue broker and optional router lease
	broker, lease, err := newBroker(cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize queue broker", "error", err)
		os.Exit(1)
	}

	// Event stream
	startCtx, startCancel := context.WithTimeout(context.Background(), 30*time.Second)
	source, err := stream.NewJetStreamSource(startCtx, stream.JetStreamConfig{
		URL:        cfg.Stream.URL,
		Name:       cfg.Router.InstanceID,
		StreamName: cfg.Stream.Name,
		Subjects:   cfg.Stream.Subjects,
		BatchSize:  cfg.Stream.BatchSize,
		FetchWait:  cfg.Stream.FetchWait,
	}, logger)
	startCancel()
	if err != nil {
		logger.Error("Failed to connect to event stream", "error", err)
		os.Exit(1)
	}

	// Pipeline
	eventRouter := router.NewRouter(source, router.NewQueueSender(broker, logger), lease, logger)
	listeners := listener.NewGroup(broker, persister.NewPersister(repo, nil, logger), logger)

	// Optional admin listener
	var adminServer *http.Server
	if cfg.Admin.Addr != "" {
		adminRouter := api.NewRouter(api.Dependencies{
			Router:     eventRouter,
			Listeners:  listeners,
			Broker:     broker,
			Repository: repo,
			Logger:     logger,
		})

		adminServer = &http.Server{
			Addr:         cfg.Admin.Addr,
			Handler:      adminRouter.Engine(),
			ReadTimeout:  config.DefaultAdminReadTimeout,
			WriteTimeout: config.DefaultAdminWriteTimeout,
			IdleTimeout:  config.DefaultAdminIdleTimeout,
		}

		go func() {
			logger.Info("Starting admin server", "address", adminServer.Addr)
			if err := adminServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Admin server failed", "error", err)
			}
		}()
	}

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	errChan := make(chan error, 2)

	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := eventRouter.Start(ctx); err != nil {
			errChan <- fmt.Errorf("router: %w", err)
		}
	}()
	go func() {
		defer wg.Done()
		if err := listeners.Run(ctx); err != nil {
			errChan <- fmt.Errorf("listeners: %w", err)
		}
	}()

	exitCode := 0

	// Wait for shutdown signal or error
	select {
	case sig := <-sigChan:
		logger.Info("Received shutdown signal", "signal", sig)
	case err := <-errChan:
		logger.Error("Pipeline stopped unexpectedly", "error", err)
		exitCode = 1
	}

	cancel()

	// Let in-flight batches and messages finish
	drained := make(chan struct{})
	go func() {
		wg.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		logger.Info("Pipeline drained")
	case <-time.After(cfg.ShutdownTimeout):
		logger.Warn("Shutdown timeout reached before pipeline drained", "timeout", cfg.ShutdownTimeout)
	}

	closeCtx, closeCancel := context.WithTimeout(context.Background(), closeTimeout)
	defer closeCancel()

	if adminServer != nil {
		if err := adminServer.Shutdown(closeCtx); err != nil {
			logger.Warn("Admin server shutdown failed", "error", err)
		}
	}

	// Close transports in reverse order of creation
	if err := source.Close(); err != nil {
		logger.Warn("Failed to close event stream", "error", err)
	}
	if err := broker.Close(); err != nil {
		logger.Warn("Failed to close queue broker", "error", err)
	}
	if err := repo.Close(closeCtx); err != nil {
		logger.Warn("Failed to close MongoDB repository", "error", err)
	}

	// Final statistics
	stats := eventRouter.Stats()
	logger.Info("Shutdown complete",
		"events_received", stats.EventsReceived,
		"events_routed", stats.EventsRouted,
		"send_errors", stats.SendErrors,
		"stream_errors", stats.StreamErrors,
	)
	for _, s := range listeners.Stats() {
		logger.Info("Listener final statistics",
			"queue", s.Queue,
			"messages_received", s.MessagesReceived,
			"records_stored", s.RecordsStored,
			"persist_errors", s.PersistErrors,
		)
	}

	closeCancel()
	os.Exit(exitCode)
}

// newBroker builds the configured queue broker. The router lease shares the
// Redis connection pool and is only returned when enabled.
func newBroker(cfg *config.Config, logger *slog.Logger) (mq.Broker, *router.Lease, error) {
	switch cfg.Queue.Backend {
	case config.QueueBackendMemory:
		logger.Info("Using in-memory queue broker", "buffer_size", cfg.Queue.BufferSize)
		return mq.NewInMemoryBroker(mq.InMemoryBrokerConfig{BufferSize: cfg.Queue.BufferSize}), nil, nil

	case config.QueueBackendRedis:
		broker, err := mq.NewRedisBroker(mq.RedisBrokerConfig{
			RedisURL:   cfg.Queue.URL,
			ConsumerID: cfg.Router.InstanceID,
		}, logger)
		if err != nil {
			return nil, nil, err
		}

		var lease *router.Lease
		if cfg.Router.LeaseEnabled {
			lease = router.NewLease(broker.Client(), cfg.Router.InstanceID, cfg.Router.LeaseTTL, logger)
		}
		return broker, lease, nil

	default:
		return nil, nil, fmt.Errorf("unknown queue backend: %q", cfg.Queue.Backend)
	}
}
