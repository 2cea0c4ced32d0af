package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/utafrali/TranscriptSearch/internal/config"
	"github.com/utafrali/TranscriptSearch/internal/event"
	handler "github.com/utafrali/TranscriptSearch/internal/handler/http"
	"github.com/utafrali/TranscriptSearch/internal/service"
	"github.com/utafrali/TranscriptSearch/pkg/database"
	"github.com/utafrali/TranscriptSearch/pkg/health"
	pkgkafka "github.com/utafrali/TranscriptSearch/pkg/kafka"
	"github.com/utafrali/TranscriptSearch/pkg/middleware"
	"github.com/utafrali/TranscriptSearch/pkg/tracing"
)

// ServiceName labels logs, metrics and traces.
const ServiceName = "cvsearch"

// idempotencyTTL bounds how long processed event IDs are remembered.
const idempotencyTTL = 24 * time.Hour

// App wires together all dependencies and runs the HTTP API and the
// transcription event consumers.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	backend        *Backend
	consumers      []*pkgkafka.Consumer
	dlq            *pkgkafka.DLQProducer
	httpServer     *http.Server
	shutdownTracer func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	shutdownTracer, err := tracing.InitTracer(ctx, cfg.Tracing(ServiceName))
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	backend, err := NewBackend(ctx, cfg, logger)
	if err != nil {
		_ = shutdownTracer(ctx)
		return nil, err
	}
	if err := backend.EnsureIndex(ctx); err != nil {
		logger.Warn("index bootstrap failed, continuing", slog.String("error", err.Error()))
	}

	searchService := service.NewSearchService(backend.Transport, backend.Engine, backend.StaticConfig, logger)

	a := &App{
		cfg:            cfg,
		logger:         logger,
		backend:        backend,
		shutdownTracer: shutdownTracer,
	}

	if len(cfg.KafkaBrokers) > 0 {
		a.initConsumers(searchService)
	}

	// Health checks.
	healthHandler := health.NewHandler()
	if backend.Elastic != nil {
		healthHandler.Register("elasticsearch", backend.Elastic.Ping)
	}
	if backend.Redis != nil {
		healthHandler.RegisterOptional("redis", database.RedisPing(backend.Redis))
	}
	if len(cfg.KafkaBrokers) > 0 {
		healthHandler.RegisterOptional("kafka", func(ctx context.Context) error {
			return pkgkafka.PingBrokers(ctx, cfg.KafkaBrokers)
		})
	}

	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.CORSOrigins
	router := handler.NewRouter(searchService, healthHandler, cors, cfg.RateLimit(), logger)

	a.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return a, nil
}

// initConsumers starts one consumer group member per transcription topic.
// Handlers skip already-processed event IDs and poison messages go to the
// topic's dead-letter queue.
func (a *App) initConsumers(searchService *service.SearchService) {
	var store pkgkafka.IdempotencyStore = pkgkafka.NewMemoryIdempotencyStore(idempotencyTTL)
	if a.backend.Redis != nil {
		store = pkgkafka.NewRedisIdempotencyStore(a.backend.Redis, "cvsearch:events:", idempotencyTTL)
	}

	a.dlq = pkgkafka.NewDLQProducer(a.cfg.KafkaBrokers, a.logger)
	eventConsumer := event.NewConsumer(searchService, a.logger)

	topics := []string{
		event.TopicTranscriptionCreated,
		event.TopicTranscriptionDeleted,
	}
	for _, topic := range topics {
		consumerCfg := pkgkafka.ConsumerConfig{
			Brokers:  a.cfg.KafkaBrokers,
			GroupID:  a.cfg.KafkaGroupID,
			Topic:    topic,
			MinBytes: 1,
			MaxBytes: 10e6,
		}
		handle := pkgkafka.IdempotentHandler(store, topic, eventConsumer.Handle, a.logger)
		a.consumers = append(a.consumers, pkgkafka.NewConsumer(consumerCfg, handle, a.dlq, a.logger))
	}

	a.logger.Info("kafka consumers initialized",
		slog.Any("brokers", a.cfg.KafkaBrokers),
		slog.Int("topic_count", len(topics)),
	)
}

// Run starts the HTTP server and Kafka consumers, blocking until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1+len(a.consumers))

	for _, c := range a.consumers {
		go func() {
			if err := c.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("kafka consumer: %w", err)
			}
		}()
	}

	go func() {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		_ = a.Shutdown()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	for _, c := range a.consumers {
		if err := c.Close(); err != nil {
			a.logger.Error("kafka consumer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.dlq != nil {
		if err := a.dlq.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if err := a.backend.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := a.shutdownTracer(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown tracer: %w", err))
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// Handler exposes the HTTP handler, mainly for tests.
func (a *App) Handler() http.Handler { return a.httpServer.Handler }
