package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	httpapi "github.com/Tuwebai/safespot-sub004/internal/api/http"
	appChat "github.com/Tuwebai/safespot-sub004/internal/application/chat"
	"github.com/Tuwebai/safespot-sub004/internal/application/delivery"
	"github.com/Tuwebai/safespot-sub004/internal/application/notifier"
	appOutbox "github.com/Tuwebai/safespot-sub004/internal/application/outbox"
	appReport "github.com/Tuwebai/safespot-sub004/internal/application/report"
	"github.com/Tuwebai/safespot-sub004/internal/config"
	"github.com/Tuwebai/safespot-sub004/internal/infrastructure/dispatch"
	"github.com/Tuwebai/safespot-sub004/internal/infrastructure/postgres"
	"github.com/Tuwebai/safespot-sub004/internal/infrastructure/redisledger"
	"github.com/Tuwebai/safespot-sub004/internal/infrastructure/redisq"
	"github.com/Tuwebai/safespot-sub004/internal/infrastructure/sse"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	level := zerolog.InfoLevel
	if cfg.Debug {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db error: %v", err)
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool, cfg.MigrationsDir); err != nil {
		log.Fatalf("migration error: %v", err)
	}

	factory, err := redisq.NewFactory(cfg.RedisURL, logger)
	if err != nil {
		log.Fatalf("redis error: %v", err)
	}
	defer factory.Close()

	// infrastructure
	sseHub := sse.NewHub()
	defer sseHub.Stop()
	ledger := redisledger.New(factory.Client(), logger)
	queue := factory.Queue(cfg.NotificationQueueName)

	// services
	producer := notifier.NewProducer(queue, logger)
	flusher := appOutbox.NewFlusher(sseHub, producer, logger)
	runner := appOutbox.NewRunner(pool, flusher, logger)
	chatSvc := appChat.NewService(postgres.NewChatRepository(), runner, logger)
	reportSvc := appReport.NewService(producer, logger)

	// consumer
	dispatcher := dispatch.NewSSEDispatcher(sseHub, ledger, nil, logger)
	processor := delivery.NewProcessor(dispatcher, logger)
	var consumer redisq.Consumer
	if cfg.IsTestMode() {
		consumer = redisq.NewNoopWorker(logger)
	} else {
		consumer = factory.Worker(cfg.NotificationQueueName, func(ctx context.Context, job *redisq.ActiveJob) error {
			return processor.Handle(ctx, job.Envelope)
		}, redisq.WorkerOptions{
			Concurrency:   cfg.WorkerConcurrency,
			RatePerSecond: cfg.WorkerRatePerSecond,
		})
	}
	go func() {
		if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error().Err(err).Msg("notification consumer stopped")
		}
	}()

	// queue lifecycle events, surfaced for observability
	events, closeEvents := factory.Events(cfg.NotificationQueueName).Subscribe(ctx)
	defer func() { _ = closeEvents() }()
	go func() {
		for ev := range events {
			logger.Debug().
				Str("event", ev.Event).
				Str("job_id", ev.JobID).
				Str("event_id", ev.EventID).
				Str("trace_id", ev.TraceID).
				Int("attempt", ev.Attempt).
				Msg("queue event")
		}
	}()

	apiServer := httpapi.NewServer(chatSvc, reportSvc, ledger, sseHub, logger)
	httpServer := &http.Server{
		Addr:        cfg.ServerAddr,
		Handler:     apiServer.Router(),
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.ServerAddr).Msg("http server started")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(ctxShutdown)
}
