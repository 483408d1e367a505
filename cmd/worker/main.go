package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/Tuwebai/safespot-sub004/internal/application/delivery"
	"github.com/Tuwebai/safespot-sub004/internal/config"
	"github.com/Tuwebai/safespot-sub004/internal/infrastructure/dispatch"
	"github.com/Tuwebai/safespot-sub004/internal/infrastructure/redisledger"
	"github.com/Tuwebai/safespot-sub004/internal/infrastructure/redisq"
	"github.com/Tuwebai/safespot-sub004/internal/infrastructure/sse"
)

// loggingHooks surfaces worker terminal states in the process log.
type loggingHooks struct {
	logger zerolog.Logger
}

func (h loggingHooks) OnCompleted(job *redisq.ActiveJob) {
	h.logger.Debug().Str("job_id", job.ID).Msg("job completed")
}

func (h loggingHooks) OnFailed(job *redisq.ActiveJob, err error) {
	h.logger.Error().Err(err).Str("job_id", job.ID).Msg("job moved to failed set")
}

func (h loggingHooks) OnError(err error) {
	h.logger.Warn().Err(err).Msg("worker error")
}

// Standalone notification consumer. Multiple worker processes may run
// against the same queue; the backing store arbitrates job ownership.
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

	factory, err := redisq.NewFactory(cfg.RedisURL, logger)
	if err != nil {
		log.Fatalf("redis error: %v", err)
	}
	defer factory.Close()

	ledger := redisledger.New(factory.Client(), logger)

	// A standalone worker has no HTTP clients attached to its hub; SSE
	// delivery reports retryable until a connected process picks the job up.
	sseHub := sse.NewHub()
	defer sseHub.Stop()
	dispatcher := dispatch.NewSSEDispatcher(sseHub, ledger, nil, logger)
	processor := delivery.NewProcessor(dispatcher, logger)

	var consumer redisq.Consumer
	if cfg.IsTestMode() {
		consumer = redisq.NewNoopWorker(logger).WithHooks(loggingHooks{logger: logger})
	} else {
		worker := factory.Worker(cfg.NotificationQueueName, func(ctx context.Context, job *redisq.ActiveJob) error {
			return processor.Handle(ctx, job.Envelope)
		}, redisq.WorkerOptions{
			Concurrency:   cfg.WorkerConcurrency,
			RatePerSecond: cfg.WorkerRatePerSecond,
		})
		consumer = worker.WithHooks(loggingHooks{logger: logger})
	}

	logger.Info().Str("queue", cfg.NotificationQueueName).Msg("notification worker started")
	if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Fatal().Err(err).Msg("worker failed")
	}
}
