package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/catering-backend/internal/analytics/router"
	"github.com/angelmondragon/catering-backend/internal/analytics/worker"
	"github.com/angelmondragon/catering-backend/internal/analytics/writer"
	"github.com/angelmondragon/catering-backend/pkg/bigquery"
	"github.com/angelmondragon/catering-backend/pkg/config"
	"github.com/angelmondragon/catering-backend/pkg/logger"
	"github.com/angelmondragon/catering-backend/pkg/metrics"
	"github.com/angelmondragon/catering-backend/pkg/outbox/idempotency"
	"github.com/angelmondragon/catering-backend/pkg/pubsub"
	"github.com/angelmondragon/catering-backend/pkg/redis"
)

func main() {
	bootLog := logger.New(logger.Options{ServiceName: worker.ConsumerName})
	if err := godotenv.Load(); err != nil {
		bootLog.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		bootLog.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = worker.ConsumerName

	logg := logger.New(logger.Options{
		ServiceName: worker.ConsumerName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "serviceKind": cfg.Service.Kind})

	if err := run(ctx, cfg, logg); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "analytics worker failed", err)
		stop()
		os.Exit(1)
	}
	logg.Info(ctx, "analytics worker stopped")
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) error {
	// Deferred closes run on a context that outlives the shutdown signal.
	closeCtx := context.WithoutCancel(ctx)

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return fmt.Errorf("bootstrap redis: %w", err)
	}
	defer closeLogged(closeCtx, logg, "redis client", redisClient.Close)

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg, cfg.PubSub.AnalyticsSubscription)
	if err != nil {
		return fmt.Errorf("bootstrap pubsub: %w", err)
	}
	defer closeLogged(closeCtx, logg, "pubsub client", pubsubClient.Close)

	subscription := pubsubClient.AnalyticsSubscription()
	if subscription == nil {
		return fmt.Errorf("subscription %q not configured", cfg.PubSub.AnalyticsSubscription)
	}

	bqClient, err := bigquery.NewClient(ctx, cfg.GCP, cfg.BigQuery, logg)
	if err != nil {
		return fmt.Errorf("bootstrap bigquery: %w", err)
	}
	defer closeLogged(closeCtx, logg, "bigquery client", bqClient.Close)

	sink, err := writer.New(bqClient, writer.Config{EventsTable: cfg.BigQuery.EventsTable})
	if err != nil {
		return fmt.Errorf("create bigquery writer: %w", err)
	}

	routes, err := router.NewRouter(sink, logg, nil)
	if err != nil {
		return fmt.Errorf("create analytics router: %w", err)
	}
	guard, err := idempotency.NewGuard(redisClient, cfg.Eventing.OutboxIdempotencyTTL)
	if err != nil {
		return fmt.Errorf("create idempotency guard: %w", err)
	}

	service, err := worker.NewService(worker.Params{
		Subscription: subscription,
		Handler:      routes,
		Guard:        guard,
		Logger:       logg,
		Metrics:      metrics.NewConsumerMetrics(prometheus.DefaultRegisterer, worker.ConsumerName),
	})
	if err != nil {
		return fmt.Errorf("create analytics worker: %w", err)
	}

	go func() {
		if err := metrics.Serve(ctx, cfg.App.MetricsAddr, prometheus.DefaultGatherer, logg); err != nil {
			logg.Error(ctx, "metrics listener failed", err)
		}
	}()

	logg.Info(ctx, "analytics worker ready")
	return service.Run(ctx)
}

func closeLogged(ctx context.Context, logg *logger.Logger, name string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logg.Error(ctx, "error closing "+name, err)
	}
}
