package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/catering-backend/api/routes"
	"github.com/angelmondragon/catering-backend/internal/contracts"
	"github.com/angelmondragon/catering-backend/internal/estimates"
	"github.com/angelmondragon/catering-backend/internal/invoices"
	"github.com/angelmondragon/catering-backend/internal/quotes"
	"github.com/angelmondragon/catering-backend/internal/reports"
	"github.com/angelmondragon/catering-backend/pkg/config"
	"github.com/angelmondragon/catering-backend/pkg/db"
	"github.com/angelmondragon/catering-backend/pkg/logger"
	"github.com/angelmondragon/catering-backend/pkg/metrics"
	"github.com/angelmondragon/catering-backend/pkg/migrate"
	"github.com/angelmondragon/catering-backend/pkg/outbox"
	"github.com/angelmondragon/catering-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	workflowMetrics := metrics.NewWorkflowMetrics(registry)

	services, err := buildServices(cfg, logg, dbClient, workflowMetrics)
	if err != nil {
		logg.Error(ctx, "failed to wire services", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, routes.Infra{
			DB:       dbClient,
			Redis:    redisClient,
			Metrics:  workflowMetrics,
			Gatherer: registry,
		}, services),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "api server shutdown failed", err)
		}
	}
}

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, m *metrics.WorkflowMetrics) (routes.Services, error) {
	conn := dbClient.DB()
	outboxRepo := outbox.NewRepository(conn)
	emitter := outbox.NewService(outboxRepo, logg)

	quoteRepo := quotes.NewRepository(conn)
	invoiceRepo := invoices.NewRepository(conn)

	quoteService, err := quotes.NewService(quoteRepo, dbClient, emitter, m, logg)
	if err != nil {
		return routes.Services{}, err
	}
	invoiceService, err := invoices.NewService(invoiceRepo, quoteRepo, dbClient, emitter, cfg.Business, m, logg)
	if err != nil {
		return routes.Services{}, err
	}
	estimateService, err := estimates.NewService(invoiceRepo, quoteRepo, outboxRepo, outbox.NewDLQRepository(dbClient.DB()), dbClient, emitter, m, logg)
	if err != nil {
		return routes.Services{}, err
	}
	contractService, err := contracts.NewService(contracts.NewRepository(conn), invoiceRepo, quoteRepo, dbClient, emitter, m, logg)
	if err != nil {
		return routes.Services{}, err
	}
	reportService, err := reports.NewService(reports.NewRepository(conn), logg)
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Quotes:    quoteService,
		Invoices:  invoiceService,
		Estimates: estimateService,
		Contracts: contractService,
		Reports:   reportService,
	}, nil
}
